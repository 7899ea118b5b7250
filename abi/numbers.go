// Copyright 2025 The brane Authors
// This file is part of the brane library.
//
// The brane library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The brane library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the brane library. If not, see <http://www.gnu.org/licenses/>.

package abi

import (
	"math/big"

	"github.com/noise-xyz/brane-sub007/common"
)

var (
	tt256 = new(big.Int).Lsh(common.Big1, 256)

	// MaxUint256 is the maximum value that can be represented by a uint256.
	MaxUint256 = new(big.Int).Sub(tt256, common.Big1)
	// MaxInt256 is the maximum value that can be represented by an int256.
	MaxInt256 = new(big.Int).Sub(new(big.Int).Lsh(common.Big1, 255), common.Big1)
)

// U256 returns x interpreted as an unsigned 256 bit two's-complement number.
// The argument is not modified.
func U256(x *big.Int) *big.Int {
	return new(big.Int).And(x, MaxUint256)
}

// U256Bytes returns the 32-byte big-endian two's-complement form of x.
func U256Bytes(x *big.Int) []byte {
	out := make([]byte, 32)
	U256(x).FillBytes(out)
	return out
}
