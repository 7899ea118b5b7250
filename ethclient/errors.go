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

package ethclient

import (
	"fmt"
	"math/big"
)

// ChainMismatchError is returned when the node reports a chain id different
// from the one the client was pinned to with WithChainID.
type ChainMismatchError struct {
	Want *big.Int
	Have *big.Int
}

func (e *ChainMismatchError) Error() string {
	return fmt.Sprintf("chain ID mismatch: node has %v, expected %v", e.Have, e.Want)
}

// InvalidSenderError wraps a node rejection caused by signature recovery
// producing an unexpected sender, typically a transaction signed for the
// wrong chain.
type InvalidSenderError struct {
	Err error
}

func (e *InvalidSenderError) Error() string { return e.Err.Error() }

func (e *InvalidSenderError) Unwrap() error { return e.Err }
