// Copyright 2024 The brane Authors
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

package types

import (
	"encoding/json"
	"errors"
	"math/big"

	"github.com/noise-xyz/brane-sub007/common/hexutil"
)

// Header holds the block header fields relevant for fee estimation. The
// node returns many more; they are ignored on decoding.
type Header struct {
	Number *big.Int
	Time   uint64

	// BaseFee is nil on chains without EIP-1559.
	BaseFee *big.Int

	// ExcessBlobGas is nil on chains without EIP-4844.
	ExcessBlobGas *uint64
}

type headerJSON struct {
	Number        *hexutil.Big    `json:"number"`
	Time          *hexutil.Uint64 `json:"timestamp"`
	BaseFee       *hexutil.Big    `json:"baseFeePerGas,omitempty"`
	ExcessBlobGas *hexutil.Uint64 `json:"excessBlobGas,omitempty"`
}

// MarshalJSON marshals the header in its wire representation.
func (h Header) MarshalJSON() ([]byte, error) {
	var enc headerJSON
	if h.Number != nil {
		enc.Number = (*hexutil.Big)(h.Number)
	}
	time := hexutil.Uint64(h.Time)
	enc.Time = &time
	if h.BaseFee != nil {
		enc.BaseFee = (*hexutil.Big)(h.BaseFee)
	}
	if h.ExcessBlobGas != nil {
		excess := hexutil.Uint64(*h.ExcessBlobGas)
		enc.ExcessBlobGas = &excess
	}
	return json.Marshal(&enc)
}

// UnmarshalJSON unmarshals a header from its wire representation.
func (h *Header) UnmarshalJSON(input []byte) error {
	var dec headerJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.Number == nil {
		return errors.New("missing required field 'number' for Header")
	}
	if dec.Time == nil {
		return errors.New("missing required field 'timestamp' for Header")
	}
	h.Number = (*big.Int)(dec.Number)
	h.Time = uint64(*dec.Time)
	if dec.BaseFee != nil {
		h.BaseFee = (*big.Int)(dec.BaseFee)
	} else {
		h.BaseFee = nil
	}
	if dec.ExcessBlobGas != nil {
		excess := uint64(*dec.ExcessBlobGas)
		h.ExcessBlobGas = &excess
	} else {
		h.ExcessBlobGas = nil
	}
	return nil
}
