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
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/rlp"
)

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// AccessTuple is the element type of an access list.
type AccessTuple struct {
	Address     common.Address `json:"address"`
	StorageKeys []common.Hash  `json:"storageKeys"`
}

// StorageKeys returns the total number of storage keys in the access list.
func (al AccessList) StorageKeys() int {
	sum := 0
	for _, tuple := range al {
		sum += len(tuple.StorageKeys)
	}
	return sum
}

// encode writes the access list as rlp [[address, [keys...]]...].
// A nil list encodes as an empty list.
func (al AccessList) encode(w rlp.EncoderBuffer) {
	outer := w.List()
	for _, tuple := range al {
		inner := w.List()
		w.WriteBytes(tuple.Address[:])
		keys := w.List()
		for _, key := range tuple.StorageKeys {
			w.WriteBytes(key[:])
		}
		w.ListEnd(keys)
		w.ListEnd(inner)
	}
	w.ListEnd(outer)
}
