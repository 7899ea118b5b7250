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
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/crypto"
)

// Error represents a custom error declared in a contract interface. Reverts
// carrying such an error are identified by the first four bytes of the
// Keccak-256 hash of the error signature.
type Error struct {
	Name   string
	Inputs Arguments
	str    string

	// Sig contains the string signature according to the ABI spec.
	// e.g. error foo(uint32 a, int b) = "foo(uint32,int256)"
	// Please note that "int" is substituted with its canonical representation "int256".
	Sig string

	// ID returns the canonical representation of the error's signature used
	// by the abi definition to identify error names and types.
	ID common.Hash
}

// NewError creates a new Error. It sanitizes the input arguments to remove
// unnamed arguments. It also precomputes the id, signature and string
// representation of the error.
func NewError(name string, inputs Arguments) Error {
	names := make([]string, len(inputs))
	types := make([]string, len(inputs))
	for i, input := range inputs {
		if input.Name == "" {
			inputs[i] = Argument{
				Name:    fmt.Sprintf("arg%d", i),
				Indexed: input.Indexed,
				Type:    input.Type,
			}
		} else {
			inputs[i] = input
		}
		names[i] = fmt.Sprintf("%v %v", input.Type, inputs[i].Name)
		types[i] = input.Type.String()
	}

	str := fmt.Sprintf("error %v(%v)", name, strings.Join(names, ", "))
	sig := fmt.Sprintf("%v(%v)", name, strings.Join(types, ","))
	id := common.BytesToHash(crypto.Keccak256([]byte(sig)))

	return Error{
		Name:   name,
		Inputs: inputs,
		str:    str,
		Sig:    sig,
		ID:     id,
	}
}

// String returns the string representation of the error.
func (e Error) String() string {
	return e.str
}

// Unpack decodes the arguments of this error from revert data. The data must
// start with the error's four byte selector.
func (e Error) Unpack(data []byte) ([]interface{}, error) {
	if len(data) < 4 {
		return nil, errors.New("invalid data for unpacking")
	}
	if !bytes.Equal(data[:4], e.ID[:4]) {
		return nil, fmt.Errorf("invalid identifier, have %#x want %#x", data[:4], e.ID[:4])
	}
	return e.Inputs.Unpack(data[4:])
}
