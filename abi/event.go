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
	"errors"
	"fmt"
	"strings"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/crypto"
)

var (
	errNoEventSignature       = errors.New("no event signature")
	errEventSignatureMismatch = errors.New("event signature mismatch")
)

// Event is an event potentially triggered by the EVM's LOG mechanism. The
// Event holds type information (inputs) about the yielded output. Anonymous
// events don't get the signature canonical representation as the first LOG
// topic.
type Event struct {
	// Name is the event name used for internal representation. It's derived
	// from the raw name and a suffix will be added in the case of event
	// overloading.
	//
	// e.g.
	// These are two events that have the same name:
	// * foo(int,int)
	// * foo(uint,uint)
	// The event name of the first one will be resolved as foo while the
	// second one will be resolved as foo0.
	Name string
	// RawName is the raw event name parsed from ABI.
	RawName   string
	Anonymous bool
	Inputs    Arguments
	str       string
	// Sig contains the string signature according to the ABI spec.
	// e.g.	 event foo(uint32 a, int b) = "foo(uint32,int256)"
	// Please note that "int" is substituted with its canonical representation "int256".
	Sig string
	// ID returns the canonical representation of the event's signature used
	// by the abi definition to identify event names and types.
	ID common.Hash
}

// NewEvent creates a new Event. It sanitizes the input arguments to remove
// unnamed arguments. It also precomputes the id, signature and string
// representation of the event.
func NewEvent(name, rawName string, anonymous bool, inputs Arguments) Event {
	// sanitize inputs to remove inputs without names
	// and precompute string and sig representation.
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
		// string representation
		names[i] = fmt.Sprintf("%v %v", input.Type, inputs[i].Name)
		if input.Indexed {
			names[i] = fmt.Sprintf("%v indexed %v", input.Type, inputs[i].Name)
		}
		// sig representation
		types[i] = input.Type.String()
	}

	str := fmt.Sprintf("event %v(%v)", rawName, strings.Join(names, ", "))
	sig := fmt.Sprintf("%v(%v)", rawName, strings.Join(types, ","))
	id := common.BytesToHash(crypto.Keccak256([]byte(sig)))

	return Event{
		Name:      name,
		RawName:   rawName,
		Anonymous: anonymous,
		Inputs:    inputs,
		str:       str,
		Sig:       sig,
		ID:        id,
	}
}

// String returns the string representation of the event.
func (e Event) String() string {
	return e.str
}

// ParseLog decodes a raw log entry into a map keyed by input name.
//
// For a non-anonymous event the first topic must carry the event signature.
// Indexed arguments are decoded from the remaining topic words. Types that
// are stored in topics as a hash of their content (string, bytes, arrays,
// tuples) cannot be recovered and are left out of the result. Non-indexed
// arguments are decoded from the data section in declaration order.
func (e Event) ParseLog(topics []common.Hash, data []byte) (map[string]interface{}, error) {
	if !e.Anonymous {
		if len(topics) == 0 {
			return nil, errNoEventSignature
		}
		if topics[0] != e.ID {
			return nil, errEventSignatureMismatch
		}
		topics = topics[1:]
	}
	indexed := e.Inputs.Indexed()
	if len(topics) != len(indexed) {
		return nil, fmt.Errorf("abi: event %s: got %d indexed topics, want %d", e.RawName, len(topics), len(indexed))
	}

	out := make(map[string]interface{})
	for i, arg := range indexed {
		val, ok, err := topicValue(arg.Type, topics[i])
		if err != nil {
			return nil, fmt.Errorf("abi: event %s topic %d: %w", e.RawName, i, err)
		}
		if ok {
			out[arg.Name] = val
		}
	}

	nonIndexed := e.Inputs.NonIndexed()
	if len(nonIndexed) > 0 {
		values, err := nonIndexed.UnpackValues(data)
		if err != nil {
			return nil, err
		}
		for i, arg := range nonIndexed {
			out[arg.Name] = values[i]
		}
	}
	return out, nil
}

// topicValue decodes a single indexed value from its topic word. The second
// return is false when the type is only represented by its hash.
func topicValue(t Type, topic common.Hash) (interface{}, bool, error) {
	switch t.T {
	case AddressTy:
		return common.BytesToAddress(topic[:]), true, nil
	case IntTy, UintTy:
		v, err := ReadInteger(t, topic[:])
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	case BoolTy:
		v, err := readBool(topic[:])
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	case FixedBytesTy:
		v, err := ReadFixedBytes(t, topic[:])
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	case StringTy, BytesTy, SliceTy, ArrayTy, TupleTy:
		// only the Keccak hash of the content is stored in the topic
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported indexed type %v", t)
	}
}
