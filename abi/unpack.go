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
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/noise-xyz/brane-sub007/common"
)

var errBadBool = errors.New("abi: improperly encoded boolean value")

// ReadInteger decodes a 32-byte word as *big.Int, applying two's-complement
// interpretation for signed types. Values that do not fit the declared width
// are rejected.
func ReadInteger(typ Type, b []byte) (*big.Int, error) {
	ret := new(big.Int).SetBytes(b)
	if typ.T == UintTy {
		if ret.BitLen() > typ.Size {
			return nil, fmt.Errorf("abi: improperly encoded uint%d value", typ.Size)
		}
		return ret, nil
	}
	if ret.Bit(255) == 1 {
		ret.Add(MaxUint256, new(big.Int).Neg(ret))
		ret.Add(ret, common.Big1)
		ret.Neg(ret)
	}
	limit := new(big.Int).Lsh(common.Big1, uint(typ.Size-1))
	if ret.Cmp(limit) >= 0 || ret.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("abi: improperly encoded int%d value", typ.Size)
	}
	return ret, nil
}

// readBool decodes a 32-byte word as a boolean. Anything but 0 or 1 in the
// last byte, or a non-zero padding byte, is an error.
func readBool(word []byte) (bool, error) {
	for _, b := range word[:31] {
		if b != 0 {
			return false, errBadBool
		}
	}
	switch word[31] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errBadBool
	}
}

// ReadFixedBytes copies the left-aligned t.Size bytes out of word.
func ReadFixedBytes(t Type, word []byte) ([]byte, error) {
	if t.T != FixedBytesTy {
		return nil, errors.New("abi: invalid type in call to make fixed byte array")
	}
	out := make([]byte, t.Size)
	copy(out, word[:t.Size])
	return out, nil
}

// readFunctionType decodes a function type word: 24 bytes of payload with 8
// zero bytes of padding.
func readFunctionType(t Type, word []byte) ([]byte, error) {
	if t.T != FunctionTy {
		return nil, errors.New("abi: invalid type in call to make function type byte array")
	}
	if garbage := binary.BigEndian.Uint64(word[24:32]); garbage != 0 {
		return nil, fmt.Errorf("abi: got improperly encoded function type, got %v", word)
	}
	out := make([]byte, 24)
	copy(out, word[:24])
	return out, nil
}

// forEachUnpack iteratively unpacks elements of an array or slice.
func forEachUnpack(t Type, output []byte, start, size int) ([]interface{}, error) {
	if size < 0 {
		return nil, fmt.Errorf("cannot marshal input to array, size is negative (%d)", size)
	}
	if start+32*size > len(output) {
		return nil, fmt.Errorf("abi: cannot marshal into go array: offset %d would go over slice boundary (len=%d)", len(output), start+32*size)
	}
	ret := make([]interface{}, 0, size)
	// arrays have packed elements, resulting in longer unpack steps
	elemSize := getTypeSize(*t.Elem)
	for i := start; i < start+size*elemSize; i += elemSize {
		inter, err := toGoType(i, *t.Elem, output)
		if err != nil {
			return nil, err
		}
		ret = append(ret, inter)
	}
	return ret, nil
}

// forTupleUnpack unpacks the components of a tuple in declaration order.
func forTupleUnpack(t Type, output []byte) ([]interface{}, error) {
	ret := make([]interface{}, 0, len(t.TupleElems))
	virtualArgs := 0
	for index, elem := range t.TupleElems {
		marshalledValue, err := toGoType((index+virtualArgs)*32, *elem, output)
		if err != nil {
			return nil, err
		}
		if elem.T == ArrayTy && !isDynamicType(*elem) {
			// in-place tuples and arrays of static types occupy multiple words
			virtualArgs += getTypeSize(*elem)/32 - 1
		} else if elem.T == TupleTy && !isDynamicType(*elem) {
			virtualArgs += getTypeSize(*elem)/32 - 1
		}
		ret = append(ret, marshalledValue)
	}
	return ret, nil
}

// toGoType decodes the value of type t at the given word index of output.
//
// Integers of every width come back as *big.Int, addresses as common.Address,
// byte types as []byte, and composite types as []interface{} in declaration
// order.
func toGoType(index int, t Type, output []byte) (interface{}, error) {
	if index+32 > len(output) {
		return nil, fmt.Errorf("abi: cannot marshal into go type: length insufficient %d require %d", len(output), index+32)
	}

	var (
		returnOutput  []byte
		begin, length int
		err           error
	)

	// if we require a length prefix, find the beginning word and size returned.
	if t.requiresLengthPrefix() {
		begin, length, err = lengthPrefixPointsTo(index, output)
		if err != nil {
			return nil, err
		}
	} else {
		returnOutput = output[index : index+32]
	}

	switch t.T {
	case TupleTy:
		if isDynamicType(t) {
			begin, err := tuplePointsTo(index, output)
			if err != nil {
				return nil, err
			}
			return forTupleUnpack(t, output[begin:])
		}
		return forTupleUnpack(t, output[index:])
	case SliceTy:
		return forEachUnpack(t, output[begin:], 0, length)
	case ArrayTy:
		if isDynamicType(*t.Elem) {
			offset := binary.BigEndian.Uint64(returnOutput[len(returnOutput)-8:])
			if offset > uint64(len(output)) {
				return nil, fmt.Errorf("abi: toGoType offset greater than output length: offset: %d, len(output): %d", offset, len(output))
			}
			return forEachUnpack(t, output[offset:], 0, t.Size)
		}
		return forEachUnpack(t, output, index, t.Size)
	case StringTy: // variable arrays are written at the end of the return bytes
		return string(output[begin : begin+length]), nil
	case IntTy, UintTy:
		return ReadInteger(t, returnOutput)
	case BoolTy:
		return readBool(returnOutput)
	case AddressTy:
		return common.BytesToAddress(returnOutput), nil
	case BytesTy:
		return common.CopyBytes(output[begin : begin+length]), nil
	case FixedBytesTy:
		return ReadFixedBytes(t, returnOutput)
	case FunctionTy:
		return readFunctionType(t, returnOutput)
	default:
		return nil, fmt.Errorf("abi: unknown type %v", t.T)
	}
}

// lengthPrefixPointsTo interprets a 32 byte slice as an offset and then
// determines which indices to look to decode the type.
func lengthPrefixPointsTo(index int, output []byte) (start int, length int, err error) {
	bigOffsetEnd := new(big.Int).SetBytes(output[index : index+32])
	bigOffsetEnd.Add(bigOffsetEnd, common.Big32)
	outputLength := big.NewInt(int64(len(output)))

	if bigOffsetEnd.Cmp(outputLength) > 0 {
		return 0, 0, fmt.Errorf("abi: cannot marshal into go slice: offset %v would go over slice boundary (len=%v)", bigOffsetEnd, outputLength)
	}

	if bigOffsetEnd.BitLen() > 63 {
		return 0, 0, fmt.Errorf("abi offset larger than int64: %v", bigOffsetEnd)
	}

	offsetEnd := int(bigOffsetEnd.Uint64())
	lengthBig := new(big.Int).SetBytes(output[offsetEnd-32 : offsetEnd])

	totalSize := new(big.Int).Add(bigOffsetEnd, lengthBig)
	if totalSize.BitLen() > 63 {
		return 0, 0, fmt.Errorf("abi: length larger than int64: %v", totalSize)
	}

	if totalSize.Cmp(outputLength) > 0 {
		return 0, 0, fmt.Errorf("abi: cannot marshal into go type: length insufficient %v require %v", outputLength, totalSize)
	}
	start = int(bigOffsetEnd.Uint64())
	length = int(lengthBig.Uint64())
	return
}

// tuplePointsTo resolves the location of a dynamic tuple's content.
func tuplePointsTo(index int, output []byte) (start int, err error) {
	offset := new(big.Int).SetBytes(output[index : index+32])
	outputLen := big.NewInt(int64(len(output)))

	if offset.Cmp(outputLen) > 0 {
		return 0, fmt.Errorf("abi: cannot marshal into go slice: offset %v would go over slice boundary (len=%v)", offset, outputLen)
	}
	if offset.BitLen() > 63 {
		return 0, fmt.Errorf("abi offset larger than int64: %v", offset)
	}
	return int(offset.Uint64()), nil
}
