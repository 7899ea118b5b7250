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
	"fmt"
	"math/big"
	"reflect"

	"github.com/noise-xyz/brane-sub007/common"
)

// pack encodes v according to type t. Composite types recurse with their own
// head/tail sections, atomic types are delegated to packElement.
func (t Type) pack(v interface{}) ([]byte, error) {
	switch t.T {
	case SliceTy, ArrayTy:
		elems, err := sliceElements(v)
		if err != nil {
			return nil, fmt.Errorf("abi: cannot use %T as type %s: %v", v, t, err)
		}
		if t.T == ArrayTy && len(elems) != t.Size {
			return nil, fmt.Errorf("abi: array length mismatch: got %d, want %d", len(elems), t.Size)
		}
		var ret []byte
		if t.requiresLengthPrefix() {
			ret = append(ret, packNum(len(elems))...)
		}
		// calculate offset if any
		offset := 0
		offsetReq := isDynamicType(*t.Elem)
		if offsetReq {
			offset = getTypeSize(*t.Elem) * len(elems)
		}
		var tail []byte
		for _, elem := range elems {
			val, err := t.Elem.pack(elem)
			if err != nil {
				return nil, err
			}
			if !offsetReq {
				ret = append(ret, val...)
				continue
			}
			ret = append(ret, packNum(offset)...)
			offset += len(val)
			tail = append(tail, val...)
		}
		return append(ret, tail...), nil
	case TupleTy:
		// (T1,...,Tk) for k >= 0 and any types T1, …, Tk
		// enc(X) = head(X(1)) ... head(X(k)) tail(X(1)) ... tail(X(k))
		elems, err := sliceElements(v)
		if err != nil {
			return nil, fmt.Errorf("abi: cannot use %T as tuple %s: %v", v, t, err)
		}
		if len(elems) != len(t.TupleElems) {
			return nil, fmt.Errorf("abi: tuple length mismatch: got %d, want %d", len(elems), len(t.TupleElems))
		}
		offset := 0
		for _, elem := range t.TupleElems {
			offset += getTypeSize(*elem)
		}
		var ret, tail []byte
		for i, elemTyp := range t.TupleElems {
			val, err := elemTyp.pack(elems[i])
			if err != nil {
				return nil, err
			}
			if isDynamicType(*elemTyp) {
				ret = append(ret, packNum(offset)...)
				offset += len(val)
				tail = append(tail, val...)
			} else {
				ret = append(ret, val...)
			}
		}
		return append(ret, tail...), nil
	default:
		return packElement(t, v)
	}
}

// packElement packs the given value according to the abi specification in t.
func packElement(t Type, v interface{}) ([]byte, error) {
	switch t.T {
	case IntTy, UintTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return packInteger(t, n)
	case StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, typeError("string", v)
		}
		return packBytesSlice([]byte(s)), nil
	case AddressTy:
		switch a := v.(type) {
		case common.Address:
			return common.LeftPadBytes(a[:], 32), nil
		case *common.Address:
			if a == nil {
				return nil, typeError("address", v)
			}
			return common.LeftPadBytes(a[:], 32), nil
		case [20]byte:
			return common.LeftPadBytes(a[:], 32), nil
		case []byte:
			if len(a) != common.AddressLength {
				return nil, fmt.Errorf("abi: invalid address length %d", len(a))
			}
			return common.LeftPadBytes(a, 32), nil
		case string:
			if !common.IsHexAddress(a) {
				return nil, fmt.Errorf("abi: invalid address %q", a)
			}
			addr := common.HexToAddress(a)
			return common.LeftPadBytes(addr[:], 32), nil
		default:
			return nil, typeError("address", v)
		}
	case BoolTy:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError("bool", v)
		}
		word := make([]byte, 32)
		if b {
			word[31] = 1
		}
		return word, nil
	case BytesTy:
		b, err := toByteSlice(v)
		if err != nil {
			return nil, err
		}
		return packBytesSlice(b), nil
	case FixedBytesTy:
		b, err := toFixedBytes(t, v)
		if err != nil {
			return nil, err
		}
		return common.RightPadBytes(b, 32), nil
	case FunctionTy:
		b, err := toByteSlice(v)
		if err != nil {
			return nil, err
		}
		if len(b) != 24 {
			return nil, fmt.Errorf("abi: invalid function value length %d", len(b))
		}
		return common.RightPadBytes(b, 32), nil
	default:
		return nil, fmt.Errorf("abi: unknown type %v", t.T)
	}
}

// packInteger range checks n against the declared width and encodes it as a
// 32-byte two's-complement word.
func packInteger(t Type, n *big.Int) ([]byte, error) {
	if t.T == UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("abi: negative value for uint%d: %s", t.Size, n)
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("abi: value out of range for uint%d: %s", t.Size, n)
		}
		return U256Bytes(n), nil
	}
	// signed: -2**(size-1) <= n < 2**(size-1)
	limit := new(big.Int).Lsh(common.Big1, uint(t.Size-1))
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("abi: value out of range for int%d: %s", t.Size, n)
	}
	return U256Bytes(n), nil
}

// packBytesSlice packs the given bytes as [L, V] as the canonical
// representation bytes slice.
func packBytesSlice(bytes []byte) []byte {
	l := packNum(len(bytes))
	return append(l, common.RightPadBytes(bytes, (len(bytes)+31)/32*32)...)
}

// packNum packs the given offset/length as a 32-byte word.
func packNum(value int) []byte {
	return U256Bytes(big.NewInt(int64(value)))
}

func typeError(kind string, value interface{}) error {
	return fmt.Errorf("abi: cannot use %T as type %s", value, kind)
}

// toBigInt coerces the supported Go integer representations to a big.Int.
func toBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, typeError("integer", v)
		}
		return n, nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	default:
		return nil, typeError("integer", v)
	}
}

// toByteSlice coerces v to a []byte. Named byte-slice types are accepted
// through reflection.
func toByteSlice(v interface{}) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return rv.Bytes(), nil
	}
	return nil, typeError("bytes", v)
}

// toFixedBytes coerces v to a []byte of exactly t.Size bytes.
func toFixedBytes(t Type, v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		if len(b) != t.Size {
			return nil, fmt.Errorf("abi: invalid length %d for bytes%d", len(b), t.Size)
		}
		return b, nil
	case common.Hash:
		if t.Size != common.HashLength {
			return nil, fmt.Errorf("abi: invalid length %d for bytes%d", common.HashLength, t.Size)
		}
		return b[:], nil
	}
	// fixed-size byte arrays arrive as [N]byte values
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		if rv.Len() != t.Size {
			return nil, fmt.Errorf("abi: invalid length %d for bytes%d", rv.Len(), t.Size)
		}
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, nil
	}
	return nil, typeError(fmt.Sprintf("bytes%d", t.Size), v)
}

// sliceElements flattens v into its elements. []interface{} passes through,
// other slice and array kinds are walked with reflection so typed slices can
// be supplied directly.
func sliceElements(v interface{}) ([]interface{}, error) {
	if elems, ok := v.([]interface{}); ok {
		return elems, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elems[i] = rv.Index(i).Interface()
		}
		return elems, nil
	}
	return nil, fmt.Errorf("value of type %T is not a slice, array or tuple", v)
}
