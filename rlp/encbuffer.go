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

// Package rlp implements the RLP serialization format.
//
// The package provides an explicit encoder buffer. Values are written
// through typed Write methods and nested lists are delimited by List and
// ListEnd calls. There is no reflection-driven encoder: callers spell out
// the fields they encode, in order.
package rlp

import (
	"io"
	"math/big"

	"github.com/holiman/uint256"
)

// EmptyString is the encoding of an empty string.
var EmptyString = []byte{0x80}

// EmptyList is the encoding of an empty list.
var EmptyList = []byte{0xC0}

// EncoderBuffer is a buffer for incremental encoding.
//
// The zero value is NOT ready for use. To get a usable buffer,
// create it using NewEncoderBuffer or call Reset.
type EncoderBuffer struct {
	buf *encBuffer
	dst io.Writer
}

type encBuffer struct {
	out    []byte // encoded output
	lstart []int  // start offsets of unfinished lists
}

// NewEncoderBuffer creates an encoder buffer. The dst writer may be nil, in
// which case the encoding is only available through ToBytes and
// AppendToBytes.
func NewEncoderBuffer(dst io.Writer) EncoderBuffer {
	var w EncoderBuffer
	w.Reset(dst)
	return w
}

// Reset truncates the buffer and sets the output destination.
func (w *EncoderBuffer) Reset(dst io.Writer) {
	if w.buf == nil {
		w.buf = new(encBuffer)
	}
	w.buf.out = w.buf.out[:0]
	w.buf.lstart = w.buf.lstart[:0]
	w.dst = dst
}

// Write appends b directly to the encoder output.
func (w EncoderBuffer) Write(b []byte) (int, error) {
	w.buf.out = append(w.buf.out, b...)
	return len(b), nil
}

// WriteBool writes b as the integer 0 (false) or 1 (true).
func (w EncoderBuffer) WriteBool(b bool) {
	if b {
		w.buf.out = append(w.buf.out, 0x01)
	} else {
		w.buf.out = append(w.buf.out, 0x80)
	}
}

// WriteUint64 encodes an unsigned integer.
func (w EncoderBuffer) WriteUint64(i uint64) {
	w.buf.writeUint64(i)
}

// WriteBigInt encodes a big.Int as an RLP string. The sign of i is ignored;
// a nil value encodes as zero.
func (w EncoderBuffer) WriteBigInt(i *big.Int) {
	if i == nil {
		w.buf.out = append(w.buf.out, 0x80)
		return
	}
	if i.BitLen() <= 64 {
		w.buf.writeUint64(i.Uint64())
		return
	}
	w.buf.writeBytesAsString(i.Bytes())
}

// WriteUint256 encodes a uint256.Int as an RLP string. A nil value encodes
// as zero.
func (w EncoderBuffer) WriteUint256(i *uint256.Int) {
	if i == nil {
		w.buf.out = append(w.buf.out, 0x80)
		return
	}
	if i.BitLen() <= 64 {
		w.buf.writeUint64(i.Uint64())
		return
	}
	w.buf.writeBytesAsString(i.Bytes())
}

// WriteBytes encodes b as an RLP string.
func (w EncoderBuffer) WriteBytes(b []byte) {
	if len(b) == 1 && b[0] < 0x80 {
		// fits single byte, no string header
		w.buf.out = append(w.buf.out, b[0])
		return
	}
	w.buf.writeBytesAsString(b)
}

// WriteString encodes s as an RLP string.
func (w EncoderBuffer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// List starts a list. It returns an internal index. Call ListEnd with
// this index after encoding the content to finish the list.
func (w EncoderBuffer) List() int {
	w.buf.lstart = append(w.buf.lstart, len(w.buf.out))
	return len(w.buf.lstart) - 1
}

// ListEnd finishes the given list.
func (w EncoderBuffer) ListEnd(index int) {
	if index != len(w.buf.lstart)-1 {
		panic("rlp: invalid list index in ListEnd")
	}
	start := w.buf.lstart[index]
	w.buf.lstart = w.buf.lstart[:index]
	w.buf.insertHeader(start, 0xC0, 0xF7)
}

// ToBytes returns the encoded bytes.
func (w EncoderBuffer) ToBytes() []byte {
	out := make([]byte, len(w.buf.out))
	copy(out, w.buf.out)
	return out
}

// AppendToBytes appends the encoded bytes to dst.
func (w EncoderBuffer) AppendToBytes(dst []byte) []byte {
	return append(dst, w.buf.out...)
}

// Flush writes the encoded bytes to the destination writer given at buffer
// creation time. Flushing with unfinished lists pending is invalid.
func (w EncoderBuffer) Flush() error {
	if len(w.buf.lstart) > 0 {
		panic("rlp: Flush with unfinished lists")
	}
	var err error
	if w.dst != nil {
		_, err = w.dst.Write(w.buf.out)
	}
	w.Reset(w.dst)
	return err
}

func (buf *encBuffer) writeUint64(i uint64) {
	switch {
	case i == 0:
		buf.out = append(buf.out, 0x80)
	case i < 128:
		buf.out = append(buf.out, byte(i))
	default:
		s := putint(i)
		buf.out = append(buf.out, 0x80+byte(len(s)))
		buf.out = append(buf.out, s...)
	}
}

// writeBytesAsString writes b with a string header regardless of content.
func (buf *encBuffer) writeBytesAsString(b []byte) {
	if len(b) < 56 {
		buf.out = append(buf.out, 0x80+byte(len(b)))
		buf.out = append(buf.out, b...)
		return
	}
	s := putint(uint64(len(b)))
	buf.out = append(buf.out, 0xB7+byte(len(s)))
	buf.out = append(buf.out, s...)
	buf.out = append(buf.out, b...)
}

// insertHeader places a collection header in front of the output produced
// since offset start. The short and long tags select between the list and
// string header ranges.
func (buf *encBuffer) insertHeader(start int, short, long byte) {
	size := len(buf.out) - start
	if size < 56 {
		buf.out = append(buf.out, 0)
		copy(buf.out[start+1:], buf.out[start:])
		buf.out[start] = short + byte(size)
		return
	}
	s := putint(uint64(size))
	head := make([]byte, 1+len(s))
	head[0] = long + byte(len(s))
	copy(head[1:], s)
	buf.out = append(buf.out, head...)
	copy(buf.out[start+len(head):], buf.out[start:len(buf.out)-len(head)])
	copy(buf.out[start:], head)
}

// putint returns the big-endian representation of i without leading zeroes.
func putint(i uint64) []byte {
	switch {
	case i < (1 << 8):
		return []byte{byte(i)}
	case i < (1 << 16):
		return []byte{byte(i >> 8), byte(i)}
	case i < (1 << 24):
		return []byte{byte(i >> 16), byte(i >> 8), byte(i)}
	case i < (1 << 32):
		return []byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	case i < (1 << 40):
		return []byte{byte(i >> 32), byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	case i < (1 << 48):
		return []byte{byte(i >> 40), byte(i >> 32), byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	case i < (1 << 56):
		return []byte{byte(i >> 48), byte(i >> 40), byte(i >> 32), byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	default:
		return []byte{byte(i >> 56), byte(i >> 48), byte(i >> 40), byte(i >> 32), byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	}
}
