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
	"math/big"
	"strings"
	"testing"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/crypto"
)

const jsondata = `[
	{"type":"function","name":"balance","stateMutability":"view"},
	{"type":"function","name":"send","inputs":[{"name":"amount","type":"uint256"}]},
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"ok","type":"bool"}]},
	{"type":"function","name":"foo","inputs":[{"name":"a","type":"uint32"}]},
	{"type":"function","name":"foo","inputs":[{"name":"a","type":"uint64"}]},
	{"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256"}]},
	{"type":"error","name":"InsufficientBalance","inputs":[{"name":"available","type":"uint256"},{"name":"required","type":"uint256"}]}
]`

func TestReading(t *testing.T) {
	abi, err := JSON(strings.NewReader(jsondata))
	if err != nil {
		t.Fatal(err)
	}

	if len(abi.Methods) != 5 {
		t.Errorf("expected 5 methods, got %d", len(abi.Methods))
	}
	for _, name := range []string{"balance", "send", "transfer", "foo", "foo0"} {
		if _, ok := abi.Methods[name]; !ok {
			t.Errorf("missing method %q", name)
		}
	}
	if len(abi.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(abi.Events))
	}
	if len(abi.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(abi.Errors))
	}
	if !abi.Methods["balance"].IsConstant() {
		t.Error("balance should be constant")
	}
	if abi.Methods["send"].IsConstant() {
		t.Error("send should not be constant")
	}
}

func TestMethodSignature(t *testing.T) {
	abi, err := JSON(strings.NewReader(jsondata))
	if err != nil {
		t.Fatal(err)
	}
	m := abi.Methods["transfer"]
	if m.Sig != "transfer(address,uint256)" {
		t.Errorf("signature mismatch: got %q", m.Sig)
	}
	if want := crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]; !bytes.Equal(m.ID, want) {
		t.Errorf("method id mismatch: got %x, want %x", m.ID, want)
	}
	// overloaded foo resolves with a numeric suffix but keeps the raw name
	// in its signature
	if abi.Methods["foo0"].Sig != "foo(uint64)" {
		t.Errorf("overloaded signature mismatch: got %q", abi.Methods["foo0"].Sig)
	}
}

func TestInvalidABI(t *testing.T) {
	if _, err := JSON(strings.NewReader("{")); err == nil {
		t.Fatal("expected error for malformed json")
	}
	if _, err := JSON(strings.NewReader(`[{"type":"broken"}]`)); err == nil {
		t.Fatal("expected error for unknown field type")
	}
	if _, err := JSON(strings.NewReader(`[{"type":"function","name":"x","stateMutability":"sometimes"}]`)); err == nil {
		t.Fatal("expected error for unknown state mutability")
	}
}

func TestConstructor(t *testing.T) {
	const data = `[{"type":"constructor","inputs":[{"name":"owner","type":"address"}]}]`
	abi, err := JSON(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	owner := common.HexToAddress("0x0100000000000000000000000000000000000000")
	packed, err := abi.Pack("", owner)
	if err != nil {
		t.Fatal(err)
	}
	// constructor arguments carry no selector
	if len(packed) != 32 {
		t.Fatalf("expected one bare word, got %d bytes", len(packed))
	}
	if got := common.BytesToAddress(packed); got != owner {
		t.Fatalf("argument mismatch: got %x", got)
	}
}

func TestFallbackAndReceive(t *testing.T) {
	const data = `[
		{"type":"fallback","stateMutability":"nonpayable"},
		{"type":"receive","stateMutability":"payable"}
	]`
	abi, err := JSON(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if !abi.HasFallback() {
		t.Error("fallback not detected")
	}
	if !abi.HasReceive() {
		t.Error("receive not detected")
	}

	if _, err := JSON(strings.NewReader(`[{"type":"fallback"},{"type":"fallback"}]`)); err == nil {
		t.Error("expected error for duplicate fallback")
	}
	if _, err := JSON(strings.NewReader(`[{"type":"receive","stateMutability":"nonpayable"}]`)); err == nil {
		t.Error("expected error for non-payable receive")
	}
}

func TestMethodById(t *testing.T) {
	abi, err := JSON(strings.NewReader(jsondata))
	if err != nil {
		t.Fatal(err)
	}
	for name, m := range abi.Methods {
		a := crypto.Keccak256([]byte(m.Sig))
		found, err := abi.MethodById(a)
		if err != nil {
			t.Fatalf("method %s: %v", name, err)
		}
		if found.Sig != m.Sig {
			t.Errorf("method %s: wrong method returned: %s", name, found.Sig)
		}
	}
	if _, err := abi.MethodById([]byte{0x01, 0x02}); err == nil {
		t.Error("expected error for short selector data")
	}
	if _, err := abi.MethodById([]byte{0xde, 0xad, 0xbe, 0xef}); err == nil {
		t.Error("expected error for unknown selector")
	}
}

func TestEventByID(t *testing.T) {
	abi, err := JSON(strings.NewReader(jsondata))
	if err != nil {
		t.Fatal(err)
	}
	topic := common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	event, err := abi.EventByID(topic)
	if err != nil {
		t.Fatal(err)
	}
	if event.RawName != "Transfer" {
		t.Errorf("wrong event resolved: %s", event.RawName)
	}
	if _, err := abi.EventByID(common.Hash{}); err == nil {
		t.Error("expected error for unknown topic")
	}
}

func TestErrorByID(t *testing.T) {
	abi, err := JSON(strings.NewReader(jsondata))
	if err != nil {
		t.Fatal(err)
	}
	insufficient := abi.Errors["InsufficientBalance"]
	var sel [4]byte
	copy(sel[:], insufficient.ID[:4])
	found, err := abi.ErrorByID(sel)
	if err != nil {
		t.Fatal(err)
	}
	if found.Name != "InsufficientBalance" {
		t.Errorf("wrong error resolved: %s", found.Name)
	}
	if _, err := abi.ErrorByID([4]byte{0xde, 0xad, 0xbe, 0xef}); err == nil {
		t.Error("expected error for unknown selector")
	}
}

func TestCustomErrorUnpack(t *testing.T) {
	abi, err := JSON(strings.NewReader(jsondata))
	if err != nil {
		t.Fatal(err)
	}
	insufficient := abi.Errors["InsufficientBalance"]
	data := append(common.CopyBytes(insufficient.ID[:4]), hexWords(t,
		"0000000000000000000000000000000000000000000000000000000000000005",
		"000000000000000000000000000000000000000000000000000000000000000a",
	)...)
	values, err := insufficient.Unpack(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0].(*big.Int).Int64() != 5 || values[1].(*big.Int).Int64() != 10 {
		t.Fatalf("value mismatch: %v", values)
	}

	// wrong selector must be rejected
	data[0] ^= 0xff
	if _, err := insufficient.Unpack(data); err == nil {
		t.Fatal("expected error for selector mismatch")
	}
}

func TestUnpackRevert(t *testing.T) {
	var cases = []struct {
		input     string
		expect    string
		expectErr error
	}{
		{"", "", errors.New("invalid data for unpacking")},
		{"08c379a1", "", errors.New("invalid data for unpacking")},
		{"08c379a00000000000000000000000000000000000000000000000000000000000000020000000000000000000000000000000000000000000000000000000000000000d72657665727420726561736f6e00000000000000000000000000000000000000", "revert reason", nil},
		{"4e487b710000000000000000000000000000000000000000000000000000000000000000", "generic panic", nil},
		{"4e487b710000000000000000000000000000000000000000000000000000000000000001", "assert(false)", nil},
		{"4e487b710000000000000000000000000000000000000000000000000000000000000011", "arithmetic underflow or overflow", nil},
		{"4e487b710000000000000000000000000000000000000000000000000000000000000012", "division or modulo by zero", nil},
		{"4e487b710000000000000000000000000000000000000000000000000000000000000021", "enum overflow", nil},
		{"4e487b710000000000000000000000000000000000000000000000000000000000000031", "out-of-bounds array access; popping on an empty array", nil},
		{"4e487b710000000000000000000000000000000000000000000000000000000000000041", "out of memory", nil},
		{"4e487b7100000000000000000000000000000000000000000000000000000000000000ff", "255", nil},
	}
	for index, c := range cases {
		got, err := UnpackRevert(hexWords(t, c.input))
		if c.expectErr != nil {
			if err == nil {
				t.Fatalf("case %d: expected error %q", index, c.expectErr)
			}
			if err.Error() != c.expectErr.Error() {
				t.Fatalf("case %d: error mismatch: got %q, want %q", index, err, c.expectErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("case %d: %v", index, err)
		}
		if c.expect != got {
			t.Fatalf("case %d: reason mismatch: got %q, want %q", index, got, c.expect)
		}
	}
}

func TestSelectorHelpers(t *testing.T) {
	if got := Selector("transfer(address,uint256)"); got != [4]byte{0xa9, 0x05, 0x9c, 0xbb} {
		t.Errorf("selector mismatch: got %x", got)
	}
	want := common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	if got := EventTopic("Transfer(address,address,uint256)"); got != want {
		t.Errorf("event topic mismatch: got %x", got)
	}
}

func TestResolveNameConflict(t *testing.T) {
	used := map[string]bool{"send": true, "send0": true}
	got := ResolveNameConflict("send", func(s string) bool { return used[s] })
	if got != "send1" {
		t.Errorf("resolved name mismatch: got %q", got)
	}
	if got := ResolveNameConflict("fresh", func(s string) bool { return used[s] }); got != "fresh" {
		t.Errorf("unused name should pass through, got %q", got)
	}
}
