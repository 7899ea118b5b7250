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

package contract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/noise-xyz/brane-sub007/abi"
)

// ErrorDecoder indexes custom error declarations by their 4-byte selector
// so reverts can be attributed across a whole deployment, not just the
// contract that surfaced them. Safe for concurrent use.
type ErrorDecoder struct {
	mu   sync.RWMutex
	errs map[[4]byte]abi.Error
}

// NewErrorDecoder creates an empty decoder table.
func NewErrorDecoder() *ErrorDecoder {
	return &ErrorDecoder{errs: make(map[[4]byte]abi.Error)}
}

// Register adds every error declared by the parsed ABI. A later
// registration of the same selector wins.
func (d *ErrorDecoder) Register(parsed abi.ABI) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range parsed.Errors {
		var sel [4]byte
		copy(sel[:], e.ID[:4])
		d.errs[sel] = e
	}
}

// RegisterJSON parses the ABI through the process-wide cache and registers
// every error it declares.
func (d *ErrorDecoder) RegisterJSON(abiJSON string) error {
	parsed, err := ParseABI(abiJSON)
	if err != nil {
		return err
	}
	d.Register(parsed)
	return nil
}

// Decode matches revert data against the registered selectors. It returns
// the error name and decoded arguments, or ok=false when no registered
// error matches the data.
func (d *ErrorDecoder) Decode(data []byte) (name string, args []interface{}, ok bool) {
	if len(data) < 4 {
		return "", nil, false
	}
	var sel [4]byte
	copy(sel[:], data)
	d.mu.RLock()
	e, found := d.errs[sel]
	d.mu.RUnlock()
	if !found {
		return "", nil, false
	}
	decoded, err := e.Unpack(data)
	if err != nil {
		return "", nil, false
	}
	return e.Name, decoded, true
}

// formatCustomError renders a decoded custom error the way it reads in
// solidity source: Name(arg, arg).
func formatCustomError(name string, args []interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}
