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
	"errors"
	"fmt"
	"time"

	"github.com/noise-xyz/brane-sub007/common"
)

var (
	// ErrNotReadMethod is returned when Call is used on a method that
	// mutates state.
	ErrNotReadMethod = errors.New("not a read method")

	// ErrNotWriteMethod is returned when Send or SendAndWait is used on a
	// view or pure method.
	ErrNotWriteMethod = errors.New("not a write method")
)

// RevertError reports reverted execution, either observed directly on a
// call or diagnosed by replaying a failed transaction. Reason carries the
// decoded Error(string) text or a rendered custom error; when the revert
// data cannot be decoded Reason is empty and Raw holds the payload for
// offline inspection.
type RevertError struct {
	Reason string        // decoded human-readable reason, empty if unknown
	Name   string        // custom error name when a registered decoder matched
	Args   []interface{} // custom error arguments, nil otherwise
	Raw    []byte        // raw revert payload as returned by the node
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return "execution reverted: " + e.Reason
	}
	if len(e.Raw) > 0 {
		return fmt.Sprintf("execution reverted: reason unknown (%d data bytes: %#x)", len(e.Raw), e.Raw)
	}
	return "execution reverted: reason unknown"
}

// WaitTimeoutError is returned when a transaction was not mined within the
// caller's polling budget. The transaction may still be pending and can be
// polled again with WaitMined.
type WaitTimeoutError struct {
	Hash   common.Hash
	Budget time.Duration
	Polls  int
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not mined within %v (%d polls)", e.Hash, e.Budget, e.Polls)
}
