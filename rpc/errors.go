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

package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by calls on a closed client.
	ErrClosed = errors.New("client is closed")

	// ErrNoResult is returned when a response carries neither result nor error.
	ErrNoResult = errors.New("no result in JSON-RPC response")
)

// Error wraps RPC errors, which contain an error code in addition to the
// message.
type Error interface {
	error
	ErrorCode() int // returns the code
}

// A DataError contains some data in addition to the error message. Nodes
// attach the ABI-encoded revert reason of failed calls here.
type DataError interface {
	error
	ErrorData() interface{} // returns the error data
}

// HTTPError is returned when the HTTP status of a response is not 2xx and the
// body does not parse as a JSON-RPC response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (err HTTPError) Error() string {
	if len(err.Body) == 0 {
		return err.Status
	}
	return fmt.Sprintf("%v: %s", err.Status, err.Body)
}
