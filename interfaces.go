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

// Package brane defines the collaborator interfaces shared by the packages
// of the library.
package brane

import (
	"errors"
	"math/big"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/types"
)

// NotFound is returned by API methods if the requested item does not exist.
var NotFound = errors.New("not found")

// CallMsg contains parameters for contract calls and gas estimation.
type CallMsg struct {
	From      common.Address  // the sender of the 'transaction'
	To        *common.Address // the destination contract (nil for contract creation)
	Gas       uint64          // if 0, the call executes with near-infinite gas
	GasPrice  *big.Int        // wei <-> gas exchange ratio
	GasFeeCap *big.Int        // EIP-1559 fee cap per gas
	GasTipCap *big.Int        // EIP-1559 tip per gas
	Value     *big.Int        // amount of wei sent along with the call
	Data      []byte          // input data, usually an ABI-encoded contract method invocation

	AccessList types.AccessList // EIP-2930 access list

	// For blob transactions
	BlobGasFeeCap *big.Int
	BlobHashes    []common.Hash
}

// Signer authorizes transactions and personal messages for one address.
type Signer interface {
	// Address returns the address signatures are made for.
	Address() common.Address

	// SignTransaction signs the signing hash of the transaction for the
	// given chain and returns the 65-byte [R || S || V] signature, with V
	// holding the recovery id (0 or 1).
	SignTransaction(tx *types.Transaction, chainID *big.Int) ([]byte, error)

	// SignMessage signs an EIP-191 personal message.
	SignMessage(msg []byte) ([]byte, error)
}
