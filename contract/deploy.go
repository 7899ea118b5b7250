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
	"context"
	"errors"
	"time"

	brane "github.com/noise-xyz/brane-sub007"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/crypto"
	"github.com/noise-xyz/brane-sub007/types"
)

// Deploy encodes the constructor arguments, submits a contract creation
// transaction and returns the address the contract will live at once the
// transaction is mined. The address is derived from the sender and nonce,
// so it is known before confirmation; use WaitDeployed to block until the
// code is actually on chain.
func Deploy(ctx context.Context, signer brane.Signer, backend ContractBackend, opts *TxOpts, abiJSON string, bytecode []byte, args ...interface{}) (common.Address, *types.Transaction, error) {
	if len(bytecode) == 0 {
		return common.Address{}, nil, errors.New("empty contract bytecode")
	}
	parsed, err := ParseABI(abiJSON)
	if err != nil {
		return common.Address{}, nil, err
	}
	ctorArgs, err := parsed.Pack("", args...)
	if err != nil {
		return common.Address{}, nil, err
	}
	data := make([]byte, 0, len(bytecode)+len(ctorArgs))
	data = append(data, bytecode...)
	data = append(data, ctorArgs...)

	c := newContract(common.Address{}, parsed, backend, backend)
	tx, err := c.transact(ctx, signer, opts, nil, data)
	if err != nil {
		return common.Address{}, nil, err
	}
	return crypto.CreateAddress(signer.Address(), tx.Nonce()), tx, nil
}

// WaitDeployed polls for the creation receipt of tx and returns the
// on-chain contract address.
func WaitDeployed(ctx context.Context, backend ContractTransactor, tx *types.Transaction, interval, budget time.Duration) (common.Address, error) {
	if tx.To() != nil {
		return common.Address{}, errors.New("tx is not contract creation")
	}
	receipt, err := WaitMined(ctx, backend, tx.Hash(), interval, budget)
	if err != nil {
		return common.Address{}, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return common.Address{}, errors.New("contract deployment failed")
	}
	if receipt.ContractAddress == (common.Address{}) {
		return common.Address{}, errors.New("zero address")
	}
	return receipt.ContractAddress, nil
}
