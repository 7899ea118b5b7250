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
	"math/big"

	brane "github.com/noise-xyz/brane-sub007"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/types"
)

// ContractCaller defines the methods needed to operate a contract on a read
// only basis.
type ContractCaller interface {
	// CallContract executes an Ethereum contract call with the specified
	// data as the input. A nil blockNumber selects the latest state.
	CallContract(ctx context.Context, msg brane.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ContractTransactor defines the methods needed to operate a contract on a
// write basis. Beside the sending method, the remainder are helpers used
// when the user does not provide some needed values, but rather leaves it
// up to the transactor to decide.
type ContractTransactor interface {
	// ChainID returns the chain id of the connected node.
	ChainID(ctx context.Context) (*big.Int, error)

	// HeaderLatest returns the header of the most recent block.
	HeaderLatest(ctx context.Context) (*types.Header, error)

	// PendingNonceAt retrieves the current pending nonce of an account.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// SuggestGasPrice retrieves the currently suggested gas price for a
	// timely execution of a legacy transaction.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// BlobBaseFee retrieves the current blob base fee.
	BlobBaseFee(ctx context.Context) (*big.Int, error)

	// EstimateGas tries to estimate the gas needed to execute the given
	// call against the pending state. There is no guarantee that this is
	// the true gas limit, but it provides a basis for a reasonable default.
	EstimateGas(ctx context.Context, msg brane.CallMsg) (uint64, error)

	// SendTransaction injects the signed transaction into the pending pool
	// for execution.
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionReceipt returns the receipt of a mined transaction, or
	// brane.NotFound while it is pending.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ContractBackend defines the methods needed to operate a contract on a
// read-write basis.
type ContractBackend interface {
	ContractCaller
	ContractTransactor
}
