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
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	brane "github.com/noise-xyz/brane-sub007"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/types"
)

type txKind int

const (
	kindLegacy txKind = iota
	kindDynamic
	kindBlob
)

func (k txKind) String() string {
	switch k {
	case kindLegacy:
		return "legacy"
	case kindDynamic:
		return "dynamic fee"
	case kindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// buildTx resolves fees, gas and nonce for a write and assembles the
// matching unsigned transaction. The chain id is acquired first so a pinned
// client fails on a mismatching node before any other traffic; afterwards
// the resolution order is kind, fees, gas limit, nonce. Caller-supplied
// TxOpts fields are used verbatim.
func (c *Contract) buildTx(ctx context.Context, from common.Address, opts *TxOpts, to *common.Address, input []byte) (*types.Transaction, *big.Int, error) {
	chainID, err := c.transactor.ChainID(ctx)
	if err != nil {
		return nil, nil, err
	}

	if opts.GasPrice != nil && (opts.GasFeeCap != nil || opts.GasTipCap != nil) {
		return nil, nil, errors.New("both gasPrice and (maxFeePerGas or maxPriorityFeePerGas) specified")
	}
	if opts.ForceLegacy && (opts.GasFeeCap != nil || opts.GasTipCap != nil) {
		return nil, nil, errors.New("both ForceLegacy and (maxFeePerGas or maxPriorityFeePerGas) specified")
	}
	if opts.BlobSidecar != nil {
		if opts.GasPrice != nil || opts.ForceLegacy {
			return nil, nil, errors.New("legacy fees requested with a blob sidecar")
		}
		if to == nil {
			return nil, nil, errors.New("blob transactions cannot create contracts")
		}
	}

	// Kind selection. The latest header is consulted only when the kind or
	// a fee default depends on the base fee.
	var (
		kind    txKind
		baseFee *big.Int
	)
	switch {
	case opts.BlobSidecar != nil:
		kind = kindBlob
		if opts.GasFeeCap == nil {
			head, err := c.transactor.HeaderLatest(ctx)
			if err != nil {
				return nil, nil, err
			}
			if head.BaseFee == nil {
				return nil, nil, errors.New("latest block has no base fee, cannot price a blob transaction")
			}
			baseFee = head.BaseFee
		}
	case opts.GasPrice != nil || opts.ForceLegacy:
		kind = kindLegacy
	default:
		head, err := c.transactor.HeaderLatest(ctx)
		if err != nil {
			return nil, nil, err
		}
		if head.BaseFee != nil {
			kind = kindDynamic
			baseFee = head.BaseFee
		} else {
			if opts.GasFeeCap != nil || opts.GasTipCap != nil {
				return nil, nil, errors.New("maxFeePerGas or maxPriorityFeePerGas specified but london is not active yet")
			}
			kind = kindLegacy
		}
	}

	// Fees.
	var (
		gasPrice   *big.Int
		gasTipCap  *big.Int
		gasFeeCap  *big.Int
		blobFeeCap *big.Int
		blobHashes []common.Hash
	)
	if kind == kindLegacy {
		gasPrice = opts.GasPrice
		if gasPrice == nil {
			if gasPrice, err = c.transactor.SuggestGasPrice(ctx); err != nil {
				return nil, nil, err
			}
		}
	} else {
		gasTipCap = opts.GasTipCap
		if gasTipCap == nil {
			gasTipCap = new(big.Int).Set(c.cfg.gasTipCap)
		}
		gasFeeCap = opts.GasFeeCap
		if gasFeeCap == nil {
			gasFeeCap = new(big.Int).Mul(baseFee, big.NewInt(c.cfg.baseFeeMult))
			gasFeeCap.Add(gasFeeCap, gasTipCap)
		}
		if gasFeeCap.Cmp(gasTipCap) < 0 {
			return nil, nil, fmt.Errorf("maxFeePerGas (%v) < maxPriorityFeePerGas (%v)", gasFeeCap, gasTipCap)
		}
	}
	if kind == kindBlob {
		blobFeeCap = opts.BlobFeeCap
		if blobFeeCap == nil {
			blobBaseFee, err := c.transactor.BlobBaseFee(ctx)
			if err != nil {
				return nil, nil, err
			}
			blobFeeCap = new(big.Int).Mul(blobBaseFee, common.Big2)
		}
		blobHashes = opts.BlobSidecar.BlobHashes()
	}

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}

	// Gas limit. The estimation message carries the resolved fees so the
	// node prices the call the same way the transaction will be priced.
	msg := brane.CallMsg{
		From:       from,
		To:         to,
		Value:      value,
		Data:       input,
		AccessList: opts.AccessList,
	}
	if kind == kindLegacy {
		msg.GasPrice = gasPrice
	} else {
		msg.GasFeeCap = gasFeeCap
		msg.GasTipCap = gasTipCap
	}
	if kind == kindBlob {
		msg.BlobGasFeeCap = blobFeeCap
		msg.BlobHashes = blobHashes
	}
	gas := opts.GasLimit
	if gas == 0 {
		if gas, err = c.transactor.EstimateGas(ctx, msg); err != nil {
			return nil, nil, err
		}
	}
	gas = gas * c.cfg.gasNum / c.cfg.gasDen

	// Nonce.
	var nonce uint64
	if opts.Nonce != nil {
		if !opts.Nonce.IsUint64() {
			return nil, nil, fmt.Errorf("invalid nonce %v", opts.Nonce)
		}
		nonce = opts.Nonce.Uint64()
	} else {
		if nonce, err = c.transactor.PendingNonceAt(ctx, from); err != nil {
			return nil, nil, err
		}
	}

	var inner types.TxData
	switch kind {
	case kindLegacy:
		inner = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       to,
			Value:    value,
			Data:     input,
		}
	case kindDynamic:
		inner = &types.DynamicFeeTx{
			ChainID:    chainID,
			Nonce:      nonce,
			GasTipCap:  gasTipCap,
			GasFeeCap:  gasFeeCap,
			Gas:        gas,
			To:         to,
			Value:      value,
			Data:       input,
			AccessList: opts.AccessList,
		}
	case kindBlob:
		chainU, err := u256Field("chainId", chainID)
		if err != nil {
			return nil, nil, err
		}
		tipU, err := u256Field("maxPriorityFeePerGas", gasTipCap)
		if err != nil {
			return nil, nil, err
		}
		feeU, err := u256Field("maxFeePerGas", gasFeeCap)
		if err != nil {
			return nil, nil, err
		}
		blobFeeU, err := u256Field("maxFeePerBlobGas", blobFeeCap)
		if err != nil {
			return nil, nil, err
		}
		valueU, err := u256Field("value", value)
		if err != nil {
			return nil, nil, err
		}
		inner = &types.BlobTx{
			ChainID:    chainU,
			Nonce:      nonce,
			GasTipCap:  tipU,
			GasFeeCap:  feeU,
			Gas:        gas,
			To:         *to,
			Value:      valueU,
			Data:       input,
			AccessList: opts.AccessList,
			BlobFeeCap: blobFeeU,
			BlobHashes: blobHashes,
			Sidecar:    opts.BlobSidecar,
		}
	}

	c.cfg.log.Debug().
		Stringer("kind", kind).
		Uint64("nonce", nonce).
		Uint64("gas", gas).
		Msg("transaction built")
	return types.NewTx(inner), chainID, nil
}

// u256Field converts a fee or value field for the blob transaction type,
// which stores 256-bit quantities natively.
func u256Field(name string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%s is negative", name)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%s overflows 256 bits", name)
	}
	return u, nil
}
