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
	"github.com/noise-xyz/brane-sub007/types"
)

// Transact packs the named method call and runs it through the write path:
// fee resolution, signing, submission. The returned transaction is already
// broadcast; it is never resubmitted.
func (c *Contract) Transact(ctx context.Context, signer brane.Signer, opts *TxOpts, method string, args ...interface{}) (*types.Transaction, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	return c.RawTransact(ctx, signer, opts, input)
}

// RawTransact runs the write path with pre-packed input bytes.
func (c *Contract) RawTransact(ctx context.Context, signer brane.Signer, opts *TxOpts, input []byte) (*types.Transaction, error) {
	return c.transact(ctx, signer, opts, &c.address, input)
}

// TransactAndWait submits like Transact and then polls for the receipt
// using the configured interval and budget. A receipt with failed status is
// returned together with a *RevertError diagnosed by replaying the call at
// the mined block; a missing receipt within the budget is a
// *WaitTimeoutError.
func (c *Contract) TransactAndWait(ctx context.Context, signer brane.Signer, opts *TxOpts, method string, args ...interface{}) (*types.Receipt, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	return c.RawTransactAndWait(ctx, signer, opts, input)
}

// RawTransactAndWait is TransactAndWait with pre-packed input bytes.
func (c *Contract) RawTransactAndWait(ctx context.Context, signer brane.Signer, opts *TxOpts, input []byte) (*types.Receipt, error) {
	tx, err := c.transact(ctx, signer, opts, &c.address, input)
	if err != nil {
		return nil, err
	}
	receipt, err := waitMined(ctx, c.transactor, tx.Hash(), c.cfg.pollInterval, c.cfg.waitTimeout, c.cfg.sleep)
	if err != nil {
		return nil, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, c.diagnoseRevert(ctx, signer.Address(), tx, receipt)
	}
	return receipt, nil
}

// transact builds, signs and submits in order, short-circuiting on the
// first failure.
func (c *Contract) transact(ctx context.Context, signer brane.Signer, opts *TxOpts, to *common.Address, input []byte) (*types.Transaction, error) {
	if signer == nil {
		return nil, errors.New("nil signer")
	}
	if opts == nil {
		opts = new(TxOpts)
	}
	unsigned, chainID, err := c.buildTx(ctx, signer.Address(), opts, to, input)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignTransaction(unsigned, chainID)
	if err != nil {
		return nil, err
	}
	signed, err := unsigned.WithSignature(chainID, sig)
	if err != nil {
		return nil, err
	}
	if err := c.transactor.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}

// diagnoseRevert replays a failed transaction as a call at its mined block
// to recover the revert payload. The transaction itself is never
// resubmitted.
func (c *Contract) diagnoseRevert(ctx context.Context, from common.Address, tx *types.Transaction, receipt *types.Receipt) error {
	msg := brane.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	if tx.Type() == types.LegacyTxType {
		msg.GasPrice = tx.GasPrice()
	} else {
		msg.GasFeeCap = tx.GasFeeCap()
		msg.GasTipCap = tx.GasTipCap()
	}
	if tx.Type() == types.BlobTxType {
		msg.BlobGasFeeCap = tx.BlobGasFeeCap()
		msg.BlobHashes = tx.BlobHashes()
	}
	_, err := c.caller.CallContract(ctx, msg, receipt.BlockNumber)
	if err != nil {
		if raw, ok := revertData(err); ok {
			return c.newRevertError(raw)
		}
		c.cfg.log.Debug().Err(err).Str("hash", tx.Hash().String()).Msg("replay returned no revert data")
	}
	return &RevertError{}
}

// WaitMined polls for the receipt of hash every interval until it appears
// or the budget elapses. Every interval is honored: poll N runs after N
// intervals and a budget that is not a whole multiple of the interval still
// gets a final poll covering the remainder, so exactly ceil(budget/interval)
// polls happen before *WaitTimeoutError.
func WaitMined(ctx context.Context, backend ContractTransactor, hash common.Hash, interval, budget time.Duration) (*types.Receipt, error) {
	return waitMined(ctx, backend, hash, interval, budget, sleepContext)
}

func waitMined(ctx context.Context, backend ContractTransactor, hash common.Hash, interval, budget time.Duration, sleep sleeper) (*types.Receipt, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if budget <= 0 {
		budget = DefaultWaitTimeout
	}
	p := receiptPoller{backend: backend, hash: hash}
	polls := int((budget + interval - 1) / interval)
	for i := 0; i < polls; i++ {
		if err := sleep(ctx, interval); err != nil {
			return nil, err
		}
		receipt, err := p.poll(ctx)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
	}
	return nil, &WaitTimeoutError{Hash: hash, Budget: budget, Polls: polls}
}

// receiptPoller produces one pending-or-found observation per tick. The
// loop driver owns the timeout arithmetic.
type receiptPoller struct {
	backend ContractTransactor
	hash    common.Hash
}

// poll returns a nil receipt while the transaction is pending.
func (p receiptPoller) poll(ctx context.Context) (*types.Receipt, error) {
	receipt, err := p.backend.TransactionReceipt(ctx, p.hash)
	if errors.Is(err, brane.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// sleeper abstracts the poll delay so tests can drive time.
type sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
