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

// Package contract drives contract invocation against a backend: ABI-level
// calls with revert decoding on the read path, and fee selection, signing,
// submission and confirmation polling on the write path. Interface-style
// bindings with explicit read/write routing are built on top by Bind.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	brane "github.com/noise-xyz/brane-sub007"
	"github.com/noise-xyz/brane-sub007/abi"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/common/hexutil"
	"github.com/noise-xyz/brane-sub007/rpc"
	"github.com/noise-xyz/brane-sub007/types"
)

// Defaults applied when the corresponding option or TxOpts field is unset.
var DefaultGasTipCap = big.NewInt(1e9) // 1 gwei

const (
	DefaultBaseFeeMultiplier = 2
	DefaultPollInterval      = time.Second
	DefaultWaitTimeout       = 2 * time.Minute
)

type config struct {
	gasTipCap    *big.Int
	baseFeeMult  int64
	gasNum       uint64
	gasDen       uint64
	pollInterval time.Duration
	waitTimeout  time.Duration
	errs         *ErrorDecoder
	log          zerolog.Logger
	sleep        sleeper
}

func defaultConfig() config {
	return config{
		gasTipCap:    new(big.Int).Set(DefaultGasTipCap),
		baseFeeMult:  DefaultBaseFeeMultiplier,
		gasNum:       1,
		gasDen:       1,
		pollInterval: DefaultPollInterval,
		waitTimeout:  DefaultWaitTimeout,
		log:          zerolog.Nop(),
		sleep:        sleepContext,
	}
}

// Option configures a Contract or a BoundContract.
type Option func(*config)

// WithGasTipCap sets the default priority fee used when TxOpts does not
// supply one.
func WithGasTipCap(tip *big.Int) Option {
	return func(c *config) {
		if tip != nil {
			c.gasTipCap = new(big.Int).Set(tip)
		}
	}
}

// WithBaseFeeMultiplier sets the headroom factor applied to the latest base
// fee when computing a default fee cap, covering base-fee growth across the
// next few blocks.
func WithBaseFeeMultiplier(mult int64) Option {
	return func(c *config) {
		if mult > 0 {
			c.baseFeeMult = mult
		}
	}
}

// WithGasBuffer scales gas limits by num/den, both caller-supplied and
// estimated ones.
func WithGasBuffer(num, den uint64) Option {
	return func(c *config) {
		if num > 0 && den > 0 {
			c.gasNum, c.gasDen = num, den
		}
	}
}

// WithPollInterval sets the delay between receipt polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithWaitTimeout sets the total confirmation polling budget.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.waitTimeout = d
		}
	}
}

// WithErrorDecoder supplies a decoder table for custom errors declared
// outside the contract's own ABI, typically shared across a deployment.
func WithErrorDecoder(d *ErrorDecoder) Option {
	return func(c *config) {
		c.errs = d
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// CallOpts are the options for a contract read.
type CallOpts struct {
	From        common.Address // sender address visible to the call, optional
	BlockNumber *big.Int       // block to execute against, nil means latest
}

// TxOpts are the options for a contract write. Zero-valued fields are
// resolved by the fee strategy: fees from the chain's fee market, gas limit
// by estimation, nonce from the pending state.
type TxOpts struct {
	Value      *big.Int         // funds to transfer along the call, nil means 0
	GasPrice   *big.Int         // legacy gas price, forces a legacy transaction
	GasFeeCap  *big.Int         // EIP-1559 fee cap per gas
	GasTipCap  *big.Int         // EIP-1559 priority fee per gas
	GasLimit   uint64           // gas limit, 0 means estimate
	Nonce      *big.Int         // nonce, nil means pending account nonce
	AccessList types.AccessList // optional EIP-2930 access list

	ForceLegacy bool // build a legacy transaction even on EIP-1559 chains

	BlobSidecar *types.BlobTxSidecar // blob payload, selects an EIP-4844 transaction
	BlobFeeCap  *big.Int             // blob fee cap, nil means 2x current blob base fee
}

// Contract is a low level wrapper around a deployed contract, routing reads
// through eth_call and writes through the transaction lifecycle. Instances
// are safe for concurrent use.
type Contract struct {
	address    common.Address
	abi        abi.ABI
	caller     ContractCaller
	transactor ContractTransactor
	cfg        config
}

// New creates a contract wrapper bound to the given address.
func New(address common.Address, parsed abi.ABI, backend ContractBackend, opts ...Option) *Contract {
	return newContract(address, parsed, backend, backend, opts...)
}

func newContract(address common.Address, parsed abi.ABI, caller ContractCaller, transactor ContractTransactor, opts ...Option) *Contract {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.log = cfg.log.With().Str("component", "contract").Str("address", address.Hex()).Logger()
	return &Contract{
		address:    address,
		abi:        parsed,
		caller:     caller,
		transactor: transactor,
		cfg:        cfg,
	}
}

// Address returns the contract's deployment address.
func (c *Contract) Address() common.Address { return c.address }

// ABI returns the parsed interface description.
func (c *Contract) ABI() abi.ABI { return c.abi }

// Call invokes the named view or pure method and decodes the result
// according to the declared outputs. A nil opts calls against the latest
// block. Reverted execution is reported as *RevertError.
func (c *Contract) Call(ctx context.Context, opts *CallOpts, method string, args ...interface{}) ([]interface{}, error) {
	m, ok := c.abi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %q not found in ABI", method)
	}
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	output, err := c.RawCall(ctx, opts, input)
	if err != nil {
		return nil, err
	}
	if len(output) == 0 {
		if len(m.Outputs) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("empty result from call to %s", m.Sig)
	}
	return c.abi.Unpack(method, output)
}

// RawCall executes eth_call with pre-packed input bytes and returns the raw
// output. Revert data carried by the node error is decoded into
// *RevertError.
func (c *Contract) RawCall(ctx context.Context, opts *CallOpts, input []byte) ([]byte, error) {
	if opts == nil {
		opts = new(CallOpts)
	}
	msg := brane.CallMsg{
		From: opts.From,
		To:   &c.address,
		Data: input,
	}
	output, err := c.caller.CallContract(ctx, msg, opts.BlockNumber)
	if err != nil {
		if raw, ok := revertData(err); ok {
			return nil, c.newRevertError(raw)
		}
		return nil, err
	}
	return output, nil
}

// DecodeEvents decodes every log emitted by the named event into a value
// map keyed by argument name, in log order. Logs with a different topic0
// are skipped. Indexed arguments whose type is only hashed into the topic
// (string, bytes, arrays, tuples) are left out of the map.
func (c *Contract) DecodeEvents(name string, logs []*types.Log) ([]map[string]interface{}, error) {
	ev, ok := c.abi.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %q not found in ABI", name)
	}
	if ev.Anonymous {
		return nil, fmt.Errorf("event %q is anonymous and cannot be matched by topic", name)
	}
	var out []map[string]interface{}
	for _, log := range logs {
		if log == nil || len(log.Topics) == 0 || log.Topics[0] != ev.ID {
			continue
		}
		values, err := ev.ParseLog(log.Topics, log.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	return out, nil
}

// revertData extracts revert bytes from a node error carrying return data.
func revertData(err error) ([]byte, bool) {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return nil, false
	}
	hexData, ok := de.ErrorData().(string)
	if !ok {
		return nil, false
	}
	raw, decErr := hexutil.Decode(hexData)
	if decErr != nil || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// newRevertError decodes revert bytes: the solidity Error(string) and
// Panic(uint256) shapes first, then the contract's own declared errors,
// then the configured decoder table.
func (c *Contract) newRevertError(raw []byte) *RevertError {
	if reason, err := abi.UnpackRevert(raw); err == nil {
		return &RevertError{Reason: reason, Raw: raw}
	}
	if len(raw) >= 4 {
		var sel [4]byte
		copy(sel[:], raw)
		if decl, err := c.abi.ErrorByID(sel); err == nil {
			if args, err := decl.Unpack(raw); err == nil {
				return &RevertError{Reason: formatCustomError(decl.Name, args), Name: decl.Name, Args: args, Raw: raw}
			}
		}
	}
	if c.cfg.errs != nil {
		if name, args, ok := c.cfg.errs.Decode(raw); ok {
			return &RevertError{Reason: formatCustomError(name, args), Name: name, Args: args, Raw: raw}
		}
	}
	return &RevertError{Raw: raw}
}
