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

// Package ethclient wraps a JSON-RPC transport with the node operations the
// contract engine needs.
package ethclient

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	brane "github.com/noise-xyz/brane-sub007"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/common/hexutil"
	"github.com/noise-xyz/brane-sub007/rpc"
	"github.com/noise-xyz/brane-sub007/types"
)

// Client wraps a Transport. All methods fail fast with rpc.ErrClosed after
// Close without issuing further RPC.
type Client struct {
	t        rpc.Transport
	expected *big.Int
	log      zerolog.Logger

	group   singleflight.Group
	mu      sync.Mutex
	chainID *big.Int

	closed atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithChainID pins the chain the client is willing to talk to. When set, a
// node reporting a different eth_chainId fails every dependent operation
// with *ChainMismatchError.
func WithChainID(id *big.Int) Option {
	return func(c *Client) {
		if id != nil {
			c.expected = new(big.Int).Set(id)
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client on top of the given transport.
func New(t rpc.Transport, opts ...Option) *Client {
	c := &Client{t: t, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "ethclient").Logger()
	return c
}

// Close closes the underlying transport. Safe to call multiple times.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.log.Debug().Msg("client closed")
	return c.t.Close()
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.closed.Load() {
		return rpc.ErrClosed
	}
	return c.t.Call(ctx, result, method, args...)
}

// ChainID returns the chain id of the connected node. The value is fetched
// at most once per client lifetime; concurrent first calls share one RPC.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if c.closed.Load() {
		return nil, rpc.ErrClosed
	}
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()

	if cached == nil {
		v, err, _ := c.group.Do("chainId", func() (interface{}, error) {
			var result hexutil.Big
			if err := c.t.Call(ctx, &result, "eth_chainId"); err != nil {
				return nil, err
			}
			id := (*big.Int)(&result)
			c.mu.Lock()
			c.chainID = id
			c.mu.Unlock()
			c.log.Debug().Str("chainId", id.String()).Msg("chain id acquired")
			return id, nil
		})
		if err != nil {
			return nil, err
		}
		cached = v.(*big.Int)
	}
	if c.expected != nil && c.expected.Cmp(cached) != 0 {
		return nil, &ChainMismatchError{Want: new(big.Int).Set(c.expected), Have: new(big.Int).Set(cached)}
	}
	return new(big.Int).Set(cached), nil
}

// CallContract executes a message call without creating a transaction. A
// nil blockNumber selects the latest state.
func (c *Client) CallContract(ctx context.Context, msg brane.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var hex hexutil.Bytes
	err := c.call(ctx, &hex, "eth_call", toCallArg(msg), toBlockNumArg(blockNumber))
	if err != nil {
		return nil, err
	}
	return hex, nil
}

// HeaderLatest returns the header of the most recent block.
func (c *Client) HeaderLatest(ctx context.Context) (*types.Header, error) {
	var head *types.Header
	err := c.call(ctx, &head, "eth_getBlockByNumber", "latest", false)
	if err == nil && head == nil {
		err = brane.NotFound
	}
	return head, err
}

// PendingNonceAt returns the account nonce in the pending state. This is the
// nonce that should be used for the next transaction.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var result hexutil.Uint64
	err := c.call(ctx, &result, "eth_getTransactionCount", account, "pending")
	return uint64(result), err
}

// SuggestGasPrice retrieves the currently suggested gas price.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var hex hexutil.Big
	if err := c.call(ctx, &hex, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&hex), nil
}

// BlobBaseFee retrieves the current blob base fee.
func (c *Client) BlobBaseFee(ctx context.Context) (*big.Int, error) {
	var hex hexutil.Big
	if err := c.call(ctx, &hex, "eth_blobBaseFee"); err != nil {
		return nil, err
	}
	return (*big.Int)(&hex), nil
}

// EstimateGas returns an estimate of the gas needed to execute the given
// message against the pending state.
func (c *Client) EstimateGas(ctx context.Context, msg brane.CallMsg) (uint64, error) {
	var hex hexutil.Uint64
	err := c.call(ctx, &hex, "eth_estimateGas", toCallArg(msg))
	return uint64(hex), err
}

// SendTransaction submits a signed transaction. Node rejections mentioning
// an invalid sender are reported as *InvalidSenderError so callers can tell
// a bad signature from other submission failures.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	data, err := tx.MarshalBinary()
	if err != nil {
		return err
	}
	err = c.call(ctx, nil, "eth_sendRawTransaction", hexutil.Encode(data))
	if err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) && strings.Contains(rpcErr.Error(), "invalid sender") {
			return &InvalidSenderError{Err: err}
		}
		return err
	}
	c.log.Debug().
		Str("hash", tx.Hash().String()).
		Uint8("type", tx.Type()).
		Msg("transaction submitted")
	return nil
}

// TransactionReceipt returns the receipt of a mined transaction. If the
// transaction is not yet mined, the error is brane.NotFound.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var r *types.Receipt
	err := c.call(ctx, &r, "eth_getTransactionReceipt", txHash)
	if err == nil && r == nil {
		return nil, brane.NotFound
	}
	return r, err
}

func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	return hexutil.EncodeBig(number)
}

func toCallArg(msg brane.CallMsg) interface{} {
	arg := map[string]interface{}{"from": msg.From}
	if msg.To != nil {
		arg["to"] = *msg.To
	}
	if len(msg.Data) > 0 {
		arg["input"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	if msg.GasFeeCap != nil {
		arg["maxFeePerGas"] = (*hexutil.Big)(msg.GasFeeCap)
	}
	if msg.GasTipCap != nil {
		arg["maxPriorityFeePerGas"] = (*hexutil.Big)(msg.GasTipCap)
	}
	if len(msg.AccessList) > 0 {
		arg["accessList"] = msg.AccessList
	}
	if msg.BlobGasFeeCap != nil {
		arg["maxFeePerBlobGas"] = (*hexutil.Big)(msg.BlobGasFeeCap)
	}
	if len(msg.BlobHashes) > 0 {
		arg["blobVersionedHashes"] = msg.BlobHashes
	}
	return arg
}
