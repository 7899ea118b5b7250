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

package ethclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	brane "github.com/noise-xyz/brane-sub007"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/rpc"
	"github.com/noise-xyz/brane-sub007/types"
)

// fakeTransport serves canned JSON results and records every call made
// through it.
type fakeTransport struct {
	handler func(method string, args []interface{}) (json.RawMessage, error)

	mu      sync.Mutex
	calls   []string
	closeds int
}

func (f *fakeTransport) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
	raw, err := f.handler(method, args)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(raw, result)
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeds++
	return nil
}

func (f *fakeTransport) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.calls {
		if m == method {
			n++
		}
	}
	return n
}

func (f *fakeTransport) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// nodeError mimics an error object decoded from a JSON-RPC response.
type nodeError struct {
	code int
	msg  string
}

func (e *nodeError) Error() string  { return e.msg }
func (e *nodeError) ErrorCode() int { return e.code }

func signedLegacyTx() *types.Transaction {
	to := common.HexToAddress("0x3535353535353535353535353535353535353535")
	return types.NewTx(&types.LegacyTx{
		Nonce:    9,
		GasPrice: big.NewInt(1),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1),
		V:        big.NewInt(27),
		R:        big.NewInt(1),
		S:        big.NewInt(1),
	})
}

func TestChainIDCached(t *testing.T) {
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			time.Sleep(50 * time.Millisecond)
			return json.RawMessage(`"0x539"`), nil
		},
	}
	c := New(ft)
	defer c.Close()

	start := make(chan struct{})
	var wg sync.WaitGroup
	ids := make([]*big.Int, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ids[i], errs[i] = c.ChainID(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < 8; i++ {
		if errs[i] != nil {
			t.Fatalf("ChainID %d: %v", i, errs[i])
		}
		if ids[i].Int64() != 1337 {
			t.Fatalf("ChainID %d = %v, want 1337", i, ids[i])
		}
	}
	if n := ft.count("eth_chainId"); n != 1 {
		t.Errorf("eth_chainId issued %d times, want 1", n)
	}

	// Later calls are served from the cache.
	if _, err := c.ChainID(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := ft.count("eth_chainId"); n != 1 {
		t.Errorf("eth_chainId issued %d times after warm cache, want 1", n)
	}
}

func TestChainIDMismatch(t *testing.T) {
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			return json.RawMessage(`"0x1"`), nil
		},
	}
	c := New(ft, WithChainID(big.NewInt(5)))
	defer c.Close()

	_, err := c.ChainID(context.Background())
	var mismatch *ChainMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("ChainID error = %v, want *ChainMismatchError", err)
	}
	if mismatch.Have.Int64() != 1 || mismatch.Want.Int64() != 5 {
		t.Errorf("mismatch has %v/%v, want 1/5", mismatch.Have, mismatch.Want)
	}
	if msg := err.Error(); msg != "chain ID mismatch: node has 1, expected 5" {
		t.Errorf("unexpected message %q", msg)
	}

	// The node answer is still cached; repeated calls keep failing
	// without further RPC.
	if _, err := c.ChainID(context.Background()); !errors.As(err, &mismatch) {
		t.Fatalf("second ChainID error = %v, want *ChainMismatchError", err)
	}
	if n := ft.count("eth_chainId"); n != 1 {
		t.Errorf("eth_chainId issued %d times, want 1", n)
	}
}

func TestCallContractArgs(t *testing.T) {
	to := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	var gotArgs []interface{}
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			if method != "eth_call" {
				t.Errorf("unexpected method %s", method)
			}
			gotArgs = args
			return json.RawMessage(`"0xdeadbeef"`), nil
		},
	}
	c := New(ft)
	defer c.Close()

	msg := brane.CallMsg{
		To:    &to,
		Data:  []byte{0x70, 0xa0, 0x82, 0x31},
		Value: big.NewInt(1),
	}
	out, err := c.CallContract(context.Background(), msg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xde, 0xad, 0xbe, 0xef}; !bytes.Equal(out, want) {
		t.Errorf("result = %x, want %x", out, want)
	}
	if len(gotArgs) != 2 {
		t.Fatalf("got %d args, want 2", len(gotArgs))
	}
	if gotArgs[1] != "latest" {
		t.Errorf("block arg = %v, want latest", gotArgs[1])
	}
	arg, ok := gotArgs[0].(map[string]interface{})
	if !ok {
		t.Fatalf("call arg has type %T, want map", gotArgs[0])
	}
	for _, key := range []string{"from", "to", "input", "value"} {
		if _, ok := arg[key]; !ok {
			t.Errorf("call arg missing %q", key)
		}
	}
	for _, key := range []string{"gas", "gasPrice", "maxFeePerGas", "accessList"} {
		if _, ok := arg[key]; ok {
			t.Errorf("call arg has unexpected %q", key)
		}
	}

	// Pinned block numbers travel as hex quantities.
	if _, err := c.CallContract(context.Background(), msg, big.NewInt(12964760)); err != nil {
		t.Fatal(err)
	}
	if gotArgs[1] != "0xc5d398" {
		t.Errorf("block arg = %v, want 0xc5d398", gotArgs[1])
	}
}

func TestHeaderLatest(t *testing.T) {
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			if method != "eth_getBlockByNumber" {
				t.Errorf("unexpected method %s", method)
			}
			if args[0] != "latest" || args[1] != false {
				t.Errorf("unexpected args %v", args)
			}
			return json.RawMessage(`{"number":"0x10","timestamp":"0x6502d1e0","baseFeePerGas":"0x3b9aca00"}`), nil
		},
	}
	c := New(ft)
	defer c.Close()

	head, err := c.HeaderLatest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if head.Number.Int64() != 16 {
		t.Errorf("number = %v, want 16", head.Number)
	}
	if head.BaseFee.Int64() != 1000000000 {
		t.Errorf("baseFee = %v, want 1000000000", head.BaseFee)
	}
}

func TestHeaderLatestNotFound(t *testing.T) {
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			return json.RawMessage(`null`), nil
		},
	}
	c := New(ft)
	defer c.Close()

	if _, err := c.HeaderLatest(context.Background()); !errors.Is(err, brane.NotFound) {
		t.Fatalf("error = %v, want NotFound", err)
	}
}

func TestAccountAndFeeQueries(t *testing.T) {
	account := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			switch method {
			case "eth_getTransactionCount":
				if args[1] != "pending" {
					t.Errorf("nonce block arg = %v, want pending", args[1])
				}
				return json.RawMessage(`"0x2a"`), nil
			case "eth_gasPrice":
				return json.RawMessage(`"0x3b9aca00"`), nil
			case "eth_blobBaseFee":
				return json.RawMessage(`"0x1"`), nil
			case "eth_estimateGas":
				return json.RawMessage(`"0x5208"`), nil
			}
			t.Errorf("unexpected method %s", method)
			return json.RawMessage(`null`), nil
		},
	}
	c := New(ft)
	defer c.Close()

	ctx := context.Background()
	nonce, err := c.PendingNonceAt(ctx, account)
	if err != nil || nonce != 42 {
		t.Errorf("PendingNonceAt = %d, %v, want 42", nonce, err)
	}
	price, err := c.SuggestGasPrice(ctx)
	if err != nil || price.Int64() != 1000000000 {
		t.Errorf("SuggestGasPrice = %v, %v, want 1000000000", price, err)
	}
	blobFee, err := c.BlobBaseFee(ctx)
	if err != nil || blobFee.Int64() != 1 {
		t.Errorf("BlobBaseFee = %v, %v, want 1", blobFee, err)
	}
	gas, err := c.EstimateGas(ctx, brane.CallMsg{From: account})
	if err != nil || gas != 21000 {
		t.Errorf("EstimateGas = %d, %v, want 21000", gas, err)
	}
}

func TestSendTransaction(t *testing.T) {
	tx := signedLegacyTx()
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			if method != "eth_sendRawTransaction" {
				t.Errorf("unexpected method %s", method)
			}
			raw, ok := args[0].(string)
			if !ok || !strings.HasPrefix(raw, "0x") {
				t.Errorf("raw tx arg = %v, want 0x-prefixed string", args[0])
			}
			return json.RawMessage(`"` + tx.Hash().String() + `"`), nil
		},
	}
	c := New(ft)
	defer c.Close()

	if err := c.SendTransaction(context.Background(), tx); err != nil {
		t.Fatal(err)
	}
}

func TestSendTransactionInvalidSender(t *testing.T) {
	reject := &nodeError{code: -32000, msg: "invalid sender"}
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			return nil, reject
		},
	}
	c := New(ft)
	defer c.Close()

	err := c.SendTransaction(context.Background(), signedLegacyTx())
	var invalid *InvalidSenderError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want *InvalidSenderError", err)
	}
	if !errors.Is(err, reject) {
		t.Error("InvalidSenderError does not wrap the node error")
	}
	if err.Error() != "invalid sender" {
		t.Errorf("message = %q, want node message", err.Error())
	}

	// Other node rejections pass through unchanged.
	other := &nodeError{code: -32000, msg: "nonce too low"}
	ft.handler = func(method string, args []interface{}) (json.RawMessage, error) {
		return nil, other
	}
	err = c.SendTransaction(context.Background(), signedLegacyTx())
	if errors.As(err, &invalid) {
		t.Fatalf("error = %v, want plain node error", err)
	}
	if !errors.Is(err, other) {
		t.Errorf("error = %v, want %v", err, other)
	}
}

func TestTransactionReceipt(t *testing.T) {
	hash := common.HexToHash("0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b")
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			if method != "eth_getTransactionReceipt" {
				t.Errorf("unexpected method %s", method)
			}
			return json.RawMessage(`{
				"status": "0x1",
				"cumulativeGasUsed": "0xc350",
				"logs": [],
				"transactionHash": "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b",
				"gasUsed": "0x5208",
				"effectiveGasPrice": "0x3b9aca00",
				"blockNumber": "0x10",
				"transactionIndex": "0x1"
			}`), nil
		},
	}
	c := New(ft)
	defer c.Close()

	r, err := c.TransactionReceipt(context.Background(), hash)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != types.ReceiptStatusSuccessful {
		t.Errorf("status = %d, want success", r.Status)
	}
	if r.GasUsed != 21000 {
		t.Errorf("gasUsed = %d, want 21000", r.GasUsed)
	}
	if r.TxHash != hash {
		t.Errorf("txHash = %v, want %v", r.TxHash, hash)
	}
}

func TestTransactionReceiptNotFound(t *testing.T) {
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			return json.RawMessage(`null`), nil
		},
	}
	c := New(ft)
	defer c.Close()

	_, err := c.TransactionReceipt(context.Background(), common.Hash{})
	if !errors.Is(err, brane.NotFound) {
		t.Fatalf("error = %v, want NotFound", err)
	}
}

func TestClosedClient(t *testing.T) {
	ft := &fakeTransport{
		handler: func(method string, args []interface{}) (json.RawMessage, error) {
			return json.RawMessage(`"0x1"`), nil
		},
	}
	c := New(ft)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	ft.mu.Lock()
	closeds := ft.closeds
	ft.mu.Unlock()
	if closeds != 1 {
		t.Errorf("transport closed %d times, want 1", closeds)
	}

	ctx := context.Background()
	if _, err := c.ChainID(ctx); !errors.Is(err, rpc.ErrClosed) {
		t.Errorf("ChainID error = %v, want ErrClosed", err)
	}
	if _, err := c.HeaderLatest(ctx); !errors.Is(err, rpc.ErrClosed) {
		t.Errorf("HeaderLatest error = %v, want ErrClosed", err)
	}
	if _, err := c.SuggestGasPrice(ctx); !errors.Is(err, rpc.ErrClosed) {
		t.Errorf("SuggestGasPrice error = %v, want ErrClosed", err)
	}
	if err := c.SendTransaction(ctx, signedLegacyTx()); !errors.Is(err, rpc.ErrClosed) {
		t.Errorf("SendTransaction error = %v, want ErrClosed", err)
	}
	if _, err := c.TransactionReceipt(ctx, common.Hash{}); !errors.Is(err, rpc.ErrClosed) {
		t.Errorf("TransactionReceipt error = %v, want ErrClosed", err)
	}
	if n := ft.total(); n != 0 {
		t.Errorf("transport saw %d calls after close, want 0", n)
	}
}
