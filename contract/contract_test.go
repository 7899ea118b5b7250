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
	"math/big"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	brane "github.com/noise-xyz/brane-sub007"
	"github.com/noise-xyz/brane-sub007/abi"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/common/hexutil"
	"github.com/noise-xyz/brane-sub007/types"
)

// testABI is a token-flavored fixture covering the routing cases: view and
// write methods, a zero-output method, an overloaded name with differing
// mutability, an event and a custom error.
const testABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"ping","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"configure","stateMutability":"view","inputs":[{"name":"key","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"configure","stateMutability":"nonpayable","inputs":[{"name":"key","type":"uint256"},{"name":"value","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
	{"type":"error","name":"InsufficientBalance","inputs":[{"name":"available","type":"uint256"},{"name":"required","type":"uint256"}]}
]`

var (
	testAddr   = common.HexToAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	senderAddr = common.HexToAddress("0xa0b0c0d0e0f00102030405060708090a0b0c0d0e")
)

// fakeBackend scripts node behavior field by field and counts every call,
// so tests can assert both results and the exact RPC traffic a code path
// produced.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	chainID     *big.Int
	chainIDErr  error
	baseFee     *big.Int // nil models a pre-London chain
	blobBaseFee *big.Int
	gasPrice    *big.Int
	nonce       uint64
	estimate    uint64
	estimateErr error

	callFn  func(msg brane.CallMsg, blockNumber *big.Int) ([]byte, error)
	sendErr error
	sent    []*types.Transaction

	// receiptOnPoll is the 1-based TransactionReceipt call that first
	// returns the receipt; 0 keeps the transaction pending forever.
	receiptOnPoll int
	receipt       *types.Receipt
	receiptErr    error

	lastEstimateMsg brane.CallMsg
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:       make(map[string]int),
		chainID:     big.NewInt(1337),
		baseFee:     big.NewInt(1_000_000_000),
		blobBaseFee: big.NewInt(1_000_000_000),
		gasPrice:    big.NewInt(2_000_000_000),
		nonce:       7,
		estimate:    50_000,
	}
}

func (b *fakeBackend) bump(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name]++
	return b.calls[name]
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) estimateMsg() brane.CallMsg {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastEstimateMsg
}

func (b *fakeBackend) CallContract(ctx context.Context, msg brane.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.bump("CallContract")
	if b.callFn != nil {
		return b.callFn(msg, blockNumber)
	}
	return nil, nil
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	b.bump("ChainID")
	if b.chainIDErr != nil {
		return nil, b.chainIDErr
	}
	return new(big.Int).Set(b.chainID), nil
}

func (b *fakeBackend) HeaderLatest(ctx context.Context) (*types.Header, error) {
	b.bump("HeaderLatest")
	head := &types.Header{Number: big.NewInt(100), Time: 1700000000}
	if b.baseFee != nil {
		head.BaseFee = new(big.Int).Set(b.baseFee)
	}
	return head, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.bump("PendingNonceAt")
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	b.bump("SuggestGasPrice")
	return new(big.Int).Set(b.gasPrice), nil
}

func (b *fakeBackend) BlobBaseFee(ctx context.Context) (*big.Int, error) {
	b.bump("BlobBaseFee")
	return new(big.Int).Set(b.blobBaseFee), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg brane.CallMsg) (uint64, error) {
	b.bump("EstimateGas")
	b.mu.Lock()
	b.lastEstimateMsg = msg
	b.mu.Unlock()
	if b.estimateErr != nil {
		return 0, b.estimateErr
	}
	return b.estimate, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.bump("SendTransaction")
	if b.sendErr != nil {
		return b.sendErr
	}
	b.mu.Lock()
	b.sent = append(b.sent, tx)
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	n := b.bump("TransactionReceipt")
	if b.receiptErr != nil {
		return nil, b.receiptErr
	}
	if b.receiptOnPoll > 0 && n >= b.receiptOnPoll && b.receipt != nil {
		return b.receipt, nil
	}
	return nil, brane.NotFound
}

func (b *fakeBackend) lastSent(t *testing.T) *types.Transaction {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		t.Fatal("no transaction was submitted")
	}
	return b.sent[len(b.sent)-1]
}

// fakeSigner returns a fixed well-formed signature and counts uses.
type fakeSigner struct {
	addr  common.Address
	signs atomic.Int32
	err   error
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{addr: senderAddr}
}

func (s *fakeSigner) Address() common.Address { return s.addr }

func (s *fakeSigner) SignTransaction(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	s.signs.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	sig := make([]byte, 65)
	sig[31] = 1 // r = 1
	sig[63] = 1 // s = 1
	return sig, nil // v = 0
}

func (s *fakeSigner) SignMessage(msg []byte) ([]byte, error) {
	sig := make([]byte, 65)
	sig[31] = 1
	sig[63] = 1
	return sig, nil
}

// countingSleep advances instantly and records each tick, letting polling
// tests run without wall-clock delays.
type countingSleep struct {
	mu    sync.Mutex
	ticks int
}

func (c *countingSleep) sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.ticks++
	c.mu.Unlock()
	return ctx.Err()
}

func (c *countingSleep) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

func newTestContract(t *testing.T, backend ContractBackend, opts ...Option) *Contract {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(testABI))
	if err != nil {
		t.Fatalf("parse ABI: %v", err)
	}
	return New(testAddr, parsed, backend, opts...)
}

// revertWith encodes the solidity Error(string) payload for reason.
func revertWith(t *testing.T, reason string) []byte {
	t.Helper()
	typ, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	packed, err := abi.Arguments{{Type: typ}}.Pack(reason)
	if err != nil {
		t.Fatal(err)
	}
	sel := abi.Selector("Error(string)")
	return append(sel[:], packed...)
}

// errorData encodes a custom error payload: selector plus packed args.
func errorData(t *testing.T, decl abi.Error, args ...interface{}) []byte {
	t.Helper()
	payload, err := decl.Inputs.Pack(args...)
	if err != nil {
		t.Fatal(err)
	}
	return append(decl.ID[:4:4], payload...)
}

// dataErr mimics the node-side error shape that carries revert data.
type dataErr struct {
	msg  string
	data interface{}
}

func (e *dataErr) Error() string          { return e.msg }
func (e *dataErr) ErrorCode() int         { return 3 }
func (e *dataErr) ErrorData() interface{} { return e.data }

func revertCall(raw []byte) func(brane.CallMsg, *big.Int) ([]byte, error) {
	return func(brane.CallMsg, *big.Int) ([]byte, error) {
		return nil, &dataErr{msg: "execution reverted", data: hexutil.Encode(raw)}
	}
}

func uint256Word(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func TestCallDecodesValue(t *testing.T) {
	backend := newFakeBackend()
	backend.callFn = func(msg brane.CallMsg, blockNumber *big.Int) ([]byte, error) {
		if msg.To == nil || *msg.To != testAddr {
			t.Errorf("call targeted %v, want %v", msg.To, testAddr)
		}
		want := abi.Selector("balanceOf(address)")
		if len(msg.Data) < 4 || string(msg.Data[:4]) != string(want[:]) {
			t.Errorf("call data selector = %#x, want %#x", msg.Data[:4], want)
		}
		return uint256Word(100), nil
	}
	c := newTestContract(t, backend)

	out, err := c.Call(context.Background(), nil, "balanceOf", senderAddr)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		t.Fatalf("output type %T, want *big.Int", out[0])
	}
	if bal.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("balance = %v, want 100", bal)
	}
}

func TestCallBlockAndSender(t *testing.T) {
	backend := newFakeBackend()
	var gotFrom common.Address
	var gotBlock *big.Int
	backend.callFn = func(msg brane.CallMsg, blockNumber *big.Int) ([]byte, error) {
		gotFrom = msg.From
		gotBlock = blockNumber
		return uint256Word(1), nil
	}
	c := newTestContract(t, backend)

	opts := &CallOpts{From: senderAddr, BlockNumber: big.NewInt(42)}
	if _, err := c.Call(context.Background(), opts, "balanceOf", testAddr); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gotFrom != senderAddr {
		t.Errorf("msg.From = %v, want %v", gotFrom, senderAddr)
	}
	if gotBlock == nil || gotBlock.Int64() != 42 {
		t.Errorf("blockNumber = %v, want 42", gotBlock)
	}

	if _, err := c.Call(context.Background(), nil, "balanceOf", testAddr); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gotBlock != nil {
		t.Errorf("nil opts pinned block %v, want latest", gotBlock)
	}
}

func TestCallUnknownMethod(t *testing.T) {
	c := newTestContract(t, newFakeBackend())
	_, err := c.Call(context.Background(), nil, "mint", big.NewInt(1))
	if err == nil || !strings.Contains(err.Error(), "not found in ABI") {
		t.Fatalf("err = %v, want method not found", err)
	}
}

func TestCallEmptyResult(t *testing.T) {
	backend := newFakeBackend()
	backend.callFn = func(brane.CallMsg, *big.Int) ([]byte, error) {
		return []byte{}, nil
	}
	c := newTestContract(t, backend)

	// Methods with declared outputs treat an empty response as an error,
	// the usual symptom of calling an address with no code.
	_, err := c.Call(context.Background(), nil, "balanceOf", senderAddr)
	if err == nil || !strings.Contains(err.Error(), "empty result") {
		t.Fatalf("err = %v, want empty result error", err)
	}

	// Zero-output methods legitimately return nothing.
	out, err := c.Call(context.Background(), nil, "ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if out != nil {
		t.Errorf("ping returned %v, want nil", out)
	}
}

func TestCallRevertReason(t *testing.T) {
	backend := newFakeBackend()
	backend.callFn = revertCall(revertWith(t, "Insufficient balance"))
	c := newTestContract(t, backend)

	_, err := c.Call(context.Background(), nil, "balanceOf", senderAddr)
	var revert *RevertError
	if !errors.As(err, &revert) {
		t.Fatalf("err = %v (%T), want *RevertError", err, err)
	}
	if revert.Reason != "Insufficient balance" {
		t.Errorf("Reason = %q, want %q", revert.Reason, "Insufficient balance")
	}
	if got, want := revert.Error(), "execution reverted: Insufficient balance"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCallRevertOwnABIError(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(testABI))
	if err != nil {
		t.Fatal(err)
	}
	raw := errorData(t, parsed.Errors["InsufficientBalance"], big.NewInt(5), big.NewInt(10))

	backend := newFakeBackend()
	backend.callFn = revertCall(raw)
	c := newTestContract(t, backend)

	_, err = c.Call(context.Background(), nil, "balanceOf", senderAddr)
	var revert *RevertError
	if !errors.As(err, &revert) {
		t.Fatalf("err = %v, want *RevertError", err)
	}
	if revert.Name != "InsufficientBalance" {
		t.Errorf("Name = %q, want InsufficientBalance", revert.Name)
	}
	if revert.Reason != "InsufficientBalance(5, 10)" {
		t.Errorf("Reason = %q, want InsufficientBalance(5, 10)", revert.Reason)
	}
	if len(revert.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(revert.Args))
	}
}

func TestCallRevertRegistryError(t *testing.T) {
	// Unauthorized is declared by another contract's ABI, so decoding has
	// to come from the shared registry.
	const otherABI = `[{"type":"error","name":"Unauthorized","inputs":[{"name":"caller","type":"address"}]}]`
	registry := NewErrorDecoder()
	if err := registry.RegisterJSON(otherABI); err != nil {
		t.Fatal(err)
	}

	other, err := abi.JSON(strings.NewReader(otherABI))
	if err != nil {
		t.Fatal(err)
	}
	raw := errorData(t, other.Errors["Unauthorized"], senderAddr)

	backend := newFakeBackend()
	backend.callFn = revertCall(raw)
	c := newTestContract(t, backend, WithErrorDecoder(registry))

	_, err = c.Call(context.Background(), nil, "balanceOf", senderAddr)
	var revert *RevertError
	if !errors.As(err, &revert) {
		t.Fatalf("err = %v, want *RevertError", err)
	}
	if revert.Name != "Unauthorized" {
		t.Errorf("Name = %q, want Unauthorized", revert.Name)
	}
	if !strings.HasPrefix(revert.Reason, "Unauthorized(") {
		t.Errorf("Reason = %q, want Unauthorized(...)", revert.Reason)
	}
}

func TestCallRevertOpaque(t *testing.T) {
	backend := newFakeBackend()
	backend.callFn = revertCall([]byte{0xde, 0xad, 0xbe, 0xef, 0x01})
	c := newTestContract(t, backend)

	_, err := c.Call(context.Background(), nil, "balanceOf", senderAddr)
	var revert *RevertError
	if !errors.As(err, &revert) {
		t.Fatalf("err = %v, want *RevertError", err)
	}
	if revert.Reason != "" {
		t.Errorf("Reason = %q, want empty", revert.Reason)
	}
	if want := "execution reverted: reason unknown (5 data bytes: 0xdeadbeef01)"; revert.Error() != want {
		t.Errorf("Error() = %q, want %q", revert.Error(), want)
	}
}

func TestCallErrorWithoutData(t *testing.T) {
	backend := newFakeBackend()
	backend.callFn = func(brane.CallMsg, *big.Int) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	c := newTestContract(t, backend)

	_, err := c.Call(context.Background(), nil, "balanceOf", senderAddr)
	var revert *RevertError
	if errors.As(err, &revert) {
		t.Fatalf("plain transport error decoded as revert: %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("err = %v, want passthrough", err)
	}
}

func TestDecodeEvents(t *testing.T) {
	c := newTestContract(t, newFakeBackend())
	ev := c.ABI().Events["Transfer"]

	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrTopic := func(a common.Address) common.Hash {
		return common.BytesToHash(common.LeftPadBytes(a.Bytes(), 32))
	}
	logs := []*types.Log{
		{Topics: []common.Hash{ev.ID, addrTopic(from), addrTopic(to)}, Data: uint256Word(100)},
		{Topics: []common.Hash{common.HexToHash("0x01")}, Data: nil}, // foreign event
		{Topics: []common.Hash{ev.ID, addrTopic(to), addrTopic(from)}, Data: uint256Word(250)},
	}

	got, err := c.DecodeEvents("Transfer", logs)
	if err != nil {
		t.Fatalf("DecodeEvents: %v", err)
	}
	want := []map[string]interface{}{
		{"from": from, "to": to, "value": big.NewInt(100)},
		{"from": to, "to": from, "value": big.NewInt(250)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decoded events mismatch:\ngot:  %swant: %s", spew.Sdump(got), spew.Sdump(want))
	}

	if _, err := c.DecodeEvents("Burn", logs); err == nil {
		t.Fatal("unknown event decoded without error")
	}
}
