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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Millisecond
	}
	client, err := NewClient(srv.URL, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result string) {
	resp := jsonrpcMessage{Version: vsn, ID: id, Result: json.RawMessage(result)}
	json.NewEncoder(w).Encode(&resp)
}

func decodeRequest(t *testing.T, r *http.Request) jsonrpcMessage {
	t.Helper()
	var msg jsonrpcMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		t.Fatalf("bad request body: %v", err)
	}
	return msg
}

func TestClientCall(t *testing.T) {
	var (
		mu                   sync.Mutex
		gotMethod, gotParams string
	)
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		if msg.Version != "2.0" {
			t.Errorf("request version %q, want 2.0", msg.Version)
		}
		mu.Lock()
		gotMethod = msg.Method
		gotParams = string(msg.Params)
		mu.Unlock()
		writeResult(w, msg.ID, `"0x2a"`)
	})

	var result string
	err := client.Call(context.Background(), &result, "eth_blockNumber")
	if err != nil {
		t.Fatal(err)
	}
	if result != "0x2a" {
		t.Errorf("result %q, want 0x2a", result)
	}
	mu.Lock()
	if gotMethod != "eth_blockNumber" {
		t.Errorf("method %q, want eth_blockNumber", gotMethod)
	}
	if gotParams != "[]" {
		t.Errorf("params %s, want []", gotParams)
	}
	mu.Unlock()

	err = client.Call(context.Background(), nil, "eth_getBalance", "0x1", "latest")
	if err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	if gotParams != `["0x1","latest"]` {
		t.Errorf("params %s, want [\"0x1\",\"latest\"]", gotParams)
	}
	mu.Unlock()
}

func TestClientRequestIDs(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []string
	)
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		mu.Lock()
		ids = append(ids, string(msg.ID))
		mu.Unlock()
		writeResult(w, msg.ID, "true")
	})
	for i := 0; i < 3; i++ {
		if err := client.Call(context.Background(), nil, "x"); err != nil {
			t.Fatal(err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(ids) != 3 || ids[0] == ids[1] || ids[1] == ids[2] {
		t.Errorf("request ids not distinct: %v", ids)
	}
}

func TestClientNodeError(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		resp := jsonrpcMessage{
			Version: vsn,
			ID:      msg.ID,
			Error:   &jsonError{Code: 3, Message: "execution reverted", Data: "0x08c379a0"},
		}
		json.NewEncoder(w).Encode(&resp)
	})

	err := client.Call(context.Background(), nil, "eth_call")
	if err == nil {
		t.Fatal("expected error")
	}
	var rpcErr Error
	if !errors.As(err, &rpcErr) || rpcErr.ErrorCode() != 3 {
		t.Errorf("error code: have %v", err)
	}
	var dataErr DataError
	if !errors.As(err, &dataErr) || dataErr.ErrorData() != "0x08c379a0" {
		t.Errorf("error data: have %v", err)
	}
	if !strings.Contains(err.Error(), "execution reverted") {
		t.Errorf("error message: have %q", err.Error())
	}
}

func TestClientHTTPError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "teapot refuses", http.StatusTeapot)
	})

	err := client.Call(context.Background(), nil, "eth_call")
	var httpErr HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("have %T (%v), want HTTPError", err, err)
	}
	if httpErr.StatusCode != http.StatusTeapot {
		t.Errorf("status code %d, want %d", httpErr.StatusCode, http.StatusTeapot)
	}
	if !strings.Contains(string(httpErr.Body), "teapot refuses") {
		t.Errorf("body %q", httpErr.Body)
	}
	// Non-rate-limit failures are not retried.
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestClientRetriesHTTP429(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		if calls.Add(1) <= 2 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		writeResult(w, msg.ID, `"ok"`)
	})

	var result string
	if err := client.Call(context.Background(), &result, "eth_call"); err != nil {
		t.Fatal(err)
	}
	if result != "ok" {
		t.Errorf("result %q, want ok", result)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestClientRetriesErrorCode(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		if calls.Add(1) == 1 {
			resp := jsonrpcMessage{
				Version: vsn,
				ID:      msg.ID,
				Error:   &jsonError{Code: errCodeRateLimited, Message: "rate limit exceeded"},
			}
			json.NewEncoder(w).Encode(&resp)
			return
		}
		writeResult(w, msg.ID, "true")
	})

	if err := client.Call(context.Background(), nil, "eth_call"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestClientRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, Config{RetryLimit: 2}, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	err := client.Call(context.Background(), nil, "eth_call")
	var httpErr HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("have %v, want 429 HTTPError", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestClientRetryDisabled(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, Config{RetryLimit: -1}, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	if err := client.Call(context.Background(), nil, "eth_call"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestClientClosed(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		writeResult(w, msg.ID, "true")
	})
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
	if err := client.Call(context.Background(), nil, "eth_call"); !errors.Is(err, ErrClosed) {
		t.Errorf("have %v, want %v", err, ErrClosed)
	}
}

func TestClientNullResult(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		writeResult(w, msg.ID, "null")
	})
	var result *int
	if err := client.Call(context.Background(), &result, "eth_getTransactionReceipt"); err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Errorf("result %v, want nil", result)
	}
}

func TestClientMissingResult(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		resp := jsonrpcMessage{Version: vsn, ID: msg.ID}
		json.NewEncoder(w).Encode(&resp)
	})
	if err := client.Call(context.Background(), nil, "eth_call"); !errors.Is(err, ErrNoResult) {
		t.Errorf("have %v, want %v", err, ErrNoResult)
	}
}

func TestClientNonPointerResult(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server must not be called")
	})
	if err := client.Call(context.Background(), 5, "eth_call"); err == nil {
		t.Fatal("expected error for non-pointer result")
	}
}

func TestClientRateLimiterPacing(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, Config{RateLimit: 50, RateBurst: 1}, func(w http.ResponseWriter, r *http.Request) {
		msg := decodeRequest(t, r)
		calls.Add(1)
		writeResult(w, msg.ID, "true")
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := client.Call(context.Background(), nil, "eth_call"); err != nil {
			t.Fatal(err)
		}
	}
	// 3 calls at 50 req/s with burst 1 cannot complete faster than ~40ms.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("3 paced calls finished in %v, pacing not applied", elapsed)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("ws://localhost:8546", Config{}); err == nil {
		t.Error("websocket URL accepted")
	}
	if _, err := NewClient("://", Config{}); err == nil {
		t.Error("malformed URL accepted")
	}
}
