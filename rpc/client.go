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

// Package rpc provides the JSON-RPC 2.0 transport used to talk to Ethereum
// nodes over HTTP.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRetryLimit     = 3
	defaultRetryBackoff   = 250 * time.Millisecond
	maxResponseSize       = 10 * 1024 * 1024

	// errCodeRateLimited is the nonstandard code many providers return for
	// request throttling, alongside HTTP 429.
	errCodeRateLimited = -32005
)

// Transport performs JSON-RPC exchanges with a node. One request/response
// pair per Call.
type Transport interface {
	// Call invokes the given method and unmarshals the response result into
	// result if it is non-nil.
	Call(ctx context.Context, result interface{}, method string, args ...interface{}) error

	// Close releases the transport. Calls made after Close fail with
	// ErrClosed.
	Close() error
}

// Config holds the optional knobs of the HTTP client.
type Config struct {
	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client

	// RateLimit caps outgoing requests per second. Zero disables pacing.
	RateLimit float64

	// RateBurst is the limiter burst size. Defaults to 1 when pacing is on.
	RateBurst int

	// RetryLimit bounds the retries of rate-limited calls. Zero means the
	// default of 3; negative disables retrying.
	RetryLimit int

	// RetryBackoff is the wait before the first retry, doubled on each
	// further attempt.
	RetryBackoff time.Duration

	// Logger receives transport diagnostics. Nil logs nothing.
	Logger *zerolog.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}
	if cfg.RetryLimit == 0 {
		cfg.RetryLimit = defaultRetryLimit
	} else if cfg.RetryLimit < 0 {
		cfg.RetryLimit = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	return cfg
}

// Client is the HTTP implementation of Transport.
type Client struct {
	url     string
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger

	idCounter atomic.Uint64
	closeOnce sync.Once
	closed    atomic.Bool
}

var _ Transport = (*Client)(nil)

// NewClient creates a JSON-RPC client for the given HTTP(S) endpoint.
func NewClient(rawurl string, cfg Config) (*Client, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	cfg = cfg.withDefaults()
	c := &Client{
		url:    rawurl,
		cfg:    cfg,
		client: cfg.HTTPClient,
		log:    cfg.Logger.With().Str("component", "rpc").Logger(),
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	return c, nil
}

// Call performs a JSON-RPC call. Rate-limited responses (HTTP 429 or error
// code -32005) are retried with exponential backoff up to the configured
// limit; all other failures are returned to the caller unchanged.
func (c *Client) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if result != nil && reflect.TypeOf(result).Kind() != reflect.Ptr {
		return fmt.Errorf("call result parameter must be pointer or nil interface: %v", result)
	}
	msg, err := newMessage(c.idCounter.Add(1), method, args)
	if err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	backoff := c.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		resp, err := c.post(ctx, body)
		if err == nil && resp.Error != nil {
			err = resp.Error
		}
		if err == nil {
			if len(resp.Result) == 0 {
				return ErrNoResult
			}
			if result == nil {
				return nil
			}
			return json.Unmarshal(resp.Result, result)
		}
		if !isRateLimited(err) || attempt >= c.cfg.RetryLimit {
			return err
		}
		c.log.Debug().
			Str("method", method).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("rate limited, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// post performs one HTTP round trip.
func (c *Client) post(ctx context.Context, body []byte) (*jsonrpcMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
	}
	var msg jsonrpcMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC response: %w", err)
	}
	return &msg, nil
}

// Close marks the client closed and drops idle connections. It is safe to
// call multiple times.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.client.CloseIdleConnections()
	})
	return nil
}

func isRateLimited(err error) bool {
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	var rpcErr Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == errCodeRateLimited
}
