// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/vte/lib/clock"
	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/netutil"
)

// Defaults applied by New for zero Options fields.
const (
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultRetryBudget    = 50
	DefaultRequestTimeout = 2 * time.Minute
)

// State is a client's lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options configures a Client.
type Options struct {
	// Clock drives readiness polling and request timeouts. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// PollInterval is the spacing between INIT attempts and the
	// timeout for each attempt.
	PollInterval time.Duration

	// RetryBudget is the maximum number of INIT attempts.
	RetryBudget int

	// RequestTimeout applies to typed operations and to Request calls
	// with a non-positive timeout.
	RequestTimeout time.Duration

	// OnLateResponse, if set, is called from the reader goroutine for
	// every response whose request is no longer pending.
	OnLateResponse func(engine.Response)
}

// Client is an owned connection to one engine instance. It is safe for
// concurrent use.
type Client struct {
	transport engine.Transport
	clock     clock.Clock
	logger    *slog.Logger
	options   Options

	nextID atomic.Uint64

	mu       sync.Mutex
	state    State
	initDone chan struct{}
	initErr  error
	version  string
	pending  map[uint64]*Future
	outbound []engine.Request
	broken   error
	closed   bool

	wake      chan struct{}
	stop      chan struct{}
	closeOnce sync.Once
}

// New starts a client on transport. The client owns transport and
// closes it on Close. The engine is not contacted until the first
// Request or Init.
func New(transport engine.Transport, options Options) *Client {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.RetryBudget <= 0 {
		options.RetryBudget = DefaultRetryBudget
	}
	if options.RequestTimeout <= 0 {
		options.RequestTimeout = DefaultRequestTimeout
	}

	client := &Client{
		transport: transport,
		clock:     options.Clock,
		logger:    options.Logger,
		options:   options,
		pending:   make(map[uint64]*Future),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
	go client.writeLoop()
	go client.readLoop()
	return client
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EngineVersion returns the version the engine reported when it became
// ready, or "" before then.
func (c *Client) EngineVersion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Init brings the engine up. It is idempotent: once the client is
// ready it returns nil immediately, and concurrent callers share one
// bring-up. Exhausting the attempt budget returns ErrEngineInitTimeout
// and leaves the client failed. If ctx ends first the client returns
// to uninitialized and a later Init starts over.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		c.mu.Unlock()
		return nil
	case StateFailed:
		err := c.initErr
		c.mu.Unlock()
		return err
	case StateInitializing:
		done := c.initDone
		c.mu.Unlock()
		select {
		case <-done:
			return c.Init(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.state = StateInitializing
	done := make(chan struct{})
	c.initDone = done
	c.mu.Unlock()

	result, err := c.bringUp(ctx)

	c.mu.Lock()
	switch {
	case err == nil:
		c.state = StateReady
		c.version = result.Version
	case ctx.Err() != nil && !errors.Is(err, ErrEngineInitTimeout):
		c.state = StateUninitialized
	default:
		c.state = StateFailed
		c.initErr = err
	}
	close(done)
	c.mu.Unlock()

	if err == nil {
		c.logger.Info("engine ready", "version", result.Version)
	} else if c.State() == StateFailed {
		c.logger.Error("engine bring-up failed", "error", err)
	}
	return err
}

// bringUp polls INIT until the engine reports ready. Each attempt
// waits at most one poll interval for its response; a not-ready
// answer waits out the interval before the next attempt.
func (c *Client) bringUp(ctx context.Context) (engine.InitResult, error) {
	var lastErr error
	for attempt := 1; attempt <= c.options.RetryBudget; attempt++ {
		var result engine.InitResult
		err := c.Request(engine.OpInit, nil, c.options.PollInterval).AwaitInto(ctx, &result)
		if ctx.Err() != nil {
			return engine.InitResult{}, ctx.Err()
		}
		if err == nil && result.Ready {
			return result, nil
		}
		if err == nil {
			err = errors.New("engine not ready")
		}
		lastErr = err

		if errors.Is(err, ErrRequestTimeout) || attempt == c.options.RetryBudget {
			continue
		}
		select {
		case <-c.clock.After(c.options.PollInterval):
		case <-ctx.Done():
			return engine.InitResult{}, ctx.Err()
		}
	}
	return engine.InitResult{}, fmt.Errorf("%w after %d attempts: %v", ErrEngineInitTimeout, c.options.RetryBudget, lastErr)
}

// Request sends op with payload and returns its Future without
// blocking. payload is CBOR-encoded; nil sends no payload. A
// non-positive timeout uses Options.RequestTimeout.
func (c *Client) Request(op engine.Op, payload any, timeout time.Duration) *Future {
	var encoded codec.RawMessage
	if payload != nil {
		data, err := codec.Marshal(payload)
		if err != nil {
			return rejected(op, fmt.Errorf("encoding %s payload: %w", op, err))
		}
		encoded = data
	}
	if timeout <= 0 {
		timeout = c.options.RequestTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.unavailableLocked(); err != nil {
		return rejected(op, err)
	}

	id := c.nextID.Add(1)
	future := newFuture(id, op)
	c.pending[id] = future
	future.timer = c.clock.AfterFunc(timeout, func() { c.expire(id, timeout) })

	c.outbound = append(c.outbound, engine.Request{ID: id, Op: op, Payload: encoded})
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return future
}

// unavailableLocked returns the error new requests fail with, or nil.
func (c *Client) unavailableLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.broken != nil:
		return c.broken
	case c.state == StateFailed:
		return fmt.Errorf("%w: %w", ErrEngineUnavailable, c.initErr)
	}
	return nil
}

// expire resolves a still-pending request with ErrRequestTimeout.
func (c *Client) expire(id uint64, timeout time.Duration) {
	c.mu.Lock()
	future, exists := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !exists {
		return
	}
	c.logger.Debug("engine request timed out", "id", id, "op", future.Op, "timeout", timeout)
	future.resolve(engine.Response{}, fmt.Errorf("%w: %s #%d after %v", ErrRequestTimeout, future.Op, id, timeout))
}

// writeLoop owns transport.Send. Requests go out in the order Request
// queued them.
func (c *Client) writeLoop() {
	for {
		select {
		case <-c.stop:
			return
		case <-c.wake:
		}

		c.mu.Lock()
		batch := c.outbound
		c.outbound = nil
		c.mu.Unlock()

		for _, request := range batch {
			if err := c.transport.Send(request); err != nil {
				c.breakConnection(fmt.Errorf("sending %s #%d: %w", request.Op, request.ID, err))
				return
			}
		}
	}
}

// readLoop owns transport.Receive and routes each response to its
// pending Future.
func (c *Client) readLoop() {
	for {
		response, err := c.transport.Receive()
		if err != nil {
			c.breakConnection(fmt.Errorf("receiving: %w", err))
			return
		}

		c.mu.Lock()
		future, exists := c.pending[response.ID]
		delete(c.pending, response.ID)
		if exists {
			future.timer.Stop()
		}
		c.mu.Unlock()

		if !exists {
			c.logger.Debug("dropping engine response with no pending request", "id", response.ID, "ok", response.OK)
			if c.options.OnLateResponse != nil {
				c.options.OnLateResponse(response)
			}
			continue
		}
		future.resolve(response, nil)
	}
}

// breakConnection fails every pending request and all future ones.
// After Close it only cleans up.
func (c *Client) breakConnection(cause error) {
	c.mu.Lock()
	var err error
	if c.closed {
		err = ErrClosed
	} else {
		if c.broken == nil {
			c.broken = fmt.Errorf("%w: %v", ErrEngineUnavailable, cause)
			if netutil.IsExpectedCloseError(cause) {
				c.logger.Info("engine closed the connection")
			} else {
				c.logger.Error("engine connection lost", "error", cause)
			}
		}
		err = c.broken
	}
	pending := c.takePendingLocked()
	c.mu.Unlock()

	for _, future := range pending {
		future.resolve(engine.Response{}, err)
	}
}

func (c *Client) takePendingLocked() []*Future {
	pending := make([]*Future, 0, len(c.pending))
	for id, future := range c.pending {
		future.timer.Stop()
		pending = append(pending, future)
		delete(c.pending, id)
	}
	return pending
}

// Close rejects every pending request with ErrClosed, stops the
// client's goroutines, and closes the transport.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		pending := c.takePendingLocked()
		c.mu.Unlock()

		for _, future := range pending {
			future.resolve(engine.Response{}, ErrClosed)
		}
		close(c.stop)
		err = c.transport.Close()
	})
	return err
}
