// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/bureau-foundation/vte/lib/clock"
	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
)

// Future is the pending result of one Request. It resolves exactly
// once.
type Future struct {
	// ID is the correlation ID assigned to the request, or zero if the
	// request was rejected before an ID was assigned.
	ID uint64
	Op engine.Op

	once     sync.Once
	done     chan struct{}
	response engine.Response
	err      error

	// timer is guarded by the owning Client's mutex.
	timer *clock.Timer
}

func newFuture(id uint64, op engine.Op) *Future {
	return &Future{ID: id, Op: op, done: make(chan struct{})}
}

// rejected returns a Future already resolved with err.
func rejected(op engine.Op, err error) *Future {
	future := newFuture(0, op)
	future.resolve(engine.Response{}, err)
	return future
}

// resolve settles the future. Later calls are ignored.
func (f *Future) resolve(response engine.Response, err error) {
	f.once.Do(func() {
		f.response = response
		f.err = err
		close(f.done)
	})
}

// Done is closed when the future resolves.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the future resolves or ctx is done. Cancelling
// ctx abandons the wait but not the request; it stays pending until
// its response or timeout.
func (f *Future) Await(ctx context.Context) (engine.Response, error) {
	select {
	case <-f.done:
		return f.response, f.err
	case <-ctx.Done():
		return engine.Response{}, ctx.Err()
	}
}

// AwaitInto waits for the response and decodes its data into out. A
// failure response becomes an *EngineError. out may be nil when the
// result is not needed.
func (f *Future) AwaitInto(ctx context.Context, out any) error {
	response, err := f.Await(ctx)
	if err != nil {
		return err
	}
	if !response.OK {
		return &EngineError{Op: f.Op, Message: response.Error}
	}
	if out == nil {
		return nil
	}
	if len(response.Data) == 0 {
		return fmt.Errorf("%w: %s returned no data", ErrMalformedResponse, f.Op)
	}
	if err := codec.Unmarshal(response.Data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, f.Op, err)
	}
	return nil
}
