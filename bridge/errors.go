// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"

	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/fault"
)

var (
	// ErrEngineInitTimeout is returned by Init when the engine did not
	// report ready within the attempt budget.
	ErrEngineInitTimeout = fault.New(fault.Fatal, "engine initialization timed out")

	// ErrEngineUnavailable is returned for requests on a client whose
	// bring-up failed or whose connection broke.
	ErrEngineUnavailable = fault.New(fault.Transport, "engine unavailable")

	// ErrRequestTimeout resolves a Future whose timeout elapsed before
	// a response arrived.
	ErrRequestTimeout = fault.New(fault.Transport, "engine request timed out")

	// ErrMalformedResponse is returned when a response's data cannot
	// be decoded as the operation's result type.
	ErrMalformedResponse = fault.New(fault.Transport, "malformed engine response")

	// ErrClosed resolves every Future still pending when the client is
	// closed, and every request made afterwards.
	ErrClosed = fault.New(fault.Transport, "bridge client closed")

	errEngineReported = fault.New(fault.Semantic, "engine reported failure")
)

// EngineError is a failure the engine reported for one operation.
// Message is the engine's text, unmodified.
type EngineError struct {
	Op      engine.Op
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %s", e.Op, e.Message)
}

// Unwrap categorizes engine-reported failures as semantic.
func (e *EngineError) Unwrap() error { return errEngineReported }
