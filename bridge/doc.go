// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge is the client side of the engine protocol: a single
// owned connection to one cryptographic engine instance, with
// correlated asynchronous requests and clock-driven timeouts.
//
// A Client is constructed explicitly with New and passed to whatever
// needs the engine. It moves through four lifecycle states:
//
//	uninitialized → initializing → ready
//	                             ↘ failed
//
// Init performs bring-up by polling the engine's INIT operation at a
// fixed interval up to a fixed attempt budget. Exhausting the budget
// moves the client to failed permanently; every engine-dependent call
// then returns ErrEngineUnavailable.
//
// Request never blocks the caller. It assigns the next correlation ID
// (monotonic, never reused), queues the envelope for the writer
// goroutine, arms a timeout on the injected clock, and returns a
// Future. Exactly one of three things resolves a Future: the matching
// response, the timeout, or Close. A response that arrives after its
// request timed out finds no pending entry and is dropped.
//
// The typed methods (Verify, Generate, Decrypt, ComputeCtxHash,
// ComputeR2Point, ParseCapsule) initialize the client on first use,
// issue one request, and decode its result. Failures reported by the
// engine surface as *EngineError; everything else in this package is a
// transport failure.
package bridge
