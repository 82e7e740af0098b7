// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine defines the wire protocol between the bridge client
// and a cryptographic engine, and provides Host, the serving side.
//
// The protocol is a stream of self-delimiting CBOR values on one
// connection. The client writes [Request] envelopes; the engine writes
// one [Response] per request carrying the same ID. Payloads are
// operation-specific CBOR values decoded once the operation is known.
//
// An engine instance is not safe for concurrent execution. [Host]
// funnels every request, from every connection, through a single
// worker goroutine in arrival order, so responses are produced in
// submission order. A client that has stopped waiting for an ID simply
// never sees its response matched; the host does not track
// cancellation.
//
// Two connection types are supported: an in-process pipe (see
// [Host.Pipe]) for embedding an engine in the same binary, and a Unix
// stream socket (see [Host.Serve] and [Dial]) for a separate engine
// process.
package engine
