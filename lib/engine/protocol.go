// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import "github.com/bureau-foundation/vte/lib/codec"

// Op names an engine operation.
type Op string

const (
	OpInit           Op = "INIT"
	OpGenerate       Op = "GENERATE_VTE"
	OpComputeCtxHash Op = "COMPUTE_CTX_HASH"
	OpDecrypt        Op = "DECRYPT_VTE"
	OpVerify         Op = "VERIFY_VTE"
	OpComputeR2Point Op = "COMPUTE_R2_POINT"
	OpParseCapsule   Op = "PARSE_CAPSULE"
)

// Request is the envelope for one engine call. ID is assigned by the
// client, starts at 1, and is never reused on a connection.
type Request struct {
	ID      uint64           `cbor:"id"`
	Op      Op               `cbor:"op"`
	Payload codec.RawMessage `cbor:"payload,omitempty"`
}

// Response answers the request with the same ID. When OK is false,
// Error holds the engine's message and Data is empty. A response with
// ID zero reports a request the host could not decode.
type Response struct {
	ID    uint64           `cbor:"id"`
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}
