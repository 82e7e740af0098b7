// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the byte-level encodings shared by every VTE
// component.
//
// Two serialization formats meet at a clear boundary:
//
//   - JSON for VTE packages and CLI output. Binary values inside a
//     package are standard padded base64.
//   - CBOR for the engine wire: request and response envelopes
//     exchanged between the bridge client and an engine host.
//
// Engine operations take hexadecimal parameters (chain hashes,
// scalars, refund transactions) while packages store the same bytes
// as base64. The helpers in encoding.go make every such crossing
// explicit at the call site:
//
//	expected, err := codec.Base64ToHex(params.Expect)
//
// The CBOR encoder uses Core Deterministic Encoding (RFC 8949 §4.2),
// so the same logical request always produces identical bytes:
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Wire-only envelope types carry `cbor` struct tags. Payload types that
// also appear in CLI --json output carry `json` tags only, which
// fxamacker/cbor reads as a fallback. Never put both on one field.
package codec
