// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vte defines the VTE package: the JSON document that carries
// one timelocked secret together with its network binding, context
// binding, public inputs, and proofs.
//
// Binary fields are standard padded base64 on the wire and []byte in
// Go. The chain hash stored in a package is therefore base64, while
// engine operations take it as hex; use [Package.ChainHashHex] or
// lib/codec when crossing that boundary.
//
// [Parse] performs structural validation only. It must succeed before
// any package is handed to an engine, but a parsed package proves
// nothing cryptographically. Packages are treated as immutable after
// generation: verification and decryption pass the original bytes to
// the engine rather than a re-serialization.
//
// The binding helpers [ContextHash] and [SchnorrMessage] define the
// byte layouts that an engine hashes and signs. They live here so the
// native engine, its tests, and fixture builders agree on one
// definition.
package vte
