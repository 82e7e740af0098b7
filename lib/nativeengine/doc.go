// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nativeengine implements the engine operations that need no
// pairing-based cryptography: readiness, context hashing, R2 point
// derivation, tlock capsule parsing, and package verification.
//
// Register installs the handlers on an [engine.Host]. GENERATE_VTE and
// DECRYPT_VTE require identity-based encryption over BLS12-381 and are
// answered with an unsupported-operation error so a bridge client gets
// a clear engine-reported failure instead of an unknown op.
//
// Verification reports every failed check with its category. The
// commitment proof is delegated to a [CommitmentVerifier]; without one
// the commitment category always fails.
package nativeengine
