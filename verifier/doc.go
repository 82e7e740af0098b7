// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package verifier audits a VTE package and reports a five-item
// checklist: structural, network binding, capsule binding, commitment
// proof, and schnorr binding.
//
// The structural check runs locally with [vte.Parse]; a package that
// fails it never reaches the engine. Everything else is one delegated
// VERIFY_VTE call. Structured engine results flip the categories they
// name; a legacy free-text engine error is classified by keyword, and
// an error that matches no keyword flips nothing. A category the
// engine did not confirm is never reported as success, so
// [Report.Verified] holds only when all five checks passed.
//
// Transport failures (timeouts, an unavailable engine) leave the
// checklist as it was and surface as [Report.Err].
package verifier
