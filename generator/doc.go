// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package generator assembles the parameters for a new VTE package
// and asks the engine to produce it.
//
// A [Flow] is a finite-state machine over four input stages:
//
//	Context → NetworkTime → Secret → Confirm → Generated
//
// Each Submit method validates its stage's input and advances one
// stage; a rejected submission returns the error and leaves the flow
// where it was. [Flow.Back] steps back one stage and never past
// Context. The target round comes either from an unlock time, via the
// beacon network's chain parameters, or from a manual override.
//
// A plaintext secret is reduced to the scalar SHA-256(plaintext). The
// plaintext is never sent to the engine; it survives only as the
// display hint added by [Result.Document].
//
// [LoadPlan] reads the same inputs from a JSONC file and [Plan.Apply]
// drives a flow through every stage.
package generator
