// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the vte
// binaries: fatal error reporting to stderr before the structured
// logger exists, and the exit code mapping for errors returned from
// run().
package process
