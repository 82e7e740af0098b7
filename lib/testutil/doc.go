// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] are the only
// place tests wait on the wall clock. Everything else that involves
// time (request deadlines, readiness polling) runs on a fake clock;
// these helpers exist so a broken test fails instead of hanging.
//
// [SocketDir] creates a short directory under /tmp for Unix sockets,
// whose paths are limited to 108 bytes.
//
// Helpers call t.Fatalf on failure; setup failures are not
// recoverable.
package testutil
