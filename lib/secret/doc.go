// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds VTE secret scalars outside the Go heap.
//
// A [Buffer] is an anonymous mmap region locked into RAM and excluded
// from core dumps. Close zeroes it before unmapping, so a scalar that
// has been used to build a package does not linger in a garbage
// collected copy or a swap file.
//
// [ReadHex] turns hex text from a pipe or file into a Buffer without
// leaving the decoded bytes on the heap. The hex form handed to an
// engine ([Buffer.Hex]) is necessarily a heap string; it is produced
// only at that boundary.
//
// Depends on golang.org/x/sys/unix.
package secret
