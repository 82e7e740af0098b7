// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// vte-engine serves the native engine on a Unix socket so that several
// vte processes, or a supervisor, share one engine instance.
//
// Requests from every connection execute one at a time in arrival
// order. The socket path comes from --socket, else engine.socket_path
// in the config. The process exits cleanly on SIGINT or SIGTERM and
// removes its socket.
//
// --legacy-errors makes VERIFY_VTE answer the first failure as a plain
// error message instead of a structured result, for exercising clients
// against engines that predate categorized failures.
package main
