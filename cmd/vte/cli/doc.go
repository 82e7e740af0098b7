// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the vte CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a parameter struct bound to a
// [pflag.FlagSet], and a Run function. Commands are assembled into a tree
// in cmd/vte/commands and dispatched via [Command.Execute], which handles
// flag parsing, subcommand routing, and structured help output with
// examples.
//
// Parameter structs declare their flags with struct tags (see
// [BindFlags]). Embedding [JSONOutput] adds a --json flag and the
// [JSONOutput.EmitJSON] helper.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Commands whose non-zero exit is an expected outcome, such as a package
// that fails verification, print their own report and return an
// [ExitError].
package cli
