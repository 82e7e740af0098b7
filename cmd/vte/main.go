// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// vte is the operator CLI for verifiable timelock encryption packages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/vte/cmd/vte/commands"
	"github.com/bureau-foundation/vte/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:])
}
