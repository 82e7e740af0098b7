// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the vte CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/vte/cmd/vte/cli"
	"github.com/bureau-foundation/vte/lib/version"
)

// Root builds and returns the complete vte CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "vte",
		Description: `vte: verifiable timelock encryption.

Lock a secret to a future drand beacon round, prove what it is bound
to, and let anyone audit or open the package once the round is
published.`,
		Subcommands: []*cli.Command{
			roundCommand(),
			generateCommand(),
			verifyCommand(),
			decryptCommand(),
			capsuleCommand(),
			engineCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Printf("vte %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Which round unlocks in one day",
				Command:     "vte round --in 24h",
			},
			{
				Description: "Audit a package before accepting a swap",
				Command:     "vte verify --round 1000 --session demo-session-123 --refund-tx 0101... package.json",
			},
			{
				Description: "Check the engine connection",
				Command:     "vte engine status",
			},
		},
	}
}
