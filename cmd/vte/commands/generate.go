// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/vte/cmd/vte/cli"
	"github.com/bureau-foundation/vte/generator"
	"github.com/bureau-foundation/vte/lib/clock"
)

type generateParams struct {
	Runtime   runtimeFlags
	PlanFile  string        `json:"plan"          flag:"plan" desc:"JSONC generation plan (replaces the input flags below)"`
	Output    string        `json:"output"        flag:"output,o" desc:"write the package here instead of stdout"`
	SessionID string        `json:"session_id"    flag:"session" desc:"session id to bind"`
	RefundTx  string        `json:"refund_tx_hex" flag:"refund-tx" desc:"refund transaction hex to bind"`
	ChainHash string        `json:"chain_hash"    flag:"chain" desc:"beacon chain hash in hex (default: config)"`
	Endpoints []string      `json:"endpoints"     flag:"endpoint" desc:"beacon endpoint, repeatable (default: config)"`
	Strategy  string        `json:"strategy"      flag:"strategy" desc:"proof strategy: auto, gnark, or zkvm" default:"auto"`
	Unlock    string        `json:"unlock"        flag:"unlock" desc:"unlock time, RFC 3339"`
	In        time.Duration `json:"in"            flag:"in" desc:"unlock after this long from now"`
	Round     roundFlag     `json:"round"         flag:"round" desc:"explicit round (overrides --unlock and --in)"`
	Plaintext string        `json:"plaintext"     flag:"plaintext" desc:"message to derive the secret scalar from"`
	ScalarHex string        `json:"scalar_hex"    flag:"scalar" desc:"secret scalar, 32 bytes hex"`
}

func generateCommand() *cli.Command {
	var params generateParams

	return &cli.Command{
		Name:    "generate",
		Summary: "Generate a package locked to a future beacon round",
		Description: `Lock a secret scalar to a future beacon round and produce a VTE package
with its binding proofs.

Inputs come either from a JSONC plan file (--plan) or from flags. The
chain hash and endpoints default to the config. The secret is either a
32-byte scalar or a plaintext message whose SHA-256 becomes the scalar;
a plaintext is kept in the output as plaintext_hint.

Generation requires an engine that implements GENERATE_VTE; the
built-in native engine does not, so use --engine socket.`,
		Usage: "vte generate (--plan <file> | --session ... --refund-tx ... ) [flags]",
		Examples: []cli.Example{
			{
				Description: "Generate from a plan file",
				Command:     "vte generate --engine socket --plan swap.jsonc -o package.json",
			},
			{
				Description: "Lock a message for one hour",
				Command:     "vte generate --engine socket --session demo-session-123 --refund-tx 0101... --in 1h --plaintext 'meet at dawn'",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("generate takes no positional arguments, got %q", args[0])
			}

			output := io.Writer(os.Stdout)
			if params.Output != "" {
				file, err := os.OpenFile(params.Output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
				if err != nil {
					return err
				}
				defer file.Close()
				output = file
			}
			return runGenerate(ctx, &params, clock.Real(), output, logger)
		},
	}
}

// plan returns the plan file's contents, or a plan assembled from the
// input flags.
func (p *generateParams) plan() (*generator.Plan, error) {
	if p.PlanFile != "" {
		return generator.LoadPlan(p.PlanFile)
	}
	plan := &generator.Plan{
		SessionID:   p.SessionID,
		RefundTxHex: p.RefundTx,
		ChainHash:   p.ChainHash,
		Endpoints:   p.Endpoints,
		Strategy:    p.Strategy,
		UnlockTime:  p.Unlock,
		Round:       p.Round.pointer(),
		ScalarHex:   p.ScalarHex,
		Plaintext:   p.Plaintext,
	}
	if p.In != 0 {
		plan.UnlockIn = p.In.String()
	}
	return plan, nil
}

func runGenerate(ctx context.Context, params *generateParams, clk clock.Clock, w io.Writer, logger *slog.Logger) error {
	plan, err := params.plan()
	if err != nil {
		return err
	}

	cfg, err := params.Runtime.load()
	if err != nil {
		return err
	}
	if plan.ChainHash == "" {
		plan.ChainHash = cfg.Beacon.ChainHash
	}
	if len(plan.Endpoints) == 0 {
		plan.Endpoints = cfg.Beacon.Endpoints
	}
	chainInfo, err := newBeacon(cfg, plan.Endpoints, logger)
	if err != nil {
		return err
	}

	client, closeEngine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	flow := generator.NewFlow(client, generator.Options{
		ChainInfo: chainInfo,
		FormatID:  cfg.Beacon.FormatID,
		Clock:     clk,
		Logger:    logger,
	})
	defer flow.Close()
	result, err := plan.Apply(ctx, flow)
	if err != nil {
		return fmt.Errorf("%s stage: %w", flow.Stage(), err)
	}

	document, err := result.Document()
	if err != nil {
		return err
	}
	if _, err := w.Write(append(document, '\n')); err != nil {
		return err
	}
	logger.Info("package written",
		"round", result.Package.Round,
		"advisory", result.Target.Advisory,
		"bytes", len(document),
	)
	return nil
}
