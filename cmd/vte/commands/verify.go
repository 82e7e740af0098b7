// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/vte/cmd/vte/cli"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/vte"
	"github.com/bureau-foundation/vte/verifier"
)

type verifyParams struct {
	cli.JSONOutput
	Runtime   runtimeFlags
	Round     roundFlag `json:"round"         flag:"round" desc:"round the package must unlock at (required)"`
	ChainHash string    `json:"chain_hash"    flag:"chain" desc:"chain hash the package must be bound to (default: config)"`
	FormatID  string    `json:"format_id"     flag:"format" desc:"ciphertext format the package must use (default: tlock_v1_age_pairing)"`
	SessionID string    `json:"session_id"    flag:"session" desc:"session id the context must bind (required)"`
	RefundTx  string    `json:"refund_tx_hex" flag:"refund-tx" desc:"refund transaction hex the context must bind (required)"`
}

// verifyOutput is the --json form of an audit.
type verifyOutput struct {
	Verified  bool               `json:"verified"`
	Round     uint64             `json:"round,omitempty"`
	Checklist verifier.Checklist `json:"checklist"`
	Failures  []engine.Failure   `json:"failures,omitempty"`
	ElapsedMS int64              `json:"elapsed_ms"`
	Error     string             `json:"error,omitempty"`
}

func verifyCommand() *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Audit a package against expected bindings",
		Description: `Check that a VTE package is well formed and bound to the expected
network, round, session, and refund transaction.

The checklist has five items: structural, network binding, capsule
binding, commitment proof, and schnorr binding. A package is verified
only when every item succeeds. The round, session, and refund
transaction are required; the chain hash defaults to the config.

Exits 1 when the package fails a check, after printing the checklist.`,
		Usage: "vte verify --round <n> --session <id> --refund-tx <hex> [flags] [package.json | -]",
		Examples: []cli.Example{
			{
				Description: "Verify a package received from a counterparty",
				Command:     "vte verify --round 1000 --session demo-session-123 --refund-tx 0101... package.json",
			},
			{
				Description: "Verify through a separately running engine",
				Command:     "vte verify --engine socket --socket /run/vte/engine.sock --round 1000 --session demo-session-123 --refund-tx 0101... package.json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			packageJSON, err := readInput(args, os.Stdin)
			if err != nil {
				return err
			}
			return runVerify(ctx, &params, packageJSON, os.Stdout, logger)
		},
	}
}

func runVerify(ctx context.Context, params *verifyParams, packageJSON []byte, w io.Writer, logger *slog.Logger) error {
	if !params.Round.set {
		return fmt.Errorf("--round is required")
	}
	cfg, err := params.Runtime.load()
	if err != nil {
		return err
	}
	chainHash := params.ChainHash
	if chainHash == "" {
		chainHash = cfg.Beacon.ChainHash
	}
	client, closeEngine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	report := verifier.New(client, verifier.Options{Logger: logger}).Audit(ctx, packageJSON, verifier.Expectations{
		Round:        params.Round.pointer(),
		ChainHashHex: chainHash,
		FormatID:     params.FormatID,
		SessionID:    params.SessionID,
		RefundTxHex:  params.RefundTx,
	})

	// Anything other than a verdict on the package is a plain error.
	if report.Err != nil && !errors.Is(report.Err, verifier.ErrVerificationFailed) && !errors.Is(report.Err, vte.ErrMalformedPackage) {
		return report.Err
	}

	if params.OutputJSON {
		output := verifyOutput{
			Verified:  report.Verified(),
			Checklist: report.Checklist,
			Failures:  report.Failures,
			ElapsedMS: report.Elapsed.Milliseconds(),
		}
		if report.Package != nil {
			output.Round = report.Package.Round
		}
		if report.Err != nil {
			output.Error = report.Err.Error()
		}
		if err := cli.WriteJSON(w, output); err != nil {
			return err
		}
	} else {
		writeChecklist(w, report)
	}

	if !report.Verified() {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

var statusMarks = map[verifier.Status]string{
	verifier.StatusSuccess: "ok",
	verifier.StatusError:   "FAIL",
	verifier.StatusPending: "--",
}

func writeChecklist(w io.Writer, report *verifier.Report) {
	for _, item := range report.Checklist {
		fmt.Fprintf(w, "[%4s] %s", statusMarks[item.Status], item.Check)
		if item.Detail != "" {
			fmt.Fprintf(w, ": %s", item.Detail)
		}
		fmt.Fprintln(w)
	}
	if report.Verified() {
		fmt.Fprintf(w, "\nverified round %d in %s\n", report.Package.Round, report.Elapsed.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "\nnot verified")
	if report.Err != nil {
		fmt.Fprintf(w, ": %v", report.Err)
	}
	fmt.Fprintln(w)
}
