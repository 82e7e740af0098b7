// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bureau-foundation/vte/cmd/vte/cli"
	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/config"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/secret"
	"github.com/bureau-foundation/vte/lib/vte"
)

func engineCommand() *cli.Command {
	return &cli.Command{
		Name:    "engine",
		Summary: "Query and debug the cryptographic engine",
		Description: `Commands for checking the engine connection and calling its helper
operations directly.`,
		Subcommands: []*cli.Command{
			engineStatusCommand(),
			engineCtxHashCommand(),
			engineR2PointCommand(),
			engineDiagCommand(),
		},
	}
}

type engineStatusParams struct {
	cli.JSONOutput
	Runtime runtimeFlags
}

// engineStatus is the result of "vte engine status".
type engineStatus struct {
	Mode       string `json:"mode"`
	SocketPath string `json:"socket_path,omitempty"`
	State      string `json:"state"`
	Version    string `json:"version,omitempty"`
}

func engineStatusCommand() *cli.Command {
	var params engineStatusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Bring the engine up and report its version",
		Description: `Connect to the configured engine, poll it until ready (bounded by
engine.retry_budget), and report its version.`,
		Usage:  "vte engine status [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("status takes no positional arguments, got %q", args[0])
			}
			return runEngineStatus(ctx, &params, os.Stdout, logger)
		},
	}
}

func runEngineStatus(ctx context.Context, params *engineStatusParams, w io.Writer, logger *slog.Logger) error {
	cfg, err := params.Runtime.load()
	if err != nil {
		return err
	}
	client, closeEngine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	status := engineStatus{
		Mode:    cfg.Engine.Mode,
		State:   client.State().String(),
		Version: client.EngineVersion(),
	}
	if cfg.Engine.Mode == config.EngineSocket {
		status.SocketPath = cfg.Engine.SocketPath
	}
	if done, err := params.EmitJSON(status); done {
		return err
	}
	fmt.Fprintf(w, "mode:     %s\n", status.Mode)
	if status.SocketPath != "" {
		fmt.Fprintf(w, "socket:   %s\n", status.SocketPath)
	}
	fmt.Fprintf(w, "state:    %s\n", status.State)
	fmt.Fprintf(w, "version:  %s\n", status.Version)
	return nil
}

type ctxHashParams struct {
	Runtime     runtimeFlags
	SessionID   string `json:"session_id"    flag:"session" desc:"session id"`
	RefundTx    string `json:"refund_tx_hex" flag:"refund-tx" desc:"refund transaction hex"`
	ChainHash   string `json:"chain_hash"    flag:"chain" desc:"beacon chain hash in hex"`
	Round       uint64 `json:"round"         flag:"round" desc:"beacon round"`
	CapsuleHash string `json:"capsule_hash"  flag:"capsule-hash" desc:"SHA-256 of the capsule, hex"`
	Package     string `json:"package"       flag:"package" desc:"take every input from this package and compare with its ctx_hash"`
	Expect      string `json:"expect"        flag:"expect" desc:"ctx_hash to compare with, base64 as written in a package"`
}

func engineCtxHashCommand() *cli.Command {
	var params ctxHashParams

	return &cli.Command{
		Name:    "ctx-hash",
		Summary: "Compute a context hash",
		Description: `Ask the engine for the ctx_v2 context hash of a session binding.

With --package, the inputs are read from the package and the result is
compared with the package's own ctx_hash. --expect compares with a
ctx_hash copied from a package instead. Exits 1 on a mismatch.

The hash is printed in hex, then in the base64 form package fields use.`,
		Usage: "vte engine ctx-hash (--package <file> | --session ... --refund-tx ... --chain ... --round ... --capsule-hash ...)",
		Examples: []cli.Example{
			{
				Description: "Recompute a package's context hash",
				Command:     "vte engine ctx-hash --package package.json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("ctx-hash takes no positional arguments, got %q", args[0])
			}
			return runCtxHash(ctx, &params, os.Stdout, logger)
		},
	}
}

func runCtxHash(ctx context.Context, params *ctxHashParams, w io.Writer, logger *slog.Logger) error {
	request := engine.CtxHashParams{
		SessionID:   params.SessionID,
		RefundTxHex: params.RefundTx,
		ChainHash:   params.ChainHash,
		Round:       params.Round,
		CapsuleHash: params.CapsuleHash,
	}
	var expected string
	if params.Expect != "" {
		converted, err := codec.Base64ToHex(params.Expect)
		if err != nil {
			return fmt.Errorf("--expect: %w", err)
		}
		expected = converted
	}
	if params.Package != "" {
		data, err := os.ReadFile(params.Package)
		if err != nil {
			return err
		}
		pkg, err := vte.Parse(data)
		if err != nil {
			return err
		}
		capsuleHash := pkg.CapsuleHash()
		request = engine.CtxHashParams{
			SessionID:   pkg.Context.SessionID,
			RefundTxHex: pkg.Context.RefundTxHex,
			ChainHash:   pkg.ChainHashHex(),
			Round:       pkg.Round,
			CapsuleHash: codec.BytesToHex(capsuleHash[:]),
		}
		if expected == "" {
			expected = codec.BytesToHex(pkg.Context.CtxHash)
		}
	}

	cfg, err := params.Runtime.load()
	if err != nil {
		return err
	}
	client, closeEngine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	ctxHash, err := client.ComputeCtxHash(ctx, request)
	if err != nil {
		return err
	}
	packageForm, err := codec.HexToBase64(ctxHash)
	if err != nil {
		return fmt.Errorf("engine returned a malformed ctx hash: %w", err)
	}
	fmt.Fprintln(w, ctxHash)
	fmt.Fprintf(w, "base64: %s\n", packageForm)

	if expected != "" {
		if ctxHash != expected {
			fmt.Fprintf(w, "mismatch: package carries %s\n", expected)
			return &cli.ExitError{Code: 1}
		}
		fmt.Fprintln(w, "matches package ctx_hash")
	}
	return nil
}

type r2PointParams struct {
	cli.JSONOutput
	Runtime runtimeFlags
}

func engineR2PointCommand() *cli.Command {
	var params r2PointParams

	return &cli.Command{
		Name:    "r2-point",
		Summary: "Derive the public point for a secret scalar",
		Description: `Read a 32-byte secret scalar as hex on stdin and print its public
point R2 = r2*G on secp256k1, SEC1 compressed.

The scalar is read from stdin so it never appears in the process
argument list.`,
		Usage: "vte engine r2-point [flags] < scalar.hex",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("r2-point reads the scalar from stdin, got argument %q", args[0])
			}
			return runR2Point(ctx, &params, os.Stdin, os.Stdout, logger)
		},
	}
}

func runR2Point(ctx context.Context, params *r2PointParams, r io.Reader, w io.Writer, logger *slog.Logger) error {
	scalar, err := secret.ReadHex(r, vte.ScalarSize)
	if err != nil {
		return fmt.Errorf("%w: expected a %d-byte hex scalar on stdin", err, vte.ScalarSize)
	}
	defer scalar.Close()

	cfg, err := params.Runtime.load()
	if err != nil {
		return err
	}
	client, closeEngine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	result, err := client.ComputeR2Point(ctx, scalar.Hex())
	if err != nil {
		return err
	}
	if params.OutputJSON {
		return cli.WriteJSON(w, result)
	}
	fmt.Fprintf(w, "%s %s\n", result.Format, result.R2)
	return nil
}

type diagParams struct {
	HexInput bool `json:"hex_input" flag:"hex,x" desc:"treat input as hex-encoded CBOR"`
}

func engineDiagCommand() *cli.Command {
	var params diagParams

	return &cli.Command{
		Name:    "diag",
		Summary: "Print an engine wire frame in CBOR diagnostic notation",
		Description: `Read one CBOR value, such as a request or response frame captured
from the engine socket, and write RFC 8949 diagnostic notation.

Unlike JSON, diagnostic notation shows byte strings (h'...') apart from
text strings, which is how package and capsule bytes travel on the
wire.`,
		Usage: "vte engine diag [--hex] [file | -]",
		Examples: []cli.Example{
			{
				Description: "Inspect a hex dump of a response frame",
				Command:     "echo 'a4626964...' | vte engine diag --hex",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			data, err := readInput(args, os.Stdin)
			if err != nil {
				return err
			}
			return runDiag(&params, data, os.Stdout)
		},
	}
}

func runDiag(params *diagParams, data []byte, w io.Writer) error {
	if params.HexInput {
		decoded, err := codec.HexToBytes(strings.Join(strings.Fields(string(data)), ""))
		if err != nil {
			return fmt.Errorf("decode hex: %w", err)
		}
		data = decoded
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		return fmt.Errorf("not valid CBOR: %w", err)
	}
	_, err = fmt.Fprintln(w, notation)
	return err
}
