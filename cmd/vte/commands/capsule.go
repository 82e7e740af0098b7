// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/vte/cmd/vte/cli"
	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/vte"
)

func capsuleCommand() *cli.Command {
	return &cli.Command{
		Name:    "capsule",
		Summary: "Inspect timelock ciphertext capsules",
		Subcommands: []*cli.Command{
			capsuleParseCommand(),
		},
	}
}

type capsuleParseParams struct {
	cli.JSONOutput
	Runtime     runtimeFlags
	FormatID    string `json:"format_id"    flag:"format" desc:"ciphertext format (default: config)"`
	FromPackage bool   `json:"from_package" flag:"from-package" desc:"input is a package JSON; parse its capsule"`
}

// capsuleOutput is the hex rendering of engine.CapsuleFields.
type capsuleOutput struct {
	Round           uint64 `json:"round"`
	ChainHash       string `json:"chain_hash"`
	EphemeralKey    string `json:"ephemeral_key"`
	Mask            string `json:"mask"`
	Tag             string `json:"tag"`
	CiphertextBytes int    `json:"ciphertext_bytes"`
}

func capsuleParseCommand() *cli.Command {
	var params capsuleParseParams

	return &cli.Command{
		Name:    "parse",
		Summary: "Split a capsule into its bindable fields",
		Description: `Parse a capsule with the engine and print the round and chain hash it
is encrypted to, the ephemeral key U, the mask V, the tag W, and the
payload size.

The input is the armored capsule itself, or with --from-package a
package JSON whose capsule.data is parsed.`,
		Usage: "vte capsule parse [flags] [file | -]",
		Examples: []cli.Example{
			{
				Description: "Check which round a package's capsule really targets",
				Command:     "vte capsule parse --from-package package.json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			data, err := readInput(args, os.Stdin)
			if err != nil {
				return err
			}
			return runCapsuleParse(ctx, &params, data, os.Stdout, logger)
		},
	}
}

func runCapsuleParse(ctx context.Context, params *capsuleParseParams, data []byte, w io.Writer, logger *slog.Logger) error {
	capsule := data
	if params.FromPackage {
		pkg, err := vte.Parse(data)
		if err != nil {
			return err
		}
		capsule = pkg.Capsule.Data
	}

	cfg, err := params.Runtime.load()
	if err != nil {
		return err
	}
	formatID := params.FormatID
	if formatID == "" {
		formatID = cfg.Beacon.FormatID
	}

	client, closeEngine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	fields, err := client.ParseCapsule(ctx, capsule, formatID)
	if err != nil {
		return err
	}

	output := renderCapsule(fields)
	if params.OutputJSON {
		return cli.WriteJSON(w, output)
	}
	fmt.Fprintf(w, "round:          %d\n", output.Round)
	fmt.Fprintf(w, "chain hash:     %s\n", output.ChainHash)
	fmt.Fprintf(w, "ephemeral key:  %s\n", output.EphemeralKey)
	fmt.Fprintf(w, "mask:           %s\n", output.Mask)
	fmt.Fprintf(w, "tag:            %s\n", output.Tag)
	fmt.Fprintf(w, "ciphertext:     %d bytes\n", output.CiphertextBytes)
	return nil
}

func renderCapsule(fields engine.CapsuleFields) capsuleOutput {
	return capsuleOutput{
		Round:           fields.Round,
		ChainHash:       fields.ChainHash,
		EphemeralKey:    codec.BytesToHex(fields.EphemeralKey),
		Mask:            codec.BytesToHex(fields.Mask),
		Tag:             codec.BytesToHex(fields.Tag),
		CiphertextBytes: len(fields.Ciphertext),
	}
}
