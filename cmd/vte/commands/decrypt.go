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
	"github.com/bureau-foundation/vte/decryptor"
	"github.com/bureau-foundation/vte/lib/vte"
)

type decryptParams struct {
	cli.JSONOutput
	Runtime    runtimeFlags
	Endpoints  []string `json:"endpoints"    flag:"endpoint" desc:"beacon endpoint, repeatable (default: the package's own)"`
	NoPreCheck bool     `json:"no_pre_check" flag:"no-pre-check" desc:"skip confirming the round is published before decrypting"`
	Raw        bool     `json:"raw"          flag:"raw" desc:"write the plaintext bytes unmodified"`
}

// decryptOutput is the --json form of a decrypted payload.
type decryptOutput struct {
	Round uint64 `json:"round"`
	UTF8  bool   `json:"utf8"`
	Text  string `json:"text"`
}

func decryptCommand() *cli.Command {
	var params decryptParams

	return &cli.Command{
		Name:    "decrypt",
		Summary: "Open a package whose round has been published",
		Description: `Recover the plaintext of a VTE package once its beacon round is
published.

Endpoints default to the package's network_id.drand_endpoints. Unless
disabled by config or --no-pre-check, the beacon is asked for its latest
round first, and a package that is still locked reports when its round
is expected instead of calling the engine.

Valid UTF-8 is printed as text; anything else as lowercase hex.

Decryption requires an engine that implements DECRYPT_VTE; the built-in
native engine does not, so use --engine socket.`,
		Usage: "vte decrypt [flags] [package.json | -]",
		Examples: []cli.Example{
			{
				Description: "Decrypt a package through the engine daemon",
				Command:     "vte decrypt --engine socket package.json",
			},
			{
				Description: "Save a binary payload",
				Command:     "vte decrypt --engine socket --raw package.json > secret.bin",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			packageJSON, err := readInput(args, os.Stdin)
			if err != nil {
				return err
			}
			return runDecrypt(ctx, &params, packageJSON, os.Stdout, logger)
		},
	}
}

func runDecrypt(ctx context.Context, params *decryptParams, packageJSON []byte, w io.Writer, logger *slog.Logger) error {
	pkg, err := vte.Parse(packageJSON)
	if err != nil {
		return err
	}

	cfg, err := params.Runtime.load()
	if err != nil {
		return err
	}

	options := decryptor.Options{Logger: logger}
	if cfg.Beacon.PreCheck && !params.NoPreCheck {
		endpoints := params.Endpoints
		if len(endpoints) == 0 {
			endpoints = pkg.NetworkID.DrandEndpoints
		}
		beaconClient, err := newBeacon(cfg, endpoints, logger)
		if err != nil {
			return err
		}
		options.Beacon = beaconClient
	}

	client, closeEngine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	plaintext, err := decryptor.New(client, options).Decrypt(ctx, packageJSON, params.Endpoints)
	if err != nil {
		return err
	}

	switch {
	case params.Raw:
		_, err = w.Write(plaintext.Bytes)
		return err
	case params.OutputJSON:
		return cli.WriteJSON(w, decryptOutput{Round: pkg.Round, UTF8: plaintext.UTF8, Text: plaintext.Text})
	default:
		_, err = fmt.Fprintln(w, plaintext.Text)
		return err
	}
}
