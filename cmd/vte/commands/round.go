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
	"github.com/bureau-foundation/vte/lib/clock"
	"github.com/bureau-foundation/vte/lib/round"
)

type roundParams struct {
	cli.JSONOutput
	Runtime   runtimeFlags
	ChainHash string        `json:"chain_hash" flag:"chain" desc:"beacon chain hash in hex (default: config)"`
	Endpoints []string      `json:"endpoints"  flag:"endpoint" desc:"beacon endpoint, repeatable (default: config)"`
	Unlock    string        `json:"unlock"     flag:"unlock" desc:"unlock time, RFC 3339"`
	In        time.Duration `json:"in"         flag:"in" desc:"unlock after this long from now"`
}

// roundOutput is the result of "vte round".
type roundOutput struct {
	ChainHash    string         `json:"chain_hash"`
	Round        uint64         `json:"round"`
	Advisory     round.Advisory `json:"advisory,omitempty"`
	UnlockTime   time.Time      `json:"unlock_time"`
	RoundTime    time.Time      `json:"round_time"`
	CurrentRound uint64         `json:"current_round"`
}

func roundCommand() *cli.Command {
	var params roundParams

	return &cli.Command{
		Name:    "round",
		Summary: "Compute the beacon round for an unlock time",
		Description: `Fetch the beacon network's schedule and compute the first round
published at or after the unlock time. A package locked to that round
can never open early.

Exactly one of --unlock or --in is required. Unlock times closer than
two beacon periods carry a lead_time_too_short advisory: the round may
be published before the package reaches its recipient.`,
		Usage: "vte round (--unlock <RFC 3339> | --in <duration>) [flags]",
		Examples: []cli.Example{
			{
				Description: "Round one day from now on the default network",
				Command:     "vte round --in 24h",
			},
			{
				Description: "Round for a fixed time, as JSON",
				Command:     "vte round --unlock 2026-12-31T00:00:00Z --json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("round takes no positional arguments, got %q", args[0])
			}
			return runRound(ctx, &params, clock.Real(), os.Stdout, logger)
		},
	}
}

func runRound(ctx context.Context, params *roundParams, clk clock.Clock, w io.Writer, logger *slog.Logger) error {
	now := clk.Now()
	var unlock time.Time
	switch {
	case params.Unlock != "" && params.In != 0:
		return fmt.Errorf("--unlock and --in are exclusive")
	case params.Unlock != "":
		parsed, err := time.Parse(time.RFC3339, params.Unlock)
		if err != nil {
			return fmt.Errorf("--unlock: %w", err)
		}
		unlock = parsed
	case params.In != 0:
		unlock = now.Add(params.In)
	default:
		return fmt.Errorf("one of --unlock or --in is required")
	}

	cfg, err := params.Runtime.load()
	if err != nil {
		return err
	}
	chainHash := params.ChainHash
	if chainHash == "" {
		chainHash = cfg.Beacon.ChainHash
	}
	client, err := newBeacon(cfg, params.Endpoints, logger)
	if err != nil {
		return err
	}

	info, err := client.Info(ctx, chainHash)
	if err != nil {
		return err
	}
	schedule := info.Schedule()
	result, err := round.Calculate(schedule, unlock, now)
	if err != nil {
		return err
	}

	output := roundOutput{
		ChainHash:    chainHash,
		Round:        result.Round,
		Advisory:     result.Advisory,
		UnlockTime:   unlock.UTC().Truncate(time.Second),
		RoundTime:    schedule.RoundTime(result.Round),
		CurrentRound: schedule.CurrentRound(now),
	}
	if params.OutputJSON {
		return cli.WriteJSON(w, output)
	}

	fmt.Fprintf(w, "round:          %d\n", output.Round)
	fmt.Fprintf(w, "published at:   %s\n", output.RoundTime.Format(time.RFC3339))
	fmt.Fprintf(w, "unlock time:    %s\n", output.UnlockTime.Format(time.RFC3339))
	fmt.Fprintf(w, "current round:  %d\n", output.CurrentRound)
	if output.Advisory != round.NoAdvisory {
		fmt.Fprintf(w, "advisory:       %s\n", output.Advisory)
	}
	return nil
}
