// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/vte/bridge"
	"github.com/bureau-foundation/vte/lib/beacon"
	"github.com/bureau-foundation/vte/lib/config"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/nativeengine"
)

// runtimeFlags selects the configuration file and engine for commands
// that talk to an engine or a beacon. It binds its own flags so every
// such command shares the same spelling.
type runtimeFlags struct {
	configPath string
	engineMode string
	socketPath string
}

// AddFlags implements cli.FlagBinder.
func (f *runtimeFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "path to vte.yaml (default: $"+config.EnvironmentVariable+", else built-in defaults)")
	flagSet.StringVar(&f.engineMode, "engine", "", "engine mode: native or socket (overrides config)")
	flagSet.StringVar(&f.socketPath, "socket", "", "engine socket path (overrides config)")
}

// load resolves the configuration: --config, then VTE_CONFIG, then the
// built-in defaults. Flag overrides are applied before validation.
func (f *runtimeFlags) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case f.configPath != "":
		cfg, err = config.LoadFile(f.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if f.engineMode != "" {
		cfg.Engine.Mode = f.engineMode
	}
	if f.socketPath != "" {
		cfg.Engine.SocketPath = f.socketPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openEngine connects a bridge client to the configured engine and
// brings it up. The returned function closes the client and, in native
// mode, stops the in-process host.
func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*bridge.Client, func(), error) {
	timing, err := cfg.Engine.Timing()
	if err != nil {
		return nil, nil, err
	}

	hostCtx, stopHost := context.WithCancel(ctx)
	var transport engine.Transport
	switch cfg.Engine.Mode {
	case config.EngineNative:
		host := engine.NewHost(logger.With("component", "engine"))
		nativeengine.New(nativeengine.Options{Logger: logger}).Register(host)
		transport = host.Pipe(hostCtx)
	case config.EngineSocket:
		transport, err = engine.Dial(ctx, cfg.Engine.SocketPath)
		if err != nil {
			stopHost()
			return nil, nil, fmt.Errorf("%w: %w", bridge.ErrEngineUnavailable, err)
		}
	default:
		stopHost()
		return nil, nil, fmt.Errorf("unknown engine mode %q", cfg.Engine.Mode)
	}

	client := bridge.New(transport, bridge.Options{
		Logger:         logger.With("component", "bridge"),
		PollInterval:   timing.PollInterval,
		RetryBudget:    timing.RetryBudget,
		RequestTimeout: timing.RequestTimeout,
	})
	closeAll := func() {
		client.Close()
		stopHost()
	}
	if err := client.Init(ctx); err != nil {
		closeAll()
		return nil, nil, err
	}
	return client, closeAll, nil
}

// newBeacon returns a beacon client over endpoints, falling back to
// the configured endpoints when none are given.
func newBeacon(cfg *config.Config, endpoints []string, logger *slog.Logger) (*beacon.Client, error) {
	if len(endpoints) == 0 {
		endpoints = cfg.Beacon.Endpoints
	}
	timeout, err := cfg.Beacon.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	return beacon.NewClient(endpoints, beacon.Options{
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger.With("component", "beacon"),
	})
}
