// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/vte/lib/config"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/nativeengine"
	"github.com/bureau-foundation/vte/lib/process"
	"github.com/bureau-foundation/vte/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var socketPath string
	var legacyErrors bool
	var showVersion bool

	flags := pflag.NewFlagSet("vte-engine", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to vte.yaml (default: $"+config.EnvironmentVariable+", else built-in defaults)")
	flags.StringVar(&socketPath, "socket", "", "Unix socket to listen on (default: engine.socket_path)")
	flags.BoolVar(&legacyErrors, "legacy-errors", false, "report verification failures as plain error messages")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("vte-engine %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if socketPath == "" {
		socketPath = cfg.Engine.SocketPath
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting vte-engine",
		"version", version.Info(),
		"socket_path", socketPath,
		"legacy_errors", legacyErrors,
	)
	if err := serve(ctx, socketPath, legacyErrors, logger); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// loadConfig reads the config file named by path or VTE_CONFIG, or
// returns the defaults when neither is given.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// serve runs the native engine on socketPath until ctx is cancelled.
func serve(ctx context.Context, socketPath string, legacyErrors bool, logger *slog.Logger) error {
	host := engine.NewHost(logger)
	nativeengine.New(nativeengine.Options{
		LegacyErrors: legacyErrors,
		Logger:       logger,
	}).Register(host)
	return host.Serve(ctx, socketPath)
}
