// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the vte tools.
//
// Configuration is loaded from a single file specified by either the
// VTE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. Commands run without a config file use
// [Default].
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults to a socket
// engine with the beacon pre-check enabled.
//
// Variable expansion is performed on the engine socket path after
// loading: ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Durations are strings ("100ms", "2m") parsed by [EngineConfig.Timing]
// and [BeaconConfig.HTTPTimeout].
//
// This package depends on no other vte packages.
package config
