// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package decryptor opens VTE packages whose beacon round has been
// published.
//
// The package is parsed structurally first; a malformed package never
// reaches the engine. With a beacon source configured, the latest
// published round is checked before the engine is asked to decrypt,
// so an early attempt fails with [ErrRoundNotReached] and the time the
// round is due instead of an opaque engine error.
//
// The recovered bytes are shown as text when they are valid UTF-8 and
// as a lowercase hex dump otherwise. Plaintext is returned to the
// caller and never logged or stored.
package decryptor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/bureau-foundation/vte/bridge"
	"github.com/bureau-foundation/vte/lib/beacon"
	"github.com/bureau-foundation/vte/lib/clock"
	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/fault"
	"github.com/bureau-foundation/vte/lib/vte"
)

// ErrRoundNotReached is returned when the package's round has not
// been published yet. Retry after RoundNotReachedError.Expected.
var ErrRoundNotReached = fault.New(fault.Network, "beacon round not reached")

// RoundNotReachedError reports how far the beacon is from the
// package's round.
type RoundNotReachedError struct {
	Round    uint64
	Latest   uint64
	Expected time.Time
}

func (e *RoundNotReachedError) Error() string {
	return fmt.Sprintf("round %d not published (latest %d), expected at %s",
		e.Round, e.Latest, e.Expected.UTC().Format(time.RFC3339))
}

// Unwrap returns ErrRoundNotReached.
func (e *RoundNotReachedError) Unwrap() error { return ErrRoundNotReached }

// Engine is the engine operation decryption needs. *bridge.Client
// implements it.
type Engine interface {
	Decrypt(ctx context.Context, params engine.DecryptParams) (engine.DecryptResult, error)
}

// BeaconSource answers the readiness pre-check. *beacon.Client
// implements it.
type BeaconSource interface {
	Info(ctx context.Context, chainHashHex string) (beacon.ChainInfo, error)
	Latest(ctx context.Context, chainHashHex string) (beacon.Beacon, error)
}

// Options configures a Decryptor.
type Options struct {
	// Beacon enables the readiness pre-check. Nil skips it.
	Beacon BeaconSource

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Plaintext is a decrypted payload.
type Plaintext struct {
	// Bytes is the raw payload.
	Bytes []byte

	// Text is Bytes as a string when it is valid UTF-8, otherwise a
	// lowercase hex dump with no separators.
	Text string

	// UTF8 reports which rendering Text holds.
	UTF8 bool
}

// Decryptor opens packages through one engine.
type Decryptor struct {
	engine Engine
	beacon BeaconSource
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a decryptor.
func New(delegate Engine, options Options) *Decryptor {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Decryptor{
		engine: delegate,
		beacon: options.Beacon,
		clock:  options.Clock,
		logger: options.Logger,
	}
}

// Decrypt opens packageJSON. endpoints defaults to the package's own
// network_id.drand_endpoints.
func (d *Decryptor) Decrypt(ctx context.Context, packageJSON []byte, endpoints []string) (*Plaintext, error) {
	pkg, err := vte.Parse(packageJSON)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		endpoints = pkg.NetworkID.DrandEndpoints
	}
	if len(endpoints) == 0 {
		return nil, beacon.ErrNoEndpoints
	}

	if d.beacon != nil {
		if err := d.checkPublished(ctx, pkg); err != nil {
			return nil, err
		}
	}

	result, err := d.engine.Decrypt(ctx, engine.DecryptParams{Package: packageJSON, Endpoints: endpoints})
	if err != nil {
		return nil, fmt.Errorf("decrypting round %d: %w", pkg.Round, err)
	}
	payload, err := codec.Base64ToBytes(result.PlaintextBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: plaintext_base64: %w", bridge.ErrMalformedResponse, err)
	}

	d.logger.Info("package decrypted", "round", pkg.Round, "bytes", len(payload))
	return Render(payload), nil
}

// checkPublished fails with a *RoundNotReachedError when the beacon's
// latest round is behind the package.
func (d *Decryptor) checkPublished(ctx context.Context, pkg *vte.Package) error {
	chainHash := pkg.ChainHashHex()
	latest, err := d.beacon.Latest(ctx, chainHash)
	if err != nil {
		return fmt.Errorf("checking beacon progress: %w", err)
	}
	if latest.Round >= pkg.Round {
		return nil
	}

	info, err := d.beacon.Info(ctx, chainHash)
	if err != nil {
		return fmt.Errorf("fetching chain info: %w", err)
	}
	notReached := &RoundNotReachedError{
		Round:    pkg.Round,
		Latest:   latest.Round,
		Expected: info.Schedule().RoundTime(pkg.Round),
	}
	d.logger.Info("package round not yet published",
		"round", pkg.Round,
		"latest", latest.Round,
		"wait", notReached.Expected.Sub(d.clock.Now()).Round(time.Second),
	)
	return notReached
}

// Render picks the display form of a payload: strict UTF-8, or a
// lowercase hex dump when any byte sequence is invalid.
func Render(payload []byte) *Plaintext {
	if utf8.Valid(payload) {
		return &Plaintext{Bytes: payload, Text: string(payload), UTF8: true}
	}
	return &Plaintext{Bytes: payload, Text: codec.BytesToHex(payload)}
}
