// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package generator

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bureau-foundation/vte/lib/beacon"
	"github.com/bureau-foundation/vte/lib/clock"
	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/fault"
	"github.com/bureau-foundation/vte/lib/round"
	"github.com/bureau-foundation/vte/lib/secret"
	"github.com/bureau-foundation/vte/lib/vte"
)

var (
	// ErrWrongStage is returned by a Submit or Generate call made in
	// any stage other than its own.
	ErrWrongStage = fault.New(fault.Validation, "wrong generation stage")

	// ErrInvalidInput is returned when a stage's input fails its guard.
	ErrInvalidInput = fault.New(fault.Validation, "invalid generation input")

	// ErrNoRound is returned by SubmitNetwork when neither an unlock
	// time nor a manual round was given.
	ErrNoRound = fault.New(fault.Validation, "no target round: give an unlock time or a round")
)

// Stage is a position in the generation flow.
type Stage int

const (
	StageContext Stage = iota
	StageNetworkTime
	StageSecret
	StageConfirm
	StageGenerated
)

func (s Stage) String() string {
	switch s {
	case StageContext:
		return "context"
	case StageNetworkTime:
		return "network_time"
	case StageSecret:
		return "secret"
	case StageConfirm:
		return "confirm"
	case StageGenerated:
		return "generated"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Engine is the engine operation generation needs. *bridge.Client
// implements it.
type Engine interface {
	Generate(ctx context.Context, params engine.GenerateParams) ([]byte, error)
}

// ChainInfoFetcher supplies a beacon network's chain parameters.
// *beacon.Client implements it.
type ChainInfoFetcher interface {
	Info(ctx context.Context, chainHashHex string) (beacon.ChainInfo, error)
}

// ContextInput binds the package to one protocol session.
type ContextInput struct {
	SessionID   string
	RefundTxHex string
}

// NetworkInput selects the beacon network and target round. A set
// ManualRound (round 0 included) takes precedence over UnlockTime.
type NetworkInput struct {
	ChainHashHex string
	Endpoints    []string
	Strategy     string
	UnlockTime   time.Time
	ManualRound  *uint64
}

// SecretInput supplies the secret scalar. Exactly one field must be
// set.
type SecretInput struct {
	ScalarHex string
	Plaintext string
}

// Options configures a Flow.
type Options struct {
	// ChainInfo fetches chain parameters for unlock-time submissions.
	// When nil, a beacon.Client over the submitted endpoints is used.
	ChainInfo ChainInfoFetcher

	// FormatID defaults to vte.FormatTlockV1.
	FormatID string

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Flow is one package generation in progress. It is not safe for
// concurrent use. The submitted scalar is held in locked memory until
// Close.
type Flow struct {
	engine    Engine
	chainInfo ChainInfoFetcher
	formatID  string
	clock     clock.Clock
	logger    *slog.Logger

	stage     Stage
	context   ContextInput
	network   NetworkInput
	chainHash string
	target    round.Result
	scalar    *secret.Buffer
	plaintext string
	result    *Result
}

// NewFlow starts a flow in StageContext.
func NewFlow(delegate Engine, options Options) *Flow {
	if options.FormatID == "" {
		options.FormatID = vte.FormatTlockV1
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Flow{
		engine:    delegate,
		chainInfo: options.ChainInfo,
		formatID:  options.FormatID,
		clock:     options.Clock,
		logger:    options.Logger,
	}
}

// Stage returns the current stage.
func (f *Flow) Stage() Stage { return f.stage }

// Target returns the round chosen at the NetworkTime stage, with its
// advisory. Zero before that stage completes.
func (f *Flow) Target() round.Result { return f.target }

// Back moves one stage backward and reports whether it moved. Input
// already submitted is kept; leaving Generated discards the result.
func (f *Flow) Back() bool {
	if f.stage == StageContext {
		return false
	}
	if f.stage == StageGenerated {
		f.result = nil
	}
	f.stage--
	return true
}

// SubmitContext validates and records the session binding.
func (f *Flow) SubmitContext(input ContextInput) error {
	if err := f.require(StageContext); err != nil {
		return err
	}
	if input.SessionID == "" {
		return fmt.Errorf("%w: session id is empty", ErrInvalidInput)
	}
	refundTx, err := codec.HexToBytes(input.RefundTxHex)
	if err != nil {
		return fmt.Errorf("%w: refund tx: %w", ErrInvalidInput, err)
	}

	input.RefundTxHex = codec.BytesToHex(refundTx)
	f.context = input
	f.stage = StageNetworkTime
	return nil
}

// SubmitNetwork validates the network selection and settles the target
// round. An unlock time is converted with the chain's genesis and
// period, fetched from the beacon network; the lead-time advisory is
// kept on Target.
func (f *Flow) SubmitNetwork(ctx context.Context, input NetworkInput) error {
	if err := f.require(StageNetworkTime); err != nil {
		return err
	}
	chainHash, err := codec.HexToBytes(input.ChainHashHex)
	if err != nil {
		return fmt.Errorf("%w: chain hash: %w", ErrInvalidInput, err)
	}
	if len(chainHash) != vte.ChainHashSize {
		return fmt.Errorf("%w: chain hash is %d bytes, want %d", ErrInvalidInput, len(chainHash), vte.ChainHashSize)
	}
	if len(input.Endpoints) == 0 {
		return fmt.Errorf("%w: at least one beacon endpoint is required", ErrInvalidInput)
	}
	if input.Strategy == "" {
		input.Strategy = engine.StrategyAuto
	}
	if !slices.Contains([]string{engine.StrategyAuto, engine.StrategyGnark, engine.StrategyZKVM}, input.Strategy) {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, input.Strategy)
	}

	var target round.Result
	switch {
	case input.ManualRound != nil:
		target = round.Result{Round: *input.ManualRound}
		input.UnlockTime = time.Time{}
	case !input.UnlockTime.IsZero():
		target, err = f.roundForTime(ctx, codec.BytesToHex(chainHash), input)
		if err != nil {
			return err
		}
	default:
		return ErrNoRound
	}

	if target.Advisory != round.NoAdvisory {
		f.logger.Warn("unlock time is close", "round", target.Round, "advisory", target.Advisory)
	}
	f.network = input
	f.chainHash = codec.BytesToHex(chainHash)
	f.target = target
	f.stage = StageSecret
	return nil
}

func (f *Flow) roundForTime(ctx context.Context, chainHashHex string, input NetworkInput) (round.Result, error) {
	fetcher := f.chainInfo
	if fetcher == nil {
		client, err := beacon.NewClient(input.Endpoints, beacon.Options{Logger: f.logger})
		if err != nil {
			return round.Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		fetcher = client
	}
	info, err := fetcher.Info(ctx, chainHashHex)
	if err != nil {
		return round.Result{}, fmt.Errorf("fetching chain info: %w", err)
	}
	return round.Calculate(info.Schedule(), input.UnlockTime, f.clock.Now())
}

// SubmitSecret validates and records the secret. A plaintext is
// reduced to SHA-256 of its UTF-8 bytes.
func (f *Flow) SubmitSecret(input SecretInput) error {
	if err := f.require(StageSecret); err != nil {
		return err
	}

	var scalar []byte
	switch {
	case input.ScalarHex != "" && input.Plaintext != "":
		return fmt.Errorf("%w: give a scalar or a plaintext, not both", ErrInvalidInput)
	case input.Plaintext != "":
		scalar = ScalarFromPlaintext(input.Plaintext)
	case input.ScalarHex != "":
		decoded, err := codec.HexToBytes(input.ScalarHex)
		if err != nil {
			return fmt.Errorf("%w: scalar: %w", ErrInvalidInput, err)
		}
		if len(decoded) != vte.ScalarSize {
			secret.Zero(decoded)
			return fmt.Errorf("%w: scalar is %d bytes, want %d", ErrInvalidInput, len(decoded), vte.ScalarSize)
		}
		scalar = decoded
	default:
		return fmt.Errorf("%w: a scalar or a plaintext is required", ErrInvalidInput)
	}

	buffer, err := secret.NewFromBytes(scalar)
	if err != nil {
		return fmt.Errorf("protecting scalar: %w", err)
	}
	f.releaseScalar()
	f.scalar = buffer
	f.plaintext = input.Plaintext
	f.stage = StageConfirm
	return nil
}

// ScalarFromPlaintext derives the secret scalar for a plaintext
// message.
func ScalarFromPlaintext(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return sum[:]
}

// Params returns the GENERATE_VTE parameters assembled so far.
func (f *Flow) Params() engine.GenerateParams {
	return engine.GenerateParams{
		Round:       f.target.Round,
		ChainHash:   f.chainHash,
		FormatID:    f.formatID,
		Scalar:      f.scalarHex(),
		RefundTxHex: f.context.RefundTxHex,
		SessionID:   f.context.SessionID,
		Endpoints:   slices.Clone(f.network.Endpoints),
		Strategy:    f.network.Strategy,
	}
}

// Generate asks the engine for the package. The engine's JSON must
// pass structural validation; it is otherwise kept byte for byte.
func (f *Flow) Generate(ctx context.Context) (*Result, error) {
	if err := f.require(StageConfirm); err != nil {
		return nil, err
	}
	if f.scalar == nil {
		return nil, fmt.Errorf("%w: scalar has been released", ErrInvalidInput)
	}

	params := f.Params()
	packageJSON, err := f.engine.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("generating package: %w", err)
	}
	pkg, err := vte.Parse(packageJSON)
	if err != nil {
		return nil, fmt.Errorf("engine returned an invalid package: %w", err)
	}

	result := &Result{
		PackageJSON:   packageJSON,
		Package:       pkg,
		Target:        f.target,
		PlaintextHint: f.plaintext,
		UnlockTime:    f.network.UnlockTime,
	}
	f.logger.Info("package generated",
		"round", pkg.Round,
		"chain_hash", f.chainHash,
		"strategy", params.Strategy,
	)
	f.result = result
	f.stage = StageGenerated
	return result, nil
}

// Result returns the generated package, or nil before Generated.
func (f *Flow) Result() *Result { return f.result }

// Close zeroes and releases the submitted scalar. Generate fails after
// Close until a new secret is submitted.
func (f *Flow) Close() error {
	return f.releaseScalar()
}

func (f *Flow) scalarHex() string {
	if f.scalar == nil {
		return ""
	}
	return f.scalar.Hex()
}

func (f *Flow) releaseScalar() error {
	if f.scalar == nil {
		return nil
	}
	err := f.scalar.Close()
	f.scalar = nil
	return err
}

func (f *Flow) require(stage Stage) error {
	if f.stage != stage {
		return fmt.Errorf("%w: in %s, want %s", ErrWrongStage, f.stage, stage)
	}
	return nil
}
