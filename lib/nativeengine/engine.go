// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nativeengine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/fault"
	"github.com/bureau-foundation/vte/lib/version"
	"github.com/bureau-foundation/vte/lib/vte"
)

// ErrUnsupported is returned for operations this engine does not
// implement.
var ErrUnsupported = fault.New(fault.Semantic, "operation not supported by the native engine")

// ErrInvalidParams is returned when an operation's payload decodes
// but carries unusable values.
var ErrInvalidParams = fault.New(fault.Validation, "invalid parameters")

// CommitmentVerifier checks a commitment proof against the public
// values it is bound to. A nil return means the proof verifies.
type CommitmentVerifier interface {
	VerifyCommitment(ctx context.Context, proof *vte.CommitmentProof, public *vte.PublicInputs, ctxHash []byte) error
}

// Options configures the native engine.
type Options struct {
	// Commitment verifies commitment proofs. Nil leaves every
	// commitment proof unverified, which is reported as a failure.
	Commitment CommitmentVerifier

	// LegacyErrors makes VERIFY_VTE answer the first failure as an
	// operation error instead of a structured result, the way engines
	// without categorized failures behave.
	LegacyErrors bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine holds the native operation handlers.
type Engine struct {
	commitment   CommitmentVerifier
	legacyErrors bool
	logger       *slog.Logger
}

// New creates an engine.
func New(options Options) *Engine {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		commitment:   options.Commitment,
		legacyErrors: options.LegacyErrors,
		logger:       logger,
	}
}

// Register installs every operation on host.
func (e *Engine) Register(host *engine.Host) {
	host.Handle(engine.OpInit, e.handleInit)
	host.Handle(engine.OpComputeCtxHash, e.handleCtxHash)
	host.Handle(engine.OpComputeR2Point, e.handleR2Point)
	host.Handle(engine.OpParseCapsule, e.handleParseCapsule)
	host.Handle(engine.OpVerify, e.handleVerify)
	host.Handle(engine.OpGenerate, unsupported(engine.OpGenerate))
	host.Handle(engine.OpDecrypt, unsupported(engine.OpDecrypt))
}

func (e *Engine) handleInit(ctx context.Context, payload []byte) (any, error) {
	return engine.InitResult{Ready: true, Version: version.Info()}, nil
}

func (e *Engine) handleCtxHash(ctx context.Context, payload []byte) (any, error) {
	params, err := engine.DecodePayload[engine.CtxHashParams](payload)
	if err != nil {
		return nil, err
	}
	chainHash, err := codec.HexToBytes(params.ChainHash)
	if err != nil {
		return nil, fmt.Errorf("%w: chain_hash: %w", ErrInvalidParams, err)
	}
	capsuleHash, err := codec.HexToBytes(params.CapsuleHash)
	if err != nil {
		return nil, fmt.Errorf("%w: capsule_hash: %w", ErrInvalidParams, err)
	}
	refundTx, err := codec.HexToBytes(params.RefundTxHex)
	if err != nil {
		return nil, fmt.Errorf("%w: refund_tx_hex: %w", ErrInvalidParams, err)
	}

	hash, err := vte.ContextHash(vte.ContextInput{
		ChainHash:   chainHash,
		Round:       params.Round,
		CapsuleHash: capsuleHash,
		SessionID:   params.SessionID,
		RefundTx:    refundTx,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return engine.CtxHashResult{CtxHash: codec.BytesToHex(hash[:])}, nil
}

func (e *Engine) handleR2Point(ctx context.Context, payload []byte) (any, error) {
	params, err := engine.DecodePayload[engine.R2PointParams](payload)
	if err != nil {
		return nil, err
	}
	scalar, err := codec.HexToBytes(params.Scalar)
	if err != nil {
		return nil, fmt.Errorf("%w: scalar: %w", ErrInvalidParams, err)
	}
	point, err := R2Point(scalar)
	if err != nil {
		return nil, err
	}
	return engine.R2PointResult{Format: vte.R2FormatCompressed, R2: codec.BytesToHex(point)}, nil
}

func (e *Engine) handleParseCapsule(ctx context.Context, payload []byte) (any, error) {
	params, err := engine.DecodePayload[engine.ParseCapsuleParams](payload)
	if err != nil {
		return nil, err
	}
	return ParseCapsule(params.Capsule, params.FormatID)
}

func (e *Engine) handleVerify(ctx context.Context, payload []byte) (any, error) {
	params, err := engine.DecodePayload[engine.VerifyParams](payload)
	if err != nil {
		return nil, err
	}
	result := e.Verify(ctx, params)
	if e.legacyErrors && len(result.Failures) > 0 {
		return nil, legacyError(result.Failures[0].Message)
	}
	return result, nil
}

func unsupported(op engine.Op) engine.Handler {
	return func(ctx context.Context, payload []byte) (any, error) {
		return nil, fmt.Errorf("%w: %s requires a pairing-capable engine", ErrUnsupported, op)
	}
}

// legacyError is a bare engine message with no kind attached.
type legacyError string

func (e legacyError) Error() string { return string(e) }
