// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/vte/lib/engine"
)

// call initializes the client if needed, issues one request with the
// default timeout, and decodes the result into a T.
func call[T any](ctx context.Context, c *Client, op engine.Op, payload any) (T, error) {
	var result T
	if err := c.Init(ctx); err != nil {
		if c.State() == StateFailed {
			return result, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
		}
		return result, err
	}
	if err := c.Request(op, payload, 0).AwaitInto(ctx, &result); err != nil {
		return result, err
	}
	return result, nil
}

// ComputeCtxHash asks the engine for the context hash binding params.
// The result is lowercase hex.
func (c *Client) ComputeCtxHash(ctx context.Context, params engine.CtxHashParams) (string, error) {
	result, err := call[engine.CtxHashResult](ctx, c, engine.OpComputeCtxHash, params)
	if err != nil {
		return "", err
	}
	return result.CtxHash, nil
}

// Generate asks the engine to produce a package and returns its JSON
// exactly as the engine produced it.
func (c *Client) Generate(ctx context.Context, params engine.GenerateParams) ([]byte, error) {
	result, err := call[engine.GenerateResult](ctx, c, engine.OpGenerate, params)
	if err != nil {
		return nil, err
	}
	if len(result.Package) == 0 {
		return nil, fmt.Errorf("%w: %s returned an empty package", ErrMalformedResponse, engine.OpGenerate)
	}
	return result.Package, nil
}

// Decrypt asks the engine to open a package whose round has been
// published.
func (c *Client) Decrypt(ctx context.Context, params engine.DecryptParams) (engine.DecryptResult, error) {
	return call[engine.DecryptResult](ctx, c, engine.OpDecrypt, params)
}

// Verify runs the engine's combined semantic check. Engines that
// report structured results return them with a nil error; engines
// that report one free-text failure return an *EngineError.
func (c *Client) Verify(ctx context.Context, params engine.VerifyParams) (engine.VerifyResult, error) {
	return call[engine.VerifyResult](ctx, c, engine.OpVerify, params)
}

// ComputeR2Point derives the public point for a hex scalar.
func (c *Client) ComputeR2Point(ctx context.Context, scalarHex string) (engine.R2PointResult, error) {
	return call[engine.R2PointResult](ctx, c, engine.OpComputeR2Point, engine.R2PointParams{Scalar: scalarHex})
}

// ParseCapsule splits a capsule into its bindable fields.
func (c *Client) ParseCapsule(ctx context.Context, capsule []byte, formatID string) (engine.CapsuleFields, error) {
	return call[engine.CapsuleFields](ctx, c, engine.OpParseCapsule, engine.ParseCapsuleParams{Capsule: capsule, FormatID: formatID})
}
