// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/vte/bridge"
	"github.com/bureau-foundation/vte/lib/clock"
	"github.com/bureau-foundation/vte/lib/engine"
	"github.com/bureau-foundation/vte/lib/fault"
	"github.com/bureau-foundation/vte/lib/vte"
)

// ErrVerificationFailed is the report error when the engine rejected
// the package.
var ErrVerificationFailed = fault.New(fault.Semantic, "verification failed")

// ErrMissingExpectation is the report error when an audit was asked
// without a value the package must be bound to.
var ErrMissingExpectation = fault.New(fault.Validation, "missing expectation")

// Engine is the engine operation the verifier delegates to.
// *bridge.Client implements it.
type Engine interface {
	Verify(ctx context.Context, params engine.VerifyParams) (engine.VerifyResult, error)
}

// Expectations are the values the package must be bound to. Round,
// ChainHashHex, SessionID, and RefundTxHex are required. An empty
// FormatID means vte.FormatTlockV1.
type Expectations struct {
	Round        *uint64
	ChainHashHex string
	FormatID     string
	SessionID    string
	RefundTxHex  string
}

// Report is the outcome of one audit.
type Report struct {
	Checklist Checklist

	// Package is the parsed package, nil when the structural check
	// failed.
	Package *vte.Package

	// Failures are the engine's structured failures, if it reported
	// any.
	Failures []engine.Failure

	// Elapsed covers parsing and the engine call.
	Elapsed time.Duration

	// Err is nil only when the engine accepted the package. It is
	// vte.ErrMalformedPackage for a structural failure,
	// ErrMissingExpectation when a required expectation was not
	// given, ErrVerificationFailed for an engine rejection, and the
	// bridge error otherwise.
	Err error
}

// Verified reports whether every check succeeded.
func (r *Report) Verified() bool {
	return r.Err == nil && r.Checklist.AllSuccess()
}

// Options configures a Verifier.
type Options struct {
	// Clock measures Report.Elapsed. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Verifier audits packages against one engine.
type Verifier struct {
	engine Engine
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a verifier.
func New(delegate Engine, options Options) *Verifier {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Verifier{engine: delegate, clock: options.Clock, logger: options.Logger}
}

// Audit checks packageJSON against expect. It always returns a
// report; the report's Err says why verification did not succeed.
func (v *Verifier) Audit(ctx context.Context, packageJSON []byte, expect Expectations) *Report {
	start := v.clock.Now()
	report := &Report{Checklist: NewChecklist()}
	v.audit(ctx, report, packageJSON, expect)
	report.Elapsed = v.clock.Now().Sub(start)

	v.logger.Info("package audit finished",
		"verified", report.Verified(),
		"elapsed", report.Elapsed,
		"error", report.Err,
	)
	return report
}

func (v *Verifier) audit(ctx context.Context, report *Report, packageJSON []byte, expect Expectations) {
	pkg, err := vte.Parse(packageJSON)
	if err != nil {
		report.Checklist.set(CheckStructural, StatusError, err.Error())
		report.Err = err
		return
	}
	report.Package = pkg
	report.Checklist.set(CheckStructural, StatusSuccess, "")

	if missing := expect.missing(); len(missing) > 0 {
		report.Err = fmt.Errorf("%w: %s", ErrMissingExpectation, strings.Join(missing, ", "))
		return
	}
	formatID := expect.FormatID
	if formatID == "" {
		formatID = vte.FormatTlockV1
	}

	result, err := v.engine.Verify(ctx, engine.VerifyParams{
		Package:     packageJSON,
		Round:       *expect.Round,
		ChainHash:   expect.ChainHashHex,
		FormatID:    formatID,
		SessionID:   expect.SessionID,
		RefundTxHex: expect.RefundTxHex,
	})
	if err != nil {
		var engineErr *bridge.EngineError
		if !errors.As(err, &engineErr) {
			report.Err = err
			return
		}
		if check, ok := classify(engineErr.Message); ok {
			report.Checklist.set(check, StatusError, engineErr.Message)
		} else {
			v.logger.Warn("unclassified engine verification error", "message", engineErr.Message)
		}
		report.Err = fmt.Errorf("%w: %s", ErrVerificationFailed, engineErr.Message)
		return
	}

	if len(result.Failures) > 0 {
		report.Failures = result.Failures
		messages := make([]string, 0, len(result.Failures))
		for _, failure := range result.Failures {
			messages = append(messages, failure.Message)
			if check, ok := categoryChecks[failure.Category]; ok {
				report.Checklist.set(check, StatusError, failure.Message)
			}
		}
		report.Err = fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(messages, "; "))
		return
	}

	report.Checklist.set(CheckNetworkBinding, StatusSuccess, "")
	report.Checklist.set(CheckCapsuleBinding, StatusSuccess, "")
	report.Checklist.set(CheckCommitmentProof, StatusSuccess, "")
	if schnorrConfirmed(result, pkg) {
		report.Checklist.set(CheckSchnorrBinding, StatusSuccess, "")
	}
}

func (e Expectations) missing() []string {
	var missing []string
	if e.Round == nil {
		missing = append(missing, "round")
	}
	if e.ChainHashHex == "" {
		missing = append(missing, "chain hash")
	}
	if e.SessionID == "" {
		missing = append(missing, "session id")
	}
	if e.RefundTxHex == "" {
		missing = append(missing, "refund transaction")
	}
	return missing
}

// schnorrConfirmed trusts the engine's Checked list when it reports
// one and otherwise falls back to the proof being present.
func schnorrConfirmed(result engine.VerifyResult, pkg *vte.Package) bool {
	if len(result.Checked) > 0 {
		return slices.Contains(result.Checked, engine.CategorySchnorrBinding)
	}
	return pkg.HasSchnorrProof()
}
