// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault classifies errors by how callers should react to them.
//
// Every sentinel error in the module is created with New, so a caller
// holding any wrapped error can ask KindOf to decide whether to retry,
// show a validation message, report a failed check, or give up on the
// engine entirely. Branch on Kind, never on message text.
package fault

import "errors"

// Kind is a stable error category.
type Kind string

const (
	// Unknown is returned by KindOf for errors outside the taxonomy.
	Unknown Kind = ""

	// Transport covers engine unavailability, request timeouts, and
	// undecodable engine responses. Never retried automatically.
	Transport Kind = "transport"

	// Validation covers malformed input caught before any engine call:
	// bad JSON, bad hex, unlock times in the past, missing fields.
	Validation Kind = "validation"

	// Semantic is an engine-reported verification failure.
	Semantic Kind = "semantic"

	// Network is a beacon network failure. Retryable.
	Network Kind = "network"

	// Fatal means engine bring-up was exhausted. Engine-dependent
	// operations stay disabled for the lifetime of the client.
	Fatal Kind = "fatal"
)

// Error is a categorized error. Message is for humans.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns a categorized error. Package-level sentinels are built
// with New and matched with errors.Is.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a category to cause. A nil cause yields New(kind, message).
func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the category of the outermost *Error in err's chain,
// or Unknown.
func KindOf(err error) Kind {
	var categorized *Error
	if !errors.As(err, &categorized) {
		return Unknown
	}
	return categorized.Kind
}

// Is reports whether err is categorized as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether retrying the operation that produced err
// could succeed without changing its input.
func Retryable(err error) bool {
	return Is(err, Network)
}
