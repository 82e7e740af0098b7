// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct{ code int }

func (e *codedError) Error() string { return fmt.Sprintf("exit %d", e.code) }
func (e *codedError) ExitCode() int { return e.code }

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"coded", &codedError{code: 3}, 3},
		{"wrapped coded", fmt.Errorf("verify: %w", &codedError{code: 2}), 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ExitCode(test.err); got != test.want {
				t.Errorf("ExitCode = %d, want %d", got, test.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var buffer bytes.Buffer
	report(&buffer, errors.New("engine unavailable"))
	if got, want := buffer.String(), "error: engine unavailable\n"; got != want {
		t.Errorf("report wrote %q, want %q", got, want)
	}
}

func TestReportSkipsHandledExit(t *testing.T) {
	var buffer bytes.Buffer
	report(&buffer, &codedError{code: 1})
	if buffer.Len() != 0 {
		t.Errorf("report wrote %q for a handled exit, want nothing", buffer.String())
	}

	buffer.Reset()
	report(&buffer, fmt.Errorf("verify: %w", &codedError{code: 2}))
	if buffer.String() != "error: verify: exit 2\n" {
		t.Errorf("report wrote %q for a wrapped coded error", buffer.String())
	}
}
