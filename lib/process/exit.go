// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Coder is implemented by errors that carry their own process exit
// code.
type Coder interface {
	ExitCode() int
}

// ExitCode returns the exit code for err: 0 for nil, the code of the
// first Coder in the chain, or 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder Coder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Fatal writes "error: err" to stderr and exits with ExitCode(err).
// Use it in main() for errors from run() where the structured logger
// may not be initialized. An err that is itself a Coder is not
// printed: the command already wrote its own output.
func Fatal(err error) {
	report(os.Stderr, err)
	os.Exit(ExitCode(err))
}

func report(w io.Writer, err error) {
	if _, handled := err.(Coder); handled {
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
