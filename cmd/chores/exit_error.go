// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/kstep/chores/pkg/types"
)

// ExitError carries the process status a command wants alongside its error.
// adsl uses it for the status 2 of its config and network failures, and the
// lostfilm checker for the status 1 of a partially failed run.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + e.Code.String()
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitWith attaches code to err. A nil err stays nil so callers can pass
// the result of a step straight through.
func exitWith(code types.ExitCode, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// exitCodeOf maps a command error to the process status.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitFailure
}
