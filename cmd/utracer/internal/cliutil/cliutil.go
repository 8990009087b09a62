// SPDX-License-Identifier: GPL-3.0-or-later

// Package cliutil holds the small pieces every utracer subcommand shares:
// file loading, output redirection, and the exit-code taxonomy.
package cliutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	trace "utracer"
)

// Exit codes per the documented CLI contract: 0 success, 2 invalid input,
// 3 invalid XML, 4 scenario failure (overall status Fail).
const (
	ExitOK             = 0
	ExitInvalidInput   = 2
	ExitInvalidXML     = 3
	ExitScenarioFailed = 4
)

// InputError marks a problem with the command's arguments or flags (exit
// code 2), as opposed to a problem with the trace document itself.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// NewInputError wraps err as an [*InputError].
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Err: fmt.Errorf(format, args...)}
}

// ScenarioFailedError marks a scenario run whose overall status was Fail
// (exit code 4). It carries no payload: the result itself was already
// printed before this error is returned.
type ScenarioFailedError struct{}

func (e *ScenarioFailedError) Error() string { return "scenario overall status: Fail" }

// ExitCode maps an error returned from a subcommand's RunE to the process
// exit code the CLI contract promises.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, trace.ErrInvalidXML):
		return ExitInvalidXML
	case errors.As(err, new(*ScenarioFailedError)):
		return ExitScenarioFailed
	case errors.As(err, new(*InputError)):
		return ExitInvalidInput
	default:
		return ExitInvalidInput
	}
}

// LoadModel opens path and ingests it into a [*trace.TraceModel] using cfg.
// An open file can stall on a slow or unresponsive filesystem, so loading
// goes through [trace.LoadReadCloser] rather than calling [trace.Ingest]
// directly: cancelling ctx closes the file and unblocks a stuck Read
// immediately instead of waiting for Ingest's next between-items check.
func LoadModel(ctx context.Context, cfg *trace.AnalysisConfig, path string) (*trace.TraceModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewInputError("opening trace file: %w", err)
	}

	model, err := trace.LoadReadCloser(cfg).Call(ctx, f)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// OpenOutput returns a writer for the --out flag: stdout when path is
// empty, else a newly created file. The returned closer is a no-op for
// stdout.
func OpenOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, NewInputError("opening --out file: %w", err)
	}
	return f, f.Close, nil
}
