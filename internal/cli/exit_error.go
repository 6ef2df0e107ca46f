// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/invowk/launchbox/internal/buildctx"
	"github.com/invowk/launchbox/internal/config"
	"github.com/invowk/launchbox/internal/engine"
	"github.com/invowk/launchbox/internal/issue"
	"github.com/invowk/launchbox/internal/provision"
	"github.com/invowk/launchbox/internal/shellcmd"
)

// Exit codes returned by Execute.
const (
	ExitOK ExitCode = iota
	ExitFailure
	ExitPrecondition
	ExitEngineUnavailable
	ExitStepFailed
)

type (
	// ExitCode is the process exit status.
	ExitCode int

	// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
	ExitError struct {
		Code ExitCode
		Err  error
		// rendered is set once the error has been printed to the user.
		rendered bool
	}
)

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// classify maps an error onto its exit code and the catalog entry explaining it.
func classify(err error) (ExitCode, issue.Id) {
	code, id := ExitFailure, issue.Id(0)
	switch {
	case err == nil:
		return ExitOK, 0
	case errors.Is(err, engine.ErrNoEngineAvailable):
		code, id = ExitEngineUnavailable, issue.EngineNotAvailableId
	case errors.Is(err, provision.ErrStepFailed):
		code, id = ExitStepFailed, issue.ContainerProvisionFailedId
	case errors.Is(err, buildctx.ErrMissingFile), errors.Is(err, buildctx.ErrOutsideContext):
		code, id = ExitPrecondition, issue.DockerfileNotFoundId
	case errors.Is(err, shellcmd.ErrInvalidScript):
		code, id = ExitPrecondition, issue.InvalidScriptId
	case errors.Is(err, config.ErrInvalidConfig):
		code, id = ExitPrecondition, issue.ConfigLoadFailedId
	}
	if hint := issue.IDOf(err); hint != 0 {
		id = hint
		if id == issue.ConfigLoadFailedId {
			code = ExitPrecondition
		}
	}
	return code, id
}
