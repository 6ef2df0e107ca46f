// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/invowk/launchbox/internal/buildctx"
	"github.com/invowk/launchbox/internal/config"
	"github.com/invowk/launchbox/internal/engine"
	"github.com/invowk/launchbox/internal/issue"
	"github.com/invowk/launchbox/internal/provision"
	"github.com/invowk/launchbox/internal/shellcmd"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ExitCode
		wantID   issue.Id
	}{
		{
			name:     "nil",
			err:      nil,
			wantCode: ExitOK,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: ExitFailure,
		},
		{
			name:     "engine unavailable",
			err:      &engine.EngineNotAvailableError{Engine: "docker", Reason: "refused"},
			wantCode: ExitEngineUnavailable,
			wantID:   issue.EngineNotAvailableId,
		},
		{
			name:     "step failure",
			err:      &provision.StepError{Step: provision.StepStart, Container: "c", Err: errors.New("x")},
			wantCode: ExitStepFailed,
			wantID:   issue.ContainerProvisionFailedId,
		},
		{
			name:     "missing dockerfile",
			err:      &buildctx.MissingFileError{Path: "Dockerfile", Err: errors.New("no such file")},
			wantCode: ExitPrecondition,
			wantID:   issue.DockerfileNotFoundId,
		},
		{
			name:     "path outside context",
			err:      fmt.Errorf("%w: ../x", buildctx.ErrOutsideContext),
			wantCode: ExitPrecondition,
			wantID:   issue.DockerfileNotFoundId,
		},
		{
			name:     "invalid script",
			err:      fmt.Errorf("check: %w", shellcmd.ErrInvalidScript),
			wantCode: ExitPrecondition,
			wantID:   issue.InvalidScriptId,
		},
		{
			name:     "invalid config",
			err:      &config.InvalidConfigError{FieldErrors: []error{errors.New("bad")}},
			wantCode: ExitPrecondition,
			wantID:   issue.ConfigLoadFailedId,
		},
		{
			name: "issue hint overrides the catalog entry",
			err: issue.NewErrorContext().
				WithOperation("pull image").
				WithIssue(issue.ImagePullFailedId).
				Wrap(errors.New("reset")).
				BuildError(),
			wantCode: ExitFailure,
			wantID:   issue.ImagePullFailedId,
		},
		{
			name: "config hint is a precondition failure",
			err: issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(errors.New("parse error")).
				BuildError(),
			wantCode: ExitPrecondition,
			wantID:   issue.ConfigLoadFailedId,
		},
		{
			name: "engine failure keeps its code under a hint",
			err: issue.NewErrorContext().
				WithOperation("pull image").
				WithIssue(issue.ImagePullFailedId).
				Wrap(&engine.EngineNotAvailableError{Engine: "docker", Reason: "gone"}).
				BuildError(),
			wantCode: ExitEngineUnavailable,
			wantID:   issue.ImagePullFailedId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, id := classify(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if id != tt.wantID {
				t.Errorf("id = %v, want %v", id, tt.wantID)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("underlying")
	err := &ExitError{Code: ExitStepFailed, Err: cause}
	if err.Error() != "underlying" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ExitError should unwrap to its cause")
	}

	bare := &ExitError{Code: ExitPrecondition}
	if !strings.Contains(bare.Error(), "2") {
		t.Errorf("Error() = %q, want the exit status", bare.Error())
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	ae := issue.NewErrorContext().
		WithOperation("build image").
		WithResource("my-python-app").
		WithSuggestion("Check the Dockerfile").
		Wrap(fmt.Errorf("outer: %w", errors.New("inner"))).
		BuildError()

	plain := formatErrorForDisplay(ae, false)
	if !strings.Contains(plain, "Check the Dockerfile") {
		t.Errorf("suggestions missing:\n%s", plain)
	}
	if strings.Contains(plain, "Error chain") {
		t.Errorf("non-verbose output should not show the chain:\n%s", plain)
	}
	if verbose := formatErrorForDisplay(ae, true); !strings.Contains(verbose, "Error chain") {
		t.Errorf("verbose output should show the chain:\n%s", verbose)
	}

	if got := formatErrorForDisplay(errors.New("plain"), true); got != "plain" {
		t.Errorf("plain error = %q", got)
	}
}
