// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "pull image"},
			expected: "failed to pull image",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "pull image", Resource: "my-python-app"},
			expected: "failed to pull image: my-python-app",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "start container", Cause: errors.New("port in use")},
			expected: "failed to start container: port in use",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "create container",
				Resource:  "app-1",
				Cause:     errors.New("conflict"),
			},
			expected: "failed to create container: app-1: conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("engine gone")
	err := NewErrorContext().WithOperation("start container").WithResource("app-1").Wrap(sentinel).BuildError()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should see through ActionableError")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("no such file")
	err := NewErrorContext().
		WithOperation("build image").
		WithResource("Dockerfile").
		WithSuggestion("Create a Dockerfile").
		WithSuggestion("Set build.dockerfile").
		Wrap(fmt.Errorf("stat: %w", inner)).
		Build()

	plain := err.Format(false)
	for _, want := range []string{"failed to build image: Dockerfile: stat: no such file", "• Create a Dockerfile", "• Set build.dockerfile"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("non-verbose output should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. stat: no such file", "2. no such file"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestActionableError_FormatJoinedCause(t *testing.T) {
	t.Parallel()

	first, second := errors.New("first"), errors.New("second")
	err := &ActionableError{Operation: "validate configuration", Cause: errors.Join(first, second)}

	verbose := err.Format(true)
	for _, want := range []string{"2. first", "3. second"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return a nil interface")
	}

	ctx := NewErrorContext().WithOperation("attach container").WithIssue(ContainerProvisionFailedId)
	ae := ctx.Build()
	if ae.IssueID != ContainerProvisionFailedId {
		t.Errorf("IssueID = %d, want %d", ae.IssueID, ContainerProvisionFailedId)
	}
	if len(ae.Suggestions) != 0 {
		t.Errorf("Suggestions = %v, want none", ae.Suggestions)
	}

	// Later builder calls must not leak into errors already built.
	ctx.WithSuggestion("late")
	if len(ae.Suggestions) != 0 {
		t.Error("Build() should return an independent copy")
	}
}

func TestIDOf(t *testing.T) {
	t.Parallel()

	if got := IDOf(errors.New("plain")); got != 0 {
		t.Errorf("IDOf(plain) = %d, want 0", got)
	}

	tagged := NewErrorContext().WithOperation("pull image").WithIssue(ImagePullFailedId).BuildError()
	if got := IDOf(fmt.Errorf("run: %w", tagged)); got != ImagePullFailedId {
		t.Errorf("IDOf(wrapped) = %d, want %d", got, ImagePullFailedId)
	}
}
