// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"
)

const (
	StepCreate Step = "create"
	StepStart  Step = "start"
	StepAttach Step = "attach"
)

// ErrStepFailed is the sentinel wrapped by StepError.
var ErrStepFailed = errors.New("provisioning step failed")

type (
	// Step names a fatal step of the routine.
	Step string

	// StepError reports a create, start or attach failure. The routine stops at
	// the failing step; earlier steps are not undone.
	StepError struct {
		Step      Step
		Container string
		Err       error
	}

	// Ignored records a best-effort teardown call whose failure was deliberately
	// not acted upon.
	Ignored struct {
		// Op is the teardown call ("stop" or "remove").
		Op        string
		Container string
		Err       error
	}
)

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s container %q: %v", e.Step, e.Container, e.Err)
}

// Unwrap returns the engine error.
func (e *StepError) Unwrap() error { return e.Err }

// Is matches ErrStepFailed.
func (e *StepError) Is(target error) bool { return target == ErrStepFailed }

// String describes the ignored failure.
func (i Ignored) String() string {
	return fmt.Sprintf("ignored %s %q: %v", i.Op, i.Container, i.Err)
}

// bestEffort turns the error of a teardown call into an Ignored marker.
// It returns false when the call succeeded.
func bestEffort(op, container string, err error) (Ignored, bool) {
	if err == nil {
		return Ignored{}, false
	}
	return Ignored{Op: op, Container: container, Err: err}, true
}
