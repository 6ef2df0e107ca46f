// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"

	"github.com/invowk/launchbox/internal/engine"
)

const (
	// StateAbsent means the engine has no container with the name (or could not say).
	StateAbsent State = iota
	// StateStopped means the container exists and is not running. A container
	// whose running flag was not reported is treated as stopped.
	StateStopped
	// StateRunning means the container exists and is running.
	StateRunning
)

// State is the classified state of a named container, recomputed on every run.
type State int

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Present reports whether a container exists.
func (s State) Present() bool {
	return s == StateStopped || s == StateRunning
}

// Classify maps an inspect result onto a State. Any inspect error, not-found or
// otherwise, classifies as absent.
func Classify(info engine.ContainerInfo, err error) State {
	if err != nil {
		return StateAbsent
	}
	if info.IsRunning() {
		return StateRunning
	}
	return StateStopped
}

// isNotFound distinguishes the expected "no such container" from other inspect failures.
func isNotFound(err error) bool {
	return errors.Is(err, engine.ErrContainerNotFound)
}
