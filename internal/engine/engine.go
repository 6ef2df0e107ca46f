// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// EngineTypeDocker is the only engine flavour launchbox speaks to.
const EngineTypeDocker EngineType = "docker"

var (
	// ErrNoEngineAvailable is the sentinel wrapped by EngineNotAvailableError.
	ErrNoEngineAvailable = errors.New("no container engine available")

	// ErrContainerNotFound is returned by InspectContainer when the engine has
	// no container with the requested name.
	ErrContainerNotFound = errors.New("container not found")
)

type (
	// EngineType identifies the container engine flavour.
	EngineType string

	// Engine defines the container engine operations launchbox needs.
	Engine interface {
		// Name returns the engine name.
		Name() string
		// Ping checks that the engine answers on its API endpoint.
		Ping(ctx context.Context) error
		// Version returns the engine server version.
		Version(ctx context.Context) (string, error)

		// InspectContainer looks up a container by name or ID.
		// A missing container yields an error wrapping ErrContainerNotFound.
		InspectContainer(ctx context.Context, name string) (ContainerInfo, error)
		// StopContainer stops a running container.
		StopContainer(ctx context.Context, name string) error
		// RemoveContainer removes a container.
		RemoveContainer(ctx context.Context, name string) error
		// CreateContainer creates a container under name and returns its ID.
		CreateContainer(ctx context.Context, name string, spec ContainerSpec) (string, error)
		// StartContainer starts a created container.
		StartContainer(ctx context.Context, name string) error
		// AttachContainer attaches to the standard streams of a container.
		AttachContainer(ctx context.Context, name string, opts AttachOptions) (*Stream, error)
		// ResizeContainer resizes the container's TTY.
		ResizeContainer(ctx context.Context, name string, height, width uint) error

		// PullImage pulls ref and returns the engine's progress feed.
		PullImage(ctx context.Context, ref string) (*Events, error)
		// BuildImage builds an image from a tar build context.
		BuildImage(ctx context.Context, buildContext io.Reader, opts BuildOptions) (*Events, error)

		// Close releases the connection to the engine.
		Close() error
	}

	// ContainerInfo is the subset of an inspect response launchbox reads.
	ContainerInfo struct {
		ID    string
		Name  string
		Image string
		// Running mirrors the engine's running flag. It is nil when the engine
		// reported no state block at all.
		Running *bool
	}

	// ContainerSpec describes how a container should be created.
	ContainerSpec struct {
		// Image is the image reference to create the container from.
		Image string
		// Command is the argument vector run as the container's entrypoint command.
		Command []string
		// Env holds KEY=VALUE entries.
		Env []string
		// TTY allocates a pseudo-TTY.
		TTY bool
		// OpenStdin keeps stdin open even when nothing is attached.
		OpenStdin bool
		// AutoRemove deletes the container once it exits.
		AutoRemove bool
		// PublishAllPorts publishes every exposed port to a random host port.
		PublishAllPorts bool
		// Platform pins the image platform. Nil leaves the choice to the engine.
		Platform *ocispec.Platform
	}

	// AttachOptions selects the streams attached by AttachContainer.
	AttachOptions struct {
		Stdin  bool
		Stdout bool
		Stderr bool
		// Stream attaches to the live streams.
		Stream bool
		// Logs replays output produced before the attach.
		Logs bool
		// DetachKeys overrides the engine's detach sequence (e.g. "ctrl-p,ctrl-q").
		DetachKeys string
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// Tag is the image reference applied to the result.
		Tag string
		// Dockerfile is the path of the Dockerfile inside the build context.
		Dockerfile string
		// RemoveIntermediate removes intermediate containers after a successful build.
		RemoveIntermediate bool
		// NoCache disables the build cache.
		NoCache bool
		// BuildArgs are build-time variables.
		BuildArgs map[string]string
	}

	// EngineNotAvailableError is returned when the engine does not answer.
	EngineNotAvailableError struct {
		Engine string
		Host   string
		Reason string
	}

	// ContainerNotFoundError names the container that InspectContainer could not find.
	ContainerNotFoundError struct {
		Name string
		Err  error
	}
)

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("container engine '%s' at %s is not available: %s", e.Engine, e.Host, e.Reason)
	}
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrNoEngineAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrNoEngineAvailable }

// Error implements the error interface.
func (e *ContainerNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("container %q not found: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("container %q not found", e.Name)
}

// Is matches ErrContainerNotFound.
func (e *ContainerNotFoundError) Is(target error) bool { return target == ErrContainerNotFound }

// Unwrap returns the engine's original error.
func (e *ContainerNotFoundError) Unwrap() error { return e.Err }

// IsRunning reports the running flag, treating a missing flag as not running.
func (i ContainerInfo) IsRunning() bool {
	return i.Running != nil && *i.Running
}
