// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/invowk/launchbox/internal/engine"
)

type (
	// Engine is the part of the container engine the routine drives.
	Engine interface {
		InspectContainer(ctx context.Context, name string) (engine.ContainerInfo, error)
		StopContainer(ctx context.Context, name string) error
		RemoveContainer(ctx context.Context, name string) error
		CreateContainer(ctx context.Context, name string, spec engine.ContainerSpec) (string, error)
		StartContainer(ctx context.Context, name string) error
		AttachContainer(ctx context.Context, name string, opts engine.AttachOptions) (*engine.Stream, error)
	}

	// Option configures a Provisioner.
	Option func(*Provisioner)

	// Provisioner runs the idempotent (re)provisioning routine.
	Provisioner struct {
		engine     Engine
		logger     *log.Logger
		detachKeys string
	}

	// Result describes what a run observed and produced. It is returned even
	// when a step fails, filled up to the failing step.
	Result struct {
		// Prior is the state observed by the existence check.
		Prior State
		// ContainerID is the ID of the freshly created container.
		ContainerID string
		// Ignored lists teardown failures that were deliberately not acted on.
		Ignored []Ignored
		// Stream is the attached stream; the caller owns it and must Close it.
		Stream *engine.Stream
	}
)

// WithLogger sets the step logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(p *Provisioner) { p.logger = logger }
}

// WithDetachKeys overrides the engine's detach sequence on attach.
func WithDetachKeys(keys string) Option {
	return func(p *Provisioner) { p.detachKeys = keys }
}

// New creates a Provisioner driving eng.
func New(eng Engine, opts ...Option) *Provisioner {
	p := &Provisioner{engine: eng}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// NewSpec builds the container spec launchbox always uses: TTY on, stdin open,
// auto-remove and publish-all-ports on. A nil platform leaves the choice to the engine.
func NewSpec(image string, command, env []string, platform *ocispec.Platform) engine.ContainerSpec {
	return engine.ContainerSpec{
		Image:           image,
		Command:         slices.Clone(command),
		Env:             slices.Clone(env),
		TTY:             true,
		OpenStdin:       true,
		AutoRemove:      true,
		PublishAllPorts: true,
		Platform:        platform,
	}
}

// AttachOptions returns the attach request used by Provision: stdout and stdin,
// live stream, no log replay.
func (p *Provisioner) AttachOptions() engine.AttachOptions {
	return engine.AttachOptions{
		Stdout:     true,
		Stdin:      true,
		Stream:     true,
		Logs:       false,
		DetachKeys: p.detachKeys,
	}
}

// Check inspects name and classifies the result.
func (p *Provisioner) Check(ctx context.Context, name string) State {
	info, err := p.engine.InspectContainer(ctx, name)
	state := Classify(info, err)
	switch {
	case err == nil:
		p.logger.Debug("found existing container", "container", name, "state", state)
	case isNotFound(err):
		p.logger.Info("no existing container found, proceeding", "container", name)
	default:
		p.logger.Info("could not inspect container, proceeding as absent", "container", name, "err", err)
	}
	return state
}

// Provision makes name a fresh, running, attached container built from spec.
// Teardown failures are recorded in Result.Ignored; create, start and attach
// failures return a *StepError and skip every later step.
func (p *Provisioner) Provision(ctx context.Context, name string, spec engine.ContainerSpec) (*Result, error) {
	res := &Result{Prior: p.Check(ctx, name)}

	p.teardown(ctx, name, res)

	p.logger.Debug("creating container", "container", name, "image", spec.Image, "cmd", spec.Command)
	id, err := p.engine.CreateContainer(ctx, name, spec)
	if err != nil {
		return res, &StepError{Step: StepCreate, Container: name, Err: err}
	}
	res.ContainerID = id
	p.logger.Info("container created", "container", name, "id", shortID(id))

	if err := p.engine.StartContainer(ctx, name); err != nil {
		return res, &StepError{Step: StepStart, Container: name, Err: err}
	}
	p.logger.Info("container started", "container", name)

	stream, err := p.engine.AttachContainer(ctx, name, p.AttachOptions())
	if err != nil {
		return res, &StepError{Step: StepAttach, Container: name, Err: err}
	}
	res.Stream = stream
	p.logger.Info("attached to container", "container", name)

	return res, nil
}

// teardown stops (when running) and removes a present container, ignoring failures.
func (p *Provisioner) teardown(ctx context.Context, name string, res *Result) {
	if !res.Prior.Present() {
		return
	}
	if res.Prior == StateRunning {
		p.logger.Info("stopping existing container", "container", name)
		p.ignore(res, "stop", name, p.engine.StopContainer(ctx, name))
	}
	p.logger.Info("removing existing container", "container", name)
	p.ignore(res, "remove", name, p.engine.RemoveContainer(ctx, name))
}

func (p *Provisioner) ignore(res *Result, op, name string, err error) {
	ig, failed := bestEffort(op, name, err)
	if !failed {
		return
	}
	res.Ignored = append(res.Ignored, ig)
	p.logger.Info("ignoring teardown failure", "op", op, "container", name, "err", err)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
