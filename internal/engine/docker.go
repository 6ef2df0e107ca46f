// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"slices"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

type (
	// APIClient is the part of the Docker SDK client that DockerEngine uses.
	// *client.Client satisfies it; tests substitute a fake.
	APIClient interface {
		Ping(ctx context.Context) (types.Ping, error)
		ServerVersion(ctx context.Context) (types.Version, error)
		ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
		ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
		ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
		ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
			networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
		ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
		ContainerAttach(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error)
		ContainerResize(ctx context.Context, containerID string, options container.ResizeOptions) error
		ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
		ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
		DaemonHost() string
		Close() error
	}

	// DockerEngineOption configures a DockerEngine.
	DockerEngineOption func(*dockerOptions)

	dockerOptions struct {
		host       string
		apiVersion string
		api        APIClient
	}

	// DockerEngine implements Engine with the Docker Go SDK.
	DockerEngine struct {
		api APIClient
	}
)

// WithHost overrides DOCKER_HOST (e.g. "unix:///run/user/1000/docker.sock").
func WithHost(host string) DockerEngineOption {
	return func(o *dockerOptions) { o.host = host }
}

// WithAPIVersion pins the API version instead of negotiating it.
func WithAPIVersion(version string) DockerEngineOption {
	return func(o *dockerOptions) { o.apiVersion = version }
}

// WithAPIClient injects a pre-built API client.
func WithAPIClient(api APIClient) DockerEngineOption {
	return func(o *dockerOptions) { o.api = api }
}

// NewDockerEngine creates an engine client from the environment (DOCKER_HOST,
// DOCKER_API_VERSION, DOCKER_CERT_PATH, DOCKER_TLS_VERIFY) and the given options.
// No connection is made until the first call.
func NewDockerEngine(opts ...DockerEngineOption) (*DockerEngine, error) {
	var o dockerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.api != nil {
		return &DockerEngine{api: o.api}, nil
	}

	clientOpts := []client.Opt{client.FromEnv}
	if o.host != "" {
		clientOpts = append(clientOpts, client.WithHost(o.host))
	}
	if o.apiVersion != "" {
		clientOpts = append(clientOpts, client.WithVersion(o.apiVersion))
	} else {
		clientOpts = append(clientOpts, client.WithAPIVersionNegotiation())
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerEngine{api: cli}, nil
}

// Name returns the engine name.
func (e *DockerEngine) Name() string {
	return string(EngineTypeDocker)
}

// Host returns the API endpoint the engine talks to.
func (e *DockerEngine) Host() string {
	return e.api.DaemonHost()
}

// Ping checks that the engine answers.
func (e *DockerEngine) Ping(ctx context.Context) error {
	if _, err := e.api.Ping(ctx); err != nil {
		return &EngineNotAvailableError{
			Engine: e.Name(),
			Host:   e.api.DaemonHost(),
			Reason: err.Error(),
		}
	}
	return nil
}

// Version returns the engine server version.
func (e *DockerEngine) Version(ctx context.Context) (string, error) {
	v, err := e.api.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get docker version: %w", err)
	}
	return v.Version, nil
}

// InspectContainer looks up a container by name.
func (e *DockerEngine) InspectContainer(ctx context.Context, name string) (ContainerInfo, error) {
	resp, err := e.api.ContainerInspect(ctx, name)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return ContainerInfo{}, &ContainerNotFoundError{Name: name, Err: err}
		}
		return ContainerInfo{}, fmt.Errorf("failed to inspect container %q: %w", name, err)
	}

	var info ContainerInfo
	if resp.ContainerJSONBase != nil {
		info.ID = resp.ID
		info.Name = resp.Name
		info.Image = resp.Image
		if resp.State != nil {
			running := resp.State.Running
			info.Running = &running
		}
	}
	if resp.Config != nil {
		info.Image = resp.Config.Image
	}
	return info, nil
}

// StopContainer stops a container using the engine's default grace period.
func (e *DockerEngine) StopContainer(ctx context.Context, name string) error {
	if err := e.api.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		return fmt.Errorf("failed to stop container %q: %w", name, err)
	}
	return nil
}

// RemoveContainer removes a stopped container.
func (e *DockerEngine) RemoveContainer(ctx context.Context, name string) error {
	if err := e.api.ContainerRemove(ctx, name, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container %q: %w", name, err)
	}
	return nil
}

// CreateContainer creates a container named name from spec.
func (e *DockerEngine) CreateContainer(ctx context.Context, name string, spec ContainerSpec) (string, error) {
	cfg, hostCfg := createConfig(spec)
	resp, err := e.api.ContainerCreate(ctx, cfg, hostCfg, nil, spec.Platform, name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %q: %w", name, err)
	}
	return resp.ID, nil
}

// StartContainer starts a created container.
func (e *DockerEngine) StartContainer(ctx context.Context, name string) error {
	if err := e.api.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %q: %w", name, err)
	}
	return nil
}

// AttachContainer attaches to the container's streams.
func (e *DockerEngine) AttachContainer(ctx context.Context, name string, opts AttachOptions) (*Stream, error) {
	resp, err := e.api.ContainerAttach(ctx, name, container.AttachOptions{
		Stream:     opts.Stream,
		Stdin:      opts.Stdin,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
		Logs:       opts.Logs,
		DetachKeys: opts.DetachKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to container %q: %w", name, err)
	}
	return newHijackedStream(resp), nil
}

// ResizeContainer resizes the container TTY.
func (e *DockerEngine) ResizeContainer(ctx context.Context, name string, height, width uint) error {
	if err := e.api.ContainerResize(ctx, name, container.ResizeOptions{Height: height, Width: width}); err != nil {
		return fmt.Errorf("failed to resize container %q: %w", name, err)
	}
	return nil
}

// PullImage pulls ref.
func (e *DockerEngine) PullImage(ctx context.Context, ref string) (*Events, error) {
	body, err := e.api.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		if e.unreachable(err) {
			return nil, &EngineNotAvailableError{Engine: e.Name(), Host: e.api.DaemonHost(), Reason: err.Error()}
		}
		return nil, fmt.Errorf("failed to pull image %q: %w", ref, err)
	}
	return NewEvents(body), nil
}

// unreachable reports whether err means the engine could not be reached at all,
// as opposed to the engine rejecting the request.
func (e *DockerEngine) unreachable(err error) bool {
	return client.IsErrConnectionFailed(err) || cerrdefs.IsUnavailable(err)
}

// BuildImage sends buildContext to the engine and starts a build.
func (e *DockerEngine) BuildImage(ctx context.Context, buildContext io.Reader, opts BuildOptions) (*Events, error) {
	resp, err := e.api.ImageBuild(ctx, buildContext, buildOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to build image %q: %w", opts.Tag, err)
	}
	return NewEvents(resp.Body), nil
}

// Close releases the client's transport.
func (e *DockerEngine) Close() error {
	return e.api.Close()
}

// createConfig maps a ContainerSpec onto the engine's create request.
func createConfig(spec ContainerSpec) (*container.Config, *container.HostConfig) {
	cfg := &container.Config{
		Image:     spec.Image,
		Cmd:       slices.Clone(spec.Command),
		Env:       slices.Clone(spec.Env),
		Tty:       spec.TTY,
		OpenStdin: spec.OpenStdin,
	}
	hostCfg := &container.HostConfig{
		AutoRemove:      spec.AutoRemove,
		PublishAllPorts: spec.PublishAllPorts,
	}
	return cfg, hostCfg
}

func buildOptions(opts BuildOptions) build.ImageBuildOptions {
	out := build.ImageBuildOptions{
		Dockerfile: opts.Dockerfile,
		Remove:     opts.RemoveIntermediate,
		NoCache:    opts.NoCache,
	}
	if opts.Tag != "" {
		out.Tags = []string{opts.Tag}
	}
	if len(opts.BuildArgs) > 0 {
		out.BuildArgs = make(map[string]*string, len(opts.BuildArgs))
		for k, v := range opts.BuildArgs {
			out.BuildArgs[k] = &v
		}
	}
	return out
}
