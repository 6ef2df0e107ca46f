// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/invowk/launchbox/internal/config"
	"github.com/invowk/launchbox/internal/engine"
	"github.com/invowk/launchbox/internal/testutil"
)

// fakeEngine records every call and answers from canned results.
type fakeEngine struct {
	mu    sync.Mutex
	calls []string

	pingErr    error
	inspect    engine.ContainerInfo
	inspectErr error
	stopErr    error
	removeErr  error
	createErr  error
	startErr   error
	attachErr  error
	pullErr    error

	// pullFeed and buildFeed are newline-separated JSON messages.
	pullFeed  string
	buildFeed string
	// onBuild observes the build call while it happens.
	onBuild func(buildContext io.Reader, opts engine.BuildOptions)

	// output is what the attached container writes.
	output       string
	streamClosed bool

	created  engine.ContainerSpec
	createAs string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{inspectErr: &engine.ContainerNotFoundError{Name: "any"}}
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) called(call string) bool {
	return slices.Contains(f.Calls(), call)
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Ping(context.Context) error {
	f.record("Ping")
	return f.pingErr
}

func (f *fakeEngine) Version(context.Context) (string, error) {
	f.record("Version")
	return "28.5.1", nil
}

func (f *fakeEngine) InspectContainer(_ context.Context, name string) (engine.ContainerInfo, error) {
	f.record("InspectContainer")
	return f.inspect, f.inspectErr
}

func (f *fakeEngine) StopContainer(context.Context, string) error {
	f.record("StopContainer")
	return f.stopErr
}

func (f *fakeEngine) RemoveContainer(context.Context, string) error {
	f.record("RemoveContainer")
	return f.removeErr
}

func (f *fakeEngine) CreateContainer(_ context.Context, name string, spec engine.ContainerSpec) (string, error) {
	f.record("CreateContainer")
	f.created = spec
	f.createAs = name
	if f.createErr != nil {
		return "", f.createErr
	}
	return "0123456789abcdef0123", nil
}

func (f *fakeEngine) StartContainer(context.Context, string) error {
	f.record("StartContainer")
	return f.startErr
}

func (f *fakeEngine) AttachContainer(context.Context, string, engine.AttachOptions) (*engine.Stream, error) {
	f.record("AttachContainer")
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	closeFn := func() {
		f.mu.Lock()
		f.streamClosed = true
		f.mu.Unlock()
	}
	return engine.NewStream(strings.NewReader(f.output), io.Discard, closeFn, nil), nil
}

func (f *fakeEngine) ResizeContainer(context.Context, string, uint, uint) error {
	f.record("ResizeContainer")
	return nil
}

func (f *fakeEngine) PullImage(context.Context, string) (*engine.Events, error) {
	f.record("PullImage")
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return engine.NewEvents(io.NopCloser(strings.NewReader(f.pullFeed))), nil
}

func (f *fakeEngine) BuildImage(_ context.Context, buildContext io.Reader, opts engine.BuildOptions) (*engine.Events, error) {
	f.record("BuildImage")
	if f.onBuild != nil {
		f.onBuild(buildContext, opts)
	}
	return engine.NewEvents(io.NopCloser(strings.NewReader(f.buildFeed))), nil
}

func (f *fakeEngine) Close() error {
	f.record("Close")
	return nil
}

// testEnv is an App wired to a fake engine and isolated directories.
type testEnv struct {
	app       *App
	engine    *fakeEngine
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	workDir   string
	cfgDir    string
	factoryOK bool
	connected int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testutil.ClearEnvPrefix(t, config.EnvPrefix+"_")

	env := &testEnv{
		engine:    newFakeEngine(),
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		workDir:   t.TempDir(),
		cfgDir:    t.TempDir(),
		factoryOK: true,
	}
	env.app = NewApp(Dependencies{
		Engines: func(config.EngineConfig) (engine.Engine, error) {
			env.connected++
			if !env.factoryOK {
				return nil, errors.New("cannot reach daemon")
			}
			return env.engine, nil
		},
		Stdin:     strings.NewReader(""),
		Stdout:    env.stdout,
		Stderr:    env.stderr,
		WorkDir:   env.workDir,
		ConfigDir: env.cfgDir,
	})
	return env
}

// execute runs prog with args and returns the resulting exit code.
func (e *testEnv) execute(t *testing.T, prog Program, args ...string) ExitCode {
	t.Helper()
	root := NewRootCommand(e.app, prog)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	t.Logf("unclassified error: %v", err)
	return ExitFailure
}

func TestNewApp_Defaults(t *testing.T) {
	app := NewApp(Dependencies{})
	if app.Config == nil {
		t.Error("Config provider should default to the file provider")
	}
	if app.Engines == nil {
		t.Error("Engines should default to the Docker engine factory")
	}
	if app.stdin == nil || app.stdout == nil || app.stderr == nil {
		t.Error("standard streams should default to the process streams")
	}
	if app.workDir != "." {
		t.Errorf("workDir = %q, want .", app.workDir)
	}
}

func TestApp_LoadOptions(t *testing.T) {
	app := NewApp(Dependencies{WorkDir: "/work", ConfigDir: "/cfg"})
	got := app.loadOptions("/etc/launchbox.cue")
	want := config.LoadOptions{ConfigFilePath: "/etc/launchbox.cue", ConfigDirPath: "/cfg", WorkDir: "/work"}
	if got != want {
		t.Errorf("loadOptions() = %+v, want %+v", got, want)
	}
}
