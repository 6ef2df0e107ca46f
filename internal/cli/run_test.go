// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/launchbox/internal/config"
	"github.com/invowk/launchbox/internal/engine"
	"github.com/invowk/launchbox/internal/testutil"
)

const pullFeed = `{"status":"Pulling from library/my-python-app","id":"latest"}
{"status":"Download complete","id":"a1b2c3"}
{"status":"Status: Downloaded newer image for my-python-app:latest"}
`

func boolPtr(b bool) *bool { return &b }

func TestPull_ProvisionsFreshContainer(t *testing.T) {
	env := newTestEnv(t)
	env.engine.pullFeed = pullFeed

	if code := env.execute(t, ProgramPull, "--detach"); code != ExitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
	}

	want := []string{
		"Ping", "Version", "PullImage",
		"InspectContainer", "CreateContainer", "StartContainer", "AttachContainer",
		"Close",
	}
	if got := env.engine.Calls(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	out := env.stdout.String()
	for _, sub := range []string{"Pulling image", "Download complete", "pulled", "Attached to container"} {
		if !strings.Contains(out, sub) {
			t.Errorf("stdout missing %q:\n%s", sub, out)
		}
	}

	if env.engine.createAs != string(config.DefaultContainerName) {
		t.Errorf("created container %q, want %q", env.engine.createAs, config.DefaultContainerName)
	}
	spec := env.engine.created
	if spec.Image != string(config.DefaultImage) {
		t.Errorf("spec.Image = %q", spec.Image)
	}
	if len(spec.Command) == 0 || spec.Command[len(spec.Command)-1] != config.DefaultScript {
		t.Errorf("spec.Command = %q, want the default script last", spec.Command)
	}
	if !spec.TTY || !spec.OpenStdin || !spec.AutoRemove || !spec.PublishAllPorts {
		t.Errorf("spec flags = %+v, want TTY, OpenStdin, AutoRemove and PublishAllPorts", spec)
	}
	if spec.Platform != nil {
		t.Errorf("spec.Platform = %v, want nil", spec.Platform)
	}
	if !env.engine.streamClosed {
		t.Error("attached stream should be closed on exit")
	}
}

func TestPull_ReplacesExistingContainer(t *testing.T) {
	tests := []struct {
		name    string
		running *bool
		want    []string
	}{
		{
			name:    "running",
			running: boolPtr(true),
			want:    []string{"InspectContainer", "StopContainer", "RemoveContainer", "CreateContainer"},
		},
		{
			name:    "stopped",
			running: boolPtr(false),
			want:    []string{"InspectContainer", "RemoveContainer", "CreateContainer"},
		},
		{
			name:    "no state reported",
			running: nil,
			want:    []string{"InspectContainer", "RemoveContainer", "CreateContainer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.engine.inspect = engine.ContainerInfo{ID: "old", Running: tt.running}
			env.engine.inspectErr = nil

			if code := env.execute(t, ProgramPull, "--detach"); code != ExitOK {
				t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
			}

			calls := env.engine.Calls()
			start := slices.Index(calls, "InspectContainer")
			if start < 0 || len(calls) < start+len(tt.want) {
				t.Fatalf("calls = %v", calls)
			}
			if got := calls[start : start+len(tt.want)]; !slices.Equal(got, tt.want) {
				t.Errorf("calls = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPull_TeardownFailuresAreIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.engine.inspect = engine.ContainerInfo{Running: boolPtr(true)}
	env.engine.inspectErr = nil
	env.engine.stopErr = errors.New("already stopping")
	env.engine.removeErr = errors.New("removal in progress")

	if code := env.execute(t, ProgramPull, "--detach"); code != ExitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
	}
	if !env.engine.called("CreateContainer") {
		t.Error("create should run after failed teardown calls")
	}
}

func TestPull_InspectErrorCountsAsAbsent(t *testing.T) {
	env := newTestEnv(t)
	env.engine.inspectErr = errors.New("daemon hiccup")

	if code := env.execute(t, ProgramPull, "--detach"); code != ExitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
	}
	if env.engine.called("StopContainer") || env.engine.called("RemoveContainer") {
		t.Errorf("no teardown expected, calls = %v", env.engine.Calls())
	}
}

func TestPull_ErrorEventsDoNotAbort(t *testing.T) {
	env := newTestEnv(t)
	env.engine.pullFeed = `{"status":"Pulling from library/my-python-app","id":"latest"}
{"errorDetail":{"message":"manifest unknown"},"error":"manifest unknown"}
`

	if code := env.execute(t, ProgramPull, "--detach"); code != ExitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
	}
	if !strings.Contains(env.stderr.String(), "manifest unknown") {
		t.Errorf("stderr should report the pull error:\n%s", env.stderr)
	}
	if !env.engine.called("AttachContainer") {
		t.Error("provisioning should continue after pull error events")
	}
}

func TestPull_RejectedPullStillProvisions(t *testing.T) {
	env := newTestEnv(t)
	env.engine.pullErr = errors.New("Error response from daemon: pull access denied for my-python-app, repository does not exist or may require 'docker login'")

	if code := env.execute(t, ProgramPull, "--detach"); code != ExitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
	}
	for _, call := range []string{"InspectContainer", "CreateContainer", "StartContainer", "AttachContainer"} {
		if !env.engine.called(call) {
			t.Errorf("%s should run from the local image, calls = %v", call, env.engine.Calls())
		}
	}
	if !strings.Contains(env.stderr.String(), "Error pulling image") || !strings.Contains(env.stderr.String(), "pull access denied") {
		t.Errorf("stderr should report the rejected pull:\n%s", env.stderr)
	}
}

func TestPull_AbortsWhenEngineGoesAway(t *testing.T) {
	env := newTestEnv(t)
	env.engine.pullErr = &engine.EngineNotAvailableError{Engine: "docker", Reason: "connection refused"}

	if code := env.execute(t, ProgramPull, "--detach"); code != ExitEngineUnavailable {
		t.Errorf("exit code = %d, want %d", code, ExitEngineUnavailable)
	}
	if env.engine.called("InspectContainer") {
		t.Error("provisioning must not start without an engine")
	}
}

func TestPull_StreamEventsPrintedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.engine.pullFeed = `{"stream":"resolving my-python-app\n"}
{"status":"Pull complete","id":"a1b2"}
`

	if code := env.execute(t, ProgramPull, "--detach"); code != ExitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
	}
	if out := env.stdout.String(); !strings.Contains(out, "resolving my-python-app\na1b2: Pull complete\n") {
		t.Errorf("stream text should not be followed by a blank line:\n%q", out)
	}
}

func TestRun_EngineUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.engine.pingErr = &engine.EngineNotAvailableError{Engine: "docker", Reason: "connection refused"}

	if code := env.execute(t, ProgramPull); code != ExitEngineUnavailable {
		t.Errorf("exit code = %d, want %d", code, ExitEngineUnavailable)
	}
	if got, want := env.engine.Calls(), []string{"Ping", "Close"}; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if !strings.Contains(env.stderr.String(), "not available") {
		t.Errorf("stderr should explain the failure:\n%s", env.stderr)
	}
}

func TestRun_EngineFactoryFails(t *testing.T) {
	env := newTestEnv(t)
	env.factoryOK = false

	if code := env.execute(t, ProgramPull); code != ExitEngineUnavailable {
		t.Errorf("exit code = %d, want %d", code, ExitEngineUnavailable)
	}
	if !strings.Contains(env.stderr.String(), "cannot reach daemon") {
		t.Errorf("stderr should carry the cause:\n%s", env.stderr)
	}
}

func TestRun_FatalSteps(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*fakeEngine)
		lastCall string
	}{
		{
			name:     "create",
			setup:    func(f *fakeEngine) { f.createErr = errors.New("name in use") },
			lastCall: "CreateContainer",
		},
		{
			name:     "start",
			setup:    func(f *fakeEngine) { f.startErr = errors.New("port allocated") },
			lastCall: "StartContainer",
		},
		{
			name:     "attach",
			setup:    func(f *fakeEngine) { f.attachErr = errors.New("hijack failed") },
			lastCall: "AttachContainer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env.engine)

			if code := env.execute(t, ProgramPull, "--detach"); code != ExitStepFailed {
				t.Fatalf("exit code = %d, want %d; stderr:\n%s", code, ExitStepFailed, env.stderr)
			}

			calls := env.engine.Calls()
			idx := slices.Index(calls, tt.lastCall)
			if idx < 0 {
				t.Fatalf("%s was never called: %v", tt.lastCall, calls)
			}
			if rest := calls[idx+1:]; !slices.Equal(rest, []string{"Close"}) {
				t.Errorf("calls after failed %s = %v, want only Close", tt.name, rest)
			}
			if strings.Contains(env.stdout.String(), "Attached to container") {
				t.Error("success message must not be printed")
			}
		})
	}
}

func TestRun_PreconditionsSkipEngine(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unparsable script", args: []string{"--script", `echo "unterminated`}},
		{name: "invalid container name", args: []string{"--name", "bad name!"}},
		{name: "invalid image", args: []string{"--image", "UPPER/Case"}},
		{name: "invalid env entry", args: []string{"-e", "NOEQUALS"}},
		{name: "invalid platform", args: []string{"--platform", "not/a/valid/platform/spec"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if code := env.execute(t, ProgramPull, tt.args...); code != ExitPrecondition {
				t.Errorf("exit code = %d, want %d; stderr:\n%s", code, ExitPrecondition, env.stderr)
			}
			if env.connected != 0 {
				t.Error("engine must not be contacted on precondition failures")
			}
		})
	}
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	env := newTestEnv(t)
	testutil.WriteFile(t, filepath.Join(env.workDir, config.LocalConfigFileName), `
image: "python:3.12-slim"
container: {
	name: "from-file"
	env: ["FROM_FILE=1"]
}
attach: detach: true
`)

	code := env.execute(t, ProgramPull, "--name", "from-flag", "-e", "FROM_FLAG=2", "--platform", "linux/arm64")
	if code != ExitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
	}

	if env.engine.createAs != "from-flag" {
		t.Errorf("container name = %q, want from-flag", env.engine.createAs)
	}
	spec := env.engine.created
	if spec.Image != "python:3.12-slim" {
		t.Errorf("image = %q, want the configured one", spec.Image)
	}
	for _, want := range []string{"FROM_FILE=1", "FROM_FLAG=2"} {
		if !slices.Contains(spec.Env, want) {
			t.Errorf("env %v missing %q", spec.Env, want)
		}
	}
	if spec.Platform == nil || spec.Platform.Architecture != "arm64" {
		t.Errorf("platform = %+v, want linux/arm64", spec.Platform)
	}
}

func TestRun_RelaysContainerOutput(t *testing.T) {
	env := newTestEnv(t)
	env.engine.output = "BTC price: 64000 USD\n"

	if code := env.execute(t, ProgramPull); code != ExitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "BTC price: 64000 USD") {
		t.Errorf("stdout should carry container output:\n%s", env.stdout)
	}
	if !env.engine.streamClosed {
		t.Error("stream should be closed after the relay ends")
	}
}

func TestRun_ConfigFileMissing(t *testing.T) {
	env := newTestEnv(t)
	missing := filepath.Join(t.TempDir(), "nope.cue")

	if code := env.execute(t, ProgramPull, "--config", missing); code != ExitPrecondition {
		t.Errorf("exit code = %d, want %d", code, ExitPrecondition)
	}
	if env.connected != 0 {
		t.Error("engine must not be contacted when config loading fails")
	}
}

func TestRun_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.app.Config = config.ProviderFunc(func(context.Context, config.LoadOptions) (*config.Config, error) {
		return nil, errors.New("disk on fire")
	})

	if code := env.execute(t, ProgramPull); code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
	if !strings.Contains(env.stderr.String(), "disk on fire") {
		t.Errorf("stderr should carry the cause:\n%s", env.stderr)
	}
}

func TestPull_RejectsBuildFlags(t *testing.T) {
	env := newTestEnv(t)
	if code := env.execute(t, ProgramPull, "--no-cache"); code == ExitOK {
		t.Error("build-only flags should be unknown to launchbox-pull")
	}
	if env.connected != 0 {
		t.Error("engine must not be contacted")
	}
}
