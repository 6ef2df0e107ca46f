// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"io"
	"os"

	"github.com/invowk/launchbox/internal/config"
	"github.com/invowk/launchbox/internal/engine"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// EngineFactory connects to the engine described by cfg.
	EngineFactory func(cfg config.EngineConfig) (engine.Engine, error)

	// App wires CLI services and shared dependencies. Cobra handlers receive an
	// App and delegate to it.
	App struct {
		Config  ConfigProvider
		Engines EngineFactory
		stdin   io.Reader
		stdout  io.Writer
		stderr  io.Writer
		workDir string
		cfgDir  string
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Engines EngineFactory
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
		// WorkDir receives the transient build archive and is searched for launchbox.cue.
		WorkDir string
		// ConfigDir overrides the user config directory.
		ConfigDir string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Engines == nil {
		deps.Engines = newDockerEngine
	}
	if deps.WorkDir == "" {
		deps.WorkDir = "."
	}

	return &App{
		Config:  deps.Config,
		Engines: deps.Engines,
		stdin:   deps.Stdin,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		workDir: deps.WorkDir,
		cfgDir:  deps.ConfigDir,
	}
}

func (a *App) loadOptions(configFile string) config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: configFile, ConfigDirPath: a.cfgDir, WorkDir: a.workDir}
}

func newDockerEngine(cfg config.EngineConfig) (engine.Engine, error) {
	var opts []engine.DockerEngineOption
	if cfg.Host != "" {
		opts = append(opts, engine.WithHost(cfg.Host))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, engine.WithAPIVersion(cfg.APIVersion))
	}
	return engine.NewDockerEngine(opts...)
}
