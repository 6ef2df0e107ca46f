// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/invowk/launchbox/internal/buildctx"
	"github.com/invowk/launchbox/internal/config"
	"github.com/invowk/launchbox/internal/engine"
	"github.com/invowk/launchbox/internal/issue"
	"github.com/invowk/launchbox/internal/provision"
	"github.com/invowk/launchbox/internal/session"
	"github.com/invowk/launchbox/internal/shellcmd"
)

// launch is everything a run needs, resolved before the engine is contacted.
type launch struct {
	cfg      *config.Config
	name     string
	spec     engine.ContainerSpec
	buildCtx buildctx.Options
}

func (a *App) run(ctx context.Context, cmd *cobra.Command, prog Program, flags *runFlags) error {
	cfg, err := a.Config.Load(ctx, a.loadOptions(flags.configFile))
	if err != nil {
		return err
	}
	flags.apply(cmd, cfg)
	flags.verbose = cfg.UI.Verbose
	applyColorScheme(cfg.UI.ColorScheme)

	logger := newLogger(a.stderr, prog, cfg.UI.Verbose)

	l, err := a.prepare(cfg, prog)
	if err != nil {
		return err
	}

	eng, err := a.connect(ctx, cfg.Engine, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if prog == ProgramBuild {
		err = a.buildImage(ctx, eng, l, logger)
	} else {
		err = a.pullImage(ctx, eng, string(cfg.Image))
	}
	if err != nil {
		return err
	}

	return a.provision(ctx, eng, l, logger)
}

// prepare validates everything that can fail without the engine.
func (a *App) prepare(cfg *config.Config, prog Program) (*launch, error) {
	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check the values passed on the command line").
			Wrap(errs[0]).
			BuildError()
	}

	command, err := shellcmd.Command(cfg.Container.Shell, cfg.Container.Script)
	if err != nil {
		return nil, err
	}
	env, err := cfg.Container.ResolveEnv()
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve container environment").
			WithResource(cfg.Container.EnvFile).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	platform, err := cfg.Container.Platform.Platform()
	if err != nil {
		return nil, err
	}

	l := &launch{
		cfg:  cfg,
		name: string(cfg.Container.Name),
		spec: provision.NewSpec(string(cfg.Image), command, env, platform),
		buildCtx: buildctx.Options{
			ContextDir: a.resolve(cfg.Build.ContextDir),
			Dockerfile: cfg.Build.Dockerfile,
			Include:    cfg.Build.Include,
			WorkDir:    a.workDir,
		},
	}

	if prog == ProgramBuild {
		if err := buildctx.Check(l.buildCtx); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// resolve anchors a relative path at the working directory.
func (a *App) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.workDir, path)
}

// connect creates the engine client and waits for it to answer a ping.
func (a *App) connect(ctx context.Context, cfg config.EngineConfig, logger *log.Logger) (engine.Engine, error) {
	eng, err := a.Engines(cfg)
	if err != nil {
		return nil, &engine.EngineNotAvailableError{Engine: string(engine.EngineTypeDocker), Host: cfg.Host, Reason: err.Error()}
	}

	stop := startSpinner(a.stderr, "connecting to container engine...")
	err = eng.Ping(ctx)
	stop()
	if err != nil {
		_ = eng.Close()
		return nil, err
	}

	if v, err := eng.Version(ctx); err == nil {
		logger.Debug("connected to engine", "engine", eng.Name(), "version", v)
	}
	return eng, nil
}

func (a *App) provision(ctx context.Context, eng engine.Engine, l *launch, logger *log.Logger) error {
	p := provision.New(eng,
		provision.WithLogger(logger),
		provision.WithDetachKeys(l.cfg.Attach.DetachKeys),
	)

	res, err := p.Provision(ctx, l.name, l.spec)
	if err != nil {
		return err
	}
	defer res.Stream.Close()

	fmt.Fprintf(a.stdout, "%s Attached to container %s.\n", done(), NameStyle.Render(l.name))
	if len(res.Ignored) > 0 {
		logger.Debug("teardown finished with ignored failures", "count", len(res.Ignored))
	}

	if l.cfg.Attach.Detach {
		return nil
	}
	return session.Relay(ctx, res.Stream, session.Options{
		Container: l.name,
		Resizer:   eng,
		Stdin:     a.stdin,
		Stdout:    a.stdout,
		Logger:    logger,
	})
}
