// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/invowk/launchbox/internal/buildctx"
	"github.com/invowk/launchbox/internal/engine"
	"github.com/invowk/launchbox/internal/issue"
)

// pullImage prints the pull feed as it arrives. Pull failures are reported but
// do not stop the run: a locally present image still provisions. Only an
// unreachable engine or a canceled run aborts.
func (a *App) pullImage(ctx context.Context, eng engine.Engine, ref string) error {
	fmt.Fprintf(a.stdout, "Pulling image %s...\n", NameStyle.Render(ref))

	events, err := eng.PullImage(ctx, ref)
	switch {
	case err == nil:
		defer events.Close()
		a.printPullFeed(events)
	case errors.Is(err, engine.ErrNoEngineAvailable), ctx.Err() != nil:
		return issue.NewErrorContext().
			WithOperation("pull image").
			WithResource(ref).
			WithIssue(issue.ImagePullFailedId).
			Wrap(err).
			BuildError()
	default:
		a.reportPullError(err)
	}

	fmt.Fprintf(a.stdout, "%s Image %s pulled.\n", done(), NameStyle.Render(ref))
	return nil
}

func (a *App) printPullFeed(events *engine.Events) {
	for ev := range events.All() {
		switch {
		case ev.HasError():
			a.reportPullError(ev.Err)
		case ev.Stream != "":
			fmt.Fprint(a.stdout, ev.Stream)
		default:
			if text := ev.Text(); text != "" {
				fmt.Fprintln(a.stdout, text)
			}
		}
	}
}

func (a *App) reportPullError(err error) {
	fmt.Fprintln(a.stderr, WarningStyle.Render("Error pulling image: ")+err.Error())
}

// buildImage archives the build context, sends it to the engine and prints the
// build output. The archive is removed once the build feed has ended.
func (a *App) buildImage(ctx context.Context, eng engine.Engine, l *launch, logger *log.Logger) error {
	tag := string(l.cfg.Image)

	archive, err := buildctx.Create(l.buildCtx)
	if err != nil {
		return err
	}
	defer func() {
		if err := archive.Remove(); err != nil {
			logger.Warn("could not remove build context archive", "path", archive.Path(), "err", err)
		}
	}()

	f, err := archive.Open()
	if err != nil {
		return fmt.Errorf("failed to open build context archive: %w", err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		fmt.Fprintf(a.stdout, "Building image %s (context %s)...\n", NameStyle.Render(tag), humanize.Bytes(uint64(info.Size())))
	}

	events, err := eng.BuildImage(ctx, f, engine.BuildOptions{
		Tag:                tag,
		Dockerfile:         l.buildCtx.DockerfilePath(),
		RemoveIntermediate: l.cfg.Build.RemoveIntermediate,
		NoCache:            l.cfg.Build.NoCache,
		BuildArgs:          l.cfg.Build.ArgsMap(),
	})
	if err != nil {
		return buildFailed(tag, err)
	}
	defer events.Close()

	var firstErr error
	for ev := range events.All() {
		switch {
		case ev.HasError():
			fmt.Fprintln(a.stderr, ErrorStyle.Render("Build error: ")+ev.Err.Error())
			if firstErr == nil {
				firstErr = ev.Err
			}
		case ev.Stream != "":
			fmt.Fprint(a.stdout, ev.Stream)
		case ev.Status != "":
			fmt.Fprintln(a.stdout, ev.Text())
		}
	}
	if firstErr != nil {
		return buildFailed(tag, firstErr)
	}

	fmt.Fprintf(a.stdout, "%s Image %s built.\n", done(), NameStyle.Render(tag))
	return nil
}

func buildFailed(tag string, err error) error {
	return issue.NewErrorContext().
		WithOperation("build image").
		WithResource(tag).
		WithIssue(issue.ImageBuildFailedId).
		Wrap(err).
		BuildError()
}
