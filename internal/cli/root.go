// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

const (
	// ProgramPull pulls the image from a registry before provisioning.
	ProgramPull Program = iota
	// ProgramBuild builds the image from a local Dockerfile before provisioning.
	ProgramBuild
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// Program selects how the image is obtained.
type Program int

// Name returns the executable name of the program.
func (p Program) Name() string {
	if p == ProgramBuild {
		return "launchbox-build"
	}
	return "launchbox-pull"
}

// versionString returns a formatted version string for display.
func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs prog with production dependencies and returns the process exit code.
func Execute(prog Program) int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app, prog),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	)
	if err == nil {
		return int(ExitOK)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code)
	}
	return int(ExitFailure)
}

// errorHandler leaves errors the command already rendered alone and styles the rest.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.rendered {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// NewRootCommand builds the command tree of prog.
func NewRootCommand(app *App, prog Program) *cobra.Command {
	flags := &runFlags{}

	root := &cobra.Command{
		Use:   prog.Name(),
		Short: shortDescription(prog),
		Long:  longDescription(prog),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := app.run(cmd.Context(), cmd, prog, flags); err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/launchbox/config.cue, then ./launchbox.cue)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.register(root, prog)

	root.AddCommand(newConfigCommand(app, flags))

	return root
}

func shortDescription(prog Program) string {
	if prog == ProgramBuild {
		return "Build an image and (re)provision its container"
	}
	return "Pull an image and (re)provision its container"
}

func longDescription(prog Program) string {
	step := "pulls the configured image"
	if prog == ProgramBuild {
		step = "builds the configured image from a local Dockerfile"
	}
	return TitleStyle.Render(prog.Name()) + SubtitleStyle.Render(" - one-shot container provisioning") + `

` + prog.Name() + ` ` + step + `, removes any previous container
with the configured name, then creates, starts and attaches to a fresh one.
Running it again always yields a new container.

` + SubtitleStyle.Render("Examples:") + `
  ` + prog.Name() + `                        Use the configured image and container
  ` + prog.Name() + ` --name ticker          Provision under another name
  ` + prog.Name() + ` --detach               Attach, report and exit
  ` + prog.Name() + ` config show            Show the effective configuration`
}
