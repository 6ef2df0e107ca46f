// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/launchbox/internal/config"
)

// newConfigCommand creates the `config` command tree shared by both programs.
func newConfigCommand(app *App, flags *runFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage launchbox configuration",
		Long: `Manage launchbox configuration.

Configuration is read from the first of:
  - the file given with --config
  - $XDG_CONFIG_HOME/launchbox/config.cue (~/Library/Application Support on macOS, %APPDATA% on Windows)
  - ./launchbox.cue

LAUNCHBOX_* environment variables override file values, e.g. LAUNCHBOX_CONTAINER_NAME.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.wrapConfigErr(cmd, flags, app.showConfig(cmd.Context(), flags.configFile))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.wrapConfigErr(cmd, flags, app.showConfigPath(flags.configFile))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.wrapConfigErr(cmd, flags, app.initConfig())
		},
	})

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE, YAML or TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.wrapConfigErr(cmd, flags, app.dumpConfig(cmd.Context(), flags.configFile, config.Format(format)))
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", string(config.FormatCUE), "output format (cue, yaml, toml)")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func (a *App) wrapConfigErr(cmd *cobra.Command, flags *runFlags, err error) error {
	if err == nil {
		return nil
	}
	cmd.SilenceUsage = true
	return a.fail(cmd, err, flags.verbose)
}

func (a *App) showConfig(ctx context.Context, configFile string) error {
	cfg, err := a.Config.Load(ctx, a.loadOptions(configFile))
	if err != nil {
		return err
	}
	path, err := config.ResolvePath(a.loadOptions(configFile))
	if err != nil {
		return err
	}

	keyStyle := NameStyle
	valueStyle := SuccessStyle
	line := func(key string, value any) {
		fmt.Fprintf(a.stdout, "  %s: %s\n", keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
	}
	list := func(key string, values []string) {
		if len(values) == 0 {
			fmt.Fprintf(a.stdout, "  %s: %s\n", keyStyle.Render(key), SubtitleStyle.Render("(none)"))
			return
		}
		line(key, strings.Join(values, ", "))
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	if path == "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), path)
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, keyStyle.Render("engine")+":")
	line("host", orDefault(cfg.Engine.Host, "(DOCKER_HOST or local socket)"))
	line("api_version", orDefault(cfg.Engine.APIVersion, "(negotiated)"))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("image"), valueStyle.Render(string(cfg.Image)))

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, keyStyle.Render("container")+":")
	line("name", cfg.Container.Name)
	line("script", cfg.Container.Script)
	list("shell", cfg.Container.Shell)
	list("env", envStrings(cfg.Container.Env))
	line("env_file", orDefault(cfg.Container.EnvFile, "(none)"))
	line("platform", orDefault(string(cfg.Container.Platform), "(engine default)"))

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, keyStyle.Render("build")+":")
	line("context_dir", cfg.Build.ContextDir)
	line("dockerfile", cfg.Build.Dockerfile)
	list("include", cfg.Build.Include)
	line("remove_intermediate", cfg.Build.RemoveIntermediate)
	line("no_cache", cfg.Build.NoCache)
	list("args", envStrings(cfg.Build.Args))

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, keyStyle.Render("attach")+":")
	line("detach", cfg.Attach.Detach)
	line("detach_keys", orDefault(cfg.Attach.DetachKeys, "(engine default)"))

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, keyStyle.Render("ui")+":")
	line("verbose", cfg.UI.Verbose)
	line("color_scheme", cfg.UI.ColorScheme)

	return nil
}

func (a *App) showConfigPath(configFile string) error {
	path, err := config.ResolvePath(a.loadOptions(configFile))
	if err != nil {
		return err
	}
	dir := a.cfgDir
	if dir == "" {
		if dir, err = config.ConfigDir(); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.stdout, "Config directory: %s\n", dir)
	if path == "" {
		fmt.Fprintln(a.stdout, "Config file: (none, using defaults)")
		return nil
	}
	fmt.Fprintf(a.stdout, "Config file: %s\n", path)
	return nil
}

func (a *App) initConfig() error {
	path, created, err := config.CreateDefaultConfig(a.loadOptions(""))
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(a.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(a.stdout, "%s Created default configuration at %s\n", done(), path)
	return nil
}

func (a *App) dumpConfig(ctx context.Context, configFile string, format config.Format) error {
	cfg, err := a.Config.Load(ctx, a.loadOptions(configFile))
	if err != nil {
		return err
	}
	out, err := config.Dump(cfg, format)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(out)
	return err
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func envStrings(entries []config.EnvEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e)
	}
	return out
}
