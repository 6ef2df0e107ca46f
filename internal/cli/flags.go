// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"github.com/spf13/cobra"

	"github.com/invowk/launchbox/internal/config"
)

// runFlags holds command-line overrides. A flag only replaces the configured
// value when it was set explicitly.
type runFlags struct {
	configFile string
	verbose    bool

	host       string
	image      string
	name       string
	script     string
	env        []string
	envFile    string
	platform   string
	detach     bool
	detachKeys string

	contextDir string
	dockerfile string
	include    []string
	noCache    bool
	buildArgs  []string
}

func (f *runFlags) register(cmd *cobra.Command, prog Program) {
	fs := cmd.Flags()
	fs.StringVar(&f.host, "host", "", "engine API endpoint (default is DOCKER_HOST or the local socket)")
	fs.StringVar(&f.image, "image", "", "image reference (default from config: my-python-app)")
	fs.StringVar(&f.name, "name", "", "container name (default from config: python-container-new)")
	fs.StringVar(&f.script, "script", "", "startup script run through the container shell")
	fs.StringArrayVarP(&f.env, "env", "e", nil, "extra KEY=VALUE environment entry (repeatable)")
	fs.StringVar(&f.envFile, "env-file", "", "dotenv file merged into the container environment")
	fs.StringVar(&f.platform, "platform", "", "image platform, e.g. linux/amd64")
	fs.BoolVarP(&f.detach, "detach", "d", false, "exit right after attaching instead of relaying the streams")
	fs.StringVar(&f.detachKeys, "detach-keys", "", "key sequence that detaches from the container")

	if prog != ProgramBuild {
		return
	}
	fs.StringVar(&f.contextDir, "context", "", "build context directory (default \".\")")
	fs.StringVarP(&f.dockerfile, "file", "f", "", "Dockerfile path inside the context (default \"Dockerfile\")")
	fs.StringArrayVar(&f.include, "include", nil, "extra context path to send with the Dockerfile (repeatable, \".\" for all)")
	fs.BoolVar(&f.noCache, "no-cache", false, "do not use the build cache")
	fs.StringArrayVar(&f.buildArgs, "build-arg", nil, "build-time KEY=VALUE variable (repeatable)")
}

// apply overlays explicitly set flags onto cfg. Repeatable flags add to the
// configured lists.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("verbose") {
		cfg.UI.Verbose = f.verbose
	}
	if fs.Changed("host") {
		cfg.Engine.Host = f.host
	}
	if fs.Changed("image") {
		cfg.Image = config.ImageRef(f.image)
	}
	if fs.Changed("name") {
		cfg.Container.Name = config.ContainerName(f.name)
	}
	if fs.Changed("script") {
		cfg.Container.Script = f.script
	}
	if fs.Changed("env") {
		cfg.Container.Env = append(cfg.Container.Env, entries(f.env)...)
	}
	if fs.Changed("env-file") {
		cfg.Container.EnvFile = f.envFile
	}
	if fs.Changed("platform") {
		cfg.Container.Platform = config.PlatformSpec(f.platform)
	}
	if fs.Changed("detach") {
		cfg.Attach.Detach = f.detach
	}
	if fs.Changed("detach-keys") {
		cfg.Attach.DetachKeys = f.detachKeys
	}

	if fs.Lookup("context") == nil {
		return
	}
	if fs.Changed("context") {
		cfg.Build.ContextDir = f.contextDir
	}
	if fs.Changed("file") {
		cfg.Build.Dockerfile = f.dockerfile
	}
	if fs.Changed("include") {
		cfg.Build.Include = append(cfg.Build.Include, f.include...)
	}
	if fs.Changed("no-cache") {
		cfg.Build.NoCache = f.noCache
	}
	if fs.Changed("build-arg") {
		cfg.Build.Args = append(cfg.Build.Args, entries(f.buildArgs)...)
	}
}

func entries(values []string) []config.EnvEntry {
	out := make([]config.EnvEntry, len(values))
	for i, v := range values {
		out[i] = config.EnvEntry(v)
	}
	return out
}
