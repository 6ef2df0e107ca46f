// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where configuration is read from. Zero values mean
	// the platform defaults.
	LoadOptions struct {
		// ConfigFilePath, when set, is the only file read; it must exist.
		ConfigFilePath string
		// ConfigDirPath replaces the user config directory.
		ConfigDirPath string
		// WorkDir is searched for launchbox.cue. Defaults to ".".
		WorkDir string
	}

	// Provider produces the effective configuration.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// ProviderFunc adapts a function to Provider.
	ProviderFunc func(ctx context.Context, opts LoadOptions) (*Config, error)

	fileProvider struct{}
)

// NewProvider returns the Provider that reads CUE files and LAUNCHBOX_* variables.
func NewProvider() Provider {
	return fileProvider{}
}

// Load calls f.
func (f ProviderFunc) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return f(ctx, opts)
}

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

func (o LoadOptions) workDir() string {
	if o.WorkDir == "" {
		return "."
	}
	return o.WorkDir
}
