// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/containerd/platforms"
	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultImage is the image both programs provision from.
	DefaultImage ImageRef = "my-python-app"
	// DefaultContainerName is the fixed name of the provisioned container.
	DefaultContainerName ContainerName = "python-container-new"
	// DefaultScript keeps the container alive after the script finishes.
	DefaultScript = "python3 btc_price.py && while true; do sleep 1000; done"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidImageRef is returned when an ImageRef is not a valid reference.
	ErrInvalidImageRef = errors.New("invalid image reference")
	// ErrInvalidContainerName is returned when a ContainerName is rejected by the engine's rules.
	ErrInvalidContainerName = errors.New("invalid container name")
	// ErrInvalidEnvEntry is returned when an EnvEntry is not KEY=VALUE.
	ErrInvalidEnvEntry = errors.New("invalid environment entry")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPlatform is returned when a PlatformSpec does not parse.
	ErrInvalidPlatform = errors.New("invalid platform")
	// ErrInvalidShell is returned when the shell command is empty.
	ErrInvalidShell = errors.New("invalid shell")

	containerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
)

type (
	// ImageRef is an image reference such as "my-python-app" or "python:3.12-slim".
	ImageRef string

	// ContainerName is the engine-visible name of the provisioned container.
	ContainerName string

	// EnvEntry is a KEY=VALUE environment assignment.
	EnvEntry string

	// PlatformSpec is an os/arch[/variant] specifier. Empty means engine default.
	PlatformSpec string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidValueError reports one rejected field value.
	// It unwraps to the sentinel of its value type.
	InvalidValueError struct {
		Field  string
		Value  string
		Reason string
		Err    error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sections.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Engine    EngineConfig    `json:"engine" mapstructure:"engine"`
		Image     ImageRef        `json:"image" mapstructure:"image"`
		Container ContainerConfig `json:"container" mapstructure:"container"`
		Build     BuildConfig     `json:"build" mapstructure:"build"`
		Attach    AttachConfig    `json:"attach" mapstructure:"attach"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// EngineConfig selects the container engine endpoint.
	EngineConfig struct {
		// Host overrides DOCKER_HOST when set
		Host string `json:"host" mapstructure:"host"`
		// APIVersion pins the API version; empty negotiates
		APIVersion string `json:"api_version" mapstructure:"api_version"`
	}

	// ContainerConfig describes the provisioned container.
	ContainerConfig struct {
		Name ContainerName `json:"name" mapstructure:"name"`
		// Script is the startup command run through Shell
		Script string `json:"script" mapstructure:"script"`
		// Shell is the interpreter prefix, e.g. ["/bin/sh", "-c"]
		Shell []string   `json:"shell" mapstructure:"shell"`
		Env   []EnvEntry `json:"env" mapstructure:"env"`
		// EnvFile is a dotenv file merged under Env
		EnvFile  string       `json:"env_file" mapstructure:"env_file"`
		Platform PlatformSpec `json:"platform" mapstructure:"platform"`
	}

	// BuildConfig drives the image build of launchbox-build.
	BuildConfig struct {
		ContextDir string `json:"context_dir" mapstructure:"context_dir"`
		// Dockerfile is relative to ContextDir
		Dockerfile string `json:"dockerfile" mapstructure:"dockerfile"`
		// Include lists extra context files; "." sends the whole directory
		Include            []string   `json:"include" mapstructure:"include"`
		RemoveIntermediate bool       `json:"remove_intermediate" mapstructure:"remove_intermediate"`
		NoCache            bool       `json:"no_cache" mapstructure:"no_cache"`
		Args               []EnvEntry `json:"args" mapstructure:"args"`
	}

	// AttachConfig controls what happens after the container is attached.
	AttachConfig struct {
		// Detach exits right after attaching instead of relaying the streams
		Detach     bool   `json:"detach" mapstructure:"detach"`
		DetachKeys string `json:"detach_keys" mapstructure:"detach_keys"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns the sentinel for errors.Is() compatibility.
func (e *InvalidValueError) Unwrap() error { return e.Err }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// String returns the string representation of the ImageRef.
func (r ImageRef) String() string { return string(r) }

// IsValid returns whether the ImageRef parses as a normalized image reference.
func (r ImageRef) IsValid() (bool, []error) {
	if _, err := reference.ParseNormalizedNamed(string(r)); err != nil {
		return false, []error{&InvalidValueError{Field: "image", Value: string(r), Reason: err.Error(), Err: ErrInvalidImageRef}}
	}
	return true, nil
}

// String returns the string representation of the ContainerName.
func (n ContainerName) String() string { return string(n) }

// IsValid returns whether the ContainerName matches [a-zA-Z0-9][a-zA-Z0-9_.-]*.
func (n ContainerName) IsValid() (bool, []error) {
	if !containerNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidValueError{
			Field:  "container.name",
			Value:  string(n),
			Reason: "must match [a-zA-Z0-9][a-zA-Z0-9_.-]*",
			Err:    ErrInvalidContainerName,
		}}
	}
	return true, nil
}

// Split returns the key and value of the entry.
func (e EnvEntry) Split() (key, value string) {
	key, value, _ = strings.Cut(string(e), "=")
	return key, value
}

// IsValid returns whether the entry is KEY=VALUE with a non-empty key.
func (e EnvEntry) IsValid() (bool, []error) {
	key, _, found := strings.Cut(string(e), "=")
	if !found || strings.TrimSpace(key) == "" {
		return false, []error{&InvalidValueError{Field: "env", Value: string(e), Reason: "must be KEY=VALUE", Err: ErrInvalidEnvEntry}}
	}
	return true, nil
}

// String returns the string representation of the PlatformSpec.
func (p PlatformSpec) String() string { return string(p) }

// Platform parses the spec. It returns nil, nil when the spec is empty.
func (p PlatformSpec) Platform() (*ocispec.Platform, error) {
	if p == "" {
		return nil, nil
	}
	parsed, err := platforms.Parse(string(p))
	if err != nil {
		return nil, &InvalidValueError{Field: "container.platform", Value: string(p), Reason: err.Error(), Err: ErrInvalidPlatform}
	}
	return &parsed, nil
}

// IsValid returns whether the PlatformSpec is empty or parses.
func (p PlatformSpec) IsValid() (bool, []error) {
	if _, err := p.Platform(); err != nil {
		return false, []error{err}
	}
	return true, nil
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidValueError{
			Field:  "ui.color_scheme",
			Value:  string(cs),
			Reason: "valid: auto, dark, light",
			Err:    ErrInvalidColorScheme,
		}}
	}
}

// IsValid returns whether the ContainerConfig has valid fields.
func (c ContainerConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Name.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(c.Shell) == 0 || strings.TrimSpace(c.Shell[0]) == "" {
		errs = append(errs, &InvalidValueError{Field: "container.shell", Value: strings.Join(c.Shell, " "), Reason: "must name an interpreter", Err: ErrInvalidShell})
	}
	for _, entry := range c.Env {
		if valid, fieldErrs := entry.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Platform.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the BuildConfig has valid build args.
func (c BuildConfig) IsValid() (bool, []error) {
	var errs []error
	for _, arg := range c.Args {
		if valid, fieldErrs := arg.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	return len(errs) == 0, errs
}

// ArgsMap returns the build args keyed by name.
func (c BuildConfig) ArgsMap() map[string]string {
	if len(c.Args) == 0 {
		return nil
	}
	m := make(map[string]string, len(c.Args))
	for _, arg := range c.Args {
		k, v := arg.Split()
		m[k] = v
	}
	return m
}

// IsValid returns whether the Config has valid fields.
// The script is checked separately since it needs a shell parser.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Image.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Container.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Build.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Image: DefaultImage,
		Container: ContainerConfig{
			Name:   DefaultContainerName,
			Script: DefaultScript,
			Shell:  []string{"/bin/sh", "-c"},
			Env:    []EnvEntry{"MY_ENV_VAR=example"},
		},
		Build: BuildConfig{
			ContextDir:         ".",
			Dockerfile:         "Dockerfile",
			Include:            []string{},
			RemoveIntermediate: true,
			Args:               []EnvEntry{},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
