// SPDX-License-Identifier: MPL-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// FormatCUE renders the configuration as a loadable CUE file.
	FormatCUE Format = "cue"
	// FormatYAML renders the configuration as YAML.
	FormatYAML Format = "yaml"
	// FormatTOML renders the configuration as TOML.
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned by Dump for an unsupported Format.
var ErrUnknownFormat = errors.New("unknown dump format")

// Format names an output encoding for Dump.
type Format string

// Formats lists the supported dump formats.
func Formats() []Format {
	return []Format{FormatCUE, FormatYAML, FormatTOML}
}

// Dump renders cfg in the requested format.
func Dump(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatCUE:
		return []byte(GenerateCUE(cfg)), nil
	case FormatYAML, FormatTOML:
	default:
		return nil, fmt.Errorf("%w %q (valid: cue, yaml, toml)", ErrUnknownFormat, format)
	}

	m, err := toMap(cfg)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		return yaml.Marshal(m)
	}
	return toml.Marshal(m)
}

// toMap flattens cfg through its json tags so every encoder sees the same keys.
func toMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return m, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// launchbox configuration file\n\n")

	if cfg.Engine.Host != "" || cfg.Engine.APIVersion != "" {
		sb.WriteString("engine: {\n")
		if cfg.Engine.Host != "" {
			fmt.Fprintf(&sb, "\thost: %q\n", cfg.Engine.Host)
		}
		if cfg.Engine.APIVersion != "" {
			fmt.Fprintf(&sb, "\tapi_version: %q\n", cfg.Engine.APIVersion)
		}
		sb.WriteString("}\n\n")
	}

	fmt.Fprintf(&sb, "image: %q\n", cfg.Image)

	sb.WriteString("\ncontainer: {\n")
	fmt.Fprintf(&sb, "\tname: %q\n", cfg.Container.Name)
	fmt.Fprintf(&sb, "\tscript: %q\n", cfg.Container.Script)
	fmt.Fprintf(&sb, "\tshell: %s\n", cueList(cfg.Container.Shell))
	fmt.Fprintf(&sb, "\tenv: %s\n", cueList(cfg.Container.Env))
	if cfg.Container.EnvFile != "" {
		fmt.Fprintf(&sb, "\tenv_file: %q\n", cfg.Container.EnvFile)
	}
	if cfg.Container.Platform != "" {
		fmt.Fprintf(&sb, "\tplatform: %q\n", cfg.Container.Platform)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tcontext_dir: %q\n", cfg.Build.ContextDir)
	fmt.Fprintf(&sb, "\tdockerfile: %q\n", cfg.Build.Dockerfile)
	fmt.Fprintf(&sb, "\tinclude: %s\n", cueList(cfg.Build.Include))
	fmt.Fprintf(&sb, "\tremove_intermediate: %v\n", cfg.Build.RemoveIntermediate)
	fmt.Fprintf(&sb, "\tno_cache: %v\n", cfg.Build.NoCache)
	fmt.Fprintf(&sb, "\targs: %s\n", cueList(cfg.Build.Args))
	sb.WriteString("}\n")

	sb.WriteString("\nattach: {\n")
	fmt.Fprintf(&sb, "\tdetach: %v\n", cfg.Attach.Detach)
	if cfg.Attach.DetachKeys != "" {
		fmt.Fprintf(&sb, "\tdetach_keys: %q\n", cfg.Attach.DetachKeys)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList[S ~string](items []S) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
