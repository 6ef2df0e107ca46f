// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/joho/godotenv"
)

// ResolveEnv returns the container environment as sorted KEY=VALUE entries.
// Entries from EnvFile are read first; explicit Env entries override them.
func (c ContainerConfig) ResolveEnv() ([]string, error) {
	merged := map[string]string{}
	if c.EnvFile != "" {
		fromFile, err := godotenv.Read(c.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", c.EnvFile, err)
		}
		maps.Copy(merged, fromFile)
	}
	for _, entry := range c.Env {
		if valid, errs := entry.IsValid(); !valid {
			return nil, errs[0]
		}
		k, v := entry.Split()
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		env = append(env, k+"="+merged[k])
	}
	return env, nil
}
