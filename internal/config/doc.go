// SPDX-License-Identifier: MPL-2.0

// Package config loads launchbox settings using Viper with CUE as the file format.
//
// Values come, in increasing precedence, from built-in defaults, a CUE file
// validated against the embedded #Config schema, and LAUNCHBOX_* environment
// variables. Command-line flags are applied on top by the CLI layer.
package config
