// SPDX-License-Identifier: MPL-2.0

// Package shellcmd turns the configured in-container script into the command
// vector passed to the engine, rejecting scripts that do not parse.
package shellcmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrInvalidScript is the sentinel wrapped by InvalidScriptError.
	ErrInvalidScript = errors.New("invalid container script")

	// DefaultShell runs the script through a POSIX shell.
	DefaultShell = []string{"/bin/sh", "-c"}
)

// InvalidScriptError reports a script that is empty or fails to parse.
type InvalidScriptError struct {
	Script string
	Err    error
}

// Error implements the error interface.
func (e *InvalidScriptError) Error() string {
	if e.Err == nil {
		return "container script is empty"
	}
	return fmt.Sprintf("container script does not parse: %v", e.Err)
}

// Unwrap returns ErrInvalidScript for errors.Is() compatibility.
func (e *InvalidScriptError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidScript}
	}
	return []error{ErrInvalidScript, e.Err}
}

// Validate parses script as POSIX shell.
func Validate(script string) error {
	if strings.TrimSpace(script) == "" {
		return &InvalidScriptError{Script: script}
	}
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err := parser.Parse(strings.NewReader(script), "script"); err != nil {
		return &InvalidScriptError{Script: script, Err: err}
	}
	return nil
}

// Command validates script and returns shell followed by script.
// An empty shell means DefaultShell.
func Command(shell []string, script string) ([]string, error) {
	if err := Validate(script); err != nil {
		return nil, err
	}
	if len(shell) == 0 {
		shell = DefaultShell
	}
	return append(slices.Clone(shell), script), nil
}
