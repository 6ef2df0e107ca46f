// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/invowk/launchbox/internal/config"
)

// newLogger builds the step logger and installs it as the slog default.
func newLogger(w io.Writer, prog Program, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          prog.Name(),
		Level:           level,
		ReportTimestamp: verbose,
		TimeFormat:      time.TimeOnly,
	})
	slog.SetDefault(slog.New(logger))
	return logger
}

// applyColorScheme pins the background detection when the user chose a scheme.
func applyColorScheme(scheme config.ColorScheme) {
	switch scheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
}

// issueStyle picks the glamour style for catalog entries written to w.
func issueStyle(w io.Writer, scheme config.ColorScheme) string {
	if !isTerminal(w) {
		return "notty"
	}
	switch scheme {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// startSpinner shows msg with a spinner on terminals. The returned func stops it.
func startSpinner(w io.Writer, msg string) func() {
	if !isTerminal(w) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
