// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/invowk/launchbox/internal/config"
	"github.com/invowk/launchbox/internal/issue"
)

// fail prints err with its catalog entry and returns the ExitError for it.
func (a *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	code, id := classify(err)
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	if entry := issue.Get(id); entry != nil {
		rendered, renderErr := entry.Render(issueStyle(a.stderr, config.ColorSchemeAuto))
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		} else {
			fmt.Fprint(a.stderr, rendered)
		}
	}

	cmd.SilenceErrors = true
	return &ExitError{Code: code, Err: err, rendered: true}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors carry their own layout; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
