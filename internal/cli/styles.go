// SPDX-License-Identifier: MPL-2.0

package cli

import "github.com/charmbracelet/lipgloss"

// Palette. Each color has a light and a dark variant; which one is used follows
// ui.color_scheme (see applyColorScheme).
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#7C3AED"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#6B7280"}
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#10B981"}
	colorError     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#EF4444"}
	colorWarning   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	colorHighlight = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#3B82F6"}
)

var (
	// TitleStyle is for the program banner and section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)

	// SubtitleStyle is for secondary text and placeholders.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)

	// SuccessStyle marks completed steps.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorSuccess)

	// ErrorStyle prefixes fatal errors.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorError)

	// WarningStyle prefixes feed errors that do not stop the run.
	WarningStyle = lipgloss.NewStyle().Foreground(colorWarning)

	// NameStyle is for image references and container names.
	NameStyle = lipgloss.NewStyle().Foreground(colorHighlight)
)

// done renders the check mark that starts every step-completed line.
func done() string {
	return SuccessStyle.Render("✓")
}
