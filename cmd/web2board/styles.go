// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette for dark terminal backgrounds. Styles degrade to plain text when
// output is not a terminal.
var (
	colorBrand   = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorOK      = lipgloss.Color("#10B981")
	colorFailure = lipgloss.Color("#EF4444")
	colorCaution = lipgloss.Color("#F59E0B")
	colorValue   = lipgloss.Color("#3B82F6")

	// TitleStyle renders the program name and section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBrand)
	// SubtitleStyle renders secondary text and placeholders.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	// SuccessStyle renders completed operations.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorOK)
	// ErrorStyle renders the error label.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFailure)
	// WarningStyle renders conditions the user should know about.
	WarningStyle = lipgloss.NewStyle().Foreground(colorCaution)
	// CmdStyle renders commands, keys and values that can be copied.
	CmdStyle = lipgloss.NewStyle().Foreground(colorValue)
)

// printError writes msg to w behind a styled label. msg is usually the
// output of formatErrorForDisplay or formatUpdateError.
func printError(w io.Writer, msg string) {
	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+msg)
}
