// Package ui provides terminal styling and output helpers for the lore CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal returns true if stdout is connected to a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsInteractive reports whether both stdin and stdout are terminals, which
// is required before showing a form.
func IsInteractive() bool {
	return IsTerminal() && term.IsTerminal(int(os.Stdin.Fd()))
}

// ShouldUseColor reports whether output may carry ANSI colour. NO_COLOR
// (https://no-color.org/) and CLICOLOR=0 turn it off, CLICOLOR_FORCE turns
// it on for pipes, and otherwise stdout must be a terminal.
func ShouldUseColor() bool {
	switch {
	case os.Getenv("NO_COLOR") != "", os.Getenv("CLICOLOR") == "0":
		return false
	case os.Getenv("CLICOLOR_FORCE") != "":
		return true
	default:
		return IsTerminal()
	}
}

// ColorProfile picks the termenv profile matching ShouldUseColor.
func ColorProfile() termenv.Profile {
	if !ShouldUseColor() {
		return termenv.Ascii
	}
	if p := termenv.EnvColorProfile(); p != termenv.Ascii {
		return p
	}
	// Forced color on a non-TTY: assume a modern terminal downstream.
	return termenv.ANSI256
}

// Setup applies the color profile to lipgloss. Call once at startup.
func Setup() {
	lipgloss.SetColorProfile(ColorProfile())
}

// DefaultWidth is used when stdout is not a terminal.
const DefaultWidth = 80

// GetWidth returns the terminal width, or DefaultWidth.
func GetWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return DefaultWidth
}
