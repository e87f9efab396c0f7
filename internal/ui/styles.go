// Package ui renders terminal output for the agl CLI.
package ui

import (
	"fmt"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorWarn   = 214 // orange
	colorOK     = 114 // green
)

var noColor bool

func render(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderWarn returns s in the warning (orange) color.
func RenderWarn(s string) string { return render(colorWarn, s) }

// StatusLabel returns the lower-case name of a package status.
func StatusLabel(s model.PackageStatus) string {
	switch s {
	case model.StatusPlanning:
		return "planning"
	case model.StatusReady:
		return "ready"
	case model.StatusRunning:
		return "running"
	case model.StatusDone:
		return "done"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// RenderStatus returns the status label colored by execution state: done in
// green, running in orange, ready in blue and planning in gray.
func RenderStatus(s model.PackageStatus) string {
	label := StatusLabel(s)
	switch s {
	case model.StatusDone:
		return render(colorOK, label)
	case model.StatusRunning:
		return render(colorWarn, label)
	case model.StatusReady:
		return render(colorAccent, label)
	}
	return render(colorMuted, label)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
