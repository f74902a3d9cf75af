package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Preference values as persisted.
const (
	Light  = "light"
	Dark   = "dark"
	System = "system"
)

// Mode tracks the theme preference and resolves it against the terminal
// background detected at startup.
type Mode struct {
	preference string
	systemDark bool
}

// NewMode creates a Mode. Unknown preferences fall back to System.
func NewMode(preference string, systemDark bool) *Mode {
	m := &Mode{systemDark: systemDark}
	m.Set(preference)
	return m
}

// DetectMode creates a Mode using the terminal background reported by
// lipgloss. It must be called before Apply overrides the detection.
func DetectMode(preference string) *Mode {
	return NewMode(preference, lipgloss.HasDarkBackground())
}

// Preference returns light, dark or system.
func (m *Mode) Preference() string {
	return m.preference
}

// Set changes the preference without applying it.
func (m *Mode) Set(preference string) {
	switch preference {
	case Light, Dark:
		m.preference = preference
	default:
		m.preference = System
	}
}

// Dark reports whether the effective theme is dark.
func (m *Mode) Dark() bool {
	switch m.preference {
	case Light:
		return false
	case Dark:
		return true
	default:
		return m.systemDark
	}
}

// Toggle flips the effective theme and returns the new preference, which
// is always an explicit light or dark.
func (m *Mode) Toggle() string {
	if m.Dark() {
		m.preference = Light
	} else {
		m.preference = Dark
	}
	return m.preference
}

// Apply makes every adaptive color resolve for the effective theme.
func (m *Mode) Apply() {
	lipgloss.SetHasDarkBackground(m.Dark())
}

// Label describes the preference for the status bar.
func (m *Mode) Label() string {
	if m.preference == System {
		if m.systemDark {
			return "system (dark)"
		}
		return "system (light)"
	}
	return m.preference
}
