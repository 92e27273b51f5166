package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): primary text
// - Accent (solar amber, configurable): instruments, paths, highlights
// - Muted (gray): secondary info, counts
// - No colored success/error/warning - unicode symbols only

const defaultAccent = "#FAB387"

// accentColor is the normalized accent currently in effect. Empty means
// the accent is disabled.
var accentColor = defaultAccent

var (
	// Accent style for instruments, file paths, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info, hints, counts
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)
)

// ConfigureTheme applies the configured accent color. Values like
// "none" or "off" disable the accent entirely.
func ConfigureTheme(accent string) {
	color, ok := normalizeAccentColor(accent)
	if !ok {
		accentColor = ""
		Accent = lipgloss.NewStyle()
		AccentBold = lipgloss.NewStyle().Bold(true)
		return
	}
	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// AccentColor returns the active accent color, if any.
func AccentColor() (string, bool) {
	if accentColor == "" {
		return "", false
	}
	return accentColor, true
}

// normalizeAccentColor accepts ANSI-256 codes and hex colors, expanding
// the short #abc form. "none", "off" and "default" disable the accent.
func normalizeAccentColor(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "none", "off", "default":
		return "", false
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n <= 255 {
			return strconv.Itoa(n), true
		}
		return "", false
	}

	if hex, ok := strings.CutPrefix(s, "#"); ok {
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdef", r) {
				return "", false
			}
		}
		switch len(hex) {
		case 6:
			return s, true
		case 3:
			var b strings.Builder
			b.WriteByte('#')
			for _, r := range hex {
				b.WriteRune(r)
				b.WriteRune(r)
			}
			return b.String(), true
		}
		return "", false
	}

	return "", false
}
