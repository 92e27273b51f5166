package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth is used when stdout is not a terminal or its size
// cannot be read.
const DefaultTermWidth = 120

// DisplayContext carries the terminal facts renderers need.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
}

// NewDisplayContext probes stdout for its width and TTY status.
func NewDisplayContext() *DisplayContext {
	d := &DisplayContext{TermWidth: DefaultTermWidth}

	fd := os.Stdout.Fd()
	if !term.IsTerminal(fd) {
		return d
	}
	d.IsTTY = true
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		d.TermWidth = w
	}
	return d
}

// NewDisplayContextWithWidth pins the width, for tests and fixed-width
// rendering.
func NewDisplayContextWithWidth(width int) *DisplayContext {
	return &DisplayContext{TermWidth: width, IsTTY: true}
}
