package ui

import "fmt"

// Status marks. The palette keeps success/error/warning uncolored and
// lets the mark itself carry the meaning.
const (
	markSuccess = "✓"
	markError   = "✗"
	markWarning = "⚠"
)

func statusLine(mark, msg string) string {
	return mark + " " + msg
}

// Success prefixes msg with the success mark.
func Success(msg string) string {
	return statusLine(markSuccess, msg)
}

// Successf is Success with Sprintf formatting.
func Successf(format string, args ...interface{}) string {
	return statusLine(markSuccess, fmt.Sprintf(format, args...))
}

// Error prefixes msg with the error mark.
func Error(msg string) string {
	return statusLine(markError, msg)
}

// Errorf is Error with Sprintf formatting.
func Errorf(format string, args ...interface{}) string {
	return statusLine(markError, fmt.Sprintf(format, args...))
}

// Warning prefixes msg with the warning mark.
func Warning(msg string) string {
	return statusLine(markWarning, msg)
}

// Warningf is Warning with Sprintf formatting.
func Warningf(format string, args ...interface{}) string {
	return statusLine(markWarning, fmt.Sprintf(format, args...))
}

// Header renders a bold section header.
func Header(msg string) string {
	return Bold.Render(msg)
}

// FilePath renders a path in the accent color.
func FilePath(path string) string {
	return Accent.Render(path)
}

// Hint renders muted guidance text.
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count renders a muted count tag such as "(3 records)".
func Count(n int, singular, plural string) string {
	word := plural
	if n == 1 {
		word = singular
	}
	return Muted.Render(fmt.Sprintf("(%d %s)", n, word))
}
