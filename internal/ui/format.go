package ui

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
)

// truncate shortens s to width terminal cells, marking the cut with an ellipsis.
// ANSI sequences in s are preserved.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// cell truncates s and pads it to exactly width cells.
func cell(s string, width int) string {
	return padRight(truncate(s, width), width)
}

// formatCount formats a count with a singular or plural noun.
func formatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
