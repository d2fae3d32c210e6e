// Package draw renders text frames to ANSI terminals.
package draw

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Block characters for drawing.
const (
	BlockFull  = '█'
	BlockLight = '░'
)

// Width returns the display width of s in terminal cells, ignoring ANSI
// sequences and counting wide runes as two cells.
func Width(s string) int {
	return lipgloss.Width(s)
}

// CenterCol returns the 1-based column that centers s in an area of width cells.
func CenterCol(width int, s string) int {
	col := (width-Width(s))/2 + 1
	if col < 1 {
		return 1
	}
	return col
}

// Bar renders a progress bar of width cells, filled to fraction (0..1).
func Bar(width int, fraction float64) string {
	if width <= 0 {
		return ""
	}
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat(string(BlockFull), filled) + strings.Repeat(string(BlockLight), width-filled)
}

// Box frames lines in a single-line border, padding each line to the widest.
func Box(lines []string) []string {
	inner := 0
	for _, l := range lines {
		inner = max(inner, Width(l))
	}
	out := make([]string, 0, len(lines)+2)
	out = append(out, "┌"+strings.Repeat("─", inner+2)+"┐")
	for _, l := range lines {
		out = append(out, "│ "+l+strings.Repeat(" ", inner-Width(l))+" │")
	}
	out = append(out, "└"+strings.Repeat("─", inner+2)+"┘")
	return out
}

// Truncate shortens s to at most width cells.
func Truncate(s string, width int) string {
	if Width(s) <= width {
		return s
	}
	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := Width(string(r))
		if w+rw > width {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	return b.String()
}
