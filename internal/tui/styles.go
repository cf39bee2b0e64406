// Package tui renders scan progress and results for the terminal.
package tui

import "github.com/charmbracelet/lipgloss"

const (
	// KeyCtrlC is the key binding for cancellation
	KeyCtrlC = "ctrl+c"
	// MaxPathWidth bounds the path shown under the spinner.
	MaxPathWidth = 60
	// ProgressEllipsisLength is the length of ellipsis for truncated paths
	ProgressEllipsisLength = 3
)

const (
	accentColorCode    = "62"  // Blue
	dimColorCode       = "240" // Dark gray
	errorColorCode     = "196" // Red
	highlightColorCode = "86"  // Cyan
	primaryColorCode   = "205" // Pink/purple
	successColorCode   = "42"  // Green
	warningColorCode   = "226"
)

// styles is the palette bound to one lipgloss renderer, so output written to
// a file or buffer carries no escape codes.
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	dir     lipgloss.Style
	link    lipgloss.Style
	errText lipgloss.Style
	warning lipgloss.Style
	success lipgloss.Style
	spinner lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(primaryColorCode)),
		label:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(highlightColorCode)),
		dim:     r.NewStyle().Foreground(lipgloss.Color(dimColorCode)),
		dir:     r.NewStyle().Bold(true).Foreground(lipgloss.Color(accentColorCode)),
		link:    r.NewStyle().Foreground(lipgloss.Color(highlightColorCode)),
		errText: r.NewStyle().Bold(true).Foreground(lipgloss.Color(errorColorCode)),
		warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color(warningColorCode)),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color(successColorCode)),
		spinner: r.NewStyle().Foreground(lipgloss.Color(primaryColorCode)),
	}
}

// truncatePath keeps the tail of p, which is the part that changes.
func truncatePath(p string, width int) string {
	runes := []rune(p)
	if len(runes) <= width || width <= ProgressEllipsisLength {
		return p
	}

	return "..." + string(runes[len(runes)-width+ProgressEllipsisLength:])
}
