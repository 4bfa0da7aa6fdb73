// Package statusbar renders the one-line bar at the bottom of the TUI:
// the current input mode plus its keybinding hints.
package statusbar

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/types"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// StatusBar draws the mode badge and hint line.
type StatusBar struct {
	mode   types.Mode
	width  int
	styles *styles.Styles
}

// New creates a StatusBar for the given mode and terminal width.
func New(mode types.Mode, width int, styles *styles.Styles) StatusBar {
	return StatusBar{mode: mode, width: width, styles: styles}
}

// Render produces the full-width bar.
func (sb StatusBar) Render() string {
	badge := sb.styles.StatusMode.Render(" " + sb.mode.String() + " ")

	content := badge
	if hints := Hints(sb.mode); hints != "" {
		separator := sb.styles.StatusHint.Render(" │ ")
		content = lipgloss.JoinHorizontal(lipgloss.Left, badge, separator, sb.styles.StatusHint.Render(hints))
	}

	return sb.styles.StatusBar.Width(sb.width).Render(content)
}
