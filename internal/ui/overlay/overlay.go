// Package overlay implements the modal layer drawn above the board: menus,
// dialogs, pickers, and the toasts routed through them.
package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Overlay is a modal component the stack can drive.
type Overlay interface {
	tea.Model
	Title() string
	Size() (width, height int)
}

// CloseOverlayMsg asks the stack to dismiss the top overlay.
type CloseOverlayMsg struct{}

// SelectionMsg carries a chosen action out of an overlay to the app model.
type SelectionMsg struct {
	Key   string
	Value any
}

// closeCmd is the dismiss command every overlay returns on esc/cancel.
func closeCmd() tea.Cmd {
	return func() tea.Msg { return CloseOverlayMsg{} }
}

// selectCmd emits a SelectionMsg for key with an optional value.
func selectCmd(key string, value any) tea.Cmd {
	return func() tea.Msg { return SelectionMsg{Key: key, Value: value} }
}

// stepCursor moves cur by delta inside [0, n), clamping at the edges.
func stepCursor(cur, delta, n int) int {
	next := cur + delta
	if next < 0 {
		return 0
	}
	if next >= n {
		return n - 1
	}
	return next
}

// renderButtonRow draws a horizontal pair/row of buttons with the selected
// one highlighted, the shared shape of the yes/no style dialogs.
func renderButtonRow(s *Styles, labels []string, selected int) string {
	parts := make([]string, len(labels))
	for i, label := range labels {
		style := s.MenuItem
		if i == selected {
			style = s.MenuItemActive
		}
		parts[i] = style.Render(label)
	}
	return strings.Join(parts, "    ")
}
