// Package toast renders the transient notification stack shown below the
// board.
package toast

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/types"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// maxToastWidth caps how wide a single toast grows on big terminals.
const maxToastWidth = 40

// ToastRenderer draws toasts with the level-appropriate style.
type ToastRenderer struct {
	styles *styles.Styles
}

// New creates a ToastRenderer.
func New(styles *styles.Styles) *ToastRenderer {
	return &ToastRenderer{styles: styles}
}

// Render stacks toasts vertically, right-aligned; empty input renders
// nothing.
func (r *ToastRenderer) Render(toasts []types.Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	toastWidth := min(width/3, maxToastWidth)

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, r.styleForLevel(t.Level).Width(toastWidth).Render(t.Message))
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

func (r *ToastRenderer) styleForLevel(level types.ToastLevel) lipgloss.Style {
	switch level {
	case types.ToastSuccess:
		return r.styles.ToastSuccess
	case types.ToastWarning:
		return r.styles.ToastWarning
	case types.ToastError:
		return r.styles.ToastError
	default:
		return r.styles.ToastInfo
	}
}
