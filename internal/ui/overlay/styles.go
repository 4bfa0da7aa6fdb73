package overlay

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// Styles holds the lipgloss styles shared by every overlay.
type Styles struct {
	Overlay          lipgloss.Style // bordered container
	Title            lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemActive   lipgloss.Style
	MenuItemDisabled lipgloss.Style
	MenuKey          lipgloss.Style
	MenuKeyDisabled  lipgloss.Style
	Separator        lipgloss.Style
	Footer           lipgloss.Style
	MenuHeader       lipgloss.Style
	MenuCount        lipgloss.Style
}

// New builds the overlay style set from the shared theme palette.
func New() *Styles {
	base := lipgloss.NewStyle()
	return &Styles{
		Overlay: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.Surface2).
			Background(styles.Base).
			Padding(1, 2),
		Title:            base.Foreground(styles.Text).Bold(true).MarginBottom(1),
		MenuItem:         base.Foreground(styles.Text),
		MenuItemActive:   base.Foreground(styles.Blue).Bold(true),
		MenuItemDisabled: base.Foreground(styles.Overlay0),
		MenuKey:          base.Foreground(styles.Yellow).Bold(true),
		MenuKeyDisabled:  base.Foreground(styles.Surface2).Bold(true),
		Separator:        base.Foreground(styles.Surface1),
		Footer:           base.Foreground(styles.Subtext0).MarginTop(1),
		MenuHeader:       base.Foreground(styles.Subtext1).Bold(true),
		MenuCount:        base.Foreground(styles.Green),
	}
}
