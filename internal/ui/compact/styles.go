package compact

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// Styles holds the compact table's style set.
type Styles struct {
	HeaderCell lipgloss.Style
	Separator  lipgloss.Style

	Row         lipgloss.Style
	RowActive   lipgloss.Style
	RowSelected lipgloss.Style

	ColNumber  lipgloss.Style
	ColID      lipgloss.Style
	ColTitle   lipgloss.Style
	ColStatus  lipgloss.Style
	ColPri     lipgloss.Style
	ColSession lipgloss.Style

	StatusOpen       lipgloss.Style
	StatusInProgress lipgloss.Style
	StatusBlocked    lipgloss.Style
	StatusClosed     lipgloss.Style

	PriorityP0 lipgloss.Style
	PriorityP1 lipgloss.Style
	PriorityP2 lipgloss.Style
	PriorityP3 lipgloss.Style
	PriorityP4 lipgloss.Style

	TypeEpic    lipgloss.Style
	TypeFeature lipgloss.Style
	TypeBug     lipgloss.Style
	TypeTask    lipgloss.Style
	TypeChore   lipgloss.Style

	Cursor   lipgloss.Style
	Selected lipgloss.Style
}

// NewStyles builds the table styles from the shared palette.
func NewStyles() *Styles {
	base := lipgloss.NewStyle()
	row := base.Foreground(styles.Text)

	return &Styles{
		HeaderCell: base.Foreground(styles.Text).Bold(true),
		Separator:  base.Foreground(styles.Surface1),

		Row:         row,
		RowActive:   row.Background(styles.Surface0),
		RowSelected: row.Background(styles.Surface1),

		ColNumber:  base.Foreground(styles.Overlay1).Width(5).Align(lipgloss.Right),
		ColID:      base.Foreground(styles.Overlay1).Bold(true).Width(10),
		ColTitle:   row,
		ColStatus:  base.Width(7).Align(lipgloss.Center),
		ColPri:     base.Width(4).Align(lipgloss.Center),
		ColSession: base.Width(8).Align(lipgloss.Center),

		StatusOpen:       base.Foreground(styles.Blue),
		StatusInProgress: base.Foreground(styles.Yellow),
		StatusBlocked:    base.Foreground(styles.Red),
		StatusClosed:     base.Foreground(styles.Green),

		PriorityP0: base.Foreground(styles.Red).Bold(true),
		PriorityP1: base.Foreground(styles.Peach).Bold(true),
		PriorityP2: base.Foreground(styles.Yellow),
		PriorityP3: base.Foreground(styles.Green),
		PriorityP4: base.Foreground(styles.Overlay0),

		TypeEpic:    base.Foreground(styles.Mauve).Bold(true),
		TypeFeature: base.Foreground(styles.Green),
		TypeBug:     base.Foreground(styles.Red),
		TypeTask:    base.Foreground(styles.Blue),
		TypeChore:   base.Foreground(styles.Yellow),

		Cursor:   base.Foreground(styles.Blue).Bold(true),
		Selected: base.Foreground(styles.Mauve).Bold(true),
	}
}
