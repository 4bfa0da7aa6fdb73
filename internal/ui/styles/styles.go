package styles

import "github.com/charmbracelet/lipgloss"

// Styles is the application-wide style set, grouped by surface.
type Styles struct {
	// Board
	Board              lipgloss.Style
	Column             lipgloss.Style
	ColumnHeader       lipgloss.Style
	ColumnHeaderActive lipgloss.Style

	// Cards
	Card         lipgloss.Style
	CardActive   lipgloss.Style
	CardSelected lipgloss.Style
	TaskID       lipgloss.Style
	TaskTitle    lipgloss.Style
	EpicProgress lipgloss.Style

	// Badges
	PriorityBadge func(priority int) lipgloss.Style
	TypeBadge     lipgloss.Style

	// Status bar
	StatusBar  lipgloss.Style
	StatusMode lipgloss.Style
	StatusHint lipgloss.Style
	StatusInfo lipgloss.Style

	// Overlays
	Overlay          lipgloss.Style
	OverlayTitle     lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemActive   lipgloss.Style
	MenuItemDisabled lipgloss.Style
	MenuKey          lipgloss.Style
	Separator        lipgloss.Style

	// Toasts
	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style
}

// New builds the style set from the theme palette.
func New() *Styles {
	base := lipgloss.NewStyle()

	card := base.
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1).
		MarginBottom(1)
	columnHeader := base.Bold(true).Padding(0, 1).MarginBottom(1)
	toastBase := base.Foreground(Base).Padding(0, 1).Bold(true)

	return &Styles{
		Board: base.Background(Base),

		Column: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface1).
			Padding(0, 1),
		ColumnHeader:       columnHeader.Foreground(Subtext0),
		ColumnHeaderActive: columnHeader.Foreground(Blue),

		Card:         card.BorderForeground(Surface1),
		CardActive:   card.BorderForeground(Blue),
		CardSelected: card.BorderForeground(Mauve),
		TaskID:       base.Foreground(Overlay1).Bold(true),
		TaskTitle:    base.Foreground(Text),
		EpicProgress: base.Foreground(Subtext0),

		PriorityBadge: func(priority int) lipgloss.Style {
			color := PriorityColors[min(priority, len(PriorityColors)-1)]
			return base.Foreground(Base).Background(color).Padding(0, 1).Bold(true)
		},
		TypeBadge: base.Foreground(Subtext0).Background(Surface1).Padding(0, 1),

		StatusBar:  base.Background(Surface0).Foreground(Subtext0).Padding(0, 1),
		StatusMode: base.Background(Blue).Foreground(Base).Bold(true).Padding(0, 1),
		StatusHint: base.Foreground(Overlay1),
		StatusInfo: base.Foreground(Subtext0),

		Overlay: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Background(Base).
			Padding(1, 2),
		OverlayTitle:     base.Foreground(Text).Bold(true).MarginBottom(1),
		MenuItem:         base.Foreground(Text),
		MenuItemActive:   base.Foreground(Blue).Bold(true),
		MenuItemDisabled: base.Foreground(Overlay0),
		MenuKey:          base.Foreground(Yellow).Bold(true),
		Separator:        base.Foreground(Surface1),

		ToastInfo:    toastBase.Background(Blue),
		ToastSuccess: toastBase.Background(Green),
		ToastWarning: toastBase.Background(Yellow),
		ToastError:   toastBase.Background(Red),
	}
}

// SessionState returns the badge style for a session-state name. Unknown
// states fall back to plain text so a new state renders rather than hides.
func (s *Styles) SessionState(state interface{ String() string }) lipgloss.Style {
	color, ok := SessionStateColors[state.String()]
	if !ok {
		color = Text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
