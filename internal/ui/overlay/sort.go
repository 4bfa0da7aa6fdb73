package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// SortOption is one selectable sort key.
type SortOption struct {
	Key         string
	Label       string
	Field       domain.SortField
	Description string
}

// SortMenu picks the board's sort field and direction. Pressing the active
// field's key again flips the direction.
type SortMenu struct {
	sort    *domain.Sort
	options []SortOption
	styles  *Styles
}

// NewSortMenu creates the sort menu bound to the live sort config.
func NewSortMenu(sort *domain.Sort) *SortMenu {
	return &SortMenu{
		sort:   sort,
		styles: New(),
		options: []SortOption{
			{"s", "Session", domain.SortBySession, "Sort by session state (active work first)"},
			{"p", "Priority", domain.SortByPriority, "Sort by priority (P0 highest)"},
			{"u", "Updated", domain.SortByUpdated, "Sort by last updated time"},
		},
	}
}

func (m *SortMenu) Init() tea.Cmd {
	return nil
}

func (m *SortMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch s := key.String(); s {
	case "esc", "q":
		return m, closeCmd()
	default:
		for _, opt := range m.options {
			if opt.Key == s {
				m.sort.Toggle(opt.Field)
				return m, selectCmd(s, m.sort)
			}
		}
	}
	return m, nil
}

func (m *SortMenu) View() string {
	var b strings.Builder

	for _, opt := range m.options {
		active := m.sort.Field == opt.Field

		keyStyle, labelStyle := m.styles.MenuItem, m.styles.MenuItem
		if active {
			keyStyle, labelStyle = m.styles.MenuKey, m.styles.MenuItemActive
		}

		b.WriteString(keyStyle.Render("[" + opt.Key + "]"))
		b.WriteString(" ")
		b.WriteString(labelStyle.Render(opt.Label))
		b.WriteString(" ")
		b.WriteString(m.styles.Footer.Render("(" + opt.Description + ")"))

		if active {
			arrow := "↑"
			if m.sort.Order == domain.SortDesc {
				arrow = "↓"
			}
			b.WriteString(m.styles.MenuItemActive.Render(" ● " + arrow))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("Press same key to toggle direction • Esc to close"))

	return b.String()
}

func (m *SortMenu) Title() string {
	return "Sort"
}

func (m *SortMenu) Size() (width, height int) {
	return 70, len(m.options) + 5
}
