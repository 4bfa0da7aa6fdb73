package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// EpicDrillDown shows an epic's children with a completion bar; selecting
// a child jumps the board cursor to it.
type EpicDrillDown struct {
	epic     domain.Task
	children []domain.Task
	cursor   int
	styles   *Styles
}

// NewEpicDrillDown creates the drill-down for epic over its children.
func NewEpicDrillDown(epic domain.Task, children []domain.Task) *EpicDrillDown {
	return &EpicDrillDown{
		epic:     epic,
		children: children,
		styles:   New(),
	}
}

func (e *EpicDrillDown) Init() tea.Cmd {
	return nil
}

func (e *EpicDrillDown) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return e, nil
	}

	switch key.String() {
	case "q", "esc":
		return e, closeCmd()
	case "j", "down":
		e.cursor = stepCursor(e.cursor, 1, len(e.children))
	case "k", "up":
		e.cursor = stepCursor(e.cursor, -1, len(e.children))
	case "enter":
		if e.cursor >= 0 && e.cursor < len(e.children) {
			return e, selectCmd("select_child", e.children[e.cursor].ID)
		}
	}
	return e, nil
}

func (e *EpicDrillDown) View() string {
	var b strings.Builder

	b.WriteString(e.styles.Title.Render(e.epic.Title))
	b.WriteString("\n")
	b.WriteString(e.renderProgressBar())
	b.WriteString("\n\n")

	if len(e.children) == 0 {
		b.WriteString(e.styles.MenuItem.Foreground(styles.Overlay0).Render("No child tasks"))
		b.WriteString("\n")
	} else {
		for i, child := range e.children {
			b.WriteString(e.renderChild(child, i == e.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(e.styles.Footer.Render("Enter: select • j/k: navigate • q/Esc: close"))

	return b.String()
}

func (e *EpicDrillDown) Title() string {
	return "Epic: " + e.epic.ID
}

func (e *EpicDrillDown) Size() (width, height int) {
	height = 6 + len(e.children)
	if len(e.children) == 0 {
		height = 8
	}
	return 60, height
}

// renderProgressBar draws closed-over-total as a bar colored by how far
// along the epic is.
func (e *EpicDrillDown) renderProgressBar() string {
	total := len(e.children)
	if total == 0 {
		return e.styles.Footer.Render("0/0 (0%)")
	}

	closed := 0
	for _, child := range e.children {
		if child.Status == domain.StatusClosed {
			closed++
		}
	}

	const barWidth = 40
	filled := barWidth * closed / total
	bar := "│" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "│"

	percentage := float64(closed) / float64(total) * 100
	color := styles.Green
	switch {
	case percentage < 33:
		color = styles.Red
	case percentage < 66:
		color = styles.Yellow
	}

	stats := fmt.Sprintf(" %d/%d (%.0f%%)", closed, total, percentage)
	return lipgloss.NewStyle().Foreground(color).Render(bar) + e.styles.Footer.Render(stats)
}

func (e *EpicDrillDown) renderChild(child domain.Task, active bool) string {
	var b strings.Builder

	b.WriteString(statusIcon(child.Status))
	b.WriteString(" ")
	b.WriteString(lipgloss.NewStyle().Foreground(styles.Overlay1).Bold(true).Render(child.ID))
	b.WriteString(" ")

	titleStyle := e.styles.MenuItem
	if active {
		titleStyle = e.styles.MenuItemActive
	}
	b.WriteString(titleStyle.Render(child.Title))

	b.WriteString(" ")
	b.WriteString(lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(styles.PriorityColors[min(int(child.Priority), len(styles.PriorityColors)-1)]).
		Padding(0, 1).
		Render(child.Priority.String()))

	if child.Session != nil {
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Blue).Render(child.Session.State.Icon()))
	}

	return b.String()
}

// statusIcon is the colored one-glyph status marker used in child rows.
func statusIcon(status domain.Status) string {
	var icon string
	var color lipgloss.Color

	switch status {
	case domain.StatusOpen:
		icon, color = "○", styles.Blue
	case domain.StatusInProgress:
		icon, color = "◐", styles.Yellow
	case domain.StatusBlocked:
		icon, color = "◯", styles.Red
	case domain.StatusClosed:
		icon, color = "●", styles.Green
	default:
		icon, color = "?", styles.Overlay0
	}

	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon)
}
