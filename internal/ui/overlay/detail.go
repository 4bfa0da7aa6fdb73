package overlay

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// descriptionWrapWidth bounds glamour's word-wrap so rendered description
// text fits comfortably inside the overlay's fixed 70-column Size().
const descriptionWrapWidth = 64

// DetailPanel shows one task's full fields, its live session if any, and
// the markdown description in a scrollable region.
type DetailPanel struct {
	task          domain.Task
	session       *domain.Session
	scrollY       int
	descLines     []string
	contentHeight int
	viewHeight    int
	styles        *Styles
}

// NewDetailPanel creates the panel; the description is rendered once, up
// front.
func NewDetailPanel(task domain.Task, session *domain.Session) *DetailPanel {
	descLines := renderDescription(task.Description)

	return &DetailPanel{
		task:          task,
		session:       session,
		descLines:     descLines,
		contentHeight: len(descLines),
		viewHeight:    20,
		styles:        New(),
	}
}

// renderDescription renders markdown through glamour for display in the
// overlay's terminal viewport, falling back to the raw text split into
// lines if the renderer can't be built or the input isn't valid markdown.
func renderDescription(markdown string) []string {
	if markdown == "" {
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(descriptionWrapWidth),
	)
	if err != nil {
		return strings.Split(markdown, "\n")
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return strings.Split(markdown, "\n")
	}
	return strings.Split(strings.TrimRight(rendered, "\n"), "\n")
}

func (d *DetailPanel) Init() tea.Cmd {
	return nil
}

func (d *DetailPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil
	}

	switch key.String() {
	case "esc", "q":
		return d, closeCmd()
	case "j", "down":
		d.scrollY = min(d.scrollY+1, d.maxScroll())
	case "k", "up":
		d.scrollY = max(d.scrollY-1, 0)
	case "g":
		d.scrollY = 0
	case "G":
		d.scrollY = d.maxScroll()
	}
	return d, nil
}

func (d *DetailPanel) View() string {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89b4fa")).
		Bold(true)
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#94e2d5")).
		Width(12).
		Align(lipgloss.Right)

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString("  ")
		b.WriteString(d.styles.MenuItem.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("[%s] %s", d.task.ID, d.task.Title)))
	b.WriteString("\n\n")

	row("Status:", d.formatStatus(d.task.Status))
	row("Priority:", d.task.Priority.String())
	row("Type:", string(d.task.Type))
	if d.task.ParentID != nil {
		row("Parent:", *d.task.ParentID)
	}
	row("Created:", d.formatTime(d.task.CreatedAt))
	row("Updated:", d.formatTime(d.task.UpdatedAt))

	if d.session != nil {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Session"))
		b.WriteString("\n")

		row("State:", fmt.Sprintf("%s %s", d.session.State.Icon(), string(d.session.State)))
		if d.session.StartedAt != nil {
			row("Started:", d.formatTime(*d.session.StartedAt))
			row("Elapsed:", d.formatDuration(time.Since(*d.session.StartedAt)))
		}
		if d.session.Worktree != "" {
			row("Worktree:", d.session.Worktree)
		}
		if ds := d.session.DevServer; ds != nil && ds.Running {
			row("Dev Server:", fmt.Sprintf(":%d (%s)", ds.Port, ds.Command))
		}
	}

	if len(d.descLines) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Description"))
		b.WriteString("\n")

		end := min(d.scrollY+d.viewHeight, len(d.descLines))
		for _, line := range d.descLines[min(d.scrollY, end):end] {
			b.WriteString(line)
			b.WriteString("\n")
		}

		if d.maxScroll() > 0 {
			b.WriteString("\n")
			b.WriteString(d.styles.Footer.Render(
				fmt.Sprintf("[j/k to scroll, g/G to jump] (line %d/%d)", d.scrollY+1, d.contentHeight)))
		}
	}

	return b.String()
}

func (d *DetailPanel) Title() string {
	return "Task Details: " + d.task.ID
}

func (d *DetailPanel) Size() (width, height int) {
	d.viewHeight = 15
	return 70, 30
}

func (d *DetailPanel) formatStatus(status domain.Status) string {
	switch status {
	case domain.StatusOpen:
		return "Open"
	case domain.StatusInProgress:
		return "In Progress"
	case domain.StatusBlocked:
		return "Blocked"
	case domain.StatusClosed:
		return "Done"
	default:
		return string(status)
	}
}

func (d *DetailPanel) formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func (d *DetailPanel) formatDuration(dur time.Duration) string {
	hours := int(dur.Hours())
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func (d *DetailPanel) maxScroll() int {
	return max(0, d.contentHeight-d.viewHeight)
}
