package overlay

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// SessionInfo is one active agent session row in the orchestration view.
type SessionInfo struct {
	BeadID       string
	TaskTitle    string
	State        domain.SessionState
	StartedAt    *time.Time
	Worktree     string
	RecentOutput string
}

// OrchestrationOverlay is the fleet view: every live agent session with
// attach / kill / refresh at hand.
type OrchestrationOverlay struct {
	sessions []SessionInfo
	cursor   int
	width    int
	height   int
	styles   *Styles

	onAttach  func(beadID string) tea.Cmd
	onKill    func(beadID string) tea.Cmd
	onRefresh func() tea.Cmd
}

// NewOrchestrationOverlay creates the fleet view over sessions.
func NewOrchestrationOverlay(
	sessions []SessionInfo,
	onAttach func(beadID string) tea.Cmd,
	onKill func(beadID string) tea.Cmd,
	onRefresh func() tea.Cmd,
) *OrchestrationOverlay {
	return &OrchestrationOverlay{
		sessions:  sessions,
		width:     100,
		height:    30,
		styles:    New(),
		onAttach:  onAttach,
		onKill:    onKill,
		onRefresh: onRefresh,
	}
}

func (o *OrchestrationOverlay) Init() tea.Cmd {
	return nil
}

func (o *OrchestrationOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return o, nil
	}

	switch key.String() {
	case "esc", "q", "O":
		return o, closeCmd()
	case "j", "down":
		o.cursor = stepCursor(o.cursor, 1, len(o.sessions))
	case "k", "up":
		o.cursor = stepCursor(o.cursor, -1, len(o.sessions))
	case "g":
		o.cursor = 0
	case "G":
		if len(o.sessions) > 0 {
			o.cursor = len(o.sessions) - 1
		}
	case "enter", "a":
		return o, o.actOnCurrent(o.onAttach)
	case "x":
		return o, o.actOnCurrent(o.onKill)
	case "r":
		if o.onRefresh != nil {
			return o, o.onRefresh()
		}
	}
	return o, nil
}

func (o *OrchestrationOverlay) actOnCurrent(hook func(beadID string) tea.Cmd) tea.Cmd {
	if hook == nil || o.cursor < 0 || o.cursor >= len(o.sessions) {
		return nil
	}
	return hook(o.sessions[o.cursor].BeadID)
}

func (o *OrchestrationOverlay) View() string {
	if len(o.sessions) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.Overlay1).
			Italic(true).
			Align(lipgloss.Center).
			Width(o.width-4).
			Padding(4, 0).
			Render("No active sessions\n\nPress Space on a task to start a session")
	}

	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Foreground(styles.Text).
		Bold(true).
		Padding(0, 1).
		Render(fmt.Sprintf("Active Sessions: %d", len(o.sessions))))
	b.WriteString("\n\n")

	for i, session := range o.sessions {
		b.WriteString(o.renderSession(i, session))
		if i < len(o.sessions)-1 {
			b.WriteString("\n")
			b.WriteString(o.styles.Separator.Render(strings.Repeat("─", o.width-4)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Foreground(styles.Overlay1).
		Padding(1, 1).
		Render("j/k: navigate • enter/a: attach • x: kill • r: refresh • esc: close"))

	return b.String()
}

func (o *OrchestrationOverlay) renderSession(index int, session SessionInfo) string {
	active := index == o.cursor

	withSelection := func(s lipgloss.Style) lipgloss.Style {
		if active {
			return s.Background(styles.Surface0)
		}
		return s
	}

	var b strings.Builder

	cursor := "  "
	if active {
		cursor = lipgloss.NewStyle().Foreground(styles.Blue).Bold(true).Render("▶ ")
	}
	id := lipgloss.NewStyle().Foreground(styles.Mauve).Bold(true).Render(session.BeadID)
	state := o.stateStyle(session.State).Render(
		fmt.Sprintf(" %s %s ", session.State.Icon(), session.State.String()))

	b.WriteString(withSelection(lipgloss.NewStyle().Foreground(styles.Text).Padding(0, 1)).
		Render(fmt.Sprintf("%s%s %s", cursor, id, state)))
	b.WriteString("\n")

	title := truncateLine(session.TaskTitle, o.width-10)
	b.WriteString(withSelection(lipgloss.NewStyle().Foreground(styles.Text).Padding(0, 1, 0, 3)).
		Render(title))
	b.WriteString("\n")

	elapsed := "not started"
	if session.StartedAt != nil {
		elapsed = formatElapsed(time.Since(*session.StartedAt))
	}
	b.WriteString(withSelection(lipgloss.NewStyle().Foreground(styles.Overlay1).Padding(0, 1, 0, 3)).
		Render(fmt.Sprintf("⏱ %s  %s", elapsed, shortenPath(session.Worktree, 40))))

	if preview := lastLine(session.RecentOutput); preview != "" {
		b.WriteString("\n")
		b.WriteString(withSelection(lipgloss.NewStyle().Foreground(styles.Overlay0).Italic(true).Padding(0, 1, 0, 3)).
			Render("» " + truncateLine(preview, o.width-10)))
	}

	return b.String()
}

func (o *OrchestrationOverlay) stateStyle(state domain.SessionState) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(styles.Surface1)
	switch state {
	case domain.SessionBusy:
		return base.Foreground(styles.Yellow)
	case domain.SessionWaiting:
		return base.Foreground(styles.Blue)
	case domain.SessionDone:
		return base.Foreground(styles.Green)
	case domain.SessionError, domain.SessionCrashed:
		return base.Foreground(styles.Red)
	case domain.SessionPaused:
		return base.Foreground(styles.Overlay1)
	default:
		return base.Foreground(styles.Text)
	}
}

func (o *OrchestrationOverlay) Title() string {
	return "Session Orchestration"
}

func (o *OrchestrationOverlay) Size() (width, height int) {
	return o.width, o.height
}

func truncateLine(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// shortenPath keeps the last two path segments when the full path is too
// long to show.
func shortenPath(path string, width int) string {
	if len(path) <= width {
		return path
	}
	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		return ".../" + strings.Join(parts[len(parts)-2:], "/")
	}
	return path
}

func lastLine(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return lines[len(lines)-1]
}

// formatElapsed renders a wall-clock duration as MM:SS or HH:MM:SS.
func formatElapsed(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
