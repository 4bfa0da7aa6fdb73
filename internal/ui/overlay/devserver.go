package overlay

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// DevServerInfo is one named dev server row in the menu.
type DevServerInfo struct {
	ID     string
	Name   string
	Port   int
	Status string // "running", "stopped", "error"
	Uptime time.Duration
}

// DevServerOverlay lists a bead's dev servers with toggle / view / restart
// actions, all routed through caller-supplied hooks.
type DevServerOverlay struct {
	servers   []DevServerInfo
	cursor    int
	beadID    string
	onToggle  func(serverID string) tea.Cmd
	onView    func(serverID string) tea.Cmd
	onRestart func(serverID string) tea.Cmd
	onClose   func() tea.Cmd
	styles    *Styles
}

// NewDevServerOverlay creates the menu for beadID's servers.
func NewDevServerOverlay(
	servers []DevServerInfo,
	beadID string,
	onToggle func(serverID string) tea.Cmd,
	onView func(serverID string) tea.Cmd,
	onRestart func(serverID string) tea.Cmd,
	onClose func() tea.Cmd,
) *DevServerOverlay {
	return &DevServerOverlay{
		servers:   servers,
		beadID:    beadID,
		onToggle:  onToggle,
		onView:    onView,
		onRestart: onRestart,
		onClose:   onClose,
		styles:    New(),
	}
}

func (m *DevServerOverlay) Init() tea.Cmd {
	return nil
}

func (m *DevServerOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc", "q":
		if m.onClose != nil {
			return m, m.onClose()
		}
		return m, closeCmd()
	case "j", "down":
		if len(m.servers) > 0 {
			m.cursor = (m.cursor + 1) % len(m.servers)
		}
	case "k", "up":
		if len(m.servers) > 0 {
			m.cursor = (m.cursor - 1 + len(m.servers)) % len(m.servers)
		}
	case "enter":
		return m, m.actOnCurrent(m.onToggle)
	case "v":
		return m, m.actOnCurrent(m.onView)
	case "r":
		return m, m.actOnCurrent(m.onRestart)
	}
	return m, nil
}

func (m *DevServerOverlay) actOnCurrent(hook func(serverID string) tea.Cmd) tea.Cmd {
	if hook == nil || m.cursor < 0 || m.cursor >= len(m.servers) {
		return nil
	}
	return hook(m.servers[m.cursor].ID)
}

func (m *DevServerOverlay) View() string {
	var b strings.Builder

	if len(m.servers) == 0 {
		b.WriteString(m.styles.MenuItemDisabled.Render("No dev servers configured"))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Footer.Render("Press Escape to close"))
		return b.String()
	}

	for i, server := range m.servers {
		b.WriteString(m.statusBadge(server.Status))
		b.WriteString(" ")

		nameStyle := m.styles.MenuItem
		if i == m.cursor {
			nameStyle = m.styles.MenuItemActive
		}
		b.WriteString(nameStyle.Render(server.Name))

		uptime := "—"
		if server.Status == "running" && server.Uptime > 0 {
			uptime = formatUptime(server.Uptime)
		}
		b.WriteString(fmt.Sprintf(" :%d  %s", server.Port, m.styles.MenuItemDisabled.Render(uptime)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("Enter: toggle • v: view output • r: restart • Esc: close"))

	return b.String()
}

func (m *DevServerOverlay) statusBadge(status string) string {
	switch status {
	case "running":
		return lipgloss.NewStyle().Foreground(styles.Green).Bold(true).Render("●")
	case "stopped":
		return lipgloss.NewStyle().Foreground(styles.Overlay0).Render("○")
	case "error":
		return lipgloss.NewStyle().Foreground(styles.Red).Bold(true).Render("✗")
	default:
		return lipgloss.NewStyle().Foreground(styles.Overlay0).Render("?")
	}
}

func (m *DevServerOverlay) Title() string {
	return "Dev Servers"
}

func (m *DevServerOverlay) Size() (width, height int) {
	width = 50
	for _, server := range m.servers {
		width = max(width, len(server.Name)+20)
	}
	height = len(m.servers) + 4
	if len(m.servers) == 0 {
		height = 6
	}
	return width, height
}

// formatUptime renders a duration at the coarsest useful grain.
func formatUptime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		hours := int(d.Hours())
		return fmt.Sprintf("%dd%dh", hours/24, hours%24)
	}
}
