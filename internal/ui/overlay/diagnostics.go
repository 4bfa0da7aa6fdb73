package overlay

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/services/diagnostics"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// DiagnosticsCollector is the slice of the diagnostics service the panel
// needs.
type DiagnosticsCollector interface {
	CollectDiagnostics(ctx context.Context, sessions map[string]*domain.Session, beadsPath *string) *diagnostics.SystemDiagnostics
}

// DiagnosticsRefreshMsg delivers a fresh snapshot to the panel.
type DiagnosticsRefreshMsg struct {
	Diagnostics *diagnostics.SystemDiagnostics
}

// diagSection is one tab of the panel; render produces its body lines from
// the current snapshot.
type diagSection struct {
	key    string
	name   string
	render func(d *DiagnosticsPanel, b *strings.Builder)
}

var diagSections = []diagSection{
	{"1", "Overview", (*DiagnosticsPanel).renderOverview},
	{"2", "Ports", (*DiagnosticsPanel).renderPorts},
	{"3", "Sessions", (*DiagnosticsPanel).renderSessions},
	{"4", "Worktrees", (*DiagnosticsPanel).renderWorktrees},
	{"5", "Network", (*DiagnosticsPanel).renderNetwork},
	{"6", "System", (*DiagnosticsPanel).renderSystem},
}

// DiagnosticsPanel is the scrollable health report overlay.
type DiagnosticsPanel struct {
	collector DiagnosticsCollector
	sessions  map[string]*domain.Session
	snapshot  *diagnostics.SystemDiagnostics

	section    int
	scrollY    int
	viewHeight int
	styles     *Styles
}

// NewDiagnosticsPanel creates the panel; the first snapshot is collected by
// Init.
func NewDiagnosticsPanel(collector DiagnosticsCollector, sessions map[string]*domain.Session) *DiagnosticsPanel {
	return &DiagnosticsPanel{
		collector:  collector,
		sessions:   sessions,
		viewHeight: 20,
		styles:     New(),
	}
}

func (d *DiagnosticsPanel) Init() tea.Cmd {
	return d.refreshCmd()
}

func (d *DiagnosticsPanel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return DiagnosticsRefreshMsg{
			Diagnostics: d.collector.CollectDiagnostics(ctx, d.sessions, nil),
		}
	}
}

func (d *DiagnosticsPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DiagnosticsRefreshMsg:
		d.snapshot = msg.Diagnostics
		return d, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "esc", "q":
			return d, closeCmd()
		case "r":
			return d, d.refreshCmd()
		case "j", "down":
			d.scrollY = stepCursor(d.scrollY, 1, d.maxScroll()+1)
		case "k", "up":
			d.scrollY = stepCursor(d.scrollY, -1, d.maxScroll()+1)
		case "g":
			d.scrollY = 0
		case "G":
			d.scrollY = d.maxScroll()
		case "tab":
			d.section = (d.section + 1) % len(diagSections)
			d.scrollY = 0
		default:
			for i, s := range diagSections {
				if s.key == key {
					d.section = i
					d.scrollY = 0
				}
			}
		}
	}
	return d, nil
}

func (d *DiagnosticsPanel) View() string {
	var b strings.Builder

	// Tab line
	var tabs []string
	for i, s := range diagSections {
		style := d.styles.MenuItem
		if i == d.section {
			style = d.styles.MenuItemActive
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%s] %s", s.key, s.name)))
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n\n")

	if d.snapshot == nil {
		b.WriteString(d.styles.MenuItemDisabled.Render("Collecting diagnostics..."))
		return b.String()
	}

	var body strings.Builder
	diagSections[d.section].render(d, &body)

	// Scroll window over the body.
	lines := strings.Split(strings.TrimRight(body.String(), "\n"), "\n")
	top := d.scrollY
	if top > len(lines) {
		top = len(lines)
	}
	end := top + d.viewHeight
	if end > len(lines) {
		end = len(lines)
	}
	b.WriteString(strings.Join(lines[top:end], "\n"))
	b.WriteString("\n\n")
	b.WriteString(d.styles.Footer.Render("Tab/1-6: sections • j/k: scroll • r: refresh • Esc: close"))

	return b.String()
}

func (d *DiagnosticsPanel) renderOverview(b *strings.Builder) {
	diag := d.snapshot

	state := strings.ToUpper(string(diag.OverallState))
	b.WriteString(d.styles.MenuHeader.Render("Status: "))
	b.WriteString(lipgloss.NewStyle().Foreground(d.healthColor(diag.OverallState)).Bold(true).Render(state))
	b.WriteString("\n")
	b.WriteString(d.styles.MenuItem.Render(fmt.Sprintf("Collected: %s", diag.Timestamp.Format("15:04:05"))))
	b.WriteString("\n\n")

	b.WriteString(d.styles.MenuItem.Render(fmt.Sprintf(
		"Sessions: %d   Ports: %d   Worktrees: %d", len(diag.Sessions), len(diag.Ports), len(diag.Worktrees))))
	b.WriteString("\n\n")

	if len(diag.Errors) > 0 {
		b.WriteString(d.styles.MenuHeader.Render("Errors"))
		b.WriteString("\n")
		for _, e := range diag.Errors {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Red).Render("  ✗ " + e))
			b.WriteString("\n")
		}
	}
	if len(diag.Warnings) > 0 {
		b.WriteString(d.styles.MenuHeader.Render("Warnings"))
		b.WriteString("\n")
		for _, w := range diag.Warnings {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Yellow).Render("  ! " + w))
			b.WriteString("\n")
		}
	}
	if len(diag.Errors) == 0 && len(diag.Warnings) == 0 {
		b.WriteString(d.styles.MenuCount.Render("No problems found"))
		b.WriteString("\n")
	}
}

func (d *DiagnosticsPanel) renderPorts(b *strings.Builder) {
	if len(d.snapshot.Ports) == 0 {
		b.WriteString(d.styles.MenuItemDisabled.Render("No ports allocated"))
		b.WriteString("\n")
		return
	}

	b.WriteString(d.styles.MenuHeader.Render(fmt.Sprintf("%-7s %-12s %-8s %s", "PORT", "BEAD", "IN USE", "STATE")))
	b.WriteString("\n")
	for _, p := range d.snapshot.Ports {
		inUse := "no"
		if p.InUse {
			inUse = "yes"
		}
		state := "free"
		if !p.Available {
			state = "bound"
		}
		b.WriteString(d.styles.MenuItem.Render(fmt.Sprintf("%-7d %-12s %-8s %s", p.Port, p.BeadID, inUse, state)))
		b.WriteString("\n")
	}
}

func (d *DiagnosticsPanel) renderSessions(b *strings.Builder) {
	if len(d.snapshot.Sessions) == 0 {
		b.WriteString(d.styles.MenuItemDisabled.Render("No active sessions"))
		b.WriteString("\n")
		return
	}

	b.WriteString(d.styles.MenuHeader.Render(fmt.Sprintf("%-12s %-14s %s", "BEAD", "STATE", "UPTIME")))
	b.WriteString("\n")
	for _, s := range d.snapshot.Sessions {
		uptime := "-"
		if s.Uptime > 0 {
			uptime = s.Uptime.Truncate(time.Second).String()
		}
		b.WriteString(d.styles.MenuItem.Render(fmt.Sprintf("%-12s %s %-12s %s", s.BeadID, s.State.Icon(), s.State, uptime)))
		b.WriteString("\n")
	}
}

func (d *DiagnosticsPanel) renderWorktrees(b *strings.Builder) {
	if len(d.snapshot.Worktrees) == 0 {
		b.WriteString(d.styles.MenuItemDisabled.Render("No worktrees"))
		b.WriteString("\n")
		return
	}

	for _, w := range d.snapshot.Worktrees {
		marker := d.styles.MenuCount.Render("✓")
		if !w.IsHealthy {
			marker = lipgloss.NewStyle().Foreground(styles.Red).Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %s", marker, d.styles.MenuItem.Render(w.Path)))
		b.WriteString("\n")
	}
}

func (d *DiagnosticsPanel) renderNetwork(b *strings.Builder) {
	net := d.snapshot.Network

	status := "online"
	color := styles.Green
	if !net.IsOnline {
		status = "offline"
		color = styles.Red
	}
	b.WriteString(d.styles.MenuHeader.Render("Connectivity: "))
	b.WriteString(lipgloss.NewStyle().Foreground(color).Bold(true).Render(status))
	b.WriteString("\n")
	if !net.LastCheck.IsZero() {
		b.WriteString(d.styles.MenuItem.Render("Last check: " + net.LastCheck.Format("15:04:05")))
		b.WriteString("\n")
	}
	if !net.IsOnline {
		b.WriteString("\n")
		b.WriteString(d.styles.MenuItemDisabled.Render("Fetch, push, and PR actions are disabled while offline."))
		b.WriteString("\n")
	}
}

func (d *DiagnosticsPanel) renderSystem(b *strings.Builder) {
	sys := d.snapshot.System

	rows := []struct{ label, value string }{
		{"Go", sys.GoVersion},
		{"Platform", sys.OS + "/" + sys.Arch},
		{"Goroutines", fmt.Sprintf("%d", sys.NumGoroutine)},
		{"Heap", fmt.Sprintf("%.1f MB", float64(sys.MemoryUsage)/(1024*1024))},
	}
	for _, row := range rows {
		b.WriteString(d.styles.MenuHeader.Render(fmt.Sprintf("%-12s", row.label)))
		b.WriteString(d.styles.MenuItem.Render(row.value))
		b.WriteString("\n")
	}
}

func (d *DiagnosticsPanel) healthColor(status diagnostics.HealthStatus) lipgloss.Color {
	switch status {
	case diagnostics.HealthHealthy:
		return styles.Green
	case diagnostics.HealthDegraded:
		return styles.Yellow
	default:
		return styles.Red
	}
}

func (d *DiagnosticsPanel) maxScroll() int {
	if d.snapshot == nil {
		return 0
	}
	var body strings.Builder
	diagSections[d.section].render(d, &body)
	lines := len(strings.Split(strings.TrimRight(body.String(), "\n"), "\n"))
	if lines <= d.viewHeight {
		return 0
	}
	return lines - d.viewHeight
}

func (d *DiagnosticsPanel) Title() string {
	return "Diagnostics"
}

func (d *DiagnosticsPanel) Size() (width, height int) {
	return 78, d.viewHeight + 6
}
