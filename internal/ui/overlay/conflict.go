package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// ConflictOverlay lists a merge's conflicted files and the ways out: hand
// the conflict to the agent, open the files manually, or abort the merge.
type ConflictOverlay struct {
	files         []string
	cursor        int
	onResolve     func() tea.Cmd
	onAbort       func() tea.Cmd
	overlayStyles *Styles
}

// ConflictResolutionMsg reports which way the user chose.
type ConflictResolutionMsg struct {
	ResolveWithClaude bool
	Abort             bool
	OpenManually      bool
}

// NewConflictOverlay creates the overlay with optional resolution hooks;
// without hooks the choice is emitted as a SelectionMsg instead.
func NewConflictOverlay(files []string, onResolve, onAbort func() tea.Cmd) *ConflictOverlay {
	return &ConflictOverlay{
		files:         files,
		onResolve:     onResolve,
		onAbort:       onAbort,
		overlayStyles: New(),
	}
}

// NewConflictDialog creates the overlay without hooks.
func NewConflictDialog(files []string) *ConflictOverlay {
	return NewConflictOverlay(files, nil, nil)
}

func (c *ConflictOverlay) Init() tea.Cmd {
	return nil
}

func (c *ConflictOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	switch key.String() {
	case "esc", "q":
		return c, closeCmd()
	case "c", "C":
		if c.onResolve != nil {
			return c, c.onResolve()
		}
		return c, selectCmd("claude", ConflictResolutionMsg{ResolveWithClaude: true})
	case "a", "A":
		if c.onAbort != nil {
			return c, c.onAbort()
		}
		return c, selectCmd("abort", ConflictResolutionMsg{Abort: true})
	case "o", "O":
		return c, selectCmd("manual", ConflictResolutionMsg{OpenManually: true})
	case "j", "down":
		c.cursor = stepCursor(c.cursor, 1, len(c.files))
	case "k", "up":
		c.cursor = stepCursor(c.cursor, -1, len(c.files))
	}
	return c, nil
}

func (c *ConflictOverlay) View() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Foreground(styles.Red).Bold(true).Render("⚠ Merge conflicts detected!"))
	b.WriteString("\n\n")

	if len(c.files) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Yellow).Bold(true).Render("Conflicted files:"))
		b.WriteString("\n")
		for i, file := range c.files {
			if i == c.cursor {
				b.WriteString(lipgloss.NewStyle().Foreground(styles.Blue).Render("▸ "))
				b.WriteString(c.overlayStyles.MenuItemActive.Render(file))
			} else {
				b.WriteString("  ")
				b.WriteString(c.overlayStyles.MenuItem.Render(file))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(c.overlayStyles.Separator.Render("───────────────────────────────"))
	b.WriteString("\n")

	options := []struct {
		key, label, desc string
		color            lipgloss.Color
	}{
		{"c", "Resolve with Claude", "Use Claude Code to resolve conflicts", styles.Green},
		{"o", "Open manually", "Open files in your editor", styles.Blue},
		{"a", "Abort merge", "Cancel the merge operation", styles.Red},
	}
	for _, opt := range options {
		b.WriteString(lipgloss.NewStyle().Foreground(opt.color).Bold(true).Render("[" + opt.key + "]"))
		b.WriteString(" ")
		b.WriteString(c.overlayStyles.MenuItem.Bold(true).Render(opt.label))
		b.WriteString(" ")
		b.WriteString(c.overlayStyles.Footer.Render("- " + opt.desc))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(c.overlayStyles.Footer.Render("j/k: navigate • Esc: close"))

	return b.String()
}

func (c *ConflictOverlay) Title() string {
	return "Merge Conflicts"
}

func (c *ConflictOverlay) Size() (width, height int) {
	fileLines := min(len(c.files), 10)
	return 70, 8 + fileLines
}
