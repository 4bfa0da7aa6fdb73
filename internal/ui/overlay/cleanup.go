package overlay

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// CleanupCategory is one selectable cleanup operation.
type CleanupCategory struct {
	ID           string
	Label        string
	Description  string
	Count        int
	SizeEstimate string
	Selected     bool
	Destructive  bool // destructive categories require confirmation
}

// CleanupFunc performs the selected cleanup operations.
type CleanupFunc func(ctx context.Context, categoryIDs []string) (CleanupResult, error)

// CleanupResult tallies what a cleanup pass touched.
type CleanupResult struct {
	Deleted          int
	Archived         int
	WorktreesRemoved int
	SessionsCleaned  int
}

// CleanupExecutedMsg delivers the cleanup outcome to the app model.
type CleanupExecutedMsg struct {
	Result CleanupResult
	Error  error
}

// BulkCleanupOverlay is the multi-select cleanup menu; destructive picks go
// through an inline yes/no confirmation before running.
type BulkCleanupOverlay struct {
	categories  []CleanupCategory
	cursor      int
	confirming  bool
	confirmYes  bool
	styles      *Styles
	cleanupFunc CleanupFunc
	errText     string
}

// NewBulkCleanupOverlay builds the menu; counts size the estimates shown
// next to each category.
func NewBulkCleanupOverlay(cleanupFunc CleanupFunc, taskCount, worktreeCount, sessionCount int) *BulkCleanupOverlay {
	oldDone := taskCount / 10
	allDone := taskCount / 4

	return &BulkCleanupOverlay{
		categories: []CleanupCategory{
			{
				ID:           "delete_old_done",
				Label:        "Delete completed tasks (>30 days)",
				Description:  "Permanently remove done tasks older than 30 days",
				Count:        oldDone,
				SizeEstimate: fmt.Sprintf("~%d tasks", oldDone),
				Destructive:  true,
			},
			{
				ID:           "archive_done",
				Label:        "Archive all done tasks",
				Description:  "Move all done tasks to archive",
				Count:        allDone,
				SizeEstimate: fmt.Sprintf("~%d tasks", allDone),
			},
			{
				ID:           "remove_orphaned_worktrees",
				Label:        "Remove orphaned worktrees",
				Description:  "Delete worktrees with no active sessions",
				Count:        worktreeCount,
				SizeEstimate: fmt.Sprintf("~%d worktrees", worktreeCount),
				Destructive:  true,
			},
			{
				ID:           "clean_stale_sessions",
				Label:        "Clean stale sessions",
				Description:  "Remove sessions inactive for >24 hours",
				Count:        sessionCount,
				SizeEstimate: fmt.Sprintf("~%d sessions", sessionCount),
			},
		},
		styles:      New(),
		cleanupFunc: cleanupFunc,
	}
}

func (c *BulkCleanupOverlay) Init() tea.Cmd {
	return nil
}

func (c *BulkCleanupOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	if c.confirming {
		return c.updateConfirm(key)
	}
	return c.updateList(key)
}

func (c *BulkCleanupOverlay) updateList(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "q":
		return c, closeCmd()
	case "j", "down":
		c.cursor = stepCursor(c.cursor, 1, len(c.categories))
	case "k", "up":
		c.cursor = stepCursor(c.cursor, -1, len(c.categories))
	case " ":
		c.categories[c.cursor].Selected = !c.categories[c.cursor].Selected
	case "a":
		for i := range c.categories {
			c.categories[i].Selected = true
		}
	case "A":
		for i := range c.categories {
			c.categories[i].Selected = false
		}
	case "enter":
		selected, destructive := c.selectionState()
		switch {
		case !selected:
			c.errText = "No categories selected"
		case destructive:
			c.confirming = true
			c.confirmYes = false
		default:
			return c, c.executeCleanup()
		}
	}
	return c, nil
}

func (c *BulkCleanupOverlay) updateConfirm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "y", "Y":
		c.confirming = false
		return c, c.executeCleanup()
	case "n", "N", "esc":
		c.confirming = false
	case "enter":
		c.confirming = false
		if c.confirmYes {
			return c, c.executeCleanup()
		}
	case "left", "h":
		c.confirmYes = false
	case "right", "l", "tab":
		c.confirmYes = true
	}
	return c, nil
}

func (c *BulkCleanupOverlay) selectionState() (anySelected, anyDestructive bool) {
	for _, cat := range c.categories {
		if cat.Selected {
			anySelected = true
			if cat.Destructive {
				anyDestructive = true
			}
		}
	}
	return anySelected, anyDestructive
}

func (c *BulkCleanupOverlay) executeCleanup() tea.Cmd {
	if c.cleanupFunc == nil {
		return func() tea.Msg {
			return CleanupExecutedMsg{Error: fmt.Errorf("cleanup function not configured")}
		}
	}

	var ids []string
	for _, cat := range c.categories {
		if cat.Selected {
			ids = append(ids, cat.ID)
		}
	}

	return func() tea.Msg {
		result, err := c.cleanupFunc(context.Background(), ids)
		return CleanupExecutedMsg{Result: result, Error: err}
	}
}

func (c *BulkCleanupOverlay) View() string {
	if c.confirming {
		return c.renderConfirm()
	}
	return c.renderList()
}

func (c *BulkCleanupOverlay) renderList() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89b4fa")).
		Bold(true).
		Render("Bulk Cleanup Operations"))
	b.WriteString("\n\n")

	for i, cat := range c.categories {
		style, indicator := c.styles.MenuItem, "  "
		if i == c.cursor {
			style, indicator = c.styles.MenuItemActive, "▶ "
		}
		checkbox := "[ ]"
		if cat.Selected {
			checkbox = "[✓]"
		}

		b.WriteString(style.Render(fmt.Sprintf("%s%s %s (%s)", indicator, checkbox, cat.Label, cat.SizeEstimate)))
		b.WriteString("\n")

		if i == c.cursor {
			b.WriteString("   ")
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color("#94e2d5")).
				Italic(true).
				Render(cat.Description))
			b.WriteString("\n")
		}
	}

	if c.errText != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f38ba8")).
			Bold(true).
			Render("Error: " + c.errText))
	}

	b.WriteString("\n")
	b.WriteString(c.styles.Separator.Render(strings.Repeat("─", 70)))
	b.WriteString("\n\n")

	hints := []string{
		c.styles.MenuKey.Render("j/k") + " " + c.styles.Footer.Render("Navigate"),
		c.styles.MenuKey.Render("Space") + " " + c.styles.Footer.Render("Toggle"),
		c.styles.MenuKey.Render("a/A") + " " + c.styles.Footer.Render("Select/deselect all"),
		c.styles.MenuKey.Render("Enter") + " " + c.styles.Footer.Render("Execute"),
		c.styles.MenuKey.Render("Esc") + " " + c.styles.Footer.Render("Cancel"),
	}
	b.WriteString(c.styles.Footer.Render(strings.Join(hints, " • ")))

	return b.String()
}

func (c *BulkCleanupOverlay) renderConfirm() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f38ba8")).
		Bold(true).
		Render("⚠ Confirm Destructive Operation"))
	b.WriteString("\n\n")
	b.WriteString(c.styles.MenuItem.Render("This will perform the following operations:"))
	b.WriteString("\n\n")

	for _, cat := range c.categories {
		if cat.Selected && cat.Destructive {
			b.WriteString(c.styles.MenuKey.Render("  • "))
			b.WriteString(c.styles.MenuItem.Render(cat.Label))
			b.WriteString(c.styles.Footer.Render(fmt.Sprintf(" (%s)", cat.SizeEstimate)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(c.styles.MenuItem.Render("Are you sure you want to continue?"))
	b.WriteString("\n\n")

	selected := 1
	if c.confirmYes {
		selected = 0
	}
	b.WriteString(renderButtonRow(c.styles, []string{"[Y] Yes", "[N] No"}, selected))
	b.WriteString("\n\n")
	b.WriteString(c.styles.Footer.Render("← → / Tab: Switch • Enter: Confirm • Esc: Cancel"))

	return b.String()
}

func (c *BulkCleanupOverlay) Title() string {
	return "Bulk Cleanup"
}

func (c *BulkCleanupOverlay) Size() (width, height int) {
	if c.confirming {
		return 70, 20
	}
	return 75, (len(c.categories) * 2) + 10
}
