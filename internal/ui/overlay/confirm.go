package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmDialog asks a yes/no question; No is preselected so a stray Enter
// never confirms a destructive action.
type ConfirmDialog struct {
	title   string
	message string
	styles  *Styles
	yes     bool
}

// ConfirmResult is the dialog's answer, carried in the SelectionMsg value.
type ConfirmResult struct {
	Confirmed bool
}

// NewConfirmDialog creates a confirmation dialog.
func NewConfirmDialog(title, message string) *ConfirmDialog {
	return &ConfirmDialog{
		title:   title,
		message: message,
		styles:  New(),
	}
}

func (c *ConfirmDialog) Init() tea.Cmd {
	return nil
}

func (c *ConfirmDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	switch key.String() {
	case "y", "Y":
		return c, c.answer(true)
	case "n", "N", "esc":
		return c, c.answer(false)
	case "enter":
		return c, c.answer(c.yes)
	case "left", "h":
		c.yes = false
	case "right", "l", "tab":
		c.yes = true
	}
	return c, nil
}

func (c *ConfirmDialog) answer(confirmed bool) tea.Cmd {
	key := "no"
	if confirmed {
		key = "yes"
	}
	return selectCmd(key, ConfirmResult{Confirmed: confirmed})
}

func (c *ConfirmDialog) View() string {
	var b strings.Builder

	if c.message != "" {
		b.WriteString(c.styles.MenuItem.Render(c.message))
		b.WriteString("\n\n")
	}

	selected := 1
	if c.yes {
		selected = 0
	}
	b.WriteString(renderButtonRow(c.styles, []string{"[Y] Yes", "[N] No"}, selected))
	b.WriteString("\n\n")
	b.WriteString(c.styles.Footer.Render("← → / Tab: Switch • Enter: Confirm • Esc: Cancel"))

	return b.String()
}

func (c *ConfirmDialog) Title() string {
	return c.title
}

func (c *ConfirmDialog) Size() (width, height int) {
	messageLines := len(strings.Split(c.message, "\n"))
	return 60, messageLines + 6
}
