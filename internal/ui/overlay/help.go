package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// KeyBinding is a single key-to-description entry.
type KeyBinding struct {
	Key         string
	Description string
}

// KeyCategory groups bindings under a heading.
type KeyCategory struct {
	Name     string
	Bindings []KeyBinding
}

// helpCategories is the full keybinding reference shown by the overlay.
var helpCategories = []KeyCategory{
	{
		Name: "Navigation",
		Bindings: []KeyBinding{
			{"h/l", "Move between columns"},
			{"j/k", "Move up/down in column"},
			{"gg", "Jump to top of column"},
			{"ge", "Jump to bottom of column"},
			{"gh", "Jump to first column"},
			{"gl", "Jump to last column"},
		},
	},
	{
		Name: "Actions",
		Bindings: []KeyBinding{
			{"Space", "Open action menu"},
			{"Enter", "Show task details"},
		},
	},
	{
		Name: "Modes",
		Bindings: []KeyBinding{
			{"/", "Search"},
			{"f", "Filter menu"},
			{",", "Sort menu"},
			{"v", "Select mode"},
			{"?", "Help (this screen)"},
		},
	},
	{
		Name: "Selection",
		Bindings: []KeyBinding{
			{"Space", "Toggle selection on current task"},
			{"A", "Select all"},
			{"x", "Clear selection"},
		},
	},
	{
		Name: "Other",
		Bindings: []KeyBinding{
			{"Tab", "Toggle compact/kanban view"},
			{"q", "Quit"},
			{"Ctrl+L", "Refresh screen"},
		},
	},
}

// HelpOverlay is the scrollable keybinding reference.
type HelpOverlay struct {
	styles     *Styles
	scroll     int
	maxScroll  int
	viewHeight int
}

// NewHelpOverlay creates the help overlay.
func NewHelpOverlay() *HelpOverlay {
	return &HelpOverlay{
		styles:     New(),
		viewHeight: 20,
	}
}

func (h *HelpOverlay) Init() tea.Cmd {
	return nil
}

func (h *HelpOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}

	switch key.String() {
	case "esc", "q", "?":
		return h, closeCmd()
	case "j", "down":
		h.scroll = min(h.scroll+1, h.maxScroll)
	case "k", "up":
		h.scroll = max(h.scroll-1, 0)
	case "g":
		h.scroll = 0
	case "G":
		h.scroll = h.maxScroll
	}
	return h, nil
}

func (h *HelpOverlay) View() string {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89b4fa")).
		Bold(true)

	var content strings.Builder
	for i, cat := range helpCategories {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(headerStyle.Render(cat.Name + ":"))
		content.WriteString("\n")
		for _, binding := range cat.Bindings {
			content.WriteString("  ")
			content.WriteString(h.styles.MenuKey.Render(binding.Key))
			content.WriteString("  ")
			content.WriteString(h.styles.MenuItem.Render(binding.Description))
			content.WriteString("\n")
		}
	}

	lines := strings.Split(content.String(), "\n")
	h.maxScroll = max(0, len(lines)-h.viewHeight)

	start := min(h.scroll, h.maxScroll)
	end := min(start+h.viewHeight, len(lines))
	result := strings.Join(lines[start:end], "\n")

	if h.maxScroll > 0 {
		keyHint := lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
		result += "\n\n" + h.styles.Footer.Render(
			"["+keyHint.Render("j/k")+" to scroll, "+keyHint.Render("g/G")+" to jump]")
	}
	return result
}

func (h *HelpOverlay) Title() string {
	return "Help"
}

func (h *HelpOverlay) Size() (width, height int) {
	return 50, 24
}
