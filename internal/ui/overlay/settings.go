package overlay

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SettingType is how a settings entry behaves.
type SettingType int

const (
	// SettingToggle flips a boolean with space/enter.
	SettingToggle SettingType = iota
	// SettingChoice cycles through Choices with h/l.
	SettingChoice
	// SettingAction runs OnAction with enter.
	SettingAction
	// SettingSeparator is a non-selectable divider line.
	SettingSeparator
)

// SettingItem is one entry in the settings menu.
type SettingItem struct {
	Key      string
	Label    string
	Type     SettingType
	Value    any
	Choices  []string
	OnChange func(any)
	OnAction func() tea.Cmd
}

// SettingsOverlay is the settings menu.
type SettingsOverlay struct {
	items  []SettingItem
	cursor int
	styles *Styles
}

// NewSettingsOverlay creates the menu over items, with the cursor on the
// first selectable entry.
func NewSettingsOverlay(items []SettingItem) *SettingsOverlay {
	menu := &SettingsOverlay{
		items:  items,
		styles: New(),
	}
	for i, item := range items {
		if item.Type != SettingSeparator {
			menu.cursor = i
			break
		}
	}
	return menu
}

// settingsActions are the entries shared by every settings menu variant.
func settingsActions() []SettingItem {
	return []SettingItem{
		{Type: SettingSeparator, Label: "───────────────────"},
		{
			Key:      "editor",
			Label:    "Open config in $EDITOR",
			Type:     SettingAction,
			OnAction: openConfigInEditor,
		},
		{
			Key:   "projects",
			Label: "Manage projects",
			Type:  SettingAction,
			OnAction: func() tea.Cmd {
				return selectCmd("projects", nil)
			},
		},
	}
}

// NewDefaultSettingsOverlay builds the menu without an editor service
// bound (used where only the config actions matter).
func NewDefaultSettingsOverlay() *SettingsOverlay {
	return NewSettingsOverlay(settingsActions()[1:])
}

// NewSettingsOverlayWithEditor builds the full menu bound to the editor
// service's display toggles.
func NewSettingsOverlayWithEditor(editor interface {
	GetShowPhases() bool
	ToggleShowPhases()
}) *SettingsOverlay {
	items := []SettingItem{
		{
			Key:   "phases",
			Label: "Show dependency phases",
			Type:  SettingToggle,
			Value: editor.GetShowPhases(),
			OnChange: func(any) {
				editor.ToggleShowPhases()
			},
		},
	}
	return NewSettingsOverlay(append(items, settingsActions()...))
}

func (m *SettingsOverlay) Init() tea.Cmd {
	return nil
}

func (m *SettingsOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc", "q":
		return m, closeCmd()
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "h", "left":
		m.cycleChoice(-1)
	case "l", "right":
		m.cycleChoice(1)
	case " ", "space", "enter":
		return m, m.activate()
	}
	return m, nil
}

// moveCursor steps over separators in the given direction, wrapping.
func (m *SettingsOverlay) moveCursor(delta int) {
	n := len(m.items)
	for i := 1; i <= n; i++ {
		next := (m.cursor + i*delta%n + n) % n
		if m.items[next].Type != SettingSeparator {
			m.cursor = next
			return
		}
	}
}

// activate runs the current entry: toggles flip, actions fire.
func (m *SettingsOverlay) activate() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	item := &m.items[m.cursor]

	switch item.Type {
	case SettingToggle:
		if v, ok := item.Value.(bool); ok {
			item.Value = !v
			if item.OnChange != nil {
				item.OnChange(item.Value)
			}
		}
	case SettingAction:
		if item.OnAction != nil {
			return item.OnAction()
		}
	}
	return nil
}

// cycleChoice moves a choice entry's value by delta, wrapping.
func (m *SettingsOverlay) cycleChoice(delta int) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	item := &m.items[m.cursor]
	if item.Type != SettingChoice || len(item.Choices) == 0 {
		return
	}

	current := -1
	if v, ok := item.Value.(string); ok {
		for i, choice := range item.Choices {
			if choice == v {
				current = i
				break
			}
		}
	}

	n := len(item.Choices)
	item.Value = item.Choices[((current+delta)%n+n)%n]
	if item.OnChange != nil {
		item.OnChange(item.Value)
	}
}

func (m *SettingsOverlay) View() string {
	var b strings.Builder

	for i, item := range m.items {
		if item.Type == SettingSeparator {
			b.WriteString(m.styles.Separator.Render(item.Label))
			b.WriteString("\n")
			continue
		}

		style := m.styles.MenuItem
		if i == m.cursor {
			style = m.styles.MenuItemActive
		}

		b.WriteString(m.styles.MenuKey.Render("[" + item.Key + "]"))
		b.WriteString(" ")
		b.WriteString(style.Render(item.Label))

		switch item.Type {
		case SettingToggle:
			value := "off"
			if v, ok := item.Value.(bool); ok && v {
				value = "on"
			}
			b.WriteString(" ")
			b.WriteString(style.Render("[" + value + "]"))
		case SettingChoice:
			if v, ok := item.Value.(string); ok {
				b.WriteString(" ")
				b.WriteString(style.Render("<" + v + ">"))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("j/k: navigate • h/l: change choice • space/enter: toggle/activate • esc: close"))

	return b.String()
}

func (m *SettingsOverlay) Title() string {
	return "Settings"
}

func (m *SettingsOverlay) Size() (width, height int) {
	return 60, len(m.items) + 6
}

// openConfigInEditor blocks on $EDITOR over the project-local config file
// (the same path config.LoadConfig reads).
func openConfigInEditor() tea.Cmd {
	return func() tea.Msg {
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vim"
		}

		cwd, err := os.Getwd()
		if err != nil {
			return SelectionMsg{Key: "editor-error", Value: fmt.Errorf("failed to get current directory: %w", err)}
		}

		cmd := exec.Command(editor, cwd+"/.azedarach.json")
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return SelectionMsg{Key: "editor-error", Value: fmt.Errorf("failed to open editor: %w", err)}
		}
		return SelectionMsg{Key: "editor-closed"}
	}
}
