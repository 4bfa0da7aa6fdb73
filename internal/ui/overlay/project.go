package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/config"
)

// ProjectSelectedMsg asks the app to switch to the chosen project.
type ProjectSelectedMsg struct {
	Project config.Project
}

// ProjectSelector lists registered projects for switching, plus registry
// management (default, remove, add, detect-from-cwd). Registry mutations
// are reported back as keyed SelectionMsgs the app turns into toasts.
type ProjectSelector struct {
	registry *config.ProjectsRegistry
	cursor   int
	adding   bool // showing the add-project submenu
	styles   *Styles
}

// NewProjectSelector creates the selector over the live registry.
func NewProjectSelector(registry *config.ProjectsRegistry) *ProjectSelector {
	return &ProjectSelector{
		registry: registry,
		styles:   New(),
	}
}

func (m *ProjectSelector) Init() tea.Cmd {
	return nil
}

func (m *ProjectSelector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc", "q":
		if m.adding {
			m.adding = false
			return m, nil
		}
		return m, closeCmd()
	case "j", "down":
		m.cursor = stepCursor(m.cursor, 1, m.itemCount())
	case "k", "up":
		m.cursor = stepCursor(m.cursor, -1, m.itemCount())
	case "enter":
		if m.adding {
			return m, m.runAddAction()
		}
		return m, m.selectProject()
	case "d":
		if !m.adding && len(m.registry.Projects) > 0 {
			return m, m.setAsDefault()
		}
	case "x":
		if !m.adding && len(m.registry.Projects) > 0 {
			return m, m.removeProject()
		}
	case "a":
		if !m.adding {
			m.adding = true
			m.cursor = 0
		}
	case "D":
		if !m.adding {
			return m, m.detectAndAdd()
		}
	}
	return m, nil
}

func (m *ProjectSelector) itemCount() int {
	if m.adding {
		return 3
	}
	return max(len(m.registry.Projects), 1)
}

func (m *ProjectSelector) View() string {
	if m.adding {
		return m.viewAddMenu()
	}
	return m.viewList()
}

func (m *ProjectSelector) viewList() string {
	var b strings.Builder

	if len(m.registry.Projects) == 0 {
		b.WriteString(m.styles.MenuItem.Render("No projects registered"))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Footer.Render("a: add project • D: detect from cwd • esc: close"))
		return b.String()
	}

	for i, project := range m.registry.Projects {
		style := m.styles.MenuItem
		if i == m.cursor {
			style = m.styles.MenuItemActive
		}

		line := project.Name
		if project.Name == m.registry.DefaultProject {
			line += " " + m.styles.MenuKey.Render("[default]")
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("  " + project.Path))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("enter: switch • d: set default • x: remove • a: add • D: detect • esc: close"))

	return b.String()
}

func (m *ProjectSelector) viewAddMenu() string {
	var b strings.Builder

	actions := []string{"Add project manually", "Detect from current directory", "Cancel"}
	for i, label := range actions {
		style := m.styles.MenuItem
		if i == m.cursor {
			style = m.styles.MenuItemActive
		}
		b.WriteString(m.styles.MenuKey.Render("[" + string(rune('1'+i)) + "]"))
		b.WriteString(" ")
		b.WriteString(style.Render(label))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("enter: select • esc: back"))

	return b.String()
}

func (m *ProjectSelector) Title() string {
	if m.adding {
		return "Add Project"
	}
	return "Projects"
}

func (m *ProjectSelector) Size() (width, height int) {
	if m.adding {
		return 50, 10
	}
	return 70, max(len(m.registry.Projects)*2+6, 10)
}

func (m *ProjectSelector) selectProject() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.registry.Projects) {
		return nil
	}
	project := m.registry.Projects[m.cursor]
	return func() tea.Msg { return ProjectSelectedMsg{Project: project} }
}

func (m *ProjectSelector) setAsDefault() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.registry.Projects) {
		return nil
	}
	project := m.registry.Projects[m.cursor]

	return func() tea.Msg {
		if err := m.registry.SetDefault(project.Name); err != nil {
			return SelectionMsg{Key: "set-default-error", Value: err}
		}
		if err := config.SaveProjectsRegistry(m.registry); err != nil {
			return SelectionMsg{Key: "save-error", Value: err}
		}
		return SelectionMsg{Key: "set-default-success", Value: project.Name}
	}
}

func (m *ProjectSelector) removeProject() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.registry.Projects) {
		return nil
	}
	project := m.registry.Projects[m.cursor]

	return func() tea.Msg {
		if err := m.registry.Remove(project.Name); err != nil {
			return SelectionMsg{Key: "remove-error", Value: err}
		}
		if err := config.SaveProjectsRegistry(m.registry); err != nil {
			return SelectionMsg{Key: "save-error", Value: err}
		}
		if m.cursor >= len(m.registry.Projects) && m.cursor > 0 {
			m.cursor--
		}
		return SelectionMsg{Key: "remove-success", Value: project.Name}
	}
}

func (m *ProjectSelector) detectAndAdd() tea.Cmd {
	return func() tea.Msg {
		project, err := config.DetectProjectFromCwd()
		if err != nil {
			return SelectionMsg{Key: "detect-error", Value: err}
		}
		if err := m.registry.Add(project.Name, project.Path); err != nil {
			return SelectionMsg{Key: "add-error", Value: err}
		}
		if err := config.SaveProjectsRegistry(m.registry); err != nil {
			return SelectionMsg{Key: "save-error", Value: err}
		}
		return SelectionMsg{Key: "detect-success", Value: project.Name}
	}
}

func (m *ProjectSelector) runAddAction() tea.Cmd {
	switch m.cursor {
	case 0:
		return selectCmd("manual-add", nil)
	case 1:
		m.adding = false
		return m.detectAndAdd()
	default:
		m.adding = false
		return nil
	}
}
