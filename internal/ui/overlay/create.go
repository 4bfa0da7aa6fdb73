package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// TaskCreatedMsg carries a completed new-task form to the app model.
type TaskCreatedMsg struct {
	Title       string
	Description string
	Type        domain.TaskType
	Priority    domain.Priority
}

// createField enumerates the form's focusable fields in tab order.
type createField int

const (
	createFieldTitle createField = iota
	createFieldDescription
	createFieldType
	createFieldPriority
	createFieldSubmit
	createFieldCount
)

// taskTypeChoices maps the selector keys to task types, in display order.
var taskTypeChoices = []struct {
	key string
	typ domain.TaskType
}{
	{"T", domain.TypeTask},
	{"B", domain.TypeBug},
	{"F", domain.TypeFeature},
	{"E", domain.TypeEpic},
	{"C", domain.TypeChore},
}

var priorityChoices = []struct {
	key string
	pri domain.Priority
}{
	{"0", domain.P0},
	{"1", domain.P1},
	{"2", domain.P2},
	{"3", domain.P3},
	{"4", domain.P4},
}

// CreateTaskOverlay is the new-task form.
type CreateTaskOverlay struct {
	title       textinput.Model
	description textarea.Model
	taskType    domain.TaskType
	priority    domain.Priority
	focus       createField
	styles      *Styles
}

// NewCreateTaskOverlay creates the form with task/P2 defaults.
func NewCreateTaskOverlay() *CreateTaskOverlay {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	ta := textarea.New()
	ta.Placeholder = "Task description (optional)..."
	ta.CharLimit = 2000
	ta.SetWidth(60)
	ta.SetHeight(5)

	return &CreateTaskOverlay{
		title:       ti,
		description: ta,
		taskType:    domain.TypeTask,
		priority:    domain.P2,
		styles:      New(),
	}
}

func (c *CreateTaskOverlay) Init() tea.Cmd {
	return textinput.Blink
}

func (c *CreateTaskOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return c, closeCmd()
		case "ctrl+s":
			return c, c.submit()
		case "tab":
			c.setFocus((c.focus + 1) % createFieldCount)
			return c, nil
		case "shift+tab":
			c.setFocus((c.focus - 1 + createFieldCount) % createFieldCount)
			return c, nil
		case "enter":
			if c.focus == createFieldSubmit {
				return c, c.submit()
			}
		}

		if c.focus == createFieldType {
			for _, choice := range taskTypeChoices {
				if choice.key == key.String() {
					c.taskType = choice.typ
					return c, nil
				}
			}
		}
		if c.focus == createFieldPriority {
			for _, choice := range priorityChoices {
				if choice.key == key.String() {
					c.priority = choice.pri
					return c, nil
				}
			}
		}
	}

	var cmd tea.Cmd
	switch c.focus {
	case createFieldTitle:
		c.title, cmd = c.title.Update(msg)
	case createFieldDescription:
		c.description, cmd = c.description.Update(msg)
	}
	return c, cmd
}

func (c *CreateTaskOverlay) setFocus(field createField) {
	c.focus = field
	c.title.Blur()
	c.description.Blur()
	switch field {
	case createFieldTitle:
		c.title.Focus()
	case createFieldDescription:
		c.description.Focus()
	}
}

func (c *CreateTaskOverlay) View() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#94e2d5")).
		Width(12).
		Align(lipgloss.Right)
	focusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89b4fa")).
		Bold(true)

	label := func(field createField, text string) string {
		if c.focus == field {
			return focusStyle.Render(text)
		}
		return labelStyle.Render(text)
	}

	var b strings.Builder

	b.WriteString(label(createFieldTitle, "Title:"))
	b.WriteString("  ")
	b.WriteString(c.title.View())
	b.WriteString("\n\n")

	b.WriteString(label(createFieldDescription, "Description:"))
	b.WriteString("\n")
	b.WriteString(c.description.View())
	b.WriteString("\n\n")

	b.WriteString(label(createFieldType, "Type:"))
	b.WriteString("  ")
	b.WriteString(c.renderTypeSelector())
	b.WriteString("\n\n")

	b.WriteString(label(createFieldPriority, "Priority:"))
	b.WriteString("  ")
	b.WriteString(c.renderPrioritySelector())
	b.WriteString("\n\n")

	b.WriteString(c.styles.Separator.Render(strings.Repeat("─", 60)))
	b.WriteString("\n\n")

	submitStyle := c.styles.MenuItem
	if c.focus == createFieldSubmit {
		submitStyle = c.styles.MenuItemActive
	}
	b.WriteString(submitStyle.Render("[ Create Task ]"))
	b.WriteString("\n\n")

	hints := []string{
		c.styles.MenuKey.Render("Tab") + " " + c.styles.Footer.Render("Switch fields"),
		c.styles.MenuKey.Render("Ctrl+S") + " " + c.styles.Footer.Render("Submit"),
		c.styles.MenuKey.Render("Esc") + " " + c.styles.Footer.Render("Cancel"),
	}
	b.WriteString(c.styles.Footer.Render(strings.Join(hints, " • ")))

	return b.String()
}

func (c *CreateTaskOverlay) renderTypeSelector() string {
	parts := make([]string, 0, len(taskTypeChoices))
	for _, choice := range taskTypeChoices {
		style, indicator := c.styles.MenuItem, " "
		if choice.typ == c.taskType {
			style, indicator = c.styles.MenuItemActive, "●"
		}
		parts = append(parts, style.Render(fmt.Sprintf("[%s%s]", indicator, choice.key)))
	}
	return strings.Join(parts, " ")
}

func (c *CreateTaskOverlay) renderPrioritySelector() string {
	parts := make([]string, 0, len(priorityChoices))
	for _, choice := range priorityChoices {
		style, indicator := c.styles.MenuItem, " "
		if choice.pri == c.priority {
			style, indicator = c.styles.MenuItemActive, "●"
		}
		parts = append(parts, style.Render(fmt.Sprintf("[%s%s]", indicator, choice.key)))
	}
	return strings.Join(parts, " ")
}

// submit emits the form content and closes; an empty title blocks
// submission.
func (c *CreateTaskOverlay) submit() tea.Cmd {
	title := strings.TrimSpace(c.title.Value())
	if title == "" {
		return nil
	}

	return tea.Batch(
		func() tea.Msg {
			return TaskCreatedMsg{
				Title:       title,
				Description: strings.TrimSpace(c.description.Value()),
				Type:        c.taskType,
				Priority:    c.priority,
			}
		},
		closeCmd(),
	)
}

func (c *CreateTaskOverlay) Title() string {
	return "Create New Task"
}

func (c *CreateTaskOverlay) Size() (width, height int) {
	return 70, 25
}
