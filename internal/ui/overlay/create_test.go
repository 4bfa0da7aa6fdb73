package overlay

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/domain"
)

func typeText(c *CreateTaskOverlay, text string) {
	for _, r := range text {
		c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func createdTask(t *testing.T, cmd tea.Cmd) (TaskCreatedMsg, bool) {
	t.Helper()
	if cmd == nil {
		return TaskCreatedMsg{}, false
	}
	for _, msg := range drain(cmd) {
		if created, ok := msg.(TaskCreatedMsg); ok {
			return created, true
		}
	}
	return TaskCreatedMsg{}, false
}

func TestCreateTask_Defaults(t *testing.T) {
	c := NewCreateTaskOverlay()

	if c.taskType != domain.TypeTask {
		t.Errorf("default type = %v, want task", c.taskType)
	}
	if c.priority != domain.P2 {
		t.Errorf("default priority = %v, want P2", c.priority)
	}
	if c.focus != createFieldTitle {
		t.Error("title should start focused")
	}
}

func TestCreateTask_SubmitCarriesForm(t *testing.T) {
	c := NewCreateTaskOverlay()
	typeText(c, "Fix the flaky test")

	_, cmd := c.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	created, ok := createdTask(t, cmd)
	if !ok {
		t.Fatal("ctrl+s should submit")
	}
	if created.Title != "Fix the flaky test" {
		t.Errorf("Title = %q", created.Title)
	}
	if created.Type != domain.TypeTask || created.Priority != domain.P2 {
		t.Errorf("defaults not carried: %+v", created)
	}
}

func TestCreateTask_EmptyTitleBlocksSubmit(t *testing.T) {
	c := NewCreateTaskOverlay()
	if _, ok := createdTask(t, func() tea.Cmd { _, cmd := c.Update(tea.KeyMsg{Type: tea.KeyCtrlS}); return cmd }()); ok {
		t.Error("empty title must not submit")
	}
}

func TestCreateTask_TypeAndPrioritySelectors(t *testing.T) {
	c := NewCreateTaskOverlay()

	// "B" typed while the title is focused is text, not a selector.
	typeText(c, "B")
	if c.taskType != domain.TypeTask {
		t.Error("selector keys must not fire while editing the title")
	}

	c.setFocus(createFieldType)
	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("B")})
	if c.taskType != domain.TypeBug {
		t.Errorf("B should select bug, got %v", c.taskType)
	}
	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("E")})
	if c.taskType != domain.TypeEpic {
		t.Errorf("E should select epic, got %v", c.taskType)
	}

	c.setFocus(createFieldPriority)
	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("0")})
	if c.priority != domain.P0 {
		t.Errorf("0 should select P0, got %v", c.priority)
	}
}

func TestCreateTask_TabCyclesFocus(t *testing.T) {
	c := NewCreateTaskOverlay()

	order := []createField{createFieldDescription, createFieldType, createFieldPriority, createFieldSubmit, createFieldTitle}
	for _, want := range order {
		c.Update(tea.KeyMsg{Type: tea.KeyTab})
		if c.focus != want {
			t.Fatalf("focus = %v, want %v", c.focus, want)
		}
	}
}

func TestCreateTask_EnterOnSubmit(t *testing.T) {
	c := NewCreateTaskOverlay()
	typeText(c, "Title")
	c.setFocus(createFieldSubmit)

	_, cmd := c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := createdTask(t, cmd); !ok {
		t.Error("enter on the submit button should submit")
	}
}

func TestCreateTask_EscCloses(t *testing.T) {
	c := NewCreateTaskOverlay()
	_, cmd := c.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("esc should produce a command")
	}
	if _, ok := cmd().(CloseOverlayMsg); !ok {
		t.Error("esc should close the form")
	}
}

func TestCreateTask_ViewShowsSelectors(t *testing.T) {
	c := NewCreateTaskOverlay()
	view := c.View()
	for _, want := range []string{"Title:", "Description:", "Type:", "Priority:", "[ Create Task ]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
