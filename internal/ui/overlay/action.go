package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// Action is one entry in an action menu. An empty Key renders as a
// separator and can't be selected.
type Action struct {
	Key     string
	Label   string
	Enabled bool
}

// menuSeparator is the divider row both action menus use.
var menuSeparator = Action{Label: "───────────────────"}

// stepMenuCursor advances cur over actions by delta, wrapping and skipping
// separators and disabled rows.
func stepMenuCursor(actions []Action, cur, delta int) int {
	n := len(actions)
	for i := 1; i <= n; i++ {
		next := ((cur+i*delta)%n + n) % n
		if actions[next].Enabled && actions[next].Key != "" {
			return next
		}
	}
	return cur
}

// renderMenuActions draws the shared [key] label list with cursor and
// disabled styling.
func renderMenuActions(b *strings.Builder, actions []Action, cursor int, s *Styles) {
	for i, action := range actions {
		if action.Key == "" {
			b.WriteString(s.Separator.Render(action.Label))
			b.WriteString("\n")
			continue
		}

		style, keyStyle := s.MenuItem, s.MenuKey
		if !action.Enabled {
			style, keyStyle = s.MenuItemDisabled, s.MenuKeyDisabled
		} else if i == cursor {
			style = s.MenuItemActive
		}

		b.WriteString(keyStyle.Render("[" + action.Key + "]"))
		b.WriteString(" ")
		b.WriteString(style.Render(action.Label))
		b.WriteString("\n")
	}
}

// ActionMenu is the per-task action menu opened with Space.
type ActionMenu struct {
	task         domain.Task
	session      *domain.Session
	actions      []Action
	cursor       int
	styles       *Styles
	queueRunning string
	queueDepth   int
}

// NewActionMenu creates the menu for task and its session (nil when no
// session exists).
func NewActionMenu(task domain.Task, session *domain.Session) *ActionMenu {
	menu := &ActionMenu{
		task:    task,
		session: session,
		styles:  New(),
	}
	menu.actions = menu.buildActions()
	return menu
}

// SetQueueInfo tells the menu about the bead's command queue: while a
// mutation is running, further mutating actions are disabled and the
// running job's label is shown at the top of the menu.
func (m *ActionMenu) SetQueueInfo(running string, queued int) {
	m.queueRunning = running
	m.queueDepth = queued
	m.actions = m.buildActions()
}

// buildActions derives the action list from the task, session state, and
// queue occupancy.
func (m *ActionMenu) buildActions() []Action {
	var actions []Action

	if m.queueRunning != "" {
		label := "Running: " + m.queueRunning
		if m.queueDepth > 0 {
			label += fmt.Sprintf(" (+%d queued)", m.queueDepth)
		}
		actions = append(actions, Action{Label: label}, menuSeparator)
	}
	idle := m.queueRunning == ""

	// Session lifecycle
	if m.session == nil {
		actions = append(actions,
			Action{Key: "s", Label: "Start session", Enabled: idle},
			Action{Key: "S", Label: "Start session + work", Enabled: idle},
		)
	} else {
		actions = append(actions, Action{Key: "a", Label: "Attach to session", Enabled: true})

		switch m.session.State {
		case domain.SessionIdle:
			actions = append(actions, Action{Key: "s", Label: "Start session", Enabled: idle})
		case domain.SessionBusy, domain.SessionWaiting:
			actions = append(actions,
				Action{Key: "p", Label: "Pause session", Enabled: idle},
				Action{Key: "x", Label: "Stop session", Enabled: idle},
			)
		case domain.SessionPaused:
			actions = append(actions,
				Action{Key: "R", Label: "Resume session", Enabled: idle},
				Action{Key: "x", Label: "Stop session", Enabled: idle},
			)
		case domain.SessionDone, domain.SessionError:
			actions = append(actions, Action{Key: "x", Label: "Stop session", Enabled: idle})
		}
	}

	if len(actions) > 0 {
		actions = append(actions, menuSeparator)
	}

	// Git actions need a live worktree; show-diff is read-only so the
	// queue doesn't gate it.
	hasWorktree := m.session != nil && m.session.Worktree != ""
	actions = append(actions,
		Action{Key: "u", Label: "Update from main", Enabled: hasWorktree && idle},
		Action{Key: "m", Label: "Merge to main", Enabled: hasWorktree && idle},
		Action{Key: "P", Label: "Create PR", Enabled: hasWorktree && idle},
		Action{Key: "f", Label: "Show diff", Enabled: hasWorktree},
	)

	actions = append(actions, menuSeparator,
		Action{Key: "h", Label: "Move left", Enabled: m.task.Status != domain.StatusOpen},
		Action{Key: "l", Label: "Move right", Enabled: m.task.Status != domain.StatusClosed},
		Action{Key: "e", Label: "Edit task", Enabled: true},
		Action{Key: "d", Label: "Delete task", Enabled: true},
	)

	return actions
}

func (m *ActionMenu) Init() tea.Cmd {
	return nil
}

func (m *ActionMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch s := key.String(); s {
	case "esc", "q":
		return m, closeCmd()
	case "j", "down":
		m.cursor = stepMenuCursor(m.actions, m.cursor, 1)
	case "k", "up":
		m.cursor = stepMenuCursor(m.actions, m.cursor, -1)
	case "enter":
		return m, m.emit(m.cursor)
	default:
		return m, m.selectByKey(s)
	}
	return m, nil
}

// emit fires the action at index as a SelectionMsg carrying the Action.
func (m *ActionMenu) emit(index int) tea.Cmd {
	if index < 0 || index >= len(m.actions) {
		return nil
	}
	action := m.actions[index]
	if !action.Enabled || action.Key == "" {
		return nil
	}
	return selectCmd(action.Key, action)
}

func (m *ActionMenu) selectByKey(key string) tea.Cmd {
	for i, action := range m.actions {
		if action.Key == key && action.Enabled {
			return m.emit(i)
		}
	}
	return nil
}

func (m *ActionMenu) View() string {
	var b strings.Builder
	renderMenuActions(&b, m.actions, m.cursor, m.styles)
	return b.String()
}

func (m *ActionMenu) Title() string {
	return "Actions"
}

func (m *ActionMenu) Size() (width, height int) {
	return 36, len(m.actions) + 4
}

// BulkActionMenu operates on the multi-select set.
type BulkActionMenu struct {
	selectedIDs []string
	count       int
	actions     []Action
	cursor      int
	styles      *Styles
}

// BulkActionMsg carries the chosen bulk action and its targets.
type BulkActionMsg struct {
	Action      string
	SelectedIDs []string
}

// NewBulkActionMenu creates the bulk menu over the selected task ids.
func NewBulkActionMenu(selectedIDs []string, count int) *BulkActionMenu {
	return &BulkActionMenu{
		selectedIDs: selectedIDs,
		count:       count,
		styles:      New(),
		actions: []Action{
			{Key: "h", Label: "Move left (previous status)", Enabled: true},
			{Key: "l", Label: "Move right (next status)", Enabled: true},
			menuSeparator,
			{Key: "o", Label: "Set to Open", Enabled: true},
			{Key: "i", Label: "Set to In Progress", Enabled: true},
			{Key: "b", Label: "Set to Blocked", Enabled: true},
			{Key: "D", Label: "Set to Done", Enabled: true},
			menuSeparator,
			{Key: "d", Label: "Delete selected", Enabled: true},
			{Key: "x", Label: "Clear selection", Enabled: true},
		},
	}
}

func (m *BulkActionMenu) Init() tea.Cmd {
	return nil
}

func (m *BulkActionMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch s := key.String(); s {
	case "esc", "q":
		return m, closeCmd()
	case "j", "down":
		m.cursor = stepMenuCursor(m.actions, m.cursor, 1)
	case "k", "up":
		m.cursor = stepMenuCursor(m.actions, m.cursor, -1)
	case "enter":
		return m, m.emit(m.cursor)
	default:
		for i, action := range m.actions {
			if action.Key == s && action.Enabled {
				return m, m.emit(i)
			}
		}
	}
	return m, nil
}

func (m *BulkActionMenu) emit(index int) tea.Cmd {
	if index < 0 || index >= len(m.actions) {
		return nil
	}
	action := m.actions[index]
	if !action.Enabled || action.Key == "" {
		return nil
	}
	return func() tea.Msg {
		return BulkActionMsg{Action: action.Key, SelectedIDs: m.selectedIDs}
	}
}

func (m *BulkActionMenu) View() string {
	var b strings.Builder

	b.WriteString(m.styles.MenuHeader.Render("Selected: "))
	b.WriteString(m.styles.MenuCount.Render(strings.Repeat("●", min(m.count, 10))))
	if m.count > 10 {
		b.WriteString(m.styles.MenuCount.Render("..."))
	}
	b.WriteString("\n\n")

	renderMenuActions(&b, m.actions, m.cursor, m.styles)

	return b.String()
}

func (m *BulkActionMenu) Title() string {
	return "Bulk Actions"
}

func (m *BulkActionMenu) Size() (width, height int) {
	return 40, len(m.actions) + 6
}
