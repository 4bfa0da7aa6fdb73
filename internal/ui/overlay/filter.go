package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// filterMode is which sub-selection the menu is collecting a key for.
type filterMode string

const (
	filterModeNormal   filterMode = "normal"
	filterModeStatus   filterMode = "status"
	filterModePriority filterMode = "priority"
	filterModeType     filterMode = "type"
	filterModeSession  filterMode = "session"
)

// filterToggle binds one key to a filter mutation, with the accessors the
// view needs to show its active state.
type filterToggle struct {
	key    string
	label  string
	toggle func(*domain.Filter)
	active func(*domain.Filter) bool
}

func statusToggle(key, label string, status domain.Status) filterToggle {
	return filterToggle{key, label,
		func(f *domain.Filter) { f.ToggleStatus(status) },
		func(f *domain.Filter) bool { return f.Status[status] }}
}

func priorityToggle(key string, priority domain.Priority) filterToggle {
	return filterToggle{key, priority.String(),
		func(f *domain.Filter) { f.TogglePriority(priority) },
		func(f *domain.Filter) bool { return f.Priority[priority] }}
}

func typeToggle(key, label string, taskType domain.TaskType) filterToggle {
	return filterToggle{key, label,
		func(f *domain.Filter) { f.ToggleType(taskType) },
		func(f *domain.Filter) bool { return f.Type[taskType] }}
}

func sessionToggle(key, label string, state domain.SessionState) filterToggle {
	return filterToggle{key, label,
		func(f *domain.Filter) { f.ToggleSessionState(state) },
		func(f *domain.Filter) bool { return f.SessionState[state] }}
}

// filterCategories defines every sub-mode: the key that opens it, and the
// toggles available inside it.
var filterCategories = map[filterMode]struct {
	label   string
	openKey string
	toggles []filterToggle
}{
	filterModeStatus: {"Status", "s", []filterToggle{
		statusToggle("o", "Open", domain.StatusOpen),
		statusToggle("i", "In Progress", domain.StatusInProgress),
		statusToggle("b", "Blocked", domain.StatusBlocked),
		statusToggle("d", "Done", domain.StatusClosed),
	}},
	filterModePriority: {"Priority", "p", []filterToggle{
		priorityToggle("0", domain.P0),
		priorityToggle("1", domain.P1),
		priorityToggle("2", domain.P2),
		priorityToggle("3", domain.P3),
		priorityToggle("4", domain.P4),
	}},
	filterModeType: {"Type", "t", []filterToggle{
		typeToggle("T", "Task", domain.TypeTask),
		typeToggle("B", "Bug", domain.TypeBug),
		typeToggle("F", "Feature", domain.TypeFeature),
		typeToggle("E", "Epic", domain.TypeEpic),
		typeToggle("C", "Chore", domain.TypeChore),
	}},
	filterModeSession: {"Session", "S", []filterToggle{
		sessionToggle("I", "Idle", domain.SessionIdle),
		sessionToggle("U", "Busy", domain.SessionBusy),
		sessionToggle("W", "Waiting", domain.SessionWaiting),
		sessionToggle("D", "Done", domain.SessionDone),
		sessionToggle("X", "Error", domain.SessionError),
		sessionToggle("P", "Paused", domain.SessionPaused),
	}},
}

// filterLineOrder fixes the render order of the category lines.
var filterLineOrder = []filterMode{
	filterModeStatus, filterModePriority, filterModeType, filterModeSession,
}

// agePresets maps the normal-mode digit keys to age floors (nil clears).
var agePresets = []struct {
	key   string
	label string
	days  *int
}{
	{"1", "1d+", intPtr(1)},
	{"7", "7d+", intPtr(7)},
	{"3", "30d+", intPtr(30)},
	{"0", "All", nil},
}

// FilterMenu mutates the board's live filter in place.
type FilterMenu struct {
	filter *domain.Filter
	styles *Styles
	mode   filterMode
}

// NewFilterMenu creates the menu bound to filter.
func NewFilterMenu(filter *domain.Filter) *FilterMenu {
	return &FilterMenu{
		filter: filter,
		styles: New(),
		mode:   filterModeNormal,
	}
}

func (m *FilterMenu) Init() tea.Cmd {
	return nil
}

func (m *FilterMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.mode != filterModeNormal {
		return m.updateCategory(key)
	}
	return m.updateNormal(key)
}

func (m *FilterMenu) updateNormal(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := key.String()

	switch s {
	case "esc", "q":
		return m, closeCmd()
	case "e":
		m.filter.HideEpicChildren = !m.filter.HideEpicChildren
		return m, nil
	case "c":
		m.filter.Clear()
		return m, nil
	}

	for mode, cat := range filterCategories {
		if cat.openKey == s {
			m.mode = mode
			return m, nil
		}
	}
	for _, preset := range agePresets {
		if preset.key == s {
			m.filter.AgeMinDays = preset.days
			return m, nil
		}
	}
	return m, nil
}

// updateCategory toggles one entry of the open category and drops back to
// normal mode.
func (m *FilterMenu) updateCategory(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := key.String()
	if s == "esc" {
		m.mode = filterModeNormal
		return m, nil
	}

	for _, t := range filterCategories[m.mode].toggles {
		if t.key == s {
			t.toggle(m.filter)
			m.mode = filterModeNormal
			return m, nil
		}
	}
	return m, nil
}

func (m *FilterMenu) View() string {
	var b strings.Builder

	for _, mode := range filterLineOrder {
		b.WriteString(m.renderCategoryLine(mode))
	}

	separator := m.styles.Separator.Render("───────────────────────────────────────") + "\n"

	b.WriteString(separator)
	checkbox := "[ ]"
	if m.filter.HideEpicChildren {
		checkbox = "[●]"
	}
	b.WriteString(m.styles.MenuKey.Render("[e]"))
	b.WriteString(" ")
	b.WriteString(m.styles.MenuItem.Render(checkbox + " Hide epic children"))
	b.WriteString("\n")

	b.WriteString(separator)
	b.WriteString(m.renderAgeLine())
	b.WriteString(separator)

	b.WriteString(m.styles.MenuKey.Render("[c]"))
	b.WriteString(" ")
	b.WriteString(m.styles.MenuItem.Render("Clear all filters"))
	b.WriteString("\n")

	if m.mode != filterModeNormal {
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("Press key to toggle filter, Esc to cancel"))
	}

	return b.String()
}

func (m *FilterMenu) renderCategoryLine(mode filterMode) string {
	cat := filterCategories[mode]

	var b strings.Builder
	keyStyle := m.styles.MenuKey
	if m.mode == mode {
		keyStyle = m.styles.MenuItemActive
	}
	b.WriteString(keyStyle.Render("[" + cat.openKey + "]"))
	b.WriteString(" ")
	b.WriteString(m.styles.MenuItem.Render(cat.label + ":"))
	b.WriteString(" ")

	for i, t := range cat.toggles {
		if i > 0 {
			b.WriteString(" ")
		}
		indicator, style := " ", m.styles.MenuItem
		if t.active(m.filter) {
			indicator, style = "●", m.styles.MenuItemActive
		}
		b.WriteString(style.Render(fmt.Sprintf("[%s%s=%s]", indicator, t.key, t.label)))
	}

	b.WriteString("\n")
	return b.String()
}

// renderAgeLine draws the stale-task presets with the active one marked.
func (m *FilterMenu) renderAgeLine() string {
	var b strings.Builder

	b.WriteString(m.styles.MenuItem.Render("Age: "))
	for i, preset := range agePresets {
		if i > 0 {
			b.WriteString(" ")
		}

		active := preset.days == nil && m.filter.AgeMinDays == nil ||
			preset.days != nil && m.filter.AgeMinDays != nil && *preset.days == *m.filter.AgeMinDays

		indicator, style := " ", m.styles.MenuItem
		if active {
			indicator, style = "●", m.styles.MenuItemActive
		}
		b.WriteString(style.Render(fmt.Sprintf("[%s%s=%s]", indicator, preset.key, preset.label)))
	}

	b.WriteString("\n")
	return b.String()
}

func (m *FilterMenu) Title() string {
	return "Filter"
}

func (m *FilterMenu) Size() (width, height int) {
	return 78, 14
}

func intPtr(i int) *int {
	return &i
}
