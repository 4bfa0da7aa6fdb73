// Package compact renders the board's alternative dense table view: one
// row per task with status, priority, type, and session columns.
package compact

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// Fixed column widths; the title column absorbs the remaining width.
const (
	numberWidth   = 5
	idWidth       = 10
	statusWidth   = 7
	priorityWidth = 4
	typeWidth     = 5
	sessionWidth  = 8
	minTitleWidth = 20
)

// CompactView is the scrollable task table.
type CompactView struct {
	tasks        []domain.Task
	cursor       int
	selected     map[string]bool
	styles       *Styles
	width        int
	height       int
	scrollOffset int
}

// NewCompactView creates the table over tasks at the given dimensions.
func NewCompactView(tasks []domain.Task, width, height int) *CompactView {
	return &CompactView{
		tasks:    tasks,
		selected: make(map[string]bool),
		styles:   NewStyles(),
		width:    width,
		height:   height,
	}
}

// SetTasks swaps the task list, clamping the cursor into range.
func (cv *CompactView) SetTasks(tasks []domain.Task) {
	cv.tasks = tasks
	if cv.cursor >= len(tasks) {
		cv.cursor = max(0, len(tasks)-1)
	}
}

// SetCursor moves the cursor, clamped, and keeps it scrolled into view.
func (cv *CompactView) SetCursor(index int) {
	cv.cursor = max(0, min(index, len(cv.tasks)-1))
	cv.ensureCursorVisible()
}

// GetCursor returns the cursor row index.
func (cv *CompactView) GetCursor() int { return cv.cursor }

// MoveUp moves the cursor up n rows.
func (cv *CompactView) MoveUp(n int) { cv.SetCursor(cv.cursor - n) }

// MoveDown moves the cursor down n rows.
func (cv *CompactView) MoveDown(n int) { cv.SetCursor(cv.cursor + n) }

// GotoTop moves to the first row.
func (cv *CompactView) GotoTop() { cv.SetCursor(0) }

// GotoBottom moves to the last row.
func (cv *CompactView) GotoBottom() { cv.SetCursor(len(cv.tasks) - 1) }

// GetCurrentTask returns the task under the cursor, nil when empty.
func (cv *CompactView) GetCurrentTask() *domain.Task {
	if cv.cursor >= 0 && cv.cursor < len(cv.tasks) {
		return &cv.tasks[cv.cursor]
	}
	return nil
}

// SetSelected supplies the multi-select set.
func (cv *CompactView) SetSelected(selected map[string]bool) {
	cv.selected = selected
}

// SetDimensions resizes the table.
func (cv *CompactView) SetDimensions(width, height int) {
	cv.width = width
	cv.height = height
	cv.ensureCursorVisible()
}

// Render draws the header, the visible row window, and a more-below
// indicator when rows are clipped.
func (cv *CompactView) Render() string {
	if len(cv.tasks) == 0 {
		return lipgloss.NewStyle().
			Foreground(cv.styles.Row.GetForeground()).
			Italic(true).
			Align(lipgloss.Center).
			Width(cv.width).
			Height(cv.height / 2).
			Render("No tasks to display\n\nPress 'c' to create a task or '/' to search")
	}

	var b strings.Builder

	b.WriteString(cv.renderHeader())
	b.WriteString("\n")
	b.WriteString(cv.styles.Separator.Render(strings.Repeat("─", cv.width)))
	b.WriteString("\n")

	start := cv.scrollOffset
	end := min(start+cv.visibleRows(), len(cv.tasks))
	for i := start; i < end; i++ {
		b.WriteString(cv.renderRow(i, cv.tasks[i]))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if end < len(cv.tasks) {
		b.WriteString("\n")
		b.WriteString(cv.styles.Separator.Render(fmt.Sprintf(" ↓ %d more tasks ↓ ", len(cv.tasks)-end)))
	}

	return b.String()
}

func (cv *CompactView) renderHeader() string {
	cells := []string{
		cv.styles.HeaderCell.Width(numberWidth).Render("#"),
		cv.styles.HeaderCell.Width(idWidth).Render("ID"),
		cv.styles.HeaderCell.Width(cv.titleWidth()).Render("Title"),
		cv.styles.HeaderCell.Width(statusWidth).Render("Status"),
		cv.styles.HeaderCell.Width(priorityWidth).Render("Pri"),
		cv.styles.HeaderCell.Width(typeWidth).Render("Type"),
		cv.styles.HeaderCell.Width(sessionWidth).Render("Session"),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (cv *CompactView) renderRow(index int, task domain.Task) string {
	active := index == cv.cursor
	selected := cv.selected[task.ID]

	rowStyle := cv.styles.Row
	if selected {
		rowStyle = cv.styles.RowSelected
	} else if active {
		rowStyle = cv.styles.RowActive
	}

	indicator := "  "
	switch {
	case active && selected:
		indicator = cv.styles.Selected.Render("●▶")
	case active:
		indicator = cv.styles.Cursor.Render("▶ ")
	case selected:
		indicator = cv.styles.Selected.Render("● ")
	}

	cells := []string{
		rowStyle.Width(numberWidth).Render(indicator + fmt.Sprintf("%2d", index+1)),
		rowStyle.Width(idWidth).Foreground(cv.styles.ColID.GetForeground()).Bold(true).Render(task.ID),
		rowStyle.Width(cv.titleWidth()).Render(truncateString(task.Title, cv.titleWidth())),
		cv.statusStyle(task.Status).Width(statusWidth).Align(lipgloss.Center).Render(statusAbbrev(task.Status)),
		cv.priorityStyle(task.Priority).Width(priorityWidth).Align(lipgloss.Center).Render(task.Priority.String()),
		cv.typeStyle(task.Type).Width(typeWidth).Align(lipgloss.Center).Render(task.Type.Short()),
		cv.renderSessionCell(task.Session),
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func statusAbbrev(status domain.Status) string {
	switch status {
	case domain.StatusOpen:
		return "open"
	case domain.StatusInProgress:
		return "prog"
	case domain.StatusBlocked:
		return "bloc"
	case domain.StatusClosed:
		return "done"
	default:
		return "????"
	}
}

func (cv *CompactView) statusStyle(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusOpen:
		return cv.styles.StatusOpen
	case domain.StatusInProgress:
		return cv.styles.StatusInProgress
	case domain.StatusBlocked:
		return cv.styles.StatusBlocked
	case domain.StatusClosed:
		return cv.styles.StatusClosed
	default:
		return cv.styles.Row
	}
}

func (cv *CompactView) priorityStyle(priority domain.Priority) lipgloss.Style {
	styles := []lipgloss.Style{
		cv.styles.PriorityP0, cv.styles.PriorityP1, cv.styles.PriorityP2,
		cv.styles.PriorityP3, cv.styles.PriorityP4,
	}
	if int(priority) >= 0 && int(priority) < len(styles) {
		return styles[priority]
	}
	return cv.styles.Row
}

func (cv *CompactView) typeStyle(taskType domain.TaskType) lipgloss.Style {
	switch taskType {
	case domain.TypeEpic:
		return cv.styles.TypeEpic
	case domain.TypeFeature:
		return cv.styles.TypeFeature
	case domain.TypeBug:
		return cv.styles.TypeBug
	case domain.TypeTask:
		return cv.styles.TypeTask
	case domain.TypeChore:
		return cv.styles.TypeChore
	default:
		return cv.styles.Row
	}
}

func (cv *CompactView) renderSessionCell(session *domain.Session) string {
	if session == nil {
		return cv.styles.ColSession.Width(sessionWidth).Render(" ")
	}

	var style lipgloss.Style
	switch session.State {
	case domain.SessionBusy:
		style = cv.styles.StatusInProgress
	case domain.SessionWaiting:
		style = cv.styles.StatusOpen
	case domain.SessionDone:
		style = cv.styles.StatusClosed
	case domain.SessionError, domain.SessionCrashed:
		style = cv.styles.StatusBlocked
	case domain.SessionPaused:
		style = cv.styles.PriorityP4
	default:
		style = cv.styles.Row
	}
	return style.Width(sessionWidth).Align(lipgloss.Center).Render(session.State.Icon())
}

func (cv *CompactView) titleWidth() int {
	fixed := numberWidth + idWidth + statusWidth + priorityWidth + typeWidth + sessionWidth
	return max(minTitleWidth, cv.width-fixed)
}

// visibleRows is the row budget after the header and separator lines.
func (cv *CompactView) visibleRows() int {
	return max(1, cv.height-2)
}

func (cv *CompactView) ensureCursorVisible() {
	rows := cv.visibleRows()

	if cv.cursor < cv.scrollOffset {
		cv.scrollOffset = cv.cursor
	}
	if cv.cursor >= cv.scrollOffset+rows {
		cv.scrollOffset = cv.cursor - rows + 1
	}
	cv.scrollOffset = max(0, min(cv.scrollOffset, max(0, len(cv.tasks)-rows)))
}

// truncateString clips s to width runes with a "..." tail.
func truncateString(s string, width int) string {
	if width <= 3 {
		return strings.Repeat(".", min(width, 3))
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
