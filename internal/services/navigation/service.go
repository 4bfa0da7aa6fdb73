// Package navigation tracks the board cursor. The cursor is keyed by task
// id rather than grid position, so it survives the board reflowing under
// it when a filter, sort, or refresh changes the columns.
package navigation

import (
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/ui/board"
)

// Position is the cursor resolved against a concrete column layout.
type Position struct {
	Column int
	Task   int
	Valid  bool
}

// Cursor is the persistent selection: the chosen task id, plus the column
// to fall back to when that id is no longer on the board.
type Cursor struct {
	TaskID         string
	FallbackColumn int
}

// FindPosition resolves the cursor against columns. A missing or filtered-
// out task falls through to the first task of the fallback column.
func (c *Cursor) FindPosition(columns []board.Column) Position {
	if c.TaskID != "" {
		for colIdx, col := range columns {
			for taskIdx, task := range col.Tasks {
				if task.ID == c.TaskID {
					return Position{Column: colIdx, Task: taskIdx, Valid: true}
				}
			}
		}
	}

	col := c.FallbackColumn
	if col >= len(columns) {
		col = 0
	}
	valid := col < len(columns) && len(columns[col].Tasks) > 0
	return Position{Column: col, Task: 0, Valid: valid}
}

// SetTask points the cursor at taskID in column.
func (c *Cursor) SetTask(taskID string, column int) {
	c.TaskID = taskID
	c.FallbackColumn = column
}

// MoveVertical steps delta rows within the current column, clamping at the
// edges, and returns the newly selected task id.
func (c *Cursor) MoveVertical(columns []board.Column, delta int) string {
	pos := c.FindPosition(columns)
	if !pos.Valid || pos.Column >= len(columns) {
		return c.TaskID
	}

	col := columns[pos.Column]
	idx := clamp(pos.Task+delta, 0, len(col.Tasks)-1)
	if idx >= 0 && idx < len(col.Tasks) {
		c.TaskID = col.Tasks[idx].ID
		c.FallbackColumn = pos.Column
	}
	return c.TaskID
}

// MoveHorizontal steps delta columns, keeping the row index where the
// target column allows and clamping otherwise.
func (c *Cursor) MoveHorizontal(columns []board.Column, delta int) string {
	pos := c.FindPosition(columns)
	return c.selectInColumn(columns, clamp(pos.Column+delta, 0, len(columns)-1), pos.Task)
}

// JumpToStart selects the current column's first task.
func (c *Cursor) JumpToStart(columns []board.Column) string {
	pos := c.FindPosition(columns)
	if pos.Column < len(columns) && len(columns[pos.Column].Tasks) > 0 {
		c.TaskID = columns[pos.Column].Tasks[0].ID
	}
	return c.TaskID
}

// JumpToEnd selects the current column's last task.
func (c *Cursor) JumpToEnd(columns []board.Column) string {
	pos := c.FindPosition(columns)
	if pos.Column < len(columns) {
		if tasks := columns[pos.Column].Tasks; len(tasks) > 0 {
			c.TaskID = tasks[len(tasks)-1].ID
		}
	}
	return c.TaskID
}

// JumpToColumn selects colIdx, keeping the relative row position.
func (c *Cursor) JumpToColumn(columns []board.Column, colIdx int) string {
	pos := c.FindPosition(columns)
	return c.selectInColumn(columns, clamp(colIdx, 0, len(columns)-1), pos.Task)
}

// selectInColumn lands the cursor in colIdx at row (clamped); an empty
// column clears the task id so FindPosition falls back cleanly.
func (c *Cursor) selectInColumn(columns []board.Column, colIdx, row int) string {
	c.FallbackColumn = colIdx
	if colIdx < len(columns) && len(columns[colIdx].Tasks) > 0 {
		tasks := columns[colIdx].Tasks
		c.TaskID = tasks[clamp(row, 0, len(tasks)-1)].ID
	} else {
		c.TaskID = ""
	}
	return c.TaskID
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Service wraps the cursor for the app model.
type Service struct {
	cursor Cursor
}

// NewService creates navigation state with nothing selected.
func NewService() *Service {
	return &Service{}
}

// GetCursor exposes the cursor for direct reads.
func (s *Service) GetCursor() *Cursor {
	return &s.cursor
}

// GetPosition resolves the cursor against columns.
func (s *Service) GetPosition(columns []board.Column) Position {
	return s.cursor.FindPosition(columns)
}

// GetCurrentTask returns the selected task and its session, if any.
func (s *Service) GetCurrentTask(columns []board.Column) (*domain.Task, *domain.Session) {
	pos := s.cursor.FindPosition(columns)
	if !pos.Valid || pos.Column >= len(columns) {
		return nil, nil
	}
	col := columns[pos.Column]
	if pos.Task >= len(col.Tasks) {
		return nil, nil
	}
	task := col.Tasks[pos.Task]
	return &task, task.Session
}

// columnStatuses maps column index to board status, in display order.
var columnStatuses = []domain.Status{
	domain.StatusOpen,
	domain.StatusInProgress,
	domain.StatusBlocked,
	domain.StatusClosed,
}

// GetCurrentStatus returns the status of the cursor's column.
func (s *Service) GetCurrentStatus(columns []board.Column) domain.Status {
	pos := s.cursor.FindPosition(columns)
	if pos.Column < 0 || pos.Column >= len(columnStatuses) {
		return domain.StatusOpen
	}
	return columnStatuses[pos.Column]
}

// MoveDown steps one row down.
func (s *Service) MoveDown(columns []board.Column) { s.cursor.MoveVertical(columns, 1) }

// MoveUp steps one row up.
func (s *Service) MoveUp(columns []board.Column) { s.cursor.MoveVertical(columns, -1) }

// MoveLeft steps one column left.
func (s *Service) MoveLeft(columns []board.Column) { s.cursor.MoveHorizontal(columns, -1) }

// MoveRight steps one column right.
func (s *Service) MoveRight(columns []board.Column) { s.cursor.MoveHorizontal(columns, 1) }

// HalfPageDown scrolls halfPage rows down.
func (s *Service) HalfPageDown(columns []board.Column, halfPage int) {
	s.cursor.MoveVertical(columns, halfPage)
}

// HalfPageUp scrolls halfPage rows up.
func (s *Service) HalfPageUp(columns []board.Column, halfPage int) {
	s.cursor.MoveVertical(columns, -halfPage)
}

// GotoTop selects the column's first task.
func (s *Service) GotoTop(columns []board.Column) { s.cursor.JumpToStart(columns) }

// GotoBottom selects the column's last task.
func (s *Service) GotoBottom(columns []board.Column) { s.cursor.JumpToEnd(columns) }

// GotoFirstColumn jumps to the leftmost column.
func (s *Service) GotoFirstColumn(columns []board.Column) { s.cursor.JumpToColumn(columns, 0) }

// GotoLastColumn jumps to the rightmost column.
func (s *Service) GotoLastColumn(columns []board.Column) {
	s.cursor.JumpToColumn(columns, len(columns)-1)
}

// SelectTask points the cursor straight at taskID.
func (s *Service) SelectTask(taskID string, column int) {
	s.cursor.SetTask(taskID, column)
}

// JumpToTaskByIndex selects the flatIndex-th task counting across columns
// left to right; used by jump mode's labels.
func (s *Service) JumpToTaskByIndex(columns []board.Column, flatIndex int) bool {
	index := 0
	for colIdx, col := range columns {
		for _, task := range col.Tasks {
			if index == flatIndex {
				s.cursor.SetTask(task.ID, colIdx)
				return true
			}
			index++
		}
	}
	return false
}

// JumpToTaskByID selects taskID wherever it currently sits.
func (s *Service) JumpToTaskByID(columns []board.Column, taskID string) bool {
	for colIdx, col := range columns {
		for _, task := range col.Tasks {
			if task.ID == taskID {
				s.cursor.SetTask(task.ID, colIdx)
				return true
			}
		}
	}
	return false
}
