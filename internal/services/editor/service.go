// Package editor holds the board's view state: modal input mode, filter,
// sort, multi-selection, and display toggles.
package editor

import (
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/types"
)

// Mode is re-exported so callers don't need both packages.
type Mode = types.Mode

const (
	ModeNormal = types.ModeNormal
	ModeSelect = types.ModeSelect
	ModeGoto   = types.ModeGoto
)

// Service owns the mutable view state the board renders from.
type Service struct {
	mode          Mode
	filter        *domain.Filter
	sort          *domain.Sort
	selectedTasks map[string]bool
	showPhases    bool
}

// NewService creates view state with the default session-first sort.
func NewService() *Service {
	return &Service{
		mode:          ModeNormal,
		filter:        domain.NewFilter(),
		sort:          &domain.Sort{Field: domain.SortBySession, Order: domain.SortAsc},
		selectedTasks: make(map[string]bool),
	}
}

// GetMode returns the current input mode.
func (s *Service) GetMode() Mode { return s.mode }

// SetMode sets the input mode directly.
func (s *Service) SetMode(mode Mode) { s.mode = mode }

// EnterNormal switches to normal mode.
func (s *Service) EnterNormal() { s.mode = ModeNormal }

// EnterSelect switches to multi-select mode.
func (s *Service) EnterSelect() { s.mode = ModeSelect }

// EnterGoto switches to goto mode.
func (s *Service) EnterGoto() { s.mode = ModeGoto }

// ExitMode drops back to normal mode, reporting whether anything changed.
func (s *Service) ExitMode() bool {
	if s.mode == ModeNormal {
		return false
	}
	s.mode = ModeNormal
	return true
}

// IsNormal reports whether the board is in normal mode.
func (s *Service) IsNormal() bool { return s.mode == ModeNormal }

// IsSelect reports whether the board is in select mode.
func (s *Service) IsSelect() bool { return s.mode == ModeSelect }

// IsGoto reports whether the board is in goto mode.
func (s *Service) IsGoto() bool { return s.mode == ModeGoto }

// GetFilter returns the live filter; mutations through it are visible on
// the next render.
func (s *Service) GetFilter() *domain.Filter { return s.filter }

// SetFilter replaces the filter wholesale (used on project-state restore).
func (s *Service) SetFilter(filter *domain.Filter) { s.filter = filter }

// SetSearchQuery updates the search conjunct.
func (s *Service) SetSearchQuery(query string) { s.filter.SearchQuery = query }

// ClearSearch drops the search conjunct.
func (s *Service) ClearSearch() { s.filter.SearchQuery = "" }

// ToggleStatusFilter flips a status in or out of the filter set.
func (s *Service) ToggleStatusFilter(status domain.Status) {
	s.filter.ToggleStatus(status)
}

// TogglePriorityFilter flips a priority in or out of the filter set.
func (s *Service) TogglePriorityFilter(priority domain.Priority) {
	s.filter.TogglePriority(priority)
}

// ToggleTypeFilter flips a task type in or out of the filter set.
func (s *Service) ToggleTypeFilter(taskType domain.TaskType) {
	s.filter.ToggleType(taskType)
}

// ToggleSessionFilter flips a session state in or out of the filter set.
func (s *Service) ToggleSessionFilter(state domain.SessionState) {
	s.filter.ToggleSessionState(state)
}

// ToggleHideEpicChildren flips the epic-children visibility conjunct.
func (s *Service) ToggleHideEpicChildren() {
	s.filter.HideEpicChildren = !s.filter.HideEpicChildren
}

// SetAgeFilter keeps only tasks untouched for at least minDays days (nil
// disables the age conjunct).
func (s *Service) SetAgeFilter(minDays *int) { s.filter.AgeMinDays = minDays }

// ClearFilters resets every filter conjunct.
func (s *Service) ClearFilters() { s.filter = domain.NewFilter() }

// IsFilterActive reports whether any conjunct is set.
func (s *Service) IsFilterActive() bool { return s.filter.IsActive() }

// ApplyFilter filters tasks through the current filter.
func (s *Service) ApplyFilter(tasks []domain.Task) []domain.Task {
	return s.filter.Apply(tasks)
}

// GetSort returns the live sort config.
func (s *Service) GetSort() *domain.Sort { return s.sort }

// SetSort replaces the sort config (used on project-state restore).
func (s *Service) SetSort(sort *domain.Sort) { s.sort = sort }

// SetSortField sets the sort key.
func (s *Service) SetSortField(field domain.SortField) { s.sort.Field = field }

// SetSortOrder sets the sort direction.
func (s *Service) SetSortOrder(order domain.SortOrder) { s.sort.Order = order }

// ToggleSort switches to field, or flips direction when already on it.
func (s *Service) ToggleSort(field domain.SortField) { s.sort.Toggle(field) }

// ApplySort orders tasks by the current sort config.
func (s *Service) ApplySort(tasks []domain.Task) []domain.Task {
	return s.sort.Apply(tasks)
}

// GetSelectedTasks exposes the selection set for rendering.
func (s *Service) GetSelectedTasks() map[string]bool { return s.selectedTasks }

// IsSelected reports whether taskID is in the selection.
func (s *Service) IsSelected(taskID string) bool { return s.selectedTasks[taskID] }

// ToggleSelection flips taskID in or out of the selection.
func (s *Service) ToggleSelection(taskID string) {
	if s.selectedTasks[taskID] {
		delete(s.selectedTasks, taskID)
	} else {
		s.selectedTasks[taskID] = true
	}
}

// Select adds taskID to the selection.
func (s *Service) Select(taskID string) { s.selectedTasks[taskID] = true }

// Deselect removes taskID from the selection.
func (s *Service) Deselect(taskID string) { delete(s.selectedTasks, taskID) }

// SelectAll adds every task in tasks to the selection.
func (s *Service) SelectAll(tasks []domain.Task) {
	for _, task := range tasks {
		s.selectedTasks[task.ID] = true
	}
}

// ClearSelection empties the selection.
func (s *Service) ClearSelection() { s.selectedTasks = make(map[string]bool) }

// SelectionCount returns how many tasks are selected.
func (s *Service) SelectionCount() int { return len(s.selectedTasks) }

// HasSelection reports whether anything is selected.
func (s *Service) HasSelection() bool { return len(s.selectedTasks) > 0 }

// GetSelectedTasksList returns the selected IDs as a slice.
func (s *Service) GetSelectedTasksList() []string {
	result := make([]string, 0, len(s.selectedTasks))
	for id := range s.selectedTasks {
		result = append(result, id)
	}
	return result
}

// GetShowPhases reports whether dependency phases are drawn on cards.
func (s *Service) GetShowPhases() bool { return s.showPhases }

// ToggleShowPhases flips the phase-display toggle.
func (s *Service) ToggleShowPhases() { s.showPhases = !s.showPhases }

// FilterAndSort runs tasks through the filter then the sort.
func (s *Service) FilterAndSort(tasks []domain.Task) []domain.Task {
	return s.sort.Apply(s.filter.Apply(tasks))
}

// FilterAndSortByStatus filters tasks, keeps only those in status, and
// sorts the remainder; the per-column pipeline.
func (s *Service) FilterAndSortByStatus(tasks []domain.Task, status domain.Status) []domain.Task {
	var inStatus []domain.Task
	for _, task := range s.filter.Apply(tasks) {
		if task.Status == status {
			inStatus = append(inStatus, task)
		}
	}
	return s.sort.Apply(inStatus)
}
