package domain

import (
	"strings"
	"time"
)

// Filter is the board's task predicate. Fields AND together; membership
// within one field is an OR over the set.
type Filter struct {
	Status           map[Status]bool
	Priority         map[Priority]bool
	Type             map[TaskType]bool
	SessionState     map[SessionState]bool
	HideEpicChildren bool
	// AgeMinDays keeps only tasks untouched for at least this many days,
	// for sweeping stale work. Nil disables the age conjunct.
	AgeMinDays  *int
	SearchQuery string
}

// NewFilter creates an empty filter that matches everything.
func NewFilter() *Filter {
	return &Filter{
		Status:       make(map[Status]bool),
		Priority:     make(map[Priority]bool),
		Type:         make(map[TaskType]bool),
		SessionState: make(map[SessionState]bool),
	}
}

// IsActive reports whether any conjunct is set.
func (f *Filter) IsActive() bool {
	return len(f.Status) > 0 ||
		len(f.Priority) > 0 ||
		len(f.Type) > 0 ||
		len(f.SessionState) > 0 ||
		f.HideEpicChildren ||
		f.AgeMinDays != nil ||
		f.SearchQuery != ""
}

// Apply returns the tasks matching every active conjunct.
func (f *Filter) Apply(tasks []Task) []Task {
	if !f.IsActive() {
		return tasks
	}

	result := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if f.Matches(task) {
			result = append(result, task)
		}
	}
	return result
}

// Matches reports whether t passes every active conjunct.
func (f *Filter) Matches(t Task) bool {
	if len(f.Status) > 0 && !f.Status[t.Status] {
		return false
	}
	if len(f.Priority) > 0 && !f.Priority[t.Priority] {
		return false
	}
	if len(f.Type) > 0 && !f.Type[t.Type] {
		return false
	}
	if len(f.SessionState) > 0 {
		if t.Session == nil || !f.SessionState[t.Session.State] {
			return false
		}
	}
	if f.HideEpicChildren && t.ParentID != nil {
		return false
	}
	if f.AgeMinDays != nil && daysSinceUpdate(t) < *f.AgeMinDays {
		return false
	}
	if f.SearchQuery != "" {
		query := strings.ToLower(f.SearchQuery)
		if !strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.ID), query) {
			return false
		}
	}
	return true
}

// daysSinceUpdate counts whole days since t was last touched, comparing on
// day boundaries so the count doesn't jitter within a day.
func daysSinceUpdate(t Task) int {
	now := time.Now().Truncate(24 * time.Hour)
	updated := t.UpdatedAt.Truncate(24 * time.Hour)
	return int(now.Sub(updated) / (24 * time.Hour))
}

// Clear resets every conjunct.
func (f *Filter) Clear() {
	f.Status = make(map[Status]bool)
	f.Priority = make(map[Priority]bool)
	f.Type = make(map[TaskType]bool)
	f.SessionState = make(map[SessionState]bool)
	f.HideEpicChildren = false
	f.AgeMinDays = nil
	f.SearchQuery = ""
}

// ToggleStatus flips s in or out of the status set.
func (f *Filter) ToggleStatus(s Status) {
	toggle(f.Status, s)
}

// TogglePriority flips p in or out of the priority set.
func (f *Filter) TogglePriority(p Priority) {
	toggle(f.Priority, p)
}

// ToggleType flips t in or out of the type set.
func (f *Filter) ToggleType(t TaskType) {
	toggle(f.Type, t)
}

// ToggleSessionState flips s in or out of the session-state set.
func (f *Filter) ToggleSessionState(s SessionState) {
	toggle(f.SessionState, s)
}

func toggle[K comparable](set map[K]bool, key K) {
	if set[key] {
		delete(set, key)
	} else {
		set[key] = true
	}
}
