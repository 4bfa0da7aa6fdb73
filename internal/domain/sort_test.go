package domain

import (
	"testing"
	"time"
)

func TestSort_Toggle(t *testing.T) {
	s := Sort{Field: SortByPriority, Order: SortDesc}

	s.Toggle(SortBySession)
	if s.Field != SortBySession || s.Order != SortAsc {
		t.Errorf("switching field should reset to ascending, got %v/%v", s.Field, s.Order)
	}

	s.Toggle(SortBySession)
	if s.Order != SortDesc {
		t.Errorf("toggling the same field should flip to descending, got %v", s.Order)
	}

	s.Toggle(SortBySession)
	if s.Order != SortAsc {
		t.Errorf("toggling again should flip back to ascending, got %v", s.Order)
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func assertOrder(t *testing.T, got []Task, want []string) {
	t.Helper()
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order mismatch at %d: got %v, want %v", i, ids(got), want)
		}
	}
}

func TestSort_Apply_Priority(t *testing.T) {
	tasks := []Task{
		{ID: "az-1", Priority: P2},
		{ID: "az-2", Priority: P0},
		{ID: "az-3", Priority: P1},
		{ID: "az-4", Priority: P4},
		{ID: "az-5", Priority: P0},
	}

	asc := Sort{Field: SortByPriority, Order: SortAsc}
	assertOrder(t, asc.Apply(tasks), []string{"az-2", "az-5", "az-3", "az-1", "az-4"})

	desc := Sort{Field: SortByPriority, Order: SortDesc}
	assertOrder(t, desc.Apply(tasks), []string{"az-4", "az-1", "az-3", "az-2", "az-5"})
}

func TestSort_Apply_Updated(t *testing.T) {
	now := time.Now()
	tasks := []Task{
		{ID: "az-1", UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "az-2", UpdatedAt: now.Add(-5 * time.Hour)},
		{ID: "az-3", UpdatedAt: now.Add(-1 * time.Hour)},
		{ID: "az-4", UpdatedAt: now.Add(-10 * time.Hour)},
	}

	asc := Sort{Field: SortByUpdated, Order: SortAsc}
	assertOrder(t, asc.Apply(tasks), []string{"az-4", "az-2", "az-1", "az-3"})

	desc := Sort{Field: SortByUpdated, Order: SortDesc}
	assertOrder(t, desc.Apply(tasks), []string{"az-3", "az-1", "az-2", "az-4"})
}

func TestSort_Apply_Session(t *testing.T) {
	tasks := []Task{
		{ID: "az-1", Session: &Session{State: SessionBusy}},
		{ID: "az-2", Session: &Session{State: SessionDone}},
		{ID: "az-3", Session: &Session{State: SessionWaiting}},
		{ID: "az-4", Session: &Session{State: SessionError}},
		{ID: "az-5", Session: &Session{State: SessionPaused}},
		{ID: "az-6", Session: &Session{State: SessionIdle}},
		{ID: "az-7", Session: nil},
		{ID: "az-8", Session: &Session{State: SessionInitializing}},
		{ID: "az-9", Session: &Session{State: SessionCrashed}},
	}

	// Urgency order: initializing, busy, waiting, paused, crashed, done,
	// error, idle, then tasks with no session at all.
	asc := Sort{Field: SortBySession, Order: SortAsc}
	assertOrder(t, asc.Apply(tasks), []string{
		"az-8", "az-1", "az-3", "az-5", "az-9", "az-2", "az-4", "az-6", "az-7",
	})

	desc := Sort{Field: SortBySession, Order: SortDesc}
	assertOrder(t, desc.Apply(tasks), []string{
		"az-7", "az-6", "az-4", "az-2", "az-9", "az-5", "az-3", "az-1", "az-8",
	})
}

func TestSort_SessionStateRank(t *testing.T) {
	ranks := []struct {
		state SessionState
		rank  int
	}{
		{SessionInitializing, 0},
		{SessionBusy, 1},
		{SessionWarning, 2},
		{SessionWaiting, 3},
		{SessionPaused, 4},
		{SessionCrashed, 5},
		{SessionDone, 6},
		{SessionError, 7},
		{SessionIdle, 8},
	}

	for _, tt := range ranks {
		if got := sessionStatePriority(tt.state); got != tt.rank {
			t.Errorf("sessionStatePriority(%s) = %d, want %d", tt.state, got, tt.rank)
		}
	}

	if got := sessionStatePriority(""); got <= sessionStatePriority(SessionIdle) {
		t.Errorf("no-session rank %d should sort after idle", got)
	}
}

func TestSort_Apply_EmptyAndStable(t *testing.T) {
	s := Sort{Field: SortByPriority, Order: SortAsc}

	if got := s.Apply(nil); len(got) != 0 {
		t.Errorf("Apply(nil) should return empty, got %d tasks", len(got))
	}

	// Equal keys keep their submission order.
	tasks := []Task{
		{ID: "az-1", Priority: P1},
		{ID: "az-2", Priority: P1},
		{ID: "az-3", Priority: P1},
	}
	assertOrder(t, s.Apply(tasks), []string{"az-1", "az-2", "az-3"})
}
