package domain

import (
	"testing"
	"time"
)

func sampleTasks() []Task {
	parent := "az-epic"
	return []Task{
		{ID: "az-1", Title: "Fix login flow", Status: StatusOpen, Priority: P1, Type: TypeBug,
			UpdatedAt: time.Now()},
		{ID: "az-2", Title: "Add settings page", Status: StatusInProgress, Priority: P2, Type: TypeFeature,
			UpdatedAt: time.Now().AddDate(0, 0, -3),
			Session:   &Session{State: SessionBusy}},
		{ID: "az-3", Title: "Upgrade toolchain", Status: StatusClosed, Priority: P3, Type: TypeChore,
			UpdatedAt: time.Now().AddDate(0, 0, -40)},
		{ID: "az-4", Title: "Epic child work", Status: StatusOpen, Priority: P2, Type: TypeTask,
			UpdatedAt: time.Now(), ParentID: &parent},
	}
}

func matchedIDs(f *Filter, tasks []Task) []string {
	var out []string
	for _, t := range f.Apply(tasks) {
		out = append(out, t.ID)
	}
	return out
}

func assertMatched(t *testing.T, f *Filter, want ...string) {
	t.Helper()
	got := matchedIDs(f, sampleTasks())
	if len(got) != len(want) {
		t.Fatalf("matched %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matched %v, want %v", got, want)
		}
	}
}

func TestFilter_InactivePassesEverything(t *testing.T) {
	f := NewFilter()
	if f.IsActive() {
		t.Error("fresh filter should be inactive")
	}
	if got := f.Apply(sampleTasks()); len(got) != 4 {
		t.Errorf("inactive filter should pass all tasks, got %d", len(got))
	}
}

func TestFilter_StatusSetIsAnOr(t *testing.T) {
	f := NewFilter()
	f.ToggleStatus(StatusOpen)
	f.ToggleStatus(StatusClosed)
	assertMatched(t, f, "az-1", "az-3", "az-4")
}

func TestFilter_FieldsAndTogether(t *testing.T) {
	f := NewFilter()
	f.ToggleStatus(StatusOpen)
	f.TogglePriority(P1)
	assertMatched(t, f, "az-1")
}

func TestFilter_TypeSet(t *testing.T) {
	f := NewFilter()
	f.ToggleType(TypeBug)
	f.ToggleType(TypeChore)
	assertMatched(t, f, "az-1", "az-3")
}

func TestFilter_SessionStateRequiresASession(t *testing.T) {
	f := NewFilter()
	f.ToggleSessionState(SessionBusy)
	assertMatched(t, f, "az-2")
}

func TestFilter_HideEpicChildren(t *testing.T) {
	f := NewFilter()
	f.HideEpicChildren = true
	assertMatched(t, f, "az-1", "az-2", "az-3")
}

func TestFilter_AgeKeepsStaleTasks(t *testing.T) {
	f := NewFilter()
	days := 7
	f.AgeMinDays = &days

	// Only az-3 (40 days untouched) qualifies as stale at the 7-day mark.
	assertMatched(t, f, "az-3")

	days = 2
	assertMatched(t, f, "az-2", "az-3")
}

func TestFilter_SearchMatchesTitleOrID(t *testing.T) {
	f := NewFilter()
	f.SearchQuery = "LOGIN"
	assertMatched(t, f, "az-1")

	f.SearchQuery = "az-3"
	assertMatched(t, f, "az-3")

	f.SearchQuery = "no such thing"
	assertMatched(t, f)
}

func TestFilter_ToggleRemovesOnSecondCall(t *testing.T) {
	f := NewFilter()
	f.ToggleStatus(StatusOpen)
	f.ToggleStatus(StatusOpen)
	if f.IsActive() {
		t.Error("double toggle should leave the filter inactive")
	}
}

func TestFilter_Clear(t *testing.T) {
	f := NewFilter()
	days := 7
	f.ToggleStatus(StatusOpen)
	f.TogglePriority(P1)
	f.ToggleType(TypeBug)
	f.ToggleSessionState(SessionBusy)
	f.HideEpicChildren = true
	f.AgeMinDays = &days
	f.SearchQuery = "x"

	f.Clear()

	if f.IsActive() {
		t.Error("Clear should leave the filter inactive")
	}
	if got := f.Apply(sampleTasks()); len(got) != 4 {
		t.Errorf("cleared filter should pass all tasks, got %d", len(got))
	}
}
