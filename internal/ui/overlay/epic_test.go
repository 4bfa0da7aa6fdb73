package overlay

import (
	"strings"
	"testing"

	"github.com/riordanpawley/azedarach/internal/domain"
)

func epicFixture() *EpicDrillDown {
	epic := domain.Task{ID: "az-epic", Title: "Auth overhaul", Type: domain.TypeEpic}
	children := []domain.Task{
		{ID: "az-1", Title: "Token plumbing", Status: domain.StatusClosed, Priority: domain.P1},
		{ID: "az-2", Title: "Login page", Status: domain.StatusInProgress, Priority: domain.P2,
			Session: &domain.Session{State: domain.SessionBusy}},
		{ID: "az-3", Title: "Logout flow", Status: domain.StatusOpen, Priority: domain.P3},
	}
	return NewEpicDrillDown(epic, children)
}

func TestEpicDrillDown_Navigation(t *testing.T) {
	e := epicFixture()

	e.Update(keyMsg("j"))
	if e.cursor != 1 {
		t.Errorf("cursor = %d, want 1", e.cursor)
	}
	e.Update(keyMsg("j"))
	e.Update(keyMsg("j"))
	if e.cursor != 2 {
		t.Errorf("cursor should clamp at last child, got %d", e.cursor)
	}
	e.Update(keyMsg("k"))
	if e.cursor != 1 {
		t.Errorf("cursor = %d, want 1", e.cursor)
	}
}

func TestEpicDrillDown_SelectChild(t *testing.T) {
	e := epicFixture()
	e.Update(keyMsg("j"))

	_, cmd := e.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter should select the child")
	}
	sel, ok := cmd().(SelectionMsg)
	if !ok || sel.Key != "select_child" {
		t.Fatalf("expected select_child, got %v", cmd())
	}
	if sel.Value != "az-2" {
		t.Errorf("selected %v, want az-2", sel.Value)
	}
}

func TestEpicDrillDown_CloseKeys(t *testing.T) {
	for _, key := range []string{"q", "esc"} {
		e := epicFixture()
		_, cmd := e.Update(keyMsg(key))
		if cmd == nil {
			t.Fatalf("%s should produce a command", key)
		}
		if _, ok := cmd().(CloseOverlayMsg); !ok {
			t.Errorf("%s should close the drill-down", key)
		}
	}
}

func TestEpicDrillDown_ViewShowsProgressAndChildren(t *testing.T) {
	e := epicFixture()
	view := e.View()

	for _, want := range []string{"Auth overhaul", "1/3", "33%", "az-1", "az-2", "az-3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !strings.Contains(view, domain.SessionBusy.Icon()) {
		t.Error("busy child should show its session icon")
	}
}

func TestEpicDrillDown_NoChildren(t *testing.T) {
	e := NewEpicDrillDown(domain.Task{ID: "az-epic", Title: "Empty"}, nil)

	view := e.View()
	if !strings.Contains(view, "No child tasks") {
		t.Error("empty epic should say so")
	}
	if !strings.Contains(view, "0/0") {
		t.Error("progress for empty epic should render 0/0")
	}
	if _, cmd := e.Update(keyMsg("enter")); cmd != nil {
		t.Error("enter with no children should do nothing")
	}
}

func TestEpicDrillDown_TitleAndSize(t *testing.T) {
	e := epicFixture()
	if e.Title() != "Epic: az-epic" {
		t.Errorf("Title = %q", e.Title())
	}

	_, hWith := e.Size()
	_, hEmpty := NewEpicDrillDown(domain.Task{}, nil).Size()
	if hWith <= 6 || hEmpty != 8 {
		t.Errorf("sizes = %d / %d", hWith, hEmpty)
	}
}
