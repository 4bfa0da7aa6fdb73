package overlay

import (
	"strings"
	"testing"

	"github.com/riordanpawley/azedarach/internal/domain"
)

func TestSortMenu_SelectField(t *testing.T) {
	sort := &domain.Sort{Field: domain.SortBySession, Order: domain.SortAsc}
	m := NewSortMenu(sort)

	_, cmd := m.Update(keyMsg("p"))

	if sort.Field != domain.SortByPriority || sort.Order != domain.SortAsc {
		t.Errorf("p should switch to priority/asc, got %+v", sort)
	}
	if cmd == nil {
		t.Fatal("selection should emit a message")
	}
	if sel, ok := cmd().(SelectionMsg); !ok || sel.Key != "p" {
		t.Errorf("expected SelectionMsg{p}, got %v", sel)
	}
}

func TestSortMenu_SameKeyFlipsDirection(t *testing.T) {
	sort := &domain.Sort{Field: domain.SortByPriority, Order: domain.SortAsc}
	m := NewSortMenu(sort)

	m.Update(keyMsg("p"))
	if sort.Order != domain.SortDesc {
		t.Errorf("same key should flip to descending, got %v", sort.Order)
	}

	m.Update(keyMsg("p"))
	if sort.Order != domain.SortAsc {
		t.Errorf("again should flip back, got %v", sort.Order)
	}
}

func TestSortMenu_EscCloses(t *testing.T) {
	m := NewSortMenu(&domain.Sort{})
	_, cmd := m.Update(keyMsg("esc"))
	if cmd == nil {
		t.Fatal("esc should produce a command")
	}
	if _, ok := cmd().(CloseOverlayMsg); !ok {
		t.Error("esc should close the menu")
	}
}

func TestSortMenu_ViewMarksActiveField(t *testing.T) {
	sort := &domain.Sort{Field: domain.SortByUpdated, Order: domain.SortDesc}
	m := NewSortMenu(sort)

	view := m.View()
	if !strings.Contains(view, "●") {
		t.Error("active field should carry the indicator")
	}
	if !strings.Contains(view, "↓") {
		t.Error("descending sort should show the down arrow")
	}
	for _, label := range []string{"Session", "Priority", "Updated"} {
		if !strings.Contains(view, label) {
			t.Errorf("view missing option %q", label)
		}
	}
}
