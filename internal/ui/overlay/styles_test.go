package overlay

import "testing"

func TestNew_PopulatesEveryStyle(t *testing.T) {
	s := New()
	if s == nil {
		t.Fatal("New returned nil")
	}

	// A zero lipgloss.Style renders its input unchanged; every style here
	// is expected to carry at least one property.
	checks := map[string]bool{
		"Title bold":          s.Title.GetBold(),
		"MenuItemActive bold": s.MenuItemActive.GetBold(),
		"MenuKey bold":        s.MenuKey.GetBold(),
		"MenuHeader bold":     s.MenuHeader.GetBold(),
		"Overlay has padding": s.Overlay.GetPaddingLeft() > 0,
		"Footer has margin":   s.Footer.GetMarginTop() > 0,
	}
	for name, ok := range checks {
		if !ok {
			t.Errorf("%s not set", name)
		}
	}
}

func TestNew_DistinctItemStates(t *testing.T) {
	s := New()

	normal := s.MenuItem.GetForeground()
	active := s.MenuItemActive.GetForeground()
	disabled := s.MenuItemDisabled.GetForeground()

	if normal == active {
		t.Error("active item must differ from normal")
	}
	if normal == disabled {
		t.Error("disabled item must differ from normal")
	}
}
