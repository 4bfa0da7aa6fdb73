package overlay

import (
	"strings"
	"testing"
)

func TestHelpOverlay_ShowsAllCategories(t *testing.T) {
	h := NewHelpOverlay()
	h.viewHeight = 100 // show everything at once

	view := h.View()
	for _, cat := range helpCategories {
		if !strings.Contains(view, cat.Name+":") {
			t.Errorf("view missing category %q", cat.Name)
		}
	}
	if !strings.Contains(view, "Open action menu") {
		t.Error("view missing a binding description")
	}
}

func TestHelpOverlay_Scrolling(t *testing.T) {
	h := NewHelpOverlay()
	h.viewHeight = 5
	h.View() // computes maxScroll

	if h.maxScroll == 0 {
		t.Fatal("short viewport should require scrolling")
	}

	h.Update(keyMsg("j"))
	if h.scroll != 1 {
		t.Errorf("j should scroll down, scroll = %d", h.scroll)
	}

	h.Update(keyMsg("G"))
	if h.scroll != h.maxScroll {
		t.Errorf("G should jump to bottom, scroll = %d want %d", h.scroll, h.maxScroll)
	}

	h.Update(keyMsg("g"))
	if h.scroll != 0 {
		t.Errorf("g should jump to top, scroll = %d", h.scroll)
	}

	h.Update(keyMsg("k"))
	if h.scroll != 0 {
		t.Errorf("k at top should clamp, scroll = %d", h.scroll)
	}
}

func TestHelpOverlay_ScrollHintOnlyWhenNeeded(t *testing.T) {
	h := NewHelpOverlay()
	h.viewHeight = 5
	if !strings.Contains(h.View(), "to scroll") {
		t.Error("short viewport should show the scroll hint")
	}

	h.viewHeight = 200
	h.scroll = 0
	if strings.Contains(h.View(), "to scroll") {
		t.Error("tall viewport should not show the scroll hint")
	}
}

func TestHelpOverlay_CloseKeys(t *testing.T) {
	for _, key := range []string{"esc", "q", "?"} {
		h := NewHelpOverlay()
		_, cmd := h.Update(keyMsg(key))
		if cmd == nil {
			t.Fatalf("%s should produce a command", key)
		}
		if _, ok := cmd().(CloseOverlayMsg); !ok {
			t.Errorf("%s should close help", key)
		}
	}
}
