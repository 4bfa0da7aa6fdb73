package overlay

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeRunes(s *SearchOverlay, text string) (tea.Model, tea.Cmd) {
	var model tea.Model = s
	var cmd tea.Cmd
	for _, r := range text {
		model, cmd = model.(*SearchOverlay).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return model, cmd
}

func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestSearchOverlay_EmitsQueryPerKeystroke(t *testing.T) {
	s := NewSearchOverlay()

	_, cmd := typeRunes(s, "bug")

	var query string
	for _, msg := range drain(cmd) {
		if sm, ok := msg.(SearchMsg); ok {
			query = sm.Query
		}
	}
	if query != "bug" {
		t.Errorf("query = %q, want bug", query)
	}
}

func TestSearchOverlay_EnterKeepsFilter(t *testing.T) {
	s := NewSearchOverlay()
	typeRunes(s, "x")

	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})

	msgs := drain(cmd)
	closed := false
	for _, msg := range msgs {
		switch msg.(type) {
		case CloseOverlayMsg:
			closed = true
		case SearchMsg:
			t.Error("enter must not clear the query")
		}
	}
	if !closed {
		t.Error("enter should close the overlay")
	}
}

func TestSearchOverlay_EscClearsFilter(t *testing.T) {
	s := NewSearchOverlay()
	typeRunes(s, "x")

	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEsc})

	var cleared, closed bool
	for _, msg := range drain(cmd) {
		switch m := msg.(type) {
		case SearchMsg:
			cleared = m.Query == ""
		case CloseOverlayMsg:
			closed = true
		}
	}
	if !cleared || !closed {
		t.Errorf("esc should clear and close, cleared=%v closed=%v", cleared, closed)
	}
}

func TestSearchOverlay_ViewShowsMatchCount(t *testing.T) {
	s := NewSearchOverlay()
	typeRunes(s, "bug")
	s.SetMatchCount(4)

	if view := s.View(); !strings.Contains(view, "4 matches") {
		t.Errorf("view missing match count: %q", view)
	}
}

func TestSearchOverlay_BarShape(t *testing.T) {
	s := NewSearchOverlay()
	if s.Title() != "" {
		t.Error("search bar draws frameless, Title must be empty")
	}
	if w, h := s.Size(); w != 0 || h != 1 {
		t.Errorf("Size() = %d x %d, want full-width single line", w, h)
	}
}
