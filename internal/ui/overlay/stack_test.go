package overlay

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// stubOverlay is a minimal Overlay that records the messages it receives.
type stubOverlay struct {
	name     string
	received []tea.Msg
	initRan  bool
}

func (s *stubOverlay) Init() tea.Cmd {
	s.initRan = true
	return nil
}

func (s *stubOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	s.received = append(s.received, msg)
	return s, nil
}

func (s *stubOverlay) View() string     { return s.name }
func (s *stubOverlay) Title() string    { return s.name }
func (s *stubOverlay) Size() (int, int) { return 10, 5 }

func TestStack_PushPopOrder(t *testing.T) {
	s := NewStack()
	if !s.IsEmpty() {
		t.Fatal("new stack should be empty")
	}

	first := &stubOverlay{name: "first"}
	second := &stubOverlay{name: "second"}
	s.Push(first)
	s.Push(second)

	if !first.initRan || !second.initRan {
		t.Error("Push must run Init")
	}
	if s.Current() != second {
		t.Error("Current should be the most recently pushed overlay")
	}
	if s.Pop() != second {
		t.Error("Pop should return the top overlay")
	}
	if s.Current() != first {
		t.Error("after Pop, the previous overlay is on top")
	}
}

func TestStack_PopEmpty(t *testing.T) {
	s := NewStack()
	if s.Pop() != nil {
		t.Error("Pop on empty stack returns nil")
	}
	if s.Current() != nil {
		t.Error("Current on empty stack returns nil")
	}
}

func TestStack_Clear(t *testing.T) {
	s := NewStack()
	s.Push(&stubOverlay{name: "a"})
	s.Push(&stubOverlay{name: "b"})

	s.Clear()
	if !s.IsEmpty() {
		t.Error("Clear should empty the stack")
	}
}

func TestStack_UpdateRoutesToTopOnly(t *testing.T) {
	s := NewStack()
	bottom := &stubOverlay{name: "bottom"}
	top := &stubOverlay{name: "top"}
	s.Push(bottom)
	s.Push(top)

	s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})

	if len(top.received) != 1 {
		t.Errorf("top overlay should receive the message, got %d", len(top.received))
	}
	if len(bottom.received) != 0 {
		t.Errorf("bottom overlay must not receive messages, got %d", len(bottom.received))
	}
}

func TestStack_UpdateCloseMsgPops(t *testing.T) {
	s := NewStack()
	top := &stubOverlay{name: "top"}
	s.Push(top)

	s.Update(CloseOverlayMsg{})

	if !s.IsEmpty() {
		t.Error("CloseOverlayMsg should pop the top overlay")
	}
	if len(top.received) != 0 {
		t.Error("CloseOverlayMsg must not be forwarded to the overlay")
	}
}

func TestStack_UpdateOnEmptyIsNoop(t *testing.T) {
	s := NewStack()
	if cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("Update on empty stack returns nil")
	}
}

func TestStepCursor(t *testing.T) {
	cases := []struct{ cur, delta, n, want int }{
		{0, 1, 3, 1},
		{2, 1, 3, 2},
		{0, -1, 3, 0},
		{2, -5, 3, 0},
		{0, 10, 3, 2},
	}
	for _, tt := range cases {
		if got := stepCursor(tt.cur, tt.delta, tt.n); got != tt.want {
			t.Errorf("stepCursor(%d, %d, %d) = %d, want %d", tt.cur, tt.delta, tt.n, got, tt.want)
		}
	}
}
