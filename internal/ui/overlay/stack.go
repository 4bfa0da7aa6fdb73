package overlay

import tea "github.com/charmbracelet/bubbletea"

// Stack is the LIFO of open overlays; only the top one receives input.
type Stack struct {
	overlays []Overlay
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push opens o on top of the stack and returns its init command.
func (s *Stack) Push(o Overlay) tea.Cmd {
	s.overlays = append(s.overlays, o)
	return o.Init()
}

// Pop dismisses the top overlay, returning it (nil when empty).
func (s *Stack) Pop() Overlay {
	n := len(s.overlays)
	if n == 0 {
		return nil
	}
	top := s.overlays[n-1]
	s.overlays = s.overlays[:n-1]
	return top
}

// Current returns the top overlay without dismissing it.
func (s *Stack) Current() Overlay {
	if len(s.overlays) == 0 {
		return nil
	}
	return s.overlays[len(s.overlays)-1]
}

// IsEmpty reports whether any overlay is open.
func (s *Stack) IsEmpty() bool {
	return len(s.overlays) == 0
}

// Clear dismisses everything at once.
func (s *Stack) Clear() {
	s.overlays = nil
}

// Update routes msg to the top overlay. A CloseOverlayMsg pops instead of
// being forwarded; any replacement model the overlay returns takes its
// place on the stack.
func (s *Stack) Update(msg tea.Msg) tea.Cmd {
	if s.IsEmpty() {
		return nil
	}
	if _, ok := msg.(CloseOverlayMsg); ok {
		s.Pop()
		return nil
	}

	next, cmd := s.Current().Update(msg)
	if replacement, ok := next.(Overlay); ok && len(s.overlays) > 0 {
		s.overlays[len(s.overlays)-1] = replacement
	}
	return cmd
}
