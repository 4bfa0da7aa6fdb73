package overlay

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SearchMsg carries the query on every keystroke so the board can filter
// live.
type SearchMsg struct {
	Query string
}

// SearchOverlay is the single-line incremental search bar.
type SearchOverlay struct {
	input      textinput.Model
	matchCount int
}

var (
	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("235"))
	matchCountStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Background(lipgloss.Color("235"))
)

// NewSearchOverlay creates a focused search input.
func NewSearchOverlay() *SearchOverlay {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return &SearchOverlay{input: ti}
}

// SetMatchCount updates the "(N matches)" suffix.
func (s *SearchOverlay) SetMatchCount(count int) {
	s.matchCount = count
}

func (s *SearchOverlay) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards keystrokes into the input and re-emits the query on any
// change. Enter keeps the filter and closes; Esc clears it first.
func (s *SearchOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			return s, closeCmd()
		case tea.KeyEsc:
			s.input.SetValue("")
			return s, tea.Batch(
				func() tea.Msg { return SearchMsg{} },
				closeCmd(),
			)
		}
	}

	prev := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if value := s.input.Value(); value != prev {
		return s, tea.Batch(cmd, func() tea.Msg { return SearchMsg{Query: value} })
	}
	return s, cmd
}

func (s *SearchOverlay) View() string {
	view := s.input.View()
	if s.input.Value() != "" {
		view += matchCountStyle.Render(fmt.Sprintf(" (%d matches)", s.matchCount))
	}
	return searchStyle.Render(view)
}

// Title is empty: the search bar draws without a frame.
func (s *SearchOverlay) Title() string {
	return ""
}

// Size is a full-width single line.
func (s *SearchOverlay) Size() (width, height int) {
	return 0, 1
}
