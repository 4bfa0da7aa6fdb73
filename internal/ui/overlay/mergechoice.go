package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// MergeChoiceOverlay is shown when attaching to a session whose worktree
// has fallen behind base: merge first, or attach as-is.
type MergeChoiceOverlay struct {
	beadID        string
	commitsBehind int
	baseBranch    string
	styles        *Styles
}

// NewMergeChoiceOverlay creates the merge-or-skip prompt for beadID.
func NewMergeChoiceOverlay(beadID string, commitsBehind int, baseBranch string) *MergeChoiceOverlay {
	return &MergeChoiceOverlay{
		beadID:        beadID,
		commitsBehind: commitsBehind,
		baseBranch:    baseBranch,
		styles:        New(),
	}
}

func (m *MergeChoiceOverlay) Init() tea.Cmd {
	return nil
}

func (m *MergeChoiceOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "m", "M":
		return m, selectCmd("merge_attach", m.beadID)
	case "s", "S":
		return m, selectCmd("skip_attach", m.beadID)
	case "esc":
		return m, closeCmd()
	}
	return m, nil
}

func (m *MergeChoiceOverlay) View() string {
	var b strings.Builder

	prompt := fmt.Sprintf("%d commits behind %s. Merge latest?", m.commitsBehind, m.baseBranch)
	b.WriteString(m.styles.MenuItem.Render(prompt))
	b.WriteString("\n\n")
	b.WriteString(m.styles.MenuItem.Render("[M] Merge & Attach"))
	b.WriteString("\n")
	b.WriteString(m.styles.MenuItem.Render("[S] Skip & Attach"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Footer.Render("Esc: Cancel"))

	return b.String()
}

func (m *MergeChoiceOverlay) Title() string {
	return "Merge Choice"
}

func (m *MergeChoiceOverlay) Size() (width, height int) {
	return 60, 10
}
