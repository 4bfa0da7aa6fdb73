package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// MergeTarget is one branch a bead can merge into: the base branch, or
// another bead's worktree branch.
type MergeTarget struct {
	ID          string // "main" or a bead id
	Label       string
	IsMain      bool
	Status      domain.Status
	HasWorktree bool
}

// MergeSelectOverlay picks where a bead's branch should merge to.
type MergeSelectOverlay struct {
	source        *domain.Task
	candidates    []MergeTarget
	cursor        int
	onMerge       func(targetID string) tea.Cmd
	onCancel      func() tea.Cmd
	overlayStyles *Styles
}

// MergeTargetSelectedMsg reports the chosen source/target pair.
type MergeTargetSelectedMsg struct {
	SourceID string
	TargetID string
}

// NewMergeSelectOverlay creates the target picker for source.
func NewMergeSelectOverlay(
	source *domain.Task,
	candidates []MergeTarget,
	onMerge func(targetID string) tea.Cmd,
	onCancel func() tea.Cmd,
) *MergeSelectOverlay {
	return &MergeSelectOverlay{
		source:        source,
		candidates:    candidates,
		onMerge:       onMerge,
		onCancel:      onCancel,
		overlayStyles: New(),
	}
}

func (m *MergeSelectOverlay) Init() tea.Cmd {
	return nil
}

func (m *MergeSelectOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc", "q":
		if m.onCancel != nil {
			return m, m.onCancel()
		}
		return m, closeCmd()
	case "j", "down":
		if len(m.candidates) > 0 {
			m.cursor = (m.cursor + 1) % len(m.candidates)
		}
	case "k", "up":
		if len(m.candidates) > 0 {
			m.cursor = (m.cursor - 1 + len(m.candidates)) % len(m.candidates)
		}
	case "enter":
		return m, m.selectCurrent()
	}
	return m, nil
}

func (m *MergeSelectOverlay) selectCurrent() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.candidates) {
		return nil
	}

	target := m.candidates[m.cursor]
	if m.onMerge != nil {
		return m.onMerge(target.ID)
	}
	return selectCmd("merge", MergeTargetSelectedMsg{
		SourceID: m.source.ID,
		TargetID: target.ID,
	})
}

func (m *MergeSelectOverlay) View() string {
	var b strings.Builder

	b.WriteString(m.overlayStyles.Title.Render(
		fmt.Sprintf("Merge %s into:", m.overlayStyles.MenuKey.Render(m.source.ID))))
	b.WriteString("\n\n")

	if len(m.candidates) == 0 {
		b.WriteString("  " + m.overlayStyles.MenuItemDisabled.Render("No eligible merge targets found"))
		b.WriteString("\n")
	} else {
		for i, candidate := range m.candidates {
			b.WriteString(m.renderCandidate(candidate, i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.overlayStyles.Footer.Render("j/k: navigate • Enter: select • Esc: cancel"))

	return b.String()
}

func (m *MergeSelectOverlay) renderCandidate(target MergeTarget, active bool) string {
	cursor := "  "
	if active {
		cursor = lipgloss.NewStyle().Foreground(styles.Blue).Render("▸ ")
	}

	if target.IsMain {
		label := lipgloss.NewStyle().Foreground(styles.Green).Bold(true).Render("main")
		if active {
			label = m.overlayStyles.MenuItemActive.Render("main")
		}
		return cursor + label + m.overlayStyles.MenuItemDisabled.Render("(main branch)")
	}

	idStyle := m.overlayStyles.MenuKey
	labelStyle := m.overlayStyles.MenuItem
	if active {
		idStyle = lipgloss.NewStyle().Foreground(styles.Yellow).Bold(true)
		labelStyle = m.overlayStyles.MenuItemActive
	}

	parts := []string{
		cursor + idStyle.Render(target.ID),
		lipgloss.NewStyle().
			Foreground(styles.StatusColors[target.Status.String()]).
			Render(fmt.Sprintf("[%s]", target.Status)),
		labelStyle.Render(target.Label),
	}
	if !target.HasWorktree {
		parts = append(parts, m.overlayStyles.MenuItemDisabled.Render("(no worktree)"))
	}
	return strings.Join(parts, " ")
}

func (m *MergeSelectOverlay) Title() string {
	return "Select Merge Target"
}

func (m *MergeSelectOverlay) Size() (width, height int) {
	lines := max(min(len(m.candidates), 15), 1)
	return 60, 4 + lines
}
