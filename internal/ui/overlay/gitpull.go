package overlay

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// GitPullOverlay prompts the user to pull when the local base branch has
// fallen behind the remote.
type GitPullOverlay struct {
	commitsBehind int
	pull          bool
	styles        *Styles
}

// NewGitPullOverlay creates the pull prompt; Pull Now starts selected.
func NewGitPullOverlay(count int) *GitPullOverlay {
	return &GitPullOverlay{
		commitsBehind: count,
		pull:          true,
		styles:        New(),
	}
}

func (g *GitPullOverlay) Init() tea.Cmd {
	return nil
}

func (g *GitPullOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}

	switch key.String() {
	case "p", "P":
		return g, selectCmd("git_pull", nil)
	case "enter":
		if g.pull {
			return g, selectCmd("git_pull", nil)
		}
		return g, closeCmd()
	case "n", "N", "esc":
		return g, closeCmd()
	case "left", "h", "right", "l", "tab":
		g.pull = !g.pull
	}
	return g, nil
}

func (g *GitPullOverlay) View() string {
	var b strings.Builder

	message := fmt.Sprintf("Your local main branch is behind by %d commits.", g.commitsBehind)
	b.WriteString(g.styles.MenuItem.Render(message))
	b.WriteString("\n\n")

	selected := 1
	if g.pull {
		selected = 0
	}
	b.WriteString(renderButtonRow(g.styles, []string{"[P] Pull Now", "[N] Not Now"}, selected))
	b.WriteString("\n\n")
	b.WriteString(g.styles.Footer.Render("← → / Tab: Switch • Enter: Confirm • Esc: Cancel"))

	return b.String()
}

func (g *GitPullOverlay) Title() string {
	return "Git Sync"
}

func (g *GitPullOverlay) Size() (width, height int) {
	return 60, 8
}
