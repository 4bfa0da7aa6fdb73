package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PRCreatedMsg carries the completed PR form to the app model.
type PRCreatedMsg struct {
	Title      string
	Body       string
	Branch     string
	BaseBranch string
	Draft      bool
	BeadID     string
}

// prField enumerates the form's focusable fields in tab order.
type prField int

const (
	prFieldTitle prField = iota
	prFieldBody
	prFieldDraft
	prFieldSubmit
	prFieldCount
)

// PRCreateOverlay is the pull-request creation form.
type PRCreateOverlay struct {
	title      textinput.Model
	body       textarea.Model
	draft      bool
	branch     string
	baseBranch string
	beadID     string
	focus      prField
	styles     *Styles
}

// NewPRCreateOverlay creates the form for branch → baseBranch. Draft is on
// by default.
func NewPRCreateOverlay(branch, baseBranch, beadID string) *PRCreateOverlay {
	ti := textinput.New()
	ti.Placeholder = "Pull request title..."
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 70

	ta := textarea.New()
	ta.Placeholder = "Describe your changes (supports markdown)..."
	ta.CharLimit = 5000
	ta.SetWidth(70)
	ta.SetHeight(8)

	return &PRCreateOverlay{
		title:      ti,
		body:       ta,
		draft:      true,
		branch:     branch,
		baseBranch: baseBranch,
		beadID:     beadID,
		styles:     New(),
	}
}

func (p *PRCreateOverlay) Init() tea.Cmd {
	return textinput.Blink
}

func (p *PRCreateOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return p, closeCmd()
		case "ctrl+s":
			return p, p.submit()
		case "tab":
			p.setFocus((p.focus + 1) % prFieldCount)
			return p, nil
		case "shift+tab":
			p.setFocus((p.focus - 1 + prFieldCount) % prFieldCount)
			return p, nil
		case "enter":
			if p.focus == prFieldSubmit {
				return p, p.submit()
			}
			// fall through so the body textarea can take the newline
		case "d":
			if p.focus == prFieldDraft {
				p.draft = !p.draft
				return p, nil
			}
		}
	}

	var cmd tea.Cmd
	switch p.focus {
	case prFieldTitle:
		p.title, cmd = p.title.Update(msg)
	case prFieldBody:
		p.body, cmd = p.body.Update(msg)
	}
	return p, cmd
}

func (p *PRCreateOverlay) setFocus(field prField) {
	p.focus = field
	p.title.Blur()
	p.body.Blur()
	switch field {
	case prFieldTitle:
		p.title.Focus()
	case prFieldBody:
		p.body.Focus()
	}
}

func (p *PRCreateOverlay) View() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#94e2d5")).
		Width(14).
		Align(lipgloss.Right)
	focusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89b4fa")).
		Bold(true)
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6c7086"))

	label := func(field prField, text string) string {
		if p.focus == field {
			return focusStyle.Render(text)
		}
		return labelStyle.Render(text)
	}

	var b strings.Builder

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Creating PR: %s → %s (Bead: %s)", p.branch, p.baseBranch, p.beadID)))
	b.WriteString("\n\n")

	b.WriteString(label(prFieldTitle, "Title:"))
	b.WriteString("  ")
	b.WriteString(p.title.View())
	b.WriteString("\n\n")

	b.WriteString(label(prFieldBody, "Description:"))
	b.WriteString("\n")
	b.WriteString(p.body.View())
	b.WriteString("\n\n")

	b.WriteString(label(prFieldDraft, "Draft:"))
	b.WriteString("  ")
	b.WriteString(p.renderDraftToggle())
	b.WriteString("\n\n")

	b.WriteString(p.styles.Separator.Render(strings.Repeat("─", 70)))
	b.WriteString("\n\n")

	submitStyle := p.styles.MenuItem
	if p.focus == prFieldSubmit {
		submitStyle = p.styles.MenuItemActive
	}
	b.WriteString(submitStyle.Render("[ Create Pull Request ]"))
	b.WriteString("\n\n")

	hints := []string{
		p.styles.MenuKey.Render("Tab") + " " + p.styles.Footer.Render("Switch fields"),
		p.styles.MenuKey.Render("d") + " " + p.styles.Footer.Render("Toggle draft"),
		p.styles.MenuKey.Render("Ctrl+S") + " " + p.styles.Footer.Render("Submit"),
		p.styles.MenuKey.Render("Esc") + " " + p.styles.Footer.Render("Cancel"),
	}
	b.WriteString(p.styles.Footer.Render(strings.Join(hints, " • ")))

	return b.String()
}

func (p *PRCreateOverlay) renderDraftToggle() string {
	if p.draft {
		return p.styles.MenuItemActive.Render("[✓] Draft PR (ready for review later)")
	}
	return p.styles.MenuItem.Render("[ ] Ready for review")
}

// submit emits the form content and closes; an empty title blocks
// submission.
func (p *PRCreateOverlay) submit() tea.Cmd {
	title := strings.TrimSpace(p.title.Value())
	if title == "" {
		return nil
	}

	return tea.Batch(
		func() tea.Msg {
			return PRCreatedMsg{
				Title:      title,
				Body:       strings.TrimSpace(p.body.Value()),
				Branch:     p.branch,
				BaseBranch: p.baseBranch,
				Draft:      p.draft,
				BeadID:     p.beadID,
			}
		},
		closeCmd(),
	)
}

func (p *PRCreateOverlay) Title() string {
	return "Create Pull Request"
}

func (p *PRCreateOverlay) Size() (width, height int) {
	return 80, 28
}
