package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// PlanningStartMsg asks the app to run the planning pipeline.
type PlanningStartMsg struct {
	Description string
}

// PlanningCompleteMsg reports the beads that planning created.
type PlanningCompleteMsg struct {
	Beads []domain.Task
}

// planningPhase is the overlay's own screen, derived from the planning
// service's state.
type planningPhase string

const (
	phaseInput    planningPhase = "input"
	phaseProgress planningPhase = "progress"
	phaseComplete planningPhase = "complete"
	phaseError    planningPhase = "error"
)

var (
	planHeading = lipgloss.NewStyle().Foreground(lipgloss.Color("#cba6f7")).Bold(true)
	planSubtext = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
	planText    = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4"))
	planAccent  = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa"))
	planGood    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	planCaution = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	planBad     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
)

// PlanningOverlay drives the break-into-tasks flow: collect a feature
// description, watch the generate/review/refine pipeline, then show the
// created beads.
type PlanningOverlay struct {
	phase       planningPhase
	input       textinput.Model
	description textarea.Model
	state       domain.PlanningState
	styles      *Styles
	focusInput  bool
}

// NewPlanningOverlay creates the overlay in its input phase.
func NewPlanningOverlay() *PlanningOverlay {
	ti := textinput.New()
	ti.Placeholder = "Describe your feature..."
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 70

	ta := textarea.New()
	ta.Placeholder = "Enter detailed feature description..."
	ta.CharLimit = 2000
	ta.SetWidth(70)
	ta.SetHeight(8)

	return &PlanningOverlay{
		phase:       phaseInput,
		input:       ti,
		description: ta,
		state:       domain.PlanningState{Status: domain.PlanningIdle},
		styles:      New(),
		focusInput:  true,
	}
}

func (p *PlanningOverlay) Init() tea.Cmd {
	return textinput.Blink
}

// UpdateState syncs the overlay to the planning service's state.
func (p *PlanningOverlay) UpdateState(state domain.PlanningState) {
	p.state = state

	switch state.Status {
	case domain.PlanningIdle:
		p.phase = phaseInput
	case domain.PlanningComplete:
		p.phase = phaseComplete
	case domain.PlanningErrorStatus:
		p.phase = phaseError
	default:
		p.phase = phaseProgress
	}
}

func (p *PlanningOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch p.phase {
		case phaseInput:
			return p.updateInput(key)
		case phaseProgress:
			if key.String() == "esc" {
				return p, closeCmd()
			}
			return p, nil
		case phaseComplete:
			return p.updateComplete(key)
		case phaseError:
			return p.updateError(key)
		}
	}
	return p, p.updateActiveField(msg)
}

func (p *PlanningOverlay) updateInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		return p, closeCmd()
	case "tab":
		p.focusInput = !p.focusInput
		if p.focusInput {
			p.description.Blur()
			p.input.Focus()
		} else {
			p.input.Blur()
			p.description.Focus()
		}
		return p, nil
	case "ctrl+s", "enter":
		desc := strings.TrimSpace(p.description.Value())
		if desc == "" {
			desc = strings.TrimSpace(p.input.Value())
		}
		if desc == "" {
			return p, nil
		}
		p.phase = phaseProgress
		return p, func() tea.Msg { return PlanningStartMsg{Description: desc} }
	case "ctrl+u":
		if p.focusInput {
			p.input.SetValue("")
		} else {
			p.description.SetValue("")
		}
		return p, nil
	}
	return p, p.updateActiveField(key)
}

func (p *PlanningOverlay) updateComplete(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "enter":
		return p, tea.Batch(
			func() tea.Msg { return PlanningCompleteMsg{Beads: p.state.CreatedBeads} },
			closeCmd(),
		)
	case "r":
		p.phase = phaseInput
		p.input.SetValue("")
		p.description.SetValue("")
		p.focusInput = true
		p.input.Focus()
		p.description.Blur()
	}
	return p, nil
}

func (p *PlanningOverlay) updateError(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		return p, closeCmd()
	case "r":
		p.phase = phaseInput
	}
	return p, nil
}

func (p *PlanningOverlay) updateActiveField(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if p.focusInput {
		p.input, cmd = p.input.Update(msg)
	} else {
		p.description, cmd = p.description.Update(msg)
	}
	return cmd
}

func (p *PlanningOverlay) View() string {
	switch p.phase {
	case phaseInput:
		return p.viewInput()
	case phaseProgress:
		return p.viewProgress()
	case phaseComplete:
		return p.viewComplete()
	case phaseError:
		return p.viewError()
	}
	return ""
}

func (p *PlanningOverlay) viewInput() string {
	var b strings.Builder

	b.WriteString(planHeading.Render("Plan a New Feature"))
	b.WriteString("\n\n")
	for _, line := range []string{
		"AI will create a plan with:",
		"• Small, parallelizable tasks (30min-2hr each)",
		"• Proper dependencies between tasks",
		"• An epic to group related work",
	} {
		b.WriteString(planSubtext.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	label := func(active bool, text string) string {
		if active {
			return planAccent.Bold(true).Render(text)
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#94e2d5")).Width(12).Render(text)
	}

	b.WriteString(label(p.focusInput, "Quick:"))
	b.WriteString("  ")
	b.WriteString(p.input.View())
	b.WriteString("\n\n")
	b.WriteString(label(!p.focusInput, "Detailed:"))
	b.WriteString("\n")
	b.WriteString(p.description.View())
	b.WriteString("\n\n")

	hints := []string{
		p.styles.MenuKey.Render("Tab") + " " + p.styles.Footer.Render("Switch fields"),
		p.styles.MenuKey.Render("Enter") + " " + p.styles.Footer.Render("Generate"),
		p.styles.MenuKey.Render("Ctrl+U") + " " + p.styles.Footer.Render("Clear"),
		p.styles.MenuKey.Render("Esc") + " " + p.styles.Footer.Render("Cancel"),
	}
	b.WriteString(p.styles.Footer.Render(strings.Join(hints, " • ")))

	return b.String()
}

func (p *PlanningOverlay) viewProgress() string {
	var b strings.Builder

	b.WriteString(planHeading.Render("Planning in Progress"))
	b.WriteString("\n\n")
	b.WriteString(p.statusLine())
	b.WriteString("\n\n")

	if p.state.Status == domain.PlanningReviewing || p.state.Status == domain.PlanningRefining {
		b.WriteString(p.reviewProgressBar())
		b.WriteString("\n\n")
	}
	if p.state.CurrentPlan != nil {
		b.WriteString(p.planSummary(p.state.CurrentPlan))
		b.WriteString("\n\n")
	}
	if n := len(p.state.ReviewHistory); n > 0 {
		b.WriteString(p.reviewFeedback(&p.state.ReviewHistory[n-1]))
		b.WriteString("\n\n")
	}

	b.WriteString(p.styles.Footer.Render("Esc: cancel"))
	return b.String()
}

func (p *PlanningOverlay) viewComplete() string {
	var b strings.Builder

	b.WriteString(planGood.Bold(true).Render("Planning Complete!"))
	b.WriteString("\n\n")
	b.WriteString(planText.Render(fmt.Sprintf("Created %d beads:", len(p.state.CreatedBeads))))
	b.WriteString("\n\n")

	shown := min(len(p.state.CreatedBeads), 10)
	for _, bead := range p.state.CreatedBeads[:shown] {
		idStyle := planAccent
		if bead.Type == domain.TypeEpic {
			idStyle = planHeading
		}
		b.WriteString("  ")
		b.WriteString(idStyle.Render(bead.ID + ": "))
		b.WriteString(planText.Render(truncateText(bead.Title, 50)))
		b.WriteString("\n")
	}
	if rest := len(p.state.CreatedBeads) - shown; rest > 0 {
		b.WriteString("\n")
		b.WriteString(planSubtext.Render(fmt.Sprintf("  ... and %d more", rest)))
	}

	b.WriteString("\n\n")
	hints := []string{
		p.styles.MenuKey.Render("Enter/Esc") + " " + p.styles.Footer.Render("Close"),
		p.styles.MenuKey.Render("r") + " " + p.styles.Footer.Render("Plan another"),
	}
	b.WriteString(p.styles.Footer.Render(strings.Join(hints, " • ")))

	return b.String()
}

func (p *PlanningOverlay) viewError() string {
	var b strings.Builder

	b.WriteString(planBad.Bold(true).Render("Planning Failed"))
	b.WriteString("\n\n")
	b.WriteString(planBad.Render(p.state.Error))
	b.WriteString("\n\n")

	hints := []string{
		p.styles.MenuKey.Render("r") + " " + p.styles.Footer.Render("Retry"),
		p.styles.MenuKey.Render("Esc") + " " + p.styles.Footer.Render("Close"),
	}
	b.WriteString(p.styles.Footer.Render(strings.Join(hints, " • ")))

	return b.String()
}

// statusLine renders the pipeline's current stage.
func (p *PlanningOverlay) statusLine() string {
	stages := map[domain.PlanningStatus]struct {
		label string
		style lipgloss.Style
	}{
		domain.PlanningIdle:          {"Ready", planSubtext},
		domain.PlanningGenerating:    {"Generating plan...", planCaution},
		domain.PlanningReviewing:     {"Reviewing plan...", planAccent},
		domain.PlanningRefining:      {"Refining plan...", planHeading},
		domain.PlanningCreatingBeads: {"Creating beads...", planGood},
		domain.PlanningComplete:      {"Complete!", planGood},
		domain.PlanningErrorStatus:   {"Error", planBad},
	}
	stage := stages[p.state.Status]
	return stage.style.Render("● " + stage.label)
}

func (p *PlanningOverlay) reviewProgressBar() string {
	current, total := p.state.ReviewPass, p.state.MaxReviewPasses
	bar := planAccent.Render(strings.Repeat("█", current)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#313244")).Render(strings.Repeat("░", total-current))
	return planSubtext.Render("Review pass: ") + bar + planSubtext.Render(fmt.Sprintf(" %d/%d", current, total))
}

func (p *PlanningOverlay) planSummary(plan *domain.Plan) string {
	var b strings.Builder

	b.WriteString(planHeading.Render("Epic: " + plan.EpicTitle))
	b.WriteString("\n\n")
	b.WriteString(planSubtext.Render(truncateText(plan.Summary, 100) + "..."))
	b.WriteString("\n\n")
	b.WriteString(planAccent.Render(fmt.Sprintf("%d tasks planned:", len(plan.Tasks))))
	b.WriteString("\n")

	shown := min(len(plan.Tasks), 8)
	for _, task := range plan.Tasks[:shown] {
		indicator := planCaution.Render("│")
		if task.CanParallelize {
			indicator = planGood.Render("║")
		}
		b.WriteString("  ")
		b.WriteString(indicator)
		b.WriteString(" ")
		b.WriteString(planText.Render(truncateText(task.Title, 50)))
		if len(task.DependsOn) > 0 {
			b.WriteString(planSubtext.Render(fmt.Sprintf(" (deps: %s)", strings.Join(task.DependsOn, ", "))))
		}
		b.WriteString("\n")
	}
	if rest := len(plan.Tasks) - shown; rest > 0 {
		b.WriteString("\n")
		b.WriteString(planSubtext.Render(fmt.Sprintf("  ... and %d more", rest)))
	}

	if plan.ParallelizationScore > 0 {
		b.WriteString("\n\n")
		b.WriteString(planSubtext.Render("Parallelization score: "))
		b.WriteString(scoreStyle(plan.ParallelizationScore, 70, 40).Render(fmt.Sprintf("%d%%", plan.ParallelizationScore)))
	}

	return b.String()
}

func (p *PlanningOverlay) reviewFeedback(feedback *domain.ReviewFeedback) string {
	var b strings.Builder

	b.WriteString(planSubtext.Render("Quality score: "))
	b.WriteString(scoreStyle(feedback.Score, 80, 50).Render(fmt.Sprintf("%d/100", feedback.Score)))
	if feedback.IsApproved {
		b.WriteString(planGood.Render(" (Approved)"))
	}

	if len(feedback.Issues) > 0 {
		b.WriteString("\n\n")
		b.WriteString(planCaution.Render("Issues:"))
		b.WriteString("\n")
		for _, issue := range feedback.Issues[:min(len(feedback.Issues), 3)] {
			b.WriteString(planSubtext.Render("  • " + truncateText(issue, 60)))
			b.WriteString("\n")
		}
	}
	if len(feedback.TasksTooLarge) > 0 {
		b.WriteString("\n")
		b.WriteString(planBad.Render("Tasks too large: " + strings.Join(feedback.TasksTooLarge, ", ")))
	}

	return b.String()
}

// scoreStyle maps a numeric score against good/ok thresholds.
func scoreStyle(score, good, ok int) lipgloss.Style {
	switch {
	case score > good:
		return planGood
	case score > ok:
		return planCaution
	default:
		return planBad
	}
}

func (p *PlanningOverlay) Title() string {
	return "AI Planning"
}

func (p *PlanningOverlay) Size() (width, height int) {
	switch p.phase {
	case phaseProgress:
		return 80, 35
	case phaseComplete:
		return 80, 25
	case phaseError:
		return 80, 15
	default:
		return 80, 28
	}
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
