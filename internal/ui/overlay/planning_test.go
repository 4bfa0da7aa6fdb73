package overlay

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/domain"
)

func TestPlanningOverlay_StartsInInput(t *testing.T) {
	p := NewPlanningOverlay()
	if p.phase != phaseInput {
		t.Errorf("phase = %v, want input", p.phase)
	}
	if !p.focusInput {
		t.Error("quick input should start focused")
	}
}

func TestPlanningOverlay_UpdateStateDrivesPhase(t *testing.T) {
	cases := []struct {
		status domain.PlanningStatus
		want   planningPhase
	}{
		{domain.PlanningIdle, phaseInput},
		{domain.PlanningGenerating, phaseProgress},
		{domain.PlanningReviewing, phaseProgress},
		{domain.PlanningRefining, phaseProgress},
		{domain.PlanningCreatingBeads, phaseProgress},
		{domain.PlanningComplete, phaseComplete},
		{domain.PlanningErrorStatus, phaseError},
	}

	for _, tt := range cases {
		p := NewPlanningOverlay()
		p.UpdateState(domain.PlanningState{Status: tt.status})
		if p.phase != tt.want {
			t.Errorf("status %v: phase = %v, want %v", tt.status, p.phase, tt.want)
		}
	}
}

func TestPlanningOverlay_SubmitStartsPlanning(t *testing.T) {
	p := NewPlanningOverlay()
	for _, r := range "add dark mode" {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter with a description should start planning")
	}
	start, ok := cmd().(PlanningStartMsg)
	if !ok {
		t.Fatalf("expected PlanningStartMsg, got %T", cmd())
	}
	if start.Description != "add dark mode" {
		t.Errorf("Description = %q", start.Description)
	}
	if p.phase != phaseProgress {
		t.Error("submitting should move into the progress phase")
	}
}

func TestPlanningOverlay_EmptySubmitIsNoop(t *testing.T) {
	p := NewPlanningOverlay()
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter with no text should do nothing")
	}
	if p.phase != phaseInput {
		t.Error("phase should stay input")
	}
}

func TestPlanningOverlay_DetailedFieldWins(t *testing.T) {
	p := NewPlanningOverlay()
	for _, r := range "quick" {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	p.Update(tea.KeyMsg{Type: tea.KeyTab})
	for _, r := range "detailed spec" {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	start := cmd().(PlanningStartMsg)
	if start.Description != "detailed spec" {
		t.Errorf("detailed text should win, got %q", start.Description)
	}
}

func TestPlanningOverlay_CompleteEmitsBeads(t *testing.T) {
	p := NewPlanningOverlay()
	p.UpdateState(domain.PlanningState{
		Status:       domain.PlanningComplete,
		CreatedBeads: []domain.Task{{ID: "az-1"}, {ID: "az-2"}},
	})

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter in complete phase should emit")
	}

	var beads int
	var closed bool
	for _, msg := range drain(cmd) {
		switch m := msg.(type) {
		case PlanningCompleteMsg:
			beads = len(m.Beads)
		case CloseOverlayMsg:
			closed = true
		}
	}
	if beads != 2 || !closed {
		t.Errorf("beads=%d closed=%v", beads, closed)
	}
}

func TestPlanningOverlay_PlanAnotherResets(t *testing.T) {
	p := NewPlanningOverlay()
	p.UpdateState(domain.PlanningState{Status: domain.PlanningComplete})

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if p.phase != phaseInput {
		t.Error("r should reset to input phase")
	}
	if p.input.Value() != "" {
		t.Error("r should clear the quick field")
	}
}

func TestPlanningOverlay_ErrorRetry(t *testing.T) {
	p := NewPlanningOverlay()
	p.UpdateState(domain.PlanningState{Status: domain.PlanningErrorStatus, Error: "rate limited"})

	if !strings.Contains(p.View(), "rate limited") {
		t.Error("error view should show the message")
	}

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if p.phase != phaseInput {
		t.Error("r should return to input for a retry")
	}
}

func TestPlanningOverlay_ProgressView(t *testing.T) {
	p := NewPlanningOverlay()
	p.UpdateState(domain.PlanningState{
		Status:          domain.PlanningReviewing,
		ReviewPass:      1,
		MaxReviewPasses: 3,
		CurrentPlan: &domain.Plan{
			EpicTitle: "Dark mode",
			Summary:   "Theme plumbing then UI toggles",
			Tasks: []domain.PlannedTask{
				{ID: "task-1", Title: "Add theme tokens", CanParallelize: true},
				{ID: "task-2", Title: "Wire toggle", DependsOn: []string{"task-1"}},
			},
			ParallelizationScore: 80,
		},
		ReviewHistory: []domain.ReviewFeedback{
			{Score: 85, IsApproved: true, Issues: []string{"task-2 lacks acceptance criteria"}},
		},
	})

	view := p.View()
	for _, want := range []string{
		"Reviewing plan", "1/3", "Epic: Dark mode", "Add theme tokens",
		"deps: task-1", "80%", "85/100", "(Approved)", "acceptance criteria",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("progress view missing %q", want)
		}
	}
}

func TestPlanningOverlay_SizePerPhase(t *testing.T) {
	p := NewPlanningOverlay()
	for _, phase := range []planningPhase{phaseInput, phaseProgress, phaseComplete, phaseError} {
		p.phase = phase
		if w, h := p.Size(); w <= 0 || h <= 0 {
			t.Errorf("phase %v: Size() = %d x %d", phase, w, h)
		}
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10); got != "short" {
		t.Errorf("truncateText(short) = %q", got)
	}
	if got := truncateText("a very long sentence indeed", 10); got != "a very ..." {
		t.Errorf("truncated = %q", got)
	}
}
