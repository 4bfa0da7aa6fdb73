package overlay

import (
	"strings"
	"testing"
	"time"

	"github.com/riordanpawley/azedarach/internal/domain"
)

func detailTask() domain.Task {
	parent := "az-epic"
	return domain.Task{
		ID:          "az-1",
		Title:       "Fix login flow",
		Status:      domain.StatusInProgress,
		Priority:    domain.P1,
		Type:        domain.TypeBug,
		Description: "The login form drops the redirect param.\n\nRepro steps below.",
		ParentID:    &parent,
		UpdatedAt:   time.Now(),
	}
}

func TestDetailPanel_ViewShowsTaskFields(t *testing.T) {
	d := NewDetailPanel(detailTask(), nil)

	view := d.View()
	for _, want := range []string{"az-1", "Fix login flow", "In Progress", "P1", "az-epic", "redirect param"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q", want)
		}
	}
}

func TestDetailPanel_ViewWithSession(t *testing.T) {
	started := time.Now().Add(-5 * time.Minute)
	session := &domain.Session{
		State:     domain.SessionBusy,
		StartedAt: &started,
		Worktree:  "/tmp/p-az-1",
	}
	d := NewDetailPanel(detailTask(), session)

	view := d.View()
	if !strings.Contains(view, "busy") && !strings.Contains(view, domain.SessionBusy.Icon()) {
		t.Errorf("session state missing from view:\n%s", view)
	}
	if !strings.Contains(view, "/tmp/p-az-1") {
		t.Error("worktree path missing from view")
	}
}

func TestDetailPanel_Scrolling(t *testing.T) {
	task := detailTask()
	task.Description = strings.Repeat("a line of description text\n", 60)
	d := NewDetailPanel(task, nil)
	d.View() // content height is already set by NewDetailPanel

	d.Update(keyMsg("j"))
	if d.scrollY != 1 {
		t.Errorf("j should scroll, scrollY = %d", d.scrollY)
	}
	d.Update(keyMsg("k"))
	d.Update(keyMsg("k"))
	if d.scrollY != 0 {
		t.Errorf("k should clamp at the top, scrollY = %d", d.scrollY)
	}
	d.Update(keyMsg("G"))
	if d.scrollY != d.maxScroll() {
		t.Errorf("G should jump to the bottom, scrollY = %d want %d", d.scrollY, d.maxScroll())
	}
	d.Update(keyMsg("g"))
	if d.scrollY != 0 {
		t.Errorf("g should jump to the top, scrollY = %d", d.scrollY)
	}
}

func TestDetailPanel_CloseKeys(t *testing.T) {
	for _, key := range []string{"esc", "q"} {
		d := NewDetailPanel(detailTask(), nil)
		_, cmd := d.Update(keyMsg(key))
		if cmd == nil {
			t.Fatalf("%s should produce a command", key)
		}
		if _, ok := cmd().(CloseOverlayMsg); !ok {
			t.Errorf("%s should close the panel", key)
		}
	}
}

func TestDetailPanel_TitleAndSize(t *testing.T) {
	d := NewDetailPanel(detailTask(), nil)
	if !strings.Contains(d.Title(), "az-1") {
		t.Errorf("Title = %q", d.Title())
	}
	if w, h := d.Size(); w <= 0 || h <= 0 {
		t.Errorf("Size() = %d x %d", w, h)
	}
}

func TestDetailPanel_FormatStatus(t *testing.T) {
	d := NewDetailPanel(detailTask(), nil)
	cases := map[domain.Status]string{
		domain.StatusOpen:       "Open",
		domain.StatusInProgress: "In Progress",
		domain.StatusBlocked:    "Blocked",
		domain.StatusClosed:     "Done",
	}
	for status, want := range cases {
		if got := d.formatStatus(status); got != want {
			t.Errorf("formatStatus(%v) = %q, want %q", status, got, want)
		}
	}
}

func TestDetailPanel_FormatDuration(t *testing.T) {
	d := NewDetailPanel(detailTask(), nil)
	cases := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{time.Hour + time.Minute + time.Second, "1h 1m 1s"},
	}
	for _, tt := range cases {
		if got := d.formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
