package overlay

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestGenerateLabels_HomeRowFirst(t *testing.T) {
	labels := GenerateLabels(4)
	want := []string{"a", "s", "d", "f"}
	for i, w := range want {
		if labels[i] != w {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], w)
		}
	}
}

func TestGenerateLabels_FallsBackToPairs(t *testing.T) {
	labels := GenerateLabels(15)
	if len(labels) != 15 {
		t.Fatalf("got %d labels, want 15", len(labels))
	}
	if len(labels[9]) != 1 {
		t.Errorf("first ten labels are singles, got %q", labels[9])
	}
	if len(labels[10]) != 2 {
		t.Errorf("labels past the home row are pairs, got %q", labels[10])
	}

	seen := make(map[string]bool)
	for _, l := range labels {
		if seen[l] {
			t.Errorf("duplicate label %q", l)
		}
		seen[l] = true
	}
}

func TestGenerateLabels_Empty(t *testing.T) {
	if got := GenerateLabels(0); len(got) != 0 {
		t.Errorf("GenerateLabels(0) = %v", got)
	}
	if got := GenerateLabels(-1); len(got) != 0 {
		t.Errorf("GenerateLabels(-1) = %v", got)
	}
}

func jumpPress(j *JumpMode, key string) tea.Cmd {
	_, cmd := j.Update(keyMsg(key))
	return cmd
}

func TestJumpMode_SingleCharSelection(t *testing.T) {
	j := NewJumpMode(3) // labels a, s, d — all singles

	cmd := jumpPress(j, "s")
	if cmd == nil {
		t.Fatal("expected a selection")
	}
	sel, ok := cmd().(JumpSelectedMsg)
	if !ok {
		t.Fatalf("expected JumpSelectedMsg, got %T", cmd())
	}
	if sel.TaskIndex != 1 {
		t.Errorf("TaskIndex = %d, want 1", sel.TaskIndex)
	}
}

func TestJumpMode_WaitsWhenLongerMatchExists(t *testing.T) {
	// 15 targets: singles a..; plus pairs aa, ab, ... — "a" is both a
	// complete label and a pair prefix, so the first keystroke must wait.
	j := NewJumpMode(15)

	if cmd := jumpPress(j, "a"); cmd != nil {
		if _, selected := cmd().(JumpSelectedMsg); selected {
			t.Fatal("ambiguous prefix must not select immediately")
		}
	}

	cmd := jumpPress(j, "b")
	if cmd == nil {
		t.Fatal("ab should resolve")
	}
	sel := cmd().(JumpSelectedMsg)
	if sel.TaskIndex != 11 {
		t.Errorf("ab TaskIndex = %d, want 11", sel.TaskIndex)
	}
}

func TestJumpMode_BackspaceEditsInput(t *testing.T) {
	j := NewJumpMode(15)

	jumpPress(j, "a")
	jumpPress(j, "backspace")
	if j.input != "" {
		t.Errorf("backspace should clear input, got %q", j.input)
	}

	// After the correction, a full pair still works.
	jumpPress(j, "a")
	cmd := jumpPress(j, "a")
	if cmd == nil {
		t.Fatal("aa should resolve after correction")
	}
	if sel := cmd().(JumpSelectedMsg); sel.TaskIndex != 10 {
		t.Errorf("aa TaskIndex = %d, want 10", sel.TaskIndex)
	}
}

func TestJumpMode_IgnoresNonLabelKeys(t *testing.T) {
	j := NewJumpMode(3)

	if cmd := jumpPress(j, "1"); cmd != nil {
		t.Error("digits are not labels")
	}
	if j.input != "" {
		t.Errorf("non-label key should not accumulate, got %q", j.input)
	}
}

func TestJumpMode_EscCancels(t *testing.T) {
	j := NewJumpMode(3)
	cmd := jumpPress(j, "esc")
	if cmd == nil {
		t.Fatal("esc should produce a command")
	}
	if _, ok := cmd().(CloseOverlayMsg); !ok {
		t.Error("esc should close jump mode")
	}
}

func TestJumpMode_GetLabel(t *testing.T) {
	j := NewJumpMode(3)
	if got := j.GetLabel(2); got != "d" {
		t.Errorf("GetLabel(2) = %q, want d", got)
	}
	if got := j.GetLabel(99); got != "" {
		t.Errorf("GetLabel(99) = %q, want empty", got)
	}
}

func TestIsJumpKey(t *testing.T) {
	for _, r := range []rune{'a', 'z', ';'} {
		if !isJumpKey(r) {
			t.Errorf("isJumpKey(%c) should be true", r)
		}
	}
	for _, r := range []rune{'1', 'A', ' ', '-'} {
		if isJumpKey(r) {
			t.Errorf("isJumpKey(%c) should be false", r)
		}
	}
}

func TestRenderLabel_NotEmpty(t *testing.T) {
	if RenderLabel("a") == "" {
		t.Error("RenderLabel should produce styled output")
	}
}
