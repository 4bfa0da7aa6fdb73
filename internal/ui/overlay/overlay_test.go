package overlay

import (
	"strings"
	"testing"
)

func TestCloseCmd(t *testing.T) {
	msg := closeCmd()()
	if _, ok := msg.(CloseOverlayMsg); !ok {
		t.Fatalf("closeCmd should deliver CloseOverlayMsg, got %T", msg)
	}
}

func TestSelectCmd(t *testing.T) {
	msg := selectCmd("git_pull", 3)()
	sel, ok := msg.(SelectionMsg)
	if !ok {
		t.Fatalf("selectCmd should deliver SelectionMsg, got %T", msg)
	}
	if sel.Key != "git_pull" {
		t.Errorf("Key = %q, want git_pull", sel.Key)
	}
	if v, _ := sel.Value.(int); v != 3 {
		t.Errorf("Value = %v, want 3", sel.Value)
	}
}

func TestSelectCmd_NilValue(t *testing.T) {
	sel := selectCmd("refresh", nil)().(SelectionMsg)
	if sel.Value != nil {
		t.Errorf("Value = %v, want nil", sel.Value)
	}
}

func TestRenderButtonRow(t *testing.T) {
	s := New()
	row := renderButtonRow(s, []string{"[Y] Yes", "[N] No"}, 1)

	if !strings.Contains(row, "[Y] Yes") || !strings.Contains(row, "[N] No") {
		t.Errorf("row missing labels: %q", row)
	}
	if !strings.Contains(row, "    ") {
		t.Errorf("buttons should be separated by spacing: %q", row)
	}
}

func TestRenderButtonRow_Empty(t *testing.T) {
	if row := renderButtonRow(New(), nil, 0); row != "" {
		t.Errorf("empty labels should render empty, got %q", row)
	}
}
