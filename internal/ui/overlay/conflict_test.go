package overlay

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func conflictChoice(t *testing.T, key string) ConflictResolutionMsg {
	t.Helper()
	c := NewConflictDialog([]string{"src/x.ts"})
	_, cmd := c.Update(keyMsg(key))
	if cmd == nil {
		t.Fatalf("%s should produce a command", key)
	}
	sel, ok := cmd().(SelectionMsg)
	if !ok {
		t.Fatalf("%s should emit a SelectionMsg", key)
	}
	res, ok := sel.Value.(ConflictResolutionMsg)
	if !ok {
		t.Fatalf("%s value should be a ConflictResolutionMsg, got %T", key, sel.Value)
	}
	return res
}

func TestConflictOverlay_Choices(t *testing.T) {
	if !conflictChoice(t, "c").ResolveWithClaude {
		t.Error("c should choose agent resolution")
	}
	if !conflictChoice(t, "a").Abort {
		t.Error("a should choose abort")
	}
	if !conflictChoice(t, "o").OpenManually {
		t.Error("o should choose manual resolution")
	}
}

func TestConflictOverlay_HooksTakePrecedence(t *testing.T) {
	hookRan := false
	c := NewConflictOverlay([]string{"a.go"},
		func() tea.Cmd {
			return func() tea.Msg { hookRan = true; return nil }
		},
		nil,
	)

	_, cmd := c.Update(keyMsg("c"))
	if cmd == nil {
		t.Fatal("expected the hook's command")
	}
	cmd()
	if !hookRan {
		t.Error("configured resolve hook should run instead of emitting a selection")
	}
}

func TestConflictOverlay_FileCursor(t *testing.T) {
	c := NewConflictDialog([]string{"a.go", "b.go", "c.go"})

	c.Update(keyMsg("j"))
	c.Update(keyMsg("j"))
	if c.cursor != 2 {
		t.Errorf("cursor = %d, want 2", c.cursor)
	}
	c.Update(keyMsg("j"))
	if c.cursor != 2 {
		t.Errorf("cursor should clamp at last file, got %d", c.cursor)
	}
	c.Update(keyMsg("k"))
	if c.cursor != 1 {
		t.Errorf("cursor = %d, want 1", c.cursor)
	}
}

func TestConflictOverlay_ViewListsFilesAndOptions(t *testing.T) {
	c := NewConflictDialog([]string{"src/x.ts", "src/y.ts"})
	view := c.View()

	for _, want := range []string{"Merge conflicts detected", "src/x.ts", "src/y.ts", "Abort merge", "Resolve with Claude"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestConflictOverlay_SizeGrowsWithFiles(t *testing.T) {
	small := NewConflictDialog([]string{"a"})
	big := NewConflictDialog(make([]string, 20))

	_, hSmall := small.Size()
	_, hBig := big.Size()
	if hBig <= hSmall {
		t.Error("more files should grow the overlay")
	}
	if _, h := big.Size(); h > 18 {
		t.Errorf("file list should cap, got height %d", h)
	}
}
