package overlay

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func settingsFixture() (*SettingsOverlay, *map[string]any) {
	changes := map[string]any{}
	items := []SettingItem{
		{Key: "autoRefresh", Label: "Auto-refresh", Type: SettingToggle, Value: true,
			OnChange: func(v any) { changes["autoRefresh"] = v }},
		{Type: SettingSeparator},
		{Key: "theme", Label: "Theme", Type: SettingChoice, Value: "dark",
			Choices:  []string{"dark", "light", "auto"},
			OnChange: func(v any) { changes["theme"] = v }},
		{Key: "editConfig", Label: "Edit config", Type: SettingAction,
			OnAction: func() tea.Cmd { return selectCmd("edit-config", nil) }},
	}
	return NewSettingsOverlay(items), &changes
}

func TestSettings_CursorSkipsSeparators(t *testing.T) {
	m, _ := settingsFixture()

	if m.cursor != 0 {
		t.Fatalf("cursor starts at %d, want 0", m.cursor)
	}

	m.Update(keyMsg("j"))
	if m.cursor != 2 {
		t.Errorf("j should skip the separator, cursor = %d", m.cursor)
	}

	m.Update(keyMsg("k"))
	if m.cursor != 0 {
		t.Errorf("k should skip back over the separator, cursor = %d", m.cursor)
	}
}

func TestSettings_ToggleFiresOnChange(t *testing.T) {
	m, changes := settingsFixture()

	m.Update(keyMsg(" "))
	if v, ok := (*changes)["autoRefresh"]; !ok || v != false {
		t.Errorf("toggle should flip to false, got %v", (*changes)["autoRefresh"])
	}
	if m.items[0].Value != false {
		t.Errorf("item value should update, got %v", m.items[0].Value)
	}

	m.Update(keyMsg(" "))
	if (*changes)["autoRefresh"] != true {
		t.Error("second toggle should flip back")
	}
}

func TestSettings_ChoiceCycles(t *testing.T) {
	m, changes := settingsFixture()
	m.Update(keyMsg("j")) // onto theme

	m.Update(keyMsg("right"))
	if (*changes)["theme"] != "light" {
		t.Errorf("right should advance the choice, got %v", (*changes)["theme"])
	}

	m.Update(keyMsg("left"))
	if (*changes)["theme"] != "dark" {
		t.Errorf("left should cycle back, got %v", (*changes)["theme"])
	}

	m.Update(keyMsg("left"))
	if (*changes)["theme"] != "auto" {
		t.Errorf("left from the first choice should wrap, got %v", (*changes)["theme"])
	}
}

func TestSettings_ActionRunsOnEnter(t *testing.T) {
	m, _ := settingsFixture()
	m.Update(keyMsg("j"))
	m.Update(keyMsg("j")) // onto the action entry

	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter on an action should run it")
	}
	if sel, ok := cmd().(SelectionMsg); !ok || sel.Key != "edit-config" {
		t.Errorf("expected edit-config selection, got %v", cmd())
	}
}

func TestSettings_EscCloses(t *testing.T) {
	m, _ := settingsFixture()
	_, cmd := m.Update(keyMsg("esc"))
	if cmd == nil {
		t.Fatal("esc should produce a command")
	}
	if _, ok := cmd().(CloseOverlayMsg); !ok {
		t.Error("esc should close settings")
	}
}

func TestSettings_ViewRendersItems(t *testing.T) {
	m, _ := settingsFixture()
	view := m.View()
	for _, want := range []string{"Auto-refresh", "Theme", "Edit config"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSettings_DefaultOverlayBuilds(t *testing.T) {
	m := NewDefaultSettingsOverlay()
	if len(m.items) == 0 {
		t.Fatal("default settings should have items")
	}
	if m.Title() == "" {
		t.Error("Title should be set")
	}
	if w, h := m.Size(); w <= 0 || h <= 0 {
		t.Errorf("Size() = %d x %d", w, h)
	}
}
