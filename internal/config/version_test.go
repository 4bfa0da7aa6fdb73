package config

import (
	"encoding/json"
	"testing"
)

func TestParseVersionedConfig_LegacyConfig(t *testing.T) {
	// No version field at all: treated as version 0 and migrated forward.
	legacyJSON := `{
		"cliTool": "opencode",
		"git": {
			"baseBranch": "develop"
		}
	}`

	cfg, err := ParseVersionedConfig([]byte(legacyJSON))
	if err != nil {
		t.Fatalf("parse legacy config: %v", err)
	}
	if cfg.CLITool != "opencode" {
		t.Errorf("CLITool = %q, want opencode", cfg.CLITool)
	}
	if cfg.Git.BaseBranch != "develop" {
		t.Errorf("Git.BaseBranch = %q, want develop", cfg.Git.BaseBranch)
	}
}

func TestParseVersionedConfig_V1MovesPRBaseBranch(t *testing.T) {
	// Version 1 kept the base branch under "pr"; migrating to v2 moves it
	// under "git" and drops the old key.
	v1JSON := `{
		"version": 1,
		"cliTool": "claude",
		"pr": {
			"baseBranch": "develop",
			"enabled": true
		}
	}`

	cfg, err := ParseVersionedConfig([]byte(v1JSON))
	if err != nil {
		t.Fatalf("parse v1 config: %v", err)
	}
	if cfg.Git.BaseBranch != "develop" {
		t.Errorf("Git.BaseBranch = %q, want develop (moved from pr)", cfg.Git.BaseBranch)
	}
	if !cfg.PR.Enabled {
		t.Error("PR.Enabled should survive the migration")
	}
}

func TestParseVersionedConfig_V1KeepsExplicitGitBaseBranch(t *testing.T) {
	// An explicit git.baseBranch wins over a stale pr.baseBranch.
	v1JSON := `{
		"version": 1,
		"git": {"baseBranch": "main"},
		"pr": {"baseBranch": "develop"}
	}`

	cfg, err := ParseVersionedConfig([]byte(v1JSON))
	if err != nil {
		t.Fatalf("parse v1 config: %v", err)
	}
	if cfg.Git.BaseBranch != "main" {
		t.Errorf("Git.BaseBranch = %q, want main", cfg.Git.BaseBranch)
	}
}

func TestParseVersionedConfig_FutureVersion(t *testing.T) {
	futureJSON := `{
		"version": 999,
		"cliTool": "future-tool"
	}`

	if _, err := ParseVersionedConfig([]byte(futureJSON)); err == nil {
		t.Error("expected error for a config from a future version")
	}
}

func TestApplyMigrations_RunsFullChain(t *testing.T) {
	data := map[string]interface{}{
		"cliTool": "claude",
		"pr": map[string]interface{}{
			"baseBranch": "trunk",
		},
	}

	migrated, err := ApplyMigrations(data, 0)
	if err != nil {
		t.Fatalf("migrate from v0: %v", err)
	}

	if version, ok := migrated["version"].(int); !ok || version != CurrentVersion {
		t.Errorf("version = %v, want %d", migrated["version"], CurrentVersion)
	}
	if cliTool, _ := migrated["cliTool"].(string); cliTool != "claude" {
		t.Errorf("cliTool = %v, want claude", migrated["cliTool"])
	}

	git, _ := migrated["git"].(map[string]interface{})
	if git == nil || git["baseBranch"] != "trunk" {
		t.Errorf("git.baseBranch = %v, want trunk", git)
	}
	pr, _ := migrated["pr"].(map[string]interface{})
	if _, stale := pr["baseBranch"]; stale {
		t.Error("pr.baseBranch should be removed by the v2 migration")
	}
}

func TestMarshalVersionedConfig(t *testing.T) {
	cfg := &Config{
		CLITool: "claude",
		Git: GitConfig{
			BaseBranch:   "main",
			WorkflowMode: "local",
		},
	}

	data, err := MarshalVersionedConfig(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if version, ok := result["version"].(float64); !ok || int(version) != CurrentVersion {
		t.Errorf("version = %v, want %d", result["version"], CurrentVersion)
	}
	if cliTool, _ := result["cliTool"].(string); cliTool != "claude" {
		t.Errorf("cliTool = %v, want claude", result["cliTool"])
	}
}

func TestVersionedConfig_RoundTrip(t *testing.T) {
	original := &Config{
		CLITool: "claude",
		Git: GitConfig{
			BaseBranch:           "main",
			WorkflowMode:         "origin",
			ShowLineChanges:      true,
			DefaultMergeStrategy: "squash",
		},
		Session: SessionConfig{
			Shell:     "bash",
			TimeoutMs: 60000,
		},
		PR: PRConfig{
			DraftByDefault: false,
			AutoLink:       true,
		},
		Network: NetworkConfig{
			AutoDetect: true,
			CheckHost:  "1.1.1.1",
		},
	}

	data, err := MarshalVersionedConfig(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseVersionedConfig(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if parsed.CLITool != original.CLITool ||
		parsed.Git.BaseBranch != original.Git.BaseBranch ||
		parsed.Git.WorkflowMode != original.Git.WorkflowMode ||
		parsed.Git.DefaultMergeStrategy != original.Git.DefaultMergeStrategy ||
		parsed.Session.Shell != original.Session.Shell ||
		parsed.Session.TimeoutMs != original.Session.TimeoutMs ||
		parsed.PR.AutoLink != original.PR.AutoLink ||
		parsed.Network.CheckHost != original.Network.CheckHost {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, original)
	}
}
