package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "claude", cfg.CLITool)

	// Git defaults
	assert.Equal(t, "main", cfg.Git.BaseBranch)
	assert.Equal(t, "local", cfg.Git.WorkflowMode)
	assert.True(t, cfg.Git.ShowLineChanges)
	assert.Equal(t, "merge", cfg.Git.DefaultMergeStrategy)

	// Session defaults
	assert.Equal(t, "zsh", cfg.Session.Shell)
	assert.Equal(t, 30000, cfg.Session.TimeoutMs)
	assert.NotEmpty(t, cfg.Session.LogDir)
	assert.NotNil(t, cfg.Session.InitCommands)

	// PR and merge defaults
	assert.True(t, cfg.PR.DraftByDefault)
	assert.True(t, cfg.PR.AutoLink)
	assert.Equal(t, "merge", cfg.Merge.Strategy)
	assert.False(t, cfg.Merge.AutoMerge)

	// Tracker, network, dev-server, worktree defaults
	assert.Equal(t, ".beads", cfg.Beads.Path)
	assert.Equal(t, 60, cfg.Network.CheckInterval)
	assert.Equal(t, 3000, cfg.DevServer.BasePort)
	assert.Equal(t, 3100, cfg.DevServer.MaxPort)
	assert.Equal(t, "../", cfg.Worktree.BasePath)
	assert.Equal(t, "{project}-{beadID}", cfg.Worktree.NameFormat)
}

func writeProjectConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	return dir
}

func TestLoadConfig_ProjectFile(t *testing.T) {
	dir := writeProjectConfig(t, ".azedarach.json", `{
		"cliTool": "opencode",
		"git": {"baseBranch": "develop"},
		"session": {"shell": "bash", "timeoutMs": 60000},
		"devServer": {
			"basePort": 4000,
			"environments": {"NODE_ENV": "development"}
		}
	}`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	// Explicit values win...
	assert.Equal(t, "opencode", cfg.CLITool)
	assert.Equal(t, "develop", cfg.Git.BaseBranch)
	assert.Equal(t, "bash", cfg.Session.Shell)
	assert.Equal(t, 60000, cfg.Session.TimeoutMs)
	assert.Equal(t, 4000, cfg.DevServer.BasePort)
	assert.Equal(t, "development", cfg.DevServer.Environments["NODE_ENV"])

	// ...and everything else falls back to defaults.
	assert.Equal(t, "local", cfg.Git.WorkflowMode)
	assert.Equal(t, 3100, cfg.DevServer.MaxPort)
	assert.Equal(t, ".beads", cfg.Beads.Path)
}

func TestLoadConfig_PackageJSONFallback(t *testing.T) {
	dir := writeProjectConfig(t, "package.json", `{
		"name": "some-app",
		"azedarach": {
			"cliTool": "opencode",
			"git": {"baseBranch": "trunk"}
		}
	}`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "opencode", cfg.CLITool)
	assert.Equal(t, "trunk", cfg.Git.BaseBranch)
}

func TestLoadConfig_ProjectFileWinsOverPackageJSON(t *testing.T) {
	dir := writeProjectConfig(t, ".azedarach.json", `{"cliTool": "claude"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"),
		[]byte(`{"azedarach": {"cliTool": "opencode"}}`), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.CLITool)
}

func TestLoadConfig_NoFilesReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().CLITool, cfg.CLITool)
	assert.Equal(t, DefaultConfig().Git.BaseBranch, cfg.Git.BaseBranch)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := writeProjectConfig(t, ".azedarach.json", `{not json`)
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CLITool = "opencode"
	cfg.Git.BaseBranch = "develop"

	path := filepath.Join(t.TempDir(), ".azedarach.json")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, "opencode", loaded.CLITool)
	assert.Equal(t, "develop", loaded.Git.BaseBranch)
}

func TestMergeWithDefaults_FillsGapsOnly(t *testing.T) {
	cfg := &Config{CLITool: "opencode"}
	merged := MergeWithDefaults(cfg)

	assert.Equal(t, "opencode", merged.CLITool)
	assert.Equal(t, "main", merged.Git.BaseBranch)
	assert.Equal(t, "zsh", merged.Session.Shell)
	assert.NotNil(t, merged.DevServer.Environments)
}
