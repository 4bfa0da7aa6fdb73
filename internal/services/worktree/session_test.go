package worktree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/services/git"
)

type fakeTmux struct {
	sessions map[string]bool
	windows  map[string][]string
	sentKeys map[string][]string
	userOpts map[string]map[string]string
}

func newFakeTmux() *fakeTmux {
	return &fakeTmux{
		sessions: make(map[string]bool),
		windows:  make(map[string][]string),
		sentKeys: make(map[string][]string),
		userOpts: make(map[string]map[string]string),
	}
}

func (f *fakeTmux) HasSession(ctx context.Context, name string) (bool, error) {
	return f.sessions[name], nil
}

func (f *fakeTmux) NewSession(ctx context.Context, name, workdir string) error {
	f.sessions[name] = true
	return nil
}

func (f *fakeTmux) AttachSession(ctx context.Context, name string) error {
	if !f.sessions[name] {
		return os.ErrNotExist
	}
	return nil
}

func (f *fakeTmux) KillSession(ctx context.Context, name string) error {
	delete(f.sessions, name)
	return nil
}

func (f *fakeTmux) SendKeysLiteral(ctx context.Context, target, text string) error {
	f.sentKeys[target] = append(f.sentKeys[target], text)
	return nil
}

func (f *fakeTmux) SendEnter(ctx context.Context, target string) error {
	f.sentKeys[target] = append(f.sentKeys[target], "<enter>")
	return nil
}

func (f *fakeTmux) SendKeys(ctx context.Context, target, keys string) error {
	f.sentKeys[target] = append(f.sentKeys[target], keys)
	return nil
}

func (f *fakeTmux) ListSessions(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.sessions))
	for name := range f.sessions {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeTmux) NewWindow(ctx context.Context, session, name, cwd, command string) error {
	f.windows[session] = append(f.windows[session], name)
	return nil
}

func (f *fakeTmux) SetUserOption(ctx context.Context, session, key, value string) error {
	if f.userOpts[session] == nil {
		f.userOpts[session] = make(map[string]string)
	}
	f.userOpts[session][key] = value
	return nil
}

type fakeGit struct {
	wipCommitted []string
}

func (f *fakeGit) WipCommit(ctx context.Context, worktree string) error {
	f.wipCommitted = append(f.wipCommitted, worktree)
	return nil
}

type fakeWorktrees struct {
	byBead  map[string]*git.Worktree
	deleted []string
}

func newFakeWorktrees() *fakeWorktrees {
	return &fakeWorktrees{byBead: make(map[string]*git.Worktree)}
}

func (f *fakeWorktrees) Ensure(ctx context.Context, beadID, baseBranch string, opts git.EnsureOptions) (*git.Worktree, error) {
	if wt, ok := f.byBead[beadID]; ok {
		return wt, nil
	}
	wt := &git.Worktree{Path: "/tmp/proj-" + beadID, Branch: "az-" + beadID, BeadID: beadID}
	f.byBead[beadID] = wt
	return wt, nil
}

func (f *fakeWorktrees) Get(ctx context.Context, beadID string) (*git.Worktree, error) {
	wt, ok := f.byBead[beadID]
	if !ok {
		return nil, os.ErrNotExist
	}
	return wt, nil
}

func (f *fakeWorktrees) Delete(ctx context.Context, beadID string) error {
	delete(f.byBead, beadID)
	f.deleted = append(f.deleted, beadID)
	return nil
}

func testManager(t *testing.T) (*Manager, *fakeTmux, *fakeGit, *fakeWorktrees) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	tmux := newFakeTmux()
	gitClient := &fakeGit{}
	wts := newFakeWorktrees()
	mgr := NewManager(tmux, gitClient, wts, dir, cfg, nil)
	return mgr, tmux, gitClient, wts
}

func TestManager_StartCreatesSessionAndRecord(t *testing.T) {
	mgr, tmux, _, _ := testManager(t)
	ctx := context.Background()

	rec, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main", TaskInfo: "do the thing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != domain.SessionBusy {
		t.Errorf("expected busy state, got %s", rec.State)
	}
	if rec.TmuxSession != "az-bd-1" {
		t.Errorf("expected deterministic session name az-bd-1, got %s", rec.TmuxSession)
	}
	if !tmux.sessions["az-bd-1"] {
		t.Error("expected tmux session to be created")
	}
	if len(tmux.sentKeys["az-bd-1"]) == 0 {
		t.Error("expected agent start command to be sent")
	}
}

func TestManager_StartAttachesToExistingSession(t *testing.T) {
	mgr, tmux, _, _ := testManager(t)
	ctx := context.Background()
	tmux.sessions["az-bd-1"] = true

	_, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tmux.sentKeys["az-bd-1"]) != 0 {
		t.Error("expected no new commands sent when attaching to a live session")
	}
}

func TestManager_PauseSendsInterruptAndWipCommits(t *testing.T) {
	mgr, _, gitClient, _ := testManager(t)
	ctx := context.Background()

	if _, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := mgr.Pause(ctx, "bd-1"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	rec, ok := mgr.Get("bd-1")
	if !ok || rec.State != domain.SessionPaused {
		t.Errorf("expected paused state, got %+v", rec)
	}
	if len(gitClient.wipCommitted) != 1 {
		t.Errorf("expected one wip commit, got %d", len(gitClient.wipCommitted))
	}
}

func TestManager_ResumeSendsAgentCommandAndGoesBusy(t *testing.T) {
	mgr, tmux, _, _ := testManager(t)
	ctx := context.Background()

	if _, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := mgr.Pause(ctx, "bd-1"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	before := len(tmux.sentKeys["az-bd-1"])

	if err := mgr.Resume(ctx, "bd-1", StartOptions{}); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	rec, _ := mgr.Get("bd-1")
	if rec.State != domain.SessionBusy {
		t.Errorf("expected busy state after resume, got %s", rec.State)
	}
	if len(tmux.sentKeys["az-bd-1"]) <= before {
		t.Error("expected resume to send the agent command again")
	}
}

func TestManager_StopKillsSessionAndRemovesRecord(t *testing.T) {
	mgr, tmux, _, _ := testManager(t)
	ctx := context.Background()

	if _, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := mgr.Stop(ctx, "bd-1"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if tmux.sessions["az-bd-1"] {
		t.Error("expected tmux session to be killed")
	}
	if _, ok := mgr.Get("bd-1"); ok {
		t.Error("expected session record to be removed")
	}
}

func TestManager_CleanupDeletesWorktree(t *testing.T) {
	mgr, _, _, wts := testManager(t)
	ctx := context.Background()

	if _, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := mgr.Cleanup(ctx, "bd-1"); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	if len(wts.deleted) != 1 || wts.deleted[0] != "bd-1" {
		t.Errorf("expected worktree bd-1 to be deleted, got %v", wts.deleted)
	}
}

func TestManager_RecoverRecreatesSession(t *testing.T) {
	mgr, tmux, _, wts := testManager(t)
	ctx := context.Background()

	if _, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	delete(tmux.sessions, "az-bd-1") // simulate crash

	rec, err := mgr.Recover(ctx, "bd-1", StartOptions{})
	if err != nil {
		t.Fatalf("recover failed: %v", err)
	}
	if rec.State != domain.SessionBusy {
		t.Errorf("expected busy after recovery, got %s", rec.State)
	}
	if !tmux.sessions["az-bd-1"] {
		t.Error("expected tmux session to be recreated")
	}
	if _, err := wts.Get(ctx, "bd-1"); err != nil {
		t.Errorf("expected worktree to still exist: %v", err)
	}
}

func TestManager_ListActiveOnlyIncludesLiveSessions(t *testing.T) {
	mgr, tmux, _, _ := testManager(t)
	ctx := context.Background()

	if _, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := mgr.Start(ctx, "bd-2", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	delete(tmux.sessions, "az-bd-2")

	active, err := mgr.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 1 || active[0].BeadID != "bd-1" {
		t.Errorf("expected only bd-1 active, got %+v", active)
	}
}

func TestManager_ReconcileCrashedMarksMissingSessions(t *testing.T) {
	mgr, tmux, _, _ := testManager(t)
	ctx := context.Background()

	if _, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	delete(tmux.sessions, "az-bd-1")

	crashed, err := mgr.ReconcileCrashed(ctx, nil)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(crashed) != 1 || crashed[0] != "bd-1" {
		t.Errorf("expected bd-1 to be reported crashed, got %v", crashed)
	}

	rec, _ := mgr.Get("bd-1")
	if rec.State != domain.SessionCrashed {
		t.Errorf("expected crashed state, got %s", rec.State)
	}
}

func TestManager_PersistsSessionsToDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	tmux := newFakeTmux()
	mgr := NewManager(tmux, &fakeGit{}, newFakeWorktrees(), dir, cfg, nil)
	ctx := context.Background()

	if _, err := mgr.Start(ctx, "bd-1", StartOptions{BaseBranch: "main"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	storePath := filepath.Join(dir, ".azedarach", "sessions.json")
	if _, err := os.Stat(storePath); err != nil {
		t.Fatalf("expected sessions.json to exist: %v", err)
	}

	mgr2 := NewManager(tmux, &fakeGit{}, newFakeWorktrees(), dir, cfg, nil)
	if _, ok := mgr2.Get("bd-1"); !ok {
		t.Error("expected reloaded manager to recover the persisted session record")
	}
}

func TestManager_BuildAgentCommandIncludesYoloFlag(t *testing.T) {
	mgr, _, _, _ := testManager(t)
	cmd := mgr.buildAgentCommand("bd-1", StartOptions{Yolo: true})
	if !contains(cmd, "--dangerously-skip-permissions") {
		t.Errorf("expected yolo flag in command, got %q", cmd)
	}
}

func TestManager_BuildAgentCommandWithWorkIncludesPrompt(t *testing.T) {
	mgr, _, _, _ := testManager(t)
	cmd := mgr.buildAgentCommand("bd-1", StartOptions{WithWork: true, TaskInfo: "fix the bug"})
	if !contains(cmd, "work on bead bd-1") || !contains(cmd, "fix the bug") {
		t.Errorf("expected work prompt content in command, got %q", cmd)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
