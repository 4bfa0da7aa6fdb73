package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// worktreeListOutput builds `git worktree list --porcelain` output for the
// given (path, branch) pairs.
func worktreeListOutput(entries ...[2]string) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("worktree " + e[0] + "\n")
		b.WriteString("HEAD abc1234\n")
		b.WriteString("branch refs/heads/" + e[1] + "\n\n")
	}
	return b.String()
}

func newTestWorktreeManager() (*WorktreeManager, *fakeGitRunner) {
	runner := newFakeGitRunner()
	return NewWorktreeManager(runner, "/repos/proj", nil), runner
}

func TestWorktree_Create(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = worktreeListOutput(
		[2]string{"/repos/proj", "main"},
	)

	wt, err := mgr.Create(context.Background(), "az-1", "main")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if wt.Path != "/repos/proj-az-1" {
		t.Errorf("Path = %q, want sibling-of-project layout", wt.Path)
	}
	if wt.Branch != "az-az-1" || wt.BeadID != "az-1" {
		t.Errorf("worktree = %+v", wt)
	}
	if !runner.called("worktree add -b az-az-1 /repos/proj-az-1 main") {
		t.Errorf("worktree add command wrong, calls: %v", runner.calls)
	}
}

func TestWorktree_CreateRefusesDuplicate(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = worktreeListOutput(
		[2]string{"/repos/proj-az-1", "az-az-1"},
	)

	if _, err := mgr.Create(context.Background(), "az-1", "main"); err == nil {
		t.Error("creating over an existing worktree should fail")
	}
}

func TestWorktree_EnsureIsIdempotent(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = worktreeListOutput(
		[2]string{"/repos/proj-az-1", "az-az-1"},
	)

	wt, err := mgr.Ensure(context.Background(), "az-1", "main", EnsureOptions{
		InitCommands: []string{"echo should-not-run"},
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if wt.Path != "/repos/proj-az-1" {
		t.Errorf("Path = %q", wt.Path)
	}
	for _, call := range runner.calls {
		if strings.HasPrefix(call, "worktree add") {
			t.Error("existing worktree must not be recreated")
		}
	}
}

func TestWorktree_EnsureUsesConfiguredPrefix(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = ""

	wt, err := mgr.Ensure(context.Background(), "az-1", "develop", EnsureOptions{
		BranchPrefix: "feat-",
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if wt.Branch != "feat-az-1" {
		t.Errorf("Branch = %q, want feat-az-1", wt.Branch)
	}
	if !runner.called("worktree add -b feat-az-1 /repos/proj-az-1 develop") {
		t.Errorf("calls: %v", runner.calls)
	}
}

func TestWorktree_Delete(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = worktreeListOutput(
		[2]string{"/repos/proj-az-1", "az-az-1"},
	)

	if err := mgr.Delete(context.Background(), "az-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !runner.called("worktree remove /repos/proj-az-1") {
		t.Errorf("worktree remove missing, calls: %v", runner.calls)
	}
	if !runner.called("branch -D az-az-1") {
		t.Errorf("branch delete missing, calls: %v", runner.calls)
	}
}

func TestWorktree_DeleteBranchFailureIsBestEffort(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = worktreeListOutput(
		[2]string{"/repos/proj-az-1", "az-az-1"},
	)
	runner.errors["branch -D az-az-1"] = errors.New("branch already gone")

	if err := mgr.Delete(context.Background(), "az-1"); err != nil {
		t.Errorf("a failed branch delete must not fail the operation: %v", err)
	}
}

func TestWorktree_DeleteUnknownBead(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = ""

	if err := mgr.Delete(context.Background(), "az-404"); err == nil {
		t.Error("deleting a worktree that doesn't exist should fail")
	}
}

func TestWorktree_ListFiltersManagedBranches(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = worktreeListOutput(
		[2]string{"/repos/proj", "main"},
		[2]string{"/repos/proj-az-1", "az-az-1"},
		[2]string{"/repos/legacy", "az/old-bead"},
		[2]string{"/repos/unrelated", "feature/misc"},
	)

	worktrees, err := mgr.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(worktrees) != 2 {
		t.Fatalf("got %d worktrees, want 2 (main and unrelated filtered)", len(worktrees))
	}
	if worktrees[0].BeadID != "az-1" {
		t.Errorf("first = %+v", worktrees[0])
	}
	if worktrees[1].BeadID != "old-bead" {
		t.Errorf("legacy az/ branches should be discovered: %+v", worktrees[1])
	}
}

func TestWorktree_ExistsAndGet(t *testing.T) {
	mgr, runner := newTestWorktreeManager()
	runner.responses["worktree list --porcelain"] = worktreeListOutput(
		[2]string{"/repos/proj-az-1", "az-az-1"},
	)

	if ok, err := mgr.Exists(context.Background(), "az-1"); err != nil || !ok {
		t.Errorf("Exists(az-1) = %v, %v", ok, err)
	}
	if ok, err := mgr.Exists(context.Background(), "az-404"); err != nil || ok {
		t.Errorf("Exists(az-404) = %v, %v", ok, err)
	}

	wt, err := mgr.Get(context.Background(), "az-1")
	if err != nil || wt.Path != "/repos/proj-az-1" {
		t.Errorf("Get = %+v, %v", wt, err)
	}
}

func TestWorktree_ParsePorcelainWithoutTrailingBlank(t *testing.T) {
	mgr, _ := newTestWorktreeManager()

	// No trailing blank line after the last entry.
	output := "worktree /repos/proj-az-9\nHEAD abc1234\nbranch refs/heads/az-az-9"
	worktrees := mgr.parseWorktreeList(output)
	if len(worktrees) != 1 || worktrees[0].BeadID != "az-9" {
		t.Errorf("parsed = %+v", worktrees)
	}
}

func TestBeadIDFromBranch(t *testing.T) {
	cases := []struct {
		branch string
		beadID string
		ok     bool
	}{
		{"az-az-1", "az-1", true},
		{"az/legacy-7", "legacy-7", true},
		{"main", "", false},
		{"feature/thing", "", false},
	}
	for _, tt := range cases {
		beadID, ok := beadIDFromBranch(tt.branch)
		if beadID != tt.beadID || ok != tt.ok {
			t.Errorf("beadIDFromBranch(%q) = %q/%v, want %q/%v", tt.branch, beadID, ok, tt.beadID, tt.ok)
		}
	}
}

func TestWorktree_CopyOverlayPaths(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	if err := os.WriteFile(filepath.Join(src, ".env.local"), []byte("A=1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(src, ".direnv", "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, ".direnv", "sub", "f"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	mgr, _ := newTestWorktreeManager()
	mgr.copyOverlayPaths(src, dst, []string{".env.local", ".direnv", "missing-path"})

	if data, err := os.ReadFile(filepath.Join(dst, ".env.local")); err != nil || string(data) != "A=1" {
		t.Errorf("file overlay not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, ".direnv", "sub", "f")); err != nil {
		t.Errorf("directory overlay not copied recursively: %v", err)
	}
	// missing-path was silently skipped: no error, nothing created.
	if _, err := os.Stat(filepath.Join(dst, "missing-path")); !os.IsNotExist(err) {
		t.Error("missing source paths must be skipped")
	}
}
