package pr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/riordanpawley/azedarach/internal/domain"
)

// fakeGHRunner maps a joined command line to canned output/error.
type fakeGHRunner struct {
	responses map[string][]byte
	errors    map[string]error
	calls     []string
}

func newFakeGHRunner() *fakeGHRunner {
	return &fakeGHRunner{
		responses: make(map[string][]byte),
		errors:    make(map[string]error),
	}
}

func (f *fakeGHRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, key)
	return f.responses[key], f.errors[key]
}

func (f *fakeGHRunner) lastCall() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

// withGH runs fn with the gh-present check stubbed to present.
func withGH(t *testing.T, present bool, fn func()) {
	t.Helper()
	original := ghMissing
	ghMissing = func() bool { return !present }
	defer func() { ghMissing = original }()
	fn()
}

func newTestWorkflow() (*PRWorkflow, *fakeGHRunner) {
	runner := newFakeGHRunner()
	return NewPRWorkflow(runner, slog.Default()), runner
}

const prViewJSON = `{
	"number": 42, "title": "Fix login", "url": "https://github.com/o/r/pull/42",
	"state": "OPEN", "isDraft": true, "headRefName": "az-az-1", "baseRefName": "main"
}`

func TestCreate_DraftPR(t *testing.T) {
	withGH(t, true, func() {
		wf, runner := newTestWorkflow()
		createKey := "gh pr create --title Fix login --body Body --head az-az-1 --base main --draft"
		runner.responses[createKey] = []byte("https://github.com/o/r/pull/42\n")
		runner.responses["gh pr view az-az-1 --json number,title,url,state,isDraft,headRefName,baseRefName"] = []byte(prViewJSON)

		info, err := wf.Create(context.Background(), CreatePRParams{
			Title: "Fix login", Body: "Body", Branch: "az-az-1", BaseBranch: "main",
			Draft: true, BeadID: "az-1",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if info.Number != 42 || !info.Draft || info.Branch != "az-az-1" {
			t.Errorf("info = %+v", info)
		}
	})
}

func TestCreate_NonDraftOmitsFlag(t *testing.T) {
	withGH(t, true, func() {
		wf, runner := newTestWorkflow()
		runner.responses["gh pr view b --json number,title,url,state,isDraft,headRefName,baseRefName"] = []byte(`{"number": 1}`)

		_, _ = wf.Create(context.Background(), CreatePRParams{
			Title: "t", Body: "b", Branch: "b", BaseBranch: "main",
		})
		if strings.Contains(runner.calls[0], "--draft") {
			t.Errorf("non-draft create must not pass --draft: %s", runner.calls[0])
		}
	})
}

func TestCreate_GHMissingDegrades(t *testing.T) {
	withGH(t, false, func() {
		wf, runner := newTestWorkflow()

		_, err := wf.Create(context.Background(), CreatePRParams{Title: "t", BeadID: "az-1"})
		if !errors.Is(err, domain.ErrPRUnavailable) {
			t.Errorf("missing gh should surface ErrPRUnavailable, got %v", err)
		}
		if len(runner.calls) != 0 {
			t.Errorf("no process may spawn when gh is absent: %v", runner.calls)
		}
	})
}

func TestGet_ParsesPRInfo(t *testing.T) {
	wf, runner := newTestWorkflow()
	runner.responses["gh pr view az-az-1 --json number,title,url,state,isDraft,headRefName,baseRefName"] = []byte(prViewJSON)

	info, err := wf.Get(context.Background(), "az-az-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if info.Number != 42 || info.State != "OPEN" || info.BaseRef != "main" {
		t.Errorf("info = %+v", info)
	}
}

func TestGet_NoSuchPR(t *testing.T) {
	wf, runner := newTestWorkflow()
	runner.errors["gh pr view gone --json number,title,url,state,isDraft,headRefName,baseRefName"] = errors.New("no pull requests found")

	if _, err := wf.Get(context.Background(), "gone"); err == nil {
		t.Error("missing PR should surface an error")
	}
}

func TestList(t *testing.T) {
	wf, runner := newTestWorkflow()
	runner.responses["gh pr list --json number,title,url,state,isDraft,headRefName,baseRefName"] = []byte(`[
		{"number": 1, "headRefName": "az-az-1"},
		{"number": 2, "headRefName": "az-az-2"}
	]`)

	prs, err := wf.List(context.Background())
	if err != nil || len(prs) != 2 {
		t.Errorf("list = %+v, %v", prs, err)
	}
}

func TestMerge_Strategies(t *testing.T) {
	wf, runner := newTestWorkflow()

	cases := map[string]string{
		"squash": "gh pr merge 42 --squash --auto",
		"rebase": "gh pr merge 42 --rebase --auto",
		"merge":  "gh pr merge 42 --merge --auto",
	}
	for strategy, wantCall := range cases {
		if err := wf.Merge(context.Background(), 42, strategy); err != nil {
			t.Fatalf("merge %s: %v", strategy, err)
		}
		if runner.lastCall() != wantCall {
			t.Errorf("merge %s issued %q, want %q", strategy, runner.lastCall(), wantCall)
		}
	}

	if err := wf.Merge(context.Background(), 42, "fast-forward"); err == nil {
		t.Error("unknown strategy should be rejected before spawning gh")
	}
}

func TestCloseAndMarkReady(t *testing.T) {
	wf, runner := newTestWorkflow()

	if err := wf.Close(context.Background(), 7); err != nil {
		t.Fatalf("close: %v", err)
	}
	if runner.lastCall() != "gh pr close 7" {
		t.Errorf("close issued %q", runner.lastCall())
	}

	if err := wf.MarkReady(context.Background(), 7); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if runner.lastCall() != "gh pr ready 7" {
		t.Errorf("ready issued %q", runner.lastCall())
	}

	runner.errors["gh pr close 8"] = errors.New("already closed")
	if err := wf.Close(context.Background(), 8); err == nil {
		t.Error("close failure should surface")
	}
}
