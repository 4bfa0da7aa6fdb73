package devserver

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// fakeTmuxClient implements TmuxClient with in-memory sessions, windows,
// and user options.
type fakeTmuxClient struct {
	mu       sync.Mutex
	sessions []string
	windows  map[string][]string          // session -> window names
	options  map[string]map[string]string // session -> key -> value
	panes    map[string]string            // target -> captured output
}

func newFakeTmuxClient(sessions ...string) *fakeTmuxClient {
	f := &fakeTmuxClient{
		sessions: sessions,
		windows:  make(map[string][]string),
		options:  make(map[string]map[string]string),
		panes:    make(map[string]string),
	}
	return f
}

func (f *fakeTmuxClient) ListSessions(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sessions...), nil
}

func (f *fakeTmuxClient) HasWindow(ctx context.Context, session, window string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.windows[session] {
		if w == window {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTmuxClient) NewWindow(ctx context.Context, session, name, cwd, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[session] = append(f.windows[session], name)
	return nil
}

func (f *fakeTmuxClient) KillWindow(ctx context.Context, target string) error {
	session, window, _ := strings.Cut(target, ":")
	f.mu.Lock()
	defer f.mu.Unlock()
	ws := f.windows[session]
	for i, w := range ws {
		if w == window {
			f.windows[session] = append(ws[:i], ws[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeTmuxClient) CapturePane(ctx context.Context, target string, lines int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.panes[target], nil
}

func (f *fakeTmuxClient) ListWindows(ctx context.Context, session string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.windows[session]...), nil
}

func (f *fakeTmuxClient) SetUserOption(ctx context.Context, session, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.options[session] == nil {
		f.options[session] = make(map[string]string)
	}
	f.options[session][key] = value
	return nil
}

func (f *fakeTmuxClient) GetUserOption(ctx context.Context, session, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.options[session][key]
	return v, ok, nil
}

func twoServerConfig() map[string]config.ServerConfig {
	return map[string]config.ServerConfig{
		"web": {
			Command: "bun dev",
			Ports:   map[string]int{"PORT": 23000},
		},
		"api": {
			Command: "bun api",
			Ports:   map[string]int{"API_PORT": 24000, "PORT": 23000},
		},
	}
}

func TestController_SharedPortMapAcrossServers(t *testing.T) {
	ctx := context.Background()
	tmux := newFakeTmuxClient(domain.SessionName("az-2"))
	c := NewController(tmux, twoServerConfig(), nil, nil)

	if _, err := c.Start(ctx, "az-2", "web"); err != nil {
		t.Fatalf("start web: %v", err)
	}

	webPorts, ok := c.allocator.Get("az-2")
	if !ok {
		t.Fatal("expected allocation for az-2")
	}
	if len(webPorts) != 2 {
		t.Fatalf("expected both env ports allocated up front, got %v", webPorts)
	}
	if webPorts["PORT"] < 23000 || webPorts["API_PORT"] < 24000 {
		t.Fatalf("ports below base: %v", webPorts)
	}

	if _, err := c.Start(ctx, "az-2", "api"); err != nil {
		t.Fatalf("start api: %v", err)
	}
	apiPorts, _ := c.allocator.Get("az-2")
	if apiPorts["PORT"] != webPorts["PORT"] || apiPorts["API_PORT"] != webPorts["API_PORT"] {
		t.Fatalf("second server did not reuse the shared map: %v vs %v", apiPorts, webPorts)
	}
}

func TestController_SecondBeadGetsFreshPorts(t *testing.T) {
	ctx := context.Background()
	tmux := newFakeTmuxClient(domain.SessionName("az-2"), domain.SessionName("az-3"))
	c := NewController(tmux, twoServerConfig(), nil, nil)

	if _, err := c.Start(ctx, "az-2", "web"); err != nil {
		t.Fatalf("start az-2 web: %v", err)
	}
	if _, err := c.Start(ctx, "az-3", "web"); err != nil {
		t.Fatalf("start az-3 web: %v", err)
	}

	first, _ := c.allocator.Get("az-2")
	second, _ := c.allocator.Get("az-3")
	if first["PORT"] == second["PORT"] {
		t.Fatalf("beads share PORT %d", first["PORT"])
	}
	if first["API_PORT"] == second["API_PORT"] {
		t.Fatalf("beads share API_PORT %d", first["API_PORT"])
	}
}

func TestController_CommandEnvPrefix(t *testing.T) {
	line := buildCommandLine(map[string]int{"PORT": 3000, "API_PORT": 4000}, "bun dev")
	if line != "API_PORT=4000 PORT=3000 bun dev" {
		t.Fatalf("unexpected command line: %q", line)
	}
}

func TestController_LastStopReleasesPorts(t *testing.T) {
	ctx := context.Background()
	tmux := newFakeTmuxClient(domain.SessionName("az-2"))
	c := NewController(tmux, twoServerConfig(), nil, nil)

	if _, err := c.Start(ctx, "az-2", "web"); err != nil {
		t.Fatalf("start web: %v", err)
	}
	if _, err := c.Start(ctx, "az-2", "api"); err != nil {
		t.Fatalf("start api: %v", err)
	}

	if err := c.Stop(ctx, "az-2", "web"); err != nil {
		t.Fatalf("stop web: %v", err)
	}
	if _, ok := c.allocator.Get("az-2"); !ok {
		t.Fatal("allocation released while api still running")
	}

	if err := c.Stop(ctx, "az-2", "api"); err != nil {
		t.Fatalf("stop api: %v", err)
	}
	if _, ok := c.allocator.Get("az-2"); ok {
		t.Fatal("allocation not released after last server stopped")
	}
}

func TestController_PersistWritesMetaOption(t *testing.T) {
	ctx := context.Background()
	session := domain.SessionName("az-2")
	tmux := newFakeTmuxClient(session)
	c := NewController(tmux, twoServerConfig(), nil, nil)

	if _, err := c.Start(ctx, "az-2", "web"); err != nil {
		t.Fatalf("start web: %v", err)
	}

	raw, ok, err := tmux.GetUserOption(ctx, session, metaOptionKey)
	if err != nil || !ok {
		t.Fatalf("expected meta option set, ok=%v err=%v", ok, err)
	}

	var meta sessionMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		t.Fatalf("unmarshal meta: %v", err)
	}
	if len(meta.Ports) != 2 {
		t.Fatalf("expected shared port map in meta, got %v", meta.Ports)
	}
	entry, ok := meta.Servers["web"]
	if !ok {
		t.Fatalf("expected web entry in meta, got %v", meta.Servers)
	}
	if entry.WindowName != "dev-web" || entry.Status != StatusStarting {
		t.Fatalf("unexpected web entry: %+v", entry)
	}
}

func TestController_ReconcileRestoresRecordsAndPorts(t *testing.T) {
	ctx := context.Background()
	session := domain.SessionName("az-2")
	tmux := newFakeTmuxClient(session)

	meta := sessionMeta{
		Ports: map[string]int{"PORT": 23001, "API_PORT": 24001},
		Servers: map[string]metaEntry{
			"web": {Status: StatusRunning, Port: 23001, Command: "bun dev", WindowName: "dev-web"},
		},
	}
	data, _ := json.Marshal(meta)
	_ = tmux.SetUserOption(ctx, session, metaOptionKey, string(data))
	_ = tmux.NewWindow(ctx, session, "dev-web", "", "")

	c := NewController(tmux, twoServerConfig(), nil, nil)
	if err := c.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	rec, ok := c.Get("az-2", "web")
	if !ok {
		t.Fatal("expected web record restored")
	}
	if rec.Status != StatusRunning || rec.Port != 23001 {
		t.Fatalf("unexpected restored record: %+v", rec)
	}

	ports, ok := c.allocator.Get("az-2")
	if !ok || ports["PORT"] != 23001 || ports["API_PORT"] != 24001 {
		t.Fatalf("expected port map restored, got %v ok=%v", ports, ok)
	}
}

func TestController_ReconcileAdoptsUnknownDevWindows(t *testing.T) {
	ctx := context.Background()
	session := domain.SessionName("az-7")
	tmux := newFakeTmuxClient(session)
	_ = tmux.NewWindow(ctx, session, "dev-storybook", "", "")
	_ = tmux.NewWindow(ctx, session, "main", "", "")

	c := NewController(tmux, twoServerConfig(), nil, nil)
	if err := c.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	rec, ok := c.Get("az-7", "storybook")
	if !ok {
		t.Fatal("expected adopted record for dev-storybook window")
	}
	if rec.Status != StatusRunning || rec.Port != 0 {
		t.Fatalf("adopted record should be running with unknown port: %+v", rec)
	}
	if _, ok := c.Get("az-7", "main"); ok {
		t.Fatal("non-dev window must not be adopted")
	}
}

func TestController_HealthMarksGoneWindowIdle(t *testing.T) {
	ctx := context.Background()
	session := domain.SessionName("az-2")
	tmux := newFakeTmuxClient(session)
	c := NewController(tmux, twoServerConfig(), nil, nil)

	if _, err := c.Start(ctx, "az-2", "web"); err != nil {
		t.Fatalf("start web: %v", err)
	}
	if err := tmux.KillWindow(ctx, session+":dev-web"); err != nil {
		t.Fatalf("kill window: %v", err)
	}

	c.CheckHealth(ctx)

	rec, _ := c.Get("az-2", "web")
	if rec.Status != StatusIdle {
		t.Fatalf("expected idle after window vanished, got %s", rec.Status)
	}
}

func TestController_StartAfterWindowClosedReusesPortMap(t *testing.T) {
	ctx := context.Background()
	session := domain.SessionName("az-2")
	tmux := newFakeTmuxClient(session)
	c := NewController(tmux, twoServerConfig(), nil, nil)

	if _, err := c.Start(ctx, "az-2", "web"); err != nil {
		t.Fatalf("start web: %v", err)
	}
	if _, err := c.Start(ctx, "az-2", "api"); err != nil {
		t.Fatalf("start api: %v", err)
	}
	before, _ := c.allocator.Get("az-2")

	// User closed the window manually; health tick notices, status goes
	// idle, but api is still running so the bead's map stays allocated.
	_ = tmux.KillWindow(ctx, session+":dev-web")
	c.CheckHealth(ctx)

	if _, err := c.Start(ctx, "az-2", "web"); err != nil {
		t.Fatalf("restart web: %v", err)
	}
	after, _ := c.allocator.Get("az-2")
	if after["PORT"] != before["PORT"] || after["API_PORT"] != before["API_PORT"] {
		t.Fatalf("restart must reuse the bead's port map: %v vs %v", after, before)
	}
}
