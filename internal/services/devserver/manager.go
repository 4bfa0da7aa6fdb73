// Package devserver manages, per bead, the named dev servers declared in
// config. Each server runs in its own tmux window inside the bead's
// session; every server belonging to one bead shares a single allocated
// port map so they can reference each other without colliding.
package devserver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// Status is a dev server's lifecycle state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// Record is one (beadId, serverName) dev server instance.
type Record struct {
	BeadID     string     `json:"bead_id"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	Port       int        `json:"port,omitempty"`
	Command    string     `json:"command"`
	Cwd        string     `json:"cwd,omitempty"`
	WindowName string     `json:"window_name"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

// TmuxClient is the subset of tmux.Client the controller needs.
type TmuxClient interface {
	ListSessions(ctx context.Context) ([]string, error)
	HasWindow(ctx context.Context, session, window string) (bool, error)
	NewWindow(ctx context.Context, session, name, cwd, command string) error
	KillWindow(ctx context.Context, target string) error
	CapturePane(ctx context.Context, name string, lines int) (string, error)
	ListWindows(ctx context.Context, session string) ([]string, error)
	SetUserOption(ctx context.Context, session, key, value string) error
	GetUserOption(ctx context.Context, session, key string) (string, bool, error)
}

// Controller is the Dev-Server Controller: it owns every known server
// record, the shared port allocator, and the tmux windows backing them.
type Controller struct {
	mu        sync.RWMutex
	tmux      TmuxClient
	allocator *PortAllocator
	servers   map[string]config.ServerConfig // name -> config, shared definition set
	records   map[string]map[string]*Record  // beadID -> serverName -> record
	portRegex string
	logger    *slog.Logger
}

// NewController creates a Controller for the given server definitions.
// allocator is the process-wide port set shared with everything else that
// reserves or releases ports; nil means the controller owns a private one.
func NewController(tmux TmuxClient, servers map[string]config.ServerConfig, allocator *PortAllocator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if allocator == nil {
		allocator = NewPortAllocator()
	}
	return &Controller{
		tmux:      tmux,
		allocator: allocator,
		servers:   servers,
		records:   make(map[string]map[string]*Record),
		portRegex: `(?:localhost|127\.0\.0\.1):(\d+)`,
		logger:    logger,
	}
}

// Start launches serverName for beadID. If it is already running, Start is
// a no-op. The first server started for a bead triggers allocation of the
// bead's full shared port map.
func (c *Controller) Start(ctx context.Context, beadID, serverName string) (*Record, error) {
	cfg, ok := c.servers[serverName]
	if !ok {
		return nil, fmt.Errorf("devserver: no server named %q configured", serverName)
	}

	c.mu.Lock()
	if existing := c.records[beadID][serverName]; existing != nil && existing.Status == StatusRunning {
		c.mu.Unlock()
		return existing, nil
	}
	c.mu.Unlock()

	ports, err := c.allocator.Allocate(beadID, c.servers)
	if err != nil {
		return nil, fmt.Errorf("devserver: allocate ports: %w", err)
	}

	session := domain.SessionName(beadID)
	window := domain.DevServerWindowName(serverName)
	command := buildCommandLine(ports, cfg.Command)

	if err := c.tmux.NewWindow(ctx, session, window, cfg.Cwd, command); err != nil {
		return nil, fmt.Errorf("devserver: start window: %w", err)
	}

	now := time.Now()
	rec := &Record{
		BeadID:     beadID,
		Name:       serverName,
		Status:     StatusStarting,
		Command:    cfg.Command,
		Cwd:        cfg.Cwd,
		WindowName: window,
		StartedAt:  &now,
	}

	c.mu.Lock()
	if c.records[beadID] == nil {
		c.records[beadID] = make(map[string]*Record)
	}
	c.records[beadID][serverName] = rec
	c.mu.Unlock()

	c.logger.Info("dev server starting", "bead_id", beadID, "server", serverName, "ports", ports)

	if err := c.persist(ctx, beadID); err != nil {
		c.logger.Warn("failed to persist dev server metadata", "bead_id", beadID, "error", err)
	}

	go c.detectPort(ctx, beadID, serverName)

	return rec, nil
}

// buildCommandLine prefixes command with ENV1=port1 ENV2=port2 ... in
// sorted env-name order, for a deterministic, testable command string.
func buildCommandLine(ports map[string]int, command string) string {
	names := make([]string, 0, len(ports))
	for name := range ports {
		names = append(names, name)
	}
	sort.Strings(names)

	prefix := ""
	for _, name := range names {
		prefix += fmt.Sprintf("%s=%d ", name, ports[name])
	}
	return prefix + command
}

// Stop kills serverName's window for beadID. If it was the last running
// server for that bead, the bead's shared port allocation is released.
func (c *Controller) Stop(ctx context.Context, beadID, serverName string) error {
	c.mu.Lock()
	rec := c.records[beadID][serverName]
	if rec == nil {
		c.mu.Unlock()
		return fmt.Errorf("devserver: no record for bead %q server %q", beadID, serverName)
	}
	window := rec.WindowName
	session := domain.SessionName(beadID)
	c.mu.Unlock()

	if err := c.tmux.KillWindow(ctx, session+":"+window); err != nil {
		c.logger.Debug("kill window failed, treating as already gone", "bead_id", beadID, "server", serverName, "error", err)
	}

	c.mu.Lock()
	rec.Status = StatusIdle
	anyRunning := false
	for _, r := range c.records[beadID] {
		if r.Status == StatusRunning || r.Status == StatusStarting {
			anyRunning = true
			break
		}
	}
	c.mu.Unlock()

	if !anyRunning {
		c.allocator.Release(beadID)
	}

	c.logger.Info("dev server stopped", "bead_id", beadID, "server", serverName)
	return c.persist(ctx, beadID)
}

// Toggle starts serverName if it isn't running, otherwise stops it.
func (c *Controller) Toggle(ctx context.Context, beadID, serverName string) error {
	c.mu.RLock()
	rec := c.records[beadID][serverName]
	c.mu.RUnlock()

	if rec != nil && (rec.Status == StatusRunning || rec.Status == StatusStarting) {
		return c.Stop(ctx, beadID, serverName)
	}
	_, err := c.Start(ctx, beadID, serverName)
	return err
}

// Restart stops then starts serverName, ignoring a not-running Stop error.
func (c *Controller) Restart(ctx context.Context, beadID, serverName string) error {
	_ = c.Stop(ctx, beadID, serverName)
	_, err := c.Start(ctx, beadID, serverName)
	return err
}

// Get returns the record for (beadID, serverName), if known.
func (c *Controller) Get(beadID, serverName string) (*Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[beadID][serverName]
	return rec, ok
}

// List returns every known record for beadID.
func (c *Controller) List(beadID string) []*Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Record, 0, len(c.records[beadID]))
	for _, rec := range c.records[beadID] {
		out = append(out, rec)
	}
	return out
}
