package devserver

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/riordanpawley/azedarach/internal/domain"
)

// metaOptionKey is the tmux user option (stored as @az-devserver-meta on the
// bead's session) that holds the serialized dev-server state. Writing it on
// every state change makes tmux the durable store: a restarted process
// rebuilds its records from the options still held by live sessions.
const metaOptionKey = "az-devserver-meta"

// sessionMeta is the serialized form of one bead's dev-server state.
type sessionMeta struct {
	Ports   map[string]int       `json:"ports,omitempty"`
	Servers map[string]metaEntry `json:"servers"`
}

type metaEntry struct {
	Status     Status     `json:"status"`
	Port       int        `json:"port,omitempty"`
	Command    string     `json:"command"`
	Cwd        string     `json:"cwd,omitempty"`
	WindowName string     `json:"window_name"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

// persist writes beadID's full dev-server state, including the shared port
// map, onto the bead's tmux session. Writes are last-writer-wins and
// idempotent; a missing session is reported as an error so callers can log
// and move on.
func (c *Controller) persist(ctx context.Context, beadID string) error {
	c.mu.RLock()
	meta := sessionMeta{Servers: make(map[string]metaEntry, len(c.records[beadID]))}
	for name, rec := range c.records[beadID] {
		meta.Servers[name] = metaEntry{
			Status:     rec.Status,
			Port:       rec.Port,
			Command:    rec.Command,
			Cwd:        rec.Cwd,
			WindowName: rec.WindowName,
			StartedAt:  rec.StartedAt,
		}
	}
	c.mu.RUnlock()

	if ports, ok := c.allocator.Get(beadID); ok {
		meta.Ports = ports
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.tmux.SetUserOption(ctx, domain.SessionName(beadID), metaOptionKey, string(data))
}

// Reconcile rebuilds the controller's records from live tmux state. For
// every az-* session it reads the persisted metadata option and restores
// both the records and the bead's shared port allocation; dev-* windows
// with no metadata entry are adopted as running servers without a known
// port, so the health loop can infer one later via TCP probing.
func (c *Controller) Reconcile(ctx context.Context) error {
	sessions, err := c.tmux.ListSessions(ctx)
	if err != nil {
		return err
	}

	for _, session := range sessions {
		beadID, ok := domain.BeadIDFromSessionName(session)
		if !ok {
			continue
		}

		known := make(map[string]bool)
		if raw, found, err := c.tmux.GetUserOption(ctx, session, metaOptionKey); err == nil && found {
			var meta sessionMeta
			if err := json.Unmarshal([]byte(raw), &meta); err != nil {
				c.logger.Warn("unparseable dev server metadata", "bead_id", beadID, "error", err)
			} else {
				if len(meta.Ports) > 0 {
					c.allocator.Restore(beadID, meta.Ports)
				}
				c.mu.Lock()
				if c.records[beadID] == nil {
					c.records[beadID] = make(map[string]*Record)
				}
				for name, entry := range meta.Servers {
					c.records[beadID][name] = &Record{
						BeadID:     beadID,
						Name:       name,
						Status:     entry.Status,
						Port:       entry.Port,
						Command:    entry.Command,
						Cwd:        entry.Cwd,
						WindowName: entry.WindowName,
						StartedAt:  entry.StartedAt,
					}
					known[entry.WindowName] = true
				}
				c.mu.Unlock()
			}
		}

		windows, err := c.tmux.ListWindows(ctx, session)
		if err != nil {
			c.logger.Warn("failed to list windows during reconcile", "session", session, "error", err)
			continue
		}
		for _, window := range windows {
			name, isDev := strings.CutPrefix(window, "dev-")
			if !isDev || known[window] {
				continue
			}
			c.mu.Lock()
			if c.records[beadID] == nil {
				c.records[beadID] = make(map[string]*Record)
			}
			if c.records[beadID][name] == nil {
				c.records[beadID][name] = &Record{
					BeadID:     beadID,
					Name:       name,
					Status:     StatusRunning,
					WindowName: window,
				}
			}
			c.mu.Unlock()
		}
	}

	return nil
}

// Run reconciles persisted state once, then drives the health-check loop
// until ctx is canceled.
func (c *Controller) Run(ctx context.Context) {
	if err := c.Reconcile(ctx); err != nil {
		c.logger.Warn("dev server reconcile failed", "error", err)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckHealth(ctx)
		}
	}
}
