package devserver

import (
	"context"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/riordanpawley/azedarach/internal/domain"
)

// detectPort polls serverName's pane output every 500ms, up to 30s,
// looking for the configured localhost/127.0.0.1 port pattern. The first
// match wins; on timeout the record is left in StatusStarting with no port.
// CheckHealth skips records without a known port, so from then on the
// health loop only moves it on once its tmux window is gone.
func (c *Controller) detectPort(ctx context.Context, beadID, serverName string) {
	re := regexp.MustCompile(c.portRegex)
	session := domain.SessionName(beadID)

	deadline := time.Now().Add(30 * time.Second)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.RLock()
		rec := c.records[beadID][serverName]
		c.mu.RUnlock()
		if rec == nil || rec.Status != StatusStarting {
			return
		}

		out, err := c.tmux.CapturePane(ctx, session+":"+rec.WindowName, 200)
		if err == nil {
			if m := re.FindStringSubmatch(out); m != nil {
				if port, perr := strconv.Atoi(m[1]); perr == nil && port > 0 {
					c.mu.Lock()
					if r := c.records[beadID][serverName]; r != nil {
						r.Port = port
						r.Status = StatusRunning
					}
					c.mu.Unlock()
					_ = c.persist(ctx, beadID)
					return
				}
			}
		}

		if time.Now().After(deadline) {
			return
		}
	}
}

// CheckHealth runs one pass of the 5s health-check loop over every known
// record. For each: if its tmux window is gone it goes idle; if it has a
// known port, a dual-stack TCP probe (127.0.0.1 and ::1, 1s timeout)
// decides running vs stopped, leaving the window itself untouched so the
// user can restart the process manually and be picked back up.
func (c *Controller) CheckHealth(ctx context.Context) {
	type target struct {
		beadID, name, session, window string
		port                          int
		status                        Status
	}

	c.mu.RLock()
	var targets []target
	for beadID, servers := range c.records {
		session := domain.SessionName(beadID)
		for name, rec := range servers {
			targets = append(targets, target{beadID, name, session, rec.WindowName, rec.Port, rec.Status})
		}
	}
	c.mu.RUnlock()

	changed := make(map[string]bool)
	for _, t := range targets {
		exists, err := c.tmux.HasWindow(ctx, t.session, t.window)
		if err == nil && !exists {
			if c.setStatus(t.beadID, t.name, StatusIdle) {
				changed[t.beadID] = true
			}
			continue
		}

		if t.port == 0 {
			continue
		}

		healthy := probeTCP(t.port, time.Second)
		switch {
		case !healthy && t.status == StatusRunning:
			if c.setStatus(t.beadID, t.name, StatusStopped) {
				changed[t.beadID] = true
			}
		case healthy && (t.status == StatusStopped || t.status == StatusStarting):
			if c.setStatus(t.beadID, t.name, StatusRunning) {
				changed[t.beadID] = true
			}
		}
	}

	for beadID := range changed {
		if err := c.persist(ctx, beadID); err != nil {
			c.logger.Warn("failed to persist dev server metadata", "bead_id", beadID, "error", err)
		}
	}
}

func (c *Controller) setStatus(beadID, serverName string, status Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.records[beadID][serverName]
	if rec == nil || rec.Status == status {
		return false
	}
	rec.Status = status
	return true
}

// probeTCP dials both 127.0.0.1:port and [::1]:port in parallel and
// reports true if either accepts the connection.
func probeTCP(port int, timeout time.Duration) bool {
	results := make(chan bool, 2)
	for _, host := range []string{"127.0.0.1", "::1"} {
		go func(h string) {
			conn, err := net.DialTimeout("tcp", net.JoinHostPort(h, strconv.Itoa(port)), timeout)
			if err != nil {
				results <- false
				return
			}
			conn.Close()
			results <- true
		}(host)
	}

	ok := false
	for i := 0; i < 2; i++ {
		if <-results {
			ok = true
		}
	}
	return ok
}
