// Package network tracks whether the host can reach the outside world, so
// git fetch/push and PR operations can fail fast instead of spawning a
// subprocess that will hang against a dead link.
package network

import (
	"context"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// defaultCheckHost is probed when the config names no host of its own.
const defaultCheckHost = "https://github.com"

const probeTimeout = 5 * time.Second

// StatusChecker probes a configured host and caches the result.
type StatusChecker struct {
	mu        sync.RWMutex
	online    bool
	lastCheck time.Time
	checkURL  string
	client    *http.Client
}

// StatusMsg is delivered to the program whenever the online state flips.
type StatusMsg struct {
	Online bool
}

// NewStatusChecker creates a checker probing checkHost (empty means the
// default). Starts out optimistically online so the first actions aren't
// blocked before the first probe lands.
func NewStatusChecker(checkHost string) *StatusChecker {
	if checkHost == "" {
		checkHost = defaultCheckHost
	}
	return &StatusChecker{
		online:   true,
		checkURL: checkHost,
		client: &http.Client{
			Timeout: probeTimeout,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

// Check probes the configured host once and updates the cached state. A 2xx
// or 3xx response counts as online; any other status, or a transport-level
// failure, means the network is down.
func (s *StatusChecker) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.checkURL, nil)
	if err != nil {
		s.setOnline(false)
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.setOnline(false)
		return false
	}
	resp.Body.Close()

	online := resp.StatusCode >= 200 && resp.StatusCode < 400
	s.setOnline(online)
	return online
}

// IsOnline returns the cached online state.
func (s *StatusChecker) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// LastCheck returns when the cached state was last refreshed.
func (s *StatusChecker) LastCheck() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCheck
}

func (s *StatusChecker) setOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
	s.lastCheck = time.Now()
}

// StartMonitoring probes every interval and sends a StatusMsg on every
// state flip until ctx is canceled. Callers gate this on the config's
// autoDetect flag; with detection off the checker just stays at its
// optimistic initial state.
func (s *StatusChecker) StartMonitoring(ctx context.Context, program *tea.Program, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wasOnline := s.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if online := s.Check(ctx); online != wasOnline {
				program.Send(StatusMsg{Online: online})
				wasOnline = online
			}
		}
	}
}

// CheckCmd performs a single probe as a tea command.
func (s *StatusChecker) CheckCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		return StatusMsg{Online: s.Check(ctx)}
	}
}
