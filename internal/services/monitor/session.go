package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/domain"
)

// hookOptionKey is the tmux user-option key (@az_status) external agent
// hooks write the authoritative session state into.
const hookOptionKey = "az_status"

// failureWindow/failureThreshold bound the adapter-crash tracking: three
// ListSessions failures inside one minute freezes last-known states rather
// than flapping them.
const (
	failureWindow    = 60 * time.Second
	failureThreshold = 3
)

// TmuxClient is the subset of the tmux adapter the monitor needs: listing
// live sessions, reading the hook-reported state option, and (only when the
// pattern-matching fallback is enabled) capturing pane output.
type TmuxClient interface {
	ListSessions(ctx context.Context) ([]string, error)
	GetUserOption(ctx context.Context, session, key string) (value string, ok bool, err error)
	CapturePane(ctx context.Context, session string, lines int) (string, error)
}

// StateUpdater receives authoritative state transitions. Satisfied by
// *worktree.Manager's UpdateState, which persists the change into the
// Session Record the rest of the system reads.
type StateUpdater interface {
	UpdateState(beadID string, state domain.SessionState)
}

// Notifier requests a Board Projection refresh. Satisfied by
// *board.Projection's Trigger.
type Notifier interface {
	Trigger(reason string)
}

// SessionStateMsg is sent to a Bubble Tea program when a session's state
// changes, for callers that want to react inside the TEA update loop
// instead of (or in addition to) going through StateUpdater/Notifier.
type SessionStateMsg struct {
	BeadID string
	State  domain.SessionState
}

// SessionMonitor polls
// every live az-* tmux session every 500ms and treats the @az_status user
// option an external agent hook writes as the authoritative source of
// truth. Pattern-matching over captured pane output (patterns.go) is
// consulted only as a gated fallback when the hook option is absent, and
// only when patternFallback is enabled — the hook value always wins when
// present.
type SessionMonitor struct {
	tmux            TmuxClient
	updater         StateUpdater
	notifier        Notifier
	program         *tea.Program
	patternFallback bool
	logger          *slog.Logger

	mu        sync.Mutex
	lastState map[string]domain.SessionState

	polling int32 // atomic one-in-flight-poll guard

	failMu   sync.Mutex
	failures []time.Time
	degraded bool
}

// NewSessionMonitor creates a Session-State Monitor. program may be nil; if
// set, state changes are additionally sent to it as SessionStateMsg for a
// running Bubble Tea program to consume directly.
func NewSessionMonitor(tmux TmuxClient, updater StateUpdater, notifier Notifier, patternFallback bool, program *tea.Program, logger *slog.Logger) *SessionMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMonitor{
		tmux:            tmux,
		updater:         updater,
		notifier:        notifier,
		program:         program,
		patternFallback: patternFallback,
		logger:          logger,
		lastState:       make(map[string]domain.SessionState),
	}
}

// Run drives the 500ms poll loop until ctx is canceled. Intended to be
// handed to the Supervisor as a supervised child (one-for-one restart on
// panic/crash), mirroring how the Board Projection's refresh loop is run.
func (m *SessionMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

// pollOnce runs one tick of the monitor. At most one poll is in flight at
// a time; a second tick arriving while the previous one is still running
// is a silent no-op.
func (m *SessionMonitor) pollOnce(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&m.polling, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&m.polling, 0)

	sessions, err := m.tmux.ListSessions(ctx)
	if err != nil {
		m.recordFailure()
		return
	}
	m.resetFailures()

	seen := make(map[string]bool, len(sessions))
	for _, name := range sessions {
		beadID, ok := domain.BeadIDFromSessionName(name)
		if !ok {
			continue
		}
		seen[beadID] = true
		state := m.resolveState(ctx, name)
		m.applyState(beadID, state)
	}

	m.mu.Lock()
	var vanished []string
	for beadID := range m.lastState {
		if !seen[beadID] {
			vanished = append(vanished, beadID)
		}
	}
	m.mu.Unlock()

	for _, beadID := range vanished {
		m.applyState(beadID, domain.SessionIdle)
		m.mu.Lock()
		delete(m.lastState, beadID)
		m.mu.Unlock()
	}
}

// resolveState reads the hook-reported state for sessionName. A present,
// recognized hook value always wins. Absent or unrecognized hook data
// falls back to pattern-matching over captured pane output only when
// patternFallback is enabled; otherwise it defaults to busy, per spec.
func (m *SessionMonitor) resolveState(ctx context.Context, sessionName string) domain.SessionState {
	value, ok, err := m.tmux.GetUserOption(ctx, sessionName, hookOptionKey)
	if err == nil && ok {
		if state, valid := parseHookState(value); valid {
			return state
		}
		m.logger.Warn("session monitor: unrecognized hook state value", "session", sessionName, "value", value)
	}

	if !m.patternFallback {
		return domain.SessionBusy
	}

	output, err := m.tmux.CapturePane(ctx, sessionName, 100)
	if err != nil {
		return domain.SessionBusy
	}
	return DetectState(output)
}

// applyState records beadID's new state if it changed since the last poll
// and, on change, pushes it to the state store, the board-refresh
// notifier, and (if set) the Bubble Tea program.
func (m *SessionMonitor) applyState(beadID string, newState domain.SessionState) {
	m.mu.Lock()
	old, existed := m.lastState[beadID]
	changed := !existed || old != newState
	if changed {
		m.lastState[beadID] = newState
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	if m.updater != nil {
		m.updater.UpdateState(beadID, newState)
	}
	if m.notifier != nil {
		m.notifier.Trigger("session-state-changed")
	}
	if m.program != nil {
		m.program.Send(SessionStateMsg{BeadID: beadID, State: newState})
	}
}

// recordFailure tracks a ListSessions failure and, once three have
// occurred within the trailing 60s window, logs the degradation once
// instead of flapping every tracked session's state on every failed tick.
func (m *SessionMonitor) recordFailure() {
	m.failMu.Lock()
	defer m.failMu.Unlock()

	now := time.Now()
	cutoff := now.Add(-failureWindow)
	kept := m.failures[:0]
	for _, t := range m.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	m.failures = kept

	if len(kept) >= failureThreshold && !m.degraded {
		m.degraded = true
		m.logger.Error("session monitor: tmux adapter failing repeatedly, freezing last-known states", "failures", len(kept))
	}
}

func (m *SessionMonitor) resetFailures() {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	m.failures = m.failures[:0]
	m.degraded = false
}

// GetState returns the last-observed state for beadID, or SessionIdle if
// the monitor has never seen a session for it.
func (m *SessionMonitor) GetState(beadID string) domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.lastState[beadID]; ok {
		return state
	}
	return domain.SessionIdle
}

// Stop forgets beadID's tracked state so a future restart is treated as a
// fresh observation rather than diffed against a stale prior state. The
// poll loop itself is not per-bead; its lifecycle is owned by Run's ctx.
func (m *SessionMonitor) Stop(beadID string) {
	m.mu.Lock()
	delete(m.lastState, beadID)
	m.mu.Unlock()
}

// StopAll forgets all tracked state.
func (m *SessionMonitor) StopAll() {
	m.mu.Lock()
	m.lastState = make(map[string]domain.SessionState)
	m.mu.Unlock()
}

// recognizedHookStates is the one-to-one mapping between @az_status values
// and session states.
var recognizedHookStates = map[string]domain.SessionState{
	string(domain.SessionInitializing): domain.SessionInitializing,
	string(domain.SessionIdle):         domain.SessionIdle,
	string(domain.SessionBusy):         domain.SessionBusy,
	string(domain.SessionWarning):      domain.SessionWarning,
	string(domain.SessionWaiting):      domain.SessionWaiting,
	string(domain.SessionPaused):       domain.SessionPaused,
	string(domain.SessionCrashed):      domain.SessionCrashed,
	string(domain.SessionDone):         domain.SessionDone,
	string(domain.SessionError):        domain.SessionError,
}

func parseHookState(value string) (domain.SessionState, bool) {
	state, ok := recognizedHookStates[value]
	return state, ok
}
