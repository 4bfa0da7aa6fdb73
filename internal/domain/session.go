package domain

import "time"

// Session represents an active agent session bound to a worktree and tmux pane.
type Session struct {
	BeadID      string                `json:"bead_id"`
	State       SessionState          `json:"state"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	Worktree    string                `json:"worktree,omitempty"`
	Branch      string                `json:"branch,omitempty"`
	TmuxSession string                `json:"tmux_session,omitempty"`
	DevServer   *DevServer            `json:"dev_server,omitempty"`
	DevServers  map[string]*DevServer `json:"dev_servers,omitempty"`
	CrashCount  int                   `json:"crash_count,omitempty"`
}

// SessionState represents the current state of a session's lifecycle.
//
// initializing covers the window between tmux session creation and the first
// observed hook or pattern-matched signal from the agent; crashed marks a
// session whose tmux pane disappeared without a recorded stop.
type SessionState string

const (
	SessionInitializing SessionState = "initializing"
	SessionIdle         SessionState = "idle"
	SessionBusy         SessionState = "busy"
	SessionWarning      SessionState = "warning"
	SessionWaiting      SessionState = "waiting"
	SessionPaused       SessionState = "paused"
	SessionCrashed      SessionState = "crashed"
	SessionDone         SessionState = "done"
	SessionError        SessionState = "error"
)

// AllSessionStates returns every defined SessionState value, in urgency
// order (sort.go's sessionStatePriority).
func AllSessionStates() []SessionState {
	return []SessionState{
		SessionInitializing,
		SessionBusy,
		SessionWarning,
		SessionWaiting,
		SessionPaused,
		SessionCrashed,
		SessionDone,
		SessionError,
		SessionIdle,
	}
}

// Icon returns a unicode icon for the state
func (s SessionState) Icon() string {
	switch s {
	case SessionInitializing:
		return "◌"
	case SessionIdle:
		return "○"
	case SessionBusy:
		return "●"
	case SessionWarning:
		return "▲"
	case SessionWaiting:
		return "◐"
	case SessionPaused:
		return "⏸"
	case SessionCrashed:
		return "☓"
	case SessionDone:
		return "✓"
	case SessionError:
		return "✗"
	default:
		return "?"
	}
}

// String returns the display string
func (s SessionState) String() string {
	return string(s)
}

// DevServer represents a single named dev server running inside a bead's
// worktree. Ports holds the env-var name to allocated port mapping shared by
// every server belonging to the same bead.
type DevServer struct {
	Name      string         `json:"name"`
	Port      int            `json:"port"`
	Ports     map[string]int `json:"ports,omitempty"`
	Command   string         `json:"command"`
	Running   bool           `json:"running"`
	Healthy   bool           `json:"healthy"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
}

// Project represents a project that can be managed by Azedarach
type Project struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
