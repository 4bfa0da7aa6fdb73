package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrOffline      = errors.New("offline")
	ErrUserCanceled = errors.New("user canceled")

	ErrToolMissing        = errors.New("required tool not found on PATH")
	ErrTimeout            = errors.New("operation timed out")
	ErrMergeConflict      = errors.New("merge produced conflicts")
	ErrPRUnavailable      = errors.New("pr tooling unavailable")
	ErrSyncRequired       = errors.New("beads tracker requires sync before this operation")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrConfigInvalid      = errors.New("configuration invalid")
	ErrBeadNotFound       = errors.New("bead not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrWorktreeMissing    = errors.New("worktree missing")
)

// ErrorKind classifies an OpError for routing decisions (retry, toast
// severity, recovery workflow) without callers needing to type-switch on
// every concrete error type.
type ErrorKind string

const (
	KindToolMissing        ErrorKind = "tool_missing"
	KindToolExitNonZero    ErrorKind = "tool_exit_nonzero"
	KindTimeout            ErrorKind = "timeout"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindMergeConflict      ErrorKind = "merge_conflict"
	KindPRUnavailable      ErrorKind = "pr_unavailable"
	KindSyncRequired       ErrorKind = "sync_required"
	KindNetworkUnavailable ErrorKind = "network_unavailable"
	KindConfigInvalid      ErrorKind = "config_invalid"
	KindBeadNotFound       ErrorKind = "bead_not_found"
	KindSessionNotFound    ErrorKind = "session_not_found"
	KindWorktreeMissing    ErrorKind = "worktree_missing"
	KindUnexpected         ErrorKind = "unexpected"
)

// OpError is a general-purpose typed error carrying enough context for the
// overlay layer to render a toast and for callers to branch on Kind without
// string-matching messages.
type OpError struct {
	Kind    ErrorKind
	Op      string
	BeadID  string
	Message string
	Err     error
}

func (e *OpError) Error() string {
	switch {
	case e.BeadID != "" && e.Message != "":
		return fmt.Sprintf("%s [%s]: %s", e.Op, e.BeadID, e.Message)
	case e.BeadID != "":
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.BeadID, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s failed", e.Op)
	}
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// BeadsError represents an error from the beads CLI
type BeadsError struct {
	Op      string // Operation: "list", "create", "update", etc.
	BeadID  string // Optional: specific bead ID
	Message string // Human-readable context
	Err     error  // Underlying error
}

func (e *BeadsError) Error() string {
	if e.BeadID != "" {
		return fmt.Sprintf("beads %s [%s]: %s", e.Op, e.BeadID, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("beads %s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("beads %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("beads %s failed", e.Op)
}

func (e *BeadsError) Unwrap() error {
	return e.Err
}

// TmuxError represents an error from tmux operations
type TmuxError struct {
	Op      string
	Session string
	Err     error
}

func (e *TmuxError) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("tmux %s [%s]: %v", e.Op, e.Session, e.Err)
	}
	return fmt.Sprintf("tmux %s: %v", e.Op, e.Err)
}

func (e *TmuxError) Unwrap() error {
	return e.Err
}

// GitError represents an error from git operations
type GitError struct {
	Op       string
	Worktree string
	Err      error
}

func (e *GitError) Error() string {
	if e.Worktree != "" {
		return fmt.Sprintf("git %s [%s]: %v", e.Op, e.Worktree, e.Err)
	}
	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

func (e *GitError) Unwrap() error {
	return e.Err
}
