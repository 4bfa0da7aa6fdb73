package domain

import "time"

// Task represents a bead tracked by the external issue tracker.
//
// A Task's identifier is immutable once observed: the Beads Client never
// reassigns IDs, and callers must treat ID as an opaque key across
// worktree, tmux, and port-allocation lookups.
type Task struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	Design       string       `json:"design,omitempty"`
	Status       Status       `json:"status"`
	Priority     Priority     `json:"priority"`
	Type         TaskType     `json:"type"`
	ParentID     *string      `json:"parent_id,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	Session      *Session     `json:"session,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DependencyType describes how two beads relate to one another.
type DependencyType string

const (
	DependencyBlocks         DependencyType = "blocks"
	DependencyParentChild    DependencyType = "parent-child"
	DependencyRelated        DependencyType = "related"
	DependencyDiscoveredFrom DependencyType = "discovered-from"
)

// Dependency links a task to another task it references.
type Dependency struct {
	ID   string         `json:"id"`
	Type DependencyType `json:"type"`
}

// Status represents the workflow status of a task. "closed" covers beads
// resolved by any means (done, won't-fix, duplicate) -- the tracker does
// not distinguish resolution reasons at this layer.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusClosed     Status = "closed"
)

// Column returns the kanban column index for this status
func (s Status) Column() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusInProgress:
		return 1
	case StatusBlocked:
		return 2
	case StatusClosed:
		return 3
	default:
		return 0
	}
}

// String returns the display string
func (s Status) String() string {
	return string(s)
}

// Priority represents task priority (0 = highest)
type Priority int

const (
	P0 Priority = iota // Critical
	P1                 // High
	P2                 // Medium
	P3                 // Low
	P4                 // Backlog
)

// String returns priority as string
func (p Priority) String() string {
	return []string{"P0", "P1", "P2", "P3", "P4"}[p]
}

// TaskType represents the type of task
type TaskType string

const (
	TypeTask    TaskType = "task"
	TypeBug     TaskType = "bug"
	TypeFeature TaskType = "feature"
	TypeEpic    TaskType = "epic"
	TypeChore   TaskType = "chore"
)

// Short returns single character representation
func (t TaskType) Short() string {
	switch t {
	case TypeTask:
		return "T"
	case TypeBug:
		return "B"
	case TypeFeature:
		return "F"
	case TypeEpic:
		return "E"
	case TypeChore:
		return "C"
	default:
		return "?"
	}
}

// String returns the display string
func (t TaskType) String() string {
	return string(t)
}
