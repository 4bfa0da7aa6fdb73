package board

import "github.com/riordanpawley/azedarach/internal/domain"

// Column is one kanban column.
type Column struct {
	Title string
	Tasks []domain.Task
}

// Cursor is the board's selected (column, task) position.
type Cursor struct {
	Column int
	Task   int
}

// TaskMeta is the per-task enrichment the board projection computes
// beyond the bead itself: worktree git state and linked-PR state. Cards
// render it as a status line when present.
type TaskMeta struct {
	BehindBase     int
	HasUncommitted bool
	Additions      int
	Deletions      int
	PRState        string // open, merged, closed, draft
}
