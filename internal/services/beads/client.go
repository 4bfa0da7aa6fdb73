package beads

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/riordanpawley/azedarach/internal/domain"
)

// syncRequiredMarker is the substring beads emits on stderr when its SQLite
// cache has drifted from the on-disk JSONL, the one error condition this
// client auto-recovers from.
const syncRequiredMarker = "sync required"

// isSyncRequired reports whether err represents beads' out-of-sync state.
func isSyncRequired(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), syncRequiredMarker)
}

// Client wraps the beads CLI for task management operations
type Client struct {
	runner CommandRunner
	logger *slog.Logger
}

// NewClient creates a new Beads client with dependency injection
func NewClient(runner CommandRunner, logger *slog.Logger) *Client {
	return &Client{
		runner: runner,
		logger: logger,
	}
}

// wrapReadError classifies a failed read, tagging SyncRequired specially so
// callers (notably the Board Projection) can trigger the one-retry recovery
// path without string-matching the error themselves.
func wrapReadError(op string, err error) error {
	if isSyncRequired(err) {
		return &domain.OpError{Kind: domain.KindSyncRequired, Op: op, Err: domain.ErrSyncRequired}
	}
	return &domain.BeadsError{Op: op, Err: err}
}

// List fetches all beads using `bd list --format=json`
func (c *Client) List(ctx context.Context) ([]domain.Task, error) {
	c.logger.Debug("fetching beads list")

	out, err := c.runner.Run(ctx, "bd", "list", "--format=json")
	if err != nil {
		return nil, wrapReadError("list", err)
	}

	var tasks []domain.Task
	if err := json.Unmarshal(out, &tasks); err != nil {
		return nil, &domain.BeadsError{Op: "list", Message: "failed to parse JSON", Err: err}
	}

	c.logger.Debug("fetched beads", "count", len(tasks))
	return tasks, nil
}

// Search queries beads using `bd search query --format=json`
func (c *Client) Search(ctx context.Context, query string) ([]domain.Task, error) {
	c.logger.Debug("searching beads", "query", query)

	out, err := c.runner.Run(ctx, "bd", "search", query, "--format=json")
	if err != nil {
		return nil, &domain.BeadsError{Op: "search", Message: query, Err: err}
	}

	var tasks []domain.Task
	if err := json.Unmarshal(out, &tasks); err != nil {
		return nil, &domain.BeadsError{Op: "search", Message: "failed to parse JSON", Err: err}
	}

	c.logger.Debug("found beads", "count", len(tasks))
	return tasks, nil
}

// Ready fetches unblocked tasks using `bd ready --format=json`
func (c *Client) Ready(ctx context.Context) ([]domain.Task, error) {
	c.logger.Debug("fetching ready beads")

	out, err := c.runner.Run(ctx, "bd", "ready", "--format=json")
	if err != nil {
		return nil, &domain.BeadsError{Op: "ready", Err: err}
	}

	var tasks []domain.Task
	if err := json.Unmarshal(out, &tasks); err != nil {
		return nil, &domain.BeadsError{Op: "ready", Message: "failed to parse JSON", Err: err}
	}

	c.logger.Debug("found ready beads", "count", len(tasks))
	return tasks, nil
}

// Update changes a bead's status using `bd update id --status=status`
func (c *Client) Update(ctx context.Context, id string, status domain.Status) error {
	c.logger.Debug("updating bead status", "id", id, "status", status)

	_, err := c.runner.Run(ctx, "bd", "update", id, "--status="+string(status))
	if err != nil {
		return &domain.BeadsError{Op: "update", BeadID: id, Err: err}
	}

	c.logger.Debug("bead updated", "id", id)
	return nil
}

// Close marks a bead as complete using `bd close id --reason=reason`
func (c *Client) Close(ctx context.Context, id string, reason string) error {
	c.logger.Debug("closing bead", "id", id, "reason", reason)

	args := []string{"close", id}
	if reason != "" {
		args = append(args, "--reason="+reason)
	}

	_, err := c.runner.Run(ctx, "bd", args...)
	if err != nil {
		return &domain.BeadsError{Op: "close", BeadID: id, Err: err}
	}

	c.logger.Debug("bead closed", "id", id)
	return nil
}

// Show fetches a single bead using `bd show id --format=json`
func (c *Client) Show(ctx context.Context, id string) (*domain.Task, error) {
	out, err := c.runner.Run(ctx, "bd", "show", id, "--format=json")
	if err != nil {
		return nil, wrapReadError("show", err)
	}

	var task domain.Task
	if err := json.Unmarshal(out, &task); err != nil {
		return nil, &domain.BeadsError{Op: "show", BeadID: id, Message: "failed to parse JSON", Err: err}
	}
	return &task, nil
}

// ShowMultiple fetches several beads in one batched call using
// `bd show id1,id2,... --format=json`.
func (c *Client) ShowMultiple(ctx context.Context, ids []string) ([]domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	out, err := c.runner.Run(ctx, "bd", "show", strings.Join(ids, ","), "--format=json")
	if err != nil {
		return nil, wrapReadError("show-multiple", err)
	}

	var tasks []domain.Task
	if err := json.Unmarshal(out, &tasks); err != nil {
		return nil, &domain.BeadsError{Op: "show-multiple", Message: "failed to parse JSON", Err: err}
	}
	return tasks, nil
}

// CreateParams describes a new bead to create.
type CreateParams struct {
	Title       string
	Description string
	Type        domain.TaskType
	Priority    domain.Priority
	ParentID    string
}

// Create creates a new bead using `bd create` and returns its id.
func (c *Client) Create(ctx context.Context, params CreateParams) (string, error) {
	args := []string{"create", params.Title, "--format=json"}
	if params.Description != "" {
		args = append(args, "--description="+params.Description)
	}
	if params.Type != "" {
		args = append(args, "--type="+string(params.Type))
	}
	args = append(args, fmt.Sprintf("--priority=%d", int(params.Priority)))
	if params.ParentID != "" {
		args = append(args, "--parent="+params.ParentID)
	}

	out, err := c.runner.Run(ctx, "bd", args...)
	if err != nil {
		return "", &domain.BeadsError{Op: "create", Err: err}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(out, &created); err != nil {
		return "", &domain.BeadsError{Op: "create", Message: "failed to parse JSON", Err: err}
	}
	return created.ID, nil
}

// UpdateNotes replaces a bead's notes field.
func (c *Client) UpdateNotes(ctx context.Context, id, text string) error {
	_, err := c.runner.Run(ctx, "bd", "update", id, "--notes="+text)
	if err != nil {
		return &domain.BeadsError{Op: "update-notes", BeadID: id, Err: err}
	}
	return nil
}

// AppendNotes appends to a bead's existing notes.
func (c *Client) AppendNotes(ctx context.Context, id, text string) error {
	_, err := c.runner.Run(ctx, "bd", "update", id, "--append-notes="+text)
	if err != nil {
		return &domain.BeadsError{Op: "append-notes", BeadID: id, Err: err}
	}
	return nil
}

// UpdateStatus sets a bead's status. Equivalent to Update but named to match
// the contract's distinct operation name.
func (c *Client) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	return c.Update(ctx, id, status)
}

// Delete removes a bead permanently.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.runner.Run(ctx, "bd", "delete", id)
	if err != nil {
		return &domain.BeadsError{Op: "delete", BeadID: id, Err: err}
	}
	return nil
}

// AddDependency links bead a to bead b with the given dependency type.
func (c *Client) AddDependency(ctx context.Context, a, b string, depType domain.DependencyType) error {
	_, err := c.runner.Run(ctx, "bd", "dep", "add", a, b, "--type="+string(depType))
	if err != nil {
		return &domain.BeadsError{Op: "add-dependency", BeadID: a, Err: err}
	}
	return nil
}

// RemoveDependency removes a dependency link between two beads.
func (c *Client) RemoveDependency(ctx context.Context, a, b string) error {
	_, err := c.runner.Run(ctx, "bd", "dep", "remove", a, b)
	if err != nil {
		return &domain.BeadsError{Op: "remove-dependency", BeadID: a, Err: err}
	}
	return nil
}

// SyncImportOnly re-imports the on-disk JSONL into beads' cache, without
// writing anything back out. This is the recovery step the Board Projection
// invokes exactly once after a SyncRequired error.
func (c *Client) SyncImportOnly(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "bd", "sync", "--import-only")
	if err != nil {
		return &domain.BeadsError{Op: "sync-import-only", Err: err}
	}
	return nil
}

// EpicWithChildren is the result of GetEpicWithChildren.
type EpicWithChildren struct {
	Epic     domain.Task
	Children []domain.Task
}

// GetEpicWithChildren fetches an epic bead and every bead linked to it by a
// parent-child dependency.
func (c *Client) GetEpicWithChildren(ctx context.Context, id string) (*EpicWithChildren, error) {
	epic, err := c.Show(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := c.runner.Run(ctx, "bd", "show", id, "--children", "--format=json")
	if err != nil {
		return nil, wrapReadError("get-epic-with-children", err)
	}

	var children []domain.Task
	if err := json.Unmarshal(out, &children); err != nil {
		return nil, &domain.BeadsError{Op: "get-epic-with-children", BeadID: id, Message: "failed to parse JSON", Err: err}
	}

	return &EpicWithChildren{Epic: *epic, Children: children}, nil
}

// Overlay applies pending optimistic mutations on top of a freshly fetched
// task list: Move overrides status, Update merges fields, Delete omits the
// task entirely. Consumed by the Board Projection when composing its
// denormalized view.
func Overlay(tasks []domain.Task, pending map[string]Mutation) []domain.Task {
	if len(pending) == 0 {
		return tasks
	}

	result := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		mutation, ok := pending[task.ID]
		if !ok {
			result = append(result, task)
			continue
		}

		switch mutation.Kind {
		case MutationDelete:
			continue
		case MutationMove:
			if status, ok := mutation.Payload["status"].(string); ok {
				task.Status = domain.Status(status)
			}
		case MutationUpdate:
			if title, ok := mutation.Payload["title"].(string); ok {
				task.Title = title
			}
			if desc, ok := mutation.Payload["description"].(string); ok {
				task.Description = desc
			}
			if notes, ok := mutation.Payload["notes"].(string); ok {
				task.Notes = notes
			}
			if status, ok := mutation.Payload["status"].(string); ok {
				task.Status = domain.Status(status)
			}
		}

		result = append(result, task)
	}
	return result
}

// MutationKind enumerates the kinds of optimistic mutation the overlay
// understands.
type MutationKind string

const (
	MutationMove   MutationKind = "move"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// Mutation is a pending optimistic change to a single bead, staged by the
// Command Queue / Overlay Service and consumed here.
type Mutation struct {
	BeadID  string
	Kind    MutationKind
	Payload map[string]interface{}
	Label   string
}
