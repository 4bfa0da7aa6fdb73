// Package board composes beads, sessions, git state and PR state into the
// single denormalized task list the UI renders.
package board

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/services/beads"
	"github.com/riordanpawley/azedarach/internal/services/git"
	"github.com/riordanpawley/azedarach/internal/services/pr"
)

const (
	dependencyCacheTTL = 30 * time.Second
	gitStatusCacheTTL  = 10 * time.Second
	prCacheTTL         = 15 * time.Second
	debounceWindow     = 500 * time.Millisecond
	backstopInterval   = 5 * time.Second
	recentOutputLines  = 12
)

// GitStatus summarizes a worktree's divergence from its effective base branch.
type GitStatus struct {
	BehindCount    int
	HasUncommitted bool
	Additions      int
	Deletions      int
}

// SessionMetrics carries the live-session telemetry shown alongside a task:
// a rough token estimate from captured pane output, the tail of that output,
// and the phase the session is currently in.
type SessionMetrics struct {
	EstimatedTokens int
	RecentOutput    string
	Phase           string
}

// PRStatus is the forge-reported state of a bead's linked pull request.
type PRStatus struct {
	Number int
	URL    string
	State  string // open, closed, merged
	Draft  bool
}

// TaskWithSession is the denormalized view the UI renders.
type TaskWithSession struct {
	domain.Task
	ParentEpicID  string
	EffectiveBase string
	Git           *GitStatus
	Metrics       *SessionMetrics
	PR            *PRStatus
}

// Snapshot is an immutable refresh result.
type Snapshot struct {
	Tasks       []TaskWithSession
	GeneratedAt time.Time
}

// Filter predicates are ANDed across fields; within a field, membership of a
// set is ORed. A zero Filter matches everything except epic children.
type Filter struct {
	Statuses     map[domain.Status]bool
	Priorities   map[domain.Priority]bool
	Types        map[domain.TaskType]bool
	UpdatedSince time.Time
	EpicID       string
}

// Match reports whether t satisfies every set field of f. Epic-child
// visibility is handled separately by epicVisible, not here.
func (f Filter) Match(t TaskWithSession) bool {
	if len(f.Statuses) > 0 && !f.Statuses[t.Status] {
		return false
	}
	if len(f.Priorities) > 0 && !f.Priorities[t.Priority] {
		return false
	}
	if len(f.Types) > 0 && !f.Types[t.Type] {
		return false
	}
	if !f.UpdatedSince.IsZero() && t.UpdatedAt.Before(f.UpdatedSince) {
		return false
	}
	return true
}

// BeadsSource is the subset of the Beads Client the projection consumes.
type BeadsSource interface {
	List(ctx context.Context) ([]domain.Task, error)
	ShowMultiple(ctx context.Context, ids []string) ([]domain.Task, error)
	SyncImportOnly(ctx context.Context) error
}

// SessionSource is the subset of the Session Manager the projection consumes.
type SessionSource interface {
	ListActive(ctx context.Context) ([]*domain.Session, error)
}

// WorktreeSource is the subset of the Worktree Manager the projection consumes.
type WorktreeSource interface {
	List(ctx context.Context) ([]git.Worktree, error)
}

// GitStatusClient is the subset of the Git Adapter the projection consumes.
type GitStatusClient interface {
	CommitsBehindBase(ctx context.Context, worktree, baseBranch string) (int, error)
	HasUncommittedChanges(ctx context.Context, worktree string) (bool, error)
	MergeBase(ctx context.Context, worktree, baseBranch string) (string, error)
	DiffNumstat(ctx context.Context, worktree, mergeBase, head string, excludePaths []string) (int, int, error)
}

// PaneReader is the subset of the Terminal Multiplexer Adapter the projection
// consumes to build session metrics.
type PaneReader interface {
	CapturePane(ctx context.Context, name string, lines int) (string, error)
}

// PRSource is the subset of the PR Workflow the projection consumes.
type PRSource interface {
	List(ctx context.Context) ([]pr.PRInfo, error)
}

type depCacheEntry struct {
	expiresAt  time.Time
	epicByBead map[string]string
}

type gitCacheKey struct {
	worktree string
	base     string
}

type gitCacheEntry struct {
	expiresAt time.Time
	status    GitStatus
}

type prCacheEntry struct {
	expiresAt time.Time
	byURL     map[string]PRStatus
}

// Projection owns the reactive board state: it refreshes on a trigger/
// backstop loop and serves the last good snapshot to readers without
// blocking them on the next refresh.
type Projection struct {
	beads     BeadsSource
	sessions  SessionSource
	worktrees WorktreeSource
	gitStatus GitStatusClient
	panes     PaneReader
	prs       PRSource
	cfg       *config.Config
	logger    *slog.Logger

	mu             sync.RWMutex
	currentProject string
	snapshot       Snapshot
	pending        map[string]beads.Mutation

	depMu    sync.Mutex
	depCache map[string]depCacheEntry

	gitMu    sync.Mutex
	gitCache map[gitCacheKey]gitCacheEntry

	prMu    sync.Mutex
	prCache prCacheEntry

	trigger chan string
}

// NewProjection wires a Projection to its collaborators. Any of gitStatus,
// panes, or prs may be nil; the corresponding enrichment is skipped.
func NewProjection(
	beadsSrc BeadsSource,
	sessions SessionSource,
	worktrees WorktreeSource,
	gitStatus GitStatusClient,
	panes PaneReader,
	prs PRSource,
	cfg *config.Config,
	logger *slog.Logger,
) *Projection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projection{
		beads:     beadsSrc,
		sessions:  sessions,
		worktrees: worktrees,
		gitStatus: gitStatus,
		panes:     panes,
		prs:       prs,
		cfg:       cfg,
		logger:    logger,
		depCache:  make(map[string]depCacheEntry),
		gitCache:  make(map[gitCacheKey]gitCacheEntry),
		trigger:   make(chan string, 8),
	}
}

// Run drives the refresh loop until ctx is canceled: a 5 s polling backstop,
// plus a 500 ms debounce window over bursts of Trigger calls.
func (p *Projection) Run(ctx context.Context) {
	ticker := time.NewTicker(backstopInterval)
	defer ticker.Stop()

	fire := make(chan struct{}, 1)
	var debounce *time.Timer

	schedule := func() {
		if debounce != nil {
			debounce.Stop()
		}
		debounce = time.AfterFunc(debounceWindow, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	refreshNow := func() {
		if err := p.refresh(ctx); err != nil {
			p.logger.Warn("board refresh failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case <-ticker.C:
			refreshNow()
		case reason := <-p.trigger:
			p.logger.Debug("board refresh requested", "reason", reason)
			schedule()
		case <-fire:
			refreshNow()
		}
	}
}

// Trigger requests a refresh. Bursts within the debounce window coalesce
// into one refresh; a full trigger channel silently drops the request since
// a refresh is already pending.
func (p *Projection) Trigger(reason string) {
	select {
	case p.trigger <- reason:
	default:
	}
}

// SwitchProject points the projection at a new project root and clears the
// stale snapshot. Refreshes started for the old project are discarded when
// they complete, per the race-condition guard in refresh.
func (p *Projection) SwitchProject(path string) {
	p.mu.Lock()
	p.currentProject = path
	p.snapshot = Snapshot{}
	p.mu.Unlock()
	p.Trigger("project-switch")
}

// SetPending installs the current optimistic-mutation overlay, consulted by
// the next refresh and then on every refresh until replaced or cleared.
func (p *Projection) SetPending(pending map[string]beads.Mutation) {
	p.mu.Lock()
	p.pending = pending
	p.mu.Unlock()
	p.Trigger("optimistic-mutation")
}

// Snapshot returns the last completed refresh, immediately and without
// blocking on any in-flight refresh.
func (p *Projection) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// FlatList is the full denormalized task list, epic children included.
func (p *Projection) FlatList() []TaskWithSession {
	return p.Snapshot().Tasks
}

// Grouped buckets the main-board tasks (epic children hidden unless epicID
// names the epic being drilled into) by kanban column.
func (p *Projection) Grouped(epicID string) map[domain.Status][]TaskWithSession {
	return Grouped(p.Snapshot().Tasks, epicID)
}

// FilteredSorted applies filter and sort to the main-board tasks.
func (p *Projection) FilteredSorted(filter Filter, s domain.Sort) []TaskWithSession {
	return FilteredSorted(p.Snapshot().Tasks, filter, s)
}

// Grouped is the pure function behind Projection.Grouped, usable directly in
// tests or against an arbitrary task list.
func Grouped(tasks []TaskWithSession, epicID string) map[domain.Status][]TaskWithSession {
	out := map[domain.Status][]TaskWithSession{
		domain.StatusOpen:       nil,
		domain.StatusInProgress: nil,
		domain.StatusBlocked:    nil,
		domain.StatusClosed:     nil,
	}
	for _, t := range tasks {
		if !epicVisible(t, epicID) {
			continue
		}
		out[t.Status] = append(out[t.Status], t)
	}
	return out
}

// FilteredSorted is the pure function behind Projection.FilteredSorted.
func FilteredSorted(tasks []TaskWithSession, filter Filter, s domain.Sort) []TaskWithSession {
	filtered := make([]TaskWithSession, 0, len(tasks))
	for _, t := range tasks {
		if !epicVisible(t, filter.EpicID) {
			continue
		}
		if !filter.Match(t) {
			continue
		}
		filtered = append(filtered, t)
	}
	sortTasks(filtered, s)
	return filtered
}

func epicVisible(t TaskWithSession, epicID string) bool {
	if epicID == "" {
		return t.ParentEpicID == ""
	}
	return t.ParentEpicID == epicID
}

// sessionRank mirrors domain's session-state rank table: initializing 0,
// busy 1, warning 2, waiting 3, paused 4, crashed 5, done 6, error 7, idle 8,
// no session 9.
func sessionRank(t TaskWithSession) int {
	if t.Session == nil {
		return 9
	}
	switch t.Session.State {
	case domain.SessionInitializing:
		return 0
	case domain.SessionBusy:
		return 1
	case domain.SessionWarning:
		return 2
	case domain.SessionWaiting:
		return 3
	case domain.SessionPaused:
		return 4
	case domain.SessionCrashed:
		return 5
	case domain.SessionDone:
		return 6
	case domain.SessionError:
		return 7
	case domain.SessionIdle:
		return 8
	default:
		return 9
	}
}

func hasActiveSession(t TaskWithSession) bool {
	return t.Session != nil
}

func lessPrimary(a, b int, order domain.SortOrder) bool {
	if order == domain.SortDesc {
		return a > b
	}
	return a < b
}

// sortTasks applies the composable sort orderings from the board's sort
// table: every ordering first floats tasks with an active session above
// idle ones, then applies the chosen field's primary key and tie-break
// chain.
func sortTasks(tasks []TaskWithSession, s domain.Sort) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if hasActiveSession(a) != hasActiveSession(b) {
			return hasActiveSession(a)
		}

		switch s.Field {
		case domain.SortByPriority:
			if a.Priority != b.Priority {
				return lessPrimary(int(a.Priority), int(b.Priority), s.Order)
			}
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return sessionRank(a) < sessionRank(b)

		case domain.SortByUpdated:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				if s.Order == domain.SortDesc {
					return a.UpdatedAt.After(b.UpdatedAt)
				}
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
			if a.Priority != b.Priority {
				return a.Priority < b.Priority
			}
			return sessionRank(a) < sessionRank(b)

		default: // domain.SortBySession
			ra, rb := sessionRank(a), sessionRank(b)
			if ra != rb {
				return lessPrimary(ra, rb, s.Order)
			}
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.Priority < b.Priority
		}
	})
}

// refresh runs the full composition pipeline and installs the result as the
// new snapshot, unless the current project changed while it was running.
func (p *Projection) refresh(ctx context.Context) error {
	p.mu.RLock()
	projectPath := p.currentProject
	pending := p.pending
	p.mu.RUnlock()

	tasks, err := p.listBeadsWithRecovery(ctx)
	if err != nil {
		return err
	}
	tasks = beads.Overlay(tasks, pending)

	epicByBead := p.resolveEpicParents(ctx, projectPath, tasks)

	sessions, err := p.sessions.ListActive(ctx)
	if err != nil {
		p.logger.Warn("failed to list active sessions for board refresh", "error", err)
		sessions = nil
	}
	sessionByBead := make(map[string]*domain.Session, len(sessions))
	for _, s := range sessions {
		sessionByBead[s.BeadID] = s
	}

	metricsByBead := p.collectMetrics(ctx, sessions)

	worktrees, err := p.worktrees.List(ctx)
	if err != nil {
		p.logger.Warn("failed to list worktrees for board refresh", "error", err)
		worktrees = nil
	}
	worktreeByBead := make(map[string]git.Worktree, len(worktrees))
	for _, w := range worktrees {
		worktreeByBead[w.BeadID] = w
	}

	prByURL := p.fetchPRStatuses(ctx)

	built := make([]TaskWithSession, 0, len(tasks))
	for _, task := range tasks {
		tws := TaskWithSession{Task: task}
		if epicID, ok := epicByBead[task.ID]; ok {
			tws.ParentEpicID = epicID
		}

		effectiveBase := ""
		if p.cfg != nil {
			effectiveBase = p.cfg.Git.BaseBranch
		}
		if tws.ParentEpicID != "" {
			if epicWT, ok := worktreeByBead[tws.ParentEpicID]; ok && epicWT.Branch != "" {
				effectiveBase = epicWT.Branch
			}
		}
		tws.EffectiveBase = effectiveBase

		if sess, ok := sessionByBead[task.ID]; ok {
			tws.Session = sess
		}
		if m, ok := metricsByBead[task.ID]; ok {
			metrics := m
			tws.Metrics = &metrics
		}

		wt, hasWorktree := worktreeByBead[task.ID]
		worktreePath := wt.Path
		if worktreePath == "" && tws.Session != nil {
			worktreePath = tws.Session.Worktree
		}
		if (hasWorktree || tws.Session != nil) && worktreePath != "" && p.gitStatus != nil {
			tws.Git = p.gitStatusFor(ctx, worktreePath, effectiveBase)
		}

		if status, ok := matchPR(task.Notes, prByURL); ok {
			tws.PR = status
		}

		built = append(built, tws)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentProject != projectPath {
		// Project switched mid-refresh; discard silently.
		return nil
	}
	p.snapshot = Snapshot{Tasks: built, GeneratedAt: time.Now()}
	return nil
}

// listBeadsWithRecovery lists beads, retrying exactly once via
// syncImportOnly if the tracker's cache reports SyncRequired.
func (p *Projection) listBeadsWithRecovery(ctx context.Context) ([]domain.Task, error) {
	tasks, err := p.beads.List(ctx)
	if err == nil {
		return tasks, nil
	}

	var opErr *domain.OpError
	if !errors.As(err, &opErr) || opErr.Kind != domain.KindSyncRequired {
		return nil, err
	}

	p.logger.Info("beads cache out of sync, recovering before retry")
	if syncErr := p.beads.SyncImportOnly(ctx); syncErr != nil {
		return nil, syncErr
	}
	return p.beads.List(ctx)
}

// resolveEpicParents discovers each bead's parent epic, batch-resolving
// dependencies for every bead that declares any, and caches the result per
// project for 30 s.
func (p *Projection) resolveEpicParents(ctx context.Context, projectPath string, tasks []domain.Task) map[string]string {
	p.depMu.Lock()
	if entry, ok := p.depCache[projectPath]; ok && time.Now().Before(entry.expiresAt) {
		p.depMu.Unlock()
		return entry.epicByBead
	}
	p.depMu.Unlock()

	detailed := make(map[string]domain.Task, len(tasks))
	var withDeps []string
	for _, t := range tasks {
		detailed[t.ID] = t
		if t.ParentID != nil || len(t.Dependencies) > 0 {
			withDeps = append(withDeps, t.ID)
		}
	}

	if len(withDeps) > 0 {
		if full, err := p.beads.ShowMultiple(ctx, withDeps); err != nil {
			p.logger.Warn("failed to batch-resolve bead dependencies", "error", err)
		} else {
			for _, t := range full {
				detailed[t.ID] = t
			}
		}
	}

	epicByBead := make(map[string]string)
	for id, t := range detailed {
		if t.ParentID != nil && *t.ParentID != "" {
			epicByBead[id] = *t.ParentID
			continue
		}
		for _, dep := range t.Dependencies {
			if dep.Type == domain.DependencyParentChild {
				epicByBead[id] = dep.ID
				break
			}
		}
	}

	p.depMu.Lock()
	p.depCache[projectPath] = depCacheEntry{
		expiresAt:  time.Now().Add(dependencyCacheTTL),
		epicByBead: epicByBead,
	}
	p.depMu.Unlock()

	return epicByBead
}

// collectMetrics captures a tail of each active session's pane output and
// derives a rough token estimate from it (roughly 4 bytes per token, a
// heuristic good enough for a progress indicator, not a budget).
func (p *Projection) collectMetrics(ctx context.Context, sessions []*domain.Session) map[string]SessionMetrics {
	if p.panes == nil {
		return nil
	}
	out := make(map[string]SessionMetrics, len(sessions))
	for _, s := range sessions {
		name := s.TmuxSession
		if name == "" {
			name = domain.SessionName(s.BeadID)
		}
		output, err := p.panes.CapturePane(ctx, name, recentOutputLines)
		if err != nil {
			p.logger.Debug("failed to capture pane for session metrics", "beadID", s.BeadID, "error", err)
			output = ""
		}
		out[s.BeadID] = SessionMetrics{
			EstimatedTokens: len(output) / 4,
			RecentOutput:    output,
			Phase:           string(s.State),
		}
	}
	return out
}

// gitStatusFor computes (or returns the cached) divergence of worktreePath
// from effectiveBase, cached per (worktree, base) for 10 s.
func (p *Projection) gitStatusFor(ctx context.Context, worktreePath, effectiveBase string) *GitStatus {
	key := gitCacheKey{worktree: worktreePath, base: effectiveBase}

	p.gitMu.Lock()
	if entry, ok := p.gitCache[key]; ok && time.Now().Before(entry.expiresAt) {
		p.gitMu.Unlock()
		status := entry.status
		return &status
	}
	p.gitMu.Unlock()

	behind, err := p.gitStatus.CommitsBehindBase(ctx, worktreePath, effectiveBase)
	if err != nil {
		p.logger.Debug("failed to compute commits-behind for board refresh", "worktree", worktreePath, "error", err)
	}
	uncommitted, err := p.gitStatus.HasUncommittedChanges(ctx, worktreePath)
	if err != nil {
		p.logger.Debug("failed to check uncommitted changes for board refresh", "worktree", worktreePath, "error", err)
	}

	status := GitStatus{BehindCount: behind, HasUncommitted: uncommitted}
	if mergeBase, err := p.gitStatus.MergeBase(ctx, worktreePath, effectiveBase); err == nil && mergeBase != "" {
		if adds, dels, err := p.gitStatus.DiffNumstat(ctx, worktreePath, mergeBase, "HEAD", nil); err == nil {
			status.Additions = adds
			status.Deletions = dels
		}
	}

	p.gitMu.Lock()
	p.gitCache[key] = gitCacheEntry{expiresAt: time.Now().Add(gitStatusCacheTTL), status: status}
	p.gitMu.Unlock()

	return &status
}

// fetchPRStatuses batch-queries the forge CLI for every open PR, in
// origin-mode only, caching the result for 15 s.
func (p *Projection) fetchPRStatuses(ctx context.Context) map[string]PRStatus {
	if p.prs == nil || p.cfg == nil || p.cfg.Git.WorkflowMode != "origin" {
		return nil
	}

	p.prMu.Lock()
	if time.Now().Before(p.prCache.expiresAt) {
		byURL := p.prCache.byURL
		p.prMu.Unlock()
		return byURL
	}
	p.prMu.Unlock()

	list, err := p.prs.List(ctx)
	if err != nil {
		p.logger.Debug("failed to batch-query PR state for board refresh", "error", err)
		return nil
	}

	byURL := make(map[string]PRStatus, len(list))
	for _, info := range list {
		byURL[info.URL] = PRStatus{Number: info.Number, URL: info.URL, State: info.State, Draft: info.Draft}
	}

	p.prMu.Lock()
	p.prCache = prCacheEntry{expiresAt: time.Now().Add(prCacheTTL), byURL: byURL}
	p.prMu.Unlock()

	return byURL
}

var prURLPattern = regexp.MustCompile(`https?://\S+/pull/\d+`)

// matchPR extracts a PR URL stored in a bead's notes and looks up its
// forge-reported state.
func matchPR(notes string, byURL map[string]PRStatus) (*PRStatus, bool) {
	if len(byURL) == 0 {
		return nil, false
	}
	url := prURLPattern.FindString(notes)
	if url == "" {
		return nil, false
	}
	status, ok := byURL[url]
	if !ok {
		return nil, false
	}
	return &status, true
}
