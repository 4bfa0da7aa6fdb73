// Package worktree owns the per-bead Session Record map: creation, pause,
// resume, stop, cleanup and crash recovery of the tmux session backing an
// agent's work on a bead, bound to its git worktree.
package worktree

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/services/git"
)

// TmuxClient is the subset of the terminal multiplexer adapter the Session
// Manager needs. Satisfied by *tmux.Client.
type TmuxClient interface {
	HasSession(ctx context.Context, name string) (bool, error)
	NewSession(ctx context.Context, name, workdir string) error
	AttachSession(ctx context.Context, name string) error
	KillSession(ctx context.Context, name string) error
	SendKeysLiteral(ctx context.Context, target, text string) error
	SendEnter(ctx context.Context, target string) error
	SendKeys(ctx context.Context, target, keys string) error
	ListSessions(ctx context.Context) ([]string, error)
	NewWindow(ctx context.Context, session, name, cwd, command string) error
	SetUserOption(ctx context.Context, session, key, value string) error
}

// GitClient is the subset of the git adapter the Session Manager needs.
// Satisfied by *git.Client.
type GitClient interface {
	WipCommit(ctx context.Context, worktree string) error
}

// WorktreeEnsurer is the subset of the worktree manager the Session Manager
// needs. Satisfied by *git.WorktreeManager.
type WorktreeEnsurer interface {
	Ensure(ctx context.Context, beadID, baseBranch string, opts git.EnsureOptions) (*git.Worktree, error)
	Get(ctx context.Context, beadID string) (*git.Worktree, error)
	Delete(ctx context.Context, beadID string) error
}

// StartOptions configures Start.
type StartOptions struct {
	BaseBranch string
	TaskInfo   string
	WithWork   bool // send the multi-line work prompt instead of a bare CLI invocation
	Yolo       bool // append --dangerously-skip-permissions
}

// agentWorkPrompt is the literal agent start prompt. beadId and taskInfo are
// substituted at send time.
const agentWorkPrompt = "work on bead %s (%s)\n\n" +
	"Run `bd show %s` to see full description and context.\n\n" +
	"Before starting implementation:\n" +
	"1. If ANYTHING is unclear or underspecified, ASK ME questions before proceeding\n" +
	"2. Once you understand the task, update the bead with your implementation plan using `bd update %s --design=\"...\"`\n\n" +
	"Goal: Make this bead self-sufficient so any future session could pick it up without extra context."

const mergeConflictPromptFmt = "Resolve the merge conflicts in this worktree (%s).\n\n" +
	"Run `git status` to see the conflicting files, inspect each one, and resolve the conflicts.\n" +
	"Once resolved, stage the files and continue the merge."

// Manager owns the per-bead Session Record map and the tmux/git/worktree
// side effects of every lifecycle transition.
type Manager struct {
	tmux      TmuxClient
	git       GitClient
	worktrees WorktreeEnsurer

	projectRoot string
	storePath   string
	cfg         *config.Config

	mu       sync.RWMutex
	sessions map[string]*domain.Session

	logger *slog.Logger
}

// NewManager creates a Session Manager rooted at projectRoot, loading any
// persisted Session Records found at .azedarach/sessions.json.
func NewManager(tmuxClient TmuxClient, gitClient GitClient, worktrees WorktreeEnsurer, projectRoot string, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		tmux:        tmuxClient,
		git:         gitClient,
		worktrees:   worktrees,
		projectRoot: projectRoot,
		storePath:   filepath.Join(projectRoot, ".azedarach", "sessions.json"),
		cfg:         cfg,
		sessions:    make(map[string]*domain.Session),
		logger:      logger,
	}

	if err := m.load(); err != nil {
		logger.Warn("failed to load persisted session records", "error", err)
	}

	return m
}

// load reads the persisted Session Record array, if present. A missing file
// is not an error. Guarded by the same cross-process file lock as persist,
// since a CLI invocation (internal/cli) and the TUI may both open the
// records of the same project concurrently.
func (m *Manager) load() error {
	lock := flock.New(m.storePath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock session store: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(m.storePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var records []*domain.Session
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse session records: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.sessions[rec.BeadID] = rec
	}
	return nil
}

// persist writes the full Session Record set to disk. Caller must hold m.mu
// (read or write lock; persist only reads). A cross-process file lock
// guards the write itself, since sessions.json is the durable record other
// `az` invocations against the same project read on their own startup.
func (m *Manager) persist() error {
	records := make([]*domain.Session, 0, len(m.sessions))
	for _, rec := range m.sessions {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].BeadID < records[j].BeadID })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.storePath), 0o755); err != nil {
		return err
	}

	lock := flock.New(m.storePath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock session store: %w", err)
	}
	defer lock.Unlock()

	return os.WriteFile(m.storePath, data, 0o644)
}

func (m *Manager) buildAgentCommand(beadID string, opts StartOptions) string {
	cliTool := m.cfg.Session.Command
	if cliTool == "" {
		cliTool = m.cfg.CLITool
	}
	if cliTool == "" {
		cliTool = "claude"
	}

	cmd := cliTool
	if opts.Yolo {
		cmd += " --dangerously-skip-permissions"
	}
	if opts.WithWork {
		taskInfo := opts.TaskInfo
		if taskInfo == "" {
			taskInfo = "no task info available"
		}
		prompt := fmt.Sprintf(agentWorkPrompt, beadID, taskInfo, beadID, beadID)
		cmd = fmt.Sprintf("%s %q", cmd, prompt)
	}
	return cmd
}

// Start ensures the worktree exists, computes the deterministic tmux session
// name, and either attaches to an already-live session or creates a new one:
// init commands, background-task windows, then the agent start command in
// the main window. Creates the Session Record in busy state.
func (m *Manager) Start(ctx context.Context, beadID string, opts StartOptions) (*domain.Session, error) {
	branchPrefix := m.cfg.Git.BranchPrefix
	wt, err := m.worktrees.Ensure(ctx, beadID, opts.BaseBranch, git.EnsureOptions{
		BranchPrefix:      branchPrefix,
		OverlayPaths:      m.cfg.Worktree.CopyPaths,
		InitCommands:      m.cfg.Worktree.InitCommands,
		InitEnv:           m.cfg.Worktree.Env,
		ParallelInit:      m.cfg.Worktree.Parallel,
		ContinueOnFailure: m.cfg.Worktree.ContinueOnFailure,
	})
	if err != nil {
		return nil, &domain.OpError{Kind: domain.KindWorktreeMissing, Op: "session.start", BeadID: beadID, Err: err}
	}

	sessionName := domain.SessionName(beadID)

	alreadyLive, err := m.tmux.HasSession(ctx, sessionName)
	if err != nil {
		return nil, &domain.OpError{Kind: domain.KindUnexpected, Op: "session.start", BeadID: beadID, Err: err}
	}

	if !alreadyLive {
		if err := m.tmux.NewSession(ctx, sessionName, wt.Path); err != nil {
			return nil, &domain.OpError{Kind: domain.KindUnexpected, Op: "session.start", BeadID: beadID, Err: err}
		}

		for _, initCmd := range m.cfg.Session.InitCommands {
			if err := m.tmux.SendKeysLiteral(ctx, sessionName, initCmd); err != nil {
				m.logger.Warn("failed to send session init command", "beadID", beadID, "error", err)
				continue
			}
			if err := m.tmux.SendEnter(ctx, sessionName); err != nil {
				m.logger.Warn("failed to send enter for session init command", "beadID", beadID, "error", err)
			}
		}
		if err := m.tmux.SetUserOption(ctx, sessionName, "az_init_done", "1"); err != nil {
			m.logger.Warn("failed to mark init done", "beadID", beadID, "error", err)
		}

		for i, task := range m.cfg.Session.BackgroundTasks {
			windowName := fmt.Sprintf("bg-%d", i)
			if err := m.tmux.NewWindow(ctx, sessionName, windowName, wt.Path, task); err != nil {
				m.logger.Warn("failed to start background task window", "beadID", beadID, "window", windowName, "error", err)
			}
		}

		agentCmd := m.buildAgentCommand(beadID, opts)
		if err := m.tmux.SendKeysLiteral(ctx, sessionName, agentCmd); err != nil {
			return nil, &domain.OpError{Kind: domain.KindUnexpected, Op: "session.start", BeadID: beadID, Err: err}
		}
		if err := m.tmux.SendEnter(ctx, sessionName); err != nil {
			return nil, &domain.OpError{Kind: domain.KindUnexpected, Op: "session.start", BeadID: beadID, Err: err}
		}
	}

	now := time.Now()
	m.mu.Lock()
	rec := &domain.Session{
		BeadID:      beadID,
		State:       domain.SessionBusy,
		StartedAt:   &now,
		Worktree:    wt.Path,
		Branch:      wt.Branch,
		TmuxSession: sessionName,
	}
	m.sessions[beadID] = rec
	persistErr := m.persist()
	m.mu.Unlock()
	if persistErr != nil {
		m.logger.Warn("failed to persist session records", "beadID", beadID, "error", persistErr)
	}

	m.logger.Info("session started", "beadID", beadID, "tmuxSession", sessionName, "resumed", alreadyLive)
	return rec, nil
}

// Attach attaches the terminal to the bead's tmux session. Blocking.
func (m *Manager) Attach(ctx context.Context, beadID string) error {
	rec, ok := m.get(beadID)
	if !ok {
		return &domain.OpError{Kind: domain.KindSessionNotFound, Op: "session.attach", BeadID: beadID, Err: domain.ErrSessionNotFound}
	}
	if err := m.tmux.AttachSession(ctx, rec.TmuxSession); err != nil {
		return &domain.OpError{Kind: domain.KindUnexpected, Op: "session.attach", BeadID: beadID, Err: err}
	}
	return nil
}

// Pause sends Ctrl-C to the main window, best-effort WIP-commits the
// worktree, and marks the record paused.
func (m *Manager) Pause(ctx context.Context, beadID string) error {
	rec, ok := m.get(beadID)
	if !ok {
		return &domain.OpError{Kind: domain.KindSessionNotFound, Op: "session.pause", BeadID: beadID, Err: domain.ErrSessionNotFound}
	}

	if err := m.tmux.SendKeys(ctx, rec.TmuxSession, "C-c"); err != nil {
		m.logger.Warn("failed to send interrupt", "beadID", beadID, "error", err)
	}

	if rec.Worktree != "" {
		if err := m.git.WipCommit(ctx, rec.Worktree); err != nil {
			m.logger.Warn("wip commit failed", "beadID", beadID, "error", err)
		}
	}

	m.setState(beadID, domain.SessionPaused)
	return nil
}

// Resume sends the agent start command again and marks the record busy.
func (m *Manager) Resume(ctx context.Context, beadID string, opts StartOptions) error {
	rec, ok := m.get(beadID)
	if !ok {
		return &domain.OpError{Kind: domain.KindSessionNotFound, Op: "session.resume", BeadID: beadID, Err: domain.ErrSessionNotFound}
	}

	agentCmd := m.buildAgentCommand(beadID, opts)
	if err := m.tmux.SendKeysLiteral(ctx, rec.TmuxSession, agentCmd); err != nil {
		return &domain.OpError{Kind: domain.KindUnexpected, Op: "session.resume", BeadID: beadID, Err: err}
	}
	if err := m.tmux.SendEnter(ctx, rec.TmuxSession); err != nil {
		return &domain.OpError{Kind: domain.KindUnexpected, Op: "session.resume", BeadID: beadID, Err: err}
	}

	m.setState(beadID, domain.SessionBusy)
	return nil
}

// Stop kills the tmux session and removes the Session Record, leaving the
// worktree on disk.
func (m *Manager) Stop(ctx context.Context, beadID string) error {
	rec, ok := m.get(beadID)
	if !ok {
		return &domain.OpError{Kind: domain.KindSessionNotFound, Op: "session.stop", BeadID: beadID, Err: domain.ErrSessionNotFound}
	}

	if err := m.tmux.KillSession(ctx, rec.TmuxSession); err != nil {
		m.logger.Warn("failed to kill tmux session", "beadID", beadID, "error", err)
	}

	m.mu.Lock()
	delete(m.sessions, beadID)
	persistErr := m.persist()
	m.mu.Unlock()
	if persistErr != nil {
		m.logger.Warn("failed to persist session records", "beadID", beadID, "error", persistErr)
	}

	return nil
}

// Cleanup stops the session, then deletes the worktree and its branch.
func (m *Manager) Cleanup(ctx context.Context, beadID string) error {
	if err := m.Stop(ctx, beadID); err != nil {
		var opErr *domain.OpError
		if !(isErr(err, &opErr) && opErr.Kind == domain.KindSessionNotFound) {
			return err
		}
	}

	if err := m.worktrees.Delete(ctx, beadID); err != nil {
		return &domain.OpError{Kind: domain.KindUnexpected, Op: "session.cleanup", BeadID: beadID, Err: err}
	}

	return nil
}

func isErr(err error, target **domain.OpError) bool {
	if opErr, ok := err.(*domain.OpError); ok {
		*target = opErr
		return true
	}
	return false
}

// Recover re-creates the tmux session for a bead whose worktree survives but
// whose tmux session vanished (state crashed), using the resume command.
func (m *Manager) Recover(ctx context.Context, beadID string, opts StartOptions) (*domain.Session, error) {
	wt, err := m.worktrees.Get(ctx, beadID)
	if err != nil {
		return nil, &domain.OpError{Kind: domain.KindWorktreeMissing, Op: "session.recover", BeadID: beadID, Err: err}
	}

	sessionName := domain.SessionName(beadID)
	if err := m.tmux.NewSession(ctx, sessionName, wt.Path); err != nil {
		return nil, &domain.OpError{Kind: domain.KindUnexpected, Op: "session.recover", BeadID: beadID, Err: err}
	}

	agentCmd := m.buildAgentCommand(beadID, opts)
	if err := m.tmux.SendKeysLiteral(ctx, sessionName, agentCmd); err != nil {
		m.logger.Warn("failed to resend agent command on recovery", "beadID", beadID, "error", err)
	}
	if err := m.tmux.SendEnter(ctx, sessionName); err != nil {
		m.logger.Warn("failed to send enter on recovery", "beadID", beadID, "error", err)
	}

	now := time.Now()
	m.mu.Lock()
	rec := &domain.Session{
		BeadID:      beadID,
		State:       domain.SessionBusy,
		StartedAt:   &now,
		Worktree:    wt.Path,
		Branch:      wt.Branch,
		TmuxSession: sessionName,
	}
	if prev, ok := m.sessions[beadID]; ok {
		rec.CrashCount = prev.CrashCount
	}
	m.sessions[beadID] = rec
	persistErr := m.persist()
	m.mu.Unlock()
	if persistErr != nil {
		m.logger.Warn("failed to persist session records", "beadID", beadID, "error", persistErr)
	}

	m.logger.Info("session recovered", "beadID", beadID, "tmuxSession", sessionName)
	return rec, nil
}

// OpenMergeWindow opens a "merge" tmux window and starts the agent there
// with a conflict-resolution prompt. Called when the Command Queue observes
// a MergeConflict result.
func (m *Manager) OpenMergeWindow(ctx context.Context, beadID string, conflictFiles []string) error {
	rec, ok := m.get(beadID)
	if !ok {
		return &domain.OpError{Kind: domain.KindSessionNotFound, Op: "session.merge-conflict", BeadID: beadID, Err: domain.ErrSessionNotFound}
	}

	if err := m.tmux.NewWindow(ctx, rec.TmuxSession, "merge", rec.Worktree, ""); err != nil {
		return &domain.OpError{Kind: domain.KindUnexpected, Op: "session.merge-conflict", BeadID: beadID, Err: err}
	}

	cliTool := m.cfg.Session.Command
	if cliTool == "" {
		cliTool = "claude"
	}
	prompt := fmt.Sprintf(mergeConflictPromptFmt, joinFiles(conflictFiles))
	target := rec.TmuxSession + ":merge"

	if err := m.tmux.SendKeysLiteral(ctx, target, fmt.Sprintf("%s %q", cliTool, prompt)); err != nil {
		m.logger.Warn("failed to start merge-conflict agent", "beadID", beadID, "error", err)
	}
	if err := m.tmux.SendEnter(ctx, target); err != nil {
		m.logger.Warn("failed to send enter for merge-conflict agent", "beadID", beadID, "error", err)
	}

	return nil
}

func joinFiles(files []string) string {
	if len(files) == 0 {
		return "merge conflicts"
	}
	out := "merge conflicts in"
	for _, f := range files {
		out += " " + f
	}
	return out
}

// ListActive returns every Session Record whose tmux session is currently
// present.
func (m *Manager) ListActive(ctx context.Context) ([]*domain.Session, error) {
	live, err := m.tmux.ListSessions(ctx)
	if err != nil {
		return nil, &domain.OpError{Kind: domain.KindUnexpected, Op: "session.list-active", Err: err}
	}
	liveSet := make(map[string]bool, len(live))
	for _, s := range live {
		liveSet[s] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]*domain.Session, 0, len(m.sessions))
	for _, rec := range m.sessions {
		if liveSet[rec.TmuxSession] {
			recCopy := *rec
			active = append(active, &recCopy)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].BeadID < active[j].BeadID })
	return active, nil
}

// ReconcileCrashed compares persisted records to the live tmux session list.
// Any record without a live session transitions to crashed. If
// sessionRecovery.mode is "auto", recovery of each crashed bead is scheduled
// after the configured delay via the recover callback. Returns the bead ids
// that transitioned to crashed this call.
func (m *Manager) ReconcileCrashed(ctx context.Context, recover func(ctx context.Context, beadID string)) ([]string, error) {
	live, err := m.tmux.ListSessions(ctx)
	if err != nil {
		return nil, &domain.OpError{Kind: domain.KindUnexpected, Op: "session.reconcile", Err: err}
	}
	liveSet := make(map[string]bool, len(live))
	for _, s := range live {
		liveSet[s] = true
	}

	var crashed []string
	m.mu.Lock()
	for beadID, rec := range m.sessions {
		if rec.State == domain.SessionPaused || rec.State == domain.SessionDone {
			continue
		}
		if !liveSet[rec.TmuxSession] {
			rec.State = domain.SessionCrashed
			rec.CrashCount++
			crashed = append(crashed, beadID)
		}
	}
	persistErr := m.persist()
	m.mu.Unlock()
	if persistErr != nil {
		m.logger.Warn("failed to persist session records", "error", persistErr)
	}

	if len(crashed) == 0 {
		return nil, nil
	}

	if m.cfg.Session.Recovery.Mode == "auto" && recover != nil {
		delay := time.Duration(m.cfg.Session.Recovery.AutoRecoveryDelayMs) * time.Millisecond
		for _, beadID := range crashed {
			beadID := beadID
			go func() {
				select {
				case <-time.After(delay):
					recover(ctx, beadID)
				case <-ctx.Done():
				}
			}()
		}
	}

	return crashed, nil
}

func (m *Manager) get(beadID string) (*domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[beadID]
	return rec, ok
}

func (m *Manager) setState(beadID string, state domain.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.sessions[beadID]; ok {
		rec.State = state
		if err := m.persist(); err != nil {
			m.logger.Warn("failed to persist session records", "beadID", beadID, "error", err)
		}
	}
}

// UpdateState sets a session's state directly. Called by the Session-State
// Monitor when it observes a StateChanged event.
func (m *Manager) UpdateState(beadID string, state domain.SessionState) {
	m.setState(beadID, state)
}

// Get returns a copy of the Session Record for beadID, if any.
func (m *Manager) Get(beadID string) (*domain.Session, bool) {
	rec, ok := m.get(beadID)
	if !ok {
		return nil, false
	}
	recCopy := *rec
	return &recCopy, true
}
