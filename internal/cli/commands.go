package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/services/beads"
	"github.com/riordanpawley/azedarach/internal/services/git"
	"github.com/riordanpawley/azedarach/internal/services/tmux"
	"github.com/riordanpawley/azedarach/internal/services/worktree"
)

// Dependencies holds all the services needed for CLI commands. It wires the
// same Session Manager (internal/services/worktree.Manager) the TUI uses, so
// this thin CLI front-end and the Kanban board never disagree about tmux
// naming, worktree placement, or session state.
type Dependencies struct {
	Config          *config.Config
	BeadsClient     *beads.Client
	TmuxClient      *tmux.Client
	WorktreeManager *git.WorktreeManager
	Sessions        *worktree.Manager
	Logger          *slog.Logger
}

// NewDependencies creates a new Dependencies instance with all required services
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	logger := slog.Default()

	// Initialize beads client
	beadsRunner := &beads.ExecRunner{}
	beadsClient := beads.NewClient(beadsRunner, logger)

	// Initialize tmux client
	tmuxRunner := &tmux.ExecRunner{}
	tmuxClient := tmux.NewClient(tmuxRunner, logger)

	// Initialize git worktree manager
	repoDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	gitRunner := git.NewExecRunner(repoDir)
	worktreeManager := git.NewWorktreeManager(gitRunner, repoDir, logger)
	gitClient := git.NewClient(gitRunner, logger)
	sessions := worktree.NewManager(tmuxClient, gitClient, worktreeManager, repoDir, cfg, logger)

	return &Dependencies{
		Config:          cfg,
		BeadsClient:     beadsClient,
		TmuxClient:      tmuxClient,
		WorktreeManager: worktreeManager,
		Sessions:        sessions,
		Logger:          logger,
	}, nil
}

// StartCommand starts an agent session for the given bead ID.
func StartCommand(deps *Dependencies, beadID string) error {
	ctx := context.Background()

	deps.Logger.Info("starting session", "bead_id", beadID)

	// Get bead info to verify it exists
	tasks, err := deps.BeadsClient.Search(ctx, beadID)
	if err != nil {
		return fmt.Errorf("failed to search for bead: %w", err)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("bead not found: %s", beadID)
	}
	task := tasks[0]

	fmt.Printf("Starting session for: %s - %s\n", task.ID, task.Title)

	baseBranch := deps.Config.Git.BaseBranch
	if baseBranch == "" {
		baseBranch = "main"
	}

	session, err := deps.Sessions.Start(ctx, beadID, worktree.StartOptions{
		BaseBranch: baseBranch,
		TaskInfo:   task.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	fmt.Printf("Tmux session ready: %s\n", session.TmuxSession)
	fmt.Printf("Worktree:           %s\n", session.Worktree)

	// Update bead status to in_progress
	err = deps.BeadsClient.Update(ctx, beadID, domain.StatusInProgress)
	if err != nil {
		deps.Logger.Warn("failed to update bead status", "error", err)
		// Don't fail the command if status update fails
	}

	fmt.Printf("\n✓ Session started successfully\n")
	fmt.Printf("  To attach: az attach %s\n", beadID)
	fmt.Printf("  Or run:    tmux attach-session -t %s\n", session.TmuxSession)

	return nil
}

// AttachCommand attaches to an existing tmux session
func AttachCommand(deps *Dependencies, beadID string) error {
	ctx := context.Background()

	deps.Logger.Info("attaching to session", "bead_id", beadID)

	sessionName := domain.SessionName(beadID)

	// Check if session exists
	exists, err := deps.TmuxClient.HasSession(ctx, sessionName)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if !exists {
		return fmt.Errorf("session not found: %s (use 'az start %s' to create)", beadID, beadID)
	}

	fmt.Printf("Attaching to session: %s\n", beadID)
	fmt.Printf("(Press Ctrl+B then D to detach)\n\n")

	// Note: AttachSession is blocking - it will transfer control to tmux
	err = deps.TmuxClient.AttachSession(ctx, sessionName)
	if err != nil {
		return fmt.Errorf("failed to attach to session: %w", err)
	}

	return nil
}

// KillCommand stops a session, preserving the worktree on disk.
func KillCommand(deps *Dependencies, beadID string) error {
	ctx := context.Background()

	deps.Logger.Info("killing session", "bead_id", beadID)

	if _, ok := deps.Sessions.Get(beadID); !ok {
		return fmt.Errorf("session not found: %s", beadID)
	}

	fmt.Printf("Killing session: %s\n", beadID)

	if err := deps.Sessions.Stop(ctx, beadID); err != nil {
		return fmt.Errorf("failed to stop session: %w", err)
	}

	fmt.Printf("✓ Session killed: %s\n", beadID)
	fmt.Println("  Note: Worktree is preserved.")

	return nil
}

// StatusCommand shows the status of sessions
func StatusCommand(deps *Dependencies, beadID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deps.Logger.Info("checking session status", "bead_id", beadID)

	// Get all tmux sessions, mapping canonical and legacy names back to bead ids.
	tmuxSessions, err := deps.TmuxClient.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tmux sessions: %w", err)
	}
	var beadIDs []string
	for _, sessionName := range tmuxSessions {
		if id, ok := domain.BeadIDFromSessionName(sessionName); ok {
			beadIDs = append(beadIDs, id)
		}
	}

	// Get all beads
	tasks, err := deps.BeadsClient.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list beads: %w", err)
	}

	// Build a map of bead ID to task
	taskMap := make(map[string]domain.Task)
	for _, task := range tasks {
		taskMap[task.ID] = task
	}

	// Filter to specific bead if provided
	if beadID != "" {
		found := false
		for _, id := range beadIDs {
			if id == beadID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no active session found for bead: %s", beadID)
		}
		beadIDs = []string{beadID}
	}

	if len(beadIDs) == 0 {
		fmt.Println("No active sessions")
		return nil
	}

	// Display sessions
	fmt.Printf("Active Sessions (%d):\n\n", len(beadIDs))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BEAD ID\tSTATUS\tTITLE")
	fmt.Fprintln(w, "-------\t------\t-----")

	for _, id := range beadIDs {
		task, ok := taskMap[id]
		status := "unknown"
		title := "(not in beads)"

		if ok {
			status = string(task.Status)
			title = task.Title
			// Truncate title if too long
			if len(title) > 60 {
				title = title[:57] + "..."
			}
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", id, status, title)
	}

	w.Flush()

	fmt.Printf("\nUse 'az attach <bead-id>' to attach to a session\n")

	return nil
}
