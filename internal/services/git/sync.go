package git

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/riordanpawley/azedarach/internal/services/network"
)

// SyncService keeps the project's base branch fresh in origin mode: it
// periodically fetches, counts how far local main has fallen behind, and
// decides when that count is worth interrupting the user over.
type SyncService struct {
	gitClient      *Client
	networkChecker *network.StatusChecker
	config         *config.Config
	logger         *slog.Logger
	projectPath    string

	inFlight      atomic.Bool
	commitsBehind int
	lastNotified  int
}

// SyncMsg reports the result of a fetch-and-check or pull pass.
type SyncMsg struct {
	CommitsBehind int
	Err           error
}

// NewSyncService creates a SyncService for projectPath.
func NewSyncService(gitClient *Client, networkChecker *network.StatusChecker, cfg *config.Config, projectPath string, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		gitClient:      gitClient,
		networkChecker: networkChecker,
		config:         cfg,
		projectPath:    projectPath,
		logger:         logger,
	}
}

// FetchAndCheck fetches the configured remote and counts commits local base
// is behind. A no-op outside origin mode, when fetching is disabled, when
// offline, or while a previous pass is still running.
func (s *SyncService) FetchAndCheck() tea.Cmd {
	return func() tea.Msg {
		if s.config.Git.WorkflowMode != "origin" || !s.config.Git.FetchEnabled {
			return nil
		}
		if !s.networkChecker.IsOnline() {
			return nil
		}
		if !s.inFlight.CompareAndSwap(false, true) {
			return nil
		}
		defer s.inFlight.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		remote := s.remote()
		base := s.config.Git.BaseBranch

		if err := s.gitClient.Fetch(ctx, s.projectPath, remote); err != nil {
			s.logger.Warn("base branch fetch failed", "remote", remote, "error", err)
		}

		revRange := fmt.Sprintf("%s..%s/%s", base, remote, base)
		count, err := s.gitClient.RevListCount(ctx, s.projectPath, revRange)
		if err != nil {
			s.logger.Warn("behind-count failed", "range", revRange, "error", err)
			count = 0
		}

		s.commitsBehind = count
		return SyncMsg{CommitsBehind: count}
	}
}

// Pull brings the local base branch up to the remote. When the project
// checkout is sitting on another branch, the base ref is updated in place
// via a fetch refspec instead of switching branches under the user.
func (s *SyncService) Pull() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		remote := s.remote()
		base := s.config.Git.BaseBranch

		current, err := s.gitClient.CurrentBranch(ctx, s.projectPath)
		if err != nil {
			return SyncMsg{Err: fmt.Errorf("current branch: %w", err)}
		}

		if current == base {
			err = s.gitClient.Pull(ctx, s.projectPath, remote, base)
		} else {
			err = s.gitClient.FetchRef(ctx, s.projectPath, remote, fmt.Sprintf("%s:%s", base, base))
		}
		if err != nil {
			return SyncMsg{Err: err}
		}

		s.commitsBehind = 0
		s.lastNotified = 0
		return SyncMsg{CommitsBehind: 0}
	}
}

// ShouldNotify reports whether count is news: only in origin mode, only
// when positive, and only when it grew since the last notification.
func (s *SyncService) ShouldNotify(count int) bool {
	if s.config.Git.WorkflowMode != "origin" || count <= 0 || count <= s.lastNotified {
		return false
	}
	s.lastNotified = count
	return true
}

func (s *SyncService) remote() string {
	if s.config.Git.Remote != "" {
		return s.config.Git.Remote
	}
	return "origin"
}
