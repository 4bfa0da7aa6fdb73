// Package project implements project discovery, switching, and per-project
// UI state persistence.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/riordanpawley/azedarach/internal/domain"
)

const uiStateSaveDebounce = 500 * time.Millisecond

// CommandRunner executes an external command; satisfied by beads.ExecRunner.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// BoardSwitcher is the subset of the Board Projection the service drives on
// a project switch.
type BoardSwitcher interface {
	SwitchProject(path string)
}

// UIState is the per-project focus/sort/filter/view the user last left a
// project in.
type UIState struct {
	FocusedTaskID string           `json:"focusedTaskId,omitempty"`
	SortField     domain.SortField `json:"sortField,omitempty"`
	SortOrder     domain.SortOrder `json:"sortOrder"`
	ViewMode      string           `json:"viewMode,omitempty"`
	EpicID        string           `json:"epicId,omitempty"`
}

// ChangedMsg is returned by SwitchTo for callers to publish as a UI event.
type ChangedMsg struct {
	Project config.Project
}

// Service implements the Project Service operations: discoverAll, switchTo,
// getCurrentPath, initBeads, plus debounced per-project UI state persistence.
type Service struct {
	registry *config.ProjectsRegistry
	board    BoardSwitcher
	runner   CommandRunner
	logger   *slog.Logger

	mu      sync.RWMutex
	current config.Project

	saveMu    sync.Mutex
	pending   map[string]UIState
	saveTimer *time.Timer
}

// NewService wires a Service. board and runner may be nil in contexts that
// don't need a live Board Projection or bd bootstrap (e.g. tests).
func NewService(registry *config.ProjectsRegistry, board BoardSwitcher, runner CommandRunner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		board:    board,
		runner:   runner,
		logger:   logger,
		pending:  make(map[string]UIState),
	}
}

// DiscoverAll lists every known project.
func (s *Service) DiscoverAll() []config.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]config.Project, len(s.registry.Projects))
	copy(out, s.registry.Projects)
	return out
}

// GetCurrentPath returns the active project's path, or "" if none is set.
func (s *Service) GetCurrentPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Path
}

// SwitchTo makes p the active project: it instructs the Board Projection to
// switch, restores p's saved UI state, and returns a ChangedMsg for the
// caller to publish. Clearing per-project UI state in the live model is the
// caller's responsibility (the Service only persists/restores it).
func (s *Service) SwitchTo(p config.Project) (UIState, ChangedMsg) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	if s.board != nil {
		s.board.SwitchProject(p.Path)
	}

	return s.loadUIState(p.Name), ChangedMsg{Project: p}
}

// InitBeads bootstraps the tracker inside a project via `bd init`.
func (s *Service) InitBeads(ctx context.Context, p config.Project) error {
	if s.runner == nil {
		return fmt.Errorf("project %s: no command runner configured", p.Name)
	}
	if _, err := s.runner.Run(ctx, "bd", "init"); err != nil {
		return fmt.Errorf("bd init failed for %s: %w", p.Name, err)
	}
	return nil
}

// SaveUIState debounces and persists a project's UI state to disk. Bursts of
// calls for the same or different projects within the debounce window
// coalesce into a single flush.
func (s *Service) SaveUIState(projectName string, state UIState) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.pending[projectName] = state
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(uiStateSaveDebounce, s.flush)
}

// Flush immediately writes any pending UI state to disk, bypassing the
// debounce window. Exposed for shutdown paths and tests.
func (s *Service) Flush() {
	s.flush()
}

func (s *Service) flush() {
	s.saveMu.Lock()
	pending := s.pending
	s.pending = make(map[string]UIState)
	s.saveMu.Unlock()

	for name, state := range pending {
		if err := writeUIState(name, state); err != nil {
			s.logger.Warn("failed to persist project UI state", "project", name, "error", err)
		}
	}
}

func (s *Service) loadUIState(projectName string) UIState {
	state, err := readUIState(projectName)
	if err != nil {
		return UIState{}
	}
	return state
}

func uiStatePath(projectName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	safe := strings.ReplaceAll(projectName, string(filepath.Separator), "_")
	return filepath.Join(home, ".config", "azedarach", "ui-state", safe+".json"), nil
}

func writeUIState(projectName string, state UIState) error {
	path, err := uiStatePath(projectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readUIState(projectName string) (UIState, error) {
	path, err := uiStatePath(projectName)
	if err != nil {
		return UIState{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return UIState{}, err
	}
	var state UIState
	if err := json.Unmarshal(data, &state); err != nil {
		return UIState{}, err
	}
	return state, nil
}
