package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a project's .azedarach.json when it changes on disk and
// invokes onChange with the freshly merged Config. It falls back to a
// polling loop if the fsnotify watch cannot be established (e.g. on a
// filesystem that doesn't support inotify), rather than failing startup
// over a non-essential concern.
type Watcher struct {
	projectPath string
	onChange    func(*Config)
	logger      *slog.Logger

	watcher *fsnotify.Watcher
	polling bool

	mu       sync.Mutex
	lastMod  time.Time
	debounce *time.Timer
}

// NewWatcher creates a config file watcher for projectPath. onChange is
// called, debounced by 300ms, after .azedarach.json changes and reparses
// successfully.
func NewWatcher(projectPath string, onChange func(*Config), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		projectPath: projectPath,
		onChange:    onChange,
		logger:      logger,
	}
}

// Start begins watching until ctx is canceled. Safe to run as a Supervisor
// child: a failed fsnotify.NewWatcher degrades to polling rather than
// returning an error.
func (w *Watcher) Start(ctx context.Context) {
	configPath := filepath.Join(w.projectPath, ".azedarach.json")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("config watcher: fsnotify unavailable, falling back to polling", "error", err)
		w.pollLoop(ctx, configPath)
		return
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(configPath)); err != nil {
		w.logger.Warn("config watcher: failed to watch project directory, falling back to polling", "error", err)
		w.pollLoop(ctx, configPath)
		return
	}

	w.watcher = fw
	if stat, err := os.Stat(configPath); err == nil {
		w.lastMod = stat.ModTime()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload(configPath)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher: fsnotify error", "error", err)
		}
	}
}

// scheduleReload debounces rapid-fire writes (editors often emit several
// events per save) into a single reload 300ms after the last one.
func (w *Watcher) scheduleReload(configPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(300*time.Millisecond, func() {
		w.reload(configPath)
	})
}

func (w *Watcher) reload(configPath string) {
	cfg, err := LoadConfig(w.projectPath)
	if err != nil {
		w.logger.Error("config watcher: reload failed, keeping previous config", "path", configPath, "error", err)
		return
	}
	w.logger.Info("config watcher: reloaded", "path", configPath)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// pollLoop is the fsnotify-unavailable fallback: check the file's mtime
// every 2 seconds.
func (w *Watcher) pollLoop(ctx context.Context, configPath string) {
	w.polling = true
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stat, err := os.Stat(configPath)
			if err != nil {
				continue
			}
			if stat.ModTime().After(w.lastMod) {
				w.lastMod = stat.ModTime()
				w.reload(configPath)
			}
		}
	}
}
