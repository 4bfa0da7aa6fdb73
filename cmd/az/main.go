package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/azedarach/internal/app"
	"github.com/riordanpawley/azedarach/internal/cli"
	"github.com/riordanpawley/azedarach/internal/config"
	"github.com/spf13/cobra"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging()

	if err := newRootCommand(cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the az subcommand tree. Running az with no
// subcommand starts the TUI (RunE on the root itself); every other verb is
// a thin wrapper around internal/cli, which owns the actual dependency
// wiring so the TUI and CLI paths share one implementation.
func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:     "az",
		Short:   "Azedarach orchestrates Claude coding sessions over tmux and git worktrees",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			runTUI(cfg)
			return nil
		},
	}

	root.AddCommand(
		newStartCommand(cfg),
		newAttachCommand(cfg),
		newKillCommand(cfg),
		newStatusCommand(cfg),
	)
	return root
}

func newStartCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "start <bead-id>",
		Short: "Start a Claude session for a bead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cfg, func(deps *cli.Dependencies) error {
				return cli.StartCommand(deps, args[0])
			})
		},
	}
}

func newAttachCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <bead-id>",
		Short: "Attach to an existing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cfg, func(deps *cli.Dependencies) error {
				return cli.AttachCommand(deps, args[0])
			})
		},
	}
}

func newKillCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "kill <bead-id>",
		Short: "Kill a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cfg, func(deps *cli.Dependencies) error {
				return cli.KillCommand(deps, args[0])
			})
		},
	}
}

func newStatusCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status [bead-id]",
		Short: "Show session status (all or a specific bead)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			beadID := ""
			if len(args) == 1 {
				beadID = args[0]
			}
			return runCommand(cfg, func(deps *cli.Dependencies) error {
				return cli.StatusCommand(deps, beadID)
			})
		},
	}
}

// runTUI starts the terminal user interface
func runTUI(cfg *config.Config) {
	model := app.New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runCommand executes a CLI command with dependency injection
func runCommand(cfg *config.Config, fn func(*cli.Dependencies) error) error {
	deps, err := cli.NewDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	return fn(deps)
}

// setupLogging installs the process-wide slog default handler, writing to a
// lumberjack-rotated file under ~/.config/azedarach/az.log instead of stderr
// (stderr is the TUI's alternate screen). The TUI and every supervised
// Session Manager goroutine share this one rotating file.
func setupLogging() {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the process's stderr handler rather than failing startup
		// over a logging concern.
		return
	}

	logPath := filepath.Join(home, ".config", "azedarach", "az.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return
	}

	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(writer, nil)))
}
