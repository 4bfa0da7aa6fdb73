package tmux

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/riordanpawley/azedarach/internal/domain"
)

// Client wraps tmux CLI for session management operations
type Client struct {
	runner CommandRunner
	logger *slog.Logger
}

// NewClient creates a new tmux client with dependency injection
func NewClient(runner CommandRunner, logger *slog.Logger) *Client {
	return &Client{
		runner: runner,
		logger: logger,
	}
}

// NewSession creates a new tmux session with the given name and working directory
// Uses: tmux new-session -d -s <name> -c <workdir>
func (c *Client) NewSession(ctx context.Context, name string, workdir string) error {
	c.logger.Debug("creating tmux session", "name", name, "workdir", workdir)

	args := []string{"new-session", "-d", "-s", name}
	if workdir != "" {
		args = append(args, "-c", workdir)
	}

	_, err := c.runner.Run(ctx, args...)
	if err != nil {
		return &domain.TmuxError{Op: "new-session", Session: name, Err: err}
	}

	c.logger.Debug("tmux session created", "name", name)
	return nil
}

// HasSession checks if a tmux session with the given name exists
// Uses: tmux has-session -t <name>
func (c *Client) HasSession(ctx context.Context, name string) (bool, error) {
	c.logger.Debug("checking tmux session", "name", name)

	_, err := c.runner.Run(ctx, "has-session", "-t", name)
	if err != nil {
		// tmux has-session exits with non-zero if session doesn't exist
		// This is expected, not an error
		c.logger.Debug("tmux session not found", "name", name)
		return false, nil
	}

	c.logger.Debug("tmux session exists", "name", name)
	return true, nil
}

// AttachSession attaches to an existing tmux session
// Note: This is a blocking operation meant to be used with exec.Cmd
// Uses: tmux attach-session -t <name>
func (c *Client) AttachSession(ctx context.Context, name string) error {
	c.logger.Debug("attaching to tmux session", "name", name)

	_, err := c.runner.Run(ctx, "attach-session", "-t", name)
	if err != nil {
		return &domain.TmuxError{Op: "attach-session", Session: name, Err: err}
	}

	return nil
}

// KillSession terminates a tmux session
// Uses: tmux kill-session -t <name>
func (c *Client) KillSession(ctx context.Context, name string) error {
	c.logger.Debug("killing tmux session", "name", name)

	_, err := c.runner.Run(ctx, "kill-session", "-t", name)
	if err != nil {
		return &domain.TmuxError{Op: "kill-session", Session: name, Err: err}
	}

	c.logger.Debug("tmux session killed", "name", name)
	return nil
}

// EnterKey is the distinguished token SendKeysLiteral sends as a key event,
// never as literal text interpreted by tmux.
const EnterKey = "Enter"

// SendKeys sends keystrokes to a tmux session, followed by Enter.
// Uses: tmux send-keys -t <name> <keys> C-m
//
// Deprecated for new call sites: prefer SendKeysLiteral + SendEnter so the
// literal text and the Enter key event are never conflated.
func (c *Client) SendKeys(ctx context.Context, name string, keys string) error {
	c.logger.Debug("sending keys to tmux session", "name", name, "keys", keys)

	_, err := c.runner.Run(ctx, "send-keys", "-t", name, keys, "C-m")
	if err != nil {
		return &domain.TmuxError{Op: "send-keys", Session: name, Err: err}
	}

	c.logger.Debug("keys sent to tmux session", "name", name)
	return nil
}

// SendKeysLiteral sends literal text to a target pane without interpreting
// it as tmux key syntax and without appending Enter.
// Uses: tmux send-keys -t <target> -l <text>
func (c *Client) SendKeysLiteral(ctx context.Context, target string, text string) error {
	c.logger.Debug("sending literal keys", "target", target)

	_, err := c.runner.Run(ctx, "send-keys", "-t", target, "-l", "--", text)
	if err != nil {
		return &domain.TmuxError{Op: "send-keys-literal", Session: target, Err: err}
	}

	return nil
}

// SendEnter sends the Enter key as a distinct key event (not the string
// "Enter") to the given target pane.
// Uses: tmux send-keys -t <target> Enter
func (c *Client) SendEnter(ctx context.Context, target string) error {
	_, err := c.runner.Run(ctx, "send-keys", "-t", target, EnterKey)
	if err != nil {
		return &domain.TmuxError{Op: "send-keys-enter", Session: target, Err: err}
	}
	return nil
}

// CapturePane captures the last N lines from a tmux session's pane
// Uses: tmux capture-pane -t <name> -p -S -<lines>
func (c *Client) CapturePane(ctx context.Context, name string, lines int) (string, error) {
	c.logger.Debug("capturing tmux pane", "name", name, "lines", lines)

	start := fmt.Sprintf("-%d", lines)
	out, err := c.runner.Run(ctx, "capture-pane", "-t", name, "-p", "-S", start)
	if err != nil {
		return "", &domain.TmuxError{Op: "capture-pane", Session: name, Err: err}
	}

	c.logger.Debug("tmux pane captured", "name", name, "bytes", len(out))
	return out, nil
}

// ListSessions returns a list of all tmux session names
// Uses: tmux list-sessions -F "#{session_name}"
func (c *Client) ListSessions(ctx context.Context) ([]string, error) {
	c.logger.Debug("listing tmux sessions")

	out, err := c.runner.Run(ctx, "list-sessions", "-F", "#{session_name}")
	if err != nil {
		// If no sessions exist, tmux returns an error
		// Return empty list instead
		c.logger.Debug("no tmux sessions found")
		return []string{}, nil
	}

	sessions := strings.Split(strings.TrimSpace(out), "\n")
	if len(sessions) == 1 && sessions[0] == "" {
		return []string{}, nil
	}

	c.logger.Debug("tmux sessions listed", "count", len(sessions))
	return sessions, nil
}

// SetEnvironment sets an environment variable in a tmux session
// Uses: tmux set-environment -t <name> <key> <value>
func (c *Client) SetEnvironment(ctx context.Context, name, key, value string) error {
	c.logger.Debug("setting tmux environment variable", "name", name, "key", key)

	_, err := c.runner.Run(ctx, "set-environment", "-t", name, key, value)
	if err != nil {
		return &domain.TmuxError{Op: "set-environment", Session: name, Err: err}
	}

	c.logger.Debug("tmux environment variable set", "name", name, "key", key)
	return nil
}

// ListWindows returns the window names present in a session.
// Uses: tmux list-windows -t <session> -F "#{window_name}"
func (c *Client) ListWindows(ctx context.Context, session string) ([]string, error) {
	out, err := c.runner.Run(ctx, "list-windows", "-t", session, "-F", "#{window_name}")
	if err != nil {
		return nil, &domain.TmuxError{Op: "list-windows", Session: session, Err: err}
	}

	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return []string{}, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// HasWindow reports whether a window with the given name exists in session.
func (c *Client) HasWindow(ctx context.Context, session, window string) (bool, error) {
	windows, err := c.ListWindows(ctx, session)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if w == window {
			return true, nil
		}
	}
	return false, nil
}

// NewWindow creates a new window in an existing session, optionally running
// command immediately.
// Uses: tmux new-window -t <session> -n <name> -c <cwd> [command]
func (c *Client) NewWindow(ctx context.Context, session, name, cwd, command string) error {
	args := []string{"new-window", "-t", session, "-n", name}
	if cwd != "" {
		args = append(args, "-c", cwd)
	}
	if command != "" {
		args = append(args, command)
	}

	_, err := c.runner.Run(ctx, args...)
	if err != nil {
		return &domain.TmuxError{Op: "new-window", Session: session + ":" + name, Err: err}
	}
	return nil
}

// KillWindow kills the window identified by target (e.g. "session:window").
// Uses: tmux kill-window -t <target>
func (c *Client) KillWindow(ctx context.Context, target string) error {
	_, err := c.runner.Run(ctx, "kill-window", "-t", target)
	if err != nil {
		return &domain.TmuxError{Op: "kill-window", Session: target, Err: err}
	}
	return nil
}

// SelectWindow makes the given window the active one.
// Uses: tmux select-window -t <target>
func (c *Client) SelectWindow(ctx context.Context, target string) error {
	_, err := c.runner.Run(ctx, "select-window", "-t", target)
	if err != nil {
		return &domain.TmuxError{Op: "select-window", Session: target, Err: err}
	}
	return nil
}

// SetUserOption stores a string value on a session's `@key` user option,
// the durable out-of-process store used for dev-server metadata and
// hook-reported session state.
// Uses: tmux set-option -t <session> @<key> <value>
func (c *Client) SetUserOption(ctx context.Context, session, key, value string) error {
	_, err := c.runner.Run(ctx, "set-option", "-t", session, "@"+key, value)
	if err != nil {
		return &domain.TmuxError{Op: "set-option", Session: session, Err: err}
	}
	return nil
}

// GetUserOption reads a session's `@key` user option. A missing option is
// reported as ok=false rather than an error.
// Uses: tmux show-options -t <session> -v @<key>
func (c *Client) GetUserOption(ctx context.Context, session, key string) (value string, ok bool, err error) {
	out, runErr := c.runner.Run(ctx, "show-options", "-t", session, "-v", "@"+key)
	if runErr != nil {
		// tmux exits non-zero when the option is unset; that is not an
		// adapter-level failure.
		return "", false, nil
	}

	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return "", false, nil
	}
	return trimmed, true, nil
}

// PopupSpec describes a transient tmux popup window.
type PopupSpec struct {
	Command   string
	WidthPct  int
	HeightPct int
	Title     string
	Cwd       string
}

// DisplayPopup opens a transient popup running command over the current
// client.
// Uses: tmux display-popup -E -w <w%> -h <h%> -T <title> -d <cwd> <command>
func (c *Client) DisplayPopup(ctx context.Context, spec PopupSpec) error {
	args := []string{"display-popup", "-E"}
	if spec.WidthPct > 0 {
		args = append(args, "-w", fmt.Sprintf("%d%%", spec.WidthPct))
	}
	if spec.HeightPct > 0 {
		args = append(args, "-h", fmt.Sprintf("%d%%", spec.HeightPct))
	}
	if spec.Title != "" {
		args = append(args, "-T", spec.Title)
	}
	if spec.Cwd != "" {
		args = append(args, "-d", spec.Cwd)
	}
	if spec.Command != "" {
		args = append(args, spec.Command)
	}

	_, err := c.runner.Run(ctx, args...)
	if err != nil {
		return &domain.TmuxError{Op: "display-popup", Err: err}
	}
	return nil
}
