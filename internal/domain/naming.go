package domain

import "strings"

// SessionName returns the canonical tmux session name for a bead.
func SessionName(beadID string) string {
	return "az-" + beadID
}

// LegacySessionName returns the deprecated tmux session name form that
// discovery must still recognize.
func LegacySessionName(beadID string) string {
	return beadID + "-az"
}

// BeadIDFromSessionName extracts the bead id from either the canonical
// `az-<beadId>` form or the legacy `<beadId>-az` form. ok is false if name
// matches neither pattern.
func BeadIDFromSessionName(name string) (beadID string, ok bool) {
	if strings.HasPrefix(name, "az-") {
		return strings.TrimPrefix(name, "az-"), true
	}
	if strings.HasSuffix(name, "-az") {
		return strings.TrimSuffix(name, "-az"), true
	}
	return "", false
}

// DevServerWindowName returns the canonical tmux window name for a named
// dev server.
func DevServerWindowName(serverName string) string {
	return "dev-" + serverName
}

// BranchName returns the git branch name for a bead given a configured
// prefix (default "az-").
func BranchName(prefix, beadID string) string {
	if prefix == "" {
		prefix = "az-"
	}
	return prefix + beadID
}

// WorktreeDirName returns the directory basename for a bead's worktree,
// sibling to the project directory.
func WorktreeDirName(projectBasename, beadID string) string {
	return projectBasename + "-" + beadID
}
