package monitor

import (
	"regexp"
	"strings"

	"github.com/riordanpawley/azedarach/internal/domain"
)

// DetectState and the pattern table below are consulted by SessionMonitor
// only as the gated fallback for sessions with no @az_status hook value,
// and only when patternFallback is enabled — see resolveState in
// session.go. They are never the primary source of truth.

// StatePattern pairs a compiled pattern with the state it implies.
type StatePattern struct {
	State    domain.SessionState
	Pattern  *regexp.Regexp
	Priority int
}

// PatternMatch is one pattern hit with its surrounding context.
type PatternMatch struct {
	State      domain.SessionState
	Pattern    string
	Line       string
	LineNumber int
	Priority   int
	Confidence float64
}

// Priorities: an error marker beats a prompt beats a completion beats a
// progress line when several appear in the same capture.
const (
	PriorityError   = 100
	PriorityWaiting = 90
	PriorityDone    = 80
	PriorityBusy    = 60
)

// compileGroup builds the pattern entries for one state at one priority.
func compileGroup(state domain.SessionState, priority int, exprs ...string) []StatePattern {
	out := make([]StatePattern, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, StatePattern{State: state, Pattern: regexp.MustCompile(expr), Priority: priority})
	}
	return out
}

// statePatterns covers the agent CLI's observable output: prompts, error
// spew (Go, node, POSIX errno), completion messages, and progress lines.
var statePatterns = concat(
	compileGroup(domain.SessionWaiting, PriorityWaiting,
		// y/n prompts and explicit questions
		`(?i)\[y/n\]`, `(?i)\[yes/no\]`,
		`(?i)Do you want to`, `(?i)Would you like`,
		`(?i)Continue\?`, `(?i)Proceed\?`, `(?i)Approve\?`,
		// AskUserQuestion numbered choices
		`(?im)^\s*\d+\.\s+Other\b`, `(?i)Other\s*\(describe`,
		`(?i)select.*option`, `(?i)choose.*option`,
		`(?i)enter.*number`, `(?i)type.*number.*select`,
		// input prompts
		`(?i)Press Enter`, `(?i)Press any key`,
		`(?i)waiting for.*input`, `(?i)waiting for.*response`,
		`(?i)AskUserQuestion`,
	),
	compileGroup(domain.SessionError, PriorityError,
		// generic failure markers
		`Error:`, `Exception:`, `Failed:`, `FAILED`,
		`(?i)panic:`, `(?i)fatal error`, `(?i)stack trace:`, `(?m)^\s*at\s+.*:\d+:\d+`,
		// errno spellings
		`ENOENT`, `EACCES`, `EEXIST`, `EISDIR`, `ENOTDIR`, `EMFILE`, `ENOSPC`,
		`(?i)permission denied`, `(?i)file not found`, `(?i)no such file`, `(?i)access denied`,
		// network failures
		`ECONNREFUSED`, `ECONNRESET`, `ETIMEDOUT`, `ENETUNREACH`,
		`(?i)connection refused`, `(?i)connection reset`, `(?i)network.*unreachable`, `(?i)timeout`,
		// API and auth
		`(?i)rate limit`, `(?i)429.*too many requests`, `(?i)401.*unauthorized`,
		`(?i)403.*forbidden`, `(?i)authentication failed`, `(?i)invalid.*token`, `(?i)unauthorized`,
		// command and build failures
		`(?i)command not found`, `(?i)command failed`,
		`(?i)exit status [1-9]`, `(?i)exit code [1-9]`,
		`(?i)compilation failed`, `(?i)build failed`, `(?i)syntax error`, `(?i)type error`,
		`(?i)parse error`, `(?i)cannot find module`, `(?i)module not found`,
		// test failures
		`(?i)test.*failed`, `(?i)tests? FAILED`, `(?i)\d+ failing`,
		`(?i)assertion.*failed`, `(?i)expected.*but got`,
		// runtime blowups
		`(?i)null pointer`, `(?i)undefined is not`, `(?i)cannot read property`,
		`(?i)segmentation fault`, `(?i)out of memory`, `(?i)stack overflow`,
	),
	compileGroup(domain.SessionDone, PriorityDone,
		// completion messages
		`(?i)Task completed`, `(?i)Successfully`, `(?i)Done\.`, `(?i)Done!`,
		`(?i)Finished`, `(?i)All tasks complete`, `(?i)All done`, `(?i)completed successfully`,
		// git landmarks
		`(?m)^\[[\w-]+\s+[a-f0-9]{7}\]`,
		`(?i)committed.*file.*changed`, `(?i)pushed to.*origin`,
		`(?i)pull request created`, `(?i)PR created`, `(?i)successfully merged`,
		// green test and build output
		`(?i)All tests pass`, `(?i)tests? passed`, `(?i)\d+ passing`,
		`✓.*completed`, `✓.*passed`, `✓.*success`,
		`(?i)build.*successful`, `(?i)build.*complete`, `(?i)compiled successfully`,
	),
	compileGroup(domain.SessionBusy, PriorityBusy,
		`(?i)Processing\.\.\.`, `(?i)Working on`, `(?i)In progress`,
		`(?i)Loading`, `(?i)Building`, `(?i)Compiling`, `(?i)Installing`, `(?i)Downloading`,
		`(?i)Reading file`, `(?i)Writing file`, `(?i)Creating file`, `(?i)Editing file`, `(?i)Modifying`,
		`(?i)Running tests?`, `(?i)Executing tests?`,
		`(?i)Running command`, `(?i)Executing`,
	),
)

func concat(groups ...[]StatePattern) []StatePattern {
	var all []StatePattern
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// DetectionResult is DetectStateWithContext's verdict.
type DetectionResult struct {
	State      domain.SessionState
	Match      *PatternMatch
	Confidence float64
}

// detectWindow bounds how far back pane output is scanned; anything older
// has scrolled past and shouldn't keep flagging a long-dead error.
const detectWindow = 100

// DetectState classifies session output, defaulting to busy for non-empty
// output with no recognizable marker and idle for empty output.
func DetectState(output string) domain.SessionState {
	return DetectStateWithContext(output).State
}

// DetectStateWithContext scans the last detectWindow lines. The
// highest-priority match wins; within a priority tier, the most recent
// line wins via its recency-weighted confidence.
func DetectStateWithContext(output string) DetectionResult {
	lines := strings.Split(output, "\n")
	startLine := 0
	if len(lines) > detectWindow {
		startLine = len(lines) - detectWindow
		lines = lines[startLine:]
	}

	var best *PatternMatch
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		for _, sp := range statePatterns {
			if !sp.Pattern.MatchString(line) {
				continue
			}

			// More recent lines score higher within the same priority.
			confidence := 0.5 + (float64(i)/float64(len(lines)))*0.5
			match := &PatternMatch{
				State:      sp.State,
				Pattern:    sp.Pattern.String(),
				Line:       line,
				LineNumber: startLine + i,
				Priority:   sp.Priority,
				Confidence: confidence,
			}

			if best == nil || match.Priority > best.Priority ||
				(match.Priority == best.Priority && match.Confidence > best.Confidence) {
				best = match
			}
		}
	}

	if best != nil {
		return DetectionResult{State: best.State, Match: best, Confidence: best.Confidence}
	}
	if strings.TrimSpace(output) != "" {
		return DetectionResult{State: domain.SessionBusy, Confidence: 0.3}
	}
	return DetectionResult{State: domain.SessionIdle, Confidence: 1.0}
}
