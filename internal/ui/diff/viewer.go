// Package diff parses and displays git diffs as a collapsible per-file
// overlay.
package diff

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/services/git"
	"github.com/riordanpawley/azedarach/internal/ui/overlay"
)

// DiffViewer shows a worktree's diff as a file list whose entries expand
// into hunks.
type DiffViewer struct {
	worktree   string
	files      []DiffFile
	cursor     int
	scrollY    int
	expanded   map[int]bool
	styles     *Styles
	viewHeight int
	loading    bool
	err        error
}

// NewDiffViewer creates a viewer for worktree; call LoadDiff to fill it.
func NewDiffViewer(worktree string) *DiffViewer {
	return &DiffViewer{
		worktree:   worktree,
		files:      []DiffFile{},
		expanded:   make(map[int]bool),
		styles:     New(),
		viewHeight: 20,
	}
}

type loadDiffMsg struct {
	output string
	err    error
}

// LoadDiff fetches and parses the worktree's diff.
func (d *DiffViewer) LoadDiff(ctx context.Context, gitClient *git.Client) tea.Cmd {
	return func() tea.Msg {
		output, err := gitClient.Diff(ctx, d.worktree)
		return loadDiffMsg{output: output, err: err}
	}
}

func (d *DiffViewer) Init() tea.Cmd {
	d.loading = true
	return nil
}

func (d *DiffViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDiffMsg:
		d.loading = false
		if msg.err != nil {
			d.err = msg.err
			return d, nil
		}
		d.files = ParseUnifiedDiff(msg.output)
		return d, nil

	case tea.KeyMsg:
		if d.loading {
			return d, nil
		}
		switch msg.String() {
		case "esc", "q":
			return d, func() tea.Msg { return overlay.CloseOverlayMsg{} }
		case "j", "down":
			if d.cursor < len(d.files)-1 {
				d.cursor++
				d.ensureCursorVisible()
			}
		case "k", "up":
			if d.cursor > 0 {
				d.cursor--
				d.ensureCursorVisible()
			}
		case "g":
			d.cursor = 0
			d.scrollY = 0
		case "G":
			if len(d.files) > 0 {
				d.cursor = len(d.files) - 1
				d.ensureCursorVisible()
			}
		case "enter", " ":
			if d.cursor >= 0 && d.cursor < len(d.files) {
				d.expanded[d.cursor] = !d.expanded[d.cursor]
			}
		case "E":
			for i := range d.files {
				d.expanded[i] = true
			}
		case "C":
			d.expanded = make(map[int]bool)
		}
	}
	return d, nil
}

func (d *DiffViewer) View() string {
	if d.loading {
		return d.styles.Dimmed.Render("Loading diff...")
	}
	if d.err != nil {
		return d.styles.DeleteLine.Render(fmt.Sprintf("Error loading diff: %v", d.err))
	}
	if len(d.files) == 0 {
		return d.styles.Dimmed.Render("No changes to display")
	}

	lines := strings.Split(d.renderFiles(), "\n")
	end := min(d.scrollY+d.viewHeight, len(lines))

	var content strings.Builder
	for _, line := range lines[min(d.scrollY, end):end] {
		content.WriteString(line)
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(d.renderFooter())

	return content.String()
}

func (d *DiffViewer) Title() string {
	if len(d.files) == 0 {
		return "Git Diff"
	}
	suffix := "s"
	if len(d.files) == 1 {
		suffix = ""
	}
	return fmt.Sprintf("Git Diff (%d file%s)", len(d.files), suffix)
}

func (d *DiffViewer) Size() (width, height int) {
	return 100, 30
}

func (d *DiffViewer) renderFiles() string {
	var b strings.Builder

	for i, file := range d.files {
		selected := i == d.cursor
		expanded := d.expanded[i]

		headerStyle := d.styles.FileHeader
		if selected && expanded {
			headerStyle = d.styles.FileHeaderExpanded
		} else if selected {
			headerStyle = d.styles.FileHeaderSelected
		}

		cursor := " "
		if selected {
			cursor = "▶"
		}
		expandMarker := "►"
		if expanded {
			expandMarker = "▼"
		}

		path := file.Path
		if file.Status == FileRenamed && file.OldPath != file.Path {
			path = fmt.Sprintf("%s → %s", file.OldPath, file.Path)
		}

		stats := lipgloss.JoinHorizontal(lipgloss.Left,
			d.styles.FileStatsAdd.Render(fmt.Sprintf("+%d", file.Additions)),
			" ",
			d.styles.FileStatsDel.Render(fmt.Sprintf("-%d", file.Deletions)),
		)

		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left,
			cursor, " ", expandMarker, " ",
			d.styles.FileStatusBadge(file.Status), " ",
			headerStyle.Render(path), " ",
			d.styles.FileStats.Render("("), stats, d.styles.FileStats.Render(")"),
		))
		b.WriteString("\n")

		if expanded {
			for _, hunk := range file.Hunks {
				b.WriteString(d.renderHunk(hunk))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (d *DiffViewer) renderHunk(hunk DiffHunk) string {
	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(d.styles.HunkHeader.Render(hunk.Header))
	b.WriteString("\n")
	for _, line := range hunk.Lines {
		b.WriteString(d.renderLine(line))
		b.WriteString("\n")
	}

	return b.String()
}

func (d *DiffViewer) renderLine(line DiffLine) string {
	var prefix string
	var lineNum int
	var style lipgloss.Style

	switch line.Type {
	case LineAdd:
		prefix, lineNum, style = "+", line.NewLine, d.styles.AddLine
	case LineDelete:
		prefix, lineNum, style = "-", line.OldLine, d.styles.DeleteLine
	default:
		prefix, lineNum, style = " ", line.NewLine, d.styles.ContextLine
	}

	return lipgloss.JoinHorizontal(lipgloss.Left,
		"    ",
		d.styles.LineNumber.Render(fmt.Sprintf("%5d", lineNum)),
		" ",
		style.Render(prefix),
		" ",
		style.Render(line.Content),
	)
}

func (d *DiffViewer) renderFooter() string {
	hints := []string{
		d.styles.KeyHint.Render("j/k") + d.styles.Footer.Render(" navigate"),
		d.styles.KeyHint.Render("g/G") + d.styles.Footer.Render(" jump top/bottom"),
		d.styles.KeyHint.Render("Enter") + d.styles.Footer.Render(" expand/collapse"),
		d.styles.KeyHint.Render("E/C") + d.styles.Footer.Render(" expand/collapse all"),
		d.styles.KeyHint.Render("q/Esc") + d.styles.Footer.Render(" close"),
	}

	fileInfo := ""
	if len(d.files) > 0 {
		fileInfo = d.styles.Footer.Render(fmt.Sprintf("  [File %d/%d]", d.cursor+1, len(d.files)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Left,
		strings.Join(hints, d.styles.Footer.Render(" • ")),
		fileInfo,
	)
}

// ensureCursorVisible keeps the cursor's file-header line inside the
// scroll window, accounting for expanded hunks above it.
func (d *DiffViewer) ensureCursorVisible() {
	linePos := 0
	for i := 0; i < d.cursor && i < len(d.files); i++ {
		linePos++
		if d.expanded[i] {
			for _, hunk := range d.files[i].Hunks {
				linePos += 1 + len(hunk.Lines)
			}
			linePos++
		}
	}

	if linePos < d.scrollY {
		d.scrollY = linePos
	} else if linePos >= d.scrollY+d.viewHeight {
		d.scrollY = linePos - d.viewHeight + 1
	}
}
