package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// LineType classifies one diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdd
	LineDelete
)

// DiffLine is a single line inside a hunk, with its line number on the
// side(s) it exists on.
type DiffLine struct {
	Type    LineType
	Content string
	OldLine int
	NewLine int
}

// DiffHunk is one @@-delimited change region.
type DiffHunk struct {
	Header   string
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []DiffLine
}

// FileStatus is the kind of change a file underwent.
type FileStatus int

const (
	FileModified FileStatus = iota
	FileAdded
	FileDeleted
	FileRenamed
)

func (s FileStatus) String() string {
	switch s {
	case FileModified:
		return "modified"
	case FileAdded:
		return "added"
	case FileDeleted:
		return "deleted"
	case FileRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// DiffFile is the parsed change set for one file.
type DiffFile struct {
	Path      string
	OldPath   string // differs from Path on renames
	Status    FileStatus
	Additions int
	Deletions int
	Hunks     []DiffHunk
}

var (
	fileHeaderRegex  = regexp.MustCompile(`^diff --git a/(.*) b/(.*)$`)
	hunkHeaderRegex  = regexp.MustCompile(`^@@ -(\d+),?(\d*) \+(\d+),?(\d*) @@(.*)$`)
	renameFromRegex  = regexp.MustCompile(`^rename from (.*)$`)
	renameToRegex    = regexp.MustCompile(`^rename to (.*)$`)
	newFileModeRegex = regexp.MustCompile(`^new file mode`)
	deletedFileRegex = regexp.MustCompile(`^deleted file mode`)
)

// parser accumulates files as diff lines stream through it.
type parser struct {
	files   []DiffFile
	file    *DiffFile
	hunk    *DiffHunk
	oldLine int
	newLine int
}

// ParseUnifiedDiff parses `git diff` unified output into DiffFiles.
// Unrecognized lines (mode lines, "\ No newline...") are skipped.
func ParseUnifiedDiff(output string) []DiffFile {
	if output == "" {
		return []DiffFile{}
	}

	p := &parser{}
	for _, line := range strings.Split(output, "\n") {
		p.consume(line)
	}
	p.flushFile()
	return p.files
}

func (p *parser) consume(line string) {
	if m := fileHeaderRegex.FindStringSubmatch(line); m != nil {
		p.flushFile()
		p.file = &DiffFile{Path: m[2], OldPath: m[1], Hunks: []DiffHunk{}}
		return
	}
	if p.file == nil {
		return
	}

	switch {
	case newFileModeRegex.MatchString(line):
		p.file.Status = FileAdded
	case deletedFileRegex.MatchString(line):
		p.file.Status = FileDeleted
	case strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ "):
		// Old/new file markers carry nothing the header didn't.
	default:
		if m := renameFromRegex.FindStringSubmatch(line); m != nil {
			p.file.Status = FileRenamed
			p.file.OldPath = m[1]
			return
		}
		if m := renameToRegex.FindStringSubmatch(line); m != nil {
			p.file.Path = m[1]
			return
		}
		if m := hunkHeaderRegex.FindStringSubmatch(line); m != nil {
			p.startHunk(line, m)
			return
		}
		p.consumeContent(line)
	}
}

func (p *parser) startHunk(header string, m []string) {
	p.flushHunk()

	oldStart, _ := strconv.Atoi(m[1])
	newStart, _ := strconv.Atoi(m[3])
	oldCount, newCount := 1, 1
	if m[2] != "" {
		oldCount, _ = strconv.Atoi(m[2])
	}
	if m[4] != "" {
		newCount, _ = strconv.Atoi(m[4])
	}

	p.hunk = &DiffHunk{
		Header:   header,
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
		Lines:    []DiffLine{},
	}
	p.oldLine = oldStart
	p.newLine = newStart
}

func (p *parser) consumeContent(line string) {
	if p.hunk == nil || line == "" {
		return
	}

	switch line[0] {
	case '+':
		p.hunk.Lines = append(p.hunk.Lines, DiffLine{Type: LineAdd, Content: line[1:], NewLine: p.newLine})
		p.file.Additions++
		p.newLine++
	case '-':
		p.hunk.Lines = append(p.hunk.Lines, DiffLine{Type: LineDelete, Content: line[1:], OldLine: p.oldLine})
		p.file.Deletions++
		p.oldLine++
	case ' ':
		p.hunk.Lines = append(p.hunk.Lines, DiffLine{
			Type: LineContext, Content: line[1:], OldLine: p.oldLine, NewLine: p.newLine,
		})
		p.oldLine++
		p.newLine++
	}
}

func (p *parser) flushHunk() {
	if p.hunk != nil {
		p.file.Hunks = append(p.file.Hunks, *p.hunk)
		p.hunk = nil
	}
}

func (p *parser) flushFile() {
	if p.file == nil {
		return
	}
	p.flushHunk()
	p.files = append(p.files, *p.file)
	p.file = nil
}
