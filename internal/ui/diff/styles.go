package diff

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// Styles is the diff viewer's style set, drawn from the shared palette.
type Styles struct {
	Overlay lipgloss.Style
	Title   lipgloss.Style

	FileHeader         lipgloss.Style
	FileHeaderSelected lipgloss.Style
	FileHeaderExpanded lipgloss.Style
	FilePath           lipgloss.Style
	FilePathSelected   lipgloss.Style
	FileStats          lipgloss.Style
	FileStatsAdd       lipgloss.Style
	FileStatsDel       lipgloss.Style

	StatusModified lipgloss.Style
	StatusAdded    lipgloss.Style
	StatusDeleted  lipgloss.Style
	StatusRenamed  lipgloss.Style

	AddLine     lipgloss.Style
	DeleteLine  lipgloss.Style
	ContextLine lipgloss.Style
	HunkHeader  lipgloss.Style
	LineNumber  lipgloss.Style

	Footer  lipgloss.Style
	KeyHint lipgloss.Style
	Dimmed  lipgloss.Style
}

// New builds the diff style set.
func New() *Styles {
	base := lipgloss.NewStyle()

	return &Styles{
		Overlay: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.Surface2).
			Background(styles.Base).
			Padding(1, 2),
		Title: base.Foreground(styles.Text).Bold(true).MarginBottom(1),

		FileHeader:         base.Foreground(styles.Text).Bold(true),
		FileHeaderSelected: base.Foreground(styles.Blue).Bold(true),
		FileHeaderExpanded: base.Foreground(styles.Mauve).Bold(true),
		FilePath:           base.Foreground(styles.Text),
		FilePathSelected:   base.Foreground(styles.Blue),
		FileStats:          base.Foreground(styles.Subtext0),
		FileStatsAdd:       base.Foreground(styles.Green).Bold(true),
		FileStatsDel:       base.Foreground(styles.Red).Bold(true),

		StatusModified: base.Foreground(styles.Yellow).Bold(true),
		StatusAdded:    base.Foreground(styles.Green).Bold(true),
		StatusDeleted:  base.Foreground(styles.Red).Bold(true),
		StatusRenamed:  base.Foreground(styles.Blue).Bold(true),

		AddLine:     base.Foreground(styles.Green),
		DeleteLine:  base.Foreground(styles.Red),
		ContextLine: base.Foreground(styles.Subtext0),
		HunkHeader:  base.Foreground(styles.Blue).Bold(true),
		LineNumber:  base.Foreground(styles.Overlay1).Width(5).Align(lipgloss.Right),

		Footer:  base.Foreground(styles.Subtext0).MarginTop(1),
		KeyHint: base.Foreground(styles.Yellow).Bold(true),
		Dimmed:  base.Foreground(styles.Overlay0),
	}
}

// FileStatusStyle maps a file status to its accent style.
func (s *Styles) FileStatusStyle(status FileStatus) lipgloss.Style {
	switch status {
	case FileAdded:
		return s.StatusAdded
	case FileDeleted:
		return s.StatusDeleted
	case FileRenamed:
		return s.StatusRenamed
	default:
		return s.StatusModified
	}
}

// FileStatusBadge renders the one-letter status marker (M/A/D/R).
func (s *Styles) FileStatusBadge(status FileStatus) string {
	badges := map[FileStatus]string{
		FileModified: "M",
		FileAdded:    "A",
		FileDeleted:  "D",
		FileRenamed:  "R",
	}
	badge, ok := badges[status]
	if !ok {
		badge = "?"
	}
	return s.FileStatusStyle(status).Render(badge)
}
