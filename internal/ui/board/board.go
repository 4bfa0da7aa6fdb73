package board

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/core/phases"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// Render renders the entire kanban board with 4 columns
func Render(
	columns []Column,
	cursor Cursor,
	selectedTasks map[string]bool,
	phaseData map[string]phases.TaskPhaseInfo,
	showPhases bool,
	meta map[string]TaskMeta,
	s *styles.Styles,
	width int,
	height int,
) string {
	if len(columns) == 0 {
		return ""
	}

	childCounts := computeChildCounts(columns)

	// Calculate column width
	// 4 columns with gaps between them
	gap := 1
	totalGaps := (len(columns) - 1) * gap
	columnWidth := (width - totalGaps) / len(columns)

	// Render each column
	var columnStrings []string
	for i, col := range columns {
		isActive := i == cursor.Column
		cursorTask := 0
		if isActive {
			cursorTask = cursor.Task
		}

		// Subtract 1 from height to account for status bar
		columnStr := renderColumn(
			col.Title,
			col.Tasks,
			cursorTask,
			isActive,
			selectedTasks,
			phaseData,
			showPhases,
			meta,
			childCounts,
			columnWidth,
			height-1,
			s,
		)
		columnStrings = append(columnStrings, columnStr)
	}

	// Join columns horizontally with gaps
	return lipgloss.JoinHorizontal(lipgloss.Top, columnStrings...)
}

// computeChildCounts tallies each epic's children across every column by
// ParentID, since a child bead's column (and thus its completion status)
// need not match its epic's own column.
func computeChildCounts(columns []Column) map[string]childCount {
	counts := make(map[string]childCount)
	for _, col := range columns {
		for _, task := range col.Tasks {
			if task.ParentID == nil {
				continue
			}
			c := counts[*task.ParentID]
			c.Total++
			if task.Status == domain.StatusClosed {
				c.Done++
			}
			counts[*task.ParentID] = c
		}
	}
	return counts
}
