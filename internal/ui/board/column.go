package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/core/phases"
	"github.com/riordanpawley/azedarach/internal/domain"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

const cardHeight = 5

func renderColumn(
	title string,
	tasks []domain.Task,
	cursorTask int,
	isActive bool,
	selectedTasks map[string]bool,
	phaseData map[string]phases.TaskPhaseInfo,
	showPhases bool,
	meta map[string]TaskMeta,
	childCounts map[string]childCount,
	width int,
	height int,
	s *styles.Styles,
) string {
	headerStyle := s.ColumnHeader
	if isActive {
		headerStyle = s.ColumnHeaderActive
	}
	header := headerStyle.Width(width).Render(fmt.Sprintf("%s (%d)", title, len(tasks)))

	availableHeight := height - 2

	var cardContent strings.Builder
	cardWidth := width - 2

	for i, task := range tasks {
		isCursor := isActive && i == cursorTask
		isSelected := selectedTasks[task.ID]

		var phaseInfo *phases.TaskPhaseInfo
		if info, exists := phaseData[task.ID]; exists {
			phaseInfo = &info
		}

		cardContent.WriteString(renderCard(task, isCursor, isSelected, cardWidth, phaseInfo, showPhases, meta[task.ID], childCounts, s))
		cardContent.WriteString("\n")
	}

	vp := viewport.New(width, availableHeight)
	vp.SetContent(cardContent.String())

	// Scroll so the cursor's card is in view; cards render at a roughly
	// fixed height, so the line offset is just index * (card + newline).
	if cursorTask >= 0 && cursorTask < len(tasks) {
		vp.GotoTop()
		vp.LineDown(cursorTask * (cardHeight + 1))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, vp.View())
}
