package overlay

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/azedarach/internal/ui/styles"
)

// homeRow supplies the single-character labels; ten targets cover most
// boards without a second keystroke.
var homeRow = []rune{'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';'}

var alphabet = []rune("abcdefghijklmnopqrstuvwxyz")

// GenerateLabels produces count jump labels: home-row singles first, then
// two-letter combinations.
func GenerateLabels(count int) []string {
	if count <= 0 {
		return []string{}
	}

	labels := make([]string, 0, count)
	for i := 0; i < count && i < len(homeRow); i++ {
		labels = append(labels, string(homeRow[i]))
	}

	for first := 0; first < len(alphabet) && len(labels) < count; first++ {
		for second := 0; second < len(alphabet) && len(labels) < count; second++ {
			labels = append(labels, string(alphabet[first])+string(alphabet[second]))
		}
	}
	return labels
}

// JumpMode collects label keystrokes and resolves them to a task index.
type JumpMode struct {
	labels map[string]int // label -> flat task index
	input  string
	maxLen int
	styles *Styles
}

// JumpSelectedMsg reports the chosen flat task index.
type JumpSelectedMsg struct {
	TaskIndex int
}

// NewJumpMode creates jump mode with labels for taskCount targets.
func NewJumpMode(taskCount int) *JumpMode {
	labelMap := make(map[string]int)
	maxLen := 1
	for i, label := range GenerateLabels(taskCount) {
		labelMap[label] = i
		maxLen = max(maxLen, len(label))
	}

	return &JumpMode{
		labels: labelMap,
		maxLen: maxLen,
		styles: New(),
	}
}

func (j *JumpMode) Init() tea.Cmd {
	return nil
}

func (j *JumpMode) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return j, nil
	}

	switch s := key.String(); s {
	case "esc":
		return j, closeCmd()
	case "backspace":
		if j.input != "" {
			j.input = j.input[:len(j.input)-1]
		}
	default:
		if len(s) != 1 || !isJumpKey(rune(s[0])) {
			return j, nil
		}
		j.input += s

		if index, hit := j.labels[j.input]; hit {
			// A shorter label only fires once no longer label can still
			// match what's been typed.
			if len(j.input) >= j.maxLen || !j.hasLongerMatch() {
				return j, func() tea.Msg { return JumpSelectedMsg{TaskIndex: index} }
			}
		} else if len(j.input) >= j.maxLen {
			j.input = ""
		}
	}
	return j, nil
}

func (j *JumpMode) View() string {
	var b strings.Builder

	b.WriteString(j.styles.Title.Render("Jump Mode"))
	b.WriteString("\n\n")

	if j.input == "" {
		b.WriteString(j.styles.MenuItem.Foreground(styles.Overlay1).Render("Type a label to jump..."))
	} else {
		inputStyle := lipgloss.NewStyle().
			Foreground(styles.Yellow).
			Bold(true).
			Background(styles.Surface1).
			Padding(0, 1)
		b.WriteString("Input: ")
		b.WriteString(inputStyle.Render(j.input))
	}
	b.WriteString("\n\n")

	if labels := j.sortedLabels(); len(labels) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtext0).Render("Available: "))

		preview := labels[:min(len(labels), 20)]
		for i, label := range preview {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(j.styles.MenuKey.Render(label))
		}
		if len(labels) > len(preview) {
			b.WriteString(j.styles.Footer.Render(fmt.Sprintf(" ... +%d more", len(labels)-len(preview))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(j.styles.Footer.Render("Type label • Backspace: delete • Esc: cancel"))

	return b.String()
}

func (j *JumpMode) Title() string {
	return "Jump"
}

func (j *JumpMode) Size() (width, height int) {
	return 50, 10
}

// GetLabel returns the label assigned to a flat task index.
func (j *JumpMode) GetLabel(index int) string {
	for label, idx := range j.labels {
		if idx == index {
			return label
		}
	}
	return ""
}

// sortedLabels returns the labels in task order.
func (j *JumpMode) sortedLabels() []string {
	labels := make([]string, 0, len(j.labels))
	for label := range j.labels {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(a, b int) bool {
		return j.labels[labels[a]] < j.labels[labels[b]]
	})
	return labels
}

func (j *JumpMode) hasLongerMatch() bool {
	for label := range j.labels {
		if len(label) > len(j.input) && strings.HasPrefix(label, j.input) {
			return true
		}
	}
	return false
}

func isJumpKey(r rune) bool {
	if r == ';' {
		return true
	}
	return r >= 'a' && r <= 'z'
}

// RenderLabel draws a jump label badge over a card.
func RenderLabel(label string) string {
	return lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(styles.Yellow).
		Bold(true).
		Padding(0, 1).
		Render(label)
}
