package statusbar

import "github.com/riordanpawley/azedarach/internal/types"

// Hints returns the keybinding line shown next to the mode badge.
func Hints(mode types.Mode) string {
	switch mode {
	case types.ModeNormal:
		return "h/l: columns  j/k: tasks  Space: action  ?: help  q: quit"
	case types.ModeGoto:
		return "g: top  e: end  h: first col  l: last col  Esc: cancel"
	case types.ModeSelect:
		return "Space: toggle  a: column  A: all  x: none  Esc: cancel"
	default:
		return ""
	}
}
