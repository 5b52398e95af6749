package ui

import "strings"

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error, Pending string
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymDone, SymPending                           string
}

var current = classic()

func classic() Theme {
	return Theme{
		Title: bold, Muted: fgGray, Accent: fgBlue,
		Success: fgGreen, Error: fgRed, Pending: fgYellow,
		BoxUnchecked: "☐", BoxChecked: "☑",
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		SymDone: "✔", SymPending: "•",
	}
}

// SetTheme switches palette; unknown names fall back to classic.
func SetTheme(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		current = Theme{
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m",
			BoxUnchecked: "◻", BoxChecked: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymDone: "✔", SymPending: "•",
		}
	case "mono":
		colorMode = ColorNever
		current = Theme{
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymDone: "x", SymPending: "-",
		}
	default:
		current = classic()
	}
}

// Current exposes what renderers need.
func Current() Theme { return current }
