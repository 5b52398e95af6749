package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada-remote/internal/model"
)

var ansiRegexp = regexp.MustCompile(`\x1b(?:\[[0-?]*[ -/]*[@-~]|[@-Z\\-_])`)

// Sanitize strips escape sequences. Remote titles go through it before they
// reach a terminal.
func Sanitize(s string) string { return ansiRegexp.ReplaceAllString(s, "") }

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel draws a framed box using the current theme.
func Panel(w io.Writer, lines []string) {
	t := current
	maxw := 0
	for _, ln := range lines {
		if vw := lipgloss.Width(Sanitize(ln)); vw > maxw {
			maxw = vw
		}
	}
	pad := func(s string) string {
		if vis := lipgloss.Width(Sanitize(s)); vis < maxw {
			s += strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	fmt.Fprintln(w, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		fmt.Fprintln(w, t.V+" "+pad(ln)+" "+t.V)
	}
	fmt.Fprintln(w, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// Header is the "Todos ✔ n • n Total n" line.
func Header(todos []model.Todo) string {
	d, p := model.Stats(todos)
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		C(current.Title, "Todos"),
		C(current.Success, current.SymDone), d,
		C(current.Pending, current.SymPending), p,
		C(current.Accent, "Total"), len(todos),
	)
}

// TodoLine renders one entry as "#id ☐ title".
func TodoLine(t model.Todo) string {
	box, color := current.BoxUnchecked, current.Muted
	if t.Completed {
		box, color = current.BoxChecked, current.Success
	}
	title := Sanitize(t.Title)
	if r := []rune(title); len(r) > 80 {
		title = string(r[:77]) + "..."
	}
	return fmt.Sprintf("%s %s %s", C(dim, fmt.Sprintf("#%-4d", t.ID)), C(color, box), title)
}

// TodoLines renders a flat list.
func TodoLines(todos []model.Todo) []string {
	if len(todos) == 0 {
		return []string{C(current.Muted, "no items")}
	}
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, TodoLine(t))
	}
	return out
}

// GroupLines splits todos under Pending and Done headings.
func GroupLines(todos []model.Todo) []string {
	var pend, done []model.Todo
	for _, t := range todos {
		if t.Completed {
			done = append(done, t)
		} else {
			pend = append(pend, t)
		}
	}
	section := func(name string, items []model.Todo) []string {
		lines := []string{C(current.Accent, name)}
		if len(items) == 0 {
			return append(lines, C(current.Muted, "(none)"))
		}
		return append(lines, TodoLines(items)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}

// Detail renders the read-only view of a single todo.
func Detail(t model.Todo) []string {
	status := C(current.Pending, "Pending...")
	if t.Completed {
		status = C(current.Success, "Completed")
	}
	return []string{
		C(current.Title, "Todo Detail"),
		"",
		fmt.Sprintf("%s %d", C(current.Accent, "ID:"), t.ID),
		fmt.Sprintf("%s %s", C(current.Accent, "Title:"), Sanitize(t.Title)),
		fmt.Sprintf("%s %s", C(current.Accent, "Status:"), status),
		fmt.Sprintf("%s %d", C(current.Accent, "Owner:"), t.UserID),
	}
}
