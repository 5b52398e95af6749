package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada-remote/internal/model"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

func (m Model) View() string {
	switch {
	case m.loading:
		return panelStyle.Render(m.spinner.View() + " Loading todos...")
	case m.loadErr != nil:
		return panelStyle.Render(
			errorStyle.Render("Error: "+m.loadErr.Error()) + "\n\n" +
				helpStyle.Render("r retry • q quit"),
		)
	case m.mode == modeDetail:
		return panelStyle.Render(m.detailView())
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.filterBar())
	b.WriteString("\n\n")
	b.WriteString(m.listView())
	b.WriteString("\n")
	if m.view.TotalPages > 1 {
		b.WriteString("\n")
		b.WriteString(m.pager.View())
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  page %d/%d", m.state.Page, m.view.TotalPages)))
	}

	content := b.String()
	switch m.mode {
	case modeEdit, modeAdd:
		title := "Add new item"
		if m.mode == modeEdit {
			title = fmt.Sprintf("Edit item #%d", m.state.EditingID)
			if m.saving() {
				title += " " + m.spinner.View()
			}
		}
		if m.formErr != "" {
			title += " - " + errorStyle.Render(m.formErr)
		}
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		content += "\n" + bar.Render(title+"\n"+m.input.View())
	case modeConfirmDelete:
		content += "\n" + errorStyle.Render(fmt.Sprintf("Delete #%d? (y/n)", m.confirmID))
	}

	if line := m.statusLine(); line != "" {
		content += "\n" + line
	}
	content += "\n" + helpStyle.Render(m.help.View(m.keys))
	return panelStyle.Render(content)
}

func (m Model) header() string {
	todos := m.cache.Todos()
	dn, pn := model.Stats(todos)
	line := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), dn,
		pendingStyle.Render("•"), pn,
		accentStyle.Render("Total"), len(todos),
	)
	return line + "  " + mutedStyle.Render(ui.ProgressBar(dn, len(todos), 16))
}

func (m Model) filterBar() string {
	status := mutedStyle.Render("status: ") + accentStyle.Render(m.state.Status.String())
	if m.mode == modeSearch {
		return m.search.View() + "  " + status
	}
	search := mutedStyle.Render("/ search")
	if m.state.SearchText != "" {
		search = "/ " + ui.Sanitize(m.state.SearchText)
	}
	return search + "  " + status + mutedStyle.Render(fmt.Sprintf("  (%d matching)", m.view.Matched))
}

func (m Model) listView() string {
	if len(m.view.Items) == 0 {
		return mutedStyle.Render("  No todos found.")
	}
	lines := make([]string, 0, len(m.view.Items))
	for i, t := range m.view.Items {
		box := mutedStyle.Render(boxUnchecked)
		text := ui.Sanitize(t.Title)
		if m.mode == modeEdit && m.state.EditingID == t.ID {
			text = ui.Sanitize(m.state.EditBuffer)
		}
		if t.Completed {
			box = successStyle.Render(boxChecked)
			text = doneStyle.Render(text)
		}
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}
		id := mutedStyle.Render(fmt.Sprintf("#%-4d", t.ID))
		lines = append(lines, fmt.Sprintf("%s%s %s %s", prefix, id, box, text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) detailView() string {
	back := helpStyle.Render("esc back")
	switch {
	case m.detailErr != nil && notFound(m.detailErr):
		return errorStyle.Render("404 - Todo not found") + "\n\n" + back
	case m.detailErr != nil:
		return errorStyle.Render("Error: "+m.detailErr.Error()) + "\n\n" + back
	case m.detail == nil:
		return m.spinner.View() + " Loading..."
	}
	t := m.detail
	status := pendingStyle.Render("Pending...")
	if t.Completed {
		status = successStyle.Render("Completed")
	}
	return strings.Join([]string{
		titleStyle.Render("Todo Detail"),
		"",
		accentStyle.Render("ID:") + fmt.Sprintf(" %d", t.ID),
		accentStyle.Render("Title:") + " " + ui.Sanitize(t.Title),
		accentStyle.Render("Status:") + " " + status,
		accentStyle.Render("Owner:") + fmt.Sprintf(" %d", t.UserID),
		"",
		back,
	}, "\n")
}

func (m Model) statusLine() string {
	if m.status == "" {
		if m.inFlight > 0 {
			return m.spinner.View() + mutedStyle.Render(" saving...")
		}
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.status)
	}
	return successStyle.Render(m.status)
}
