// Package tui implements the interactive todo list.
package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada-remote/internal/gateway"
	"github.com/idilsaglam/tada-remote/internal/listview"
	"github.com/idilsaglam/tada-remote/internal/logging"
	"github.com/idilsaglam/tada-remote/internal/model"
)

// mode is what currently owns the keyboard.
type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeEdit
	modeAdd
	modeConfirmDelete
	modeDetail
)

var statusTTL = 4 * time.Second

// Options configure New.
type Options struct {
	Logger *logging.Logger
	// UserID is the owner reference stamped on todos created from the add form.
	UserID int
}

// Model is the root Bubble Tea model.
type Model struct {
	remote gateway.Remote
	logger *logging.Logger
	userID int

	cache  *listview.Cache
	state  listview.State
	view   listview.View
	cursor int

	mode    mode
	search  textinput.Model
	input   textinput.Model // shared by inline edit and add
	formErr string

	spinner spinner.Model
	pager   paginator.Model
	help    help.Model
	keys    keyMap

	loading bool
	loadErr error

	status     string
	statusErr  bool
	statusSeq  int
	inFlight   int
	confirmID  int
	detailID   int
	detail     *model.Todo
	detailErr  error
	copyToClip func(string) error
	width      int
	height     int
}

// New creates a Model that loads the collection from remote on Init.
func New(remote gateway.Remote, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search todos..."
	search.CharLimit = 200

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 200

	pager := paginator.New()
	pager.Type = paginator.Dots
	pager.PerPage = listview.PageSize
	pager.ActiveDot = accentStyle.Render("•")
	pager.InactiveDot = mutedStyle.Render("•")

	userID := opts.UserID
	if userID <= 0 {
		userID = 1
	}

	return Model{
		remote:     remote,
		logger:     opts.Logger,
		userID:     userID,
		cache:      listview.NewCache(),
		state:      listview.NewState(),
		search:     search,
		input:      input,
		spinner:    sp,
		pager:      pager,
		help:       help.New(),
		keys:       defaultKeyMap(),
		loading:    true,
		copyToClip: clipboard.WriteAll,
	}
}

// Init starts the spinner and fires list().
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchTodos(m.remote))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.search.Width = max(msg.Width-10, 10)
		m.input.Width = max(msg.Width-10, 10)
		return m, nil

	case spinner.TickMsg:
		if !m.loading && m.inFlight == 0 && !m.detailLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case todosLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			m.logger.Error("list todos failed", "err", msg.err)
			return m, nil
		}
		m.loadErr = nil
		m.cache.Load(msg.todos)
		m.logger.Info("todos loaded", "count", len(msg.todos))
		m.refresh()
		return m, nil

	case todoUpdatedMsg:
		return m.onUpdated(msg)

	case todoDeletedMsg:
		return m.onDeleted(msg)

	case todoCreatedMsg:
		m.inFlight--
		if msg.err != nil {
			m.logger.Error("create todo failed", "err", msg.err)
			cmd := m.setStatus("Create failed: "+msg.err.Error(), true)
			return m, cmd
		}
		m.logger.Info("todo created", "id", msg.todo.ID)
		cmd := m.setStatus(fmt.Sprintf("Created #%d %q", msg.todo.ID, msg.todo.Title), false)
		return m, cmd

	case detailLoadedMsg:
		if m.mode != modeDetail || msg.id != m.detailID {
			return m, nil
		}
		if msg.err != nil {
			m.detailErr = msg.err
			return m, nil
		}
		todo := msg.todo
		m.detail = &todo
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status, m.statusErr = "", false
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	switch m.mode {
	case modeSearch:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	case modeEdit, modeAdd:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// ---------------------------------------------------
// key handling per mode
// ---------------------------------------------------

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	if m.loadErr != nil {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			return m.reload()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.state.Page > 1 {
			m.state = m.state.WithPage(m.state.Page - 1)
			m.cursor = 0
			m.refresh()
		}
	case key.Matches(msg, m.keys.NextPage):
		if m.state.Page < m.view.TotalPages {
			m.state = m.state.WithPage(m.state.Page + 1)
			m.cursor = 0
			m.refresh()
		}

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Filter):
		m.state = m.state.WithStatusFilter(m.state.Status.Next())
		m.refresh()

	case key.Matches(msg, m.keys.Toggle):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		ticket := m.cache.Issue(t.ID)
		m.inFlight++
		m.logger.Debug("toggle requested", "id", t.ID, "completed", !t.Completed)
		return m, tea.Batch(m.spinner.Tick, updateTodo(m.remote, ticket, model.CompletedPatch(!t.Completed), false))

	case key.Matches(msg, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.state = m.state.BeginEdit(t.ID, t.Title)
		m.mode = modeEdit
		m.formErr = ""
		m.input.Placeholder = "Edit item title..."
		m.input.SetValue(t.Title)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.formErr = ""
		m.input.Placeholder = "New item title..."
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmID = t.ID
		m.mode = modeConfirmDelete

	case key.Matches(msg, m.keys.Open):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeDetail
		m.detailID = t.ID
		m.detail = nil
		m.detailErr = nil
		return m, tea.Batch(m.spinner.Tick, fetchDetail(m.remote, t.ID))

	case key.Matches(msg, m.keys.Yank):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.copyToClip(t.Title); err != nil {
			cmd := m.setStatus("Copy failed: "+err.Error(), true)
			return m, cmd
		}
		cmd := m.setStatus(fmt.Sprintf("Copied #%d", t.ID), false)
		return m, cmd

	case key.Matches(msg, m.keys.Reload):
		return m.reload()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case msg.String() == "esc":
		if m.state.SearchText != "" {
			m.search.SetValue("")
			m.state = m.state.WithSearchText("")
			m.refresh()
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeBrowse
		m.search.Blur()
		m.search.SetValue("")
		m.state = m.state.WithSearchText("")
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.state.SearchText {
		m.state = m.state.WithSearchText(v)
		m.cursor = 0
		m.refresh()
	}
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.state = m.state.CancelEdit()
		m.closeInput()
		return m, nil
	}
	// The input is frozen while its save is in flight.
	if m.saving() {
		return m, nil
	}
	if msg.String() == "enter" {
		title, err := model.NormalizeTitle(m.input.Value())
		if err != nil {
			m.formErr = "Title cannot be empty"
			return m, nil
		}
		m.state = m.state.WithEditBuffer(title)
		req, ok := m.state.CommitEdit()
		if !ok {
			m.mode = modeBrowse
			return m, nil
		}
		m.formErr = ""
		m.inFlight++
		ticket := m.cache.Issue(req.ID)
		m.state = m.state.Committing(ticket)
		m.logger.Debug("edit committed", "id", req.ID, "seq", ticket.Seq)
		return m, tea.Batch(m.spinner.Tick, updateTodo(m.remote, ticket, model.TitlePatch(req.Title), true))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.state = m.state.WithEditBuffer(m.input.Value())
	return m, cmd
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title, err := model.NormalizeTitle(m.input.Value())
		if err != nil {
			m.formErr = "Title cannot be empty"
			return m, nil
		}
		m.closeInput()
		m.inFlight++
		draft := model.Draft{Title: title, UserID: m.userID}
		pending := m.setStatus("Creating...", false)
		return m, tea.Batch(m.spinner.Tick, createTodo(m.remote, draft), pending)
	case "esc":
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		id := m.confirmID
		m.mode = modeBrowse
		m.confirmID = 0
		ticket := m.cache.Issue(id)
		m.inFlight++
		m.logger.Debug("delete requested", "id", id)
		return m, tea.Batch(m.spinner.Tick, deleteTodo(m.remote, ticket))
	case "n", "N", "esc", "q":
		m.mode = modeBrowse
		m.confirmID = 0
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace", "enter":
		m.mode = modeBrowse
		m.detail = nil
		m.detailErr = nil
		m.detailID = 0
	}
	return m, nil
}

// ---------------------------------------------------
// reconciliation
// ---------------------------------------------------

func (m Model) onUpdated(msg todoUpdatedMsg) (tea.Model, tea.Cmd) {
	m.inFlight--
	owned := msg.fromEdit && m.mode == modeEdit && m.state.Owns(msg.ticket)
	if msg.err != nil {
		m.logger.Error("update todo failed", "id", msg.ticket.ID, "err", msg.err)
		if owned {
			m.state = m.state.CommitFailed(msg.ticket)
			m.formErr = "Save failed: " + msg.err.Error()
			return m, nil
		}
		cmd := m.setStatus("Update failed: "+msg.err.Error(), true)
		return m, cmd
	}

	if !m.cache.Update(msg.ticket, msg.rev) {
		m.logger.Debug("stale update dropped", "id", msg.ticket.ID, "seq", msg.ticket.Seq)
	} else {
		m.logger.Info("todo updated", "id", msg.ticket.ID)
	}
	if owned {
		m.state = m.state.EditCommitted(msg.ticket)
		m.closeInput()
	}
	m.refresh()
	return m, nil
}

func (m Model) onDeleted(msg todoDeletedMsg) (tea.Model, tea.Cmd) {
	m.inFlight--
	switch {
	case msg.err != nil:
		m.logger.Error("delete todo failed", "id", msg.ticket.ID, "err", msg.err)
		cmd := m.setStatus("Delete failed: "+msg.err.Error(), true)
		return m, cmd
	case !msg.ok:
		m.logger.Warn("remote refused delete", "id", msg.ticket.ID)
		cmd := m.setStatus(fmt.Sprintf("Delete failed: remote refused #%d", msg.ticket.ID), true)
		return m, cmd
	}
	m.cache.Delete(msg.ticket, true)
	m.logger.Info("todo deleted", "id", msg.ticket.ID)
	m.refresh()
	cmd := m.setStatus(fmt.Sprintf("Deleted #%d", msg.ticket.ID), false)
	return m, cmd
}

// ---------------------------------------------------
// helpers
// ---------------------------------------------------

// refresh re-derives the visible page and pulls page and cursor back into
// range after the filters or the collection changed.
func (m *Model) refresh() {
	m.view = m.state.Render(m.cache.Todos())
	if clamped := m.state.Clamp(m.view.TotalPages); clamped.Page != m.state.Page {
		m.state = clamped
		m.view = m.state.Render(m.cache.Todos())
	}
	if m.cursor >= len(m.view.Items) {
		m.cursor = len(m.view.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.pager.TotalPages = max(m.view.TotalPages, 1)
	m.pager.Page = m.state.Page - 1
}

func (m Model) selected() (model.Todo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Items) {
		return model.Todo{}, false
	}
	return m.view.Items[m.cursor], true
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.loading = true
	m.loadErr = nil
	return m, tea.Batch(m.spinner.Tick, fetchTodos(m.remote))
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.formErr = ""
	m.input.SetValue("")
	m.input.Blur()
}

func (m *Model) setStatus(s string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status, m.statusErr = s, isErr
	return clearStatusAfter(m.statusSeq, statusTTL)
}

// saving reports whether the open edit is waiting on its update.
func (m Model) saving() bool {
	return m.mode == modeEdit && m.state.CommitSeq != 0
}

func (m Model) detailLoading() bool {
	return m.mode == modeDetail && m.detail == nil && m.detailErr == nil
}

func notFound(err error) bool {
	var ferr *gateway.FetchError
	return errors.As(err, &ferr) && ferr.NotFound()
}
