package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada-remote/internal/gateway"
	"github.com/idilsaglam/tada-remote/internal/listview"
	"github.com/idilsaglam/tada-remote/internal/model"
)

// todosLoadedMsg carries the result of list().
type todosLoadedMsg struct {
	todos []model.Todo
	err   error
}

// todoUpdatedMsg carries the result of one update. fromEdit marks inline
// title edits so the edit can be closed on success.
type todoUpdatedMsg struct {
	ticket   listview.Ticket
	rev      model.Revision
	fromEdit bool
	err      error
}

// todoDeletedMsg carries the result of one delete.
type todoDeletedMsg struct {
	ticket listview.Ticket
	ok     bool
	err    error
}

// todoCreatedMsg carries the created record; it is not folded into the list.
type todoCreatedMsg struct {
	todo model.Todo
	err  error
}

// detailLoadedMsg carries a single record for the detail view.
type detailLoadedMsg struct {
	id   int
	todo model.Todo
	err  error
}

// clearStatusMsg clears the status line if nothing newer replaced it.
type clearStatusMsg struct {
	seq int
}

// Gateway calls run off the update loop. None of them carry a deadline.

func fetchTodos(remote gateway.Remote) tea.Cmd {
	return func() tea.Msg {
		todos, err := remote.List(context.Background())
		return todosLoadedMsg{todos: todos, err: err}
	}
}

func fetchDetail(remote gateway.Remote, id int) tea.Cmd {
	return func() tea.Msg {
		todo, err := remote.Get(context.Background(), id)
		return detailLoadedMsg{id: id, todo: todo, err: err}
	}
}

func updateTodo(remote gateway.Remote, ticket listview.Ticket, patch model.Patch, fromEdit bool) tea.Cmd {
	return func() tea.Msg {
		rev, err := remote.Update(context.Background(), ticket.ID, patch)
		return todoUpdatedMsg{ticket: ticket, rev: rev, fromEdit: fromEdit, err: err}
	}
}

func deleteTodo(remote gateway.Remote, ticket listview.Ticket) tea.Cmd {
	return func() tea.Msg {
		ok, err := remote.Delete(context.Background(), ticket.ID)
		return todoDeletedMsg{ticket: ticket, ok: ok, err: err}
	}
}

func createTodo(remote gateway.Remote, draft model.Draft) tea.Cmd {
	return func() tea.Msg {
		todo, _, err := remote.Create(context.Background(), draft)
		return todoCreatedMsg{todo: todo, err: err}
	}
}

func clearStatusAfter(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}
