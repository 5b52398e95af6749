package tui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada-remote/internal/gateway"
	"github.com/idilsaglam/tada-remote/internal/model"
)

func TestMain(m *testing.M) {
	statusTTL = time.Millisecond
	os.Exit(m.Run())
}

type stubRemote struct {
	todos     []model.Todo
	listErr   error
	getErr    error
	updateErr error
	deleteOK  bool
	deleteErr error

	created []model.Draft
	updates map[int][]model.Patch
	deletes []int
}

func (s *stubRemote) List(context.Context) ([]model.Todo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]model.Todo(nil), s.todos...), nil
}

func (s *stubRemote) Get(_ context.Context, id int) (model.Todo, error) {
	if s.getErr != nil {
		return model.Todo{}, s.getErr
	}
	for _, t := range s.todos {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Todo{}, &gateway.FetchError{Op: "get todo", Status: http.StatusNotFound}
}

func (s *stubRemote) Create(_ context.Context, d model.Draft) (model.Todo, int, error) {
	s.created = append(s.created, d)
	return model.Todo{ID: 201, Title: d.Title, Completed: d.Completed, UserID: d.UserID}, http.StatusCreated, nil
}

func (s *stubRemote) Update(_ context.Context, id int, p model.Patch) (model.Revision, error) {
	if s.updates == nil {
		s.updates = map[int][]model.Patch{}
	}
	s.updates[id] = append(s.updates[id], p)
	if s.updateErr != nil {
		return model.Revision{}, s.updateErr
	}
	return model.Revision{ID: id, Patch: p}, nil
}

func (s *stubRemote) Delete(_ context.Context, id int) (bool, error) {
	s.deletes = append(s.deletes, id)
	return s.deleteOK, s.deleteErr
}

func sampleTodos(n int) []model.Todo {
	out := make([]model.Todo, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, model.Todo{ID: i, Title: fmt.Sprintf("todo %d", i), Completed: i%2 == 0, UserID: 1})
	}
	return out
}

// collect runs cmd and flattens batches into the messages they produce.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T among %d messages", zero, len(msgs))
	return zero
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return got, cmd
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m, _ = step(t, m, keyMsg(k))
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func loaded(t *testing.T, remote *stubRemote) Model {
	t.Helper()
	m := New(remote, Options{UserID: 7})
	msg := find[todosLoadedMsg](t, collect(m.Init()))
	m, _ = step(t, m, msg)
	return m
}

func TestInitLoadsFirstPage(t *testing.T) {
	m := New(&stubRemote{todos: sampleTodos(25)}, Options{})
	if !strings.Contains(m.View(), "Loading todos") {
		t.Fatalf("View() before load = %q, want loading screen", m.View())
	}

	m = loaded(t, &stubRemote{todos: sampleTodos(25)})
	if m.loading {
		t.Fatal("loading still set after todosLoadedMsg")
	}
	if got := len(m.view.Items); got != 10 {
		t.Fatalf("len(view.Items) = %d, want 10", got)
	}
	if m.view.TotalPages != 3 {
		t.Fatalf("TotalPages = %d, want 3", m.view.TotalPages)
	}
	out := m.View()
	for _, want := range []string{"todo 1", "todo 10", "page 1/3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("View() missing %q", want)
		}
	}
	if strings.Contains(out, "todo 11") {
		t.Fatal("View() rendered a todo from page 2")
	}
}

func TestLoadErrorRendersAndRetries(t *testing.T) {
	remote := &stubRemote{listErr: &gateway.FetchError{Op: "list todos", Status: http.StatusServiceUnavailable}}
	m := loaded(t, remote)
	if !strings.Contains(m.View(), "FAILED: 503 Service Unavailable") {
		t.Fatalf("View() = %q, want the fetch error", m.View())
	}

	remote.listErr = nil
	remote.todos = sampleTodos(3)
	next, cmd := m.Update(keyMsg("r"))
	m = next.(Model)
	if !m.loading {
		t.Fatal("reload did not enter the loading state")
	}
	m, _ = step(t, m, find[todosLoadedMsg](t, collect(cmd)))
	if m.loadErr != nil || len(m.view.Items) != 3 {
		t.Fatalf("after retry loadErr = %v, items = %d", m.loadErr, len(m.view.Items))
	}
}

func TestPagingAndSearchClampPage(t *testing.T) {
	m := loaded(t, &stubRemote{todos: sampleTodos(25)})

	m = press(t, m, "l", "l")
	if m.state.Page != 3 {
		t.Fatalf("Page = %d, want 3", m.state.Page)
	}
	m = press(t, m, "l")
	if m.state.Page != 3 {
		t.Fatalf("Page after paging past the end = %d, want 3", m.state.Page)
	}
	if got := len(m.view.Items); got != 5 {
		t.Fatalf("len(view.Items) on last page = %d, want 5", got)
	}

	m = press(t, m, "/")
	if m.mode != modeSearch {
		t.Fatalf("mode = %v, want search", m.mode)
	}
	m = typeText(t, m, "TODO 2")
	// "todo 2" and "todo 20".."todo 25" fit on one page.
	if m.state.Page != 1 {
		t.Fatalf("Page after narrowing search = %d, want 1", m.state.Page)
	}
	if m.view.Matched != 7 {
		t.Fatalf("Matched = %d, want 7", m.view.Matched)
	}

	m = press(t, m, "esc")
	if m.state.SearchText != "" || m.view.Matched != 25 {
		t.Fatalf("esc left search %q with %d matches", m.state.SearchText, m.view.Matched)
	}
}

func TestStatusFilterCycles(t *testing.T) {
	m := loaded(t, &stubRemote{todos: sampleTodos(6)})

	m = press(t, m, "f")
	for _, it := range m.view.Items {
		if !it.Completed {
			t.Fatalf("completed filter kept %+v", it)
		}
	}
	m = press(t, m, "f")
	for _, it := range m.view.Items {
		if it.Completed {
			t.Fatalf("pending filter kept %+v", it)
		}
	}
	m = press(t, m, "f")
	if m.view.Matched != 6 {
		t.Fatalf("Matched after cycling back = %d, want 6", m.view.Matched)
	}
}

func TestToggleReconcilesOnlyAfterResponse(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(3)}
	m := loaded(t, remote)

	next, cmd := m.Update(keyMsg("space"))
	m = next.(Model)
	if todo, _ := m.cache.Find(1); todo.Completed {
		t.Fatal("cache changed before the remote answered")
	}

	m, _ = step(t, m, find[todoUpdatedMsg](t, collect(cmd)))
	if todo, _ := m.cache.Find(1); !todo.Completed {
		t.Fatal("todo 1 not completed after the update response")
	}
	patches := remote.updates[1]
	if len(patches) != 1 || patches[0].Completed == nil || !*patches[0].Completed || patches[0].Title != nil {
		t.Fatalf("update patches = %+v, want a single completed=true patch", patches)
	}
}

func TestUpdateFailureLeavesCacheUntouched(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(3), updateErr: &gateway.FetchError{Op: "update todo", Status: http.StatusInternalServerError}}
	m := loaded(t, remote)

	_, cmd := m.Update(keyMsg("space"))
	msg := find[todoUpdatedMsg](t, collect(cmd))
	m, _ = step(t, m, msg)
	if todo, _ := m.cache.Find(1); todo.Completed {
		t.Fatal("failed update was applied")
	}
	if !m.statusErr || !strings.Contains(m.View(), "Update failed") {
		t.Fatalf("status = %q (err=%v), want update failure", m.status, m.statusErr)
	}
}

func TestStaleUpdateIsDropped(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(3)}
	m := loaded(t, remote)

	first := m.cache.Issue(1)
	second := m.cache.Issue(1)
	m.inFlight = 2

	m, _ = step(t, m, todoUpdatedMsg{ticket: second, rev: model.Revision{Patch: model.TitlePatch("newest")}})
	m, _ = step(t, m, todoUpdatedMsg{ticket: first, rev: model.Revision{Patch: model.TitlePatch("older")}})

	todo, _ := m.cache.Find(1)
	if todo.Title != "newest" {
		t.Fatalf("Title = %q, want the later-issued update to win", todo.Title)
	}
}

func TestInlineEditStaysOpenUntilSaved(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(3), updateErr: errors.New("connection refused")}
	m := loaded(t, remote)

	m = press(t, m, "e")
	if m.mode != modeEdit || m.state.EditingID != 1 || m.input.Value() != "todo 1" {
		t.Fatalf("edit state = %+v, input %q", m.state, m.input.Value())
	}
	m = press(t, m, "ctrl+u")
	m = typeText(t, m, "buy milk")
	if m.state.EditBuffer != "buy milk" {
		t.Fatalf("EditBuffer = %q, want %q", m.state.EditBuffer, "buy milk")
	}

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	if !m.saving() {
		t.Fatal("saving not set while the update is in flight")
	}
	m, _ = step(t, m, find[todoUpdatedMsg](t, collect(cmd)))
	if m.mode != modeEdit || !m.state.Editing {
		t.Fatal("edit closed after a failed save")
	}
	if m.input.Value() != "buy milk" || !strings.Contains(m.formErr, "Save failed") {
		t.Fatalf("input %q, formErr %q", m.input.Value(), m.formErr)
	}

	remote.updateErr = nil
	next, cmd = m.Update(keyMsg("enter"))
	m = next.(Model)
	m, _ = step(t, m, find[todoUpdatedMsg](t, collect(cmd)))
	if m.mode != modeBrowse || m.state.Editing {
		t.Fatalf("edit still open after a successful save: mode %v", m.mode)
	}
	if todo, _ := m.cache.Find(1); todo.Title != "buy milk" {
		t.Fatalf("Title = %q, want %q", todo.Title, "buy milk")
	}
	if got := remote.updates[1][1]; got.Title == nil || *got.Title != "buy milk" || got.Completed != nil {
		t.Fatalf("edit patch = %+v, want title only", got)
	}
}

func TestInputFrozenWhileSaving(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(2)}
	m := loaded(t, remote)

	m = press(t, m, "e")
	m = typeText(t, m, "A")
	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	m = typeText(t, m, "B")
	if m.input.Value() != "todo 1A" || m.state.EditBuffer != "todo 1A" {
		t.Fatalf("input %q buffer %q, want keys ignored while saving", m.input.Value(), m.state.EditBuffer)
	}
	m = press(t, m, "enter")
	if len(remote.updates[1]) != 1 {
		t.Fatalf("updates = %+v, want a single save", remote.updates[1])
	}

	m, _ = step(t, m, find[todoUpdatedMsg](t, collect(cmd)))
	if m.state.Editing {
		t.Fatal("edit still open after its save succeeded")
	}
	if todo, _ := m.cache.Find(1); todo.Title != "todo 1A" {
		t.Fatalf("Title = %q, want %q", todo.Title, "todo 1A")
	}
}

func TestLateSaveDoesNotCloseReopenedEdit(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(2)}
	m := loaded(t, remote)

	m = press(t, m, "e")
	m = typeText(t, m, "X")
	next, held := m.Update(keyMsg("enter"))
	m = next.(Model)

	m = press(t, m, "esc", "e")
	m = typeText(t, m, "NEW")
	if m.state.EditBuffer != "todo 1NEW" {
		t.Fatalf("EditBuffer = %q", m.state.EditBuffer)
	}

	m, _ = step(t, m, find[todoUpdatedMsg](t, collect(held)))
	if m.mode != modeEdit || !m.state.Editing {
		t.Fatalf("late save closed the reopened edit: mode %v state %+v", m.mode, m.state)
	}
	if m.input.Value() != "todo 1NEW" || m.state.EditBuffer != "todo 1NEW" {
		t.Fatalf("input %q buffer %q, want the reopened text kept", m.input.Value(), m.state.EditBuffer)
	}
	// The earlier save still lands in the cache.
	if todo, _ := m.cache.Find(1); todo.Title != "todo 1X" {
		t.Fatalf("Title = %q, want %q", todo.Title, "todo 1X")
	}

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	m, _ = step(t, m, find[todoUpdatedMsg](t, collect(cmd)))
	if m.state.Editing {
		t.Fatal("edit still open after its own save succeeded")
	}
	if todo, _ := m.cache.Find(1); todo.Title != "todo 1NEW" {
		t.Fatalf("Title = %q, want %q", todo.Title, "todo 1NEW")
	}
}

func TestInlineEditRejectsBlankTitle(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(2)}
	m := loaded(t, remote)

	m = press(t, m, "e", "ctrl+u")
	m = typeText(t, m, "   ")
	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	if cmd != nil {
		t.Fatal("blank title issued a command")
	}
	if m.formErr != "Title cannot be empty" {
		t.Fatalf("formErr = %q", m.formErr)
	}
	if len(remote.updates) != 0 {
		t.Fatalf("updates = %+v, want none", remote.updates)
	}

	m = press(t, m, "esc")
	if m.mode != modeBrowse || m.state.Editing {
		t.Fatal("esc did not cancel the edit")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(3)}
	m := loaded(t, remote)

	m = press(t, m, "d")
	if m.mode != modeConfirmDelete || !strings.Contains(m.View(), "Delete #1? (y/n)") {
		t.Fatalf("mode = %v, want delete confirmation", m.mode)
	}
	m = press(t, m, "n")
	if m.mode != modeBrowse || len(remote.deletes) != 0 {
		t.Fatalf("declined delete still sent %v", remote.deletes)
	}

	m = press(t, m, "d")
	next, cmd := m.Update(keyMsg("y"))
	m = next.(Model)
	m, _ = step(t, m, find[todoDeletedMsg](t, collect(cmd)))
	if _, ok := m.cache.Find(1); !ok {
		t.Fatal("todo removed although the remote refused the delete")
	}
	if !m.statusErr {
		t.Fatalf("status = %q, want an error", m.status)
	}

	remote.deleteOK = true
	m = press(t, m, "d")
	next, cmd = m.Update(keyMsg("y"))
	m = next.(Model)
	m, _ = step(t, m, find[todoDeletedMsg](t, collect(cmd)))
	if _, ok := m.cache.Find(1); ok {
		t.Fatal("todo 1 still cached after a confirmed delete")
	}
	if m.cache.Len() != 2 || m.view.Items[0].ID != 2 {
		t.Fatalf("remaining = %+v", m.cache.Todos())
	}
}

func TestDeleteLastItemOnPageClampsPage(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(11), deleteOK: true}
	m := loaded(t, remote)

	m = press(t, m, "l")
	if m.state.Page != 2 || len(m.view.Items) != 1 {
		t.Fatalf("page %d with %d items", m.state.Page, len(m.view.Items))
	}
	m = press(t, m, "d")
	_, cmd := m.Update(keyMsg("y"))
	m, _ = step(t, m, find[todoDeletedMsg](t, collect(cmd)))
	if m.state.Page != 1 {
		t.Fatalf("Page = %d, want 1 after the page emptied", m.state.Page)
	}
}

func TestAddCreatesWithoutReconciling(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(2)}
	m := loaded(t, remote)

	m = press(t, m, "a")
	m = typeText(t, m, "water plants")
	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	if m.mode != modeBrowse {
		t.Fatalf("mode = %v after submitting the add form", m.mode)
	}
	m, _ = step(t, m, find[todoCreatedMsg](t, collect(cmd)))

	if len(remote.created) != 1 || remote.created[0].Title != "water plants" || remote.created[0].UserID != 7 {
		t.Fatalf("created = %+v", remote.created)
	}
	if m.cache.Len() != 2 {
		t.Fatalf("cache has %d todos, want the created one left out", m.cache.Len())
	}
	if !strings.Contains(m.status, "Created #201") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestDetailShowsRecordAndNotFound(t *testing.T) {
	remote := &stubRemote{todos: sampleTodos(2)}
	m := loaded(t, remote)

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	if m.mode != modeDetail {
		t.Fatalf("mode = %v, want detail", m.mode)
	}
	m, _ = step(t, m, find[detailLoadedMsg](t, collect(cmd)))
	out := m.View()
	for _, want := range []string{"Todo Detail", "todo 1", "Pending..."} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail View() missing %q", want)
		}
	}
	m = press(t, m, "esc")
	if m.mode != modeBrowse {
		t.Fatal("esc did not leave the detail view")
	}

	remote.todos = nil
	next, cmd = m.Update(keyMsg("enter"))
	m = next.(Model)
	m, _ = step(t, m, find[detailLoadedMsg](t, collect(cmd)))
	if !strings.Contains(m.View(), "404 - Todo not found") {
		t.Fatalf("View() = %q, want not-found message", m.View())
	}
}

func TestYankCopiesSelectedTitle(t *testing.T) {
	m := loaded(t, &stubRemote{todos: sampleTodos(3)})
	var copied string
	m.copyToClip = func(s string) error { copied = s; return nil }

	m = press(t, m, "j", "y")
	if copied != "todo 2" {
		t.Fatalf("copied %q, want %q", copied, "todo 2")
	}
	if m.status != "Copied #2" {
		t.Fatalf("status = %q", m.status)
	}
}

func TestStatusClearsOnlyForLatestMessage(t *testing.T) {
	m := loaded(t, &stubRemote{todos: sampleTodos(1)})
	m.copyToClip = func(string) error { return nil }

	m = press(t, m, "y")
	stale := m.statusSeq
	m = press(t, m, "y")
	m, _ = step(t, m, clearStatusMsg{seq: stale})
	if m.status == "" {
		t.Fatal("stale clear wiped a newer status")
	}
	m, _ = step(t, m, clearStatusMsg{seq: m.statusSeq})
	if m.status != "" {
		t.Fatalf("status = %q, want cleared", m.status)
	}
}

func TestTitlesAreSanitized(t *testing.T) {
	m := loaded(t, &stubRemote{todos: []model.Todo{{ID: 1, Title: "\x1b[2Jwipe", UserID: 1}}})
	if out := m.View(); strings.Contains(out, "\x1b[2J") {
		t.Fatal("escape sequence from a title reached the view")
	}
}
