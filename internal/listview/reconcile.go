package listview

import "github.com/idilsaglam/tada-remote/internal/model"

// ApplyUpdate merges rev into the todo sharing its id. Order is kept and the
// input slice is not modified.
func ApplyUpdate(todos []model.Todo, rev model.Revision) []model.Todo {
	out := make([]model.Todo, len(todos))
	for i, t := range todos {
		if t.ID == rev.ID {
			t = t.Apply(rev.Patch)
		}
		out[i] = t
	}
	return out
}

// ApplyDelete drops the todo with id. Order is kept and the input slice is
// not modified.
func ApplyDelete(todos []model.Todo, id int) []model.Todo {
	out := make([]model.Todo, 0, len(todos))
	for _, t := range todos {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Ticket identifies one issued mutation.
type Ticket struct {
	ID  int
	Seq uint64
}

// Cache holds the fetched collection and reconciles confirmed mutations into
// it. Responses for the same id are applied in issuance order: a response
// older than one already applied is dropped.
//
// Not safe for concurrent use; the TUI only touches it from its update loop.
type Cache struct {
	todos   []model.Todo
	seq     uint64
	applied map[int]uint64
}

func NewCache() *Cache {
	return &Cache{applied: map[int]uint64{}}
}

// Load replaces the collection with a fresh list() result.
func (c *Cache) Load(todos []model.Todo) {
	c.todos = append([]model.Todo(nil), todos...)
}

// Todos returns a copy of the cached collection.
func (c *Cache) Todos() []model.Todo {
	return append([]model.Todo(nil), c.todos...)
}

func (c *Cache) Len() int { return len(c.todos) }

// Find looks a todo up by id.
func (c *Cache) Find(id int) (model.Todo, bool) {
	for _, t := range c.todos {
		if t.ID == id {
			return t, true
		}
	}
	return model.Todo{}, false
}

// Issue reserves a sequence number for a mutation on id. Call it before the
// request is sent.
func (c *Cache) Issue(id int) Ticket {
	c.seq++
	return Ticket{ID: id, Seq: c.seq}
}

// Update applies a confirmed update. It reports false when the response was
// superseded by a later-issued one.
func (c *Cache) Update(t Ticket, rev model.Revision) bool {
	if !c.accept(t) {
		return false
	}
	// Reconcile against the id we addressed, not whatever was echoed.
	rev.ID = t.ID
	c.todos = ApplyUpdate(c.todos, rev)
	return true
}

// Delete removes the record when the remote confirmed success.
func (c *Cache) Delete(t Ticket, ok bool) bool {
	if !ok || !c.accept(t) {
		return false
	}
	c.todos = ApplyDelete(c.todos, t.ID)
	return true
}

func (c *Cache) accept(t Ticket) bool {
	if t.Seq <= c.applied[t.ID] {
		return false
	}
	c.applied[t.ID] = t.Seq
	return true
}
