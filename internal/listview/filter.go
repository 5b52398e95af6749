// Package listview derives what the todo list shows from the cached
// collection and folds confirmed mutations back into that cache.
package listview

import (
	"fmt"
	"strings"

	"github.com/idilsaglam/tada-remote/internal/model"
)

// StatusFilter selects todos by their completed flag.
type StatusFilter int

const (
	StatusAll StatusFilter = iota
	StatusCompleted
	StatusPending
)

var statusNames = [...]string{"all", "completed", "pending"}

func (f StatusFilter) String() string {
	if f < StatusAll || f > StatusPending {
		return fmt.Sprintf("StatusFilter(%d)", int(f))
	}
	return statusNames[f]
}

// Next cycles all -> completed -> pending -> all.
func (f StatusFilter) Next() StatusFilter {
	return (f + 1) % StatusFilter(len(statusNames))
}

// ParseStatusFilter accepts the lowercase names; empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusAll, nil
	case "completed", "done":
		return StatusCompleted, nil
	case "pending":
		return StatusPending, nil
	}
	return StatusAll, fmt.Errorf("invalid status %q: expected all, completed or pending", s)
}

// Matches reports whether t passes the status predicate.
func (f StatusFilter) Matches(t model.Todo) bool {
	switch f {
	case StatusCompleted:
		return t.Completed
	case StatusPending:
		return !t.Completed
	default:
		return true
	}
}

// Filter keeps the todos whose title contains search (case-insensitive)
// and whose status matches. Input order is preserved.
func Filter(todos []model.Todo, search string, status StatusFilter) []model.Todo {
	needle := strings.ToLower(search)
	out := make([]model.Todo, 0, len(todos))
	for _, t := range todos {
		if !strings.Contains(strings.ToLower(t.Title), needle) {
			continue
		}
		if !status.Matches(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
