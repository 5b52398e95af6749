package listview

import "github.com/idilsaglam/tada-remote/internal/model"

// PageSize is the number of todos per page.
const PageSize = 10

// TotalPages is ceil(n / PageSize); zero when there is nothing to show.
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// Transform filters todos and returns the requested 1-indexed page along with
// the total page count. page is not clamped: callers keep it inside
// [1, totalPages], anything else yields an empty page.
func Transform(todos []model.Todo, search string, status StatusFilter, page int) ([]model.Todo, int) {
	filtered := Filter(todos, search, status)
	return paginate(filtered, page), TotalPages(len(filtered))
}

func paginate(filtered []model.Todo, page int) []model.Todo {
	start := (page - 1) * PageSize
	end := page * PageSize
	if start < 0 {
		start = 0
	}
	if end > len(filtered) {
		end = len(filtered)
	}
	if start >= end {
		return []model.Todo{}
	}
	return filtered[start:end]
}

// View is the render-ready result of applying a State to a collection.
type View struct {
	Items      []model.Todo
	TotalPages int
	Matched    int
}

// Render applies s to todos.
func (s State) Render(todos []model.Todo) View {
	filtered := Filter(todos, s.SearchText, s.Status)
	return View{
		Items:      paginate(filtered, s.Page),
		TotalPages: TotalPages(len(filtered)),
		Matched:    len(filtered),
	}
}
