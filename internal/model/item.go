package model

import "strings"

// Todo is the domain model for a remote todo entry.
// Field names follow the remote collection's wire format.
type Todo struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	UserID    int    `json:"userId"`
}

// Draft is a todo that has not been assigned an id yet.
type Draft struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	UserID    int    `json:"userId"`
}

// Patch is a partial todo. Nil fields are left alone.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	UserID    *int    `json:"userId,omitempty"`
}

// Revision is what the remote returns for an update: the id plus whatever
// fields it echoed back.
type Revision struct {
	ID int `json:"id"`
	Patch
}

// TitlePatch builds a patch that only renames.
func TitlePatch(title string) Patch { return Patch{Title: &title} }

// CompletedPatch builds a patch that only flips the status flag.
func CompletedPatch(done bool) Patch { return Patch{Completed: &done} }

// Apply returns t with every field present in p overwritten.
func (t Todo) Apply(p Patch) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.UserID != nil {
		t.UserID = *p.UserID
	}
	return t
}

// Empty reports whether p carries no fields at all.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Completed == nil && p.UserID == nil
}

// Status is the human label used by every renderer.
func (t Todo) Status() string {
	if t.Completed {
		return "Completed"
	}
	return "Pending"
}

// Stats counts completed and pending entries.
func Stats(todos []Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// NormalizeTitle trims the title and rejects empty input.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Reason: "cannot be empty"}
	}
	return title, nil
}
