package listview

// State is the ephemeral list view state. Transitions return a new value.
type State struct {
	Page       int
	SearchText string
	Status     StatusFilter

	Editing    bool
	EditingID  int
	EditBuffer string
	// CommitSeq is the ticket sequence of the save in flight for this edit;
	// zero when none is.
	CommitSeq uint64
}

// EditRequest is the update a committed inline edit asks the gateway for.
type EditRequest struct {
	ID    int
	Title string
}

// NewState is the state of a freshly mounted list.
func NewState() State {
	return State{Page: 1, Status: StatusAll}
}

// WithSearchText keeps the current page; see Clamp.
func (s State) WithSearchText(text string) State {
	s.SearchText = text
	return s
}

// WithStatusFilter keeps the current page; see Clamp.
func (s State) WithStatusFilter(f StatusFilter) State {
	s.Status = f
	return s
}

// WithPage does not validate p.
func (s State) WithPage(p int) State {
	s.Page = p
	return s
}

// Clamp pulls Page back inside [1, max(totalPages, 1)].
func (s State) Clamp(totalPages int) State {
	if totalPages < 1 {
		totalPages = 1
	}
	if s.Page > totalPages {
		s.Page = totalPages
	}
	if s.Page < 1 {
		s.Page = 1
	}
	return s
}

// BeginEdit stages title for id. An edit already in progress is dropped.
func (s State) BeginEdit(id int, title string) State {
	s.Editing = true
	s.EditingID = id
	s.EditBuffer = title
	s.CommitSeq = 0
	return s
}

func (s State) WithEditBuffer(text string) State {
	if s.Editing {
		s.EditBuffer = text
	}
	return s
}

// CommitEdit returns the update to issue. The edit stays open until
// EditCommitted confirms it.
func (s State) CommitEdit() (EditRequest, bool) {
	if !s.Editing {
		return EditRequest{}, false
	}
	return EditRequest{ID: s.EditingID, Title: s.EditBuffer}, true
}

// Committing records the ticket issued for the current edit's save.
func (s State) Committing(t Ticket) State {
	if s.Editing && s.EditingID == t.ID {
		s.CommitSeq = t.Seq
	}
	return s
}

// Owns reports whether t is the save in flight for the open edit.
func (s State) Owns(t Ticket) bool {
	return s.Editing && s.EditingID == t.ID && s.CommitSeq != 0 && s.CommitSeq == t.Seq
}

// EditCommitted closes the edit if t is the save it is waiting on. A save
// issued by an edit that was since cancelled or reopened leaves it alone.
func (s State) EditCommitted(t Ticket) State {
	if s.Owns(t) {
		return s.CancelEdit()
	}
	return s
}

// CommitFailed reopens the edit for another attempt after t failed.
func (s State) CommitFailed(t Ticket) State {
	if s.Owns(t) {
		s.CommitSeq = 0
	}
	return s
}

func (s State) CancelEdit() State {
	s.Editing = false
	s.EditingID = 0
	s.EditBuffer = ""
	s.CommitSeq = 0
	return s
}
