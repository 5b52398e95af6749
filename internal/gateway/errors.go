package gateway

import (
	"fmt"
	"net/http"
)

// FetchError is returned when the remote answers with a non-success status or
// cannot be reached at all. Status is zero for transport failures.
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: FAILED: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFound reports whether the remote said the record does not exist.
func (e *FetchError) NotFound() bool { return e.Status == http.StatusNotFound }
