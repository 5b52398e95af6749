package model

import "fmt"

// ValidationError reports bad user input before anything is sent remotely.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
