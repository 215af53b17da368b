package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("booking: invalid transition")
	ErrNoEventSelected   = errors.New("booking: please select a workshop event to continue")
	ErrWizardClosed      = errors.New("booking: booking already handed off to payment")
	ErrBusy              = errors.New("booking: another request is in progress")
	ErrSessionNotFound   = errors.New("booking: session not found")
)

// ValidationError flags one form field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string { return e.Field + ": " + e.Reason }

// ValidationErrors is every invalid field of a step submission.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "booking: invalid fields: " + strings.Join(parts, "; ")
}

// Fields lists the names of the invalid fields.
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Field
	}
	return out
}

// StaleDataError means a live check contradicted what the page showed,
// typically an event that sold out after it was listed.
type StaleDataError struct {
	EventID string
	Message string
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("booking: event %s: %s", e.EventID, e.Message)
}
