package sheets

import (
	"errors"
	"fmt"
	"time"
)

// APIError is returned when the booking API answered but refused the
// request: a non-2xx status or an envelope with success=false.
type APIError struct {
	Action  string
	Status  int    // HTTP status; 200 when the envelope carried the failure
	Message string // server supplied message
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sheets: failed to %s: %s", e.Action, e.Message)
}

// Refused reports whether the API answered normally and declined the
// request in its envelope, as opposed to failing with a non-2xx status.
func (e *APIError) Refused() bool { return e.Status >= 200 && e.Status < 300 }

// NetworkError is returned when the API could not be reached or its answer
// could not be read.
type NetworkError struct {
	Action string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("sheets: failed to %s: network error: %v", e.Action, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is returned when a call did not complete within the client
// timeout. It is kept apart from NetworkError so callers can tell a slow
// backend from an unreachable one.
type TimeoutError struct {
	Action string
	After  time.Duration
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("sheets: failed to %s: timed out after %s", e.Action, e.After)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsAPIError reports whether err carries an *APIError.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// IsNetworkError reports whether err carries a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsTimeout reports whether err carries a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
