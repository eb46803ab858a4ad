package service

import "net/http"

// Error is a user-facing dispatch failure with an HTTP status. The
// handler writes Message (and Details, when present) to the caller;
// anything that is not an *Error is reported as a generic 500.
type Error struct {
	Status  int
	Message string
	// Details carries aggregated validation violations.
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func notFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}
