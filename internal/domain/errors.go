package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrServerOffline indicates the backend is unreachable
	ErrServerOffline = errors.New("server is unreachable")

	// ErrAuthFailed indicates the session token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrConflict indicates the server already holds the resource (e.g., duplicate watchlist add)
	ErrConflict = errors.New("resource already exists")

	// ErrAnonymous indicates an action needs a session token and none is present
	ErrAnonymous = errors.New("sign in required")

	// ErrBusy indicates an action was dropped because another one is in flight
	ErrBusy = errors.New("action already in progress")
)

// ValidationError is a field-local input error caught before any request is sent
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every failing field of a payload
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// For returns the message for a field, or "" if the field is valid
func (v ValidationErrors) For(field string) string {
	for _, e := range v {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// UserMessage maps an error to the short inline text shown next to a control
func UserMessage(err error) string {
	var verrs ValidationErrors
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verrs):
		return verrs.Error()
	case errors.Is(err, ErrAnonymous):
		return "Sign in to do that"
	case errors.Is(err, ErrAuthFailed):
		return "Session expired, sign in again"
	case errors.Is(err, ErrServerOffline):
		return "Can't reach the server"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return "Something went wrong, try again"
	}
}
