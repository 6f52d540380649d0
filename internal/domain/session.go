package domain

import "time"

// Session is the identity every personalized call is made with.
// It is an immutable value: a login or logout produces a new Session,
// it is never mutated in place.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time // zero when the token carries no expiry
}

// Anonymous returns true when there is no token; personalized fetches are skipped
func (s Session) Anonymous() bool {
	return s.Token == ""
}

// Expired reports whether the token has a known expiry in the past
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
