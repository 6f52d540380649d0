package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mmcdole/cinelog/internal/domain"
)

// claims are the token fields the client reads for display and expiry
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// FromToken builds the session for a bearer token.
// The signature is not checked: the server is the authority, the client
// only reads the display name and expiry. Expired tokens give an anonymous
// session so no personalized call is made with them. Tokens that are not
// JWTs are kept as opaque bearer tokens.
func FromToken(token string, now time.Time, logger *slog.Logger) domain.Session {
	if logger == nil {
		logger = slog.Default()
	}

	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return domain.Session{}
	}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		logger.Debug("token is not a JWT, using it as opaque", "error", err)
		return domain.Session{Token: token}
	}

	s := domain.Session{Token: token, Username: c.Username}
	if s.Username == "" {
		s.Username = c.Subject
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}

	if s.Expired(now) {
		logger.Warn("session token expired, continuing anonymously",
			"username", s.Username, "expiredAt", s.ExpiresAt)
		return domain.Session{}
	}

	return s
}
