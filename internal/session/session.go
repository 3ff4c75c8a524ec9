package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Source tells consumers why the session changed.
type Source string

const (
	SourceInit     Source = "init"
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
	SourceExpired  Source = "expired"
)

// Session is an immutable snapshot of the authentication state.
type Session struct {
	Token      string
	LoggedIn   bool
	AuthLoaded bool
	// ExpiresAt is zero for tokens without an exp claim.
	ExpiresAt time.Time
	Revision  int64
}

// ShouldRedirectHome reports whether a protected screen must send the user
// back to the public home screen.
func (s Session) ShouldRedirectHome() bool {
	return s.AuthLoaded && !s.LoggedIn
}

// ShouldRedirectToChats reports whether a public screen must forward an
// authenticated user to the chats screen.
func (s Session) ShouldRedirectToChats() bool {
	return s.AuthLoaded && s.LoggedIn
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s Session) sameAuth(other Session) bool {
	return s.Token == other.Token && s.LoggedIn == other.LoggedIn && s.AuthLoaded == other.AuthLoaded
}

// Event is published on bus.TopicSessionChanged.
type Event struct {
	Session Session
	Source  Source
	Reason  string
}

// tokenExpiry reads the exp claim without verifying the signature; the client
// never holds the signing key. Opaque tokens have no expiry.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}

	return claims.ExpiresAt.Time
}
