package session

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is one browser's server-side state. It is the sole owner of the
// token credential; the credential is overwritten wholesale on refresh.
type Session struct {
	ID        string
	Token     *oauth2.Token // nil until the callback stores a credential
	ExpiresAt time.Time
}

// Authenticated reports whether the session holds a token credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != nil && s.Token.AccessToken != ""
}

// Store defines the interface for session management.
type Store interface {
	// Create creates a new empty session and returns it.
	Create(ctx context.Context, ttl time.Duration) (*Session, error)
	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*Session, error)
	// SaveToken overwrites the session's token credential.
	SaveToken(ctx context.Context, id string, token *oauth2.Token) error
	// ClearToken drops the session's token credential, keeping the session.
	ClearToken(ctx context.Context, id string) error
	// Delete removes a session.
	Delete(ctx context.Context, id string) error
}
