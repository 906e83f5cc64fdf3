// Package state keeps per-user calculator sessions and guards their mutation.
package state

import "context"

// Storage defines the persistence contract for calculator sessions.
type Storage interface {
	// GetSession returns the session of the specified user or ErrStateNotFound.
	GetSession(ctx context.Context, userID int64) (*Session, error)
	// SaveSession stores the session and refreshes its expiry.
	SaveSession(ctx context.Context, session *Session) error
	// DeleteSession removes the session of the specified user.
	DeleteSession(ctx context.Context, userID int64) error
	// ListSessions returns every stored session.
	ListSessions(ctx context.Context) ([]*Session, error)
}
