package session

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("session: not found")
	ErrInvalidSession = errors.New("session: invalid session")
	ErrInvalidToken   = errors.New("session: invalid token")
)

// Store persists sessions outside the request. Implementations must treat the
// session as expired once ExpiresAt has passed.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
