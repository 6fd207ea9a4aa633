// Package session implements server-side sessions as an alternative to
// bearer tokens for browser clients.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/Abraxas-365/keystone/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("SESSION")

var CodeSessionNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeAuthorization, http.StatusUnauthorized, "Session expired or unknown")

// Session is a server-side login session. The browser only ever holds
// the opaque id.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists sessions with a bounded lifetime.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
