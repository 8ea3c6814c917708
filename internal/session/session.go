// Package session carries the signed-in user through a request and tells subscribers when
// a user's session changes.
package session

import (
	"context"
	"time"
)

// Session is the authenticated caller of a request
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// UserID returns the caller's id, or "" for anonymous requests
func UserID(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.UserID
	}
	return ""
}
