package session

import (
	"context"
	"errors"
)

// ErrSessionNotFound indicates no matching session exists in the store.
var ErrSessionNotFound = errors.New("session: not found")

// Repository defines durable storage for sessions and their messages.
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	// GetSessionByVisitor returns the visitor's most recent session.
	GetSessionByVisitor(ctx context.Context, visitorID string) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
	AppendMessage(ctx context.Context, m *Message) error
	// RecentMessages returns up to limit messages, most recent first.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// ListByTier returns active sessions in the given tier, highest score
	// first.
	ListByTier(ctx context.Context, tier string, limit int) ([]Session, error)
}
