package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleVisitor   Role = "visitor"
	RoleAssistant Role = "assistant"
)

// Context keys maintained by the store. The context map is otherwise
// free-form; preference keys use the "pref_" prefix.
const (
	ContextLastProduct   = "last_product"
	ContextLastLocation  = "last_location"
	ContextRecentIntents = "recent_intents"
	prefPrefix           = "pref_"
)

// Session is the per-visitor conversational state. The session exclusively
// owns its context map and running score; messages and scoring events are
// append-only children.
type Session struct {
	ID           string            `json:"id"`
	VisitorID    string            `json:"visitor_id"`
	CustomerID   string            `json:"customer_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActiveAt time.Time         `json:"last_active_at"`
	Context      map[string]string `json:"context"`
	LeadScore    int               `json:"lead_score"`
	LeadTier     string            `json:"lead_tier"`
	Active       bool              `json:"active"`
	ConvertedTo  string            `json:"converted_to,omitempty"`

	// IsTemporary marks a session that could not be persisted; it lives
	// only in memory for the duration of the request flow.
	IsTemporary bool `json:"is_temporary,omitempty"`
}

// NewSession creates a fresh active session for a visitor.
func NewSession(visitorID, customerID string, now time.Time) *Session {
	return &Session{
		ID:           uuid.New().String(),
		VisitorID:    visitorID,
		CustomerID:   customerID,
		CreatedAt:    now,
		LastActiveAt: now,
		Context:      make(map[string]string),
		LeadTier:     "COLD",
		Active:       true,
	}
}

// Reusable reports whether the session can carry a new turn: it must be
// active and have seen activity within the inactivity window.
func (s *Session) Reusable(now time.Time, window time.Duration) bool {
	return s.Active && now.Sub(s.LastActiveAt) <= window
}

// Message is one turn fragment in a session. Append-only; ordering is by
// creation time, most-recent-first when reconstructing context.
type Message struct {
	ID         string              `json:"id"`
	SessionID  string              `json:"session_id"`
	Role       Role                `json:"role"`
	Content    string              `json:"content"`
	Intent     string              `json:"intent,omitempty"`
	Confidence float64             `json:"confidence,omitempty"`
	Entities   map[string][]string `json:"entities,omitempty"`
	LatencyMs  int64               `json:"latency_ms,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}
