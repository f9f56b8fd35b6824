package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is a map-backed Repository for tests and for running
// without a database. Safe for concurrent use.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]Session
	messages map[string][]Message
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]Session),
		messages: make(map[string][]Message),
	}
}

func (r *MemoryRepository) CreateSession(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *MemoryRepository) GetSession(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := cloneSession(&s)
	return &out, nil
}

func (r *MemoryRepository) GetSessionByVisitor(_ context.Context, visitorID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *Session
	for id := range r.sessions {
		s := r.sessions[id]
		if s.VisitorID != visitorID {
			continue
		}
		if latest == nil || s.LastActiveAt.After(latest.LastActiveAt) {
			copied := cloneSession(&s)
			latest = &copied
		}
	}
	if latest == nil {
		return nil, ErrSessionNotFound
	}
	return latest, nil
}

func (r *MemoryRepository) UpdateSession(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *MemoryRepository) AppendMessage(_ context.Context, m *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.SessionID] = append(r.messages[m.SessionID], *m)
	return nil
}

func (r *MemoryRepository) RecentMessages(_ context.Context, sessionID string, limit int) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.messages[sessionID]
	out := make([]Message, len(all))
	copy(out, all)
	// Stored in append order; callers expect most recent first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) ListByTier(_ context.Context, tier string, limit int) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Session
	for id := range r.sessions {
		s := r.sessions[id]
		if s.Active && s.LeadTier == tier {
			out = append(out, cloneSession(&s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeadScore > out[j].LeadScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneSession(s *Session) Session {
	out := *s
	out.Context = make(map[string]string, len(s.Context))
	for k, v := range s.Context {
		out.Context[k] = v
	}
	return out
}
