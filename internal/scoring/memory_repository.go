package scoring

import (
	"context"
	"sync"
	"time"
)

// MemoryEventRepository is a map-backed ledger for tests and for running
// without a database. Safe for concurrent use.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string][]Event
}

var _ EventRepository = (*MemoryEventRepository)(nil)

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string][]Event)}
}

func (r *MemoryEventRepository) Append(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[e.SessionID] = append(r.events[e.SessionID], *e)
	return nil
}

func (r *MemoryEventRepository) RecentBySession(_ context.Context, sessionID string, limit int) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.events[sessionID]
	out := make([]Event, len(all))
	copy(out, all)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryEventRepository) SumBySession(_ context.Context, sessionID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := 0
	for _, e := range r.events[sessionID] {
		sum += e.Points
	}
	return sum, nil
}

func (r *MemoryEventRepository) Aggregate(_ context.Context, since time.Time) (*Analytics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	analytics := &Analytics{Since: since, EventCounts: make(map[string]int)}
	for _, events := range r.events {
		counted := false
		for _, e := range events {
			if e.CreatedAt.Before(since) {
				continue
			}
			analytics.EventCounts[e.Type]++
			analytics.TotalEvents++
			analytics.TotalPoints += e.Points
			counted = true
		}
		if counted {
			analytics.SessionCount++
		}
	}
	return analytics, nil
}
