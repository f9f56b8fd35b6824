package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

const recentIntentLimit = 5

// Store is the facade over the durable repository and the working-set
// cache. When the repository is unreachable it degrades to ephemeral,
// unpersisted sessions rather than failing the request; callers must treat
// Session.IsTemporary as the side-effect flag for that trade-off.
type Store struct {
	repo         Repository
	cache        Cache
	window       time.Duration
	contextLimit int
	logger       *logging.Logger
	clock        func() time.Time
}

// NewStore wires the session store facade.
func NewStore(repo Repository, cache Cache, window time.Duration, contextLimit int, logger *logging.Logger) *Store {
	if repo == nil {
		panic("session: repository cannot be nil")
	}
	if cache == nil {
		panic("session: cache cannot be nil")
	}
	if contextLimit <= 0 {
		contextLimit = 10
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		repo:         repo,
		cache:        cache,
		window:       window,
		contextLimit: contextLimit,
		logger:       logger,
		clock:        time.Now,
	}
}

// GetOrCreate resolves the visitor's current session. A cached session is
// reused when still inside the inactivity window; otherwise the durable
// store is consulted, and a new session created when none is reusable. Old
// context is deliberately not carried into a replacement session.
func (s *Store) GetOrCreate(ctx context.Context, visitorID, customerID string) (*Session, error) {
	now := s.clock()

	if cached, ok := s.cache.Get(ctx, visitorID); ok {
		if cached.Reusable(now, s.window) {
			cached.LastActiveAt = now
			return cached, nil
		}
		s.cache.Remove(ctx, visitorID)
	}

	existing, err := s.repo.GetSessionByVisitor(ctx, visitorID)
	switch {
	case err == nil:
		if existing.Reusable(now, s.window) {
			s.rebuildContext(ctx, existing)
			existing.LastActiveAt = now
			s.cache.Put(ctx, existing)
			return existing, nil
		}
	case errors.Is(err, ErrSessionNotFound):
		// fall through to create
	default:
		s.logger.Warn("session store unreachable, using ephemeral session",
			"error", err, "visitor_id", visitorID)
		ephemeral := NewSession(visitorID, customerID, now)
		ephemeral.IsTemporary = true
		return ephemeral, nil
	}

	created := NewSession(visitorID, customerID, now)
	if err := s.repo.CreateSession(ctx, created); err != nil {
		s.logger.Warn("session create failed, using ephemeral session",
			"error", err, "visitor_id", visitorID)
		created.IsTemporary = true
		return created, nil
	}
	s.cache.Put(ctx, created)
	return created, nil
}

// AddMessage appends a message to the session. For temporary sessions, or
// when the write fails, the message is dropped with a logged error rather
// than failing the turn.
func (s *Store) AddMessage(ctx context.Context, sess *Session, m *Message) {
	m.SessionID = sess.ID
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.clock()
	}
	if sess.IsTemporary {
		return
	}
	if err := s.repo.AppendMessage(ctx, m); err != nil {
		s.logger.Error("message write dropped", "error", err, "session_id", sess.ID)
	}
}

// UpdateContext applies a patch to the session context and persists the
// session. Empty patch values delete the key.
func (s *Store) UpdateContext(ctx context.Context, sess *Session, patch map[string]string) {
	if sess.Context == nil {
		sess.Context = make(map[string]string)
	}
	for key, value := range patch {
		if value == "" {
			delete(sess.Context, key)
			continue
		}
		sess.Context[key] = value
	}
	s.Save(ctx, sess)
}

// Remember stores a visitor preference in the session context.
func (s *Store) Remember(ctx context.Context, sess *Session, key, value string) {
	s.UpdateContext(ctx, sess, map[string]string{prefPrefix + key: value})
}

// Recall retrieves a previously remembered preference.
func (s *Store) Recall(sess *Session, key string) (string, bool) {
	value, ok := sess.Context[prefPrefix+key]
	return value, ok
}

// Save persists the session's mutable fields and refreshes the cache.
// Failures are logged and the in-memory state kept, favoring availability.
func (s *Store) Save(ctx context.Context, sess *Session) {
	sess.LastActiveAt = s.clock()
	s.cache.Put(ctx, sess)
	if sess.IsTemporary {
		return
	}
	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		s.logger.Error("session write dropped", "error", err, "session_id", sess.ID)
	}
}

// Close ends the session with an optional conversion outcome and removes it
// from the working set.
func (s *Store) Close(ctx context.Context, sessionID, outcome string) error {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.Active = false
	sess.ConvertedTo = outcome
	sess.LastActiveAt = s.clock()
	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return err
	}
	s.cache.Remove(ctx, sess.VisitorID)
	return nil
}

// Get returns a session by id from the durable store.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.repo.GetSession(ctx, sessionID)
}

// RecentMessages exposes the most recent messages for a session.
func (s *Store) RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	return s.repo.RecentMessages(ctx, sessionID, limit)
}

// ListByTier exposes tier-filtered session listing for lead reporting.
func (s *Store) ListByTier(ctx context.Context, tier string, limit int) ([]Session, error) {
	return s.repo.ListByTier(ctx, tier, limit)
}

// rebuildContext reconstructs the derived context fields (last product,
// last location, recent intents) from the most recent messages. Derived
// fields are not stored redundantly; a (re)load recomputes them.
func (s *Store) rebuildContext(ctx context.Context, sess *Session) {
	messages, err := s.repo.RecentMessages(ctx, sess.ID, s.contextLimit)
	if err != nil {
		s.logger.Warn("context rebuild skipped", "error", err, "session_id", sess.ID)
		return
	}
	if sess.Context == nil {
		sess.Context = make(map[string]string)
	}
	delete(sess.Context, ContextLastProduct)
	delete(sess.Context, ContextLastLocation)
	delete(sess.Context, ContextRecentIntents)

	var intents []string
	for _, m := range messages {
		if m.Role != RoleVisitor {
			continue
		}
		if sess.Context[ContextLastProduct] == "" {
			if codes := m.Entities["product_codes"]; len(codes) > 0 {
				sess.Context[ContextLastProduct] = codes[0]
			}
		}
		if sess.Context[ContextLastLocation] == "" {
			if locations := m.Entities["locations"]; len(locations) > 0 {
				sess.Context[ContextLastLocation] = locations[0]
			}
		}
		if m.Intent != "" && len(intents) < recentIntentLimit {
			intents = append(intents, m.Intent)
		}
	}
	if len(intents) > 0 {
		sess.Context[ContextRecentIntents] = strings.Join(intents, ",")
	}
}
