package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capefasteners/supply-ai-platform/internal/session"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

const (
	recentEventLimit   = 5
	recentMessageLimit = 3
)

// Notifier receives hot-lead payloads. Implementations must not block; a
// failure to deliver never fails the scoring update.
type Notifier interface {
	NotifyHotLead(n HotLeadNotification)
}

// Engine maps behavioral events to points, maintains each session's running
// score and tier, and fires a rate-limited notification when a session
// first crosses into the HOT tier.
type Engine struct {
	sessions *session.Store
	events   EventRepository
	notifier Notifier
	cooldown time.Duration
	logger   *logging.Logger
	clock    func() time.Time

	mu       sync.Mutex
	notified map[string]time.Time // sessionID -> last HOT notification
}

// NewEngine wires the scoring engine. notifier may be nil, in which case
// HOT transitions are logged only.
func NewEngine(sessions *session.Store, events EventRepository, notifier Notifier, cooldown time.Duration, logger *logging.Logger) *Engine {
	if sessions == nil {
		panic("scoring: session store cannot be nil")
	}
	if events == nil {
		panic("scoring: event repository cannot be nil")
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		sessions: sessions,
		events:   events,
		notifier: notifier,
		cooldown: cooldown,
		logger:   logger,
		clock:    time.Now,
		notified: make(map[string]time.Time),
	}
}

// TrackEvent appends a scoring event for the session, updates the running
// score and tier, and triggers a hot-lead notification on a HOT transition.
// Scores are monotonically non-decreasing for the session's lifetime.
func (e *Engine) TrackEvent(ctx context.Context, sess *session.Session, eventType string, metadata map[string]any) (TrackResult, error) {
	points, known := pointValues[eventType]
	if !known {
		e.logger.Warn("unknown scoring event type", "event_type", eventType, "session_id", sess.ID)
	}

	event := &Event{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Type:      eventType,
		Points:    points,
		Metadata:  metadata,
		CreatedAt: e.clock(),
	}

	if !sess.IsTemporary {
		if err := e.events.Append(ctx, event); err != nil {
			// Dropping the points too keeps the ledger-sum invariant: the
			// session score only ever reflects recorded events.
			e.logger.Error("scoring event dropped", "error", err, "session_id", sess.ID, "event_type", eventType)
			return TrackResult{Score: sess.LeadScore, Tier: Tier(sess.LeadTier)}, nil
		}
	}

	previousTier := Tier(sess.LeadTier)
	sess.LeadScore += points
	newTier := TierFor(sess.LeadScore)
	sess.LeadTier = string(newTier)
	e.sessions.Save(ctx, sess)

	result := TrackResult{
		Score:       sess.LeadScore,
		Tier:        newTier,
		PointsAdded: points,
		TierChanged: newTier != previousTier,
	}

	if newTier == TierHot && previousTier != TierHot {
		e.maybeNotify(ctx, sess, *event)
	}
	return result, nil
}

// GetScore returns the running score and tier for a session.
func (e *Engine) GetScore(ctx context.Context, sessionID string) (int, Tier, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, TierCold, err
	}
	return sess.LeadScore, Tier(sess.LeadTier), nil
}

// GetHotLeads lists the hottest active sessions for sales follow-up.
func (e *Engine) GetHotLeads(ctx context.Context, limit int) ([]session.Session, error) {
	if limit <= 0 {
		limit = 10
	}
	return e.sessions.ListByTier(ctx, string(TierHot), limit)
}

// GetAnalytics aggregates the scoring ledger over the trailing period.
func (e *Engine) GetAnalytics(ctx context.Context, period time.Duration) (*Analytics, error) {
	return e.events.Aggregate(ctx, e.clock().Add(-period))
}

// maybeNotify fires the hot-lead notification unless one was already sent
// for this session within the cooldown window.
func (e *Engine) maybeNotify(ctx context.Context, sess *session.Session, trigger Event) {
	now := e.clock()

	e.mu.Lock()
	if last, ok := e.notified[sess.ID]; ok && now.Sub(last) < e.cooldown {
		e.mu.Unlock()
		return
	}
	e.notified[sess.ID] = now
	for id, at := range e.notified {
		if now.Sub(at) >= e.cooldown {
			delete(e.notified, id)
		}
	}
	e.mu.Unlock()

	payload := HotLeadNotification{
		SessionID:       sess.ID,
		VisitorID:       sess.VisitorID,
		Score:           sess.LeadScore,
		Tier:            TierHot,
		TriggerEvent:    trigger,
		SuggestedAction: suggestedActionFor(trigger.Type),
		OccurredAt:      now,
	}

	if events, err := e.events.RecentBySession(ctx, sess.ID, recentEventLimit); err != nil {
		e.logger.Warn("hot lead event history unavailable", "error", err, "session_id", sess.ID)
	} else {
		payload.RecentEvents = events
	}

	if messages, err := e.sessions.RecentMessages(ctx, sess.ID, recentMessageLimit*2); err != nil {
		e.logger.Warn("hot lead message history unavailable", "error", err, "session_id", sess.ID)
	} else {
		for _, m := range messages {
			if m.Role != session.RoleVisitor {
				continue
			}
			payload.RecentMessages = append(payload.RecentMessages, m.Content)
			if len(payload.RecentMessages) == recentMessageLimit {
				break
			}
		}
	}

	if e.notifier == nil {
		e.logger.Info("hot lead (no notifier configured)", "session_id", sess.ID, "score", sess.LeadScore)
		return
	}
	e.notifier.NotifyHotLead(payload)
}

func suggestedActionFor(eventType string) string {
	if action, ok := suggestedActions[eventType]; ok {
		return action
	}
	return defaultSuggestedAction
}
