package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capefasteners/supply-ai-platform/internal/session"
)

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []HotLeadNotification
}

func (f *fakeNotifier) NotifyHotLead(n HotLeadNotification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, n)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type failingEventRepo struct {
	*MemoryEventRepository
}

func (f *failingEventRepo) Append(context.Context, *Event) error {
	return errors.New("ledger unavailable")
}

func newTestEngine(t *testing.T) (*Engine, *session.Store, *MemoryEventRepository, *fakeNotifier) {
	t.Helper()
	store := session.NewStore(session.NewMemoryRepository(), session.NewMemoryCache(7*24*time.Hour, 100), 7*24*time.Hour, 10, nil)
	events := NewMemoryEventRepository()
	notifier := &fakeNotifier{}
	return NewEngine(store, events, notifier, 30*time.Minute, nil), store, events, notifier
}

func newSession(t *testing.T, store *session.Store, visitorID string) *session.Session {
	t.Helper()
	sess, err := store.GetOrCreate(context.Background(), visitorID, "")
	require.NoError(t, err)
	return sess
}

func TestTierForBoundaries(t *testing.T) {
	cases := []struct {
		score int
		tier  Tier
	}{
		{0, TierCold},
		{19, TierCold},
		{20, TierCool},
		{39, TierCool},
		{40, TierWarm},
		{79, TierWarm},
		{80, TierHot},
		{200, TierHot},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, TierFor(tc.score), "score %d", tc.score)
	}
}

func TestTrackEventAccumulatesAndKeepsLedgerInvariant(t *testing.T) {
	ctx := context.Background()
	engine, store, events, _ := newTestEngine(t)
	sess := newSession(t, store, "visitor-1")

	res, err := engine.TrackEvent(ctx, sess, "product_search", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, res.PointsAdded)
	assert.Equal(t, 5, res.Score)
	assert.Equal(t, TierCold, res.Tier)

	res, err = engine.TrackEvent(ctx, sess, "quote_request", nil)
	require.NoError(t, err)
	assert.Equal(t, 35, res.Score)
	assert.Equal(t, TierCool, res.Tier)
	assert.True(t, res.TierChanged)

	// Ledger sum always equals the running score.
	sum, err := events.SumBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.LeadScore, sum)
}

func TestTrackEventUnknownTypeScoresZero(t *testing.T) {
	ctx := context.Background()
	engine, store, events, _ := newTestEngine(t)
	sess := newSession(t, store, "visitor-1")

	res, err := engine.TrackEvent(ctx, sess, "mystery_event", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.PointsAdded)
	assert.Equal(t, 0, res.Score)

	// The zero-point event is still recorded.
	recent, err := events.RecentBySession(ctx, sess.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "mystery_event", recent[0].Type)
}

func TestTrackEventAppendFailureDropsPoints(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(session.NewMemoryRepository(), session.NewMemoryCache(time.Hour, 100), time.Hour, 10, nil)
	engine := NewEngine(store, &failingEventRepo{NewMemoryEventRepository()}, nil, time.Minute, nil)
	sess := newSession(t, store, "visitor-1")

	res, err := engine.TrackEvent(ctx, sess, "quote_request", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, sess.LeadScore)
}

func TestHotTransitionNotifiesExactlyOncePerCooldown(t *testing.T) {
	ctx := context.Background()
	engine, store, _, notifier := newTestEngine(t)
	sess := newSession(t, store, "visitor-1")

	// Five quote requests at 30 points each cross 80 on the third.
	for i := 0; i < 5; i++ {
		_, err := engine.TrackEvent(ctx, sess, "quote_request", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 150, sess.LeadScore)
	assert.Equal(t, string(TierHot), sess.LeadTier)
	assert.Equal(t, 1, notifier.count())

	payload := notifier.payloads[0]
	assert.Equal(t, sess.ID, payload.SessionID)
	assert.Equal(t, "quote_request", payload.TriggerEvent.Type)
	assert.NotEmpty(t, payload.SuggestedAction)
	assert.NotEmpty(t, payload.RecentEvents)
}

func TestHotNotificationCooldownExpires(t *testing.T) {
	ctx := context.Background()
	engine, store, _, notifier := newTestEngine(t)
	sess := newSession(t, store, "visitor-1")

	now := time.Now()
	engine.clock = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := engine.TrackEvent(ctx, sess, "quote_request", nil)
		require.NoError(t, err)
	}
	require.Equal(t, 1, notifier.count())

	// A repeat HOT transition inside the cooldown stays silent.
	sess.LeadTier = string(TierWarm)
	_, err := engine.TrackEvent(ctx, sess, "quote_request", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.count())

	// Past the cooldown it fires again.
	now = now.Add(31 * time.Minute)
	sess.LeadTier = string(TierWarm)
	_, err = engine.TrackEvent(ctx, sess, "quote_request", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, notifier.count())
}

func TestHotNotificationIncludesRecentVisitorMessages(t *testing.T) {
	ctx := context.Background()
	engine, store, _, notifier := newTestEngine(t)
	sess := newSession(t, store, "visitor-1")

	store.AddMessage(ctx, sess, &session.Message{Role: session.RoleVisitor, Content: "need 150 m12 bolts"})
	store.AddMessage(ctx, sess, &session.Message{Role: session.RoleAssistant, Content: "here is your quote"})
	store.AddMessage(ctx, sess, &session.Message{Role: session.RoleVisitor, Content: "deliver to durban"})

	for i := 0; i < 3; i++ {
		_, err := engine.TrackEvent(ctx, sess, "quote_request", nil)
		require.NoError(t, err)
	}
	require.Equal(t, 1, notifier.count())

	payload := notifier.payloads[0]
	assert.Contains(t, payload.RecentMessages, "deliver to durban")
	assert.NotContains(t, payload.RecentMessages, "here is your quote")
}

func TestTemporarySessionSkipsLedger(t *testing.T) {
	ctx := context.Background()
	engine, store, events, _ := newTestEngine(t)
	sess := newSession(t, store, "visitor-1")
	sess.IsTemporary = true

	res, err := engine.TrackEvent(ctx, sess, "quote_request", nil)
	require.NoError(t, err)
	assert.Equal(t, 30, res.Score)

	sum, err := events.SumBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
}

func TestGetScoreAndHotLeads(t *testing.T) {
	ctx := context.Background()
	engine, store, _, _ := newTestEngine(t)
	sess := newSession(t, store, "visitor-1")

	for i := 0; i < 3; i++ {
		_, err := engine.TrackEvent(ctx, sess, "quote_request", nil)
		require.NoError(t, err)
	}

	score, tier, err := engine.GetScore(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, score)
	assert.Equal(t, TierHot, tier)

	hot, err := engine.GetHotLeads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hot, 1)
	assert.Equal(t, sess.ID, hot[0].ID)
}

func TestGetAnalytics(t *testing.T) {
	ctx := context.Background()
	engine, store, _, _ := newTestEngine(t)
	sess := newSession(t, store, "visitor-1")

	_, err := engine.TrackEvent(ctx, sess, "product_search", nil)
	require.NoError(t, err)
	_, err = engine.TrackEvent(ctx, sess, "quote_request", nil)
	require.NoError(t, err)

	analytics, err := engine.GetAnalytics(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.TotalEvents)
	assert.Equal(t, 35, analytics.TotalPoints)
	assert.Equal(t, 1, analytics.SessionCount)
	assert.Equal(t, 1, analytics.EventCounts["quote_request"])
}
