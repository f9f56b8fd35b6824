package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func sessionRows(s *Session) *sqlmock.Rows {
	contextJSON, _ := json.Marshal(s.Context)
	return sqlmock.NewRows([]string{
		"id", "visitor_id", "customer_id", "created_at", "last_active_at",
		"context", "lead_score", "lead_tier", "active", "converted_to",
	}).AddRow(s.ID, s.VisitorID, s.CustomerID, s.CreatedAt, s.LastActiveAt,
		contextJSON, s.LeadScore, s.LeadTier, s.Active, s.ConvertedTo)
}

func TestPostgresCreateSession(t *testing.T) {
	repo, mock := newMockRepo(t)
	sess := NewSession("visitor-1", "cust-9", time.Now())

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(sess.ID, "visitor-1", "cust-9", sess.CreatedAt, sess.LastActiveAt,
			sqlmock.AnyArg(), 0, "COLD", true, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateSession(context.Background(), sess))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSessionByVisitor(t *testing.T) {
	repo, mock := newMockRepo(t)
	sess := NewSession("visitor-1", "", time.Now())
	sess.Context[ContextLastProduct] = "M12"

	mock.ExpectQuery(`SELECT .+ FROM sessions\s+WHERE visitor_id = \$1`).
		WithArgs("visitor-1").
		WillReturnRows(sessionRows(sess))

	got, err := repo.GetSessionByVisitor(context.Background(), "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "M12", got.Context[ContextLastProduct])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSessionNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM sessions\s+WHERE id = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "visitor_id", "customer_id", "created_at", "last_active_at",
			"context", "lead_score", "lead_tier", "active", "converted_to",
		}))

	_, err := repo.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPostgresUpdateSessionNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	sess := NewSession("visitor-1", "", time.Now())

	mock.ExpectExec(`UPDATE sessions`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSession(context.Background(), sess)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPostgresAppendAndRecentMessages(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	msg := &Message{
		ID:        "msg-1",
		SessionID: "sess-1",
		Role:      RoleVisitor,
		Content:   "need bolts",
		Intent:    "PRODUCT_SEARCH",
		Entities:  map[string][]string{"product_codes": {"M12"}},
		CreatedAt: now,
	}
	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs("msg-1", "sess-1", "visitor", "need bolts", "PRODUCT_SEARCH",
			0.0, sqlmock.AnyArg(), int64(0), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AppendMessage(context.Background(), msg))

	entitiesJSON, _ := json.Marshal(msg.Entities)
	mock.ExpectQuery(`SELECT .+ FROM messages`).
		WithArgs("sess-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "role", "intent", "content", "confidence", "entities", "latency_ms", "created_at",
		}).AddRow("msg-1", "sess-1", "visitor", "PRODUCT_SEARCH", "need bolts", 0.0, entitiesJSON, int64(0), now))

	messages, err := repo.RecentMessages(context.Background(), "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, []string{"M12"}, messages[0].Entities["product_codes"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListByTier(t *testing.T) {
	repo, mock := newMockRepo(t)
	sess := NewSession("visitor-1", "", time.Now())
	sess.LeadScore = 95
	sess.LeadTier = "HOT"

	mock.ExpectQuery(`SELECT .+ FROM sessions\s+WHERE lead_tier = \$1 AND active = TRUE`).
		WithArgs("HOT", 10).
		WillReturnRows(sessionRows(sess))

	hot, err := repo.ListByTier(context.Background(), "HOT", 10)
	require.NoError(t, err)
	require.Len(t, hot, 1)
	assert.Equal(t, 95, hot[0].LeadScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
