package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresRepository persists sessions and messages to PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed session repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	if db == nil {
		panic("session: db cannot be nil")
	}
	return &PostgresRepository{db: db}
}

// CreateSession inserts a new session row.
func (r *PostgresRepository) CreateSession(ctx context.Context, s *Session) error {
	contextJSON, err := json.Marshal(s.Context)
	if err != nil {
		return fmt.Errorf("session: marshal context: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, visitor_id, customer_id, created_at, last_active_at, context, lead_score, lead_tier, active, converted_to)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, NULLIF($10, ''))`,
		s.ID, s.VisitorID, s.CustomerID, s.CreatedAt, s.LastActiveAt, contextJSON, s.LeadScore, s.LeadTier, s.Active, s.ConvertedTo,
	)
	if err != nil {
		return fmt.Errorf("session: create session: %w", err)
	}
	return nil
}

// GetSession fetches one session by id.
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, sessionSelect+` WHERE id = $1`, id)
	return scanSessionRow(row)
}

// GetSessionByVisitor returns the visitor's most recent session.
func (r *PostgresRepository) GetSessionByVisitor(ctx context.Context, visitorID string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, sessionSelect+`
		WHERE visitor_id = $1
		ORDER BY last_active_at DESC
		LIMIT 1`, visitorID)
	return scanSessionRow(row)
}

// UpdateSession writes the session's mutable fields.
func (r *PostgresRepository) UpdateSession(ctx context.Context, s *Session) error {
	contextJSON, err := json.Marshal(s.Context)
	if err != nil {
		return fmt.Errorf("session: marshal context: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET last_active_at = $2, context = $3, lead_score = $4, lead_tier = $5, active = $6, converted_to = NULLIF($7, '')
		WHERE id = $1`,
		s.ID, s.LastActiveAt, contextJSON, s.LeadScore, s.LeadTier, s.Active, s.ConvertedTo,
	)
	if err != nil {
		return fmt.Errorf("session: update session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// AppendMessage inserts one message row.
func (r *PostgresRepository) AppendMessage(ctx context.Context, m *Message) error {
	entitiesJSON, err := json.Marshal(m.Entities)
	if err != nil {
		return fmt.Errorf("session: marshal entities: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, intent, confidence, entities, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`,
		m.ID, m.SessionID, string(m.Role), m.Content, m.Intent, m.Confidence, entitiesJSON, m.LatencyMs, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("session: append message: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit messages, most recent first.
func (r *PostgresRepository) RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, role, COALESCE(intent, ''), content, confidence, entities, latency_ms, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("session: recent messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []Message
	for rows.Next() {
		var m Message
		var entitiesJSON []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Intent, &m.Content, &m.Confidence, &entitiesJSON, &m.LatencyMs, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("session: scan message: %w", err)
		}
		if len(entitiesJSON) > 0 {
			if err := json.Unmarshal(entitiesJSON, &m.Entities); err != nil {
				return nil, fmt.Errorf("session: decode entities: %w", err)
			}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: iterate messages: %w", err)
	}
	return messages, nil
}

// ListByTier returns active sessions in the given tier, highest score first.
func (r *PostgresRepository) ListByTier(ctx context.Context, tier string, limit int) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, sessionSelect+`
		WHERE lead_tier = $1 AND active = TRUE
		ORDER BY lead_score DESC, last_active_at DESC
		LIMIT $2`, tier, limit)
	if err != nil {
		return nil, fmt.Errorf("session: list by tier: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: iterate sessions: %w", err)
	}
	return sessions, nil
}

const sessionSelect = `
	SELECT id, visitor_id, COALESCE(customer_id, ''), created_at, last_active_at, context, lead_score, lead_tier, active, COALESCE(converted_to, '')
	FROM sessions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSessionRow(row rowScanner) (*Session, error) {
	var s Session
	var contextJSON []byte
	err := row.Scan(&s.ID, &s.VisitorID, &s.CustomerID, &s.CreatedAt, &s.LastActiveAt, &contextJSON, &s.LeadScore, &s.LeadTier, &s.Active, &s.ConvertedTo)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: scan session: %w", err)
	}
	s.Context = make(map[string]string)
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &s.Context); err != nil {
			return nil, fmt.Errorf("session: decode context: %w", err)
		}
	}
	return &s, nil
}
