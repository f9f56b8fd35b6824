package scoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventRepository is the durable append-only scoring ledger.
type EventRepository interface {
	Append(ctx context.Context, e *Event) error
	// RecentBySession returns up to limit events, most recent first.
	RecentBySession(ctx context.Context, sessionID string, limit int) ([]Event, error)
	SumBySession(ctx context.Context, sessionID string) (int, error)
	Aggregate(ctx context.Context, since time.Time) (*Analytics, error)
}

// PostgresEventRepository persists scoring events to PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a Postgres-backed event ledger.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	if db == nil {
		panic("scoring: db cannot be nil")
	}
	return &PostgresEventRepository{db: db}
}

// Append inserts one ledger entry.
func (r *PostgresEventRepository) Append(ctx context.Context, e *Event) error {
	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("scoring: marshal metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scoring_events (id, session_id, event_type, points, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.SessionID, e.Type, e.Points, metadataJSON, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("scoring: append event: %w", err)
	}
	return nil
}

// RecentBySession returns up to limit events, most recent first.
func (r *PostgresEventRepository) RecentBySession(ctx context.Context, sessionID string, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, event_type, points, metadata, created_at
		FROM scoring_events
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("scoring: recent events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		var metadataJSON []byte
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Type, &e.Points, &metadataJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scoring: scan event: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("scoring: decode metadata: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scoring: iterate events: %w", err)
	}
	return events, nil
}

// SumBySession returns the total points recorded for a session.
func (r *PostgresEventRepository) SumBySession(ctx context.Context, sessionID string) (int, error) {
	var sum int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(points), 0) FROM scoring_events WHERE session_id = $1`, sessionID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("scoring: sum events: %w", err)
	}
	return sum, nil
}

// Aggregate summarizes the ledger since the given time.
func (r *PostgresEventRepository) Aggregate(ctx context.Context, since time.Time) (*Analytics, error) {
	analytics := &Analytics{
		Since:       since,
		EventCounts: make(map[string]int),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*), COALESCE(SUM(points), 0)
		FROM scoring_events
		WHERE created_at >= $1
		GROUP BY event_type`, since)
	if err != nil {
		return nil, fmt.Errorf("scoring: aggregate events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var eventType string
		var count, points int
		if err := rows.Scan(&eventType, &count, &points); err != nil {
			return nil, fmt.Errorf("scoring: scan aggregate: %w", err)
		}
		analytics.EventCounts[eventType] = count
		analytics.TotalEvents += count
		analytics.TotalPoints += points
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scoring: iterate aggregates: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT session_id) FROM scoring_events WHERE created_at >= $1`, since).
		Scan(&analytics.SessionCount)
	if err != nil {
		return nil, fmt.Errorf("scoring: count sessions: %w", err)
	}
	return analytics, nil
}
