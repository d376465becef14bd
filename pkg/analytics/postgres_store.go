package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresEventStore persists events in the analytics_events table.
type PostgresEventStore struct {
	pool *pgxpool.Pool
}

// NewPostgresEventStore creates a Postgres-backed event store.
func NewPostgresEventStore(pool *pgxpool.Pool) *PostgresEventStore {
	if pool == nil {
		panic("analytics: pool cannot be nil")
	}
	return &PostgresEventStore{pool: pool}
}

func (s *PostgresEventStore) Insert(ctx context.Context, event Event) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(event.Metadata); err != nil {
			return err
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO analytics_events (id, event_type, event_name, metadata, session_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		event.ID, string(event.Type), event.Name, metadata, event.SessionID, event.CreatedAt)
	return err
}

func (s *PostgresEventStore) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, event_name, metadata, COALESCE(session_id, ''), created_at
		FROM analytics_events
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e        Event
			typ      string
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.Name, &metadata, &e.SessionID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresEventStore) SessionsByTimeRange(ctx context.Context, start, end time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT session_id
		FROM analytics_events
		WHERE session_id IS NOT NULL
		  AND created_at >= $1 AND created_at < $2`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

// PostgresTokenUsageStore persists billed-call records in the token_usage
// table.
type PostgresTokenUsageStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTokenUsageStore creates a Postgres-backed token usage store.
func NewPostgresTokenUsageStore(pool *pgxpool.Pool) *PostgresTokenUsageStore {
	if pool == nil {
		panic("analytics: pool cannot be nil")
	}
	return &PostgresTokenUsageStore{pool: pool}
}

func (s *PostgresTokenUsageStore) Insert(ctx context.Context, usage TokenUsage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_usage (id, feature, model, tokens_in, tokens_out, cost_usd, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		usage.ID, usage.Feature, usage.Model, usage.TokensIn, usage.TokensOut, usage.CostUSD, usage.CreatedAt)
	return err
}

func (s *PostgresTokenUsageStore) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]TokenUsage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, feature, model, tokens_in, tokens_out, cost_usd, created_at
		FROM token_usage
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TokenUsage
	for rows.Next() {
		var r TokenUsage
		if err := rows.Scan(&r.ID, &r.Feature, &r.Model, &r.TokensIn, &r.TokensOut, &r.CostUSD, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
