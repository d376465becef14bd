package feature

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evermedhq/pulse/pkg/pg"
)

// PostgresStore persists flags in the feature_flags table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed flag store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("feature: pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*Flag, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT name, description, enabled, rollout_percent, created_at, updated_at
		FROM feature_flags
		WHERE name = $1`, name)

	var flag Flag
	err := row.Scan(&flag.Name, &flag.Description, &flag.Enabled, &flag.RolloutPercent, &flag.CreatedAt, &flag.UpdatedAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}
	return &flag, nil
}

func (s *PostgresStore) Create(ctx context.Context, flag *Flag) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feature_flags (name, description, enabled, rollout_percent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		flag.Name, flag.Description, flag.Enabled, flag.RolloutPercent, flag.CreatedAt, flag.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKey(err) {
			return errors.Join(ErrFlagExists, err)
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, flag *Flag) (*Flag, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO feature_flags (name, description, enabled, rollout_percent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (name) DO UPDATE
		SET enabled = EXCLUDED.enabled,
		    rollout_percent = EXCLUDED.rollout_percent,
		    updated_at = EXCLUDED.updated_at
		RETURNING name, description, enabled, rollout_percent, created_at, updated_at`,
		flag.Name, flag.Description, flag.Enabled, flag.RolloutPercent, flag.UpdatedAt)

	var stored Flag
	err := row.Scan(&stored.Name, &stored.Description, &stored.Enabled, &stored.RolloutPercent, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Flag, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, description, enabled, rollout_percent, created_at, updated_at
		FROM feature_flags
		ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []Flag
	for rows.Next() {
		var flag Flag
		if err := rows.Scan(&flag.Name, &flag.Description, &flag.Enabled, &flag.RolloutPercent, &flag.CreatedAt, &flag.UpdatedAt); err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, rows.Err()
}
