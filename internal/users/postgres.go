package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists user records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			external_id BIGINT PRIMARY KEY,
			username VARCHAR(32),
			first_name VARCHAR(64),
			last_name VARCHAR(64),
			language TEXT,
			cefr_level TEXT,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users (username);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByExternalID(ctx context.Context, externalID int64) (Record, error) {
	var r Record
	err := s.pool.QueryRow(ctx,
		`SELECT external_id, username, first_name, last_name, language, cefr_level, is_admin, created_at, updated_at
		 FROM users WHERE external_id=$1`,
		externalID,
	).Scan(&r.ExternalID, &r.Username, &r.FirstName, &r.LastName, &r.Language, &r.CEFRLevel, &r.IsAdmin, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("find user %d: %w", externalID, err)
	}
	return r, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec NewRecord) (int64, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (external_id, username, first_name, last_name)
		 VALUES ($1, $2, $3, $4)`,
		rec.ExternalID, rec.Username, rec.FirstName, rec.LastName,
	)
	if err != nil {
		return 0, fmt.Errorf("insert user %d: %w", rec.ExternalID, err)
	}
	return rec.ExternalID, nil
}

func (s *PostgresStore) GetPreference(ctx context.Context, externalID int64, field PreferenceField) (string, bool, error) {
	if err := validateField(field); err != nil {
		return "", false, err
	}

	// Column names come from the closed PreferenceField set, never from input.
	var value *string
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE external_id=$1`, field),
		externalID,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s for user %d: %w", field, externalID, err)
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (s *PostgresStore) SetPreference(ctx context.Context, externalID int64, field PreferenceField, value string) error {
	if err := validateField(field); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET %s=$1, updated_at=now() WHERE external_id=$2`, field),
		value, externalID,
	)
	if err != nil {
		return fmt.Errorf("set %s for user %d: %w", field, externalID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
