// Package postgres implements the repository interfaces with hand-written
// SQL over a shared pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "relaybot.io/relaybot/internal/pkg/errors"
)

// Store bundles the repositories over one pgxpool. River shares the same
// pool; sizing is owned by config.
type Store struct {
	pool *pgxpool.Pool

	Approvals *ApprovalRepo
	Admins    *AdminRepo
	Quotas    *QuotaRepo
	Stats     *StatsRepo
	SimSim    *SimSimRepo
}

// New creates a Store over the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:      pool,
		Approvals: &ApprovalRepo{pool: pool},
		Admins:    &AdminRepo{pool: pool},
		Quotas:    &QuotaRepo{pool: pool},
		Stats:     &StatsRepo{pool: pool},
		SimSim:    &SimSimRepo{pool: pool},
	}
}

// Pool exposes the underlying pool for infrastructure wiring.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS approval_codes (
		code           TEXT        NOT NULL,
		purpose        TEXT        NOT NULL,
		requester_hash TEXT        NOT NULL,
		requester_name TEXT        NOT NULL DEFAULT '',
		room_id        TEXT        NOT NULL DEFAULT '',
		room_name      TEXT        NOT NULL DEFAULT '',
		daily_limit    INTEGER     NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL,
		expires_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (code, purpose)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_approval_codes_expires_at
		ON approval_codes (expires_at)`,
	`CREATE TABLE IF NOT EXISTS admins (
		hash       TEXT        PRIMARY KEY,
		name       TEXT        NOT NULL DEFAULT '',
		room_id    TEXT        NOT NULL DEFAULT '',
		room_name  TEXT        NOT NULL DEFAULT '',
		added_by   TEXT        NOT NULL DEFAULT '',
		added_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS room_quotas (
		room_id     TEXT        PRIMARY KEY,
		room_name   TEXT        NOT NULL DEFAULT '',
		daily_limit INTEGER     NOT NULL,
		set_by      TEXT        NOT NULL DEFAULT '',
		set_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS usage_counters (
		room_id       TEXT        NOT NULL,
		sender_hash   TEXT        NOT NULL,
		day           TEXT        NOT NULL,
		request_count INTEGER     NOT NULL DEFAULT 0,
		updated_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (room_id, sender_hash, day)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_stats (
		room_id       TEXT NOT NULL,
		sender_hash   TEXT NOT NULL,
		day           TEXT NOT NULL,
		sender_name   TEXT NOT NULL DEFAULT '',
		room_name     TEXT NOT NULL DEFAULT '',
		message_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (room_id, sender_hash, day)
	)`,
	`CREATE TABLE IF NOT EXISTS message_contents (
		room_id TEXT NOT NULL,
		content TEXT NOT NULL,
		count   INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (room_id, content)
	)`,
	`CREATE TABLE IF NOT EXISTS room_settings (
		room_id         TEXT        PRIMARY KEY,
		room_name       TEXT        NOT NULL DEFAULT '',
		content_enabled BOOLEAN     NOT NULL DEFAULT TRUE,
		set_by          TEXT        NOT NULL DEFAULT '',
		set_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS simsim_entries (
		prompt     TEXT        NOT NULL,
		response   TEXT        NOT NULL,
		created_by TEXT        NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (prompt, response)
	)`,
}

// Migrate applies the DDL. Statements are idempotent so repeated startups
// are safe.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapInsertErr converts unique violations to the shared sentinel.
func mapInsertErr(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrAlreadyExists, err)
	}
	return err
}
