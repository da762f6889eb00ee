package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaybot.io/relaybot/internal/approval"
)

// ApprovalRepo implements approval.Repository.
type ApprovalRepo struct {
	pool *pgxpool.Pool
}

var _ approval.Repository = (*ApprovalRepo)(nil)

func (r *ApprovalRepo) Insert(ctx context.Context, code approval.Code) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approval_codes
			(code, purpose, requester_hash, requester_name, room_id, room_name, daily_limit, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		code.Code, code.Purpose, code.RequesterHash, code.RequesterName,
		code.RoomID, code.RoomName, code.DailyLimit, code.CreatedAt, code.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval code: %w", mapInsertErr(err))
	}
	return nil
}

// ConsumeValid deletes the matching non-expired row and returns it. The
// single DELETE makes concurrent consumers race safely: at most one sees
// the row.
func (r *ApprovalRepo) ConsumeValid(ctx context.Context, value, purpose string, now time.Time) (*approval.Code, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM approval_codes
		WHERE code = $1 AND purpose = $2 AND expires_at > $3
		RETURNING code, purpose, requester_hash, requester_name, room_id, room_name, daily_limit, created_at, expires_at`,
		value, purpose, now,
	)

	var code approval.Code
	err := row.Scan(
		&code.Code, &code.Purpose, &code.RequesterHash, &code.RequesterName,
		&code.RoomID, &code.RoomName, &code.DailyLimit, &code.CreatedAt, &code.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume approval code: %w", err)
	}
	return &code, nil
}

func (r *ApprovalRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM approval_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired approval codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
