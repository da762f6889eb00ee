package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaybot.io/relaybot/internal/quota"
)

// QuotaRepo implements quota.Repository.
type QuotaRepo struct {
	pool *pgxpool.Pool
}

var _ quota.Repository = (*QuotaRepo)(nil)

func (r *QuotaRepo) UpsertQuota(ctx context.Context, q quota.RoomQuota) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO room_quotas (room_id, room_name, daily_limit, set_by, set_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id) DO UPDATE SET
			room_name = EXCLUDED.room_name,
			daily_limit = EXCLUDED.daily_limit,
			set_by = EXCLUDED.set_by,
			set_at = EXCLUDED.set_at`,
		q.RoomID, q.RoomName, q.DailyLimit, q.SetBy, q.SetAt,
	)
	if err != nil {
		return fmt.Errorf("upsert room quota: %w", err)
	}
	return nil
}

func (r *QuotaRepo) GetQuota(ctx context.Context, roomID string) (*quota.RoomQuota, error) {
	var q quota.RoomQuota
	err := r.pool.QueryRow(ctx, `
		SELECT room_id, room_name, daily_limit, set_by, set_at
		FROM room_quotas WHERE room_id = $1`, roomID,
	).Scan(&q.RoomID, &q.RoomName, &q.DailyLimit, &q.SetBy, &q.SetAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room quota: %w", err)
	}
	return &q, nil
}

func (r *QuotaRepo) DeleteQuota(ctx context.Context, roomID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM room_quotas WHERE room_id = $1`, roomID)
	if err != nil {
		return false, fmt.Errorf("delete room quota: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementUsage bumps the counter atomically: the upsert either creates
// the row at 1 or increments in place, so concurrent messages never lose
// a count.
func (r *QuotaRepo) IncrementUsage(ctx context.Context, roomID, senderHash, day string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO usage_counters (room_id, sender_hash, day, request_count, updated_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (room_id, sender_hash, day) DO UPDATE SET
			request_count = usage_counters.request_count + 1,
			updated_at = EXCLUDED.updated_at`,
		roomID, senderHash, day, at,
	)
	if err != nil {
		return fmt.Errorf("increment usage counter: %w", err)
	}
	return nil
}

func (r *QuotaRepo) GetUsage(ctx context.Context, roomID, senderHash, day string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT request_count FROM usage_counters
		WHERE room_id = $1 AND sender_hash = $2 AND day = $3`,
		roomID, senderHash, day,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage counter: %w", err)
	}
	return count, nil
}
