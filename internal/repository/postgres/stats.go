package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaybot.io/relaybot/internal/domain"
	"relaybot.io/relaybot/internal/stats"
)

// StatsRepo implements stats.Repository.
type StatsRepo struct {
	pool *pgxpool.Pool
}

var _ stats.Repository = (*StatsRepo)(nil)

// RecordMessage bumps the day-partitioned sender counter and, when
// content tracking is on for the room, the content counter. Two
// independent upserts; a partial failure leaves the aggregates slightly
// out of step, which the consumers tolerate.
func (r *StatsRepo) RecordMessage(ctx context.Context, msg *domain.Message, day string, contentEnabled bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_stats (room_id, sender_hash, day, sender_name, room_name, message_count)
		VALUES ($1, $2, $3, $4, $5, 1)
		ON CONFLICT (room_id, sender_hash, day) DO UPDATE SET
			message_count = chat_stats.message_count + 1,
			sender_name = EXCLUDED.sender_name,
			room_name = EXCLUDED.room_name`,
		msg.RoomID, msg.SenderHash, day, msg.SenderName, msg.RoomName,
	)
	if err != nil {
		return fmt.Errorf("upsert chat stats: %w", err)
	}

	if !contentEnabled {
		return nil
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO message_contents (room_id, content, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (room_id, content) DO UPDATE SET
			count = message_contents.count + 1`,
		msg.RoomID, msg.Content,
	)
	if err != nil {
		return fmt.Errorf("upsert message content: %w", err)
	}
	return nil
}

func (r *StatsRepo) TopSenders(ctx context.Context, roomID string, limit int) ([]stats.SenderCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sender_hash, MAX(sender_name), SUM(message_count)::int
		FROM chat_stats
		WHERE room_id = $1
		GROUP BY sender_hash
		ORDER BY SUM(message_count) DESC, sender_hash
		LIMIT $2`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query top senders: %w", err)
	}
	defer rows.Close()

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (stats.SenderCount, error) {
		var sc stats.SenderCount
		err := row.Scan(&sc.SenderHash, &sc.SenderName, &sc.Count)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan top senders: %w", err)
	}
	return out, nil
}

func (r *StatsRepo) SenderRank(ctx context.Context, roomID, senderHash string) (stats.Rank, error) {
	var rank stats.Rank
	err := r.pool.QueryRow(ctx, `
		SELECT position, total, message_count FROM (
			SELECT sender_hash,
				RANK() OVER (ORDER BY SUM(message_count) DESC) AS position,
				COUNT(*) OVER () AS total,
				SUM(message_count)::int AS message_count
			FROM chat_stats
			WHERE room_id = $1
			GROUP BY sender_hash
		) ranked
		WHERE sender_hash = $2`, roomID, senderHash,
	).Scan(&rank.Position, &rank.Of, &rank.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		var total int
		err := r.pool.QueryRow(ctx,
			`SELECT COUNT(DISTINCT sender_hash) FROM chat_stats WHERE room_id = $1`, roomID,
		).Scan(&total)
		if err != nil {
			return stats.Rank{}, fmt.Errorf("count room senders: %w", err)
		}
		return stats.Rank{Of: total}, nil
	}
	if err != nil {
		return stats.Rank{}, fmt.Errorf("query sender rank: %w", err)
	}
	return rank, nil
}

// WeekdayActivity sums counters per weekday of the day key, Sunday first.
func (r *StatsRepo) WeekdayActivity(ctx context.Context, roomID, senderHash string) ([7]int, error) {
	query := `
		SELECT EXTRACT(DOW FROM to_date(day, 'YYYY-MM-DD'))::int, SUM(message_count)::int
		FROM chat_stats
		WHERE room_id = $1`
	args := []any{roomID}
	if senderHash != "" {
		query += ` AND sender_hash = $2`
		args = append(args, senderHash)
	}
	query += ` GROUP BY 1`

	var counts [7]int
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return counts, fmt.Errorf("query weekday activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var weekday, count int
		if err := rows.Scan(&weekday, &count); err != nil {
			return counts, fmt.Errorf("scan weekday activity: %w", err)
		}
		if weekday >= 0 && weekday < len(counts) {
			counts[weekday] = count
		}
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("read weekday activity: %w", err)
	}
	return counts, nil
}

// MonthActivity sums counters per calendar month of the day key.
func (r *StatsRepo) MonthActivity(ctx context.Context, roomID, senderHash string) ([12]int, error) {
	query := `
		SELECT EXTRACT(MONTH FROM to_date(day, 'YYYY-MM-DD'))::int, SUM(message_count)::int
		FROM chat_stats
		WHERE room_id = $1`
	args := []any{roomID}
	if senderHash != "" {
		query += ` AND sender_hash = $2`
		args = append(args, senderHash)
	}
	query += ` GROUP BY 1`

	var counts [12]int
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return counts, fmt.Errorf("query month activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return counts, fmt.Errorf("scan month activity: %w", err)
		}
		if month >= 1 && month <= len(counts) {
			counts[month-1] = count
		}
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("read month activity: %w", err)
	}
	return counts, nil
}

func (r *StatsRepo) TopContents(ctx context.Context, roomID string, limit int) ([]stats.ContentCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT content, count
		FROM message_contents
		WHERE room_id = $1
		ORDER BY count DESC, content
		LIMIT $2`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query top contents: %w", err)
	}
	defer rows.Close()

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (stats.ContentCount, error) {
		var cc stats.ContentCount
		err := row.Scan(&cc.Content, &cc.Count)
		return cc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan top contents: %w", err)
	}
	return out, nil
}

func (r *StatsRepo) RoomTotals(ctx context.Context) ([]stats.RoomTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT room_id, MAX(room_name), SUM(message_count)::int, COUNT(DISTINCT sender_hash)
		FROM chat_stats
		GROUP BY room_id
		ORDER BY SUM(message_count) DESC, room_id`)
	if err != nil {
		return nil, fmt.Errorf("query room totals: %w", err)
	}
	defer rows.Close()

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (stats.RoomTotal, error) {
		var rt stats.RoomTotal
		err := row.Scan(&rt.RoomID, &rt.RoomName, &rt.MessageCount, &rt.SenderCount)
		return rt, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan room totals: %w", err)
	}
	return out, nil
}

// ContentEnabled defaults to true for rooms without a stored setting.
func (r *StatsRepo) ContentEnabled(ctx context.Context, roomID string) (bool, error) {
	var enabled bool
	err := r.pool.QueryRow(ctx,
		`SELECT content_enabled FROM room_settings WHERE room_id = $1`, roomID,
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("query room setting: %w", err)
	}
	return enabled, nil
}

func (r *StatsRepo) SetContentEnabled(ctx context.Context, s stats.RoomSetting) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO room_settings (room_id, room_name, content_enabled, set_by, set_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (room_id) DO UPDATE SET
			room_name = EXCLUDED.room_name,
			content_enabled = EXCLUDED.content_enabled,
			set_by = EXCLUDED.set_by,
			set_at = EXCLUDED.set_at`,
		s.RoomID, s.RoomName, s.ContentEnabled, s.SetBy, s.SetAt,
	)
	if err != nil {
		return fmt.Errorf("upsert room setting: %w", err)
	}
	return nil
}

// DeleteBlacklisted prunes content rows matching any prefix or containing
// any pattern. Runs rarely; a sequential scan is fine at this scale.
func (r *StatsRepo) DeleteBlacklisted(ctx context.Context, prefixes, patterns []string) (int64, error) {
	var total int64
	for _, p := range prefixes {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM message_contents WHERE ltrim(content) LIKE $1 || '%'`, p)
		if err != nil {
			return total, fmt.Errorf("delete prefixed contents: %w", err)
		}
		total += tag.RowsAffected()
	}
	for _, p := range patterns {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM message_contents WHERE content LIKE '%' || $1 || '%'`, p)
		if err != nil {
			return total, fmt.Errorf("delete pattern contents: %w", err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}
