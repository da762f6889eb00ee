package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaybot.io/relaybot/internal/admin"
)

// AdminRepo implements admin.Repository.
type AdminRepo struct {
	pool *pgxpool.Pool
}

var _ admin.Repository = (*AdminRepo)(nil)

func (r *AdminRepo) Insert(ctx context.Context, a admin.Admin) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admins (hash, name, room_id, room_name, added_by, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.Hash, a.Name, a.RoomID, a.RoomName, a.AddedBy, a.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("insert admin: %w", mapInsertErr(err))
	}
	return nil
}

func (r *AdminRepo) Exists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE hash = $1)`, hash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin exists: %w", err)
	}
	return exists, nil
}

func (r *AdminRepo) Delete(ctx context.Context, hash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE hash = $1`, hash)
	if err != nil {
		return false, fmt.Errorf("delete admin: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AdminRepo) List(ctx context.Context) ([]admin.Admin, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT hash, name, room_id, room_name, added_by, added_at
		FROM admins
		ORDER BY room_name, name`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	admins, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (admin.Admin, error) {
		var a admin.Admin
		err := row.Scan(&a.Hash, &a.Name, &a.RoomID, &a.RoomName, &a.AddedBy, &a.AddedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan admins: %w", err)
	}
	return admins, nil
}
