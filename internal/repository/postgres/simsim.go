package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaybot.io/relaybot/internal/simsim"
)

// SimSimRepo implements simsim.Repository.
type SimSimRepo struct {
	pool *pgxpool.Pool
}

var _ simsim.Repository = (*SimSimRepo)(nil)

func (r *SimSimRepo) Insert(ctx context.Context, e simsim.Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO simsim_entries (prompt, response, created_by, created_at)
		VALUES ($1, $2, $3, $4)`,
		e.Prompt, e.Response, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert learned reply: %w", mapInsertErr(err))
	}
	return nil
}

func (r *SimSimRepo) DeleteResponse(ctx context.Context, prompt, response string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM simsim_entries WHERE prompt = $1 AND response = $2`,
		prompt, response,
	)
	if err != nil {
		return false, fmt.Errorf("delete learned reply: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SimSimRepo) DeleteAll(ctx context.Context, prompt string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM simsim_entries WHERE prompt = $1`, prompt,
	)
	if err != nil {
		return 0, fmt.Errorf("delete learned replies: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SimSimRepo) Responses(ctx context.Context, prompt string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT response FROM simsim_entries WHERE prompt = $1 ORDER BY response`, prompt)
	if err != nil {
		return nil, fmt.Errorf("query learned replies: %w", err)
	}
	defer rows.Close()

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var resp string
		err := row.Scan(&resp)
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan learned replies: %w", err)
	}
	return out, nil
}

func (r *SimSimRepo) Count(ctx context.Context, prompt string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM simsim_entries WHERE prompt = $1`, prompt,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count learned replies: %w", err)
	}
	return n, nil
}

func (r *SimSimRepo) TopPrompts(ctx context.Context, limit int) ([]simsim.PromptCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT prompt, COUNT(*)
		FROM simsim_entries
		GROUP BY prompt
		ORDER BY COUNT(*) DESC, prompt
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top prompts: %w", err)
	}
	defer rows.Close()

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (simsim.PromptCount, error) {
		var pc simsim.PromptCount
		err := row.Scan(&pc.Prompt, &pc.Count)
		return pc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan top prompts: %w", err)
	}
	return out, nil
}
