package storage

import (
	"context"

	"saldo/internal/core"
)

// Users and goals are owned by other services; tests seed them directly.

func (r *SQLiteRepository) SetUserPlan(ctx context.Context, userID int64, plan core.Plan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, plan) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET plan = excluded.plan`,
		userID, string(plan))
	return err
}

func (r *SQLiteRepository) AddGoal(ctx context.Context, userID int64, title string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO goals (user_id, title) VALUES (?, ?)`, userID, title)
	return err
}
