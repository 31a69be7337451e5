package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"saldo/internal/core"
	applog "saldo/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := r.queries.InsertTransaction(ctx, tx, r.now())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldTransactionID, created.ID,
		applog.FieldUserID, created.UserID,
		applog.FieldRecurrence, created.Recurrence,
		applog.FieldAmountCents, created.Amount.Cents,
		"date", created.Date.String())

	return created, nil
}

// CreateTransactionsBatch inserts every row in one SQL transaction; either
// all rows are stored or none.
func (r *SQLiteRepository) CreateTransactionsBatch(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer sqlTx.Rollback()

	q := r.queries.WithTx(sqlTx)
	now := r.now()
	out := make([]core.Transaction, 0, len(txs))
	for i, tx := range txs {
		created, err := q.InsertTransaction(ctx, tx, now)
		if err != nil {
			return nil, fmt.Errorf("create transaction %d of %d: %w", i+1, len(txs), err)
		}
		out = append(out, created)
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldRows, len(out))
	return out, nil
}

func (r *SQLiteRepository) FindTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

func (r *SQLiteRepository) FindTransactions(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, error) {
	query, args := buildListQuery(q)
	txs, err := r.queries.ListTransactions(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	tx, err := r.queries.UpdateTransaction(ctx, id, p, r.now())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	return tx, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, m core.GroupMatch) ([]int64, error) {
	ids, err := r.queries.DeleteGroup(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("delete installment group: %w", err)
	}
	slog.InfoContext(ctx, "Installment group deleted",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldUserID, m.UserID,
		"group_id", m.GroupID,
		applog.FieldRows, len(ids))
	return ids, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context, userID int64, from, to core.Date) (int, error) {
	n, err := r.queries.CountTransactionsBetween(ctx, userID, from, to)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountGoals(ctx context.Context, userID int64) (int, error) {
	n, err := r.queries.CountGoals(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count goals: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) GetUserPlan(ctx context.Context, userID int64) (core.Plan, bool, error) {
	plan, err := r.queries.GetUserPlan(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get user plan: %w", err)
	}
	return core.Plan(plan), true, nil
}
