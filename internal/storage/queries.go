package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"saldo/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the statements used by the repository; WithTx rebinds them
// to a transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const transactionColumns = `id, user_id, title, amount_cents, type, category, date, recurrence,
	total_installment, installment_index, installment_group_id, created_at, updated_at`

const timestampLayout = time.RFC3339Nano

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		typ, rec             string
		date                 string
		total, index         sql.NullInt64
		groupID              sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&tx.ID, &tx.UserID, &tx.Title, &tx.Amount.Cents, &typ, &tx.Category, &date, &rec,
		&total, &index, &groupID, &createdAt, &updatedAt); err != nil {
		return core.Transaction{}, err
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", tx.ID, err)
	}
	tx.Date = d
	tx.Type = core.TransactionType(typ)
	tx.Recurrence = core.Recurrence(rec)
	if total.Valid {
		v := int(total.Int64)
		tx.TotalInstallment = &v
	}
	if index.Valid {
		v := int(index.Int64)
		tx.InstallmentIndex = &v
	}
	tx.InstallmentGroupID = groupID.String
	tx.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	tx.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)
	return tx, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const insertTransaction = `INSERT INTO transactions (
	user_id, title, amount_cents, type, category, date, recurrence,
	total_installment, installment_index, installment_group_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

func (q *Queries) InsertTransaction(ctx context.Context, tx core.Transaction, now time.Time) (core.Transaction, error) {
	ts := now.UTC().Format(timestampLayout)
	row := q.db.QueryRowContext(ctx, insertTransaction,
		tx.UserID, tx.Title, tx.Amount.Cents, string(tx.Type), tx.Category, tx.Date.String(), string(tx.Recurrence),
		nullInt(tx.TotalInstallment), nullInt(tx.InstallmentIndex), nullString(tx.InstallmentGroupID), ts, ts)
	return scanTransaction(row)
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, err
}

func (q *Queries) ListTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

const updateTransaction = `UPDATE transactions SET
	title = COALESCE(?, title),
	amount_cents = COALESCE(?, amount_cents),
	type = COALESCE(?, type),
	category = COALESCE(?, category),
	date = COALESCE(?, date),
	updated_at = ?
WHERE id = ?
RETURNING ` + transactionColumns

func (q *Queries) UpdateTransaction(ctx context.Context, id int64, p core.TransactionPatch, now time.Time) (core.Transaction, error) {
	var title, typ, category, date sql.NullString
	var amount sql.NullInt64
	if p.Title != nil {
		title = sql.NullString{String: *p.Title, Valid: true}
	}
	if p.Amount != nil {
		amount = sql.NullInt64{Int64: p.Amount.Cents, Valid: true}
	}
	if p.Type != nil {
		typ = sql.NullString{String: string(*p.Type), Valid: true}
	}
	if p.Category != nil {
		category = sql.NullString{String: *p.Category, Valid: true}
	}
	if p.Date != nil {
		date = sql.NullString{String: p.Date.String(), Valid: true}
	}

	tx, err := scanTransaction(q.db.QueryRowContext(ctx, updateTransaction,
		title, amount, typ, category, date, now.UTC().Format(timestampLayout), id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, err
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteGroupByID = `DELETE FROM transactions
WHERE user_id = ? AND recurrence = 'INSTALLMENT' AND installment_group_id = ?
RETURNING id`

const deleteGroupLegacy = `DELETE FROM transactions
WHERE user_id = ? AND recurrence = 'INSTALLMENT' AND title = ? AND total_installment = ?
RETURNING id`

func (q *Queries) DeleteGroup(ctx context.Context, m core.GroupMatch) ([]int64, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if m.GroupID != "" {
		rows, err = q.db.QueryContext(ctx, deleteGroupByID, m.UserID, m.GroupID)
	} else {
		rows, err = q.db.QueryContext(ctx, deleteGroupLegacy, m.UserID, m.Title, m.TotalInstallment)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) CountTransactionsBetween(ctx context.Context, userID int64, from, to core.Date) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, from.String(), to.String()).Scan(&n)
	return n, err
}

func (q *Queries) CountGoals(ctx context.Context, userID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (q *Queries) GetUserPlan(ctx context.Context, userID int64) (string, error) {
	var plan string
	err := q.db.QueryRowContext(ctx, `SELECT plan FROM users WHERE id = ?`, userID).Scan(&plan)
	return plan, err
}
