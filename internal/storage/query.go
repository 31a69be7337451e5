package storage

import (
	"strings"

	"saldo/internal/core"
)

// buildListQuery compiles q into a parameterized SELECT ordered by
// (date DESC, id DESC). User input only ever travels as arguments.
func buildListQuery(q core.TransactionQuery) (string, []any) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{q.UserID}
	)

	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(q.Type))
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if q.Recurrence != "" {
		where = append(where, "recurrence = ?")
		args = append(args, string(q.Recurrence))
	}
	if q.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, q.StartDate.String())
	}
	if q.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, q.EndDate.String())
	}
	if q.MinAmount != nil {
		where = append(where, "amount_cents >= ?")
		args = append(args, *q.MinAmount)
	}
	if q.MaxAmount != nil {
		where = append(where, "amount_cents <= ?")
		args = append(args, *q.MaxAmount)
	}
	if q.Search != "" {
		where = append(where, "instr(lower(title), lower(?)) > 0")
		args = append(args, q.Search)
	}
	if c := q.After; c != nil {
		where = append(where, "(date < ? OR (date = ? AND id < ?))")
		args = append(args, c.Date.String(), c.Date.String(), c.ID)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(transactionColumns)
	b.WriteString(" FROM transactions WHERE ")
	b.WriteString(strings.Join(where, " AND "))
	b.WriteString(" ORDER BY date DESC, id DESC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args
}
