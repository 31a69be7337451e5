package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"saldo/internal/core"
)

// errCursorGone marks a cursor whose row was deleted or is not the caller's.
var errCursorGone = errors.New("cursor row not found")

// List returns one page of the user's transactions, newest first. A cursor
// that no longer resolves ends the listing with an empty page.
func (s *TransactionService) List(ctx context.Context, userID int64, in core.ListTransactionsInput) (core.TransactionPage, error) {
	q, err := s.compileQuery(ctx, userID, in)
	if errors.Is(err, errCursorGone) {
		return core.TransactionPage{Items: []core.Transaction{}}, nil
	}
	if err != nil {
		return core.TransactionPage{}, err
	}
	limit := q.Limit - 1

	rows, err := s.store.FindTransactions(ctx, q)
	if err != nil {
		return core.TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}

	page := core.TransactionPage{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		next := page.Items[limit-1].ID
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []core.Transaction{}
	}
	return page, nil
}

// compileQuery validates the filters and resolves the cursor. The returned
// query asks for one row more than the page size to detect a next page.
func (s *TransactionService) compileQuery(ctx context.Context, userID int64, in core.ListTransactionsInput) (core.TransactionQuery, error) {
	q := core.TransactionQuery{
		UserID:    userID,
		Category:  strings.TrimSpace(in.Category),
		Search:    strings.TrimSpace(in.Search),
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		MinAmount: in.MinAmount,
		MaxAmount: in.MaxAmount,
	}
	v := core.NewValidationError()

	limit := core.DefaultPageSize
	if in.Limit != nil {
		limit = *in.Limit
		if limit < 1 || limit > core.MaxPageSize {
			v.Add("limit", fmt.Sprintf("must be between 1 and %d", core.MaxPageSize))
		}
	}
	q.Limit = limit + 1

	if in.Type != "" {
		typ, err := core.ParseTransactionType(in.Type)
		if err != nil {
			v.Add("type", "must be INCOME or EXPENSE")
		}
		q.Type = typ
	}
	if in.Recurrence != "" {
		rec, err := core.ClassifyRecurrence(in.Recurrence)
		if err != nil {
			v.Add("recurrence", "must be ONE_TIME, FIXED or INSTALLMENT")
		}
		q.Recurrence = rec
	}
	if in.StartDate != nil && in.EndDate != nil && in.StartDate.Compare(*in.EndDate) > 0 {
		v.Add("startDate", "must be on or before endDate")
	}
	if in.MinAmount != nil && *in.MinAmount < 0 {
		v.Add("minAmount", "must not be negative")
	}
	if in.MaxAmount != nil && *in.MaxAmount < 0 {
		v.Add("maxAmount", "must not be negative")
	}
	if in.MinAmount != nil && in.MaxAmount != nil && *in.MinAmount > *in.MaxAmount {
		v.Add("minAmount", "must not exceed maxAmount")
	}
	if err := v.Err(); err != nil {
		return core.TransactionQuery{}, err
	}

	if in.Cursor != nil {
		c, err := s.store.FindTransaction(ctx, *in.Cursor)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return core.TransactionQuery{}, fmt.Errorf("load cursor: %w", err)
		}
		if err != nil || c.UserID != userID {
			return core.TransactionQuery{}, errCursorGone
		}
		q.After = &core.Cursor{Date: c.Date, ID: c.ID}
	}
	return q, nil
}
