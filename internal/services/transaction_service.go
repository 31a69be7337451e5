package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"saldo/internal/amqp"
	"saldo/internal/core"
	applog "saldo/internal/log"
)

// Store is the persistence collaborator of the transaction service.
type Store interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	// CreateTransactionsBatch stores all rows or none.
	CreateTransactionsBatch(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error)
	FindTransaction(ctx context.Context, id int64) (core.Transaction, error)
	FindTransactions(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	DeleteTransactions(ctx context.Context, m core.GroupMatch) ([]int64, error)
	CountTransactions(ctx context.Context, userID int64, from, to core.Date) (int, error)
	CountGoals(ctx context.Context, userID int64) (int, error)
	GetUserPlan(ctx context.Context, userID int64) (core.Plan, bool, error)
}

// QuotaChecker is satisfied by *quota.Gate.
type QuotaChecker interface {
	Check(ctx context.Context, userID int64, kind core.QuotaKind, amountToAdd int) error
}

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error
}

// TransactionService owns the transaction lifecycle: quota check, recurrence
// handling, installment expansion, mutation rules and event publication.
type TransactionService struct {
	store      Store
	quota      QuotaChecker
	events     EventPublisher
	newGroupID func() string
}

// NewTransactionService wires the service. events may be nil, in which case
// lifecycle events are skipped.
func NewTransactionService(store Store, quota QuotaChecker, events EventPublisher) *TransactionService {
	return &TransactionService{
		store:      store,
		quota:      quota,
		events:     events,
		newGroupID: uuid.NewString,
	}
}

// Create stores a new transaction. INSTALLMENT requests expand into one row
// per installment, all sharing a group id.
func (s *TransactionService) Create(ctx context.Context, userID int64, in core.CreateTransactionInput) ([]core.Transaction, error) {
	tmpl, err := in.NewTransaction(userID)
	if err != nil {
		return nil, err
	}

	amountToAdd := 1
	if in.Recurrence == string(core.RecurrenceInstallment) {
		amountToAdd = max(1, in.InstallmentCount())
	}
	if err := s.quota.Check(ctx, userID, core.QuotaTransactions, amountToAdd); err != nil {
		return nil, err
	}

	rec, err := core.ClassifyRecurrence(in.Recurrence)
	if err != nil {
		return nil, err
	}

	var created []core.Transaction
	switch rec {
	case core.RecurrenceOneTime, core.RecurrenceFixed:
		tmpl.Recurrence = rec
		row, err := s.store.CreateTransaction(ctx, tmpl)
		if err != nil {
			return nil, fmt.Errorf("save transaction: %w", err)
		}
		created = []core.Transaction{row}
	case core.RecurrenceInstallment:
		created, err = s.createInstallments(ctx, tmpl, in.InstallmentCount())
		if err != nil {
			return nil, err
		}
	default:
		return nil, core.ErrInvalidRecurrence
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentTransactions).
		WithOperation(applog.OpCreate).
		WithTransaction(userID, created[0].ID, string(rec))
	fields[applog.FieldRows] = len(created)
	slog.InfoContext(ctx, "Transaction created", fields.ToSlice()...)

	s.publish(ctx, amqp.EventTransactionCreated, userID, ids(created), created[0].InstallmentGroupID)
	return created, nil
}

func (s *TransactionService) createInstallments(ctx context.Context, tmpl core.Transaction, count int) ([]core.Transaction, error) {
	parts, err := core.SplitInstallments(tmpl.Amount, count, tmpl.Date)
	if err != nil {
		return nil, err
	}

	groupID := s.newGroupID()
	rows := make([]core.Transaction, len(parts))
	for i, p := range parts {
		row := tmpl
		row.Recurrence = core.RecurrenceInstallment
		row.Amount = p.Amount
		row.Date = p.Date
		total, index := count, p.Index
		row.TotalInstallment = &total
		row.InstallmentIndex = &index
		row.InstallmentGroupID = groupID
		rows[i] = row
	}

	created, err := s.store.CreateTransactionsBatch(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("save installments: %w", err)
	}
	return created, nil
}

// Get returns the transaction if it exists and belongs to userID.
func (s *TransactionService) Get(ctx context.Context, id, userID int64) (core.Transaction, error) {
	return s.owned(ctx, id, userID)
}

// Update changes the scalar fields of a transaction. Recurrence and the
// installment structure cannot change after creation.
func (s *TransactionService) Update(ctx context.Context, id, userID int64, in core.UpdateTransactionInput) (core.Transaction, error) {
	cur, err := s.owned(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, err
	}

	if in.Recurrence != nil && *in.Recurrence != string(cur.Recurrence) {
		return core.Transaction{}, core.ErrRecurrenceImmutable
	}
	if cur.IsInstallment() {
		if changed(in.InstallmentIndex, cur.InstallmentIndex) || changed(in.TotalInstallment, cur.TotalInstallment) {
			return core.Transaction{}, core.ErrInstallmentStructureImmutable
		}
	}

	patch, err := in.Patch()
	if err != nil {
		return core.Transaction{}, err
	}
	if patch.IsEmpty() {
		return cur, nil
	}

	updated, err := s.store.UpdateTransaction(ctx, id, patch)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", applog.NewFields().
		WithComponent(applog.ComponentTransactions).
		WithOperation(applog.OpUpdate).
		WithTransaction(userID, id, string(updated.Recurrence)).
		ToSlice()...)
	s.publish(ctx, amqp.EventTransactionUpdated, userID, []int64{id}, updated.InstallmentGroupID)
	return updated, nil
}

func changed(requested, stored *int) bool {
	if requested == nil {
		return false
	}
	return stored == nil || *requested != *stored
}

// Delete removes a transaction and returns how many rows went away. For
// installment rows, DeleteAll removes the whole plan; other rows ignore the
// scope.
func (s *TransactionService) Delete(ctx context.Context, id, userID int64, scope core.DeleteScope) (int64, error) {
	if scope != core.DeleteOne && scope != core.DeleteAll {
		return 0, core.FieldError("scope", "must be one or all")
	}

	cur, err := s.owned(ctx, id, userID)
	if err != nil {
		return 0, err
	}

	var removed []int64
	if cur.IsInstallment() && scope == core.DeleteAll {
		removed, err = s.store.DeleteTransactions(ctx, groupOf(cur))
		if err != nil {
			return 0, fmt.Errorf("delete installment group: %w", err)
		}
	} else {
		if err := s.store.DeleteTransaction(ctx, cur.ID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return 0, err
			}
			return 0, fmt.Errorf("delete transaction: %w", err)
		}
		removed = []int64{cur.ID}
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentTransactions).
		WithOperation(applog.OpDelete).
		WithTransaction(userID, id, string(cur.Recurrence))
	fields["scope"] = scope
	fields[applog.FieldRows] = len(removed)
	slog.InfoContext(ctx, "Transaction deleted", fields.ToSlice()...)

	if len(removed) > 0 {
		s.publish(ctx, amqp.EventTransactionDeleted, userID, removed, cur.InstallmentGroupID)
	}
	return int64(len(removed)), nil
}

// DeleteInstallmentGroup removes every installment of the plan id belongs to.
func (s *TransactionService) DeleteInstallmentGroup(ctx context.Context, id, userID int64) (int64, error) {
	return s.Delete(ctx, id, userID, core.DeleteAll)
}

// groupOf selects cur's plan by group id, or by title and count for rows
// stored before group ids existed.
func groupOf(cur core.Transaction) core.GroupMatch {
	m := core.GroupMatch{UserID: cur.UserID, GroupID: cur.InstallmentGroupID}
	if m.GroupID == "" {
		m.Title = cur.Title
		if cur.TotalInstallment != nil {
			m.TotalInstallment = *cur.TotalInstallment
		}
	}
	return m
}

// owned hides rows of other users behind ErrNotFound.
func (s *TransactionService) owned(ctx context.Context, id, userID int64) (core.Transaction, error) {
	tx, err := s.store.FindTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	if tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (s *TransactionService) publish(ctx context.Context, typ amqp.EventType, userID int64, ids []int64, groupID string) {
	if s.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping transaction event",
			applog.FieldComponent, applog.ComponentTransactions,
			"type", typ)
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(typ, userID, ids, groupID)); err != nil {
		// The mutation is already committed.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldComponent, applog.ComponentTransactions,
			applog.FieldErrorType, applog.ErrorTypeNetwork,
			"type", typ,
			"ids", ids,
			applog.FieldError, err)
	}
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}
