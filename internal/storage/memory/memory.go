// Package memory is an in-process transaction store for development and
// tests. Contents are lost on restart.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"saldo/internal/core"
)

type Store struct {
	mu     sync.RWMutex
	nextID int64
	txs    map[int64]core.Transaction
	plans  map[int64]core.Plan
	goals  map[int64]int
	now    func() time.Time
}

func New() *Store {
	return &Store{
		txs:   make(map[int64]core.Transaction),
		plans: make(map[int64]core.Plan),
		goals: make(map[int64]int),
		now:   time.Now,
	}
}

// SetUserPlan registers a user with the given plan.
func (s *Store) SetUserPlan(userID int64, plan core.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[userID] = plan
}

// SetGoalCount fixes the number of goals the user owns.
func (s *Store) SetGoalCount(userID int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[userID] = n
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(tx), nil
}

// CreateTransactionsBatch inserts all rows under one lock.
func (s *Store) CreateTransactionsBatch(_ context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, s.insertLocked(tx))
	}
	return out, nil
}

func (s *Store) insertLocked(tx core.Transaction) core.Transaction {
	s.nextID++
	now := s.now().UTC()
	tx.ID = s.nextID
	tx.CreatedAt = now
	tx.UpdatedAt = now
	s.txs[tx.ID] = tx
	return tx
}

func (s *Store) FindTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (s *Store) FindTransactions(_ context.Context, q core.TransactionQuery) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Transaction
	for _, tx := range s.txs {
		if matches(tx, q) {
			out = append(out, tx)
		}
	}
	slices.SortFunc(out, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matches(tx core.Transaction, q core.TransactionQuery) bool {
	if tx.UserID != q.UserID {
		return false
	}
	if q.Type != "" && tx.Type != q.Type {
		return false
	}
	if q.Category != "" && tx.Category != q.Category {
		return false
	}
	if q.Recurrence != "" && tx.Recurrence != q.Recurrence {
		return false
	}
	if q.StartDate != nil && tx.Date.Compare(*q.StartDate) < 0 {
		return false
	}
	if q.EndDate != nil && tx.Date.Compare(*q.EndDate) > 0 {
		return false
	}
	if q.MinAmount != nil && tx.Amount.Cents < *q.MinAmount {
		return false
	}
	if q.MaxAmount != nil && tx.Amount.Cents > *q.MaxAmount {
		return false
	}
	if q.Search != "" && !strings.Contains(strings.ToLower(tx.Title), strings.ToLower(q.Search)) {
		return false
	}
	if c := q.After; c != nil {
		d := tx.Date.Compare(c.Date)
		if d > 0 || (d == 0 && tx.ID >= c.ID) {
			return false
		}
	}
	return true
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	p.Apply(&tx)
	tx.UpdatedAt = s.now().UTC()
	s.txs[id] = tx
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) DeleteTransactions(_ context.Context, m core.GroupMatch) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for id, tx := range s.txs {
		if groupMatches(tx, m) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(s.txs, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func groupMatches(tx core.Transaction, m core.GroupMatch) bool {
	if tx.UserID != m.UserID || tx.Recurrence != core.RecurrenceInstallment {
		return false
	}
	if m.GroupID != "" {
		return tx.InstallmentGroupID == m.GroupID
	}
	return tx.Title == m.Title && tx.TotalInstallment != nil && *tx.TotalInstallment == m.TotalInstallment
}

func (s *Store) CountTransactions(_ context.Context, userID int64, from, to core.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.Date.Compare(from) >= 0 && tx.Date.Compare(to) <= 0 {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountGoals(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goals[userID], nil
}

func (s *Store) GetUserPlan(_ context.Context, userID int64) (core.Plan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[userID]
	return p, ok, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
