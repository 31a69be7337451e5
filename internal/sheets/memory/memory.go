// Package memory is an in-process ledger used in development and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"saldo/internal/core"
	ports "saldo/internal/sheets"
)

var (
	_ ports.LedgerWriter = (*Ledger)(nil)
	_ ports.LedgerReader = (*Ledger)(nil)
)

type Ledger struct {
	mu   sync.Mutex
	rows map[int64][]string
}

func New() *Ledger {
	return &Ledger{rows: make(map[int64][]string)}
}

func (l *Ledger) UpsertTransactions(_ context.Context, txs []core.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, tx := range txs {
		l.rows[tx.ID] = ports.Row(tx)
	}
	return nil
}

func (l *Ledger) DeleteTransactions(_ context.Context, ids []int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		delete(l.rows, id)
	}
	return nil
}

// ListRows returns the header followed by rows ordered by id.
func (l *Ledger) ListRows(_ context.Context) ([][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]int64, 0, len(l.rows))
	for id := range l.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := [][]string{slices.Clone(ports.Header)}
	for _, id := range ids {
		out = append(out, slices.Clone(l.rows[id]))
	}
	return out, nil
}

// Len returns the number of mirrored transactions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}
