package memory

import (
	"context"
	"testing"

	"saldo/internal/core"
)

func TestLedgerUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	l := New()

	txs := []core.Transaction{
		{ID: 2, Title: "b", Amount: core.Money{Cents: 200}, Date: core.NewDate(2025, 1, 2), Recurrence: core.RecurrenceOneTime},
		{ID: 1, Title: "a", Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1), Recurrence: core.RecurrenceOneTime},
	}
	if err := l.UpsertTransactions(ctx, txs); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	txs[0].Title = "b2"
	if err := l.UpsertTransactions(ctx, txs[:1]); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	rows, _ := l.ListRows(ctx)
	if len(rows) != 3 || rows[0][0] != "ID" || rows[1][0] != "1" || rows[2][2] != "b2" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	if err := l.DeleteTransactions(ctx, []int64{1, 99}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 row left, got %d", l.Len())
	}
}
