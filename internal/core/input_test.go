package core

import (
	"errors"
	"testing"
)

func TestParseDeleteScope(t *testing.T) {
	cases := map[string]DeleteScope{"": DeleteOne, "one": DeleteOne, "ONE": DeleteOne, "all": DeleteAll, "All": DeleteAll}
	for in, want := range cases {
		got, err := ParseDeleteScope(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseDeleteScope("group"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateInputNewTransaction(t *testing.T) {
	in := CreateTransactionInput{Title: "  Rent ", Amount: 120000, Type: "EXPENSE", Category: " Home ", Date: "2025-03-01", Recurrence: "FIXED"}
	tx, err := in.NewTransaction(9)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if tx.Title != "Rent" || tx.Category != "Home" || tx.UserID != 9 || tx.Amount.Cents != 120000 || tx.Type != Expense {
		t.Fatalf("unexpected template %+v", tx)
	}

	_, err = CreateTransactionInput{Amount: 0, Type: "x", Date: "nope"}.NewTransaction(9)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"title", "amount", "type", "date"} {
		if len(ve.Fields[field]) == 0 {
			t.Fatalf("expected error on %s, got %+v", field, ve.Fields)
		}
	}
}

func TestCreateInputInstallmentBounds(t *testing.T) {
	cases := []struct {
		name  string
		total int
		ok    bool
	}{
		{"negative", -1, false},
		{"zero left to the classifier", 0, true},
		{"two", 2, true},
		{"upper bound", MaxInstallments, true},
		{"above upper bound", MaxInstallments + 1, false},
		{"huge", 2_000_000_000, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total := tc.total
			in := CreateTransactionInput{Title: "TV", Amount: 100000, Type: "EXPENSE", Date: "2025-01-10", Recurrence: "INSTALLMENT", TotalInstallment: &total}
			_, err := in.NewTransaction(1)
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || len(ve.Fields["totalInstallment"]) == 0 {
				t.Fatalf("expected totalInstallment error, got %v", err)
			}
		})
	}
}

func TestUpdateInputPatch(t *testing.T) {
	title := " New "
	p, err := UpdateTransactionInput{Title: &title}.Patch()
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if p.Title == nil || *p.Title != "New" || p.Amount != nil {
		t.Fatalf("unexpected patch %+v", p)
	}
	empty, _ := UpdateTransactionInput{}.Patch()
	if !empty.IsEmpty() {
		t.Fatalf("expected empty patch")
	}

	zero := int64(0)
	if _, err := (UpdateTransactionInput{Amount: &zero}).Patch(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	tx := Transaction{Title: "Old", Category: "c"}
	p.Apply(&tx)
	if tx.Title != "New" || tx.Category != "c" {
		t.Fatalf("apply got %+v", tx)
	}
}
