package sheets

import (
	"testing"

	"saldo/internal/core"
)

func TestRowLayout(t *testing.T) {
	total, idx := 3, 2
	tx := core.Transaction{
		ID: 41, UserID: 7, Title: "Bike", Amount: core.Money{Cents: 3333}, Type: core.Expense,
		Category: "Sport", Date: core.NewDate(2025, 2, 28), Recurrence: core.RecurrenceInstallment,
		TotalInstallment: &total, InstallmentIndex: &idx, InstallmentGroupID: "g-1",
	}
	got := Row(tx)
	want := []string{"41", "2025-02-28", "Bike", "EXPENSE", "Sport", "INSTALLMENT", "2/3", "33.33", "g-1", "7"}
	if len(got) != len(Header) {
		t.Fatalf("row has %d cells, header has %d", len(got), len(Header))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cell %s: got %q want %q", Header[i], got[i], want[i])
		}
	}

	plain := Row(core.Transaction{ID: 1, Recurrence: core.RecurrenceFixed, Amount: core.Money{Cents: 5}})
	if plain[6] != "" || plain[7] != "0.05" {
		t.Fatalf("unexpected plain row %v", plain)
	}
}

func TestParseID(t *testing.T) {
	cases := map[string]bool{"12": true, " 3 ": true, "ID": false, "": false, "0": false, "-4": false}
	for in, ok := range cases {
		if _, got := ParseID(in); got != ok {
			t.Fatalf("%q: got %v want %v", in, got, ok)
		}
	}
}
