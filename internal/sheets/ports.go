// Package sheets defines the ledger export ports and the row layout shared
// by every ledger adapter.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"saldo/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter mirrors transactions into an external ledger. Rows are
	// keyed by transaction id, so writes are idempotent.
	LedgerWriter interface {
		UpsertTransactions(ctx context.Context, txs []core.Transaction) error
		DeleteTransactions(ctx context.Context, ids []int64) error
	}

	// LedgerReader returns the ledger rows currently mirrored.
	LedgerReader interface {
		ListRows(ctx context.Context) ([][]string, error)
	}
)

// Header is the first row of a ledger sheet.
var Header = []string{"ID", "Date", "Title", "Type", "Category", "Recurrence", "Installment", "Amount", "Group", "User"}

// LastColumn is the column letter of the last Header entry.
const LastColumn = "J"

// Row renders tx in Header order.
func Row(tx core.Transaction) []string {
	installment := ""
	if tx.IsInstallment() && tx.InstallmentIndex != nil && tx.TotalInstallment != nil {
		installment = fmt.Sprintf("%d/%d", *tx.InstallmentIndex, *tx.TotalInstallment)
	}
	return []string{
		strconv.FormatInt(tx.ID, 10),
		tx.Date.String(),
		tx.Title,
		string(tx.Type),
		tx.Category,
		string(tx.Recurrence),
		installment,
		tx.Amount.String(),
		tx.InstallmentGroupID,
		strconv.FormatInt(tx.UserID, 10),
	}
}

// ParseID reads the id cell of a ledger row. Header and blank rows yield false.
func ParseID(cell string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
