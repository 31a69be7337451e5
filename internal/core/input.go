package core

import (
	"fmt"
	"strings"
)

// List page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// MaxInstallments bounds the rows a single installment plan can create.
const MaxInstallments = 360

type DeleteScope string

const (
	DeleteOne DeleteScope = "ONE"
	DeleteAll DeleteScope = "ALL"
)

// CreateTransactionInput is the create request as received on the wire.
// Installment index and group id are never accepted from clients.
type CreateTransactionInput struct {
	Title            string `json:"title"`
	Amount           int64  `json:"amount"`
	Type             string `json:"type"`
	Category         string `json:"category"`
	Date             string `json:"date"`
	Recurrence       string `json:"recurrence"`
	TotalInstallment *int   `json:"totalInstallment,omitempty"`
}

// UpdateTransactionInput carries only the fields the client sent.
type UpdateTransactionInput struct {
	Title            *string `json:"title,omitempty"`
	Amount           *int64  `json:"amount,omitempty"`
	Type             *string `json:"type,omitempty"`
	Category         *string `json:"category,omitempty"`
	Date             *string `json:"date,omitempty"`
	Recurrence       *string `json:"recurrence,omitempty"`
	TotalInstallment *int    `json:"totalInstallment,omitempty"`
	InstallmentIndex *int    `json:"installmentIndex,omitempty"`
}

// ListTransactionsInput holds decoded list filters. Nil and empty mean unset.
type ListTransactionsInput struct {
	Limit      *int
	Cursor     *int64
	StartDate  *Date
	EndDate    *Date
	Type       string
	Category   string
	Recurrence string
	MinAmount  *int64
	MaxAmount  *int64
	Search     string
}

// TransactionPatch is the validated set of scalar fields to change.
type TransactionPatch struct {
	Title    *string
	Amount   *Money
	Type     *TransactionType
	Category *string
	Date     *Date
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Type == nil && p.Category == nil && p.Date == nil
}

// Apply copies the set fields onto t.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
}

// Cursor is a keyset position in (date DESC, id DESC) order.
type Cursor struct {
	Date Date
	ID   int64
}

// TransactionQuery is a compiled, validated list query for storage.
type TransactionQuery struct {
	UserID     int64
	Type       TransactionType
	Category   string
	Recurrence Recurrence
	StartDate  *Date
	EndDate    *Date
	MinAmount  *int64
	MaxAmount  *int64
	Search     string
	After      *Cursor
	Limit      int
}

// GroupMatch selects the rows of one installment plan. GroupID wins when
// set; otherwise rows are matched by user, title and installment count.
type GroupMatch struct {
	UserID           int64
	GroupID          string
	Title            string
	TotalInstallment int
}

type TransactionPage struct {
	Items      []Transaction `json:"items"`
	NextCursor *int64        `json:"nextCursor"`
}

// ParseDeleteScope maps "", "one" and "all" (any case) to a scope.
func ParseDeleteScope(s string) (DeleteScope, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(DeleteOne):
		return DeleteOne, nil
	case string(DeleteAll):
		return DeleteAll, nil
	default:
		return "", FieldError("scope", "must be one or all")
	}
}

// NewTransaction validates the scalar fields of a create request and returns
// the row template shared by every row it produces.
func (in CreateTransactionInput) NewTransaction(userID int64) (Transaction, error) {
	v := NewValidationError()

	title, err := ValidateTitle(in.Title)
	if err != nil {
		v.Add("title", err.Error())
	}
	amount := Money{Cents: in.Amount}
	if amount.Validate() != nil {
		v.Add("amount", "must be greater than 0")
	}
	typ, err := ParseTransactionType(in.Type)
	if err != nil {
		v.Add("type", "must be INCOME or EXPENSE")
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		v.Add("date", "must be a valid date (YYYY-MM-DD)")
	}
	if in.TotalInstallment != nil {
		switch n := *in.TotalInstallment; {
		case n < 0:
			v.Add("totalInstallment", "must not be negative")
		case n > MaxInstallments:
			v.Add("totalInstallment", fmt.Sprintf("must be at most %d", MaxInstallments))
		}
	}
	if err := v.Err(); err != nil {
		return Transaction{}, err
	}

	return Transaction{
		UserID:   userID,
		Title:    title,
		Amount:   amount,
		Type:     typ,
		Category: strings.TrimSpace(in.Category),
		Date:     date,
	}, nil
}

// InstallmentCount returns the requested count, 0 when absent.
func (in CreateTransactionInput) InstallmentCount() int {
	if in.TotalInstallment == nil {
		return 0
	}
	return *in.TotalInstallment
}

// Patch validates the provided scalar fields. Recurrence and installment
// fields are checked by the caller against the stored row.
func (in UpdateTransactionInput) Patch() (TransactionPatch, error) {
	var p TransactionPatch
	v := NewValidationError()

	if in.Title != nil {
		title, err := ValidateTitle(*in.Title)
		if err != nil {
			v.Add("title", err.Error())
		} else {
			p.Title = &title
		}
	}
	if in.Amount != nil {
		m := Money{Cents: *in.Amount}
		if m.Validate() != nil {
			v.Add("amount", "must be greater than 0")
		} else {
			p.Amount = &m
		}
	}
	if in.Type != nil {
		typ, err := ParseTransactionType(*in.Type)
		if err != nil {
			v.Add("type", "must be INCOME or EXPENSE")
		} else {
			p.Type = &typ
		}
	}
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		p.Category = &c
	}
	if in.Date != nil {
		d, err := ParseDate(*in.Date)
		if err != nil {
			v.Add("date", "must be a valid date (YYYY-MM-DD)")
		} else {
			p.Date = &d
		}
	}
	if err := v.Err(); err != nil {
		return TransactionPatch{}, err
	}
	return p, nil
}
