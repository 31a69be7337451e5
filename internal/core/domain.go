package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	RecurrenceOneTime     Recurrence = "ONE_TIME"
	RecurrenceFixed       Recurrence = "FIXED"
	RecurrenceInstallment Recurrence = "INSTALLMENT"
)

// MaxTitleLength bounds transaction titles.
const MaxTitleLength = 200

type (
	TransactionType string

	// Recurrence classifies how a transaction repeats.
	Recurrence string

	Date struct {
		time.Time
	}

	// Money is an amount in minor units (cents).
	Money struct {
		Cents int64
	}

	Transaction struct {
		ID         int64           `json:"id"`
		UserID     int64           `json:"userId"`
		Title      string          `json:"title"`
		Amount     Money           `json:"amount"`
		Type       TransactionType `json:"type"`
		Category   string          `json:"category"`
		Date       Date            `json:"date"`
		Recurrence Recurrence      `json:"recurrence"`

		// Set only when Recurrence is INSTALLMENT.
		TotalInstallment   *int   `json:"totalInstallment"`
		InstallmentIndex   *int   `json:"installmentIndex"`
		InstallmentGroupID string `json:"installmentGroupId,omitempty"`

		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = fmt.Errorf("title too long (max %d characters)", MaxTitleLength)
	ErrZeroDate      = errors.New("date cannot be zero")
)

const dateLayout = "2006-01-02"

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp; only the calendar
// date is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrZeroDate
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Compare orders two dates by calendar day.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

// AddMonthsClamped moves the date n calendar months forward, keeping the day
// of month when the target month has it and clamping to its last day
// otherwise (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonthsClamped(n int) Date {
	first := time.Date(d.Year(), time.Month(d.Month())+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day()
	if last := DaysIn(first.Year(), int(first.Month())); day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// DaysIn returns the number of days of the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthBounds returns the first and last calendar day of the month containing d.
func MonthBounds(d Date) (Date, Date) {
	return NewDate(d.Year(), d.Month(), 1), NewDate(d.Year(), d.Month(), DaysIn(d.Year(), d.Month()))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount with two decimals, e.g. 1234 -> "12.34".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Cents)
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &m.Cents)
}

// ParseTransactionType validates a wire value.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

// ValidateTitle trims the title and checks its bounds.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// IsInstallment reports whether the row belongs to an installment plan.
func (t Transaction) IsInstallment() bool {
	return t.Recurrence == RecurrenceInstallment
}

func (t Transaction) Validate() error {
	if _, err := ValidateTitle(t.Title); err != nil {
		return err
	}
	// Installment rows may be 0 when the total is smaller than the count.
	if t.Amount.Cents < 0 || (t.Amount.Cents == 0 && !t.IsInstallment()) {
		return ErrInvalidAmount
	}
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	switch t.Recurrence {
	case RecurrenceOneTime, RecurrenceFixed:
		if t.TotalInstallment != nil || t.InstallmentIndex != nil || t.InstallmentGroupID != "" {
			return errors.New("installment fields set on a non-installment transaction")
		}
	case RecurrenceInstallment:
		if t.TotalInstallment == nil || t.InstallmentIndex == nil {
			return errors.New("installment transaction without installment fields")
		}
		if *t.TotalInstallment < 2 || *t.TotalInstallment > MaxInstallments {
			return ErrInvalidInstallmentCount
		}
		if *t.InstallmentIndex < 1 || *t.InstallmentIndex > *t.TotalInstallment {
			return fmt.Errorf("installment index %d out of range 1..%d", *t.InstallmentIndex, *t.TotalInstallment)
		}
	default:
		return ErrInvalidRecurrence
	}
	return nil
}
