package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation                    = errors.New("validation error")
	ErrNotFound                      = errors.New("transaction not found")
	ErrQuotaExceeded                 = errors.New("plan limit exceeded")
	ErrInvalidRecurrence             = errors.New("invalid recurrence type")
	ErrInvalidInstallmentCount       = fmt.Errorf("installment transactions require totalInstallment between 2 and %d", MaxInstallments)
	ErrRecurrenceImmutable           = errors.New("recurrence cannot be changed; delete and recreate the transaction")
	ErrInstallmentStructureImmutable = errors.New("installment structure cannot be modified")
)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty error ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// FieldError builds a single-field validation error.
func FieldError(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Err returns nil when no field failed.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// QuotaExceededError reports which plan limit blocked a mutation.
type QuotaExceededError struct {
	Kind  QuotaKind
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("plan limit reached: %s (max %d)", e.Kind, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
