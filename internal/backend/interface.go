package backend

import (
	"context"

	"saldo/internal/services"
	"saldo/internal/sheets"
)

// Store is a transaction store the process owns and must close.
type Store interface {
	services.Store
	Ping(ctx context.Context) error
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Store Store
	// Events is nil when no broker is configured or reachable.
	Events  services.EventPublisher
	Cleanup CleanupFunc
}

// LedgerResult is the ledger the export worker writes to.
type LedgerResult struct {
	Ledger sheets.LedgerWriter
	Kind   string
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a store and event publisher for the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateLedger returns the Google Sheets ledger, or an in-memory one when
	// no spreadsheet is configured.
	CreateLedger(ctx context.Context, config Config) (*LedgerResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional event broker
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
