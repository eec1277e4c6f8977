package backend

import (
	"context"

	"fintrack/internal/sheets"
)

// Ledger is an external ledger the worker can both append to and read back.
type Ledger interface {
	sheets.LedgerWriter
	sheets.LedgerReader
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// LedgerResult contains the ledger instance and optional cleanup function
type LedgerResult struct {
	Ledger  Ledger
	Type    LedgerType
	Cleanup CleanupFunc
}

// Factory creates ledgers based on configuration
type Factory interface {
	CreateLedger(ctx context.Context, config Config) (*LedgerResult, error)
}

// Config holds configuration for ledger creation
type Config struct {
	Type LedgerType

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// LedgerType represents the type of ledger
type LedgerType string

const (
	SheetsLedger LedgerType = "sheets"
	MemoryLedger LedgerType = "memory"
)

// String implements fmt.Stringer
func (lt LedgerType) String() string {
	return string(lt)
}

// IsValid returns true if the ledger type is valid
func (lt LedgerType) IsValid() bool {
	switch lt {
	case SheetsLedger, MemoryLedger:
		return true
	default:
		return false
	}
}
