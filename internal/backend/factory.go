package backend

import (
	"context"
	"fmt"

	applog "fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new ledger factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentSheets),
	}
}

// CreateLedger implements Factory.CreateLedger
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (*LedgerResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsLedger:
		return f.createSheetsLedger(ctx, config)
	case MemoryLedger:
		return f.createMemoryLedger()
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsLedger(ctx context.Context, config Config) (*LedgerResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets ledger",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", cli.SheetName())

	return &LedgerResult{Ledger: cli, Type: SheetsLedger}, nil
}

func (f *DefaultFactory) createMemoryLedger() (*LedgerResult, error) {
	f.logger.Warn("No spreadsheet configured, ledger rows are kept in memory only")
	return &LedgerResult{Ledger: memory.New(), Type: MemoryLedger}, nil
}
