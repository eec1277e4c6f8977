package backend

import (
	"fmt"

	"fintrack/internal/config"
)

// FromAppConfig converts the application config to ledger config. A
// configured spreadsheet selects the Sheets ledger, otherwise rows are kept
// in memory.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	ledgerType := MemoryLedger
	if appConfig.GoogleSpreadsheetID != "" {
		ledgerType = SheetsLedger
	}

	return Config{
		Type:                     ledgerType,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the ledger configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid ledger type: %s", c.Type)
	}

	if c.Type == SheetsLedger {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets ledger")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return fmt.Errorf("service account credentials are required for sheets ledger")
		}
	}

	return nil
}
