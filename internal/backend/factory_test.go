package backend

import (
	"context"
	"strings"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want LedgerType
	}{
		{"no spreadsheet", &config.Config{}, MemoryLedger},
		{"spreadsheet", &config.Config{GoogleSpreadsheetID: "abc", GoogleServiceAccountJSON: "{}"}, SheetsLedger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if err != nil {
				t.Fatalf("FromAppConfig() error = %v", err)
			}
			if got.Type != tt.want {
				t.Errorf("Type = %s, want %s", got.Type, tt.want)
			}
		})
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryLedger}, ""},
		{"unknown type", Config{Type: "excel"}, "invalid ledger type"},
		{"sheets without id", Config{Type: SheetsLedger, GoogleServiceAccountJSON: "{}"}, "Spreadsheet ID is required"},
		{"sheets without credentials", Config{Type: SheetsLedger, GoogleSpreadsheetID: "abc"}, "credentials are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateLedger(t *testing.T) {
	f := NewFactory(nil)

	res, err := f.CreateLedger(context.Background(), Config{Type: MemoryLedger})
	if err != nil {
		t.Fatalf("CreateLedger(memory) error = %v", err)
	}
	if _, ok := res.Ledger.(*memory.Ledger); !ok || res.Type != MemoryLedger {
		t.Errorf("ledger = %T (%s)", res.Ledger, res.Type)
	}

	_, err = f.CreateLedger(context.Background(), Config{Type: SheetsLedger, GoogleSpreadsheetID: "abc", GoogleServiceAccountJSON: "not json"})
	if err == nil || !strings.Contains(err.Error(), "Google Sheets client") {
		t.Errorf("CreateLedger(bad credentials) error = %v", err)
	}
}
