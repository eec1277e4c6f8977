package sheets

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter appends a stored transaction to an external ledger.
	LedgerWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// LedgerReader returns the rows previously appended to a ledger.
	LedgerReader interface {
		Rows(ctx context.Context) ([][]string, error)
	}
)

// Header is the column layout of a ledger sheet.
var Header = []string{"Date", "Description", "Amount", "Category", "Type", "Account", "Series", "ID"}

// Row renders a transaction in Header order.
func Row(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		t.Description,
		t.Amount.StringFixed(2),
		t.Category,
		string(t.Type),
		t.Account,
		t.SeriesID,
		fmt.Sprint(t.ID),
	}
}
