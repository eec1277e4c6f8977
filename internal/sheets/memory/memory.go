package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Ledger keeps appended rows in process. It stands in for a spreadsheet when
// none is configured.
type Ledger struct {
	mu   sync.Mutex
	rows [][]string
	ids  map[int64]int
}

var (
	_ ports.LedgerWriter = (*Ledger)(nil)
	_ ports.LedgerReader = (*Ledger)(nil)
)

func New() *Ledger {
	return &Ledger{ids: map[int64]int{}}
}

// Append stores the transaction and returns a synthetic row reference.
// Appending the same transaction twice returns the original reference.
func (l *Ledger) Append(_ context.Context, t core.Transaction) (string, error) {
	if t.ID <= 0 {
		return "", fmt.Errorf("transaction has no id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, ok := l.ids[t.ID]; ok {
		return fmt.Sprintf("mem:%d", n), nil
	}
	l.rows = append(l.rows, ports.Row(t))
	l.ids[t.ID] = len(l.rows)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// Rows returns the header followed by a copy of every stored row.
func (l *Ledger) Rows(_ context.Context) ([][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]string, 0, len(l.rows)+1)
	out = append(out, append([]string(nil), ports.Header...))
	for _, r := range l.rows {
		out = append(out, append([]string(nil), r...))
	}
	return out, nil
}
