package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func rent(date core.Date, seriesID string) core.Transaction {
	return core.Transaction{
		SeriesID:    seriesID,
		UserID:      1,
		Date:        date,
		Description: "Rent",
		Amount:      decimal.RequireFromString("950.00"),
		Category:    "Bills & Utilities",
		Type:        core.Expense,
		Account:     "Bank",
		Recurring:   true,
		Frequency:   core.Monthly,
	}
}

func TestCreateAndGetTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := rent(core.NewDate(2024, 1, 31), "s-1")
	in.EndDate = core.NewDate(2024, 12, 31)
	in.Notes = "landlord"
	created, err := repo.CreateTransaction(ctx, in)
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected created_at to be populated")
	}

	got, err := repo.GetTransaction(ctx, created.ID, 1)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Date != in.Date || got.EndDate != in.EndDate || got.SeriesID != "s-1" || !got.Recurring ||
		got.Frequency != core.Monthly || !got.Amount.Equal(in.Amount) || got.Notes != "landlord" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := repo.GetTransaction(ctx, created.ID, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user's lookup: got %v, want ErrNotFound", err)
	}
	if _, err := repo.GetTransaction(ctx, created.ID, 0); err != nil {
		t.Fatalf("unscoped lookup: %v", err)
	}
}

func TestListDueCandidates_LatestPerSeries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, d := range []core.Date{core.NewDate(2024, 1, 31), core.NewDate(2024, 2, 29), core.NewDate(2024, 3, 29)} {
		if _, err := repo.CreateTransaction(ctx, rent(d, "s-1")); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	ended := rent(core.NewDate(2024, 1, 1), "s-2")
	ended.EndDate = core.NewDate(2024, 2, 1)
	if _, err := repo.CreateTransaction(ctx, ended); err != nil {
		t.Fatalf("seed: %v", err)
	}
	other := rent(core.NewDate(2024, 3, 1), "s-3")
	other.UserID = 2
	if _, err := repo.CreateTransaction(ctx, other); err != nil {
		t.Fatalf("seed: %v", err)
	}
	oneOff := rent(core.NewDate(2024, 3, 5), "")
	oneOff.Recurring = false
	oneOff.Frequency = ""
	if _, err := repo.CreateTransaction(ctx, oneOff); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := repo.ListDueCandidates(ctx, core.NewDate(2024, 4, 10), 1)
	if err != nil {
		t.Fatalf("ListDueCandidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].SeriesID != "s-1" || got[0].LastOccurrence != "2024-03-29" || got[0].Frequency != core.Monthly {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}

	all, err := repo.ListDueCandidates(ctx, core.NewDate(2024, 4, 10), 0)
	if err != nil {
		t.Fatalf("ListDueCandidates unscoped: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 unscoped candidates, got %d", len(all))
	}

	series, err := repo.ListSeries(ctx, 1)
	if err != nil {
		t.Fatalf("ListSeries: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("ListSeries should include ended-by-date series, got %d", len(series))
	}
}

func TestInsertMaterialized_Duplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	req := core.MaterializationRequest{
		SeriesID:    "s-1",
		SourceID:    1,
		UserID:      1,
		Date:        core.NewDate(2024, 2, 29),
		Description: "Rent",
		Amount:      decimal.RequireFromString("950"),
		Category:    "Bills & Utilities",
		Type:        core.Expense,
		Account:     "Bank",
		Recurring:   true,
		Frequency:   core.Monthly,
	}
	created, err := repo.InsertMaterialized(ctx, req)
	if err != nil {
		t.Fatalf("InsertMaterialized: %v", err)
	}
	if created.ID == 0 || created.Date != req.Date || !created.Recurring {
		t.Fatalf("unexpected row: %+v", created)
	}

	if _, err := repo.InsertMaterialized(ctx, req); !errors.Is(err, ErrOccurrenceExists) {
		t.Fatalf("second insert: got %v, want ErrOccurrenceExists", err)
	}
}

func TestStopSeries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, d := range []core.Date{core.NewDate(2024, 1, 1), core.NewDate(2024, 2, 1)} {
		if _, err := repo.CreateTransaction(ctx, rent(d, "s-1")); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if _, err := repo.StopSeries(ctx, "s-1", 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user stop: got %v, want ErrNotFound", err)
	}
	n, err := repo.StopSeries(ctx, "s-1", 1)
	if err != nil {
		t.Fatalf("StopSeries: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows changed = %d, want 2", n)
	}

	got, err := repo.ListDueCandidates(ctx, core.NewDate(2024, 6, 1), 0)
	if err != nil {
		t.Fatalf("ListDueCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("stopped series still listed: %+v", got)
	}
}

func TestDeleteTransaction_LatestEndsSeries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateTransaction(ctx, rent(core.NewDate(2024, 1, 1), "s-1"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	latest, err := repo.CreateTransaction(ctx, rent(core.NewDate(2024, 2, 1), "s-1"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := repo.DeleteTransaction(ctx, latest.ID, 1); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, latest.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}

	remaining, err := repo.GetTransaction(ctx, first.ID, 1)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if remaining.Recurring {
		t.Fatal("deleting the latest occurrence should end the series")
	}
}

func TestDeleteTransaction_OlderKeepsSeries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateTransaction(ctx, rent(core.NewDate(2024, 1, 1), "s-1"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, rent(core.NewDate(2024, 2, 1), "s-1")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := repo.DeleteTransaction(ctx, first.ID, 1); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	got, err := repo.ListDueCandidates(ctx, core.NewDate(2024, 3, 1), 1)
	if err != nil {
		t.Fatalf("ListDueCandidates: %v", err)
	}
	if len(got) != 1 || got[0].LastOccurrence != "2024-02-01" {
		t.Fatalf("series should survive: %+v", got)
	}
}

func TestFinancialSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Transaction{
		{UserID: 1, Date: core.NewDate(2024, 3, 1), Description: "Salary", Amount: decimal.RequireFromString("3000"), Category: "Salary", Type: core.Income, Account: "Bank"},
		{UserID: 1, Date: core.NewDate(2024, 3, 3), Description: "Groceries", Amount: decimal.RequireFromString("82.45"), Category: "Shopping", Type: core.Expense, Account: "Cash"},
		{UserID: 1, Date: core.NewDate(2024, 2, 27), Description: "Old", Amount: decimal.RequireFromString("10"), Category: "Shopping", Type: core.Expense, Account: "Cash"},
		{UserID: 2, Date: core.NewDate(2024, 3, 3), Description: "Not mine", Amount: decimal.RequireFromString("500"), Category: "Shopping", Type: core.Expense, Account: "Cash"},
	}
	for _, tx := range seed {
		if _, err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	s, err := repo.FinancialSummary(ctx, 1, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	if err != nil {
		t.Fatalf("FinancialSummary: %v", err)
	}
	if s.Count != 2 || !s.Income.Equal(decimal.RequireFromString("3000")) ||
		!s.Expenses.Equal(decimal.RequireFromString("82.45")) || !s.Net.Equal(decimal.RequireFromString("2917.55")) {
		t.Fatalf("unexpected summary: %+v", s)
	}

	list, err := repo.ListTransactions(ctx, 1, core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(list) != 3 || list[0].Description != "Groceries" {
		t.Fatalf("expected newest first for user 1, got %+v", list)
	}
}

func TestDataVersion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	version := func(userID int64) string {
		t.Helper()
		v, err := repo.DataVersion(ctx, userID)
		if err != nil {
			t.Fatalf("DataVersion: %v", err)
		}
		return v
	}

	empty := version(1)
	first, err := repo.CreateTransaction(ctx, rent(core.NewDate(2024, 1, 31), "s-1"))
	if err != nil {
		t.Fatal(err)
	}
	afterInsert := version(1)
	if afterInsert == empty {
		t.Fatalf("version unchanged after insert: %s", afterInsert)
	}

	other := rent(core.NewDate(2024, 1, 31), "s-2")
	other.UserID = 2
	if _, err := repo.CreateTransaction(ctx, other); err != nil {
		t.Fatal(err)
	}
	if v := version(1); v != afterInsert {
		t.Errorf("another user's insert changed user 1 version: %s -> %s", afterInsert, v)
	}
	if v := version(0); v == afterInsert {
		t.Errorf("unscoped version should cover every user, got %s", v)
	}

	// delete then insert keeps the count but not the version
	if err := repo.DeleteTransaction(ctx, first.ID, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateTransaction(ctx, rent(core.NewDate(2024, 1, 31), "s-3")); err != nil {
		t.Fatal(err)
	}
	if v := version(1); v == afterInsert || v == empty {
		t.Errorf("version after delete and insert = %s, seen before", v)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != v2 || v1 == 0 {
		t.Fatalf("versions %d/%d", v1, v2)
	}
}
