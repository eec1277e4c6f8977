package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

type fakeStore struct {
	mu sync.Mutex

	series    []core.RecurringTransaction
	listErr   error
	insertErr map[string]error // by series id
	existing  map[string]bool  // series id + date already stored
	listCalls int
	inserted  []core.MaterializationRequest
	created   []core.Transaction
	nextID    int64
	deleted   []int64
	stopped   []string
	block     chan struct{}
}

func newFakeStore(series ...core.RecurringTransaction) *fakeStore {
	return &fakeStore{
		series:    series,
		insertErr: map[string]error{},
		existing:  map[string]bool{},
		nextID:    100,
	}
}

func (f *fakeStore) ListDueCandidates(ctx context.Context, asOf core.Date, userID int64) ([]core.RecurringTransaction, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.RecurringTransaction
	for _, rt := range f.series {
		if userID == 0 || rt.UserID == userID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertMaterialized(ctx context.Context, req core.MaterializationRequest) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.insertErr[req.SeriesID]; err != nil {
		return core.Transaction{}, err
	}
	key := req.SeriesID + "@" + req.Date.String()
	if f.existing[key] {
		return core.Transaction{}, storage.ErrOccurrenceExists
	}
	f.existing[key] = true
	f.inserted = append(f.inserted, req)
	f.nextID++
	tx := req.Transaction()
	tx.ID = f.nextID
	return tx, nil
}

func (f *fakeStore) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = f.nextID
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	for _, t := range f.created {
		if t.ID == id && (userID == 0 || t.UserID == userID) {
			return t, nil
		}
	}
	return core.Transaction{}, storage.ErrNotFound
}

func (f *fakeStore) ListTransactions(ctx context.Context, userID int64, from, to core.Date) ([]core.Transaction, error) {
	return f.created, nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id, userID int64) error {
	if _, err := f.GetTransaction(ctx, id, userID); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) StopSeries(ctx context.Context, seriesID string, userID int64) (int64, error) {
	for _, rt := range f.series {
		if rt.SeriesID == seriesID {
			f.stopped = append(f.stopped, seriesID)
			return 1, nil
		}
	}
	return 0, storage.ErrNotFound
}

func (f *fakeStore) ListSeries(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return f.series, nil
}

func (f *fakeStore) FinancialSummary(ctx context.Context, userID int64, from, to core.Date) (core.Summary, error) {
	return core.Summarize(from, to, f.created), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

var errDiskFull = errors.New("disk full")

func testLogger() (*applog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return applog.New(applog.Config{Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})}), &buf
}

func (f *fakeStore) DataVersion(ctx context.Context, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strconv.Itoa(len(f.created)) + "." + strconv.FormatInt(f.nextID, 10), nil
}
