package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/recurrence"
)

// TransactionStore is the storage the transaction service works against.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, from, to core.Date) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id, userID int64) error
	StopSeries(ctx context.Context, seriesID string, userID int64) (int64, error)
	ListSeries(ctx context.Context, userID int64) ([]core.RecurringTransaction, error)
	FinancialSummary(ctx context.Context, userID int64, from, to core.Date) (core.Summary, error)
	DataVersion(ctx context.Context, userID int64) (string, error)
}

// SeriesStatus describes an active series and its next scheduled occurrence.
type SeriesStatus struct {
	Series core.RecurringTransaction
	Next   core.Date // zero when the stored data cannot be scheduled
	Due    bool
	Ended  bool // next occurrence falls after the end date
	Issue  error
}

// TransactionService orchestrates transaction operations across SQLite and AMQP
type TransactionService struct {
	storage   TransactionStore
	publisher EventPublisher
	logger    *applog.Logger
}

func NewTransactionService(storage TransactionStore, publisher EventPublisher, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentApp),
	}
}

// CreateTransaction validates and saves a transaction and publishes a
// created event. Recurring transactions start a new series.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.Recurring && t.SeriesID == "" {
		t.SeriesID = uuid.NewString()
	}

	created, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldTransaction, created.ID,
		applog.FieldSeriesID, created.SeriesID,
		applog.FieldUserID, created.UserID)

	s.publish(ctx, amqp.EventCreated, created)
	return created, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id, userID)
}

func (s *TransactionService) ListTransactions(ctx context.Context, userID int64, from, to core.Date) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID, from, to)
}

func (s *TransactionService) Summary(ctx context.Context, userID int64, from, to core.Date) (core.Summary, error) {
	return s.storage.FinancialSummary(ctx, userID, from, to)
}

// DataVersion returns a token that changes when the user's transactions do.
func (s *TransactionService) DataVersion(ctx context.Context, userID int64) (string, error) {
	return s.storage.DataVersion(ctx, userID)
}

// DeleteTransaction removes a transaction. Removing the latest occurrence of
// a series ends that series.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id, userID int64) error {
	if err := s.storage.DeleteTransaction(ctx, id, userID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTransaction, id,
		applog.FieldUserID, userID)
	return nil
}

// StopSeries ends a series so no further occurrences are materialized.
func (s *TransactionService) StopSeries(ctx context.Context, seriesID string, userID int64) error {
	n, err := s.storage.StopSeries(ctx, seriesID, userID)
	if err != nil {
		return fmt.Errorf("stop series: %w", err)
	}
	s.logger.InfoContext(ctx, "Recurring series stopped",
		applog.FieldSeriesID, seriesID,
		applog.FieldUserID, userID,
		"rows", n)
	return nil
}

// Series lists the active series of a user with their next occurrence as of
// today.
func (s *TransactionService) Series(ctx context.Context, userID int64, today core.Date) ([]SeriesStatus, error) {
	series, err := s.storage.ListSeries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	out := make([]SeriesStatus, 0, len(series))
	for _, rt := range series {
		out = append(out, seriesStatus(rt, today))
	}
	return out, nil
}

func seriesStatus(rt core.RecurringTransaction, today core.Date) SeriesStatus {
	st := SeriesStatus{Series: rt}

	last, err := core.ParseDate(rt.LastOccurrence)
	if err != nil {
		st.Issue = fmt.Errorf("date %q: %w", rt.LastOccurrence, recurrence.ErrInvalidDate)
		return st
	}
	next, due, err := recurrence.NextOccurrence(last, rt.Frequency, today)
	if err != nil {
		st.Issue = err
		return st
	}
	st.Next, st.Due = next, due

	if rt.EndDate != "" {
		end, err := core.ParseDate(rt.EndDate)
		if err != nil {
			st.Issue = fmt.Errorf("end_date %q: %w", rt.EndDate, recurrence.ErrInvalidDate)
			return st
		}
		if next.After(end.Time) {
			st.Ended, st.Due = true, false
		}
	}
	return st
}

func (s *TransactionService) publish(ctx context.Context, event string, tx core.Transaction) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not available, skipping event", "event", event)
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewTransactionEvent(event, tx)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			"event", event,
			applog.FieldTransaction, tx.ID,
			applog.FieldError, err)
	}
}

// Close closes the storage and the publisher when they hold resources.
func (s *TransactionService) Close() error {
	var errs []error

	if c, ok := s.storage.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
