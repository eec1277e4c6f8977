package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/recurrence"
	"fintrack/internal/storage"
)

// RecurringStore is the storage the processor reads series from and writes
// materialized occurrences to.
type RecurringStore interface {
	ListDueCandidates(ctx context.Context, asOf core.Date, userID int64) ([]core.RecurringTransaction, error)
	InsertMaterialized(ctx context.Context, req core.MaterializationRequest) (core.Transaction, error)
}

// EventPublisher announces stored transactions to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.TransactionEvent) error
}

// StorageError reports a materialization request the store failed to persist.
type StorageError struct {
	SeriesID string
	SourceID int64
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("materialize series %s (from transaction %d): %v", e.SeriesID, e.SourceID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RunReport summarizes one ProcessDue call.
type RunReport struct {
	Date         core.Date
	Candidates   int
	Materialized []core.Transaction
	Skipped      int // occurrences another run had already written
	Warnings     []*recurrence.DataQualityError
	Failures     []*StorageError
}

// RecurringProcessor materializes due occurrences of recurring transactions.
type RecurringProcessor struct {
	store     RecurringStore
	publisher EventPublisher
	logger    *applog.Logger
	group     singleflight.Group
}

// NewRecurringProcessor creates a processor. publisher may be nil.
func NewRecurringProcessor(store RecurringStore, publisher EventPublisher, logger *applog.Logger) *RecurringProcessor {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &RecurringProcessor{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentRecurrence),
	}
}

// ProcessDue materializes at most one occurrence per series that is due as of
// today. A zero userID processes every user. Only a failure to list series is
// returned as an error; per-series problems are collected in the report.
// Concurrent calls for the same user and day share a single run.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, today core.Date, userID int64) (RunReport, error) {
	if p.store == nil {
		return RunReport{}, errors.New("processor not properly initialized")
	}

	// The shared run outlives any single caller; a caller that goes away
	// only stops waiting for it.
	key := strconv.FormatInt(userID, 10) + "/" + today.String()
	ch := p.group.DoChan(key, func() (any, error) {
		return p.run(context.WithoutCancel(ctx), today, userID)
	})

	select {
	case <-ctx.Done():
		return RunReport{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return RunReport{}, res.Err
		}
		return res.Val.(RunReport), nil
	}
}

func (p *RecurringProcessor) run(ctx context.Context, today core.Date, userID int64) (RunReport, error) {
	series, err := p.store.ListDueCandidates(ctx, today, userID)
	if err != nil {
		return RunReport{}, fmt.Errorf("list recurring series: %w", err)
	}

	result := recurrence.Process(today, series)
	report := RunReport{
		Date:       today,
		Candidates: len(series),
		Warnings:   result.Warnings,
	}

	for _, w := range result.Warnings {
		p.logger.WarnContext(ctx, "Skipping recurring series with unusable data",
			applog.FieldSeriesID, w.SeriesID,
			applog.FieldTransaction, w.SourceID,
			"field", w.Field,
			"value", w.Value,
			applog.FieldError, w.Err)
	}

	for _, req := range result.Requests {
		tx, err := p.store.InsertMaterialized(ctx, req)
		if errors.Is(err, storage.ErrOccurrenceExists) {
			report.Skipped++
			p.logger.DebugContext(ctx, "Occurrence already materialized",
				applog.FieldSeriesID, req.SeriesID,
				applog.FieldDate, req.Date.String())
			continue
		}
		if err != nil {
			se := &StorageError{SeriesID: req.SeriesID, SourceID: req.SourceID, Err: err}
			report.Failures = append(report.Failures, se)
			p.logger.ErrorContext(ctx, "Failed to materialize recurring transaction",
				applog.FieldSeriesID, req.SeriesID,
				applog.FieldTransaction, req.SourceID,
				applog.FieldDate, req.Date.String(),
				applog.FieldError, err)
			continue
		}

		report.Materialized = append(report.Materialized, tx)
		p.logger.InfoContext(ctx, "Materialized recurring transaction",
			applog.FieldOperation, applog.OpMaterialize,
			applog.FieldSeriesID, tx.SeriesID,
			applog.FieldTransaction, tx.ID,
			applog.FieldUserID, tx.UserID,
			applog.FieldDate, tx.Date.String(),
			applog.FieldAmount, tx.Amount.StringFixed(2),
			applog.FieldFrequency, string(tx.Frequency))

		p.publish(ctx, amqp.EventMaterialized, tx)
	}

	p.logger.InfoContext(ctx, "Recurring processing complete",
		applog.FieldUserID, userID,
		applog.FieldDate, today.String(),
		"candidates", report.Candidates,
		"materialized", len(report.Materialized),
		"skipped", report.Skipped,
		"warnings", len(report.Warnings),
		"failures", len(report.Failures))

	return report, nil
}

func (p *RecurringProcessor) publish(ctx context.Context, event string, tx core.Transaction) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, amqp.NewTransactionEvent(event, tx)); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish transaction event",
			"event", event,
			applog.FieldTransaction, tx.ID,
			applog.FieldError, err)
	}
}
