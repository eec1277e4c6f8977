package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"fintrack/internal/core"
)

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrOccurrenceExists = errors.New("occurrence already materialized")
)

const transactionColumns = `id, series_id, user_id, date, description, amount, category, type, account,
	recurring, frequency, end_date, notes, tags, created_at`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite repository ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateTransaction stores a user-entered transaction and returns it with its
// assigned id.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := r.insert(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", created.ID,
		"series_id", created.SeriesID,
		"date", created.Date.String(),
		"amount", created.Amount.StringFixed(2),
		"type", created.Type)

	return created, nil
}

// InsertMaterialized persists the next occurrence of a series. A second
// insert for the same series and day returns ErrOccurrenceExists.
func (r *SQLiteRepository) InsertMaterialized(ctx context.Context, req core.MaterializationRequest) (core.Transaction, error) {
	created, err := r.insert(ctx, req.Transaction())
	if err != nil {
		if isUniqueViolation(err) {
			return core.Transaction{}, ErrOccurrenceExists
		}
		return core.Transaction{}, fmt.Errorf("insert occurrence for series %s: %w", req.SeriesID, err)
	}
	return created, nil
}

func (r *SQLiteRepository) insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	const q = `INSERT INTO transactions
		(series_id, user_id, date, description, amount, category, type, account, recurring, frequency, end_date, notes, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + transactionColumns

	row := r.db.QueryRowContext(ctx, q,
		nullString(t.SeriesID),
		t.UserID,
		t.Date.String(),
		t.Description,
		t.Amount.StringFixed(2),
		t.Category,
		string(t.Type),
		t.Account,
		t.Recurring,
		nullString(string(t.Frequency)),
		nullString(t.EndDate.String()),
		t.Notes,
		t.Tags,
	)
	return scanTransaction(row)
}

// GetTransaction loads one transaction. A non-zero userID restricts the
// lookup to that user's rows.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND (? = 0 OR user_id = ?)`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, id, userID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns transactions dated within [from, to], newest
// first. Zero bounds are open.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, from, to core.Date) ([]core.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE (? = 0 OR user_id = ?)
		  AND (? = '' OR date >= ?)
		  AND (? = '' OR date <= ?)
		ORDER BY date DESC, id DESC`

	f, tt := from.String(), to.String()
	rows, err := r.db.QueryContext(ctx, q, userID, userID, f, f, tt, tt)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTransaction removes a transaction. Deleting the latest occurrence of
// a series ends the series: its remaining rows stop being recurring.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var seriesID sql.NullString
	var date string
	err = tx.QueryRowContext(ctx,
		`SELECT series_id, date FROM transactions WHERE id = ? AND (? = 0 OR user_id = ?)`,
		id, userID, userID).Scan(&seriesID, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	if seriesID.Valid {
		var newer int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE series_id = ? AND date > ?`,
			seriesID.String, date).Scan(&newer)
		if err != nil {
			return fmt.Errorf("check series %s: %w", seriesID.String, err)
		}
		if newer == 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE transactions SET recurring = 0 WHERE series_id = ?`, seriesID.String); err != nil {
				return fmt.Errorf("end series %s: %w", seriesID.String, err)
			}
			slog.InfoContext(ctx, "Series ended by deleting its latest occurrence",
				"series_id", seriesID.String, "id", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// StopSeries marks every row of a series as non-recurring and returns the
// number of rows changed.
func (r *SQLiteRepository) StopSeries(ctx context.Context, seriesID string, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET recurring = 0 WHERE series_id = ? AND recurring = 1 AND (? = 0 OR user_id = ?)`,
		seriesID, userID, userID)
	if err != nil {
		return 0, fmt.Errorf("stop series %s: %w", seriesID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stop series %s: %w", seriesID, err)
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

// latestPerSeries selects the most recent row of every series.
const latestPerSeries = `SELECT t.id, t.series_id, t.user_id, t.date, t.description, t.amount, t.category,
		t.type, t.account, COALESCE(t.frequency, ''), COALESCE(t.end_date, '')
	FROM transactions t
	JOIN (
		SELECT series_id, MAX(date) AS last_date
		FROM transactions
		WHERE series_id IS NOT NULL
		GROUP BY series_id
	) latest ON latest.series_id = t.series_id AND latest.last_date = t.date
	WHERE t.recurring = 1
	  AND (? = 0 OR t.user_id = ?)`

// ListDueCandidates returns the latest occurrence of every active series
// whose end date, if any, is not before asOf.
func (r *SQLiteRepository) ListDueCandidates(ctx context.Context, asOf core.Date, userID int64) ([]core.RecurringTransaction, error) {
	q := latestPerSeries + `
	  AND (t.end_date IS NULL OR t.end_date >= ?)
	ORDER BY t.id`
	return r.querySeries(ctx, q, userID, userID, asOf.String())
}

// ListSeries returns the latest occurrence of every active series.
func (r *SQLiteRepository) ListSeries(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	return r.querySeries(ctx, latestPerSeries+` ORDER BY t.date, t.id`, userID, userID)
}

func (r *SQLiteRepository) querySeries(ctx context.Context, q string, args ...any) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring series: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		var (
			rt        core.RecurringTransaction
			txType    string
			frequency string
		)
		if err := rows.Scan(&rt.ID, &rt.SeriesID, &rt.UserID, &rt.LastOccurrence, &rt.Description,
			&rt.Amount, &rt.Category, &txType, &rt.Account, &frequency, &rt.EndDate); err != nil {
			return nil, fmt.Errorf("scan recurring series: %w", err)
		}
		rt.Type = core.TransactionType(txType)
		rt.Frequency = core.Frequency(frequency)
		out = append(out, rt)
	}
	return out, rows.Err()
}

// DataVersion returns a token that changes whenever a transaction visible
// to userID is inserted or deleted. Ids are never reused, so the row count
// and the highest id together identify the row set. Updates do not change
// amounts and are not reflected.
func (r *SQLiteRepository) DataVersion(ctx context.Context, userID int64) (string, error) {
	var count, maxID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(id), 0) FROM transactions WHERE (? = 0 OR user_id = ?)`,
		userID, userID).Scan(&count, &maxID)
	if err != nil {
		return "", fmt.Errorf("data version: %w", err)
	}
	return strconv.FormatInt(count, 10) + "." + strconv.FormatInt(maxID, 10), nil
}

// FinancialSummary totals income and expenses for [from, to].
func (r *SQLiteRepository) FinancialSummary(ctx context.Context, userID int64, from, to core.Date) (core.Summary, error) {
	txs, err := r.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return core.Summary{}, fmt.Errorf("financial summary: %w", err)
	}
	return core.Summarize(from, to, txs), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		seriesID  sql.NullString
		date      string
		txType    string
		frequency sql.NullString
		endDate   sql.NullString
		createdAt string
	)
	err := s.Scan(&t.ID, &seriesID, &t.UserID, &date, &t.Description, &t.Amount, &t.Category, &txType,
		&t.Account, &t.Recurring, &frequency, &endDate, &t.Notes, &t.Tags, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}

	t.SeriesID = seriesID.String
	t.Type = core.TransactionType(txType)
	t.Frequency = core.Frequency(frequency.String)
	t.Date = parseStoredDate(t.ID, "date", date)
	if endDate.Valid {
		t.EndDate = parseStoredDate(t.ID, "end_date", endDate.String)
	}
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

// parseStoredDate tolerates malformed rows so one bad record does not hide
// the rest of a listing.
func parseStoredDate(id int64, field, value string) core.Date {
	d, err := core.ParseDate(value)
	if err != nil {
		slog.Warn("Unparsable date in stored transaction", "id", id, "field", field, "value", value)
		return core.Date{}
	}
	return d
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
