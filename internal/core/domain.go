package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Yearly  Frequency = "Yearly"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

const (
	DefaultCategory = "Other"
	DefaultAccount  = "Cash"

	// DateLayout is the persisted and wire form of a calendar date.
	DateLayout = "2006-01-02"
)

type (
	Frequency       string
	TransactionType string

	// Date is a calendar day. The time component is always midnight UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64
		SeriesID    string // empty unless the transaction belongs to a recurring series
		UserID      int64  // 0 means unscoped
		Date        Date
		Description string
		Amount      decimal.Decimal
		Category    string
		Type        TransactionType
		Account     string
		Recurring   bool
		Frequency   Frequency
		EndDate     Date // zero when the series is open-ended
		Notes       string
		Tags        string
		CreatedAt   time.Time
	}

	// RecurringTransaction is the most recent occurrence of a series as read
	// from storage. Dates are kept in their persisted text form.
	RecurringTransaction struct {
		ID             int64
		SeriesID       string
		UserID         int64
		LastOccurrence string
		Description    string
		Amount         decimal.Decimal
		Category       string
		Type           TransactionType
		Account        string
		Frequency      Frequency
		EndDate        string // empty when open-ended
	}

	// MaterializationRequest asks the store to persist the next occurrence
	// of a series.
	MaterializationRequest struct {
		SeriesID    string
		SourceID    int64
		UserID      int64
		Date        Date
		Description string
		Amount      decimal.Decimal
		Category    string
		Type        TransactionType
		Account     string
		Recurring   bool
		Frequency   Frequency
		EndDate     Date
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidFrequency   = errors.New("invalid recurring frequency")
	ErrEndBeforeStart     = errors.New("end date must not be before the transaction date")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysSince returns the number of whole days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.Sub(other.Time).Hours() / 24)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Normalize fills in the defaults applied to every stored transaction.
func (t *Transaction) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	t.Account = strings.TrimSpace(t.Account)
	if t.Account == "" {
		t.Account = DefaultAccount
	}
	if !t.Recurring {
		t.Frequency = ""
		t.EndDate = Date{}
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Recurring {
		if !t.Frequency.Valid() {
			return ErrInvalidFrequency
		}
		if !t.EndDate.IsZero() && t.EndDate.Before(t.Date.Time) {
			return ErrEndBeforeStart
		}
	}
	return nil
}

// Transaction converts the request into the row that materializes it.
func (r MaterializationRequest) Transaction() Transaction {
	return Transaction{
		SeriesID:    r.SeriesID,
		UserID:      r.UserID,
		Date:        r.Date,
		Description: r.Description,
		Amount:      r.Amount,
		Category:    r.Category,
		Type:        r.Type,
		Account:     r.Account,
		Recurring:   r.Recurring,
		Frequency:   r.Frequency,
		EndDate:     r.EndDate,
	}
}
