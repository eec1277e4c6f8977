package http

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type transactionView struct {
	ID          int64     `json:"id"`
	SeriesID    string    `json:"series_id,omitempty"`
	UserID      int64     `json:"user_id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Account     string    `json:"account"`
	Recurring   bool      `json:"recurring"`
	Frequency   string    `json:"frequency,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Tags        string    `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		SeriesID:    t.SeriesID,
		UserID:      t.UserID,
		Date:        t.Date.String(),
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		Category:    t.Category,
		Type:        string(t.Type),
		Account:     t.Account,
		Recurring:   t.Recurring,
		Frequency:   string(t.Frequency),
		EndDate:     t.EndDate.String(),
		Notes:       t.Notes,
		Tags:        t.Tags,
		CreatedAt:   t.CreatedAt,
	}
}

func newTransactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionView(t))
	}
	return out
}

type categoryView struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type summaryView struct {
	From       string         `json:"from,omitempty"`
	To         string         `json:"to,omitempty"`
	Income     string         `json:"income"`
	Expenses   string         `json:"expenses"`
	Net        string         `json:"net"`
	Count      int            `json:"count"`
	ByCategory []categoryView `json:"by_category"`
}

func newSummaryView(s core.Summary) summaryView {
	v := summaryView{
		From:       s.From.String(),
		To:         s.To.String(),
		Income:     s.Income.StringFixed(2),
		Expenses:   s.Expenses.StringFixed(2),
		Net:        s.Net.StringFixed(2),
		Count:      s.Count,
		ByCategory: make([]categoryView, 0, len(s.ByCategory)),
	}
	for _, c := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, categoryView{Category: c.Name, Amount: c.Amount.StringFixed(2)})
	}
	return v
}

type issueView struct {
	SeriesID      string `json:"series_id"`
	TransactionID int64  `json:"transaction_id"`
	Field         string `json:"field,omitempty"`
	Value         string `json:"value,omitempty"`
	Error         string `json:"error"`
}

type runReportView struct {
	Date         string            `json:"date"`
	Candidates   int               `json:"candidates"`
	Materialized []transactionView `json:"materialized"`
	Skipped      int               `json:"skipped"`
	Warnings     []issueView       `json:"warnings"`
	Failures     []issueView       `json:"failures"`
}

func newRunReportView(r services.RunReport) runReportView {
	v := runReportView{
		Date:         r.Date.String(),
		Candidates:   r.Candidates,
		Materialized: newTransactionViews(r.Materialized),
		Skipped:      r.Skipped,
		Warnings:     make([]issueView, 0, len(r.Warnings)),
		Failures:     make([]issueView, 0, len(r.Failures)),
	}
	for _, w := range r.Warnings {
		v.Warnings = append(v.Warnings, issueView{
			SeriesID:      w.SeriesID,
			TransactionID: w.SourceID,
			Field:         w.Field,
			Value:         w.Value,
			Error:         w.Err.Error(),
		})
	}
	for _, f := range r.Failures {
		v.Failures = append(v.Failures, issueView{
			SeriesID:      f.SeriesID,
			TransactionID: f.SourceID,
			Error:         f.Err.Error(),
		})
	}
	return v
}

type seriesView struct {
	SeriesID       string `json:"series_id"`
	TransactionID  int64  `json:"transaction_id"`
	UserID         int64  `json:"user_id"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Category       string `json:"category"`
	Type           string `json:"type"`
	Account        string `json:"account"`
	Frequency      string `json:"frequency"`
	LastOccurrence string `json:"last_occurrence"`
	EndDate        string `json:"end_date,omitempty"`
	NextOccurrence string `json:"next_occurrence,omitempty"`
	Due            bool   `json:"due"`
	Ended          bool   `json:"ended"`
	Issue          string `json:"issue,omitempty"`
}

func newSeriesView(st services.SeriesStatus) seriesView {
	rt := st.Series
	v := seriesView{
		SeriesID:       rt.SeriesID,
		TransactionID:  rt.ID,
		UserID:         rt.UserID,
		Description:    rt.Description,
		Amount:         rt.Amount.StringFixed(2),
		Category:       rt.Category,
		Type:           string(rt.Type),
		Account:        rt.Account,
		Frequency:      string(rt.Frequency),
		LastOccurrence: rt.LastOccurrence,
		EndDate:        rt.EndDate,
		NextOccurrence: st.Next.String(),
		Due:            st.Due,
		Ended:          st.Ended,
	}
	if st.Issue != nil {
		v.Issue = st.Issue.Error()
	}
	return v
}
