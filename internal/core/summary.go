package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary is the income/expense roll-up for a date range.
type Summary struct {
	From       Date
	To         Date
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	Net        decimal.Decimal
	Count      int
	ByCategory []CategoryAmount // expenses only, in first-seen order
}

// Summarize folds transactions into a Summary. Transactions outside
// [from, to] are ignored; a zero bound is open.
func Summarize(from, to Date, txs []Transaction) Summary {
	s := Summary{From: from, To: to, Income: decimal.Zero, Expenses: decimal.Zero}
	index := map[string]int{}
	for _, t := range txs {
		if !from.IsZero() && t.Date.Before(from.Time) {
			continue
		}
		if !to.IsZero() && t.Date.After(to.Time) {
			continue
		}
		s.Count++
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
			i, ok := index[t.Category]
			if !ok {
				i = len(s.ByCategory)
				index[t.Category] = i
				s.ByCategory = append(s.ByCategory, CategoryAmount{Name: t.Category, Amount: decimal.Zero})
			}
			s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(t.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expenses)
	return s
}
