package core

import (
	"fmt"
	"strings"
)

// Reporting periods accepted by PeriodRange.
const (
	PeriodToday     = "today"
	PeriodThisWeek  = "this_week"
	PeriodLastWeek  = "last_week"
	PeriodThisMonth = "this_month"
	PeriodLastMonth = "last_month"
	PeriodThisYear  = "this_year"
	PeriodAll       = "all"
)

// PeriodRange resolves a named period to an inclusive [from, to] range
// relative to today. PeriodAll returns two zero dates. Weeks start on Monday.
func PeriodRange(period string, today Date) (from, to Date, err error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case PeriodToday:
		return today, today, nil
	case PeriodThisWeek:
		start := today.AddDays(-weekdayOffset(today))
		return start, today, nil
	case PeriodLastWeek:
		start := today.AddDays(-weekdayOffset(today) - 7)
		return start, start.AddDays(6), nil
	case "", PeriodThisMonth:
		return NewDate(today.Year(), today.Month(), 1), today, nil
	case PeriodLastMonth:
		first := NewDate(today.Year(), today.Month(), 1)
		end := first.AddDays(-1)
		return NewDate(end.Year(), end.Month(), 1), end, nil
	case PeriodThisYear:
		return NewDate(today.Year(), 1, 1), today, nil
	case PeriodAll:
		return Date{}, Date{}, nil
	}
	return Date{}, Date{}, fmt.Errorf("unknown period %q", period)
}

// weekdayOffset counts days since Monday.
func weekdayOffset(d Date) int {
	return (int(d.Weekday()) + 6) % 7
}
