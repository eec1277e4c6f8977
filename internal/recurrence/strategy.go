// Package recurrence projects recurring transactions onto the calendar.
//
// This file holds the per-frequency strategies. Each Scheduler knows how to
// derive the candidate next occurrence from the previous one and when that
// candidate becomes due.
package recurrence

import (
	"fmt"

	"fintrack/internal/core"
)

// Scheduler is the strategy interface for a single frequency.
type Scheduler interface {
	// Next returns the candidate date following last.
	Next(last core.Date) core.Date
	// IsDue reports whether the candidate should be materialized as of today.
	IsDue(last, candidate, today core.Date) bool
}

// DailyScheduler advances one day and is due once today is past last.
type DailyScheduler struct{}

func (DailyScheduler) Next(last core.Date) core.Date {
	return last.AddDays(1)
}

func (DailyScheduler) IsDue(last, _, today core.Date) bool {
	return today.After(last.Time)
}

// WeeklyScheduler advances seven days and is due once seven days have elapsed.
type WeeklyScheduler struct{}

func (WeeklyScheduler) Next(last core.Date) core.Date {
	return last.AddDays(7)
}

func (WeeklyScheduler) IsDue(last, _, today core.Date) bool {
	return today.DaysSince(last) >= 7
}

// MonthlyScheduler moves to the same day of the following month, clamped to
// that month's last day. The clamp is not undone later: a series anchored on
// the 31st stays on the 29th after February.
type MonthlyScheduler struct{}

func (MonthlyScheduler) Next(last core.Date) core.Date {
	year, month := last.Year(), last.Month()+1
	if month > 12 {
		month = 1
		year++
	}
	return core.NewDate(year, month, min(last.Day(), core.DaysIn(year, month)))
}

func (MonthlyScheduler) IsDue(_, candidate, today core.Date) bool {
	return !today.Before(candidate.Time)
}

// YearlyScheduler keeps month and day and advances the year. Feb 29 becomes
// Feb 28 in a non-leap target year.
type YearlyScheduler struct{}

func (YearlyScheduler) Next(last core.Date) core.Date {
	year, month := last.Year()+1, last.Month()
	return core.NewDate(year, month, min(last.Day(), core.DaysIn(year, month)))
}

func (YearlyScheduler) IsDue(_, candidate, today core.Date) bool {
	return !today.Before(candidate.Time)
}

var schedulers = map[core.Frequency]Scheduler{
	core.Daily:   DailyScheduler{},
	core.Weekly:  WeeklyScheduler{},
	core.Monthly: MonthlyScheduler{},
	core.Yearly:  YearlyScheduler{},
}

// SchedulerFor returns the scheduler registered for a frequency.
func SchedulerFor(frequency core.Frequency) (Scheduler, error) {
	s, ok := schedulers[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, frequency)
	}
	return s, nil
}
