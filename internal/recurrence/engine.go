package recurrence

import (
	"fintrack/internal/core"
)

// Result is the outcome of one Process call.
type Result struct {
	Requests []core.MaterializationRequest
	Warnings []*DataQualityError
}

// NextOccurrence computes the candidate date after last and reports whether
// it is due as of today.
func NextOccurrence(last core.Date, frequency core.Frequency, today core.Date) (core.Date, bool, error) {
	s, err := SchedulerFor(frequency)
	if err != nil {
		return core.Date{}, false, err
	}
	candidate := s.Next(last)
	return candidate, s.IsDue(last, candidate, today), nil
}

// Process decides, for each series, whether its next occurrence is due as of
// today and returns one materialization request per due series. At most one
// request is emitted per series, however far today is past the candidate.
// Process is pure: it reads no clock and mutates none of its inputs.
func Process(today core.Date, series []core.RecurringTransaction) Result {
	var res Result
	for _, rt := range series {
		req, ok, warn := evaluate(today, rt)
		if warn != nil {
			res.Warnings = append(res.Warnings, warn)
			continue
		}
		if ok {
			res.Requests = append(res.Requests, req)
		}
	}
	return res
}

func evaluate(today core.Date, rt core.RecurringTransaction) (core.MaterializationRequest, bool, *DataQualityError) {
	skip := func(field, value string, err error) (core.MaterializationRequest, bool, *DataQualityError) {
		return core.MaterializationRequest{}, false, &DataQualityError{
			SeriesID: rt.SeriesID,
			SourceID: rt.ID,
			Field:    field,
			Value:    value,
			Err:      err,
		}
	}

	last, err := core.ParseDate(rt.LastOccurrence)
	if err != nil {
		return skip("date", rt.LastOccurrence, ErrInvalidDate)
	}

	var end core.Date
	if rt.EndDate != "" {
		if end, err = core.ParseDate(rt.EndDate); err != nil {
			return skip("end_date", rt.EndDate, ErrInvalidDate)
		}
	}

	candidate, due, err := NextOccurrence(last, rt.Frequency, today)
	if err != nil {
		return skip("frequency", string(rt.Frequency), ErrUnknownFrequency)
	}
	if !due {
		return core.MaterializationRequest{}, false, nil
	}
	if !end.IsZero() && candidate.After(end.Time) {
		return core.MaterializationRequest{}, false, nil
	}

	return core.MaterializationRequest{
		SeriesID:    rt.SeriesID,
		SourceID:    rt.ID,
		UserID:      rt.UserID,
		Date:        candidate,
		Description: rt.Description,
		Amount:      rt.Amount,
		Category:    rt.Category,
		Type:        rt.Type,
		Account:     rt.Account,
		Recurring:   true,
		Frequency:   rt.Frequency,
		EndDate:     end,
	}, true, nil
}
