package recurrence

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFrequency = errors.New("unknown recurring frequency")
	ErrInvalidDate      = errors.New("invalid date")
)

// DataQualityError describes a series that was skipped because one of its
// stored fields could not be interpreted. It never aborts a run.
type DataQualityError struct {
	SeriesID string
	SourceID int64
	Field    string
	Value    string
	Err      error
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("series %s (transaction %d): %s %q: %v", e.SeriesID, e.SourceID, e.Field, e.Value, e.Err)
}

func (e *DataQualityError) Unwrap() error {
	return e.Err
}
