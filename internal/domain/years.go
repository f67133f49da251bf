package domain

import (
	"fmt"
	"time"
)

// YearBucket is a calendar year, the unit of temporal aggregation.
type YearBucket int

// Supported years. The catalog addresses days as YYYY-MM-DD, so years are
// limited to four digits.
const (
	MinYear = 1
	MaxYear = 9999
)

// Start returns 1 January of the year at 00:00 UTC.
func (y YearBucket) Start() time.Time {
	return time.Date(int(y), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the exclusive upper bound of the year (1 January of the next year).
func (y YearBucket) End() time.Time {
	return y.Start().AddDate(1, 0, 0)
}

// Contains reports whether t falls inside the calendar year (UTC).
func (y YearBucket) Contains(t time.Time) bool {
	return t.UTC().Year() == int(y)
}

// YearRange decomposes [start, end] into one bucket per year, strictly
// increasing by one. An inverted range returns ErrInvertedRange; a bound
// outside [MinYear, MaxYear] returns ErrInvalidRequest.
func YearRange(start, end int) ([]YearBucket, error) {
	if start > end {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvertedRange, start, end)
	}
	if start < MinYear || end > MaxYear {
		return nil, fmt.Errorf("%w: years %d-%d outside %d-%d", ErrInvalidRequest, start, end, MinYear, MaxYear)
	}
	years := make([]YearBucket, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, YearBucket(y))
	}
	return years, nil
}
