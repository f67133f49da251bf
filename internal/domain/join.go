package domain

import (
	"fmt"
	"slices"
	"time"
)

// JoinPolicy decides what happens to years present in only one series.
type JoinPolicy string

const (
	// JoinDrop drops unmatched years and reports them.
	JoinDrop JoinPolicy = "drop"
	// JoinStrict fails with ErrUnmatchedYear when any year is unmatched.
	JoinStrict JoinPolicy = "strict"
)

// ParseJoinPolicy maps a configuration value to a JoinPolicy.
func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch JoinPolicy(s) {
	case JoinDrop, JoinStrict:
		return JoinPolicy(s), nil
	case "":
		return JoinDrop, nil
	default:
		return "", fmt.Errorf("unknown join policy %q", s)
	}
}

// CombinedRecord pairs the precipitation and temperature aggregates of one year.
type CombinedRecord struct {
	Year          YearBucket      `json:"year"`
	Start         time.Time       `json:"start"`
	Precipitation AnnualAggregate `json:"precipitation"`
	Temperature   AnnualAggregate `json:"temperature"`
}

// JoinResult is the output of JoinByYear.
type JoinResult struct {
	// Records holds one entry per year present in both series, ascending by year.
	Records []CombinedRecord
	// Unmatched lists years present in exactly one series, ascending.
	Unmatched []YearBucket
	// PrecipitationYears and TemperatureYears list the distinct years of each
	// input series, ascending, matched or not.
	PrecipitationYears []YearBucket
	TemperatureYears   []YearBucket
}

// Apply enforces policy on the join result.
func (r JoinResult) Apply(policy JoinPolicy) (JoinResult, error) {
	if policy == JoinStrict && len(r.Unmatched) > 0 {
		return r, fmt.Errorf("%w: %v", ErrUnmatchedYear, r.Unmatched)
	}
	return r, nil
}

// JoinByYear inner-joins two annual series on the year key. Each series is
// expected to hold at most one aggregate per year; if a year repeats, the first
// occurrence wins.
func JoinByYear(precipitation, temperature []AnnualAggregate) JoinResult {
	var res JoinResult
	temps := make(map[YearBucket]AnnualAggregate, len(temperature))
	for _, t := range temperature {
		if _, dup := temps[t.Key.Year]; !dup {
			temps[t.Key.Year] = t
			res.TemperatureYears = append(res.TemperatureYears, t.Key.Year)
		}
	}

	seen := make(map[YearBucket]bool, len(precipitation))
	for _, p := range precipitation {
		y := p.Key.Year
		if seen[y] {
			continue
		}
		seen[y] = true
		res.PrecipitationYears = append(res.PrecipitationYears, y)

		t, ok := temps[y]
		if !ok {
			res.Unmatched = append(res.Unmatched, y)
			continue
		}
		res.Records = append(res.Records, CombinedRecord{
			Year:          y,
			Start:         p.Key.Start,
			Precipitation: p,
			Temperature:   t,
		})
	}
	for y := range temps {
		if !seen[y] {
			res.Unmatched = append(res.Unmatched, y)
		}
	}

	slices.SortFunc(res.Records, func(a, b CombinedRecord) int { return int(a.Year - b.Year) })
	slices.Sort(res.Unmatched)
	slices.Sort(res.PrecipitationYears)
	slices.Sort(res.TemperatureYears)
	return res
}
