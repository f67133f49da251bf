package domain

import "context"

// ObservationSource reads daily observations from a dataset catalog.
type ObservationSource interface {
	// Observations returns the readings of ds for one calendar year whose
	// location may intersect region. Sources may over-select (e.g. by bounding
	// box); ReduceAnnual applies the exact spatial filter. A year outside the
	// dataset's coverage returns ErrYearUnavailable.
	Observations(ctx context.Context, ds Dataset, region Region, year YearBucket) ([]Observation, error)
}
