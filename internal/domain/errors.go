package domain

import "errors"

var (
	// ErrInvertedRange is returned when the start year is after the end year.
	ErrInvertedRange = errors.New("start year is after end year")

	// ErrUnmatchedYear is returned under JoinStrict when a year is present in
	// only one of the joined series.
	ErrUnmatchedYear = errors.New("year missing from one dataset")

	// ErrYearUnavailable is returned by an ObservationSource when the dataset
	// has no temporal coverage for the requested year.
	ErrYearUnavailable = errors.New("dataset has no coverage for year")

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid climogram request")

	// ErrInvalidRegion is returned when a region boundary cannot be parsed.
	ErrInvalidRegion = errors.New("invalid region")
)
