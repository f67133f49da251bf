// Package catalogtest provides a deterministic stand-in for the dataset
// catalog, usable in-process as a domain.ObservationSource or over HTTP.
package catalogtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/climogram-etl/internal/domain"
)

// Span is an inclusive range of years a dataset covers.
type Span struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Contains reports whether y is covered.
func (s Span) Contains(y domain.YearBucket) bool {
	return int(y) >= s.First && int(y) <= s.Last
}

// Fixture generates synthetic daily observations on a regular grid.
// Precipitation falls on every sampled day with a seasonal cycle; temperature
// is emitted as MOD11A1 digital numbers so the 0.02 K scale applies.
type Fixture struct {
	// Step is the grid spacing in degrees.
	Step float64
	// SampleEvery is the number of days between samples.
	SampleEvery int
	// Coverage maps dataset IDs to the years they serve. A dataset without
	// an entry is served for every year.
	Coverage map[string]Span
}

// Default returns the fixture used by tests and the mock catalog: a 0.1 degree
// grid sampled every 8 days, with CHIRPS from 1981 and MODIS from 2000.
func Default() *Fixture {
	return &Fixture{
		Step:        0.1,
		SampleEvery: 8,
		Coverage: map[string]Span{
			domain.Precipitation.ID: {First: 1981, Last: 2100},
			domain.Temperature.ID:   {First: 2000, Last: 2100},
		},
	}
}

// Covers reports whether the fixture serves datasetID for year.
func (f *Fixture) Covers(datasetID string, year domain.YearBucket) bool {
	span, ok := f.Coverage[datasetID]
	return !ok || span.Contains(year)
}

// Observations implements domain.ObservationSource.
func (f *Fixture) Observations(_ context.Context, ds domain.Dataset, region domain.Region, year domain.YearBucket) ([]domain.Observation, error) {
	box, ok := region.BBox()
	if !ok {
		return nil, nil
	}
	return f.Generate(ds.ID, box, year)
}

// Generate returns the observations of datasetID for year inside box.
func (f *Fixture) Generate(datasetID string, box domain.BBox, year domain.YearBucket) ([]domain.Observation, error) {
	if !f.Covers(datasetID, year) {
		return nil, domain.ErrYearUnavailable
	}
	value, err := valueFunc(datasetID)
	if err != nil {
		return nil, err
	}

	points := f.grid(box)
	var obs []domain.Observation
	for day := year.Start(); day.Before(year.End()); day = day.AddDate(0, 0, f.sampleEvery()) {
		for _, p := range points {
			obs = append(obs, domain.Observation{Time: day, Geo: p, Value: value(day, p)})
		}
	}
	return obs, nil
}

// ExpectedPrecipitation returns the annual sum the fixture yields at p.
func (f *Fixture) ExpectedPrecipitation(year domain.YearBucket, p domain.Geo) float64 {
	var sum float64
	for day := year.Start(); day.Before(year.End()); day = day.AddDate(0, 0, f.sampleEvery()) {
		sum += precipitation(day, p)
	}
	return sum
}

func (f *Fixture) sampleEvery() int {
	if f.SampleEvery <= 0 {
		return 1
	}
	return f.SampleEvery
}

// grid returns cell centers inside box, at least one.
func (f *Fixture) grid(box domain.BBox) []domain.Geo {
	step := f.Step
	if step <= 0 {
		step = 0.1
	}
	var pts []domain.Geo
	for lat := box.MinLat + step/2; lat < box.MaxLat; lat += step {
		for lon := box.MinLon + step/2; lon < box.MaxLon; lon += step {
			pts = append(pts, domain.Geo{Lat: round(lat), Lon: round(lon)})
		}
	}
	if len(pts) == 0 {
		pts = append(pts, box.Center())
	}
	return pts
}

func valueFunc(datasetID string) (func(time.Time, domain.Geo) float64, error) {
	switch datasetID {
	case domain.Precipitation.ID:
		return precipitation, nil
	case domain.Temperature.ID:
		return temperatureDN, nil
	default:
		return nil, fmt.Errorf("catalogtest: unknown dataset %q", datasetID)
	}
}

// precipitation is in mm/day, wetter in the first months of the year and
// slightly wetter towards the equator.
func precipitation(day time.Time, p domain.Geo) float64 {
	season := 1 + math.Cos(2*math.Pi*float64(day.YearDay())/365)
	return round(4*season + 2 - math.Abs(p.Lat)/45)
}

// temperatureDN encodes a seasonal daytime temperature in °C as a MOD11A1
// digital number.
func temperatureDN(day time.Time, p domain.Geo) float64 {
	celsius := 24 - math.Abs(p.Lat)/4 + 5*math.Cos(2*math.Pi*float64(day.YearDay())/365)
	return math.Round((celsius + 273.15) / 0.02)
}

func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
