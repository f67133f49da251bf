package domain

import (
	"cmp"
	"slices"
	"time"
)

// AggregateKey identifies an annual aggregate. Year is the join key; Start is
// the same year as a timestamp for time-axis consumers.
type AggregateKey struct {
	Year  YearBucket `json:"year"`
	Start time.Time  `json:"start"`
}

// KeyFor returns the key for year y.
func KeyFor(y YearBucket) AggregateKey {
	return AggregateKey{Year: y, Start: y.Start()}
}

// AnnualAggregate is one dataset reduced to a single raster for one year.
type AnnualAggregate struct {
	Key       AggregateKey `json:"key"`
	DatasetID string       `json:"dataset_id"`
	BandName  string       `json:"band_name"`
	Raster    Raster       `json:"raster"`
	// Observations counts the readings that contributed after filtering.
	Observations int `json:"observations"`
}

// ReduceAnnual reduces the observations of ds that fall inside year and
// region to one aggregate. Observations outside the year or the region are
// ignored. The result always carries the year key, even when no observation
// contributed (the raster is then empty).
func ReduceAnnual(ds Dataset, region Region, year YearBucket, obs []Observation) AnnualAggregate {
	agg := AnnualAggregate{
		Key:       KeyFor(year),
		DatasetID: ds.ID,
		BandName:  ds.BandName,
	}

	pixels := make(map[Geo][]float64)
	for _, o := range obs {
		if !year.Contains(o.Time) || !region.Contains(o.Geo) {
			continue
		}
		pixels[o.Geo] = append(pixels[o.Geo], o.Value)
		agg.Observations++
	}

	convert := ds.Convert
	if convert == nil {
		convert = Identity
	}

	cells := make([]Cell, 0, len(pixels))
	for g, values := range pixels {
		cells = append(cells, Cell{Geo: g, Value: convert(ds.Reducer.reduce(values))})
	}
	slices.SortFunc(cells, func(a, b Cell) int {
		if c := cmp.Compare(a.Geo.Lat, b.Geo.Lat); c != 0 {
			return c
		}
		return cmp.Compare(a.Geo.Lon, b.Geo.Lon)
	})
	agg.Raster = Raster{Cells: cells}
	return agg
}

// ReduceSeries reduces obs into one aggregate per year, in the order of years.
func ReduceSeries(ds Dataset, region Region, years []YearBucket, obs []Observation) []AnnualAggregate {
	byYear := make(map[YearBucket][]Observation, len(years))
	for _, o := range obs {
		y := YearBucket(o.Time.UTC().Year())
		byYear[y] = append(byYear[y], o)
	}

	series := make([]AnnualAggregate, 0, len(years))
	for _, y := range years {
		series = append(series, ReduceAnnual(ds, region, y, byYear[y]))
	}
	return series
}
