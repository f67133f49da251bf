package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/observability"
)

// Aggregator builds climograms: it fetches both datasets for every requested
// year, reduces them to annual aggregates, and joins the two series by year.
type Aggregator struct {
	source  domain.ObservationSource
	policy  domain.JoinPolicy
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAggregator creates an Aggregator reading from source and joining with policy.
func NewAggregator(source domain.ObservationSource, policy domain.JoinPolicy, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		source:  source,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// Policy returns the join policy applied to unmatched years.
func (a *Aggregator) Policy() domain.JoinPolicy {
	return a.policy
}

// Build produces the climogram for req. The two datasets are fetched
// concurrently; the first fetch error cancels the other.
func (a *Aggregator) Build(ctx context.Context, req domain.ClimogramRequest) (domain.Climogram, error) {
	start := time.Now()

	years, err := domain.YearRange(req.StartYear, req.EndYear)
	if err != nil {
		return domain.Climogram{}, err
	}

	var precipitation, temperature []domain.AnnualAggregate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.series(gctx, domain.Precipitation, req.Region, years)
		precipitation = s
		return err
	})
	g.Go(func() error {
		s, err := a.series(gctx, domain.Temperature, req.Region, years)
		temperature = s
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Climogram{}, err
	}

	joined, err := domain.JoinByYear(precipitation, temperature).Apply(a.policy)
	if err != nil {
		return domain.Climogram{}, err
	}
	if n := len(joined.Unmatched); n > 0 {
		a.logger.Info("dropped unmatched years",
			"request_id", req.ID,
			"region", req.Region.ID,
			"years", joined.Unmatched,
		)
		a.metrics.DroppedYears.Add(float64(n))
	}
	a.logger.Debug("joined bands", "request_id", req.ID, "records", len(joined.Records))

	cg := domain.NewClimogram(req, a.policy, joined)
	a.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	return cg, nil
}

// series reduces ds to one aggregate per year. Years the catalog does not
// cover are left out. An empty region yields empty aggregates without
// touching the source.
func (a *Aggregator) series(ctx context.Context, ds domain.Dataset, region domain.Region, years []domain.YearBucket) ([]domain.AnnualAggregate, error) {
	series := make([]domain.AnnualAggregate, 0, len(years))
	for _, y := range years {
		var obs []domain.Observation
		if !region.IsEmpty() {
			var err error
			obs, err = a.source.Observations(ctx, ds, region, y)
			if errors.Is(err, domain.ErrYearUnavailable) {
				a.logger.Debug("year not covered", "dataset", ds.ID, "year", int(y))
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ds.BandName, err)
			}
		}

		agg := domain.ReduceAnnual(ds, region, y, obs)
		result := "values"
		if agg.Raster.Empty() {
			result = "empty"
		}
		a.metrics.AggregatesBuilt.WithLabelValues(ds.ID, result).Inc()
		series = append(series, agg)
	}

	a.logger.Debug("collection size", "dataset", ds.ID, "size", len(series))
	return series, nil
}
