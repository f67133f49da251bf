package domain

import "time"

// SeriesPoint is one chart row: the spatial mean of each band for a year.
// A nil value means the aggregate carried no usable value.
type SeriesPoint struct {
	Year          YearBucket `json:"year"`
	Precipitation *float64   `json:"precipitation"`
	Temperature   *float64   `json:"temperature"`
}

// Climogram is the joined annual climate summary for one request.
type Climogram struct {
	RequestID    string           `json:"request_id"`
	Region       Region           `json:"region"`
	StartYear    int              `json:"start_year"`
	EndYear      int              `json:"end_year"`
	JoinPolicy   JoinPolicy       `json:"join_policy"`
	Records      []CombinedRecord `json:"records"`
	Series       []SeriesPoint    `json:"series"`
	DroppedYears []YearBucket     `json:"dropped_years,omitempty"`
	GeneratedAt  time.Time        `json:"generated_at"`

	// Years each dataset produced an aggregate for, before the join.
	PrecipitationYears []YearBucket `json:"precipitation_years,omitempty"`
	TemperatureYears   []YearBucket `json:"temperature_years,omitempty"`
}

// NewClimogram assembles a climogram from a join result.
func NewClimogram(req ClimogramRequest, policy JoinPolicy, joined JoinResult) Climogram {
	series := make([]SeriesPoint, 0, len(joined.Records))
	for _, rec := range joined.Records {
		series = append(series, SeriesPoint{
			Year:          rec.Year,
			Precipitation: meanOrNil(rec.Precipitation.Raster),
			Temperature:   meanOrNil(rec.Temperature.Raster),
		})
	}
	return Climogram{
		RequestID:    req.ID,
		Region:       req.Region,
		StartYear:    req.StartYear,
		EndYear:      req.EndYear,
		JoinPolicy:   policy,
		Records:      joined.Records,
		Series:       series,
		DroppedYears: joined.Unmatched,
		GeneratedAt:  clock.Now().UTC(),

		PrecipitationYears: joined.PrecipitationYears,
		TemperatureYears:   joined.TemperatureYears,
	}
}

func meanOrNil(r Raster) *float64 {
	m, ok := r.Mean()
	if !ok {
		return nil
	}
	return &m
}
