package render

import "github.com/couchcryptid/climogram-etl/internal/domain"

const (
	ChartTitle      = "Climogram: Precipitation (mm/year) and Temperature (°C)"
	YearAxisFormat  = "####"
	chartType       = "ComboChart"
	regionScaleM    = 2500
	seriesReduction = "mean"
)

// SeriesOption configures one chart series.
type SeriesOption struct {
	TargetAxisIndex int    `json:"targetAxisIndex"`
	Type            string `json:"type,omitempty"`
	Color           string `json:"color"`
}

// Axis configures one chart axis.
type Axis struct {
	Title  string `json:"title"`
	Format string `json:"format,omitempty"`
}

// BarOption configures bar rendering.
type BarOption struct {
	GroupWidth string `json:"groupWidth"`
}

// ChartOptions uses the option names of combo chart clients.
type ChartOptions struct {
	Title      string               `json:"title"`
	SeriesType string               `json:"seriesType"`
	Series     map[int]SeriesOption `json:"series"`
	VAxes      map[int]Axis         `json:"vAxes"`
	HAxes      map[int]Axis         `json:"hAxes"`
	LineWidth  int                  `json:"lineWidth"`
	PointSize  int                  `json:"pointSize"`
	Bar        BarOption            `json:"bar"`
}

// ChartRow is one x-axis entry: a year and one value per series. A nil value
// renders as a gap.
type ChartRow struct {
	Year   domain.YearBucket `json:"year"`
	Values []*float64        `json:"values"`
}

// ChartSpec is the full chart configuration plus its data rows.
type ChartSpec struct {
	ChartType   string       `json:"chart_type"`
	SeriesNames []string     `json:"series_names"`
	Reducer     string       `json:"reducer"`
	ScaleMeters int          `json:"scale_meters"`
	XProperty   string       `json:"x_property"`
	Options     ChartOptions `json:"options"`
	Rows        []ChartRow   `json:"rows"`
}

// BuildChart configures the climogram combo chart: precipitation as bars on
// the left axis, temperature as a line on the right axis, one row per joined
// year.
func BuildChart(c domain.Climogram) ChartSpec {
	rows := make([]ChartRow, 0, len(c.Series))
	for _, p := range c.Series {
		rows = append(rows, ChartRow{
			Year:   p.Year,
			Values: []*float64{p.Precipitation, p.Temperature},
		})
	}

	return ChartSpec{
		ChartType:   chartType,
		SeriesNames: []string{domain.Precipitation.BandName, domain.Temperature.BandName},
		Reducer:     seriesReduction,
		ScaleMeters: regionScaleM,
		XProperty:   "year",
		Options: ChartOptions{
			Title:      ChartTitle,
			SeriesType: "bars",
			Series: map[int]SeriesOption{
				0: {TargetAxisIndex: 0, Color: "CadetBlue"},
				1: {TargetAxisIndex: 1, Type: "line", Color: "red"},
			},
			VAxes: map[int]Axis{
				0: {Title: "Precipitation (mm/year)"},
				1: {Title: "Temperature (°C)"},
			},
			HAxes: map[int]Axis{
				0: {Title: "Year", Format: YearAxisFormat},
			},
			LineWidth: 1,
			PointSize: 0,
			Bar:       BarOption{GroupWidth: "80%"},
		},
		Rows: rows,
	}
}
