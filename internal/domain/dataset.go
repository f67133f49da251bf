package domain

// Reducer names the per-pixel operator applied across a year of observations.
type Reducer string

const (
	ReduceSum  Reducer = "sum"
	ReduceMean Reducer = "mean"
)

// Dataset describes one remote daily dataset and how it is reduced to an
// annual raster.
type Dataset struct {
	// ID is the catalog identifier, e.g. "UCSB-CHG/CHIRPS/DAILY".
	ID string
	// Band is the source band selected from the dataset.
	Band string
	// BandName labels the reduced output band.
	BandName string
	Reducer  Reducer
	// Convert maps a reduced raw value to output units.
	Convert func(float64) float64
}

// Precipitation is CHIRPS daily rainfall summed to mm/year.
var Precipitation = Dataset{
	ID:       "UCSB-CHG/CHIRPS/DAILY",
	Band:     "precipitation",
	BandName: "Precipitation by CHIRPS",
	Reducer:  ReduceSum,
	Convert:  Identity,
}

// Temperature is MODIS daytime land surface temperature averaged to °C.
var Temperature = Dataset{
	ID:       "MODIS/061/MOD11A1",
	Band:     "LST_Day_1km",
	BandName: "Temperature by MOD11A1",
	Reducer:  ReduceMean,
	Convert:  KelvinScaledToCelsius,
}

// Identity returns v unchanged.
func Identity(v float64) float64 { return v }

// KelvinScaledToCelsius converts MOD11A1 LST digital numbers (0.02 K scale)
// to degrees Celsius.
func KelvinScaledToCelsius(raw float64) float64 {
	return raw*0.02 - 273.15
}

// reduce applies r to values. values is never empty.
func (r Reducer) reduce(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	if r == ReduceMean {
		return sum / float64(len(values))
	}
	return sum
}
