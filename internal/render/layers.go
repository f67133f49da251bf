package render

import "github.com/couchcryptid/climogram-etl/internal/domain"

const (
	TemperatureLayerName   = "Temperature (MODIS)"
	PrecipitationLayerName = "Precipitation (CHIRPS)"
	OutlineLayerName       = "Region Outline"
)

var (
	temperaturePalette   = []string{"purple", "cyan", "blue", "green", "yellow", "orange", "red", "black"}
	precipitationPalette = []string{"cyan", "navy", "turquoise", "aqua", "midnightblue", "skyblue", "royalblue", "aquamarine"}
)

// TemperatureLayer is the annual mean temperature overlay, hidden by default.
func TemperatureLayer(years []domain.YearBucket) Layer {
	return Layer{
		Name:    TemperatureLayerName,
		Kind:    LayerRaster,
		Dataset: domain.Temperature.ID,
		Band:    domain.Temperature.BandName,
		Years:   years,
		Vis:     VisParams{Palette: temperaturePalette, Min: ptr(3.88), Max: ptr(30.25)},
	}
}

// PrecipitationLayer is the annual precipitation overlay, hidden by default.
func PrecipitationLayer(years []domain.YearBucket) Layer {
	return Layer{
		Name:    PrecipitationLayerName,
		Kind:    LayerRaster,
		Dataset: domain.Precipitation.ID,
		Band:    domain.Precipitation.BandName,
		Years:   years,
		Vis:     VisParams{Palette: precipitationPalette, Min: ptr(146.1), Max: ptr(693.13)},
	}
}

// OutlineLayer paints the region boundary and is shown by default.
func OutlineLayer() Layer {
	return Layer{
		Name:  OutlineLayerName,
		Kind:  LayerOutline,
		Vis:   VisParams{Color: 2, Width: 2},
		Shown: true,
	}
}

func ptr(v float64) *float64 { return &v }
