package render

import "github.com/couchcryptid/climogram-etl/internal/domain"

// Document is the rendered output of one climogram request.
type Document struct {
	Climogram domain.Climogram `json:"climogram"`
	Canvas    *Canvas          `json:"canvas"`
}

// Render builds the presentation document for c: the chart and its three
// layers, bottom to top. Each dataset layer carries that dataset's own years,
// including years the join dropped.
func Render(c domain.Climogram) Document {
	canvas := NewCanvas(c.Region)
	canvas.AddLayer(TemperatureLayer(c.TemperatureYears))
	canvas.AddLayer(PrecipitationLayer(c.PrecipitationYears))
	canvas.AddLayer(OutlineLayer())
	canvas.SetChart(BuildChart(c))

	return Document{Climogram: c, Canvas: canvas}
}
