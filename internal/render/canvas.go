package render

import "github.com/couchcryptid/climogram-etl/internal/domain"

// LayerKind distinguishes raster overlays from vector outlines.
type LayerKind string

const (
	LayerRaster  LayerKind = "raster"
	LayerOutline LayerKind = "outline"
)

// VisParams holds the visualization parameters of a layer.
type VisParams struct {
	Palette []string `json:"palette,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	// Color and Width apply to outlines: the paint color index and the
	// stroke width in pixels.
	Color int `json:"color,omitempty"`
	Width int `json:"width,omitempty"`
}

// Layer is one map overlay.
type Layer struct {
	Name    string              `json:"name"`
	Kind    LayerKind           `json:"kind"`
	Dataset string              `json:"dataset,omitempty"`
	Band    string              `json:"band,omitempty"`
	Years   []domain.YearBucket `json:"years,omitempty"`
	Vis     VisParams           `json:"vis"`
	Shown   bool                `json:"shown"`
}

// Canvas is the rendering context for one climogram. It is centred on the
// region and collects layers in the order they are added.
type Canvas struct {
	Center domain.Geo   `json:"center"`
	Bounds *domain.BBox `json:"bounds,omitempty"`
	Layers []Layer      `json:"layers"`
	Chart  *ChartSpec   `json:"chart,omitempty"`
}

// NewCanvas creates a canvas centred on the bounding box of region. An empty
// region leaves the canvas at the origin without bounds.
func NewCanvas(region domain.Region) *Canvas {
	c := &Canvas{Layers: []Layer{}}
	if box, ok := region.BBox(); ok {
		c.Center = box.Center()
		c.Bounds = &box
	}
	return c
}

// AddLayer appends l on top of the existing layers.
func (c *Canvas) AddLayer(l Layer) {
	c.Layers = append(c.Layers, l)
}

// SetChart attaches the chart, replacing any previous one.
func (c *Canvas) SetChart(spec ChartSpec) {
	c.Chart = &spec
}

// Layer returns the layer called name.
func (c *Canvas) Layer(name string) (Layer, bool) {
	for _, l := range c.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}
