package domain

import "time"

// Observation is one timestamped, spatially located reading of a dataset band.
type Observation struct {
	Time  time.Time `json:"time"`
	Geo   Geo       `json:"geo"`
	Value float64   `json:"value"`
}

// Cell is one pixel of an annual raster.
type Cell struct {
	Geo   Geo     `json:"geo"`
	Value float64 `json:"value"`
}

// Raster is a sparse spatial grid: only pixels inside the region that had at
// least one observation are present. Cells are ordered by latitude, then
// longitude.
type Raster struct {
	Cells []Cell `json:"cells"`
}

// Empty reports whether the raster carries no usable value.
func (r Raster) Empty() bool {
	return len(r.Cells) == 0
}

// Mean returns the spatial mean of all cells. ok is false for an empty raster.
func (r Raster) Mean() (mean float64, ok bool) {
	if r.Empty() {
		return 0, false
	}
	var sum float64
	for _, c := range r.Cells {
		sum += c.Value
	}
	return sum / float64(len(r.Cells)), true
}
