package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether p lies inside or on the edge of the box.
func (b BBox) Contains(p Geo) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Center returns the midpoint of the box.
func (b BBox) Center() Geo {
	return Geo{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// String formats the box as "minLon,minLat,maxLon,maxLat".
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Region is an immutable region of interest. Rings follow the GeoJSON polygon
// convention: the first ring is the outer boundary, the rest are holes.
type Region struct {
	ID    string  `json:"id"`
	Rings [][]Geo `json:"rings"`
}

// IsEmpty reports whether the region has no usable outer ring. Nothing
// intersects an empty region.
func (r Region) IsEmpty() bool {
	return len(r.Rings) == 0 || len(r.Rings[0]) < 3
}

// BBox returns the bounding box of the outer ring. ok is false for an empty region.
func (r Region) BBox() (box BBox, ok bool) {
	if r.IsEmpty() {
		return BBox{}, false
	}
	box = BBox{MinLon: math.Inf(1), MinLat: math.Inf(1), MaxLon: math.Inf(-1), MaxLat: math.Inf(-1)}
	for _, p := range r.Rings[0] {
		box.MinLon = math.Min(box.MinLon, p.Lon)
		box.MinLat = math.Min(box.MinLat, p.Lat)
		box.MaxLon = math.Max(box.MaxLon, p.Lon)
		box.MaxLat = math.Max(box.MaxLat, p.Lat)
	}
	return box, true
}

// Digest returns a hex SHA-256 over every ring vertex. Regions with equal
// digests clip pixels identically.
func (r Region) Digest() string {
	h := sha256.New()
	buf := make([]byte, 0, 16)
	for _, ring := range r.Rings {
		buf = binary.BigEndian.AppendUint64(buf[:0], uint64(len(ring)))
		h.Write(buf)
		for _, p := range ring {
			buf = binary.BigEndian.AppendUint64(buf[:0], math.Float64bits(p.Lat))
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(p.Lon))
			h.Write(buf)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Contains reports whether p is inside the outer ring and outside every hole
// (even-odd rule).
func (r Region) Contains(p Geo) bool {
	if r.IsEmpty() {
		return false
	}
	if !pointInRing(p, r.Rings[0]) {
		return false
	}
	for _, hole := range r.Rings[1:] {
		if pointInRing(p, hole) {
			return false
		}
	}
	return true
}

// pointInRing casts a ray towards +lon and counts edge crossings.
func pointInRing(p Geo, ring []Geo) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, yj := ring[i].Lat, ring[j].Lat
		if (yi > p.Lat) == (yj > p.Lat) {
			continue
		}
		xi, xj := ring[i].Lon, ring[j].Lon
		if p.Lon < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// ParseRegionGeoJSON reads a region boundary from GeoJSON. It accepts a
// FeatureCollection, a Feature, or a bare Polygon/MultiPolygon geometry and
// uses the first polygon found. The id is taken from the argument, falling
// back to the feature's "id" or "name" property.
func ParseRegionGeoJSON(id string, data []byte) (Region, error) {
	var doc geoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Region{}, fmt.Errorf("%w: decode geojson: %v", ErrInvalidRegion, err)
	}

	switch strings.ToLower(doc.Type) {
	case "featurecollection":
		for _, f := range doc.Features {
			if r, err := regionFromFeature(id, f); err == nil {
				return r, nil
			}
		}
		return Region{}, fmt.Errorf("%w: no polygon feature", ErrInvalidRegion)
	case "feature":
		return regionFromFeature(id, geoJSONFeature{Properties: doc.Properties, Geometry: doc.Geometry})
	default:
		rings, err := ringsFromGeometry(geoJSONGeometry{Type: doc.Type, Coordinates: doc.Coordinates})
		if err != nil {
			return Region{}, err
		}
		return Region{ID: id, Rings: rings}, nil
	}
}

func regionFromFeature(id string, f geoJSONFeature) (Region, error) {
	if f.Geometry == nil {
		return Region{}, fmt.Errorf("%w: feature without geometry", ErrInvalidRegion)
	}
	rings, err := ringsFromGeometry(*f.Geometry)
	if err != nil {
		return Region{}, err
	}
	if id == "" {
		for _, key := range []string{"id", "name"} {
			if v, ok := f.Properties[key].(string); ok && v != "" {
				id = v
				break
			}
		}
	}
	return Region{ID: id, Rings: rings}, nil
}

func ringsFromGeometry(g geoJSONGeometry) ([][]Geo, error) {
	switch strings.ToLower(g.Type) {
	case "polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("%w: polygon coordinates: %v", ErrInvalidRegion, err)
		}
		return toRings(coords)
	case "multipolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("%w: multipolygon coordinates: %v", ErrInvalidRegion, err)
		}
		if len(coords) == 0 {
			return nil, fmt.Errorf("%w: empty multipolygon", ErrInvalidRegion)
		}
		return toRings(coords[0])
	default:
		return nil, fmt.Errorf("%w: unsupported geometry type %q", ErrInvalidRegion, g.Type)
	}
}

// toRings converts GeoJSON [lon, lat] positions.
func toRings(coords [][][]float64) ([][]Geo, error) {
	rings := make([][]Geo, 0, len(coords))
	for _, ring := range coords {
		pts := make([]Geo, 0, len(ring))
		for _, pos := range ring {
			if len(pos) < 2 {
				return nil, fmt.Errorf("%w: position needs lon and lat", ErrInvalidRegion)
			}
			pts = append(pts, Geo{Lon: pos[0], Lat: pos[1]})
		}
		rings = append(rings, pts)
	}
	return rings, nil
}

type geoJSON struct {
	Type        string           `json:"type"`
	Features    []geoJSONFeature `json:"features"`
	Properties  map[string]any   `json:"properties"`
	Geometry    *geoJSONGeometry `json:"geometry"`
	Coordinates json.RawMessage  `json:"coordinates"`
}

type geoJSONFeature struct {
	Properties map[string]any   `json:"properties"`
	Geometry   *geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}
