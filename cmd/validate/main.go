// Command validate checks the invariants of rendered climogram documents:
// year ordering and range, join consistency with the dropped years, chart
// configuration, and layer visualization parameters.
//
// Usage:
//
//	go run ./cmd/validate -docs data/mock/climograms.json
//
// The input may hold a single document or a JSON array of documents.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/render"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	docsPath := flag.String("docs", "", "path to rendered climogram JSON")
	flag.Parse()

	if *docsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	docs, err := loadDocuments(*docsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load documents: %v\n", err)
		os.Exit(1)
	}
	os.Exit(report(docs))
}

func report(docs []render.Document) int {
	fmt.Println("=== Climogram Document Validation ===")
	fmt.Println()

	phases := validate(docs)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Documents: %d\n", len(docs))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(docs []render.Document) []*phase {
	return []*phase{
		validateYears(docs),
		validateJoin(docs),
		validateSeries(docs),
		validateChart(docs),
		validateLayers(docs),
	}
}

func loadDocuments(path string) ([]render.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var docs []render.Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}
	var doc render.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return []render.Document{doc}, nil
}

// ── Phases ──

// validateYears checks that joined years lie in the requested range and
// increase strictly.
func validateYears(docs []render.Document) *phase {
	p := &phase{name: "Years in range and ascending"}
	for _, d := range docs {
		cg := d.Climogram
		if cg.StartYear > cg.EndYear {
			p.errorf("%s: inverted range %d-%d", cg.RequestID, cg.StartYear, cg.EndYear)
		}
		prev := domain.YearBucket(math.MinInt32)
		for _, rec := range cg.Records {
			if int(rec.Year) < cg.StartYear || int(rec.Year) > cg.EndYear {
				p.errorf("%s: year %d outside %d-%d", cg.RequestID, rec.Year, cg.StartYear, cg.EndYear)
			}
			if rec.Year <= prev {
				p.errorf("%s: year %d not after %d", cg.RequestID, rec.Year, prev)
			}
			if !rec.Start.Equal(rec.Year.Start()) {
				p.errorf("%s: year %d starts at %s", cg.RequestID, rec.Year, rec.Start)
			}
			prev = rec.Year
		}
	}
	return p
}

// validateJoin checks that every requested year is either joined or dropped,
// never both, and that both sides of each record carry the record's year.
func validateJoin(docs []render.Document) *phase {
	p := &phase{name: "Join intersection and dropped years"}
	for _, d := range docs {
		cg := d.Climogram
		joined := make(map[domain.YearBucket]bool, len(cg.Records))
		for _, rec := range cg.Records {
			joined[rec.Year] = true
			if rec.Precipitation.Key.Year != rec.Year || rec.Temperature.Key.Year != rec.Year {
				p.errorf("%s: record %d joins %d with %d", cg.RequestID, rec.Year,
					rec.Precipitation.Key.Year, rec.Temperature.Key.Year)
			}
			if rec.Precipitation.DatasetID != domain.Precipitation.ID || rec.Temperature.DatasetID != domain.Temperature.ID {
				p.errorf("%s: record %d has datasets %q/%q", cg.RequestID, rec.Year,
					rec.Precipitation.DatasetID, rec.Temperature.DatasetID)
			}
		}
		if !slices.IsSorted(cg.DroppedYears) {
			p.errorf("%s: dropped years not sorted: %v", cg.RequestID, cg.DroppedYears)
		}
		for _, y := range cg.DroppedYears {
			if joined[y] {
				p.errorf("%s: year %d both joined and dropped", cg.RequestID, y)
			}
			if int(y) < cg.StartYear || int(y) > cg.EndYear {
				p.errorf("%s: dropped year %d outside %d-%d", cg.RequestID, y, cg.StartYear, cg.EndYear)
			}
		}
		if cg.JoinPolicy == domain.JoinStrict && len(cg.DroppedYears) > 0 {
			p.errorf("%s: strict join with dropped years %v", cg.RequestID, cg.DroppedYears)
		}
		if cg.StartYear <= cg.EndYear && len(cg.Records)+len(cg.DroppedYears) > cg.EndYear-cg.StartYear+1 {
			p.errorf("%s: %d joined + %d dropped exceeds %d requested years", cg.RequestID,
				len(cg.Records), len(cg.DroppedYears), cg.EndYear-cg.StartYear+1)
		}
	}
	return p
}

// validateSeries checks that each series point is the spatial mean of its
// record's rasters and that values are physically plausible.
func validateSeries(docs []render.Document) *phase {
	p := &phase{name: "Series means and units"}
	for _, d := range docs {
		cg := d.Climogram
		if len(cg.Series) != len(cg.Records) {
			p.errorf("%s: %d series points for %d records", cg.RequestID, len(cg.Series), len(cg.Records))
			continue
		}
		for i, pt := range cg.Series {
			rec := cg.Records[i]
			if pt.Year != rec.Year {
				p.errorf("%s: series point %d has year %d, record has %d", cg.RequestID, i, pt.Year, rec.Year)
			}
			checkMean(p, cg.RequestID, "precipitation", pt.Year, pt.Precipitation, rec.Precipitation.Raster)
			checkMean(p, cg.RequestID, "temperature", pt.Year, pt.Temperature, rec.Temperature.Raster)
			if pt.Precipitation != nil && *pt.Precipitation < 0 {
				p.errorf("%s: %d: negative precipitation %.2f", cg.RequestID, pt.Year, *pt.Precipitation)
			}
			if pt.Temperature != nil && (*pt.Temperature < -90 || *pt.Temperature > 70) {
				p.errorf("%s: %d: implausible temperature %.2f °C", cg.RequestID, pt.Year, *pt.Temperature)
			}
		}
	}
	return p
}

func checkMean(p *phase, id, band string, year domain.YearBucket, got *float64, r domain.Raster) {
	want, ok := r.Mean()
	switch {
	case !ok && got != nil:
		p.errorf("%s: %d: %s has a value but an empty raster", id, year, band)
	case ok && got == nil:
		p.errorf("%s: %d: %s missing, raster mean %.4f", id, year, band, want)
	case ok && math.Abs(*got-want) > 1e-6:
		p.errorf("%s: %d: %s %.4f, raster mean %.4f", id, year, band, *got, want)
	}
}

// validateChart checks the combo chart configuration.
func validateChart(docs []render.Document) *phase {
	p := &phase{name: "Chart configuration"}
	for _, d := range docs {
		id := d.Climogram.RequestID
		if d.Canvas == nil || d.Canvas.Chart == nil {
			p.errorf("%s: no chart", id)
			continue
		}
		ch := d.Canvas.Chart
		if ch.ChartType != "ComboChart" {
			p.errorf("%s: chart type %q", id, ch.ChartType)
		}
		if len(ch.SeriesNames) != 2 || len(ch.Options.Series) != len(ch.SeriesNames) {
			p.errorf("%s: %d series names, %d series options", id, len(ch.SeriesNames), len(ch.Options.Series))
		}
		if ch.Options.Title != render.ChartTitle {
			p.errorf("%s: title %q", id, ch.Options.Title)
		}
		if ch.Options.HAxes[0].Format != render.YearAxisFormat {
			p.errorf("%s: year axis format %q", id, ch.Options.HAxes[0].Format)
		}
		if s := ch.Options.Series[1]; s.Type != "line" || s.TargetAxisIndex != 1 {
			p.errorf("%s: temperature series %+v", id, s)
		}
		if len(ch.Rows) != len(d.Climogram.Series) {
			p.errorf("%s: %d chart rows for %d series points", id, len(ch.Rows), len(d.Climogram.Series))
			continue
		}
		for i, row := range ch.Rows {
			if row.Year != d.Climogram.Series[i].Year {
				p.errorf("%s: chart row %d year %d", id, i, row.Year)
			}
			if len(row.Values) != len(ch.SeriesNames) {
				p.errorf("%s: chart row %d has %d values", id, i, len(row.Values))
			}
		}
	}
	return p
}

// validateLayers checks the layer stack and visualization ranges.
func validateLayers(docs []render.Document) *phase {
	p := &phase{name: "Layer visualization parameters"}
	for _, d := range docs {
		id := d.Climogram.RequestID
		if d.Canvas == nil {
			p.errorf("%s: no canvas", id)
			continue
		}
		checkRange(p, id, d.Canvas, render.TemperatureLayerName, 3.88, 30.25)
		checkRange(p, id, d.Canvas, render.PrecipitationLayerName, 146.1, 693.13)

		outline, ok := d.Canvas.Layer(render.OutlineLayerName)
		switch {
		case !ok:
			p.errorf("%s: missing %q layer", id, render.OutlineLayerName)
		case !outline.Shown:
			p.errorf("%s: outline hidden", id)
		}
	}
	return p
}

func checkRange(p *phase, id string, c *render.Canvas, name string, lo, hi float64) {
	l, ok := c.Layer(name)
	if !ok {
		p.errorf("%s: missing %q layer", id, name)
		return
	}
	if l.Vis.Min == nil || l.Vis.Max == nil || *l.Vis.Min != lo || *l.Vis.Max != hi {
		p.errorf("%s: %q range is not %.2f-%.2f", id, name, lo, hi)
	}
	if l.Shown {
		p.errorf("%s: %q shown by default", id, name)
	}
	if len(l.Vis.Palette) != 8 {
		p.errorf("%s: %q palette has %d colors", id, name, len(l.Vis.Palette))
	}
}
