// Command genmock generates climogram fixtures from the synthetic catalog, or
// serves that catalog over HTTP for local runs.
//
// Write a request fixture and the documents the pipeline produces for it:
//
//	go run ./cmd/genmock \
//	  -region data/regions/niamey.geojson \
//	  -requests-out data/mock/climogram_requests.json \
//	  -docs-out data/mock/climograms.json
//
// Serve the synthetic catalog on CATALOG_URL's port:
//
//	go run ./cmd/genmock -serve :8090
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climogram-etl/internal/adapter/catalog/catalogtest"
	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/observability"
	"github.com/couchcryptid/climogram-etl/internal/pipeline"
	"github.com/couchcryptid/climogram-etl/internal/render"
)

// requestRanges are the year ranges written to the request fixture. The
// second one starts before MODIS coverage so its documents carry dropped years.
var requestRanges = [][2]int{
	{2000, 2023},
	{1995, 2005},
	{2010, 2010},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	regionPath := flag.String("region", "", "GeoJSON file with the region boundary")
	requestsOut := flag.String("requests-out", "", "output path for the request fixture")
	docsOut := flag.String("docs-out", "", "output path for the rendered documents")
	serve := flag.String("serve", "", "serve the synthetic catalog on this address instead")
	token := flag.String("token", "", "bearer token required by the served catalog")
	flag.Parse()

	fixture := catalogtest.Default()

	if *serve != "" {
		log.Printf("synthetic catalog listening on %s", *serve)
		srv := &http.Server{
			Addr:              *serve,
			Handler:           catalogtest.NewHandler(fixture, *token),
			ReadHeaderTimeout: 10 * time.Second,
		}
		return srv.ListenAndServe()
	}

	if *regionPath == "" || *requestsOut == "" || *docsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -region, -requests-out, -docs-out")
	}

	data, err := os.ReadFile(*regionPath)
	if err != nil {
		return fmt.Errorf("read region: %w", err)
	}
	region, err := domain.ParseRegionGeoJSON("", data)
	if err != nil {
		return err
	}

	// Fixed clock for reproducible generated_at timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	aggregator := pipeline.NewAggregator(fixture, domain.JoinDrop, logger, observability.NewMetricsForTesting())
	transformer := pipeline.NewTransformer(aggregator, logger)

	requests := make([]domain.ClimogramRequest, 0, len(requestRanges))
	docs := make([]render.Document, 0, len(requestRanges))
	for i, r := range requestRanges {
		req := domain.ClimogramRequest{
			ID:        fmt.Sprintf("%s-%02d", region.ID, i+1),
			Region:    region,
			StartYear: r[0],
			EndYear:   r[1],
		}
		doc, err := transformer.BuildDocument(context.Background(), req)
		if err != nil {
			return fmt.Errorf("request %s: %w", req.ID, err)
		}
		requests = append(requests, req)
		docs = append(docs, doc)
		log.Printf("%s: %d-%d, %d joined, %d dropped", req.ID, r[0], r[1],
			len(doc.Climogram.Records), len(doc.Climogram.DroppedYears))
	}

	if err := writeJSON(*requestsOut, requests); err != nil {
		return fmt.Errorf("writing request fixture: %w", err)
	}
	log.Printf("wrote request fixture: %s", *requestsOut)

	if err := writeJSON(*docsOut, docs); err != nil {
		return fmt.Errorf("writing documents: %w", err)
	}
	log.Printf("wrote documents: %s", *docsOut)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
