// Command climogram builds one climogram document from a GeoJSON region file
// and writes it as JSON.
//
// Usage:
//
//	go run ./cmd/climogram \
//	  -region data/regions/niamey.geojson \
//	  -start 2000 -end 2023 \
//	  -out climogram.json
//
// Catalog settings come from the environment (CATALOG_URL, CATALOG_TOKEN, ...)
// or a .env file. Pass -mock to use the built-in synthetic catalog instead.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/climogram-etl/internal/adapter/catalog"
	"github.com/couchcryptid/climogram-etl/internal/adapter/catalog/catalogtest"
	"github.com/couchcryptid/climogram-etl/internal/config"
	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/observability"
	"github.com/couchcryptid/climogram-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	regionPath := flag.String("region", "", "GeoJSON file with the region boundary")
	regionID := flag.String("id", "", "region id (defaults to the feature's id or name)")
	start := flag.Int("start", 2000, "first year")
	end := flag.Int("end", 2023, "last year")
	out := flag.String("out", "climogram.json", "output path, - for stdout")
	joinPolicy := flag.String("join-policy", "", "drop or strict (overrides JOIN_POLICY)")
	mock := flag.Bool("mock", false, "use the synthetic catalog instead of CATALOG_URL")
	flag.Parse()

	if *regionPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -region")
	}

	// The region is read before anything else so a bad path never reaches the catalog.
	data, err := os.ReadFile(*regionPath)
	if err != nil {
		return fmt.Errorf("read region: %w", err)
	}
	region, err := domain.ParseRegionGeoJSON(*regionID, data)
	if err != nil {
		return fmt.Errorf("parse region %s: %w", *regionPath, err)
	}
	if region.ID == "" {
		region.ID = *regionPath
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *joinPolicy != "" {
		if cfg.JoinPolicy, err = domain.ParseJoinPolicy(*joinPolicy); err != nil {
			return err
		}
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetricsForTesting()

	var source domain.ObservationSource = catalogtest.Default()
	if !*mock {
		client := catalog.NewClient(cfg.CatalogURL, cfg.CatalogToken, cfg.CatalogTimeout, cfg.CatalogMaxRetries, metrics, logger)
		source = catalog.NewCachedSource(client, cfg.CatalogCacheSize, metrics)
	}

	req := domain.ClimogramRequest{Region: region, StartYear: *start, EndYear: *end}
	req.ID = req.Key()
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	aggregator := pipeline.NewAggregator(source, cfg.JoinPolicy, logger, metrics)
	doc, err := pipeline.NewTransformer(aggregator, logger).BuildDocument(ctx, req)
	if err != nil {
		return err
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal climogram: %w", err)
	}
	if *out == "-" {
		_, err = os.Stdout.Write(append(body, '\n'))
		return err
	}
	if err := os.WriteFile(*out, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %s: %d years joined, %d dropped", *out, len(doc.Climogram.Records), len(doc.Climogram.DroppedYears))
	return nil
}
