package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/address-intel/internal/enrich"
	"github.com/sells-group/address-intel/internal/extract"
	"github.com/sells-group/address-intel/internal/fetch"
	"github.com/sells-group/address-intel/internal/pipeline"
	"github.com/sells-group/address-intel/pkg/geocode"
)

// buildPipeline wires the fetcher, extractor, and optional enricher the
// run/batch/serve commands share, from the loaded configuration.
func buildPipeline() *pipeline.Pipeline {
	fetcher := fetch.New(fetch.Config{
		Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRedirects: cfg.Fetch.MaxRedirects,
		MaxBodyBytes: int64(cfg.Fetch.MaxBodyKB) << 10,
		UserAgent:    cfg.Fetch.UserAgent,
	})

	extractor := extract.New(extract.Config{MaxCandidates: cfg.Extract.MaxCandidates})

	// Geocoding is optional. Without a key the phase is skipped, unless
	// require_key turns absence into per-row failures.
	var enricher *enrich.Enricher
	switch {
	case cfg.Enrich.GoogleAPIKey != "":
		client := geocode.NewClient(
			geocode.WithAPIKey(cfg.Enrich.GoogleAPIKey),
			geocode.WithRateLimit(cfg.Enrich.RateLimit),
			geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Enrich.TimeoutSecs) * time.Second}),
		)
		enricher = enrich.New(client, enrich.Config{RequireKey: cfg.Enrich.RequireKey})
		zap.L().Info("geocoding enrichment enabled")
	case cfg.Enrich.RequireKey:
		enricher = enrich.New(nil, enrich.Config{RequireKey: true})
		zap.L().Warn("enrich.require_key set without an api key, every row will fail enrichment")
	default:
		zap.L().Info("no geocoding api key configured, enrichment disabled")
	}

	return pipeline.New(fetcher, extractor, enricher, pipeline.Options{
		MaxPages:    cfg.Batch.MaxPages,
		Concurrency: cfg.Batch.Concurrency,
	})
}
