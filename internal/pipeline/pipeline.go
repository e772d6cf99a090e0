// Package pipeline drives companies through fetch, extract, normalize, and
// enrich phases, one row per company, and fans batches out across a bounded
// worker pool.
package pipeline

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/address-intel/internal/enrich"
	"github.com/sells-group/address-intel/internal/extract"
	"github.com/sells-group/address-intel/internal/fetch"
	"github.com/sells-group/address-intel/internal/model"
	"github.com/sells-group/address-intel/internal/normalize"
)

// standardMaxPages is the page budget per company outside Deep mode,
// home page included.
const standardMaxPages = 4

// defaultFallbackPaths are resolved against the site root when the home page
// yields no candidates and link discovery comes up short.
var defaultFallbackPaths = []string{"/contact", "/contact-us", "/about"}

// Options are construction-time settings shared by every row.
type Options struct {
	// MaxPages is the per-company page budget in Deep mode. Default 6.
	MaxPages int
	// FallbackPaths are tried in order after discovered contact links.
	FallbackPaths []string
	// Concurrency bounds the batch worker pool. Default 4.
	Concurrency int
}

// ProcessOptions vary per call.
type ProcessOptions struct {
	// Deep raises the page budget from standardMaxPages to Options.MaxPages.
	Deep bool
	// IncludeDetails attaches candidates and phase timings to the row.
	IncludeDetails bool
}

// Pipeline orchestrates the per-company phases.
type Pipeline struct {
	fetcher   *fetch.Fetcher
	extractor *extract.Extractor
	enricher  *enrich.Enricher
	opts      Options
}

// New creates a Pipeline with all collaborators. enricher may be nil when
// enrichment is not configured.
func New(fetcher *fetch.Fetcher, extractor *extract.Extractor, enricher *enrich.Enricher, opts Options) *Pipeline {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 6
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if len(opts.FallbackPaths) == 0 {
		opts.FallbackPaths = defaultFallbackPaths
	}
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		enricher:  enricher,
		opts:      opts,
	}
}

// EnrichmentEnabled reports whether rows will be geocoded.
func (p *Pipeline) EnrichmentEnabled() bool {
	return p.enricher != nil && p.enricher.Enabled()
}

// ProcessCompany runs the full phase sequence for a single company. It never
// returns an error: every failure mode lands in the row's status and error
// fields.
func (p *Pipeline) ProcessCompany(ctx context.Context, company model.Company, opts ProcessOptions) model.ResultRow {
	log := zap.L().With(zap.String("company", company.Name), zap.String("website", company.Website))
	log.Info("pipeline: processing company")

	row := model.ResultRow{Company: company, Status: model.StatusSuccess}

	var phases []model.PhaseResult
	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) {
		start := time.Now()
		phase, err := fn()
		duration := time.Since(start).Milliseconds()

		if phase == nil {
			phase = &model.PhaseResult{}
		}
		phase.Name = name
		phase.Duration = duration

		switch {
		case err != nil:
			phase.Status = model.PhaseStatusFailed
			phase.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(err))
		case phase.Status == model.PhaseStatusSkipped:
			log.Info("pipeline: phase skipped", zap.String("phase", name))
		default:
			phase.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration))
		}

		phases = append(phases, *phase)
	}
	skipPhase := func(name string) {
		trackPhase(name, func() (*model.PhaseResult, error) {
			return &model.PhaseResult{Status: model.PhaseStatusSkipped}, nil
		})
	}
	finish := func() model.ResultRow {
		if opts.IncludeDetails {
			row.Phases = phases
		}
		return row
	}

	var home *fetch.Page
	var homeErr error
	trackPhase("fetch", func() (*model.PhaseResult, error) {
		page, err := p.fetcher.Fetch(ctx, company.Website)
		if err != nil {
			homeErr = err
			return nil, err
		}
		home = page
		return nil, nil
	})
	if home == nil {
		row.Status = model.StatusFetchError
		row.ErrorKind = model.ErrKindConnection
		row.ErrorDetail = homeErr.Error()
		var fetchErr *fetch.Error
		if errors.As(homeErr, &fetchErr) {
			row.ErrorKind = fetchErr.Kind
		}
		return finish()
	}

	var candidates []model.Candidate
	trackPhase("extract", func() (*model.PhaseResult, error) {
		candidates = p.extractor.Extract(home.Body, home.URL)
		if len(candidates) > 0 {
			return nil, nil
		}

		budget := standardMaxPages
		if opts.Deep {
			budget = p.opts.MaxPages
		}
		for _, target := range p.fallbackURLs(home, budget-1) {
			if ctx.Err() != nil {
				break
			}
			page, err := p.fetcher.Fetch(ctx, target)
			if err != nil {
				log.Warn("pipeline: fallback page failed", zap.String("url", target), zap.Error(err))
				continue
			}
			candidates = p.extractor.Extract(page.Body, page.URL)
			if len(candidates) > 0 {
				break
			}
		}
		return nil, nil
	})

	if len(candidates) == 0 {
		row.Status = model.StatusNoAddressFound
		skipPhase("normalize")
		skipPhase("enrich")
		log.Info("pipeline: no address found")
		return finish()
	}

	winning := candidates[0]
	row.SourceURL = winning.SourceURL
	if opts.IncludeDetails {
		row.Candidates = candidateTexts(candidates)
	}

	var addr model.Address
	trackPhase("normalize", func() (*model.PhaseResult, error) {
		addr = normalize.Normalize(winning.RawText)
		return nil, nil
	})

	if p.enricher == nil || !p.enricher.Enabled() {
		row.Address = &model.EnrichedAddress{Address: addr}
		skipPhase("enrich")
		log.Info("pipeline: company processed",
			zap.String("status", string(row.Status)),
			zap.String("source_url", row.SourceURL))
		return finish()
	}

	trackPhase("enrich", func() (*model.PhaseResult, error) {
		enriched, enrichErr := p.enricher.Enrich(ctx, addr, winning.RawText)
		if enrichErr != nil {
			row.Address = &model.EnrichedAddress{Address: addr}
			row.Status = model.StatusEnrichmentError
			row.ErrorKind = enrichErr.Kind
			row.ErrorDetail = enrichErr.Error()
			return nil, enrichErr
		}
		row.Address = enriched
		return nil, nil
	})

	log.Info("pipeline: company processed",
		zap.String("status", string(row.Status)),
		zap.String("source_url", row.SourceURL))
	return finish()
}

// fallbackURLs builds the ordered sub-page list: discovered contact/about
// links first, then the fixed fallback paths resolved against the final home
// URL, deduplicated and capped at budget.
func (p *Pipeline) fallbackURLs(home *fetch.Page, budget int) []string {
	if budget <= 0 {
		return nil
	}

	seen := map[string]bool{home.URL: true}
	var urls []string
	for _, link := range fetch.CandidateLinks(home, budget) {
		if !seen[link] {
			seen[link] = true
			urls = append(urls, link)
		}
	}

	base, err := url.Parse(home.URL)
	if err != nil {
		return urls
	}
	for _, path := range p.opts.FallbackPaths {
		ref, err := url.Parse(path)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref).String()
		if !seen[resolved] {
			seen[resolved] = true
			urls = append(urls, resolved)
		}
	}

	if len(urls) > budget {
		urls = urls[:budget]
	}
	return urls
}

func candidateTexts(candidates []model.Candidate) []string {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.RawText
	}
	return texts
}
