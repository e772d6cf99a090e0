// Package enrich resolves normalized addresses against the geocoding
// provider and merges the provider's components back into the row. The
// stage is optional: without a configured client it either disables itself
// or fails each row, per configuration.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/address-intel/internal/model"
	"github.com/sells-group/address-intel/internal/normalize"
	"github.com/sells-group/address-intel/internal/resilience"
	"github.com/sells-group/address-intel/pkg/geocode"
)

// Config controls enrichment behavior.
type Config struct {
	// RequireKey makes a missing client a per-row invalid_key failure
	// instead of silently disabling enrichment.
	RequireKey bool
}

// Error is a per-row enrichment failure. It marks the row enrichment_error
// and never aborts a batch.
type Error struct {
	Kind model.ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("enrich: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Enricher drives the geocoding collaborator behind a circuit breaker.
type Enricher struct {
	client  geocode.Client
	cfg     Config
	breaker *resilience.CircuitBreaker
}

// New returns an Enricher. client may be nil, which disables enrichment
// unless cfg.RequireKey is set.
func New(client geocode.Client, cfg Config) *Enricher {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		ShouldTrip:       shouldTrip,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("enrich: breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Enricher{client: client, cfg: cfg, breaker: breaker}
}

// Enabled reports whether the enrichment phase should run at all.
func (e *Enricher) Enabled() bool {
	return e.client != nil || e.cfg.RequireKey
}

// Enrich resolves one address. The query is the formatted address when
// normalization produced one, otherwise the raw candidate text. A provider
// no-match is a normal outcome: the row keeps its normalized fields and the
// match status records not_found.
func (e *Enricher) Enrich(ctx context.Context, addr model.Address, fallbackRaw string) (*model.EnrichedAddress, *Error) {
	if e.client == nil {
		return nil, &Error{Kind: model.ErrKindInvalidKey, Err: geocode.ErrInvalidKey}
	}

	query := addr.Formatted
	if query == "" {
		query = fallbackRaw
	}

	result, err := resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (*geocode.Result, error) {
		return e.client.Geocode(ctx, query)
	})
	if err != nil {
		return nil, classify(err)
	}

	enriched := &model.EnrichedAddress{Address: addr}
	if !result.Matched {
		enriched.Match = model.MatchNotFound
		zap.L().Debug("enrich: no match", zap.String("query", query))
		return enriched, nil
	}

	merge(&enriched.Address, result)
	enriched.Latitude = &result.Latitude
	enriched.Longitude = &result.Longitude
	enriched.Match = model.MatchMatched
	if result.Ambiguous {
		enriched.Match = model.MatchAmbiguous
	}
	zap.L().Debug("enrich: resolved",
		zap.String("query", query),
		zap.String("match", string(enriched.Match)),
		zap.String("quality", result.Quality))
	return enriched, nil
}

// merge overwrites address fields with provider components where present and
// recomputes the formatted join so it stays consistent with the fields.
func merge(addr *model.Address, r *geocode.Result) {
	if r.Street != "" {
		addr.Street = r.Street
	}
	if r.City != "" {
		addr.City = r.City
	}
	if r.Region != "" {
		addr.Region = r.Region
	}
	if r.PostalCode != "" {
		addr.PostalCode = r.PostalCode
	}
	if r.Country != "" {
		addr.Country = r.Country
	}
	addr.Formatted = normalize.FormatFields(addr.Street, addr.City, addr.Region, addr.PostalCode, addr.Country)
}

// classify maps provider failures onto row error kinds. An open breaker
// surfaces as network: the provider is being shielded, not consulted.
func classify(err error) *Error {
	switch {
	case errors.Is(err, geocode.ErrQuotaExceeded):
		return &Error{Kind: model.ErrKindQuotaExceeded, Err: err}
	case errors.Is(err, geocode.ErrInvalidKey):
		return &Error{Kind: model.ErrKindInvalidKey, Err: err}
	default:
		return &Error{Kind: model.ErrKindNetwork, Err: err}
	}
}

// shouldTrip counts only transient faults toward opening the breaker.
// Provider rejections (bad key, exhausted quota) pass through without
// tripping.
func shouldTrip(err error) bool {
	if resilience.IsTransient(err) {
		return true
	}
	var statusErr *geocode.StatusError
	if errors.As(err, &statusErr) {
		return resilience.IsTransientHTTPStatus(statusErr.StatusCode)
	}
	return false
}
