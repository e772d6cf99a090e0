// Package geocode provides forward geocoding of postal addresses through the
// Google Geocoding API. The client rate-limits at its own boundary and never
// caches: repeated identical queries re-hit the provider.
package geocode

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Provider failure classes callers branch on with errors.Is.
var (
	// ErrQuotaExceeded reports an exhausted provider query quota.
	ErrQuotaExceeded = eris.New("geocode: quota exceeded")
	// ErrInvalidKey reports a rejected or missing API key.
	ErrInvalidKey = eris.New("geocode: invalid api key")
)

// StatusError reports an unexpected provider response that fits no sentinel.
type StatusError struct {
	StatusCode int    // HTTP status, when the transport answered non-200
	APIStatus  string // provider status field, when HTTP was 200
}

func (e *StatusError) Error() string {
	if e.APIStatus != "" {
		return fmt.Sprintf("geocode: provider status %s", e.APIStatus)
	}
	return fmt.Sprintf("geocode: provider returned status %d", e.StatusCode)
}

// Client geocodes one free-form address query at a time.
type Client interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the provider's verdict for one query. Matched false with a
// nil error means the provider answered and found nothing.
type Result struct {
	Formatted  string
	Latitude   float64
	Longitude  float64
	Matched    bool
	Ambiguous  bool
	Street     string
	City       string
	Region     string
	PostalCode string
	Country    string
	Quality    string // "rooftop", "range", "centroid", "approximate"
}

// Option configures the client.
type Option func(*client)

// WithAPIKey sets the Google Geocoding API key.
func WithAPIKey(key string) Option {
	return func(c *client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second cap applied before every call.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type client struct {
	httpClient *http.Client
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
