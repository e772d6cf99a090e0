// Package fetch retrieves company web pages over HTTP with a bounded
// timeout, a redirect cap, and typed failure classification. It never
// retries; a failed page is reported once and the caller decides what to
// try next.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/sells-group/address-intel/internal/model"
)

var errTooManyRedirects = eris.New("too many redirects")

// Config controls fetch behavior. Zero values fall back to defaults.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string
}

// Page is a fetched document. Body is UTF-8, decoded from the response
// charset and capped at MaxBodyBytes. URL is the final URL after redirects.
type Page struct {
	URL        string
	Body       []byte
	StatusCode int
}

// Error classifies a failed fetch. Kind is machine-readable; callers branch
// on it to map failures onto row statuses.
type Error struct {
	Kind       model.ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher retrieves pages with a shared HTTP client.
type Fetcher struct {
	client *http.Client
	cfg    Config
}

// New creates a Fetcher with the given config, applying defaults for any
// zero fields.
func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 5
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 512 * 1024
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; AddressIntelBot/1.0)"
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.Timeout,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}

	return &Fetcher{client: client, cfg: cfg}
}

// Fetch retrieves a single page. A non-nil error is always a *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, &Error{Kind: model.ErrKindInvalidURL, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Kind: model.ErrKindInvalidURL, URL: target, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: model.ErrKindHTTPStatus, URL: target, StatusCode: resp.StatusCode}
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, classify(target, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, classify(target, err)
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	zap.L().Debug("fetch: page retrieved",
		zap.String("url", finalURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)

	return &Page{URL: finalURL, Body: body, StatusCode: resp.StatusCode}, nil
}

// classify maps transport failures onto the fixed error kinds. Anything that
// is not a timeout or a blown redirect cap counts as a connection failure,
// DNS errors included.
func classify(target string, err error) *Error {
	if errors.Is(err, errTooManyRedirects) {
		return &Error{Kind: model.ErrKindTooManyRedirects, URL: target, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: model.ErrKindTimeout, URL: target, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: model.ErrKindTimeout, URL: target, Err: err}
	}
	return &Error{Kind: model.ErrKindConnection, URL: target, Err: err}
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.New("empty url")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", eris.Errorf("url %q has no host", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
