package geocode

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// newTestLimiter returns a limiter that never blocks.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newRewriteClient returns an HTTP client that redirects provider requests
// to a test server, keeping the query string intact.
func newRewriteClient(testServerURL string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:       http.DefaultTransport,
			testServer: testServerURL,
		},
	}
}

type rewriteTransport struct {
	base       http.RoundTripper
	testServer string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if !strings.HasPrefix(origURL, googleGeocodeURL) {
		return t.base.RoundTrip(req)
	}
	newReq := req.Clone(req.Context())
	parsed, err := req.URL.Parse(t.testServer + origURL[len(googleGeocodeURL):])
	if err != nil {
		return nil, err
	}
	newReq.URL = parsed
	newReq.Host = parsed.Host
	return t.base.RoundTrip(newReq)
}
