package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-intel/internal/config"
	"github.com/sells-group/address-intel/internal/enrich"
	"github.com/sells-group/address-intel/internal/extract"
	"github.com/sells-group/address-intel/internal/fetch"
	"github.com/sells-group/address-intel/internal/pipeline"
	"github.com/sells-group/address-intel/pkg/geocode"
)

// stubGeocodeClient implements geocode.Client for testing.
type stubGeocodeClient struct {
	result *geocode.Result
	err    error
}

func (s *stubGeocodeClient) Geocode(_ context.Context, _ string) (*geocode.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.MaxUploadMB = 10
	cfg.Batch.MaxCompanies = 100
	return cfg
}

func newTestPipeline(enricher *enrich.Enricher) *pipeline.Pipeline {
	return pipeline.New(
		fetch.New(fetch.Config{Timeout: 5 * time.Second}),
		extract.New(extract.Config{}),
		enricher,
		pipeline.Options{Concurrency: 2},
	)
}

func newTestServer(t *testing.T, cfg *config.Config, enricher *enrich.Enricher) *httptest.Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	srv := httptest.NewServer(New(cfg, newTestPipeline(enricher)).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRootMetadata(t *testing.T) {
	api := newTestServer(t, nil, nil)

	resp, err := http.Get(api.URL + "/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Name        string            `json:"name"`
		Version     string            `json:"version"`
		Description string            `json:"description"`
		Endpoints   map[string]string `json:"endpoints"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, "address-intel", body.Name)
	assert.Equal(t, "1.0.0", body.Version)
	assert.NotEmpty(t, body.Description)
	assert.Contains(t, body.Endpoints, "/process-company")
	assert.Contains(t, body.Endpoints, "/process-batch")
	assert.Contains(t, body.Endpoints, "/webhook-process")
	assert.Contains(t, body.Endpoints, "/agentic-process")
	assert.Contains(t, body.Endpoints, "/health")
}

func TestHealth(t *testing.T) {
	api := newTestServer(t, nil, nil)

	resp, err := http.Get(api.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status            string `json:"status"`
		Timestamp         string `json:"timestamp"`
		Version           string `json:"version"`
		EnrichmentEnabled bool   `json:"enrichment_enabled"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "1.0.0", body.Version)
	assert.False(t, body.EnrichmentEnabled)

	_, err = time.Parse(time.RFC3339, body.Timestamp)
	assert.NoError(t, err)
}

func TestHealthEnrichmentEnabled(t *testing.T) {
	enricher := enrich.New(&stubGeocodeClient{}, enrich.Config{})
	api := newTestServer(t, nil, enricher)

	resp, err := http.Get(api.URL + "/health")
	require.NoError(t, err)

	var body struct {
		EnrichmentEnabled bool `json:"enrichment_enabled"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.EnrichmentEnabled)
}

func TestCORSWildcard(t *testing.T) {
	api := newTestServer(t, nil, nil)

	req, err := http.NewRequest(http.MethodOptions, api.URL+"/process-company", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSConfiguredOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://app.example"}
	api := newTestServer(t, cfg, nil)

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, api.URL+"/health", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		return resp
	}

	resp := preflight("https://app.example")
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight("https://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServeShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0 // ephemeral

	srv := New(cfg, newTestPipeline(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close() //nolint:errcheck

	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = New(cfg, newTestPipeline(nil)).Serve(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server: listen")
}
