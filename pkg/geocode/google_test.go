package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srvURL string) *client {
	return &client{
		httpClient: newRewriteClient(srvURL),
		apiKey:     "test-key",
		limiter:    newTestLimiter(),
	}
}

func TestGeocodeRooftop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1600 Pennsylvania Ave NW, Washington, DC 20500", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [{
				"address_components": [
					{"long_name": "1600", "short_name": "1600", "types": ["street_number"]},
					{"long_name": "Pennsylvania Avenue Northwest", "short_name": "Pennsylvania Ave NW", "types": ["route"]},
					{"long_name": "Washington", "short_name": "Washington", "types": ["locality", "political"]},
					{"long_name": "District of Columbia", "short_name": "DC", "types": ["administrative_area_level_1", "political"]},
					{"long_name": "United States", "short_name": "US", "types": ["country", "political"]},
					{"long_name": "20500", "short_name": "20500", "types": ["postal_code"]}
				],
				"formatted_address": "1600 Pennsylvania Avenue NW, Washington, DC 20500, USA",
				"geometry": {
					"location": {"lat": 38.8977, "lng": -77.0365},
					"location_type": "ROOFTOP"
				}
			}]
		}`)
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Geocode(context.Background(), "1600 Pennsylvania Ave NW, Washington, DC 20500")

	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.False(t, result.Ambiguous)
	assert.InDelta(t, 38.8977, result.Latitude, 0.0001)
	assert.InDelta(t, -77.0365, result.Longitude, 0.0001)
	assert.Equal(t, "1600 Pennsylvania Avenue Northwest", result.Street)
	assert.Equal(t, "Washington", result.City)
	assert.Equal(t, "DC", result.Region)
	assert.Equal(t, "20500", result.PostalCode)
	assert.Equal(t, "United States", result.Country)
	assert.Equal(t, "rooftop", result.Quality)
	assert.Equal(t, "1600 Pennsylvania Avenue NW, Washington, DC 20500, USA", result.Formatted)
}

func TestGeocodeAmbiguousMultipleResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [
				{"geometry": {"location": {"lat": 39.7817, "lng": -89.6501}, "location_type": "APPROXIMATE"}},
				{"geometry": {"location": {"lat": 42.1015, "lng": -72.5898}, "location_type": "APPROXIMATE"}}
			]
		}`)
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Geocode(context.Background(), "Springfield")

	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.True(t, result.Ambiguous)
	assert.InDelta(t, 39.7817, result.Latitude, 0.0001)
}

func TestGeocodePartialMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [{
				"partial_match": true,
				"geometry": {"location": {"lat": 41.8781, "lng": -87.6298}, "location_type": "GEOMETRIC_CENTER"}
			}]
		}`)
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Geocode(context.Background(), "Main St Chicago")

	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.True(t, result.Ambiguous)
	assert.Equal(t, "centroid", result.Quality)
}

func TestGeocodeZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "results": []}`)
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Geocode(context.Background(), "000 Nonexistent, Nowhere, XX")

	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGeocodeQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": "OVER_QUERY_LIMIT", "results": []}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Geocode(context.Background(), "123 Main St")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestGeocodeRequestDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": "REQUEST_DENIED", "results": []}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Geocode(context.Background(), "123 Main St")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestGeocodeUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": "UNKNOWN_ERROR", "results": []}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Geocode(context.Background(), "123 Main St")

	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "UNKNOWN_ERROR", statusErr.APIStatus)
	assert.Contains(t, err.Error(), "UNKNOWN_ERROR")
}

func TestGeocodeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Geocode(context.Background(), "123 Main St")

	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "503")
}

func TestGeocodeNoKey(t *testing.T) {
	c := &client{httpClient: http.DefaultClient, limiter: newTestLimiter()}

	_, err := c.Geocode(context.Background(), "123 Main St")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestGeocodeEmptyQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("provider must not be called for an empty query")
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Geocode(context.Background(), "   ")

	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestLocationTypeToQuality(t *testing.T) {
	tests := []struct {
		locType  string
		expected string
	}{
		{"ROOFTOP", "rooftop"},
		{"RANGE_INTERPOLATED", "range"},
		{"GEOMETRIC_CENTER", "centroid"},
		{"APPROXIMATE", "approximate"},
		{"UNKNOWN", "approximate"},
		{"", "approximate"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, locationTypeToQuality(tt.locType), "location_type=%s", tt.locType)
	}
}

func TestApplyComponents(t *testing.T) {
	r := &Result{}
	applyComponents(r, []googleComponent{
		{LongName: "Whitehall", ShortName: "Whitehall", Types: []string{"route"}},
		{LongName: "London", ShortName: "London", Types: []string{"postal_town"}},
		{LongName: "United Kingdom", ShortName: "GB", Types: []string{"country", "political"}},
		{LongName: "SW1A 2AA", ShortName: "SW1A 2AA", Types: []string{"postal_code"}},
	})

	assert.Equal(t, "Whitehall", r.Street)
	assert.Equal(t, "London", r.City)
	assert.Equal(t, "United Kingdom", r.Country)
	assert.Equal(t, "SW1A 2AA", r.PostalCode)
}
