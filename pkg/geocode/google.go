package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleResponse is the JSON response from the Google Geocoding API.
type googleResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	AddressComponents []googleComponent `json:"address_components"`
	FormattedAddress  string            `json:"formatted_address"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	PartialMatch bool `json:"partial_match"`
}

type googleComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Geocode resolves one free-form address query. A provider no-match is a
// normal outcome with Matched false, not an error.
func (c *client) Geocode(ctx context.Context, query string) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrInvalidKey
	}
	if strings.TrimSpace(query) == "" {
		return &Result{Matched: false}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"address": {query},
		"key":     {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleGeocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	switch parsed.Status {
	case "OK":
	case "ZERO_RESULTS":
		return &Result{Matched: false}, nil
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return nil, ErrQuotaExceeded
	case "REQUEST_DENIED":
		return nil, ErrInvalidKey
	default:
		return nil, &StatusError{APIStatus: parsed.Status}
	}

	if len(parsed.Results) == 0 {
		return &Result{Matched: false}, nil
	}

	top := parsed.Results[0]
	result := &Result{
		Formatted: top.FormattedAddress,
		Latitude:  top.Geometry.Location.Lat,
		Longitude: top.Geometry.Location.Lng,
		Matched:   true,
		Ambiguous: len(parsed.Results) > 1 || top.PartialMatch,
		Quality:   locationTypeToQuality(top.Geometry.LocationType),
	}
	applyComponents(result, top.AddressComponents)
	return result, nil
}

// applyComponents maps Google address_components onto structured fields.
// Street joins street_number and route in that order; the region keeps the
// short form so US states come back as two-letter codes.
func applyComponents(r *Result, comps []googleComponent) {
	var streetNumber, route string
	for _, comp := range comps {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				streetNumber = comp.LongName
			case "route":
				route = comp.LongName
			case "locality", "postal_town":
				if r.City == "" {
					r.City = comp.LongName
				}
			case "administrative_area_level_1":
				r.Region = comp.ShortName
			case "postal_code":
				r.PostalCode = comp.LongName
			case "country":
				r.Country = comp.LongName
			}
		}
	}
	switch {
	case streetNumber != "" && route != "":
		r.Street = streetNumber + " " + route
	case route != "":
		r.Street = route
	case streetNumber != "":
		r.Street = streetNumber
	}
}

// locationTypeToQuality maps Google's location_type to the quality taxonomy.
func locationTypeToQuality(locType string) string {
	switch strings.ToUpper(locType) {
	case "ROOFTOP":
		return "rooftop"
	case "RANGE_INTERPOLATED":
		return "range"
	case "GEOMETRIC_CENTER":
		return "centroid"
	case "APPROXIMATE":
		return "approximate"
	default:
		return "approximate"
	}
}
