package model

// RowStatus represents the terminal outcome for one company.
type RowStatus string

const (
	StatusSuccess         RowStatus = "success"
	StatusNoAddressFound  RowStatus = "no_address_found"
	StatusFetchError      RowStatus = "fetch_error"
	StatusEnrichmentError RowStatus = "enrichment_error"
)

// MatchStatus represents the geocoding collaborator's confidence in a match.
type MatchStatus string

const (
	MatchMatched   MatchStatus = "matched"
	MatchAmbiguous MatchStatus = "ambiguous"
	MatchNotFound  MatchStatus = "not_found"
)

// PhaseStatus represents the state of one pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// ErrorKind is the machine-readable failure classification carried on rows
// and API error envelopes.
type ErrorKind string

const (
	ErrKindTimeout          ErrorKind = "timeout"
	ErrKindTooManyRedirects ErrorKind = "too_many_redirects"
	ErrKindHTTPStatus       ErrorKind = "http_status"
	ErrKindConnection       ErrorKind = "connection"
	ErrKindInvalidURL       ErrorKind = "invalid_url"
	ErrKindQuotaExceeded    ErrorKind = "quota_exceeded"
	ErrKindInvalidKey       ErrorKind = "invalid_key"
	ErrKindNetwork          ErrorKind = "network"
)

// Company is one input pair. Immutable once submitted.
type Company struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

// Candidate is a span of text suspected to contain a postal address,
// prior to normalization.
type Candidate struct {
	RawText   string `json:"raw_text"`
	SourceURL string `json:"source_url"`
}

// Address is the structured form of a normalized address. Fields the
// normalizer could not confidently assign are empty, never guessed.
// Formatted is always the join of the non-empty fields in the order
// street, city, region, postal_code, country.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Formatted  string `json:"formatted,omitempty"`
}

// Empty reports whether no structured field is populated.
func (a Address) Empty() bool {
	return a.Street == "" && a.City == "" && a.Region == "" &&
		a.PostalCode == "" && a.Country == ""
}

// EnrichedAddress is an Address plus the geocoding collaborator's verdict.
// Match is empty when enrichment did not run; coordinates are absent unless
// the collaborator produced them.
type EnrichedAddress struct {
	Address
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	Match     MatchStatus `json:"match_status,omitempty"`
}

// PhaseResult records timing and outcome for one pipeline phase.
type PhaseResult struct {
	Name     string      `json:"name"`
	Status   PhaseStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// ResultRow is the per-company output. A batch yields exactly one row per
// input company, in input order.
type ResultRow struct {
	Company     Company          `json:"company"`
	Address     *EnrichedAddress `json:"address,omitempty"`
	Status      RowStatus        `json:"status"`
	ErrorKind   ErrorKind        `json:"error_kind,omitempty"`
	ErrorDetail string           `json:"error_detail,omitempty"`
	SourceURL   string           `json:"source_url,omitempty"`
	Candidates  []string         `json:"candidates,omitempty"` // extended mode only
	Phases      []PhaseResult    `json:"phases,omitempty"`     // extended mode only
}

// BatchSummary aggregates row outcomes for one batch.
type BatchSummary struct {
	BatchID   string `json:"batch_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	NoAddress int    `json:"no_address"`
	Failed    int    `json:"failed"`
	Duration  int64  `json:"duration_ms"`
}
