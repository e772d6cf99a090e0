// Package extract scans fetched pages for spans of text that look like
// postal addresses. Structured markup is trusted first (JSON-LD and
// microdata, then address elements), followed by a keyword-scored scan of
// the visible text. An empty result is a normal outcome, not an error.
package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/sells-group/address-intel/internal/model"
)

const (
	minCandidateLen = 8
	maxCandidateLen = 200
	keywordWindow   = 100
)

// Config bounds extraction output.
type Config struct {
	MaxCandidates int
}

// Extractor turns raw HTML into candidate address strings.
type Extractor struct {
	maxCandidates int
}

// New returns an Extractor. A zero Config selects the defaults.
func New(cfg Config) *Extractor {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 10
	}
	return &Extractor{maxCandidates: cfg.MaxCandidates}
}

// Extract returns candidate address strings found in body, best first.
// Candidates are deduplicated case- and whitespace-insensitively with the
// first occurrence winning, and capped at MaxCandidates.
func (e *Extractor) Extract(body []byte, sourceURL string) []model.Candidate {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		zap.L().Debug("extract: html parse failed",
			zap.String("url", sourceURL), zap.Error(err))
		return nil
	}

	seen := make(map[string]bool)
	out := make([]model.Candidate, 0, e.maxCandidates)
	add := func(raw string) {
		if len(out) >= e.maxCandidates {
			return
		}
		text := tidyCandidate(raw)
		if text == "" || len(text) > maxCandidateLen {
			return
		}
		key := strings.ToLower(text)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, model.Candidate{RawText: text, SourceURL: sourceURL})
	}

	for _, text := range jsonLDCandidates(doc) {
		add(text)
	}

	doc.Find("script, style, noscript").Remove()

	doc.Find(`[itemtype*="PostalAddress"]`).Each(func(_ int, sel *goquery.Selection) {
		add(microdataAddress(sel))
	})

	doc.Find("address").Each(func(_ int, sel *goquery.Selection) {
		add(flattenText(sel))
	})

	scanText(doc, add)

	zap.L().Debug("extract: scan complete",
		zap.String("url", sourceURL), zap.Int("candidates", len(out)))
	return out
}

// jsonLDCandidates parses every ld+json block and pulls out schema.org
// postal addresses. Blocks that fail to parse are run through jsonrepair
// once and re-parsed; blocks that still fail are skipped.
func jsonLDCandidates(doc *goquery.Document) []string {
	var out []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			repaired, repErr := jsonrepair.JSONRepair(raw)
			if repErr != nil {
				zap.L().Debug("extract: unrepairable json-ld", zap.Error(err))
				return
			}
			if err := json.Unmarshal([]byte(repaired), &data); err != nil {
				zap.L().Debug("extract: json-ld reparse failed", zap.Error(err))
				return
			}
		}
		jsonLDWalk(data, func(text string) {
			out = append(out, text)
		})
	})
	return out
}

// jsonLDWalk descends arbitrarily nested JSON-LD looking for postal address
// objects. Schema.org pages put them at the top level, under @graph, and
// inside the address field of Organization or LocalBusiness nodes; some
// skip the markup and set address to a plain string.
func jsonLDWalk(v any, emit func(string)) {
	switch node := v.(type) {
	case map[string]any:
		if isPostalAddress(node) {
			if text := formatJSONLDAddress(node); text != "" {
				emit(text)
			}
			return
		}
		if s, ok := node["address"].(string); ok && strings.TrimSpace(s) != "" {
			emit(s)
		}
		keys := make([]string, 0, len(node))
		for key := range node {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			jsonLDWalk(node[key], emit)
		}
	case []any:
		for _, item := range node {
			jsonLDWalk(item, emit)
		}
	}
}

// isPostalAddress accepts an explicit PostalAddress @type in string or array
// form, and untyped objects that carry schema.org address field names.
func isPostalAddress(m map[string]any) bool {
	if typeContains(m["@type"], "postaladdress") {
		return true
	}
	_, street := m["streetAddress"]
	_, locality := m["addressLocality"]
	_, postal := m["postalCode"]
	return street || locality || postal
}

func typeContains(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(t), want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.Contains(strings.ToLower(s), want) {
				return true
			}
		}
	}
	return false
}

// jsonLDAddressFields is the emission order for schema.org address parts.
var jsonLDAddressFields = []string{
	"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry",
}

func formatJSONLDAddress(m map[string]any) string {
	parts := make([]string, 0, len(jsonLDAddressFields))
	for _, field := range jsonLDAddressFields {
		if text := stringValue(m[field]); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", ")
}

// stringValue pulls a display string out of a JSON-LD field that may be a
// plain string or a named object such as {"@type": "Country", "name": "US"}.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if name, ok := t["name"].(string); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

// microdataAddress joins the itemprop fields of one PostalAddress scope in
// schema.org order. A content attribute wins over element text, so meta
// tags carry their value.
func microdataAddress(sel *goquery.Selection) string {
	parts := make([]string, 0, len(jsonLDAddressFields))
	for _, prop := range jsonLDAddressFields {
		node := sel.Find(`[itemprop="` + prop + `"]`).First()
		if node.Length() == 0 {
			continue
		}
		text := node.Text()
		if v, ok := node.Attr("content"); ok && strings.TrimSpace(v) != "" {
			text = v
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", ")
}

// flattenText renders an element subtree as a single line, joining <br> and
// block-level breaks with commas the way wrapped addresses read.
func flattenText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			return
		case n.Type != html.ElementNode:
			return
		case n.Data == "br" || blockTags[n.Data]:
			b.WriteString(", ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if blockTags[n.Data] {
			b.WriteString(", ")
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

// scanText walks the rendered text lines and emits the ones that look like
// addresses and score positive on surrounding keywords.
func scanText(doc *goquery.Document, add func(string)) {
	lines := visibleLines(doc)
	flat := strings.Join(lines, "\n")
	offset := 0
	for _, line := range lines {
		end := offset + len(line)
		if candidateLine(line) && !negativeLine(line) && contextScore(flat, offset, end) > 0 {
			add(trimLabel(line))
		}
		offset = end + 1
	}
}

// visibleLines renders the document body into one text line per block-level
// element. <br> joins with a comma, matching how wrapped addresses read.
func visibleLines(doc *goquery.Document) []string {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	var lines []string
	var cur strings.Builder
	flush := func() {
		if line := tidyCandidate(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			cur.WriteString(n.Data)
			return
		case n.Type != html.ElementNode:
			return
		case n.Data == "br":
			cur.WriteString(", ")
			return
		case blockTags[n.Data]:
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if blockTags[n.Data] {
			flush()
		}
	}
	for _, n := range body.Nodes {
		walk(n)
	}
	flush()
	return lines
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// candidateLine reports whether a rendered text line is worth scoring.
// Email-bearing and out-of-bounds lines are rejected outright.
func candidateLine(line string) bool {
	if len(line) < minCandidateLen || len(line) > maxCandidateLen {
		return false
	}
	if strings.Contains(line, "@") {
		return false
	}
	for _, re := range postalScanRes {
		if re.MatchString(line) {
			return true
		}
	}
	return firstDigit(line) >= 0 && hasStreetToken(line)
}

// Postal code patterns, unanchored for in-line scanning.
var postalScanRes = []*regexp.Regexp{
	// US ZIP and ZIP+4: "62704", "62704-1234"
	regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`),
	// UK: "EC1A 1BB", "SW1A1AA"
	regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}\b`),
	// Canada: "M5H 2N2"
	regexp.MustCompile(`(?i)\b[A-Z]\d[A-Z]\s?\d[A-Z]\d\b`),
	// Six-digit PIN: "560001"
	regexp.MustCompile(`\b\d{6}\b`),
}

// streetTokens flag lines that name a thoroughfare or unit even when no
// postal code is present.
var streetTokens = map[string]bool{
	"st": true, "street": true, "ave": true, "avenue": true,
	"rd": true, "road": true, "blvd": true, "boulevard": true,
	"dr": true, "drive": true, "ln": true, "lane": true,
	"pl": true, "place": true, "ct": true, "court": true,
	"pkwy": true, "parkway": true, "sq": true, "square": true,
	"hwy": true, "highway": true, "ste": true, "suite": true,
	"floor": true, "bldg": true, "building": true,
}

func hasStreetToken(line string) bool {
	for _, tok := range strings.Fields(strings.ToLower(line)) {
		if streetTokens[strings.Trim(tok, ".,;:")] {
			return true
		}
	}
	return false
}

// Keyword context for the text scan. A candidate needs a positive marker
// within the window; a line whose own text names a contact channel is
// dropped unless it also names an address. Negative markers on neighboring
// lines do not disqualify.
var (
	positiveContext = []string{
		"address", "location", "headquarters",
		"head office", "corporate office", "registered office",
	}
	negativeContext = []string{"email", "phone", "fax", "tel", "copyright"}
)

// contextScore counts address markers near a span of the flattened page
// text, searching keywordWindow chars either side. Markers may match inside
// longer words so plural headings count.
func contextScore(flat string, start, end int) int {
	lo := start - keywordWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + keywordWindow
	if hi > len(flat) {
		hi = len(flat)
	}
	ctx := strings.ToLower(flat[lo:hi])
	score := 0
	for _, kw := range positiveContext {
		if strings.Contains(ctx, kw) {
			score++
		}
	}
	return score
}

// negativeLine reports whether a line's own text marks its digits as a
// contact channel rather than an address. Negative markers must stand alone
// as words so "tel" does not fire inside "hotel".
func negativeLine(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range positiveContext {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	for _, kw := range negativeContext {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// containsWord reports whether text contains needle bounded by
// non-alphanumeric characters. Both arguments must already be lowercase.
func containsWord(text, needle string) bool {
	if needle == "" || text == "" {
		return false
	}
	start := 0
	for {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			return false
		}
		absIdx := start + idx
		endIdx := absIdx + len(needle)

		leftOK := absIdx == 0 || !isAlphaNum(text[absIdx-1])
		rightOK := endIdx == len(text) || !isAlphaNum(text[endIdx])

		if leftOK && rightOK {
			return true
		}
		start = absIdx + 1
	}
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// trimLabel cuts a leading "Address:" style label so the candidate starts at
// the address text itself.
func trimLabel(line string) string {
	digit := firstDigit(line)
	if digit <= 0 {
		return line
	}
	colon := strings.LastIndex(line[:digit], ":")
	if colon < 0 {
		return line
	}
	trimmed := strings.TrimLeft(line[colon+1:], " ,")
	if len(trimmed) >= minCandidateLen {
		return trimmed
	}
	return line
}

func firstDigit(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return i
		}
	}
	return -1
}

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	commaRunRe   = regexp.MustCompile(`(?:\s*,)+\s*`)
)

// tidyCandidate collapses whitespace and comma runs and strips dangling
// separators from both ends.
func tidyCandidate(s string) string {
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = commaRunRe.ReplaceAllString(s, ", ")
	return strings.Trim(s, " ,")
}
