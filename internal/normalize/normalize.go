// Package normalize turns raw candidate text into a structured postal
// address. Normalization is pure and never fails: fields it cannot
// confidently assign stay empty, and in the worst case only Street carries
// the cleaned raw text.
package normalize

import (
	"regexp"
	"strings"

	"github.com/sells-group/address-intel/internal/model"
)

var multiSpaceRe = regexp.MustCompile(`\s+`)

// Clean transliterates, collapses whitespace, and strips stray punctuation
// from both ends.
func Clean(raw string) string {
	s := Transliterate(raw)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " ,.;:|-")
}

// FormatFields joins the non-empty fields in the fixed order street, city,
// region, postal code, country. Every Formatted value comes through here.
func FormatFields(street, city, region, postalCode, country string) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{street, city, region, postalCode, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Normalize parses raw candidate text into a structured Address.
func Normalize(raw string) model.Address {
	cleaned := Clean(raw)
	if cleaned == "" {
		return model.Address{}
	}

	segs := splitSegments(cleaned)

	var addr model.Address
	if len(segs) == 1 {
		addr = parseSingleSegment(segs[0])
	} else {
		addr = parseSegments(segs)
	}

	addr.Formatted = FormatFields(addr.Street, addr.City, addr.Region, addr.PostalCode, addr.Country)
	return addr
}

func splitSegments(s string) []string {
	parts := strings.Split(s, ",")
	segs := make([]string, 0, len(parts))
	for _, seg := range parts {
		seg = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(seg), "."))
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

// parseSegments classifies comma-separated segments from the end: country,
// then postal code (alone or in a "IL 62704" / "California 95014" compound),
// then region. The first segment and unclassified middles form the street;
// the last unclassified segment is the city.
func parseSegments(segs []string) model.Address {
	var addr model.Address

	if c, ok := countryTable[strings.ToLower(segs[len(segs)-1])]; ok {
		addr.Country = c
		segs = segs[:len(segs)-1]
	}

	if len(segs) > 0 {
		last := segs[len(segs)-1]
		if region, postal, ok := splitRegionPostal(last); ok {
			addr.Region = region
			addr.PostalCode = postal
			segs = segs[:len(segs)-1]
		} else if isPostal(last) {
			addr.PostalCode = strings.ToUpper(last)
			segs = segs[:len(segs)-1]
		}
	}

	if addr.Region == "" && len(segs) > 0 {
		if r, ok := lookupRegion(segs[len(segs)-1]); ok {
			addr.Region = r
			segs = segs[:len(segs)-1]
		}
	}

	switch len(segs) {
	case 0:
	case 1:
		// A lone leftover without digits next to assigned fields reads as a
		// city; anything else defaults to street.
		if !hasDigit(segs[0]) && !addr.Empty() {
			addr.City = segs[0]
		} else {
			addr.Street = expandStreet(segs[0])
		}
	default:
		street := make([]string, 0, len(segs)-1)
		for _, seg := range segs[:len(segs)-1] {
			street = append(street, expandStreet(seg))
		}
		addr.Street = strings.Join(street, ", ")
		addr.City = segs[len(segs)-1]
	}

	// A postal code still attached to the city ("London SW1A 2AA").
	if addr.PostalCode == "" && addr.City != "" {
		if city, postal, ok := splitTrailingPostal(addr.City); ok {
			addr.City = city
			addr.PostalCode = postal
		}
	}
	// A bare two-letter remnant after that split is a region code ("ON").
	if addr.Region == "" && isRegionCodeShaped(addr.City) {
		addr.Region = strings.ToUpper(addr.City)
		addr.City = ""
	}

	return addr
}

// parseSingleSegment handles comma-less input with a trailing-token parse:
// country, then postal code, then region, remainder street.
func parseSingleSegment(seg string) model.Address {
	var addr model.Address
	tokens := strings.Fields(seg)

	for n := min(4, len(tokens)); n >= 1; n-- {
		cand := strings.ToLower(strings.Join(tokens[len(tokens)-n:], " "))
		if c, ok := countryTable[cand]; ok {
			addr.Country = c
			tokens = tokens[:len(tokens)-n]
			break
		}
	}

	if len(tokens) >= 2 && isPostal(tokens[len(tokens)-2]+" "+tokens[len(tokens)-1]) {
		addr.PostalCode = strings.ToUpper(tokens[len(tokens)-2] + " " + tokens[len(tokens)-1])
		tokens = tokens[:len(tokens)-2]
	} else if len(tokens) >= 1 && isPostal(tokens[len(tokens)-1]) {
		addr.PostalCode = strings.ToUpper(tokens[len(tokens)-1])
		tokens = tokens[:len(tokens)-1]
	}

	for n := min(3, len(tokens)); n >= 1; n-- {
		cand := strings.Join(tokens[len(tokens)-n:], " ")
		if n == 1 {
			if r, ok := lookupRegion(cand); ok {
				addr.Region = r
				tokens = tokens[:len(tokens)-1]
			}
			break
		}
		if code, ok := usStates[strings.ToLower(cand)]; ok {
			addr.Region = code
			tokens = tokens[:len(tokens)-n]
			break
		}
	}

	if len(tokens) > 0 {
		addr.Street = expandStreet(strings.Join(tokens, " "))
	}
	return addr
}

// expandStreet applies the abbreviation table to each word of a street
// segment, canonical capitalization, trailing period tolerated.
func expandStreet(street string) string {
	words := strings.Split(street, " ")
	for i, w := range words {
		key := strings.ToLower(strings.TrimSuffix(w, "."))
		if full, ok := streetAbbreviations[key]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

// splitRegionPostal recognizes trailing compounds such as "IL 62704" or
// "California 95014" where region and postal code share one segment.
func splitRegionPostal(seg string) (string, string, bool) {
	tokens := strings.Fields(seg)
	if len(tokens) < 2 {
		return "", "", false
	}
	postal := tokens[len(tokens)-1]
	if !isPostal(postal) {
		return "", "", false
	}
	region, ok := lookupRegion(strings.Join(tokens[:len(tokens)-1], " "))
	if !ok {
		return "", "", false
	}
	return region, strings.ToUpper(postal), true
}

func splitTrailingPostal(city string) (string, string, bool) {
	tokens := strings.Fields(city)
	if len(tokens) >= 2 {
		two := tokens[len(tokens)-2] + " " + tokens[len(tokens)-1]
		if isPostal(two) {
			return strings.Join(tokens[:len(tokens)-2], " "), strings.ToUpper(two), true
		}
	}
	if len(tokens) >= 1 && isPostal(tokens[len(tokens)-1]) {
		return strings.Join(tokens[:len(tokens)-1], " "), strings.ToUpper(tokens[len(tokens)-1]), true
	}
	return city, "", false
}

func lookupRegion(seg string) (string, bool) {
	if isRegionCodeShaped(seg) {
		code := strings.ToUpper(seg)
		if _, ok := usStateCodes[code]; ok {
			return code, true
		}
		return "", false
	}
	if code, ok := usStates[strings.ToLower(seg)]; ok {
		return code, true
	}
	return "", false
}

func isPostal(seg string) bool {
	for _, re := range postalPatterns {
		if re.MatchString(seg) {
			return true
		}
	}
	return false
}

func isRegionCodeShaped(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
