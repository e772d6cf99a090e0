package fetch

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Anchor text or path fragments that mark a page likely to carry a postal
// address.
var contactLinkKeywords = []string{
	"contact",
	"kontakt",
	"about",
	"impressum",
	"location",
	"office",
	"visit",
}

// CandidateLinks returns same-host links from a page whose anchor text or
// path looks like a contact or about page, in document order, deduplicated,
// capped at max. The orchestrator tries these before its fixed fallback
// paths.
func CandidateLinks(page *Page, max int) []string {
	if page == nil || max <= 0 {
		return nil
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(lower, "javascript:") ||
			strings.HasPrefix(lower, "mailto:") ||
			strings.HasPrefix(lower, "tel:") {
			return true
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return true
		}
		resolved.Fragment = ""
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if !strings.EqualFold(resolved.Hostname(), base.Hostname()) {
			return true
		}
		if !looksLikeContactLink(strings.ToLower(sel.Text()), strings.ToLower(resolved.Path)) {
			return true
		}

		abs := resolved.String()
		if seen[abs] || abs == page.URL {
			return true
		}
		seen[abs] = true
		links = append(links, abs)
		return len(links) < max
	})

	return links
}

func looksLikeContactLink(text, path string) bool {
	combined := text + " " + path
	for _, kw := range contactLinkKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}
