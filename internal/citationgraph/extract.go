// Package citationgraph implements the citation subgraph algorithm layer
// from spec §4.10: extracting citation candidates from archived content,
// resolving them to resources by normalized URL, and ranking importance by
// PageRank. internal/domain/citation owns the Citation entity itself; this
// package operates over collections of it.
package citationgraph

import (
	"net/url"
	"regexp"
	"strings"

	"neo-alexandria/internal/domain/citation"
)

// Candidate is one citation found in archived content, before persistence.
type Candidate struct {
	TargetURL      string
	ContextSnippet string
	Position       int
	Type           citation.Type
}

const snippetRadius = 120

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// ExtractFromText scans plain text (Markdown or HTML/PDF already reduced to
// text by the ingestion pipeline's extract stage) for URLs and returns them
// as ordered, positioned, typed candidates with a ±120-char context snippet
// (spec §4.10).
func ExtractFromText(text string) []Candidate {
	matches := urlPattern.FindAllStringIndex(text, -1)
	candidates := make([]Candidate, 0, len(matches))
	for pos, loc := range matches {
		raw := text[loc[0]:loc[1]]
		raw = strings.TrimRight(raw, ".,;:!?")
		candidates = append(candidates, Candidate{
			TargetURL:      raw,
			ContextSnippet: snippetAround(text, loc[0], loc[0]+len(raw)),
			Position:       pos,
			Type:           citation.ClassifyByURL(raw),
		})
	}
	return candidates
}

func snippetAround(text string, start, end int) string {
	lo := start - snippetRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + snippetRadius
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[lo:hi])
}

// NormalizeURL lowercases scheme and host, strips fragments and common
// tracking query params, for idempotent resolution-by-match (spec §4.10).
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || lower == "ref" || lower == "fbclid" || lower == "gclid" {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}
