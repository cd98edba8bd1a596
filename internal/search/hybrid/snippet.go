package hybrid

import (
	"strings"

	"neo-alexandria/internal/search/lexical"
)

const maxSnippetLen = 280

// buildSnippet cuts a window of at most maxSnippetLen (280) from
// title/description/body centered on the first query-term occurrence,
// falling back to leading text (spec §4.6). It adds "…" on each side it
// cut, so the result can be up to two characters longer than the window.
func buildSnippet(query string, view ResourceView) string {
	text := strings.Join([]string{view.Title, view.Description, view.Body}, " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if len(text) <= maxSnippetLen {
		return text
	}

	lower := strings.ToLower(text)
	idx := -1
	for _, term := range lexical.Tokenize(query) {
		if i := strings.Index(lower, term); i >= 0 && (idx == -1 || i < idx) {
			idx = i
		}
	}
	if idx == -1 {
		return truncateRunes(text, maxSnippetLen)
	}

	half := maxSnippetLen / 2
	start := idx - half
	if start < 0 {
		start = 0
	}
	end := start + maxSnippetLen
	if end > len(text) {
		end = len(text)
		start = end - maxSnippetLen
		if start < 0 {
			start = 0
		}
	}
	snippet := text[start:end]
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(text) {
		snippet = snippet + "…"
	}
	return snippet
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
