package citationgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/citation"
)

func TestExtractFromText_FindsURLsAndTrimsTrailingPunctuation(t *testing.T) {
	text := "See the dataset at https://zenodo.org/record/123. Also https://github.com/foo/bar, and https://arxiv.org/abs/42!"
	candidates := ExtractFromText(text)

	require.Len(t, candidates, 3)
	assert.Equal(t, "https://zenodo.org/record/123", candidates[0].TargetURL)
	assert.Equal(t, citation.TypeDataset, candidates[0].Type)
	assert.Equal(t, "https://github.com/foo/bar", candidates[1].TargetURL)
	assert.Equal(t, citation.TypeCode, candidates[1].Type)
	assert.Equal(t, "https://arxiv.org/abs/42", candidates[2].TargetURL)
	assert.Equal(t, citation.TypeReference, candidates[2].Type)
}

func TestExtractFromText_NoURLsReturnsEmpty(t *testing.T) {
	candidates := ExtractFromText("no links in this text at all")
	assert.Empty(t, candidates)
}

func TestExtractFromText_ContextSnippetBoundedAroundMatch(t *testing.T) {
	text := "prefix text here https://example.com/a trailing text here"
	candidates := ExtractFromText(text)
	require.Len(t, candidates, 1)
	assert.Contains(t, candidates[0].ContextSnippet, "prefix")
	assert.Contains(t, candidates[0].ContextSnippet, "trailing")
}

func TestNormalizeURL_StripsTrackingParamsAndFragment(t *testing.T) {
	got, err := NormalizeURL("HTTPS://Example.COM/path/?utm_source=newsletter&ref=abc&keep=1#section")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path?keep=1", got)
}

func TestNormalizeURL_IsIdempotent(t *testing.T) {
	first, err := NormalizeURL("https://example.com/a/b/?utm_campaign=x")
	require.NoError(t, err)
	second, err := NormalizeURL(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
