package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Search_RanksTitleMatchAboveBodyMatch(t *testing.T) {
	idx := NewIndex(DefaultFieldWeights)
	idx.Upsert("title-match", Document{Title: "golang concurrency patterns", Body: "unrelated filler text here"})
	idx.Upsert("body-match", Document{Title: "unrelated", Body: "golang concurrency patterns discussed at length"})

	results := idx.Search("concurrency", 10)

	require.Len(t, results, 2)
	assert.Equal(t, "title-match", string(results[0].ID))
}

func TestIndex_Upsert_ReplacesPriorVersion(t *testing.T) {
	idx := NewIndex(DefaultFieldWeights)
	idx.Upsert("doc1", Document{Title: "alpha"})
	idx.Upsert("doc1", Document{Title: "beta"})

	assert.Equal(t, 0, idx.DocumentFrequency("alpha"))
	assert.Equal(t, 1, idx.DocumentFrequency("beta"))
}

func TestIndex_Delete_RemovesFromIndex(t *testing.T) {
	idx := NewIndex(DefaultFieldWeights)
	idx.Upsert("doc1", Document{Title: "golang"})
	idx.Delete("doc1")

	results := idx.Search("golang", 10)
	assert.Empty(t, results)
}

func TestIndex_Search_EmptyQueryReturnsNil(t *testing.T) {
	idx := NewIndex(DefaultFieldWeights)
	idx.Upsert("doc1", Document{Title: "golang"})

	results := idx.Search("   ", 10)
	assert.Nil(t, results)
}

func TestTokenize_LowercasesAndSplitsOnPunctuation(t *testing.T) {
	tokens := Tokenize("Hello, World! BM25-style.")
	assert.Equal(t, []string{"hello", "world", "bm25", "style"}, tokens)
}

func TestIndex_DocumentFrequency_CountsAcrossDocuments(t *testing.T) {
	idx := NewIndex(DefaultFieldWeights)
	idx.Upsert("doc1", Document{Title: "golang"})
	idx.Upsert("doc2", Document{Body: "golang"})

	assert.Equal(t, 2, idx.DocumentFrequency("golang"))
}
