package hybrid

import (
	"fmt"
	"testing"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/search/lexical"
)

// NewTestLexicalIndexWithTerm builds a lexical index where term appears in
// exactly count documents, for exercising analyzeQuery's document-frequency
// threshold deterministically.
func NewTestLexicalIndexWithTerm(t *testing.T, term string, count int) *lexical.Index {
	t.Helper()
	idx := lexical.NewIndex(lexical.DefaultFieldWeights)
	for i := 0; i < count; i++ {
		idx.Upsert(shared.ID(fmt.Sprintf("doc-%d", i)), lexical.Document{Body: term})
	}
	return idx
}
