package citation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

func TestClassifyByURL(t *testing.T) {
	cases := []struct {
		url  string
		want Type
	}{
		{"https://arxiv.org/abs/1234.5678", TypeReference},
		{"https://doi.org/10.1000/xyz", TypeReference},
		{"https://example.com/paper.pdf", TypeReference},
		{"https://github.com/owner/repo", TypeCode},
		{"https://example.com/script.py", TypeCode},
		{"https://zenodo.org/record/123", TypeDataset},
		{"https://example.com/data.csv", TypeDataset},
		{"https://example.com/about", TypeGeneral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyByURL(tc.url), tc.url)
	}
}

func TestResolveThenUnresolve(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	source := shared.NewID()
	c := New(source, "https://arxiv.org/abs/1", TypeReference, "see [1] for details", 10, clock)
	assert.Nil(t, c.TargetResourceID())

	target := shared.NewID()
	c.Resolve(target)
	require.NotNil(t, c.TargetResourceID())
	assert.Equal(t, target, *c.TargetResourceID())

	c.Unresolve()
	assert.Nil(t, c.TargetResourceID())
}

func TestSetImportance(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := New(shared.NewID(), "https://example.com/x", TypeGeneral, "", 0, clock)
	assert.Nil(t, c.Importance())

	c.SetImportance(0.42)
	require.NotNil(t, c.Importance())
	assert.InDelta(t, 0.42, *c.Importance(), 1e-9)
}
