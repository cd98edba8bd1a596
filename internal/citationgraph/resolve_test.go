package citationgraph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/citation"
	"neo-alexandria/internal/domain/shared"
)

type fakeCitationRepo struct {
	citations map[shared.ID]*citation.Citation
	saved     []shared.ID
}

func (f *fakeCitationRepo) Save(ctx context.Context, c *citation.Citation) error {
	f.citations[c.ID()] = c
	f.saved = append(f.saved, c.ID())
	return nil
}
func (f *fakeCitationRepo) FindByID(ctx context.Context, id shared.ID) (*citation.Citation, error) {
	return f.citations[id], nil
}
func (f *fakeCitationRepo) ListBySource(ctx context.Context, id shared.ID) ([]*citation.Citation, error) {
	return nil, nil
}
func (f *fakeCitationRepo) ListByTarget(ctx context.Context, id shared.ID) ([]*citation.Citation, error) {
	return nil, nil
}
func (f *fakeCitationRepo) Unresolved(ctx context.Context) ([]*citation.Citation, error) {
	var out []*citation.Citation
	for _, c := range f.citations {
		if c.TargetResourceID() == nil {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeCitationRepo) All(ctx context.Context) ([]*citation.Citation, error) { return nil, nil }
func (f *fakeCitationRepo) UnresolveByTarget(ctx context.Context, id shared.ID) error {
	return nil
}
func (f *fakeCitationRepo) DeleteBySource(ctx context.Context, id shared.ID) error { return nil }

type fakeLookup struct {
	byURL map[string]shared.ID
}

func (f *fakeLookup) FindByNormalizedURL(ctx context.Context, normalizedURL string) (shared.ID, bool, error) {
	id, ok := f.byURL[normalizedURL]
	return id, ok, nil
}

func TestResolveUnresolved_LinksByNormalizedURLMatch(t *testing.T) {
	clock := shared.NewFixedClock(time.Unix(0, 0))
	c := citation.New("source-1", "HTTPS://Example.com/doc/?utm_source=x", citation.TypeReference, "", 0, clock)
	repo := &fakeCitationRepo{citations: map[shared.ID]*citation.Citation{c.ID(): c}}
	lookup := &fakeLookup{byURL: map[string]shared.ID{"https://example.com/doc": "target-1"}}

	resolved, err := ResolveUnresolved(context.Background(), repo, lookup)

	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	require.NotNil(t, c.TargetResourceID())
	assert.Equal(t, shared.ID("target-1"), *c.TargetResourceID())
}

func TestResolveUnresolved_NoMatchLeavesUnresolved(t *testing.T) {
	clock := shared.NewFixedClock(time.Unix(0, 0))
	c := citation.New("source-1", "https://unknown.example/doc", citation.TypeReference, "", 0, clock)
	repo := &fakeCitationRepo{citations: map[shared.ID]*citation.Citation{c.ID(): c}}
	lookup := &fakeLookup{byURL: map[string]shared.ID{}}

	resolved, err := ResolveUnresolved(context.Background(), repo, lookup)

	require.NoError(t, err)
	assert.Equal(t, 0, resolved)
	assert.Nil(t, c.TargetResourceID())
}
