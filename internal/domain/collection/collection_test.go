package collection

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

func TestAddMember_RejectsAddingOwnAncestor(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	parentID := shared.NewID()
	c := New("child", "", VisibilityPrivate, &parentID, "owner", clock)

	err := c.AddMember(parentID, nil, clock)
	assert.Error(t, err)
}

func TestAddMember_IsIdempotentAndRecomputesAggregate(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := New("reading list", "", VisibilityPrivate, nil, "owner", clock)
	a := shared.NewID()

	require.NoError(t, c.AddMember(a, map[shared.ID][]float32{a: {3, 4}}, clock))
	require.NoError(t, c.AddMember(a, map[shared.ID][]float32{a: {3, 4}}, clock))

	assert.Len(t, c.Members(), 1)
	require.NotNil(t, c.AggregateEmbedding())
	var norm float64
	for _, v := range c.AggregateEmbedding() {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6, "aggregate embedding must be L2-normalized")
}

func TestAggregateEmbedding_MeanOfMembers(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := New("reading list", "", VisibilityPrivate, nil, "owner", clock)
	a, b := shared.NewID(), shared.NewID()
	vectors := map[shared.ID][]float32{a: {1, 0}, b: {0, 1}}

	require.NoError(t, c.AddMember(a, vectors, clock))
	require.NoError(t, c.AddMember(b, vectors, clock))

	agg := c.AggregateEmbedding()
	require.Len(t, agg, 2)
	assert.InDelta(t, agg[0], agg[1], 1e-6, "equal-weight members on orthogonal axes should average to a symmetric vector")
}

func TestRemoveMember_ClearsAggregateWhenEmpty(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := New("reading list", "", VisibilityPrivate, nil, "owner", clock)
	a := shared.NewID()
	require.NoError(t, c.AddMember(a, map[shared.ID][]float32{a: {1, 2}}, clock))
	require.NotNil(t, c.AggregateEmbedding())

	c.RemoveMember(a, map[shared.ID][]float32{}, clock)
	assert.Empty(t, c.Members())
	assert.Nil(t, c.AggregateEmbedding())
}

func TestRemoveMember_UnknownIDIsNoop(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := New("reading list", "", VisibilityPrivate, nil, "owner", clock)
	before := c.UpdatedAt()

	c.RemoveMember(shared.NewID(), nil, clock)
	assert.Equal(t, before, c.UpdatedAt())
}
