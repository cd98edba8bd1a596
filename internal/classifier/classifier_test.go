package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

type fakeModel struct {
	scores  map[shared.ID]float64
	version string
}

func (f *fakeModel) Predict(ctx context.Context, text string) (map[shared.ID]float64, string, error) {
	return f.scores, f.version, nil
}

func TestPredict_DropsBelowThresholdAndFlagsReviewBand(t *testing.T) {
	model := &fakeModel{scores: map[shared.ID]float64{
		"confident": 0.9, "borderline": 0.5, "rejected": 0.1,
	}, version: "v1"}

	preds, err := Predict(context.Background(), model, "some text", 10)

	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, shared.ID("confident"), preds[0].NodeID)
	assert.False(t, preds[0].NeedsReview)
	assert.Equal(t, shared.ID("borderline"), preds[1].NodeID)
	assert.True(t, preds[1].NeedsReview)
}

func TestPredict_RespectsTopK(t *testing.T) {
	model := &fakeModel{scores: map[shared.ID]float64{"a": 0.9, "b": 0.8, "c": 0.7}, version: "v1"}

	preds, err := Predict(context.Background(), model, "text", 2)

	require.NoError(t, err)
	assert.Len(t, preds, 2)
}

func TestUncertainty_ConfidentSingleLabelIsLow(t *testing.T) {
	u := Uncertainty(map[shared.ID]float64{"a": 0.95, "b": 0.02, "c": 0.01})
	assert.Less(t, u, 0.5)
}

func TestUncertainty_AmbiguousScoresIsHigh(t *testing.T) {
	u := Uncertainty(map[shared.ID]float64{"a": 0.34, "b": 0.33, "c": 0.33})
	assert.Greater(t, u, 0.5)
}

func TestUncertainty_EmptyIsMaximal(t *testing.T) {
	assert.Equal(t, 1.0, Uncertainty(map[shared.ID]float64{}))
}
