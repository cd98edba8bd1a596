package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-alexandria/internal/domain/shared"
)

type fakeTrainingSet struct {
	examples []Example
	count    int
}

func (f *fakeTrainingSet) Append(ctx context.Context, ex Example) error {
	f.examples = append(f.examples, ex)
	f.count++
	return nil
}
func (f *fakeTrainingSet) CountSinceLastRetrain(ctx context.Context) (int, error) { return f.count, nil }
func (f *fakeTrainingSet) MarkRetrained(ctx context.Context) error               { f.count = 0; return nil }

type fakeTrainer struct {
	version string
	f1      float64
}

func (f *fakeTrainer) Train(ctx context.Context) (string, float64, error) { return f.version, f.f1, nil }

type fakeRegistry struct {
	version string
	f1      float64
}

func (f *fakeRegistry) ActiveVersion(ctx context.Context) (string, float64, error) {
	return f.version, f.f1, nil
}
func (f *fakeRegistry) Activate(ctx context.Context, version string, f1 float64) error {
	f.version, f.f1 = version, f1
	return nil
}

func TestSubmitFeedback_TriggersRetrainAtThreshold(t *testing.T) {
	store := &fakeTrainingSet{count: retrainThreshold - 1}

	shouldRetrain, err := SubmitFeedback(context.Background(), store, "r1", []shared.ID{"n1"}, time.Now())

	require.NoError(t, err)
	assert.True(t, shouldRetrain)
}

func TestSubmitFeedback_BelowThresholdDoesNotTrigger(t *testing.T) {
	store := &fakeTrainingSet{count: 0}

	shouldRetrain, err := SubmitFeedback(context.Background(), store, "r1", []shared.ID{"n1"}, time.Now())

	require.NoError(t, err)
	assert.False(t, shouldRetrain)
}

func TestRetrain_SwapsWhenF1DoesNotRegress(t *testing.T) {
	registry := &fakeRegistry{version: "v1", f1: 0.80}
	trainer := &fakeTrainer{version: "v2", f1: 0.82}
	store := &fakeTrainingSet{count: 100}

	swapped, version, f1, err := Retrain(context.Background(), trainer, registry, store)

	require.NoError(t, err)
	assert.True(t, swapped)
	assert.Equal(t, "v2", version)
	assert.Equal(t, 0.82, f1)
	assert.Equal(t, "v2", registry.version)
	assert.Equal(t, 0, store.count)
}

func TestRetrain_RejectsRegressingModel(t *testing.T) {
	registry := &fakeRegistry{version: "v1", f1: 0.80}
	trainer := &fakeTrainer{version: "v2", f1: 0.70} // regresses by more than 0.02
	store := &fakeTrainingSet{count: 100}

	swapped, _, _, err := Retrain(context.Background(), trainer, registry, store)

	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Equal(t, "v1", registry.version) // unchanged
}

func TestRetrain_AllowsSmallRegressionWithinTolerance(t *testing.T) {
	registry := &fakeRegistry{version: "v1", f1: 0.80}
	trainer := &fakeTrainer{version: "v2", f1: 0.785} // within the 0.02 tolerance
	store := &fakeTrainingSet{count: 100}

	swapped, _, _, err := Retrain(context.Background(), trainer, registry, store)

	require.NoError(t, err)
	assert.True(t, swapped)
}
