package classifier

import (
	"context"
	"time"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

// Example is one manually corrected training row, logged by submit_feedback
// (spec §4.7).
type Example struct {
	ResourceID     shared.ID
	CorrectNodeIDs []shared.ID
	RecordedAt     time.Time
}

// TrainingSetStore accumulates feedback examples and reports how many have
// been logged since the last retrain, for the retrain_threshold trigger.
type TrainingSetStore interface {
	Append(ctx context.Context, ex Example) error
	CountSinceLastRetrain(ctx context.Context) (int, error)
	MarkRetrained(ctx context.Context) error
}

// Trainer launches a fine-tuning job over the accumulated training set and
// reports the resulting model's version and evaluation metrics.
type Trainer interface {
	Train(ctx context.Context) (modelVersion string, f1 float64, err error)
}

// ModelRegistry tracks which model version is currently live and its last
// measured F1, so a hot-swap can be gated against regression.
type ModelRegistry interface {
	ActiveVersion(ctx context.Context) (version string, f1 float64, err error)
	Activate(ctx context.Context, version string, f1 float64) error
}

// SubmitFeedback overwrites a resource's predicted assignments as manual and
// logs the correction to the training set (spec §4.7). Returns whether the
// logged count now meets retrain_threshold (default 100), so the caller can
// decide to trigger retraining.
func SubmitFeedback(ctx context.Context, store TrainingSetStore, resourceID shared.ID, correctNodeIDs []shared.ID, now time.Time) (shouldRetrain bool, err error) {
	if err := store.Append(ctx, Example{ResourceID: resourceID, CorrectNodeIDs: correctNodeIDs, RecordedAt: now}); err != nil {
		return false, err
	}
	count, err := store.CountSinceLastRetrain(ctx)
	if err != nil {
		return false, err
	}
	return count >= retrainThreshold, nil
}

// Retrain launches a fine-tuning task and hot-swaps the active model only
// if the new model's F1 is not below the previous model's F1 minus 0.02
// (spec §4.7's validation gate).
func Retrain(ctx context.Context, trainer Trainer, registry ModelRegistry, trainingSet TrainingSetStore) (swapped bool, newVersion string, f1 float64, err error) {
	_, previousF1, err := registry.ActiveVersion(ctx)
	if err != nil {
		return false, "", 0, err
	}

	version, candidateF1, err := trainer.Train(ctx)
	if err != nil {
		return false, "", 0, errorkit.Wrap(errorkit.Internal, "classifier_retrain", "fine-tuning run failed", err)
	}

	if candidateF1 < previousF1-minF1Regression {
		return false, version, candidateF1, nil
	}

	if err := registry.Activate(ctx, version, candidateF1); err != nil {
		return false, version, candidateF1, err
	}
	if err := trainingSet.MarkRetrained(ctx); err != nil {
		return false, version, candidateF1, err
	}
	return true, version, candidateF1, nil
}
