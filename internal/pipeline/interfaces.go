package pipeline

import (
	"context"
	"time"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// GameStore reads the game schedule and results.
type GameStore interface {
	// UpcomingGames returns games with status SCHEDULED starting inside
	// [from, to).
	UpcomingGames(ctx context.Context, from, to time.Time) ([]*models.Game, error)
	// CompletedGamesBefore returns all FINAL games starting before the
	// given instant, in any order.
	CompletedGamesBefore(ctx context.Context, before time.Time) ([]*models.Game, error)
}

// ModelRegistry reads model descriptors and writes back rolling metrics.
type ModelRegistry interface {
	// ActiveModel returns the ACTIVE descriptor for the type with the
	// most recent trained timestamp, or *ErrNoActiveModel.
	ActiveModel(ctx context.Context, t models.ModelType) (*models.ModelDescriptor, error)
	// Metrics returns the model's rolling metrics, or a zero-count
	// metrics object when none have been recorded yet.
	Metrics(ctx context.Context, modelID string) (*models.EvaluationMetrics, error)
	UpdateMetrics(ctx context.Context, m *models.EvaluationMetrics) error
}

// PredictionOutcome joins a stored prediction with its now-final game.
type PredictionOutcome struct {
	Prediction *models.Prediction
	Game       *models.Game
}

// PredictionStore persists predictions and their evaluations.
type PredictionStore interface {
	// InsertPredictions persists a batch. Re-running with the same
	// (model id, game id) pairs must not duplicate; the return is the
	// number of rows actually written.
	InsertPredictions(ctx context.Context, preds []*models.Prediction) (int, error)
	// UnevaluatedFinal returns stored predictions whose game has reached
	// FINAL and which carry no evaluation timestamp yet.
	UnevaluatedFinal(ctx context.Context) ([]PredictionOutcome, error)
	// MarkEvaluated writes evaluation timestamps and per-prediction
	// correctness fields for the given records.
	MarkEvaluated(ctx context.Context, recs []*EvaluationRecord) error
}

// FeatureArchive receives extracted feature vectors for offline model
// training. Archival is best effort; failures never abort a run.
type FeatureArchive interface {
	ArchiveFeatures(ctx context.Context, runID string, vecs []*models.FeatureVector) error
}

// RatingsPublisher exposes the run's freshly built rating snapshot to
// serving consumers (dashboards, the web app's team strength view).
// Publishing is best effort; failures never abort a run.
type RatingsPublisher interface {
	PublishRatings(ctx context.Context, snap *models.RatingSnapshot) error
}

// PredictionOutput is one predictor result: win probabilities summing to
// 1 within floating tolerance, plus spread and total forecasts.
type PredictionOutput struct {
	HomeWinProb float64
	AwayWinProb float64
	Spread      float64
	Total       float64
}

// Predictor is the opaque trained-model capability: a batch of feature
// vectors in, the same number of outputs out, index-aligned.
type Predictor interface {
	Predict(ctx context.Context, vecs []*models.FeatureVector) ([]PredictionOutput, error)
}

// PredictorLoader materialises a Predictor from a registry descriptor's
// stored artifact.
type PredictorLoader interface {
	Load(ctx context.Context, desc *models.ModelDescriptor) (Predictor, error)
}
