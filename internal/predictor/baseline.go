// Package predictor ships the baseline model implementation behind the
// pipeline's Predictor capability: a logistic model over the feature
// vector for win probability plus linear models for spread and total,
// with coefficients read from the registry's stored model artifact. Any
// richer model can be injected behind the same interface.
package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/divguptagit/Sports-AI/internal/models"
	"github.com/divguptagit/Sports-AI/internal/pipeline"
)

// Artifact is the JSON coefficient bundle referenced by a model
// descriptor. Weights key feature names from the assembler's vectors;
// unknown names are an error at load time, not silently zero.
type Artifact struct {
	WinBias       float64            `json:"win_bias"`
	WinWeights    map[string]float64 `json:"win_weights"`
	SpreadBias    float64            `json:"spread_bias"`
	SpreadWeights map[string]float64 `json:"spread_weights"`
	TotalBias     float64            `json:"total_bias"`
	TotalWeights  map[string]float64 `json:"total_weights"`
}

// Baseline is a loaded artifact ready to predict.
type Baseline struct {
	modelID  string
	artifact Artifact
}

// Loader materialises Baseline predictors from registry descriptors.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the descriptor's artifact bytes. A descriptor with no
// artifact cannot predict and fails here rather than at predict time.
func (l *Loader) Load(_ context.Context, desc *models.ModelDescriptor) (pipeline.Predictor, error) {
	if len(desc.Artifact) == 0 {
		return nil, fmt.Errorf("model %s has no stored artifact (path %q)", desc.ID, desc.ArtifactPath)
	}

	var art Artifact
	if err := json.Unmarshal(desc.Artifact, &art); err != nil {
		return nil, fmt.Errorf("parsing artifact for model %s: %w", desc.ID, err)
	}
	if len(art.WinWeights) == 0 && len(art.SpreadWeights) == 0 && len(art.TotalWeights) == 0 {
		return nil, fmt.Errorf("artifact for model %s carries no weights", desc.ID)
	}

	return &Baseline{modelID: desc.ID, artifact: art}, nil
}

// Predict scores the batch, one output per input vector. Every weighted
// feature must be present in every vector; a missing feature aborts the
// batch since it means the artifact and the assembler disagree.
func (b *Baseline) Predict(ctx context.Context, vecs []*models.FeatureVector) ([]pipeline.PredictionOutput, error) {
	outputs := make([]pipeline.PredictionOutput, len(vecs))
	for i, vec := range vecs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, err := b.linear(vec, b.artifact.WinBias, b.artifact.WinWeights)
		if err != nil {
			return nil, err
		}
		spread, err := b.linear(vec, b.artifact.SpreadBias, b.artifact.SpreadWeights)
		if err != nil {
			return nil, err
		}
		total, err := b.linear(vec, b.artifact.TotalBias, b.artifact.TotalWeights)
		if err != nil {
			return nil, err
		}

		homeProb := sigmoid(score)
		outputs[i] = pipeline.PredictionOutput{
			HomeWinProb: homeProb,
			AwayWinProb: 1 - homeProb,
			Spread:      spread,
			Total:       total,
		}
	}
	return outputs, nil
}

func (b *Baseline) linear(vec *models.FeatureVector, bias float64, weights map[string]float64) (float64, error) {
	sum := bias
	for name, w := range weights {
		val, ok := vec.Get(name)
		if !ok {
			return 0, fmt.Errorf("model %s: vector for game %s is missing feature %s", b.modelID, vec.GameID, name)
		}
		sum += w * val
	}
	return sum, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// DefaultArtifact is the seed coefficient bundle used when registering
// a baseline model before any proper training run has happened. The
// win weights roughly reproduce the ELO expectation curve (400-point
// scale) with small schedule and momentum adjustments.
func DefaultArtifact() Artifact {
	return Artifact{
		WinBias: 0.10,
		WinWeights: map[string]float64{
			models.FeatRatingDiff:     0.00576,
			models.FeatHomeBackToBack: -0.15,
			models.FeatAwayBackToBack: 0.15,
			models.FeatHomeMomentum:   0.10,
			models.FeatAwayMomentum:   -0.10,
		},
		SpreadBias: 1.5,
		SpreadWeights: map[string]float64{
			models.FeatRatingDiff:     0.035,
			models.FeatHomePointDiff:  0.25,
			models.FeatAwayPointDiff:  -0.25,
			models.FeatHomeBackToBack: -1.0,
			models.FeatAwayBackToBack: 1.0,
		},
		TotalBias: 0,
		TotalWeights: map[string]float64{
			models.FeatHomePPG:    0.5,
			models.FeatAwayPPG:    0.5,
			models.FeatHomeOppPPG: 0.5,
			models.FeatAwayOppPPG: 0.5,
		},
	}
}
