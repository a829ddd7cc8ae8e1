package models

import "time"

// ModelType identifies what a model predicts
type ModelType string

const (
	ModelWinProbability ModelType = "WIN_PROBABILITY"
	ModelSpread         ModelType = "SPREAD"
	ModelTotal          ModelType = "TOTAL"
)

// ModelStatus marks which registry entries are serving
type ModelStatus string

const (
	ModelActive   ModelStatus = "ACTIVE"
	ModelInactive ModelStatus = "INACTIVE"
	ModelTraining ModelStatus = "TRAINING"
)

// ModelDescriptor is a model registry entry. At most one ACTIVE
// descriptor per type is expected; when the registry holds more, the
// most recently trained one wins.
type ModelDescriptor struct {
	ID           string      `json:"id"`
	Version      string      `json:"version"`
	Type         ModelType   `json:"model_type"`
	Status       ModelStatus `json:"status"`
	TrainedAt    time.Time   `json:"trained_at"`
	ArtifactPath string      `json:"artifact_path"`
	Artifact     []byte      `json:"-"`
}

// Prediction is one model's forecast for one game. Written once by the
// prediction run; EvaluatedAt and the correctness fields are filled in
// exactly once after the game goes FINAL.
type Prediction struct {
	ID            string     `json:"id"`
	ModelID       string     `json:"model_id"`
	GameID        string     `json:"game_id"`
	HomeWinProb   float64    `json:"home_win_prob"`
	AwayWinProb   float64    `json:"away_win_prob"`
	SpreadPred    float64    `json:"spread_pred"`
	TotalPred     float64    `json:"total_pred"`
	PredictedAt   time.Time  `json:"predicted_at"`
	EvaluatedAt   *time.Time `json:"evaluated_at,omitempty"`
	WinnerCorrect *bool      `json:"winner_correct,omitempty"`
	SpreadError   *float64   `json:"spread_error,omitempty"`
	TotalError    *float64   `json:"total_error,omitempty"`
}

// EvaluationMetrics are the rolling quality metrics attached to a model
// descriptor. Count is the number of evaluated predictions folded in;
// the means update incrementally as new games complete.
type EvaluationMetrics struct {
	ModelID          string    `json:"model_id"`
	Count            int64     `json:"count"`
	LogLoss          float64   `json:"log_loss"`
	BrierScore       float64   `json:"brier_score"`
	SpreadMAE        float64   `json:"spread_mae"`
	TotalMAE         float64   `json:"total_mae"`
	Accuracy         float64   `json:"accuracy"`
	CalibrationError float64   `json:"calibration_error"`
	CalibrationBins  []CalBin  `json:"calibration_bins"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CalBin is one probability decile: how many predictions landed in it,
// their mean predicted probability, and the observed win count.
type CalBin struct {
	Count    int64   `json:"count"`
	ProbSum  float64 `json:"prob_sum"`
	WinCount int64   `json:"win_count"`
}
