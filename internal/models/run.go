package models

import "time"

// RunStep names a stage of the prediction pipeline
type RunStep string

const (
	StepFetchGames        RunStep = "FETCH_GAMES"
	StepResolveModel      RunStep = "RESOLVE_MODEL"
	StepExtractFeatures   RunStep = "EXTRACT_FEATURES"
	StepPredict           RunStep = "PREDICT"
	StepStore             RunStep = "STORE"
	StepEvaluateCompleted RunStep = "EVALUATE_COMPLETED"
	StepDone              RunStep = "DONE"
	StepFailed            RunStep = "FAILED"
)

// RunSummary is the structured result of one batch run: attempted vs
// succeeded counts per step plus the first fatal error, if any. It
// replaces ad hoc progress printing as the run's observable outcome.
type RunSummary struct {
	RunID             string        `json:"run_id"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        time.Time     `json:"finished_at"`
	FinalStep         RunStep       `json:"final_step"`
	GamesFetched      int           `json:"games_fetched"`
	ModelsRequested   int           `json:"models_requested"`
	ModelsResolved    int           `json:"models_resolved"`
	FeaturesAttempted int           `json:"features_attempted"`
	FeaturesExtracted int           `json:"features_extracted"`
	SkippedGames      []SkippedGame `json:"skipped_games,omitempty"`
	SkippedModels     []string      `json:"skipped_models,omitempty"`
	PredictionsMade   int           `json:"predictions_made"`
	PredictionsStored int           `json:"predictions_stored"`
	Evaluated         int           `json:"evaluated"`
	FailedStep        RunStep       `json:"failed_step,omitempty"`
	Error             string        `json:"error,omitempty"`
}

// SkippedGame records a per-game feature failure that did not abort the run.
type SkippedGame struct {
	GameID string `json:"game_id"`
	Reason string `json:"reason"`
}

// Succeeded reports whether the run reached DONE.
func (s *RunSummary) Succeeded() bool {
	return s.FinalStep == StepDone
}
