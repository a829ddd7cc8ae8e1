package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/divguptagit/Sports-AI/internal/features"
	"github.com/divguptagit/Sports-AI/internal/models"
	"github.com/divguptagit/Sports-AI/internal/worker"
)

func day(d, hour int) time.Time {
	return time.Date(2024, 1, d, hour, 0, 0, 0, time.UTC)
}

func historyGame(id string, start time.Time, home, away string, homeScore, awayScore int) *models.Game {
	return &models.Game{
		ID:         id,
		HomeTeamID: home,
		AwayTeamID: away,
		StartTime:  start,
		Status:     models.GameFinal,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
	}
}

func scheduledGame(id string, start time.Time, home, away string) *models.Game {
	return &models.Game{
		ID:         id,
		HomeTeamID: home,
		AwayTeamID: away,
		StartTime:  start,
		Status:     models.GameScheduled,
	}
}

type testFixture struct {
	games       *mockGameStore
	registry    *mockRegistry
	predictions *mockPredictionStore
	archive     *mockArchive
	ratings     *mockRatings
	predictor   *mockPredictor
	orch        *Orchestrator
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		games: &mockGameStore{
			history: []*models.Game{
				historyGame("h1", day(1, 19), "A", "B", 110, 100),
				historyGame("h2", day(3, 19), "B", "A", 105, 95),
				historyGame("h3", day(5, 19), "A", "B", 103, 100),
			},
			upcoming: []*models.Game{
				scheduledGame("up1", day(6, 19), "A", "B"),
				scheduledGame("up2", day(7, 19), "B", "A"),
			},
		},
		registry: &mockRegistry{
			active: map[models.ModelType]*models.ModelDescriptor{
				models.ModelWinProbability: {
					ID:        "model-win",
					Type:      models.ModelWinProbability,
					Status:    models.ModelActive,
					TrainedAt: day(1, 0),
				},
			},
		},
		predictions: &mockPredictionStore{},
		archive:     &mockArchive{},
		ratings:     &mockRatings{},
		predictor:   &mockPredictor{},
	}

	engine := features.NewRatingEngine(1500, 20)
	logger := zap.NewNop()
	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount: 2,
		Assembler:   features.NewAssembler(engine, 10),
		Logger:      logger,
	})

	f.orch = NewOrchestrator(Config{
		Horizon:          7 * 24 * time.Hour,
		RetryAttempts:    1,
		RetryBackoff:     time.Millisecond,
		StoreTimeout:     time.Second,
		PredictorTimeout: time.Second,
	}, Deps{
		Games:       f.games,
		Registry:    f.registry,
		Predictions: f.predictions,
		Archive:     f.archive,
		Ratings:     f.ratings,
		Loader:      &mockLoader{predictor: f.predictor},
		Engine:      engine,
		Extractor:   pool,
		Logger:      logger,
	})
	return f
}

func TestRunZeroScheduledGames(t *testing.T) {
	f := newFixture(t)
	f.games.upcoming = nil

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Succeeded() {
		t.Errorf("FinalStep = %s, want DONE", summary.FinalStep)
	}
	if summary.GamesFetched != 0 || summary.PredictionsMade != 0 || summary.PredictionsStored != 0 {
		t.Errorf("summary = %+v, want zero games and predictions", summary)
	}
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t)

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Succeeded() {
		t.Fatalf("FinalStep = %s, want DONE", summary.FinalStep)
	}
	if summary.GamesFetched != 2 {
		t.Errorf("GamesFetched = %d, want 2", summary.GamesFetched)
	}
	if summary.ModelsResolved != 1 {
		t.Errorf("ModelsResolved = %d, want 1", summary.ModelsResolved)
	}
	// SPREAD and TOTAL have no active models: skipped, not fatal.
	if len(summary.SkippedModels) != 2 {
		t.Errorf("SkippedModels = %v, want 2 entries", summary.SkippedModels)
	}
	if summary.FeaturesExtracted != 2 {
		t.Errorf("FeaturesExtracted = %d, want 2", summary.FeaturesExtracted)
	}
	if summary.PredictionsMade != 2 || summary.PredictionsStored != 2 {
		t.Errorf("predictions made/stored = %d/%d, want 2/2", summary.PredictionsMade, summary.PredictionsStored)
	}

	for _, p := range f.predictions.inserted {
		if p.ModelID != "model-win" {
			t.Errorf("prediction model = %s, want model-win", p.ModelID)
		}
		if sum := p.HomeWinProb + p.AwayWinProb; sum < 0.999 || sum > 1.001 {
			t.Errorf("win probabilities sum to %v, want 1", sum)
		}
	}

	// Features were archived for training.
	if len(f.archive.vectors) != 2 {
		t.Errorf("archived vectors = %d, want 2", len(f.archive.vectors))
	}
}

func TestRunFeatureFailureSkipsGame(t *testing.T) {
	f := newFixture(t)
	// A game scheduled before the snapshot's last final game cannot be
	// featured without leaking outcomes; it must be skipped, not fatal.
	f.games.upcoming = append(f.games.upcoming, scheduledGame("stale", day(4, 19), "A", "B"))

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Succeeded() {
		t.Fatalf("FinalStep = %s, want DONE", summary.FinalStep)
	}
	if summary.FeaturesAttempted != 3 || summary.FeaturesExtracted != 2 {
		t.Errorf("features attempted/extracted = %d/%d, want 3/2", summary.FeaturesAttempted, summary.FeaturesExtracted)
	}
	if len(summary.SkippedGames) != 1 || summary.SkippedGames[0].GameID != "stale" {
		t.Errorf("SkippedGames = %+v, want the stale game", summary.SkippedGames)
	}
	if summary.PredictionsMade != 2 {
		t.Errorf("PredictionsMade = %d, want 2 (skipped game excluded)", summary.PredictionsMade)
	}
}

func TestRunNoActiveModels(t *testing.T) {
	f := newFixture(t)
	f.registry.active = nil

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Succeeded() {
		t.Errorf("FinalStep = %s, want DONE", summary.FinalStep)
	}
	if summary.ModelsResolved != 0 || summary.PredictionsMade != 0 {
		t.Errorf("resolved=%d predictions=%d, want 0/0", summary.ModelsResolved, summary.PredictionsMade)
	}
	if len(summary.SkippedModels) != 3 {
		t.Errorf("SkippedModels = %v, want all 3 types", summary.SkippedModels)
	}
}

func TestRunStoreFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.games.upcomingErr = errors.New("connection refused")

	summary, err := f.orch.Run(context.Background())
	if err == nil {
		t.Fatal("Run() succeeded, want error")
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
	if summary.FinalStep != models.StepFailed || summary.FailedStep != models.StepFetchGames {
		t.Errorf("final/failed step = %s/%s, want FAILED/FETCH_GAMES", summary.FinalStep, summary.FailedStep)
	}
}

func TestRunPredictorFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.predictor.err = errors.New("model crashed")

	summary, err := f.orch.Run(context.Background())
	if err == nil {
		t.Fatal("Run() succeeded, want error")
	}
	if !errors.Is(err, ErrPredictorUnavailable) {
		t.Errorf("error = %v, want ErrPredictorUnavailable", err)
	}
	if summary.FailedStep != models.StepPredict {
		t.Errorf("FailedStep = %s, want PREDICT", summary.FailedStep)
	}
}

func TestRunStoreIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.PredictionsStored != 2 {
		t.Fatalf("first run stored %d, want 2", first.PredictionsStored)
	}

	second, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.PredictionsStored != 0 {
		t.Errorf("second run stored %d, want 0 (duplicates rejected)", second.PredictionsStored)
	}
	if len(f.predictions.inserted) != 2 {
		t.Errorf("store holds %d predictions, want 2", len(f.predictions.inserted))
	}
}

func TestRunEvaluatesCompletedGamesOnce(t *testing.T) {
	f := newFixture(t)
	f.games.upcoming = nil

	finalGame := historyGame("done1", day(2, 19), "A", "B", 100, 95)
	f.predictions.pending = []PredictionOutcome{
		{
			Prediction: &models.Prediction{
				ID:          "pred1",
				ModelID:     "model-win",
				GameID:      "done1",
				HomeWinProb: 0.7,
				AwayWinProb: 0.3,
				SpreadPred:  4,
				TotalPred:   198,
				PredictedAt: day(1, 6),
			},
			Game: finalGame,
		},
	}

	first, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Evaluated != 1 {
		t.Fatalf("first run evaluated %d, want 1", first.Evaluated)
	}
	if f.registry.updateCalls != 1 {
		t.Fatalf("metrics updates = %d, want 1", f.registry.updateCalls)
	}
	metricsAfterFirst := f.registry.metrics["model-win"]
	if metricsAfterFirst == nil || metricsAfterFirst.Count != 1 {
		t.Fatalf("metrics after first run = %+v, want count 1", metricsAfterFirst)
	}

	second, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.Evaluated != 0 {
		t.Errorf("second run evaluated %d, want 0", second.Evaluated)
	}
	// Metrics unchanged: evaluating twice is a no-op.
	if got := f.registry.metrics["model-win"]; got.Count != 1 || got.LogLoss != metricsAfterFirst.LogLoss {
		t.Errorf("metrics changed on re-run: %+v vs %+v", got, metricsAfterFirst)
	}
}

func TestRunArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.archive.err = errors.New("clickhouse down")

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Succeeded() {
		t.Errorf("FinalStep = %s, want DONE despite archive failure", summary.FinalStep)
	}
}

func TestRunPublishesRatingsWithoutActiveModels(t *testing.T) {
	f := newFixture(t)
	f.registry.active = nil

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Succeeded() {
		t.Fatalf("FinalStep = %s, want DONE", summary.FinalStep)
	}
	if len(summary.SkippedModels) != 3 {
		t.Errorf("SkippedModels = %v, want all 3 types", summary.SkippedModels)
	}

	// The serving snapshot in Redis expires; a run with nothing to
	// predict must still refresh it from history.
	if len(f.ratings.snapshots) != 1 {
		t.Fatalf("published %d snapshots, want 1", len(f.ratings.snapshots))
	}
	snap := f.ratings.snapshots[0]
	if snap.GamesApplied != 3 {
		t.Errorf("snapshot GamesApplied = %d, want 3", snap.GamesApplied)
	}
	for _, teamID := range []string{"A", "B"} {
		if _, ok := snap.Ratings[teamID]; !ok {
			t.Errorf("snapshot missing rating for team %s", teamID)
		}
	}
}

func TestRunPublishesRatingsWithoutScheduledGames(t *testing.T) {
	f := newFixture(t)
	f.games.upcoming = nil

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Succeeded() {
		t.Fatalf("FinalStep = %s, want DONE", summary.FinalStep)
	}
	if len(f.ratings.snapshots) != 1 {
		t.Fatalf("published %d snapshots, want 1", len(f.ratings.snapshots))
	}
	if f.ratings.snapshots[0].GamesApplied != 3 {
		t.Errorf("snapshot GamesApplied = %d, want 3", f.ratings.snapshots[0].GamesApplied)
	}
}

func TestRunPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.ratings.err = errors.New("redis down")

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Succeeded() {
		t.Errorf("FinalStep = %s, want DONE despite publish failure", summary.FinalStep)
	}
}

func TestRunEvaluationFailureKeepsPartialCount(t *testing.T) {
	f := newFixture(t)
	f.games.upcoming = nil

	finalGame := historyGame("done1", day(2, 19), "A", "B", 100, 95)
	f.predictions.pending = []PredictionOutcome{
		{
			Prediction: &models.Prediction{
				ID:          "pred-a",
				ModelID:     "model-a",
				GameID:      "done1",
				HomeWinProb: 0.7,
				AwayWinProb: 0.3,
				SpreadPred:  4,
				TotalPred:   198,
				PredictedAt: day(1, 6),
			},
			Game: finalGame,
		},
		{
			Prediction: &models.Prediction{
				ID:          "pred-b",
				ModelID:     "model-b",
				GameID:      "done1",
				HomeWinProb: 0.6,
				AwayWinProb: 0.4,
				SpreadPred:  3,
				TotalPred:   200,
				PredictedAt: day(1, 6),
			},
			Game: finalGame,
		},
	}
	// Models are processed in sorted id order; failing the second leaves
	// the first fully evaluated.
	f.registry.updateErrs = map[string]error{"model-b": errors.New("disk full")}

	summary, err := f.orch.Run(context.Background())
	if err == nil {
		t.Fatal("Run() succeeded, want error")
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
	if summary.FailedStep != models.StepEvaluateCompleted {
		t.Errorf("FailedStep = %s, want EVALUATE_COMPLETED", summary.FailedStep)
	}
	if summary.Evaluated != 1 {
		t.Errorf("Evaluated = %d, want 1 (model completed before the failure)", summary.Evaluated)
	}
	if !f.predictions.marked["pred-a"] {
		t.Error("first model's prediction was not marked evaluated")
	}
	if f.predictions.marked["pred-b"] {
		t.Error("failed model's prediction was marked evaluated")
	}
}
