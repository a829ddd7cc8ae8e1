// Package pipeline drives the daily prediction batch: fetch candidate
// games, resolve active models, assemble features, invoke predictors,
// persist predictions, and score previously stored predictions whose
// games have since gone final.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/divguptagit/Sports-AI/internal/features"
	"github.com/divguptagit/Sports-AI/internal/models"
	"github.com/divguptagit/Sports-AI/internal/worker"
)

// Extractor fans feature assembly out over the batch; worker.Pool is
// the production implementation.
type Extractor interface {
	ExtractAll(ctx context.Context, games []*models.Game, fctx *features.Context) []worker.Result
}

// Config tunes one batch run.
type Config struct {
	Horizon          time.Duration
	ModelTypes       []models.ModelType
	RetryAttempts    int
	RetryBackoff     time.Duration
	StoreTimeout     time.Duration
	PredictorTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Horizon <= 0 {
		c.Horizon = 7 * 24 * time.Hour
	}
	if len(c.ModelTypes) == 0 {
		c.ModelTypes = []models.ModelType{models.ModelWinProbability, models.ModelSpread, models.ModelTotal}
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 30 * time.Second
	}
	if c.PredictorTimeout <= 0 {
		c.PredictorTimeout = 60 * time.Second
	}
}

// Orchestrator sequences one batch run end to end.
type Orchestrator struct {
	cfg         Config
	games       GameStore
	registry    ModelRegistry
	predictions PredictionStore
	archive     FeatureArchive
	ratings     RatingsPublisher
	loader      PredictorLoader
	engine      *features.RatingEngine
	extractor   Extractor
	evaluator   *Evaluator
	logger      *zap.SugaredLogger
	now         func() time.Time
}

// Deps wires the orchestrator's collaborators. Archive and Ratings are
// optional; everything else is required.
type Deps struct {
	Games       GameStore
	Registry    ModelRegistry
	Predictions PredictionStore
	Archive     FeatureArchive
	Ratings     RatingsPublisher
	Loader      PredictorLoader
	Engine      *features.RatingEngine
	Extractor   Extractor
	Logger      *zap.Logger
}

func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		cfg:         cfg,
		games:       deps.Games,
		registry:    deps.Registry,
		predictions: deps.Predictions,
		archive:     deps.Archive,
		ratings:     deps.Ratings,
		loader:      deps.Loader,
		engine:      deps.Engine,
		extractor:   deps.Extractor,
		evaluator:   NewEvaluator(),
		logger:      deps.Logger.Sugar(),
		now:         time.Now,
	}
}

// resolvedModel pairs a registry descriptor with its loaded predictor.
type resolvedModel struct {
	desc      *models.ModelDescriptor
	predictor Predictor
}

// Run executes one batch. Per-game and per-model-type failures are
// contained in the summary; an error return means the run hit an
// unrecoverable failure and the summary's FailedStep names where.
// Progress persisted before the failure is retained.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
	}
	o.logger.Infow("Prediction run starting", "runId", summary.RunID, "horizon", o.cfg.Horizon)

	// FETCH_GAMES
	now := o.now()
	var upcoming, history []*models.Game
	err := o.withRetry(ctx, o.cfg.StoreTimeout, func(c context.Context) error {
		var err error
		upcoming, err = o.games.UpcomingGames(c, now, now.Add(o.cfg.Horizon))
		return err
	})
	if err != nil {
		return o.fail(summary, models.StepFetchGames, fmt.Errorf("%w: fetching upcoming games: %v", ErrStoreUnavailable, err))
	}
	err = o.withRetry(ctx, o.cfg.StoreTimeout, func(c context.Context) error {
		var err error
		history, err = o.games.CompletedGamesBefore(c, now)
		return err
	})
	if err != nil {
		return o.fail(summary, models.StepFetchGames, fmt.Errorf("%w: fetching game history: %v", ErrStoreUnavailable, err))
	}
	summary.GamesFetched = len(upcoming)
	o.logger.Infow("Fetched games", "upcoming", len(upcoming), "historical", len(history))

	// RESOLVE_MODEL: absence of an active model skips that type only.
	summary.ModelsRequested = len(o.cfg.ModelTypes)
	resolved := make([]resolvedModel, 0, len(o.cfg.ModelTypes))
	for _, mt := range o.cfg.ModelTypes {
		var desc *models.ModelDescriptor
		err := o.withRetry(ctx, o.cfg.StoreTimeout, func(c context.Context) error {
			var err error
			desc, err = o.registry.ActiveModel(c, mt)
			var noActive *ErrNoActiveModel
			if errors.As(err, &noActive) {
				return nil
			}
			return err
		})
		if err != nil {
			return o.fail(summary, models.StepResolveModel, fmt.Errorf("%w: resolving %s model: %v", ErrStoreUnavailable, mt, err))
		}
		if desc == nil {
			o.logger.Warnw("No active model, skipping type", "modelType", mt)
			summary.SkippedModels = append(summary.SkippedModels, string(mt))
			continue
		}

		predictor, err := o.loader.Load(ctx, desc)
		if err != nil {
			return o.fail(summary, models.StepResolveModel, fmt.Errorf("%w: loading model %s: %v", ErrPredictorUnavailable, desc.ID, err))
		}
		resolved = append(resolved, resolvedModel{desc: desc, predictor: predictor})
	}
	summary.ModelsResolved = len(resolved)

	// EXTRACT_FEATURES: snapshot construction is strictly chronological;
	// per-game assembly then runs in parallel against the frozen context.
	// The context is built and the rating snapshot published whenever any
	// history exists, so serving-side ratings stay fresh through runs
	// with no scheduled games or no active models.
	var vectors []*models.FeatureVector
	var fctx *features.Context
	if len(history) > 0 || len(upcoming) > 0 {
		candidates := make([]string, 0, len(upcoming)*2)
		for _, g := range upcoming {
			candidates = append(candidates, g.HomeTeamID, g.AwayTeamID)
		}
		fctx, err = features.BuildContext(o.engine, history, candidates)
		if err != nil {
			return o.fail(summary, models.StepExtractFeatures, fmt.Errorf("building feature context: %w", err))
		}

		if o.ratings != nil {
			if err := o.ratings.PublishRatings(ctx, fctx.Ratings); err != nil {
				o.logger.Warnw("Rating snapshot publish failed", "error", err)
			}
		}
	}

	if len(upcoming) > 0 && len(resolved) > 0 {
		summary.FeaturesAttempted = len(upcoming)
		for _, res := range o.extractor.ExtractAll(ctx, upcoming, fctx) {
			if res.Err != nil {
				summary.SkippedGames = append(summary.SkippedGames, models.SkippedGame{
					GameID: res.Game.ID,
					Reason: res.Err.Error(),
				})
				continue
			}
			vectors = append(vectors, res.Vector)
		}
		summary.FeaturesExtracted = len(vectors)
		if ctx.Err() != nil {
			return o.fail(summary, models.StepExtractFeatures, ctx.Err())
		}
	}

	// PREDICT: one batch call per resolved model, fanned out.
	predicted := make([][]*models.Prediction, len(resolved))
	if len(vectors) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for i := range resolved {
			i := i
			g.Go(func() error {
				preds, err := o.predictModel(gctx, resolved[i], vectors)
				if err != nil {
					return err
				}
				predicted[i] = preds
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return o.fail(summary, models.StepPredict, err)
		}
	}

	var allPreds []*models.Prediction
	for _, preds := range predicted {
		allPreds = append(allPreds, preds...)
	}
	summary.PredictionsMade = len(allPreds)

	// STORE: idempotent under re-run on (model id, game id).
	if len(allPreds) > 0 {
		var stored int
		err := o.withRetry(ctx, o.cfg.StoreTimeout, func(c context.Context) error {
			var err error
			stored, err = o.predictions.InsertPredictions(c, allPreds)
			return err
		})
		if err != nil {
			return o.fail(summary, models.StepStore, fmt.Errorf("%w: storing predictions: %v", ErrStoreUnavailable, err))
		}
		summary.PredictionsStored = stored
	}

	// Feature archival feeds offline training; never fails the run.
	if o.archive != nil && len(vectors) > 0 {
		if err := o.archive.ArchiveFeatures(ctx, summary.RunID, vectors); err != nil {
			o.logger.Warnw("Feature archive write failed", "error", err)
		}
	}

	// EVALUATE_COMPLETED: the count reflects models fully processed, so
	// a mid-step failure still reports how far evaluation got.
	evaluated, err := o.evaluateCompleted(ctx)
	summary.Evaluated = evaluated
	if err != nil {
		return o.fail(summary, models.StepEvaluateCompleted, err)
	}

	summary.FinalStep = models.StepDone
	summary.FinishedAt = o.now()
	o.logger.Infow("Prediction run complete",
		"runId", summary.RunID,
		"gamesFetched", summary.GamesFetched,
		"modelsResolved", summary.ModelsResolved,
		"featuresExtracted", summary.FeaturesExtracted,
		"skippedGames", len(summary.SkippedGames),
		"predictionsMade", summary.PredictionsMade,
		"predictionsStored", summary.PredictionsStored,
		"evaluated", summary.Evaluated,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary, nil
}

// predictModel runs one model over the batch and materialises
// predictions. The predictor must return exactly one output per vector.
func (o *Orchestrator) predictModel(ctx context.Context, rm resolvedModel, vectors []*models.FeatureVector) ([]*models.Prediction, error) {
	var outputs []PredictionOutput
	err := o.withRetry(ctx, o.cfg.PredictorTimeout, func(c context.Context) error {
		var err error
		outputs, err = rm.predictor.Predict(c, vectors)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", ErrPredictorUnavailable, rm.desc.ID, err)
	}
	if len(outputs) != len(vectors) {
		return nil, fmt.Errorf("%w: model %s returned %d outputs for %d inputs", ErrPredictorUnavailable, rm.desc.ID, len(outputs), len(vectors))
	}

	predictedAt := o.now()
	preds := make([]*models.Prediction, len(outputs))
	for i, out := range outputs {
		preds[i] = &models.Prediction{
			ID:          uuid.NewString(),
			ModelID:     rm.desc.ID,
			GameID:      vectors[i].GameID,
			HomeWinProb: out.HomeWinProb,
			AwayWinProb: out.AwayWinProb,
			SpreadPred:  out.Spread,
			TotalPred:   out.Total,
			PredictedAt: predictedAt,
		}
	}
	return preds, nil
}

// evaluateCompleted scores stored predictions whose games have gone
// FINAL, updates each model's rolling metrics, and marks the
// predictions evaluated. Already-evaluated predictions never come back
// from the store, so re-runs are no-ops.
func (o *Orchestrator) evaluateCompleted(ctx context.Context) (int, error) {
	var pending []PredictionOutcome
	err := o.withRetry(ctx, o.cfg.StoreTimeout, func(c context.Context) error {
		var err error
		pending, err = o.predictions.UnevaluatedFinal(c)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: fetching unevaluated predictions: %v", ErrStoreUnavailable, err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	byModel := make(map[string][]*EvaluationRecord)
	for _, po := range pending {
		rec, err := o.evaluator.Evaluate(po.Prediction, po.Game)
		if errors.Is(err, ErrAlreadyEvaluated) {
			continue
		}
		if err != nil {
			o.logger.Warnw("Skipping unevaluable prediction",
				"predictionId", po.Prediction.ID,
				"gameId", po.Game.ID,
				"error", err,
			)
			continue
		}
		byModel[rec.ModelID] = append(byModel[rec.ModelID], rec)
	}

	modelIDs := make([]string, 0, len(byModel))
	for id := range byModel {
		modelIDs = append(modelIDs, id)
	}
	sort.Strings(modelIDs)

	evaluated := 0
	for _, modelID := range modelIDs {
		recs := byModel[modelID]

		var existing *models.EvaluationMetrics
		err := o.withRetry(ctx, o.cfg.StoreTimeout, func(c context.Context) error {
			var err error
			existing, err = o.registry.Metrics(c, modelID)
			return err
		})
		if err != nil {
			return evaluated, fmt.Errorf("%w: reading metrics for model %s: %v", ErrStoreUnavailable, modelID, err)
		}

		updated := o.evaluator.Aggregate(existing, recs)
		updated.ModelID = modelID

		err = o.withRetry(ctx, o.cfg.StoreTimeout, func(c context.Context) error {
			return o.registry.UpdateMetrics(c, updated)
		})
		if err != nil {
			return evaluated, fmt.Errorf("%w: updating metrics for model %s: %v", ErrStoreUnavailable, modelID, err)
		}

		err = o.withRetry(ctx, o.cfg.StoreTimeout, func(c context.Context) error {
			return o.predictions.MarkEvaluated(c, recs)
		})
		if err != nil {
			return evaluated, fmt.Errorf("%w: marking predictions evaluated for model %s: %v", ErrStoreUnavailable, modelID, err)
		}
		evaluated += len(recs)
	}
	return evaluated, nil
}

// withRetry runs op with a per-attempt timeout and linear backoff
// between attempts. It gives up once the parent context is cancelled.
func (o *Orchestrator) withRetry(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= o.cfg.RetryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err = op(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt < o.cfg.RetryAttempts {
			o.logger.Warnw("Operation failed, retrying",
				"attempt", attempt,
				"maxAttempts", o.cfg.RetryAttempts,
				"error", err,
			)
			select {
			case <-time.After(o.cfg.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return err
			}
		}
	}
	return err
}

// fail finalises the summary in the FAILED state with enough context to
// diagnose which step broke.
func (o *Orchestrator) fail(summary *models.RunSummary, step models.RunStep, err error) (*models.RunSummary, error) {
	summary.FinalStep = models.StepFailed
	summary.FailedStep = step
	summary.Error = err.Error()
	summary.FinishedAt = o.now()
	o.logger.Errorw("Prediction run failed",
		"runId", summary.RunID,
		"step", step,
		"error", err,
	)
	return summary, err
}
