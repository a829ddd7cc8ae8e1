// Package worker runs feature extraction across the games of a batch in
// parallel. Each game's features depend only on the read-only rating
// snapshot and history index frozen before the run, so games are
// independent units of work; only snapshot construction, which happens
// before the pool is invoked, is order-sensitive.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/divguptagit/Sports-AI/internal/features"
	"github.com/divguptagit/Sports-AI/internal/models"
)

// Prometheus metrics
var (
	gamesFeatured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sportsai_games_featured_total",
		Help: "Total number of games successfully featured",
	})

	featureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sportsai_feature_failures_total",
		Help: "Total number of games skipped due to feature extraction failures",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sportsai_feature_queue_depth",
		Help: "Games remaining in the feature extraction queue",
	})

	extractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sportsai_feature_extraction_duration_seconds",
		Help:    "Duration of feature extraction per game",
		Buckets: prometheus.DefBuckets,
	})
)

// Result is the outcome of featuring one game: a vector or the error
// that made the game unfeaturable.
type Result struct {
	Game   *models.Game
	Vector *models.FeatureVector
	Err    error
}

// PoolConfig configures the extraction pool
type PoolConfig struct {
	WorkerCount int
	Assembler   *features.Assembler
	Logger      *zap.Logger
}

// Pool fans feature extraction out over a fixed set of workers.
type Pool struct {
	workerCount int
	assembler   *features.Assembler
	logger      *zap.SugaredLogger
}

// NewPool creates an extraction pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	return &Pool{
		workerCount: cfg.WorkerCount,
		assembler:   cfg.Assembler,
		logger:      cfg.Logger.Sugar(),
	}
}

// ExtractAll features every game against the shared read-only context
// and returns one Result per input game, in input order. A failed game
// carries its error in the Result; it never aborts the batch. Workers
// stop early when ctx is cancelled, leaving unprocessed games with the
// context's error.
func (p *Pool) ExtractAll(ctx context.Context, games []*models.Game, fctx *features.Context) []Result {
	results := make([]Result, len(games))
	for i, g := range games {
		results[i] = Result{Game: g, Err: ctx.Err()}
	}

	jobs := make(chan int, len(games))
	for i := range games {
		jobs <- i
	}
	close(jobs)
	queueDepth.Set(float64(len(games)))

	var wg sync.WaitGroup
	for w := 0; w < p.workerCount; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					results[idx] = Result{Game: games[idx], Err: ctx.Err()}
					continue
				default:
				}

				game := games[idx]
				start := time.Now()
				vec, err := p.assembler.Assemble(game, fctx)
				extractionDuration.Observe(time.Since(start).Seconds())
				queueDepth.Dec()

				if err != nil {
					featureFailures.Inc()
					p.logger.Warnw("Feature extraction failed",
						"worker", id,
						"gameId", game.ID,
						"error", err,
					)
					results[idx] = Result{Game: game, Err: err}
					continue
				}

				gamesFeatured.Inc()
				results[idx] = Result{Game: game, Vector: vec}
			}
		}(w)
	}
	wg.Wait()
	queueDepth.Set(0)

	return results
}
