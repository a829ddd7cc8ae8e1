// The predictor command runs one daily prediction batch: it scores
// upcoming games with the active models, stores the predictions, and
// reconciles previously stored predictions against final results.
//
// Intended to run from cron once per day. Exit code 0 means the run
// completed; per-game or per-model-type skips are reported in the run
// summary but do not fail the run. Any unrecoverable failure exits 1.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/divguptagit/Sports-AI/internal/config"
	"github.com/divguptagit/Sports-AI/internal/features"
	"github.com/divguptagit/Sports-AI/internal/models"
	"github.com/divguptagit/Sports-AI/internal/pipeline"
	"github.com/divguptagit/Sports-AI/internal/predictor"
	"github.com/divguptagit/Sports-AI/internal/store"
	"github.com/divguptagit/Sports-AI/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "predictor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	horizon := flag.Int("horizon", cfg.HorizonDays, "lookahead horizon in days for upcoming games")
	modelSel := flag.String("model", "auto", `model selector: "auto" for all active model types, or a comma-separated list (WIN_PROBABILITY,SPREAD,TOTAL)`)
	flag.Parse()

	modelTypes, err := parseModelSelector(*modelSel)
	if err != nil {
		return err
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pgPool.Close()

	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		return fmt.Errorf("parsing clickhouse url: %w", err)
	}
	chConn, err := clickhouse.Open(chOpts)
	if err != nil {
		return fmt.Errorf("connecting to clickhouse: %w", err)
	}
	defer chConn.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parsing redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	engine := features.NewRatingEngine(cfg.InitialRating, cfg.KFactor)
	assembler := features.NewAssembler(engine, cfg.RecentWindow)

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount: cfg.WorkerCount,
		Assembler:   assembler,
		Logger:      logger,
	})

	orch := pipeline.NewOrchestrator(pipeline.Config{
		Horizon:          time.Duration(*horizon) * 24 * time.Hour,
		ModelTypes:       modelTypes,
		RetryAttempts:    cfg.RetryAttempts,
		RetryBackoff:     cfg.RetryBackoff,
		StoreTimeout:     cfg.StoreTimeout,
		PredictorTimeout: cfg.PredictorTimeout,
	}, pipeline.Deps{
		Games:       store.NewGameStore(pgPool),
		Registry:    store.NewModelRegistry(pgPool),
		Predictions: store.NewPredictionStore(pgPool),
		Archive:     store.NewFeatureArchive(chConn),
		Ratings:     store.NewRatingsCache(redisClient),
		Loader:      predictor.NewLoader(),
		Engine:      engine,
		Extractor:   pool,
		Logger:      logger,
	})

	summary, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s failed at %s: %w", summary.RunID, summary.FailedStep, err)
	}
	return nil
}

func parseModelSelector(sel string) ([]models.ModelType, error) {
	if sel == "" || sel == "auto" {
		return nil, nil
	}

	known := map[string]models.ModelType{
		string(models.ModelWinProbability): models.ModelWinProbability,
		string(models.ModelSpread):         models.ModelSpread,
		string(models.ModelTotal):          models.ModelTotal,
	}

	var types []models.ModelType
	for _, part := range strings.Split(sel, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		mt, ok := known[part]
		if !ok {
			return nil, fmt.Errorf("unknown model type %q", part)
		}
		types = append(types, mt)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("model selector %q names no model types", sel)
	}
	return types, nil
}
