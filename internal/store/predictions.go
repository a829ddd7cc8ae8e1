package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/divguptagit/Sports-AI/internal/models"
	"github.com/divguptagit/Sports-AI/internal/pipeline"
)

// PredictionStore persists predictions and their evaluations in
// Postgres.
type PredictionStore struct {
	db PgPool
}

func NewPredictionStore(db PgPool) *PredictionStore {
	return &PredictionStore{db: db}
}

// InsertPredictions writes a batch in one round trip. The unique
// (model_id, game_id) constraint makes re-runs no-ops; the return is
// the number of rows actually written.
func (s *PredictionStore) InsertPredictions(ctx context.Context, preds []*models.Prediction) (int, error) {
	if len(preds) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, p := range preds {
		batch.Queue(`
			INSERT INTO ml_predictions (
				id, model_id, game_id, home_win_prob, away_win_prob,
				spread_pred, total_pred, predicted_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (model_id, game_id) DO NOTHING
		`, p.ID, p.ModelID, p.GameID, p.HomeWinProb, p.AwayWinProb,
			p.SpreadPred, p.TotalPred, p.PredictedAt)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	stored := 0
	for range preds {
		tag, err := results.Exec()
		if err != nil {
			return stored, fmt.Errorf("inserting prediction batch: %w", err)
		}
		stored += int(tag.RowsAffected())
	}
	return stored, nil
}

// UnevaluatedFinal returns stored predictions joined to their games for
// games that have gone FINAL, excluding predictions already carrying an
// evaluation timestamp. The exclusion makes evaluation idempotent.
func (s *PredictionStore) UnevaluatedFinal(ctx context.Context) ([]pipeline.PredictionOutcome, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.model_id, p.game_id, p.home_win_prob, p.away_win_prob,
		       p.spread_pred, p.total_pred, p.predicted_at,
		       g.id, g.home_team_id, g.away_team_id, g.start_time, g.venue,
		       g.status, COALESCE(g.home_score, 0), COALESCE(g.away_score, 0)
		FROM ml_predictions p
		JOIN games g ON g.id = p.game_id
		WHERE g.status = $1
		  AND p.evaluated_at IS NULL
		ORDER BY p.predicted_at, p.id
	`, models.GameFinal)
	if err != nil {
		return nil, fmt.Errorf("querying unevaluated predictions: %w", err)
	}
	defer rows.Close()

	outcomes := []pipeline.PredictionOutcome{}
	for rows.Next() {
		p := &models.Prediction{}
		g := &models.Game{}
		if err := rows.Scan(
			&p.ID, &p.ModelID, &p.GameID, &p.HomeWinProb, &p.AwayWinProb,
			&p.SpreadPred, &p.TotalPred, &p.PredictedAt,
			&g.ID, &g.HomeTeamID, &g.AwayTeamID, &g.StartTime, &g.Venue,
			&g.Status, &g.HomeScore, &g.AwayScore,
		); err != nil {
			return nil, fmt.Errorf("scanning unevaluated prediction: %w", err)
		}
		outcomes = append(outcomes, pipeline.PredictionOutcome{Prediction: p, Game: g})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unevaluated predictions: %w", err)
	}
	return outcomes, nil
}

// MarkEvaluated stamps the records' predictions with their evaluation
// timestamp and derived correctness fields. The evaluated_at IS NULL
// guard keeps a concurrent or repeated run from touching a prediction
// twice.
func (s *PredictionStore) MarkEvaluated(ctx context.Context, recs []*pipeline.EvaluationRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(`
			UPDATE ml_predictions
			SET evaluated_at = $1,
			    winner_correct = $2,
			    spread_error = $3,
			    total_error = $4
			WHERE id = $5
			  AND evaluated_at IS NULL
		`, rec.EvaluatedAt, rec.WinnerCorrect, rec.SpreadError, rec.TotalError, rec.PredictionID)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range recs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("marking predictions evaluated: %w", err)
		}
	}
	return nil
}
