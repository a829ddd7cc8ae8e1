package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/divguptagit/Sports-AI/internal/models"
	"github.com/divguptagit/Sports-AI/internal/pipeline"
)

// ModelRegistry reads model descriptors and writes rolling metrics in
// Postgres.
type ModelRegistry struct {
	db PgPool
}

func NewModelRegistry(db PgPool) *ModelRegistry {
	return &ModelRegistry{db: db}
}

// ActiveModel returns the ACTIVE descriptor for the type with the most
// recent trained timestamp. When more than one descriptor is ACTIVE,
// the latest trained_at wins.
func (s *ModelRegistry) ActiveModel(ctx context.Context, t models.ModelType) (*models.ModelDescriptor, error) {
	desc := &models.ModelDescriptor{}
	err := s.db.QueryRow(ctx, `
		SELECT id, version, model_type, status, trained_at, artifact_path, artifact
		FROM ml_models
		WHERE model_type = $1
		  AND status = $2
		ORDER BY trained_at DESC
		LIMIT 1
	`, t, models.ModelActive).Scan(
		&desc.ID, &desc.Version, &desc.Type, &desc.Status,
		&desc.TrainedAt, &desc.ArtifactPath, &desc.Artifact,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &pipeline.ErrNoActiveModel{Type: t}
	}
	if err != nil {
		return nil, fmt.Errorf("querying active %s model: %w", t, err)
	}
	return desc, nil
}

// Metrics returns the model's rolling metrics, or a fresh zero-count
// object when the model has never been evaluated.
func (s *ModelRegistry) Metrics(ctx context.Context, modelID string) (*models.EvaluationMetrics, error) {
	m := &models.EvaluationMetrics{ModelID: modelID}
	var binsJSON []byte
	err := s.db.QueryRow(ctx, `
		SELECT eval_count, log_loss, brier_score, spread_mae, total_mae,
		       accuracy, calibration_error, calibration_bins, updated_at
		FROM ml_model_metrics
		WHERE model_id = $1
	`, modelID).Scan(
		&m.Count, &m.LogLoss, &m.BrierScore, &m.SpreadMAE, &m.TotalMAE,
		&m.Accuracy, &m.CalibrationError, &binsJSON, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.EvaluationMetrics{ModelID: modelID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying metrics for model %s: %w", modelID, err)
	}

	if len(binsJSON) > 0 {
		if err := json.Unmarshal(binsJSON, &m.CalibrationBins); err != nil {
			return nil, fmt.Errorf("decoding calibration bins for model %s: %w", modelID, err)
		}
	}
	return m, nil
}

// UpdateMetrics upserts the model's rolling metrics row.
func (s *ModelRegistry) UpdateMetrics(ctx context.Context, m *models.EvaluationMetrics) error {
	binsJSON, err := json.Marshal(m.CalibrationBins)
	if err != nil {
		return fmt.Errorf("encoding calibration bins: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO ml_model_metrics (
			model_id, eval_count, log_loss, brier_score, spread_mae,
			total_mae, accuracy, calibration_error, calibration_bins, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (model_id) DO UPDATE SET
			eval_count = EXCLUDED.eval_count,
			log_loss = EXCLUDED.log_loss,
			brier_score = EXCLUDED.brier_score,
			spread_mae = EXCLUDED.spread_mae,
			total_mae = EXCLUDED.total_mae,
			accuracy = EXCLUDED.accuracy,
			calibration_error = EXCLUDED.calibration_error,
			calibration_bins = EXCLUDED.calibration_bins,
			updated_at = EXCLUDED.updated_at
	`, m.ModelID, m.Count, m.LogLoss, m.BrierScore, m.SpreadMAE,
		m.TotalMAE, m.Accuracy, m.CalibrationError, binsJSON, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting metrics for model %s: %w", m.ModelID, err)
	}
	return nil
}
