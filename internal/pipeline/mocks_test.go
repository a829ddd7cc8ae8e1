package pipeline

import (
	"context"
	"time"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// mockGameStore implements GameStore for testing
type mockGameStore struct {
	upcoming    []*models.Game
	history     []*models.Game
	upcomingErr error
	historyErr  error
}

func (m *mockGameStore) UpcomingGames(ctx context.Context, from, to time.Time) ([]*models.Game, error) {
	if m.upcomingErr != nil {
		return nil, m.upcomingErr
	}
	return m.upcoming, nil
}

func (m *mockGameStore) CompletedGamesBefore(ctx context.Context, before time.Time) ([]*models.Game, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

// mockRegistry implements ModelRegistry for testing
type mockRegistry struct {
	active      map[models.ModelType]*models.ModelDescriptor
	activeErr   error
	metrics     map[string]*models.EvaluationMetrics
	updateCalls int
	updateErrs  map[string]error
}

func (m *mockRegistry) ActiveModel(ctx context.Context, t models.ModelType) (*models.ModelDescriptor, error) {
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	desc, ok := m.active[t]
	if !ok {
		return nil, &ErrNoActiveModel{Type: t}
	}
	return desc, nil
}

func (m *mockRegistry) Metrics(ctx context.Context, modelID string) (*models.EvaluationMetrics, error) {
	if existing, ok := m.metrics[modelID]; ok {
		return existing, nil
	}
	return &models.EvaluationMetrics{ModelID: modelID}, nil
}

func (m *mockRegistry) UpdateMetrics(ctx context.Context, metrics *models.EvaluationMetrics) error {
	if err, ok := m.updateErrs[metrics.ModelID]; ok {
		return err
	}
	if m.metrics == nil {
		m.metrics = make(map[string]*models.EvaluationMetrics)
	}
	m.metrics[metrics.ModelID] = metrics
	m.updateCalls++
	return nil
}

// mockPredictionStore implements PredictionStore for testing. Inserted
// predictions are deduped on (model id, game id) and evaluation marks
// remove predictions from the unevaluated set, matching the SQL
// constraints of the real store.
type mockPredictionStore struct {
	inserted  []*models.Prediction
	insertErr error
	pending   []PredictionOutcome
	marked    map[string]bool
}

func (m *mockPredictionStore) InsertPredictions(ctx context.Context, preds []*models.Prediction) (int, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	stored := 0
	for _, p := range preds {
		dup := false
		for _, existing := range m.inserted {
			if existing.ModelID == p.ModelID && existing.GameID == p.GameID {
				dup = true
				break
			}
		}
		if !dup {
			m.inserted = append(m.inserted, p)
			stored++
		}
	}
	return stored, nil
}

func (m *mockPredictionStore) UnevaluatedFinal(ctx context.Context) ([]PredictionOutcome, error) {
	var out []PredictionOutcome
	for _, po := range m.pending {
		if !m.marked[po.Prediction.ID] {
			out = append(out, po)
		}
	}
	return out, nil
}

func (m *mockPredictionStore) MarkEvaluated(ctx context.Context, recs []*EvaluationRecord) error {
	if m.marked == nil {
		m.marked = make(map[string]bool)
	}
	for _, rec := range recs {
		m.marked[rec.PredictionID] = true
	}
	return nil
}

// mockPredictor implements Predictor for testing
type mockPredictor struct {
	err   error
	calls int
}

func (m *mockPredictor) Predict(ctx context.Context, vecs []*models.FeatureVector) ([]PredictionOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	outputs := make([]PredictionOutput, len(vecs))
	for i := range vecs {
		outputs[i] = PredictionOutput{
			HomeWinProb: 0.6,
			AwayWinProb: 0.4,
			Spread:      3.5,
			Total:       205,
		}
	}
	return outputs, nil
}

// mockLoader implements PredictorLoader for testing
type mockLoader struct {
	predictor Predictor
	err       error
}

func (m *mockLoader) Load(ctx context.Context, desc *models.ModelDescriptor) (Predictor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.predictor, nil
}

// mockRatings implements RatingsPublisher for testing
type mockRatings struct {
	snapshots []*models.RatingSnapshot
	err       error
}

func (m *mockRatings) PublishRatings(ctx context.Context, snap *models.RatingSnapshot) error {
	if m.err != nil {
		return m.err
	}
	m.snapshots = append(m.snapshots, snap)
	return nil
}

// mockArchive implements FeatureArchive for testing
type mockArchive struct {
	vectors []*models.FeatureVector
	err     error
}

func (m *mockArchive) ArchiveFeatures(ctx context.Context, runID string, vecs []*models.FeatureVector) error {
	if m.err != nil {
		return m.err
	}
	m.vectors = append(m.vectors, vecs...)
	return nil
}
