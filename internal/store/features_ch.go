package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// FeatureArchive writes extracted feature vectors to ClickHouse so the
// training side can read them back as flat rows. Archival is best
// effort from the pipeline's point of view; the orchestrator only logs
// failures.
type FeatureArchive struct {
	ch driver.Conn
}

func NewFeatureArchive(ch driver.Conn) *FeatureArchive {
	return &FeatureArchive{ch: ch}
}

// ArchiveFeatures batch-inserts one row per (vector, feature) pair.
// Feature names are written in sorted order so identical vectors
// produce identical row sequences.
func (s *FeatureArchive) ArchiveFeatures(ctx context.Context, runID string, vecs []*models.FeatureVector) error {
	if len(vecs) == 0 {
		return nil
	}

	batch, err := s.ch.PrepareBatch(ctx, `
		INSERT INTO sports_ai.feature_vectors (
			run_id, game_id, home_team_id, away_team_id,
			feature_name, feature_value, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("preparing feature batch: %w", err)
	}

	now := time.Now()
	for _, vec := range vecs {
		names := make([]string, 0, len(vec.Values))
		for name := range vec.Values {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if err := batch.Append(
				runID, vec.GameID, vec.HomeTeamID, vec.AwayTeamID,
				name, vec.Values[name], now,
			); err != nil {
				return fmt.Errorf("appending feature row for game %s: %w", vec.GameID, err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending feature batch: %w", err)
	}
	return nil
}
