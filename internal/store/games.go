package store

import (
	"context"
	"fmt"
	"time"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// GameStore reads the game schedule from Postgres.
type GameStore struct {
	db PgPool
}

func NewGameStore(db PgPool) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, home_team_id, away_team_id, start_time, venue, status, COALESCE(home_score, 0), COALESCE(away_score, 0)`

// UpcomingGames returns SCHEDULED games starting inside [from, to),
// ordered chronologically with the id tie-break.
func (s *GameStore) UpcomingGames(ctx context.Context, from, to time.Time) ([]*models.Game, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM games
		WHERE status = $1
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time, id
	`, gameColumns), models.GameScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying upcoming games: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// CompletedGamesBefore returns all FINAL games starting before the
// given instant, ordered chronologically with the id tie-break.
func (s *GameStore) CompletedGamesBefore(ctx context.Context, before time.Time) ([]*models.Game, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM games
		WHERE status = $1
		  AND start_time < $2
		ORDER BY start_time, id
	`, gameColumns), models.GameFinal, before)
	if err != nil {
		return nil, fmt.Errorf("querying completed games: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

type gameRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanGames(rows gameRows) ([]*models.Game, error) {
	games := []*models.Game{}
	for rows.Next() {
		g := &models.Game{}
		if err := rows.Scan(
			&g.ID, &g.HomeTeamID, &g.AwayTeamID, &g.StartTime,
			&g.Venue, &g.Status, &g.HomeScore, &g.AwayScore,
		); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating game rows: %w", err)
	}
	return games, nil
}
