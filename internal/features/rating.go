// Package features computes the point-in-time predictive features that
// feed the prediction models: chronological ELO-style team ratings,
// schedule context, and rolling recent-performance aggregates.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// ErrOutOfOrderUpdate is returned when a game is applied to a rating
// snapshot behind the snapshot's last-seen position. That is always a
// programming error: ratings must fold games in strictly ascending
// chronological order or they leak future information.
type ErrOutOfOrderUpdate struct {
	GameID string
}

func (e *ErrOutOfOrderUpdate) Error() string {
	return fmt.Sprintf("rating update out of chronological order: game %s", e.GameID)
}

const (
	// DefaultInitialRating seeds every team on first appearance.
	DefaultInitialRating = 1500.0
	// DefaultKFactor controls update magnitude per game.
	DefaultKFactor = 20.0
)

// RatingEngine is a pure transition function over an explicit
// RatingSnapshot. It never persists anything; callers own the snapshot.
type RatingEngine struct {
	InitialRating float64
	KFactor       float64
}

// NewRatingEngine applies defaults for zero-valued config.
func NewRatingEngine(initial, kFactor float64) *RatingEngine {
	if initial <= 0 {
		initial = DefaultInitialRating
	}
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	return &RatingEngine{InitialRating: initial, KFactor: kFactor}
}

// ExpectedScore is the classic ELO expectation for side A against side B.
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// Rating returns the current rating for a team, falling back to the
// engine's initial rating for teams the snapshot has never seen.
func (e *RatingEngine) Rating(snap *models.RatingSnapshot, teamID string) float64 {
	if snap == nil {
		return e.InitialRating
	}
	return snap.Rating(teamID)
}

// Update folds one final game into the snapshot and returns a new
// snapshot; the input is not mutated. Games must arrive in ascending
// (StartTime, GameID) order relative to the snapshot's last-seen
// position, otherwise *ErrOutOfOrderUpdate is returned.
func (e *RatingEngine) Update(snap *models.RatingSnapshot, game *models.Game) (*models.RatingSnapshot, error) {
	if snap == nil {
		snap = models.NewRatingSnapshot(e.InitialRating, e.KFactor)
	}
	if !game.IsFinal() {
		return nil, fmt.Errorf("cannot rate game %s: status %s has no outcome", game.ID, game.Status)
	}
	if game.StartTime.Before(snap.LastGameTime) {
		return nil, &ErrOutOfOrderUpdate{GameID: game.ID}
	}
	// Equal timestamps are legal (double-headers); the game id tie-break
	// keeps replay deterministic.
	if game.StartTime.Equal(snap.LastGameTime) && snap.LastGameID != "" && game.ID <= snap.LastGameID {
		return nil, &ErrOutOfOrderUpdate{GameID: game.ID}
	}

	next := snap.Clone()

	home := next.Rating(game.HomeTeamID)
	away := next.Rating(game.AwayTeamID)

	expectedHome := ExpectedScore(home, away)

	var actualHome float64
	switch {
	case game.HomeScore > game.AwayScore:
		actualHome = 1.0
	case game.HomeScore < game.AwayScore:
		actualHome = 0.0
	default:
		actualHome = 0.5
	}

	next.Ratings[game.HomeTeamID] = home + e.KFactor*(actualHome-expectedHome)
	next.Ratings[game.AwayTeamID] = away + e.KFactor*((1.0-actualHome)-(1.0-expectedHome))
	next.LastGameTime = game.StartTime
	next.LastGameID = game.ID
	next.GamesApplied++

	return next, nil
}

// BuildSnapshot replays a game history into a fresh snapshot. The input
// may arrive in any order; it is sorted into the canonical chronological
// order (StartTime ascending, GameID as tie-break) before processing.
// Non-final games are skipped.
func (e *RatingEngine) BuildSnapshot(games []*models.Game) (*models.RatingSnapshot, error) {
	ordered := sortChronological(games)

	snap := models.NewRatingSnapshot(e.InitialRating, e.KFactor)
	for _, g := range ordered {
		next, err := e.Update(snap, g)
		if err != nil {
			return nil, fmt.Errorf("replaying game %s: %w", g.ID, err)
		}
		snap = next
	}
	return snap, nil
}

// sortChronological filters to final games and returns them in the
// canonical order: StartTime ascending with GameID as tie-break. The
// input slice is not modified.
func sortChronological(games []*models.Game) []*models.Game {
	ordered := make([]*models.Game, 0, len(games))
	for _, g := range games {
		if g.IsFinal() {
			ordered = append(ordered, g)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].StartTime.Before(ordered[j].StartTime)
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// StrengthOfSchedule is the average opponent rating across a team's
// played games, using the given snapshot's current ratings. Returns the
// initial rating when the team has no games.
func (e *RatingEngine) StrengthOfSchedule(snap *models.RatingSnapshot, history []models.TeamGameRecord) float64 {
	if len(history) == 0 {
		return e.InitialRating
	}
	var sum float64
	for i := range history {
		sum += e.Rating(snap, history[i].OpponentID)
	}
	return sum / float64(len(history))
}
