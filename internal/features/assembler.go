package features

import (
	"fmt"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// ErrIncompleteContext is returned when a required sub-feature cannot be
// computed for a game. The game is skipped rather than featured with a
// silent default, which would quietly corrupt model training and
// evaluation downstream.
type ErrIncompleteContext struct {
	GameID  string
	TeamID  string
	Missing string
}

func (e *ErrIncompleteContext) Error() string {
	return fmt.Sprintf("incomplete feature context for game %s (team %s): missing %s", e.GameID, e.TeamID, e.Missing)
}

// Context carries the read-only state features are computed from:
// a rating snapshot frozen at the reference point and every candidate
// team's game history ordered most recent first, containing only games
// strictly before the reference point. A team with no played games must
// still have an (empty) history entry; an absent entry means the context
// was not built for that team.
type Context struct {
	Ratings   *models.RatingSnapshot
	Histories map[string][]models.TeamGameRecord
}

// Assembler combines rating, schedule, and recent-performance features
// into one vector per game carrying both team perspectives.
type Assembler struct {
	engine *RatingEngine
	window int
}

// DefaultRecentWindow is the last-N window used when none is configured.
const DefaultRecentWindow = 10

func NewAssembler(engine *RatingEngine, window int) *Assembler {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	return &Assembler{engine: engine, window: window}
}

// Assemble builds the feature vector for one game. It fails with
// *ErrIncompleteContext when the context lacks what it needs; it never
// substitutes defaults for missing state.
func (a *Assembler) Assemble(game *models.Game, ctx *Context) (*models.FeatureVector, error) {
	if ctx == nil || ctx.Ratings == nil {
		return nil, &ErrIncompleteContext{GameID: game.ID, Missing: "rating snapshot"}
	}
	// Refuse to feature a game the snapshot already includes: that would
	// leak the game's own outcome into its features.
	if !ctx.Ratings.LastGameTime.IsZero() && !game.StartTime.After(ctx.Ratings.LastGameTime) {
		return nil, &ErrIncompleteContext{GameID: game.ID, Missing: "pre-game rating snapshot (snapshot is at or past game time)"}
	}

	vec := &models.FeatureVector{
		GameID:     game.ID,
		HomeTeamID: game.HomeTeamID,
		AwayTeamID: game.AwayTeamID,
		Values:     make(map[string]float64, 32),
	}

	if err := a.sideFeatures(vec, game, ctx, true); err != nil {
		return nil, err
	}
	if err := a.sideFeatures(vec, game, ctx, false); err != nil {
		return nil, err
	}

	vec.Values[models.FeatRatingDiff] = vec.Values[models.FeatHomeRating] - vec.Values[models.FeatAwayRating]

	return vec, nil
}

func (a *Assembler) sideFeatures(vec *models.FeatureVector, game *models.Game, ctx *Context, home bool) error {
	teamID := game.HomeTeamID
	if !home {
		teamID = game.AwayTeamID
	}

	history, ok := ctx.Histories[teamID]
	if !ok {
		return &ErrIncompleteContext{GameID: game.ID, TeamID: teamID, Missing: "game history"}
	}
	for i := range history {
		if !history[i].StartTime.Before(game.StartTime) {
			return &ErrIncompleteContext{GameID: game.ID, TeamID: teamID, Missing: "history strictly before game time"}
		}
	}

	rating := a.engine.Rating(ctx.Ratings, teamID)
	sos := a.engine.StrengthOfSchedule(ctx.Ratings, history)

	summary := LastNSummary(history, a.window)
	split := HomeAwaySplit(history, home)
	clutch := ClutchSummary(history)
	streak := CurrentStreak(history)

	momWindow := history
	if len(momWindow) > a.window {
		momWindow = momWindow[:a.window]
	}
	momentum := Momentum(momWindow)

	var restDays float64
	var restKnown, backToBack float64
	if len(history) > 0 {
		if rest, known := RestDays(game.StartTime, history[0].StartTime); known {
			restDays = float64(rest)
			restKnown = 1
			if rest == 0 {
				backToBack = 1
			}
		}
	}

	set := func(homeKey, awayKey string, v float64) {
		if home {
			vec.Values[homeKey] = v
		} else {
			vec.Values[awayKey] = v
		}
	}

	set(models.FeatHomeRating, models.FeatAwayRating, rating)
	set(models.FeatHomeSOS, models.FeatAwaySOS, sos)
	set(models.FeatHomeRestDays, models.FeatAwayRestDays, restDays)
	set(models.FeatHomeRestKnown, models.FeatAwayRestKnown, restKnown)
	set(models.FeatHomeBackToBack, models.FeatAwayBackToBack, backToBack)
	set(models.FeatHomeWinPct, models.FeatAwayWinPct, summary.WinPct)
	set(models.FeatHomePPG, models.FeatAwayPPG, summary.PointsForAvg)
	set(models.FeatHomeOppPPG, models.FeatAwayOppPPG, summary.PointsAgstAvg)
	set(models.FeatHomePointDiff, models.FeatAwayPointDiff, summary.PointDiffAvg)
	set(models.FeatHomeGamesUsed, models.FeatAwayGamesUsed, float64(summary.GamesUsed))
	set(models.FeatHomeStreak, models.FeatAwayStreak, float64(streak))
	set(models.FeatHomeMomentum, models.FeatAwayMomentum, momentum)
	set(models.FeatHomeSplitWinPct, models.FeatAwaySplitWinPct, split.WinPct)
	set(models.FeatHomeClutchPct, models.FeatAwayClutchPct, clutch.WinPct)

	return nil
}

// BuildContext derives an assembler context from raw final games: a
// rating snapshot replayed over the whole history plus a most-recent-
// first record list for every team that appears in any game (played or
// scheduled). candidates lists additional team ids that must get an
// entry even with no played games, so first-game-of-season teams are
// distinguishable from teams the context was never built for.
func BuildContext(engine *RatingEngine, history []*models.Game, candidates []string) (*Context, error) {
	ordered := sortChronological(history)

	snap, err := engine.BuildSnapshot(ordered)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Ratings:   snap,
		Histories: make(map[string][]models.TeamGameRecord),
	}
	for _, id := range candidates {
		ctx.Histories[id] = nil
	}

	// Walk oldest-first and prepend so each history ends up most recent
	// first.
	for _, g := range ordered {
		for _, teamID := range []string{g.HomeTeamID, g.AwayTeamID} {
			rec, ok := models.PerspectiveOf(g, teamID)
			if !ok {
				continue
			}
			ctx.Histories[teamID] = append([]models.TeamGameRecord{rec}, ctx.Histories[teamID]...)
		}
	}

	return ctx, nil
}
