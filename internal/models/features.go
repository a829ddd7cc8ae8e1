package models

// Feature names shared between the assembler, the predictor, and the
// ClickHouse feature archive. Prefixed by side so a single vector carries
// both perspectives of a game.
const (
	FeatHomeRating      = "home_elo"
	FeatAwayRating      = "away_elo"
	FeatRatingDiff      = "elo_diff"
	FeatHomeSOS         = "home_sos"
	FeatAwaySOS         = "away_sos"
	FeatHomeRestDays    = "home_rest_days"
	FeatAwayRestDays    = "away_rest_days"
	FeatHomeRestKnown   = "home_rest_known"
	FeatAwayRestKnown   = "away_rest_known"
	FeatHomeBackToBack  = "home_back_to_back"
	FeatAwayBackToBack  = "away_back_to_back"
	FeatHomeWinPct      = "home_recent_win_pct"
	FeatAwayWinPct      = "away_recent_win_pct"
	FeatHomePPG         = "home_recent_ppg"
	FeatAwayPPG         = "away_recent_ppg"
	FeatHomeOppPPG      = "home_recent_opp_ppg"
	FeatAwayOppPPG      = "away_recent_opp_ppg"
	FeatHomePointDiff   = "home_recent_point_diff"
	FeatAwayPointDiff   = "away_recent_point_diff"
	FeatHomeGamesUsed   = "home_recent_games_used"
	FeatAwayGamesUsed   = "away_recent_games_used"
	FeatHomeStreak      = "home_streak"
	FeatAwayStreak      = "away_streak"
	FeatHomeMomentum    = "home_momentum"
	FeatAwayMomentum    = "away_momentum"
	FeatHomeSplitWinPct = "home_home_win_pct"
	FeatAwaySplitWinPct = "away_away_win_pct"
	FeatHomeClutchPct   = "home_clutch_win_pct"
	FeatAwayClutchPct   = "away_clutch_win_pct"
)

// FeatureVector is the model input for one game: every named feature for
// both team perspectives, keyed to the game it describes. Immutable once
// assembled.
type FeatureVector struct {
	GameID     string             `json:"game_id"`
	HomeTeamID string             `json:"home_team_id"`
	AwayTeamID string             `json:"away_team_id"`
	Values     map[string]float64 `json:"values"`
}

// Get returns the named feature value and whether it is present.
func (v *FeatureVector) Get(name string) (float64, bool) {
	val, ok := v.Values[name]
	return val, ok
}
