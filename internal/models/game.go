package models

import "time"

// GameStatus tracks a game through its lifecycle
type GameStatus string

const (
	GameScheduled  GameStatus = "SCHEDULED"
	GameInProgress GameStatus = "IN_PROGRESS"
	GameFinal      GameStatus = "FINAL"
	GamePostponed  GameStatus = "POSTPONED"
	GameCancelled  GameStatus = "CANCELLED"
)

// Team is reference data owned by the store
type Team struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
}

// Game represents a single scheduled or completed game.
// Once status is FINAL the record is immutable; StartTime is the
// canonical chronological axis for all stateful feature computation.
type Game struct {
	ID         string     `json:"id"`
	HomeTeamID string     `json:"home_team_id"`
	AwayTeamID string     `json:"away_team_id"`
	StartTime  time.Time  `json:"start_time"`
	Venue      string     `json:"venue"`
	Status     GameStatus `json:"status"`
	HomeScore  int        `json:"home_score"`
	AwayScore  int        `json:"away_score"`
}

// IsFinal reports whether the game has a usable outcome.
func (g *Game) IsFinal() bool {
	return g.Status == GameFinal
}

// HomeWon reports whether the home side won. Only meaningful for FINAL games.
func (g *Game) HomeWon() bool {
	return g.HomeScore > g.AwayScore
}

// Margin is home score minus away score.
func (g *Game) Margin() int {
	return g.HomeScore - g.AwayScore
}

// Total is the combined final score.
func (g *Game) Total() int {
	return g.HomeScore + g.AwayScore
}

// GameResult is the outcome of a game from one team's perspective
type GameResult string

const (
	ResultWin  GameResult = "W"
	ResultLoss GameResult = "L"
	ResultTie  GameResult = "T"
)

// TeamGameRecord is one team's perspective of a completed game.
// Derived from Game, read-only, consumed by the schedule and
// recent-performance feature calculators.
type TeamGameRecord struct {
	GameID        string     `json:"game_id"`
	TeamID        string     `json:"team_id"`
	OpponentID    string     `json:"opponent_id"`
	StartTime     time.Time  `json:"start_time"`
	Home          bool       `json:"home"`
	PointsFor     int        `json:"points_for"`
	PointsAgainst int        `json:"points_against"`
	Result        GameResult `json:"result"`
}

// Won reports whether this perspective's team won.
func (r *TeamGameRecord) Won() bool {
	return r.Result == ResultWin
}

// PointDiff is points for minus points against.
func (r *TeamGameRecord) PointDiff() int {
	return r.PointsFor - r.PointsAgainst
}

// PerspectiveOf derives a team's view of a final game. The team must be
// one of the two participants; the second return is false otherwise or
// when the game has no outcome yet.
func PerspectiveOf(g *Game, teamID string) (TeamGameRecord, bool) {
	if !g.IsFinal() {
		return TeamGameRecord{}, false
	}

	rec := TeamGameRecord{
		GameID:    g.ID,
		TeamID:    teamID,
		StartTime: g.StartTime,
	}

	switch teamID {
	case g.HomeTeamID:
		rec.Home = true
		rec.OpponentID = g.AwayTeamID
		rec.PointsFor = g.HomeScore
		rec.PointsAgainst = g.AwayScore
	case g.AwayTeamID:
		rec.OpponentID = g.HomeTeamID
		rec.PointsFor = g.AwayScore
		rec.PointsAgainst = g.HomeScore
	default:
		return TeamGameRecord{}, false
	}

	switch {
	case rec.PointsFor > rec.PointsAgainst:
		rec.Result = ResultWin
	case rec.PointsFor < rec.PointsAgainst:
		rec.Result = ResultLoss
	default:
		rec.Result = ResultTie
	}

	return rec, true
}
