package models

import "time"

// RatingSnapshot holds per-team strength ratings as of a fixed point in
// the game timeline. It is mutated only by the rating engine, which
// processes games strictly in chronological order; LastGameTime records
// the timestamp of the most recent game folded in and guards against
// out-of-order updates. LastGameID breaks ties between games sharing a
// timestamp.
type RatingSnapshot struct {
	Ratings       map[string]float64 `json:"ratings"`
	InitialRating float64            `json:"initial_rating"`
	KFactor       float64            `json:"k_factor"`
	LastGameTime  time.Time          `json:"last_game_time"`
	LastGameID    string             `json:"last_game_id"`
	GamesApplied  int                `json:"games_applied"`
}

// NewRatingSnapshot returns an empty snapshot for the given rating config.
func NewRatingSnapshot(initial, kFactor float64) *RatingSnapshot {
	return &RatingSnapshot{
		Ratings:       make(map[string]float64),
		InitialRating: initial,
		KFactor:       kFactor,
	}
}

// Rating returns the team's current rating, or the configured initial
// rating for a team with no prior games.
func (s *RatingSnapshot) Rating(teamID string) float64 {
	if r, ok := s.Ratings[teamID]; ok {
		return r
	}
	return s.InitialRating
}

// Clone returns a deep copy so callers can branch the timeline without
// sharing the ratings map.
func (s *RatingSnapshot) Clone() *RatingSnapshot {
	out := &RatingSnapshot{
		Ratings:       make(map[string]float64, len(s.Ratings)),
		InitialRating: s.InitialRating,
		KFactor:       s.KFactor,
		LastGameTime:  s.LastGameTime,
		LastGameID:    s.LastGameID,
		GamesApplied:  s.GamesApplied,
	}
	for id, r := range s.Ratings {
		out.Ratings[id] = r
	}
	return out
}
