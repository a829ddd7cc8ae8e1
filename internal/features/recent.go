package features

import "github.com/divguptagit/Sports-AI/internal/models"

// Summary aggregates a window of a team's most recent games. GamesUsed
// is the number of games actually available, which may be smaller than
// the window requested; callers must not assume a full window.
type Summary struct {
	GamesUsed     int
	Wins          int
	Losses        int
	Ties          int
	WinPct        float64
	PointsForAvg  float64
	PointsAgstAvg float64
	PointDiffAvg  float64
}

// clutchMargin bounds what counts as a close game.
const clutchMargin = 5

// LastNSummary summarises the N most recent games of a history ordered
// most recent first. With fewer than n games available it uses all of
// them and reports the count via GamesUsed.
func LastNSummary(history []models.TeamGameRecord, n int) Summary {
	if n > len(history) {
		n = len(history)
	}
	return summarize(history[:n])
}

// HomeAwaySplit summarises only the games played at the given location.
func HomeAwaySplit(history []models.TeamGameRecord, home bool) Summary {
	filtered := make([]models.TeamGameRecord, 0, len(history))
	for _, rec := range history {
		if rec.Home == home {
			filtered = append(filtered, rec)
		}
	}
	return summarize(filtered)
}

// ClutchSummary summarises games decided by clutchMargin points or fewer.
func ClutchSummary(history []models.TeamGameRecord) Summary {
	close := make([]models.TeamGameRecord, 0, len(history))
	for _, rec := range history {
		diff := rec.PointDiff()
		if diff < 0 {
			diff = -diff
		}
		if diff <= clutchMargin {
			close = append(close, rec)
		}
	}
	return summarize(close)
}

func summarize(games []models.TeamGameRecord) Summary {
	s := Summary{GamesUsed: len(games)}
	if len(games) == 0 {
		return s
	}

	var pf, pa int
	for _, rec := range games {
		switch rec.Result {
		case models.ResultWin:
			s.Wins++
		case models.ResultLoss:
			s.Losses++
		default:
			s.Ties++
		}
		pf += rec.PointsFor
		pa += rec.PointsAgainst
	}

	n := float64(len(games))
	s.WinPct = float64(s.Wins) / n
	s.PointsForAvg = float64(pf) / n
	s.PointsAgstAvg = float64(pa) / n
	s.PointDiffAvg = float64(pf-pa) / n
	return s
}

// CurrentStreak scans a most-recent-first history and counts consecutive
// identical outcomes: positive for wins, negative for losses, 0 for an
// empty history or when the most recent game was a tie.
func CurrentStreak(history []models.TeamGameRecord) int {
	if len(history) == 0 {
		return 0
	}

	first := history[0].Result
	if first == models.ResultTie {
		return 0
	}

	streak := 0
	for _, rec := range history {
		if rec.Result != first {
			break
		}
		streak++
	}

	if first == models.ResultLoss {
		return -streak
	}
	return streak
}

// Momentum scores a team's recent trajectory in [-1, 1] from a
// most-recent-first window. Each game contributes its outcome direction
// blended with a squashed point differential, weighted linearly so the
// most recent game counts most. +1 means dominant recent wins, -1 the
// reverse.
func Momentum(recent []models.TeamGameRecord) float64 {
	if len(recent) == 0 {
		return 0
	}

	var weighted, totalWeight float64
	n := len(recent)
	for i, rec := range recent {
		// Most recent game gets weight n, oldest gets 1.
		w := float64(n - i)

		var outcome float64
		switch rec.Result {
		case models.ResultWin:
			outcome = 1
		case models.ResultLoss:
			outcome = -1
		}

		// Squash point differential into [-1, 1]; a 10-point margin is
		// treated as a fully convincing result.
		diff := float64(rec.PointDiff()) / 10.0
		if diff > 1 {
			diff = 1
		} else if diff < -1 {
			diff = -1
		}

		weighted += w * (0.7*outcome + 0.3*diff)
		totalWeight += w
	}

	score := weighted / totalWeight
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score
}
