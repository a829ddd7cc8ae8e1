package features

import "time"

// RestDays returns the number of full calendar days off between a team's
// previous game and the current one: consecutive calendar days yield 0
// (a back-to-back), and by convention two games on the same calendar day
// (a double-header) also yield 0. The boolean is false when there is no
// previous game in the lookback window, so callers can tell "first known
// game" apart from a genuine two-day rest.
func RestDays(current, previous time.Time) (int, bool) {
	if previous.IsZero() {
		return 0, false
	}

	cur := calendarDay(current)
	prev := calendarDay(previous)

	days := int(cur.Sub(prev).Hours() / 24)
	if days <= 0 {
		return 0, true
	}
	return days - 1, true
}

// IsBackToBack reports whether the current game is the second of a
// back-to-back: true iff rest days is known and zero.
func IsBackToBack(current, previous time.Time) bool {
	rest, ok := RestDays(current, previous)
	return ok && rest == 0
}

// calendarDay truncates to midnight UTC so that late tip-offs still
// count as the day they were scheduled on.
func calendarDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
