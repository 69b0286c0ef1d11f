// Package engagement implements the SingMaster progress engine: the
// per-user ledger, calendar streaks, experience levels, achievements and
// notifications.
package engagement

import (
	"time"
)

// ─── Streaks ────────────────────────────────────────────────────────────────
// A "day" counts when the singer completes at least one practice session.
// Gaps break the streak silently: no "streak at risk" nudges.

// StreakStep is the outcome of recording practice on a calendar day.
type StreakStep int

const (
	StreakSameDay  StreakStep = iota // already counted today
	StreakExtended                   // consecutive day
	StreakStarted                    // first day or broken streak
)

// NextStreak computes the streak after practicing on today. last is the
// previous practice date (nil if none). Dates compare as calendar days,
// each in its own location.
func NextStreak(last *time.Time, current int, today time.Time) (int, StreakStep) {
	if last == nil {
		return 1, StreakStarted
	}

	switch DaysBetween(*last, today) {
	case 0:
		return current, StreakSameDay
	case 1:
		return current + 1, StreakExtended
	default:
		// Gap of more than one day, or today is before last.
		return 1, StreakStarted
	}
}

// DaysBetween returns the number of calendar days from a to b.
// Negative when b is earlier than a.
func DaysBetween(a, b time.Time) int {
	da, db := civilDay(a), civilDay(b)
	return int(db.Sub(da).Hours() / 24)
}

// CalendarDate truncates t to midnight of its calendar day in t's location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// civilDay maps t's calendar date to UTC midnight so differences are always
// whole days, unaffected by DST or zone offsets.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
