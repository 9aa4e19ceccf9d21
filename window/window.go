// Package window is the single source of truth for election voting
// window arithmetic. Every gate check must call into it with a fresh
// instant: the window boundary can be crossed mid-session, so results
// are never cached across a request.
package window

import (
	"time"

	"github.com/bricesuazo/eboto-sub001/types"
)

// StartInstant returns the first instant at which voting opens: the
// election start date plus the daily voting hour start.
func StartInstant(e *types.Election) time.Time {
	return e.StartDate.Add(time.Duration(e.VotingHourStart) * time.Hour)
}

// EndInstant returns the last instant of the voting window: the election
// end date plus the daily voting hour end.
func EndInstant(e *types.Election) time.Time {
	return e.EndDate.Add(time.Duration(e.VotingHourEnd) * time.Hour)
}

// IsOngoing reports whether voting is open at now. Two conditions must
// both hold: now falls within [start_date+hour_start, end_date+hour_end]
// and the hour of day of now falls within [hour_start, hour_end). The
// clock-hour gate applies on every day of the range, so a multi-day
// election closes each evening and reopens each morning.
func IsOngoing(e *types.Election, now time.Time) bool {
	start := StartInstant(e)
	end := EndInstant(e)
	if now.Before(start) || now.After(end) {
		return false
	}
	hour := now.Hour()
	return hour >= e.VotingHourStart && hour < e.VotingHourEnd
}

// IsOngoingWithoutHours reports whether now falls within the election's
// calendar-day range, end date inclusive through its entire day. The
// daily hour bounds are ignored.
func IsOngoingWithoutHours(e *types.Election, now time.Time) bool {
	return !now.Before(e.StartDate) && now.Before(e.EndDate.AddDate(0, 0, 1))
}

// IsEnded reports whether the election is over: now is strictly after
// the end date plus the voting hour end. IsEnded and IsOngoing are never
// simultaneously true.
func IsEnded(e *types.Election, now time.Time) bool {
	return now.After(EndInstant(e))
}

// HasOpened reports whether the voting window has ever opened. Once it
// has, the election's date and hour fields are immutable.
func HasOpened(e *types.Election, now time.Time) bool {
	return !now.Before(StartInstant(e))
}
