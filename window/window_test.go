package window

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/bricesuazo/eboto-sub001/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestIsOngoingSingleDay(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	election := &types.Election{
		StartDate:       date(2024, time.January, 1),
		EndDate:         date(2024, time.January, 1),
		VotingHourStart: 8,
		VotingHourEnd:   17,
	}
	c.Assert(IsOngoing(election, at(2024, time.January, 1, 7, 59)), qt.IsFalse)
	c.Assert(IsOngoing(election, at(2024, time.January, 1, 8, 0)), qt.IsTrue)
	c.Assert(IsOngoing(election, at(2024, time.January, 1, 16, 59)), qt.IsTrue)
	c.Assert(IsOngoing(election, at(2024, time.January, 1, 17, 0)), qt.IsFalse)
}

func TestIsOngoingMultiDayClockGate(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	election := &types.Election{
		StartDate:       date(2024, time.March, 10),
		EndDate:         date(2024, time.March, 12),
		VotingHourStart: 9,
		VotingHourEnd:   18,
	}
	// The clock-hour gate applies on every day of the range, not just
	// the first and last.
	c.Assert(IsOngoing(election, at(2024, time.March, 11, 12, 0)), qt.IsTrue)
	c.Assert(IsOngoing(election, at(2024, time.March, 11, 20, 0)), qt.IsFalse)
	c.Assert(IsOngoing(election, at(2024, time.March, 11, 8, 59)), qt.IsFalse)
	// Outside the date range entirely.
	c.Assert(IsOngoing(election, at(2024, time.March, 9, 12, 0)), qt.IsFalse)
	c.Assert(IsOngoing(election, at(2024, time.March, 13, 12, 0)), qt.IsFalse)
}

func TestIsOngoingWholeDay(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	election := &types.Election{
		StartDate:       date(2024, time.May, 1),
		EndDate:         date(2024, time.May, 1),
		VotingHourStart: 0,
		VotingHourEnd:   24,
	}
	c.Assert(IsOngoing(election, at(2024, time.May, 1, 0, 0)), qt.IsTrue)
	c.Assert(IsOngoing(election, at(2024, time.May, 1, 23, 59)), qt.IsTrue)
	c.Assert(IsOngoing(election, at(2024, time.April, 30, 23, 59)), qt.IsFalse)
	c.Assert(IsOngoing(election, at(2024, time.May, 2, 0, 0)), qt.IsFalse)
}

func TestIsOngoingWithoutHours(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	election := &types.Election{
		StartDate:       date(2024, time.June, 1),
		EndDate:         date(2024, time.June, 2),
		VotingHourStart: 8,
		VotingHourEnd:   17,
	}
	// End date inclusive through its entire calendar day, hours ignored.
	c.Assert(IsOngoingWithoutHours(election, at(2024, time.June, 1, 0, 0)), qt.IsTrue)
	c.Assert(IsOngoingWithoutHours(election, at(2024, time.June, 2, 23, 59)), qt.IsTrue)
	c.Assert(IsOngoingWithoutHours(election, at(2024, time.June, 3, 0, 0)), qt.IsFalse)
	c.Assert(IsOngoingWithoutHours(election, at(2024, time.May, 31, 23, 59)), qt.IsFalse)
}

func TestIsEnded(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	election := &types.Election{
		StartDate:       date(2024, time.January, 1),
		EndDate:         date(2024, time.January, 2),
		VotingHourStart: 8,
		VotingHourEnd:   17,
	}
	c.Assert(IsEnded(election, at(2024, time.January, 2, 17, 0)), qt.IsFalse)
	c.Assert(IsEnded(election, at(2024, time.January, 2, 17, 1)), qt.IsTrue)
}

func TestOngoingAndEndedNeverBothTrue(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	election := &types.Election{
		StartDate:       date(2024, time.January, 1),
		EndDate:         date(2024, time.January, 3),
		VotingHourStart: 6,
		VotingHourEnd:   20,
	}
	// Sweep the whole range in 30 minute steps, plus margins.
	for now := at(2023, time.December, 31, 0, 0); now.Before(at(2024, time.January, 5, 0, 0)); now = now.Add(30 * time.Minute) {
		ongoing := IsOngoing(election, now)
		ended := IsEnded(election, now)
		c.Assert(ongoing && ended, qt.IsFalse, qt.Commentf("at %s", now))
	}
}

func TestHasOpened(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	election := &types.Election{
		StartDate:       date(2024, time.January, 1),
		EndDate:         date(2024, time.January, 2),
		VotingHourStart: 8,
		VotingHourEnd:   17,
	}
	c.Assert(HasOpened(election, at(2024, time.January, 1, 7, 59)), qt.IsFalse)
	c.Assert(HasOpened(election, at(2024, time.January, 1, 8, 0)), qt.IsTrue)
	// Still "opened" after the election is over.
	c.Assert(HasOpened(election, at(2024, time.February, 1, 0, 0)), qt.IsTrue)
}
