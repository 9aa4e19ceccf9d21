package urlapi

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"

	"github.com/bricesuazo/eboto-sub001/ballot"
	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/database/testdb"
	"github.com/bricesuazo/eboto-sub001/notifications"
	"github.com/bricesuazo/eboto-sub001/test/testcommon"
	"github.com/bricesuazo/eboto-sub001/types"
)

// testing non-handler methods

func TestCheckElectionVisibility(t *testing.T) {
	db, err := testdb.New()
	qt.Assert(t, err, qt.IsNil)
	u := &URLAPI{db: db}

	elections := testcommon.CreateElections(2)
	for _, e := range elections {
		e.ID, err = db.CreateElection(e)
		qt.Assert(t, err, qt.IsNil)
	}
	voters := testcommon.CreateVoters(elections[0].ID, 1)
	qt.Assert(t, db.CreateVoters(voters), qt.IsNil)

	noToken := &bearerstdapi.BearerStandardAPIdata{}
	voterToken := &bearerstdapi.BearerStandardAPIdata{AuthToken: voters[0].Token}
	unknownToken := &bearerstdapi.BearerStandardAPIdata{AuthToken: "deadbeef"}

	for _, publicity := range []types.Publicity{types.PublicityPrivate, types.PublicityVoter} {
		elections[0].Publicity = publicity
		qt.Assert(t, db.UpdateElection(elections[0]), qt.IsNil)
		// Without a token, or with a token of nobody, access is denied.
		qt.Assert(t, u.checkElectionVisibility(elections[0], noToken), qt.IsNotNil)
		qt.Assert(t, u.checkElectionVisibility(elections[0], unknownToken), qt.IsNotNil)
		// A voter of this election passes.
		qt.Assert(t, u.checkElectionVisibility(elections[0], voterToken), qt.IsNil)
		// A voter of another election does not.
		elections[1].Publicity = publicity
		qt.Assert(t, db.UpdateElection(elections[1]), qt.IsNil)
		qt.Assert(t, u.checkElectionVisibility(elections[1], voterToken), qt.IsNotNil)
	}

	// PUBLIC elections are open to anyone.
	elections[0].Publicity = types.PublicityPublic
	qt.Assert(t, db.UpdateElection(elections[0]), qt.IsNil)
	qt.Assert(t, u.checkElectionVisibility(elections[0], noToken), qt.IsNil)
}

func TestCheckWindowMutable(t *testing.T) {
	stored := &types.Election{
		Slug:            "council",
		StartDate:       time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, time.January, 12, 0, 0, 0, 0, time.UTC),
		VotingHourStart: 8,
		VotingHourEnd:   17,
	}
	beforeOpen := time.Date(2024, time.January, 10, 7, 59, 0, 0, time.UTC)
	afterOpen := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

	// Any temporal change is fine while the window has not opened.
	updated := *stored
	updated.EndDate = updated.EndDate.AddDate(0, 0, 1)
	qt.Assert(t, checkWindowMutable(stored, &updated, beforeOpen), qt.IsNil)

	// The same change is rejected from the opening instant on.
	qt.Assert(t, checkWindowMutable(stored, &updated, afterOpen), qt.IsNotNil)
	updated = *stored
	updated.StartDate = updated.StartDate.AddDate(0, 0, -1)
	qt.Assert(t, checkWindowMutable(stored, &updated, afterOpen), qt.IsNotNil)
	updated = *stored
	updated.VotingHourEnd = 20
	qt.Assert(t, checkWindowMutable(stored, &updated, afterOpen), qt.IsNotNil)

	// Non-temporal fields stay mutable after the window opens.
	updated = *stored
	updated.Name = "Renamed Council"
	updated.RealtimeCandidates = true
	qt.Assert(t, checkWindowMutable(stored, &updated, afterOpen), qt.IsNil)
	qt.Assert(t, windowChanged(stored, &updated), qt.IsFalse)
}

func TestRejectionReason(t *testing.T) {
	qt.Assert(t, rejectionReason(ballot.ErrWindowClosed), qt.Equals, "window_closed")
	qt.Assert(t, rejectionReason(ballot.ErrAlreadyVoted), qt.Equals, "already_voted")
	qt.Assert(t, rejectionReason(ballot.ErrNotAVoter), qt.Equals, "not_a_voter")
	qt.Assert(t, rejectionReason(&ballot.InvalidBallotError{PositionID: 3, Reason: "too many"}),
		qt.Equals, "invalid_ballot")
	qt.Assert(t, rejectionReason(database.ErrNotFound), qt.Equals, "not_found")
	qt.Assert(t, rejectionReason(database.ErrDuplicateBallot), qt.Equals, "storage")
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-01-10")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, d, qt.Equals, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))

	d, err = parseDate("2024-01-10T08:30:00Z")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, d, qt.Equals, time.Date(2024, time.January, 10, 8, 30, 0, 0, time.UTC))

	_, err = parseDate("10/01/2024")
	qt.Assert(t, err, qt.IsNotNil)
}

func TestEnableElectionHandlersNilCollaborators(t *testing.T) {
	db, err := testdb.New()
	qt.Assert(t, err, qt.IsNil)
	ballots := ballot.New(db, &notifications.LogNotifier{})
	u := &URLAPI{}

	qt.Assert(t, u.EnableElectionHandlers(nil, ballots, nil, nil), qt.IsNotNil)
	qt.Assert(t, u.EnableElectionHandlers(db, nil, nil, nil), qt.IsNotNil)
	qt.Assert(t, u.EnableElectionHandlers(db, ballots, nil, &notifications.LogNotifier{}), qt.IsNotNil)
	qt.Assert(t, u.EnableElectionHandlers(db, ballots, nil, nil), qt.IsNotNil)
}
