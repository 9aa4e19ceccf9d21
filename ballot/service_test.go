package ballot_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/log"

	"github.com/bricesuazo/eboto-sub001/ballot"
	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/database/testdb"
	"github.com/bricesuazo/eboto-sub001/notifications"
	"github.com/bricesuazo/eboto-sub001/test/testcommon"
	"github.com/bricesuazo/eboto-sub001/types"
)

func TestMain(m *testing.M) {
	log.Init("error", "stdout")
	m.Run()
}

// fixture is one election open at fixture.now: a single-choice
// "President" position with two candidates, a multi-choice "Senator"
// position (1 to 3 selections) with three candidates, and six voters.
type fixture struct {
	db         *testdb.Database
	election   *types.Election
	president  *types.Position
	senator    *types.Position
	candidates map[string]*types.Candidate // key: slug
	voters     []types.Voter
	now        time.Time
}

func (f *fixture) service(now time.Time) *ballot.Service {
	return ballot.NewWithClock(f.db, &notifications.LogNotifier{},
		func() time.Time { return now })
}

func newFixture(c *qt.C) *fixture {
	db, err := testdb.New()
	c.Assert(err, qt.IsNil)
	f := &fixture{
		db:         db,
		now:        time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC),
		candidates: make(map[string]*types.Candidate),
	}

	f.election = testcommon.CreateElections(1)[0]
	f.election.StartDate = time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	f.election.EndDate = f.election.StartDate
	f.election.VotingHourStart = 8
	f.election.VotingHourEnd = 17
	f.election.ID, err = db.CreateElection(f.election)
	c.Assert(err, qt.IsNil)

	partylist := &types.Partylist{ElectionID: f.election.ID, Name: "Independent"}
	partylist.ID, err = db.CreatePartylist(partylist)
	c.Assert(err, qt.IsNil)

	f.president = &types.Position{
		ElectionID: f.election.ID, Name: "President", Ordering: 0, Min: 0, Max: 1,
	}
	f.president.ID, err = db.CreatePosition(f.president)
	c.Assert(err, qt.IsNil)
	f.senator = &types.Position{
		ElectionID: f.election.ID, Name: "Senator", Ordering: 1, Min: 1, Max: 3,
	}
	f.senator.ID, err = db.CreatePosition(f.senator)
	c.Assert(err, qt.IsNil)

	for _, position := range []*types.Position{f.president, f.senator} {
		n := 2
		if position == f.senator {
			n = 3
		}
		for _, cand := range testcommon.CreateCandidates(f.election.ID, position.ID, partylist.ID, n) {
			cand.ID, err = db.CreateCandidate(cand)
			c.Assert(err, qt.IsNil)
			f.candidates[cand.Slug] = cand
		}
	}

	f.voters = testcommon.CreateVoters(f.election.ID, 6)
	c.Assert(db.CreateVoters(f.voters), qt.IsNil)
	return f
}

func (f *fixture) candidate(position *types.Position, i int) *types.Candidate {
	return f.candidates[fmt.Sprintf("candidate-%d-%d", position.ID, i)]
}

// validBallot selects the first president candidate and abstains for senator.
func (f *fixture) validBallot() *types.Ballot {
	return &types.Ballot{Selections: []types.BallotSelection{
		{PositionID: f.president.ID, CandidateIDs: []int{f.candidate(f.president, 0).ID}},
		{PositionID: f.senator.ID, Abstain: true},
	}}
}

func TestCastAndTally(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	record, err := srv.Cast(f.election.ID, f.voters[0].ID, f.validBallot())
	c.Assert(err, qt.IsNil)
	c.Assert(record.ElectionID, qt.Equals, f.election.ID)

	// One vote row for president, one abstain row for senator.
	rows := f.db.VoteRows(f.election.ID)
	c.Assert(rows, qt.HasLen, 2)

	f.election.RealtimeCandidates = true
	c.Assert(f.db.UpdateElection(f.election), qt.IsNil)
	tally, err := srv.Tally(f.election)
	c.Assert(err, qt.IsNil)
	c.Assert(tally, qt.HasLen, 2)
	c.Assert(tally[0].PositionID, qt.Equals, f.president.ID)
	c.Assert(tally[0].Candidates[0].Votes, qt.Equals, 1)
	c.Assert(tally[0].Abstentions, qt.Equals, 0)
	c.Assert(tally[1].PositionID, qt.Equals, f.senator.ID)
	c.Assert(tally[1].Abstentions, qt.Equals, 1)
	for _, candidate := range tally[1].Candidates {
		c.Assert(candidate.Votes, qt.Equals, 0)
	}
}

func TestCastElectionNotFound(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	_, err := srv.Cast(9999, f.voters[0].ID, f.validBallot())
	c.Assert(errors.Is(err, database.ErrNotFound), qt.IsTrue)

	// A tombstoned election is indistinguishable from a missing one.
	c.Assert(f.db.DeleteElection(f.election.ID), qt.IsNil)
	_, err = srv.Cast(f.election.ID, f.voters[0].ID, f.validBallot())
	c.Assert(errors.Is(err, database.ErrNotFound), qt.IsTrue)
}

func TestCastWindowClosed(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)

	for _, now := range []time.Time{
		time.Date(2024, time.January, 10, 7, 59, 0, 0, time.UTC),
		time.Date(2024, time.January, 10, 17, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 11, 12, 0, 0, 0, time.UTC),
	} {
		_, err := f.service(now).Cast(f.election.ID, f.voters[0].ID, f.validBallot())
		c.Assert(errors.Is(err, ballot.ErrWindowClosed), qt.IsTrue, qt.Commentf("at %s", now))
	}
	c.Assert(f.db.VoteRows(f.election.ID), qt.HasLen, 0)
}

func TestCastNotAVoter(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	// Unknown voter id.
	_, err := srv.Cast(f.election.ID, 9999, f.validBallot())
	c.Assert(errors.Is(err, ballot.ErrNotAVoter), qt.IsTrue)

	// Voter registered for a different election.
	other := testcommon.CreateElections(1)[0]
	other.ID, err = f.db.CreateElection(other)
	c.Assert(err, qt.IsNil)
	strangers := testcommon.CreateVoters(other.ID, 1)
	c.Assert(f.db.CreateVoters(strangers), qt.IsNil)
	_, err = srv.Cast(f.election.ID, strangers[0].ID, f.validBallot())
	c.Assert(errors.Is(err, ballot.ErrNotAVoter), qt.IsTrue)
}

func TestCastSingleChoiceCardinality(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	// Two candidates for a single-choice position.
	b := &types.Ballot{Selections: []types.BallotSelection{
		{PositionID: f.president.ID, CandidateIDs: []int{
			f.candidate(f.president, 0).ID, f.candidate(f.president, 1).ID}},
		{PositionID: f.senator.ID, Abstain: true},
	}}
	_, err := srv.Cast(f.election.ID, f.voters[0].ID, b)
	var invalid *ballot.InvalidBallotError
	c.Assert(errors.As(err, &invalid), qt.IsTrue)
	c.Assert(invalid.PositionID, qt.Equals, f.president.ID)
	c.Assert(f.db.VoteRows(f.election.ID), qt.HasLen, 0)
}

func TestCastMinimumSelections(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	// Zero candidates without the abstain marker for a min=1 position.
	b := &types.Ballot{Selections: []types.BallotSelection{
		{PositionID: f.president.ID, Abstain: true},
		{PositionID: f.senator.ID},
	}}
	_, err := srv.Cast(f.election.ID, f.voters[0].ID, b)
	var invalid *ballot.InvalidBallotError
	c.Assert(errors.As(err, &invalid), qt.IsTrue)
	c.Assert(invalid.PositionID, qt.Equals, f.senator.ID)

	// The abstain marker for the same position is accepted.
	b.Selections[1].Abstain = true
	_, err = srv.Cast(f.election.ID, f.voters[0].ID, b)
	c.Assert(err, qt.IsNil)
}

func TestCastForeignCandidate(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	// A senator candidate submitted for the president position.
	b := &types.Ballot{Selections: []types.BallotSelection{
		{PositionID: f.president.ID, CandidateIDs: []int{f.candidate(f.senator, 0).ID}},
		{PositionID: f.senator.ID, Abstain: true},
	}}
	_, err := srv.Cast(f.election.ID, f.voters[0].ID, b)
	var invalid *ballot.InvalidBallotError
	c.Assert(errors.As(err, &invalid), qt.IsTrue)
	c.Assert(invalid.PositionID, qt.Equals, f.president.ID)
}

func TestCastTwice(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	_, err := srv.Cast(f.election.ID, f.voters[0].ID, f.validBallot())
	c.Assert(err, qt.IsNil)
	before := f.db.VoteRows(f.election.ID)

	// Second ballot with different selections is rejected and the
	// original rows are untouched.
	b := &types.Ballot{Selections: []types.BallotSelection{
		{PositionID: f.president.ID, CandidateIDs: []int{f.candidate(f.president, 1).ID}},
		{PositionID: f.senator.ID, Abstain: true},
	}}
	_, err = srv.Cast(f.election.ID, f.voters[0].ID, b)
	c.Assert(errors.Is(err, ballot.ErrAlreadyVoted), qt.IsTrue)
	c.Assert(f.db.VoteRows(f.election.ID), qt.DeepEquals, before)
}

func TestCastConcurrentDoubleSubmit(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = srv.Cast(f.election.ID, f.voters[0].ID, f.validBallot())
		}(i)
	}
	wg.Wait()

	var accepted, rejected int
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		c.Assert(errors.Is(err, ballot.ErrAlreadyVoted), qt.IsTrue)
		rejected++
	}
	c.Assert(accepted, qt.Equals, 1)
	c.Assert(rejected, qt.Equals, attempts-1)
	// Exactly one ballot's rows committed.
	c.Assert(f.db.VoteRows(f.election.ID), qt.HasLen, 2)
}

func TestCastStorageFailureLeavesNoRows(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)

	f.db.FailCastBallot = true
	_, err := srv.Cast(f.election.ID, f.voters[0].ID, f.validBallot())
	c.Assert(err, qt.IsNotNil)
	c.Assert(errors.Is(err, ballot.ErrAlreadyVoted), qt.IsFalse)
	c.Assert(f.db.VoteRows(f.election.ID), qt.HasLen, 0)

	// The ballot was never cast, so a retry succeeds.
	_, err = srv.Cast(f.election.ID, f.voters[0].ID, f.validBallot())
	c.Assert(err, qt.IsNil)
}

// castSpread casts ballots so that president candidate 0 gets 3 votes,
// candidate 1 gets 2, and one voter abstains for president. Everyone
// abstains for senator.
func castSpread(c *qt.C, f *fixture, srv *ballot.Service) {
	for i, voter := range f.voters {
		sel := types.BallotSelection{PositionID: f.president.ID}
		switch {
		case i < 3:
			sel.CandidateIDs = []int{f.candidate(f.president, 0).ID}
		case i < 5:
			sel.CandidateIDs = []int{f.candidate(f.president, 1).ID}
		default:
			sel.Abstain = true
		}
		b := &types.Ballot{Selections: []types.BallotSelection{
			sel,
			{PositionID: f.senator.ID, Abstain: true},
		}}
		_, err := srv.Cast(f.election.ID, voter.ID, b)
		c.Assert(err, qt.IsNil)
	}
}

func TestTallyOrdersByVotes(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)
	castSpread(c, f, srv)

	f.election.RealtimeCandidates = true
	c.Assert(f.db.UpdateElection(f.election), qt.IsNil)
	tally, err := srv.Tally(f.election)
	c.Assert(err, qt.IsNil)

	president := tally[0]
	c.Assert(president.Abstentions, qt.Equals, 1)
	c.Assert(president.Candidates, qt.HasLen, 2)
	c.Assert(president.Candidates[0].CandidateID, qt.Equals, f.candidate(f.president, 0).ID)
	c.Assert(president.Candidates[0].Votes, qt.Equals, 3)
	c.Assert(president.Candidates[1].CandidateID, qt.Equals, f.candidate(f.president, 1).ID)
	c.Assert(president.Candidates[1].Votes, qt.Equals, 2)

	senator := tally[1]
	c.Assert(senator.Abstentions, qt.Equals, 6)
}

func TestTallyAnonymizesWhileOngoing(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)
	castSpread(c, f, srv)

	// RealtimeCandidates is off: identity is replaced by the post-sort
	// rank label while the election has not ended.
	tally, err := srv.Tally(f.election)
	c.Assert(err, qt.IsNil)
	president := tally[0]
	c.Assert(president.Candidates[0].Name, qt.Equals, "Candidate 1")
	c.Assert(president.Candidates[0].CandidateID, qt.Equals, 0)
	c.Assert(president.Candidates[0].Votes, qt.Equals, 3)
	c.Assert(president.Candidates[1].Name, qt.Equals, "Candidate 2")

	// Once the election is over the real names come back.
	after := time.Date(2024, time.January, 10, 18, 0, 0, 0, time.UTC)
	tally, err = f.service(after).Tally(f.election)
	c.Assert(err, qt.IsNil)
	c.Assert(tally[0].Candidates[0].Name, qt.Equals, f.candidate(f.president, 0).FullName())
	c.Assert(tally[0].Candidates[0].CandidateID, qt.Equals, f.candidate(f.president, 0).ID)
}

func TestFinalizeIdempotent(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)
	castSpread(c, f, srv)

	after := time.Date(2024, time.January, 10, 18, 0, 0, 0, time.UTC)
	ended := f.service(after)

	first, err := ended.Finalize(f.election)
	c.Assert(err, qt.IsNil)
	// Real names are always revealed in the terminal snapshot, even
	// with the realtime flag off.
	c.Assert(first.Positions[0].Candidates[0].Name,
		qt.Equals, f.candidate(f.president, 0).FullName())

	second, err := ended.Finalize(f.election)
	c.Assert(err, qt.IsNil)
	c.Assert(second.Positions, qt.DeepEquals, first.Positions)

	stored, err := f.db.GetElectionResult(f.election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Positions, qt.DeepEquals, first.Positions)
}

func TestTallyRoundTrip(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	f := newFixture(c)
	srv := f.service(f.now)
	castSpread(c, f, srv)

	f.election.RealtimeCandidates = true
	c.Assert(f.db.UpdateElection(f.election), qt.IsNil)
	tally, err := srv.Tally(f.election)
	c.Assert(err, qt.IsNil)

	// The tally reflects exactly the committed vote rows: no
	// undercount, no double-count.
	var counted int
	for _, position := range tally {
		counted += position.Abstentions
		for _, candidate := range position.Candidates {
			counted += candidate.Votes
		}
	}
	c.Assert(counted, qt.Equals, len(f.db.VoteRows(f.election.ID)))
}
