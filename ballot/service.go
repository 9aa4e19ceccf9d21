// Package ballot implements the vote-casting and tallying protocol: it
// gates ballots on the voting window, validates them against position
// cardinality rules, persists them atomically, and aggregates committed
// vote rows into per-position results.
package ballot

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.vocdoni.io/dvote/log"

	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/notifications"
	"github.com/bricesuazo/eboto-sub001/types"
	"github.com/bricesuazo/eboto-sub001/window"
)

type Service struct {
	db       database.Database
	notifier notifications.Notifier
	// now is re-evaluated on every gate check; the window boundary can
	// be crossed between two requests of the same session.
	now func() time.Time
}

func New(db database.Database, notifier notifications.Notifier) *Service {
	return &Service{db: db, notifier: notifier, now: time.Now}
}

// NewWithClock is like New but with an injected clock, for tests.
func NewWithClock(db database.Database, notifier notifications.Notifier,
	now func() time.Time) *Service {
	return &Service{db: db, notifier: notifier, now: now}
}

// Cast validates and persists one voter's ballot for an election.
// Preconditions are checked in order, each with its own failure:
// election exists, window open, not already voted, registered voter,
// selections valid per position. On success every vote row of the
// ballot is committed as one transaction and the confirmation
// notification is dispatched fire-and-forget.
func (s *Service) Cast(electionID, voterID int, b *types.Ballot) (*types.BallotRecord, error) {
	election, err := s.db.GetElection(electionID)
	if err != nil {
		return nil, err
	}
	if !window.IsOngoing(election, s.now()) {
		return nil, ErrWindowClosed
	}
	// Advisory fast path. The unique ballot constraint at the storage
	// layer is what actually guarantees at-most-once.
	voted, err := s.db.HasVoted(electionID, voterID)
	if err != nil {
		return nil, fmt.Errorf("could not check previous ballot: %w", err)
	}
	if voted {
		return nil, ErrAlreadyVoted
	}
	voter, err := s.db.GetVoter(voterID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotAVoter
		}
		return nil, fmt.Errorf("could not fetch voter: %w", err)
	}
	if voter.ElectionID != electionID {
		return nil, ErrNotAVoter
	}

	positions, err := s.db.ListPositions(electionID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch positions: %w", err)
	}
	candidates, err := s.db.ListCandidates(electionID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch candidates: %w", err)
	}

	record := &types.BallotRecord{
		ID:         uuid.New(),
		ElectionID: electionID,
		VoterID:    voterID,
		CastAt:     s.now(),
	}
	votes, err := buildVotes(record, positions, candidates, b)
	if err != nil {
		return nil, err
	}

	if err := s.db.CastBallot(record, votes); err != nil {
		if errors.Is(err, database.ErrDuplicateBallot) {
			// Lost the race against a concurrent submit of the same voter.
			return nil, ErrAlreadyVoted
		}
		return nil, fmt.Errorf("could not persist ballot: %w", err)
	}

	go func() {
		if err := s.notifier.BallotConfirmed(election, voter); err != nil {
			log.Warnf("could not send ballot confirmation to %s: %v", voter.Email, err)
		}
	}()
	return record, nil
}

// buildVotes validates the ballot against every position the election
// defines and produces the vote rows to persist: one row per selected
// candidate, or a single null-candidate row for an abstention.
func buildVotes(record *types.BallotRecord, positions []types.Position,
	candidates []types.Candidate, b *types.Ballot) ([]types.Vote, error) {
	candidatePosition := make(map[int]int, len(candidates))
	for _, c := range candidates {
		candidatePosition[c.ID] = c.PositionID
	}
	known := make(map[int]*types.Position, len(positions))
	for i := range positions {
		known[positions[i].ID] = &positions[i]
	}

	selections := make(map[int]*types.BallotSelection, len(b.Selections))
	for i := range b.Selections {
		sel := &b.Selections[i]
		if _, ok := known[sel.PositionID]; !ok {
			return nil, invalidBallot(sel.PositionID, "position does not belong to this election")
		}
		if _, dup := selections[sel.PositionID]; dup {
			return nil, invalidBallot(sel.PositionID, "position appears more than once in the ballot")
		}
		selections[sel.PositionID] = sel
	}

	var votes []types.Vote
	for _, position := range positions {
		sel := selections[position.ID]
		if sel == nil {
			// An omitted position counts as an empty selection set.
			sel = &types.BallotSelection{PositionID: position.ID}
		}
		if sel.Abstain {
			if len(sel.CandidateIDs) > 0 {
				return nil, invalidBallot(position.ID, "abstain selection cannot name candidates")
			}
			votes = append(votes, types.Vote{
				BallotID:   record.ID,
				ElectionID: record.ElectionID,
				VoterID:    record.VoterID,
				PositionID: position.ID,
			})
			continue
		}
		if len(sel.CandidateIDs) < position.Min || len(sel.CandidateIDs) > position.Max {
			return nil, invalidBallot(position.ID, "selected %d candidates, position requires between %d and %d",
				len(sel.CandidateIDs), position.Min, position.Max)
		}
		seen := make(map[int]bool, len(sel.CandidateIDs))
		for _, candidateID := range sel.CandidateIDs {
			if seen[candidateID] {
				return nil, invalidBallot(position.ID, "candidate %d selected twice", candidateID)
			}
			seen[candidateID] = true
			if candidatePosition[candidateID] != position.ID {
				return nil, invalidBallot(position.ID, "candidate %d does not belong to this position", candidateID)
			}
			votes = append(votes, types.Vote{
				BallotID:    record.ID,
				ElectionID:  record.ElectionID,
				VoterID:     record.VoterID,
				PositionID:  position.ID,
				CandidateID: sql.NullInt64{Int64: int64(candidateID), Valid: true},
			})
		}
	}
	return votes, nil
}

// Tally aggregates the committed vote rows of an election into one
// result per position, candidates sorted descending by vote count. While
// the election has not ended and its realtime-candidates flag is off,
// candidate identity is replaced by an anonymous positional label
// computed from the post-sort rank.
func (s *Service) Tally(election *types.Election) ([]types.PositionTally, error) {
	anonymize := !election.RealtimeCandidates && !window.IsEnded(election, s.now())
	return s.aggregate(election, anonymize)
}

// Finalize produces the terminal aggregation of an ended election, with
// real candidate names always revealed, and stores it as an immutable
// GeneratedElectionResult. Re-running it only re-reads immutable vote
// rows, so it is safe against a duplicate trigger.
func (s *Service) Finalize(election *types.Election) (*types.GeneratedElectionResult, error) {
	tally, err := s.aggregate(election, false)
	if err != nil {
		return nil, err
	}
	result := &types.GeneratedElectionResult{
		ElectionID: election.ID,
		Positions:  tally,
	}
	id, err := s.db.CreateElectionResult(result)
	if err != nil {
		return nil, fmt.Errorf("could not store election result: %w", err)
	}
	result.ID = id
	log.Infof("generated result %d for election %s", id, election.Slug)
	return result, nil
}

func (s *Service) aggregate(election *types.Election, anonymize bool) ([]types.PositionTally, error) {
	positions, err := s.db.ListPositions(election.ID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch positions: %w", err)
	}
	candidates, err := s.db.ListCandidates(election.ID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch candidates: %w", err)
	}
	rows, err := s.db.TallyVotes(election.ID)
	if err != nil {
		return nil, fmt.Errorf("could not tally votes: %w", err)
	}

	counts := make(map[int64]int)
	abstentions := make(map[int]int)
	for _, row := range rows {
		if row.CandidateID.Valid {
			counts[row.CandidateID.Int64] = row.Votes
		} else {
			abstentions[row.PositionID] = row.Votes
		}
	}

	tally := make([]types.PositionTally, 0, len(positions))
	for _, position := range positions {
		pt := types.PositionTally{
			PositionID:  position.ID,
			Name:        position.Name,
			Abstentions: abstentions[position.ID],
		}
		for i := range candidates {
			c := &candidates[i]
			if c.PositionID != position.ID {
				continue
			}
			pt.Candidates = append(pt.Candidates, types.CandidateTally{
				CandidateID: c.ID,
				Name:        c.FullName(),
				Votes:       counts[int64(c.ID)],
			})
		}
		// Ties keep the storage layer's secondary ordering.
		sort.SliceStable(pt.Candidates, func(i, j int) bool {
			return pt.Candidates[i].Votes > pt.Candidates[j].Votes
		})
		if anonymize {
			for i := range pt.Candidates {
				pt.Candidates[i].CandidateID = 0
				pt.Candidates[i].Name = fmt.Sprintf("Candidate %d", i+1)
			}
		}
		tally = append(tally, pt)
	}
	return tally, nil
}
