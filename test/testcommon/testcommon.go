package testcommon

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/bricesuazo/eboto-sub001/types"
	"github.com/bricesuazo/eboto-sub001/util"
)

// CreateElections creates a given number of random elections, open for
// the whole current day.
func CreateElections(size int) []*types.Election {
	elections := make([]*types.Election, size)
	today := time.Now().Truncate(24 * time.Hour)
	for i := 0; i < size; i++ {
		elections[i] = &types.Election{
			Slug:            fmt.Sprintf("election-%d-%d", i, rand.Intn(10000)),
			Name:            fmt.Sprintf("Test Election %d", i),
			StartDate:       today,
			EndDate:         today,
			VotingHourStart: 0,
			VotingHourEnd:   24,
			Publicity:       types.PublicityPublic,
		}
	}
	return elections
}

// CreatePositions creates a given number of single-choice positions for
// an election.
func CreatePositions(electionID, size int) []*types.Position {
	positions := make([]*types.Position, size)
	for i := 0; i < size; i++ {
		positions[i] = &types.Position{
			ElectionID: electionID,
			Name:       fmt.Sprintf("Position %d", i),
			Ordering:   i,
			Min:        0,
			Max:        1,
		}
	}
	return positions
}

// CreateCandidates creates a given number of candidates for a position.
func CreateCandidates(electionID, positionID, partylistID, size int) []*types.Candidate {
	candidates := make([]*types.Candidate, size)
	for i := 0; i < size; i++ {
		candidates[i] = &types.Candidate{
			ElectionID:  electionID,
			PositionID:  positionID,
			PartylistID: partylistID,
			FirstName:   fmt.Sprintf("First%d", i),
			LastName:    fmt.Sprintf("Last%d", i),
			Slug:        fmt.Sprintf("candidate-%d-%d", positionID, i),
		}
	}
	return candidates
}

// CreateVoters creates a given number of voters for an election, each
// with a fresh bearer token.
func CreateVoters(electionID, size int) []types.Voter {
	voters := make([]types.Voter, size)
	for i := 0; i < size; i++ {
		voters[i] = types.Voter{
			ElectionID: electionID,
			Email:      fmt.Sprintf("voter%d-%d@example.com", i, rand.Intn(10000)),
			Token:      util.GenerateBearerToken(),
		}
	}
	return voters
}
