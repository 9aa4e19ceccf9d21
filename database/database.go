package database

import (
	"errors"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/bricesuazo/eboto-sub001/types"
)

// ErrNotFound is returned when the requested record does not exist or
// has been soft-deleted. Reads never surface tombstoned rows.
var ErrNotFound = errors.New("database: record not found")

// ErrDuplicateBallot is returned by CastBallot when a ballot for the
// same (election, voter) pair already exists. The unique constraint at
// the storage layer is the source of truth for at-most-once casting;
// any application-level existence check is only an optimization.
var ErrDuplicateBallot = errors.New("database: ballot already exists for voter")

type Database interface {
	// Election
	CreateElection(e *types.Election) (int, error)
	GetElection(id int) (*types.Election, error)
	GetElectionBySlug(slug string) (*types.Election, error)
	UpdateElection(e *types.Election) error
	DeleteElection(id int) error
	ListElections() ([]types.Election, error)
	// Position
	CreatePosition(p *types.Position) (int, error)
	GetPosition(id int) (*types.Position, error)
	UpdatePosition(p *types.Position) error
	DeletePosition(id int) error
	ListPositions(electionID int) ([]types.Position, error)
	// Partylist
	CreatePartylist(p *types.Partylist) (int, error)
	GetPartylist(id int) (*types.Partylist, error)
	UpdatePartylist(p *types.Partylist) error
	DeletePartylist(id int) error
	ListPartylists(electionID int) ([]types.Partylist, error)
	// Candidate
	CreateCandidate(c *types.Candidate) (int, error)
	GetCandidate(id int) (*types.Candidate, error)
	GetCandidateBySlug(electionID int, slug string) (*types.Candidate, error)
	UpdateCandidate(c *types.Candidate) error
	DeleteCandidate(id int) error
	ListCandidates(electionID int) ([]types.Candidate, error)
	// Voter
	CreateVoters(voters []types.Voter) error
	GetVoter(id int) (*types.Voter, error)
	GetVoterByEmail(electionID int, email string) (*types.Voter, error)
	GetVoterByToken(token string) (*types.Voter, error)
	DeleteVoter(id int) error
	ListVoters(electionID int) ([]types.Voter, error)
	GetVoterTokensList() ([]string, error)
	// Ballot
	CastBallot(ballot *types.BallotRecord, votes []types.Vote) error
	HasVoted(electionID, voterID int) (bool, error)
	TallyVotes(electionID int) ([]types.TallyRow, error)
	// Result
	CreateElectionResult(r *types.GeneratedElectionResult) (int, error)
	GetElectionResult(electionID int) (*types.GeneratedElectionResult, error)
	// Manage DB
	Ping() error
	Close() error
	// Migrations
	Migrate(dir migrate.MigrationDirection) (int, error)
	MigrateStatus() (int, int, string, error)
	MigrationUpSync() (int, error)
}
