package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CreatedUpdated struct {
	CreatedAt time.Time `json:"createdAt,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// Publicity controls who can see an election and its realtime results.
type Publicity string

const (
	PublicityPrivate Publicity = "PRIVATE"
	PublicityVoter   Publicity = "VOTER"
	PublicityPublic  Publicity = "PUBLIC"
)

func (p Publicity) Valid() bool {
	switch p {
	case PublicityPrivate, PublicityVoter, PublicityPublic:
		return true
	}
	return false
}

type Election struct {
	CreatedUpdated
	ID          int    `json:"id" db:"id"`
	Slug        string `json:"slug" db:"slug"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	// StartDate and EndDate bound the voting period. The daily voting
	// window within that period is [VotingHourStart, VotingHourEnd),
	// expressed as hours of day in [0,24].
	StartDate       time.Time `json:"startDate" db:"start_date"`
	EndDate         time.Time `json:"endDate" db:"end_date"`
	VotingHourStart int       `json:"votingHourStart" db:"voting_hour_start"`
	VotingHourEnd   int       `json:"votingHourEnd" db:"voting_hour_end"`
	Publicity       Publicity `json:"publicity" db:"publicity"`
	// RealtimeCandidates reveals candidate names in realtime results
	// while the election is still ongoing.
	RealtimeCandidates bool         `json:"realtimeCandidates" db:"realtime_candidates"`
	LogoURI            string       `json:"logoUri" db:"logo_uri"`
	DeletedAt          sql.NullTime `json:"-" db:"deleted_at"`
}

// Validate checks the invariants of an election definition.
func (e *Election) Validate() error {
	if e.Slug == "" {
		return fmt.Errorf("election slug cannot be empty")
	}
	if e.Name == "" {
		return fmt.Errorf("election name cannot be empty")
	}
	if e.StartDate.After(e.EndDate) {
		return fmt.Errorf("election start date %s is after end date %s",
			e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"))
	}
	if e.VotingHourStart < 0 || e.VotingHourEnd > 24 {
		return fmt.Errorf("voting hours must be within [0,24]")
	}
	if e.VotingHourStart >= e.VotingHourEnd {
		return fmt.Errorf("voting hour start %d must be before voting hour end %d",
			e.VotingHourStart, e.VotingHourEnd)
	}
	if !e.Publicity.Valid() {
		return fmt.Errorf("invalid election publicity %q", e.Publicity)
	}
	return nil
}

type Position struct {
	CreatedUpdated
	ID         int    `json:"id" db:"id"`
	ElectionID int    `json:"electionId" db:"election_id"`
	Name       string `json:"name" db:"name"`
	// Ordering index for display, smallest first.
	Ordering int `json:"ordering" db:"ordering"`
	// Min and Max bound the number of candidates a voter may select
	// for this position. Min=0,Max=1 is single-choice.
	Min       int          `json:"min" db:"min_selections"`
	Max       int          `json:"max" db:"max_selections"`
	DeletedAt sql.NullTime `json:"-" db:"deleted_at"`
}

func (p *Position) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("position name cannot be empty")
	}
	if p.Min < 0 || p.Min > p.Max {
		return fmt.Errorf("position selection bounds must satisfy 0 <= min <= max, got [%d,%d]", p.Min, p.Max)
	}
	if p.Max < 1 {
		return fmt.Errorf("position must allow at least one selection")
	}
	return nil
}

type Partylist struct {
	CreatedUpdated
	ID         int          `json:"id" db:"id"`
	ElectionID int          `json:"electionId" db:"election_id"`
	Name       string       `json:"name" db:"name"`
	Acronym    string       `json:"acronym" db:"acronym"`
	LogoURI    string       `json:"logoUri" db:"logo_uri"`
	DeletedAt  sql.NullTime `json:"-" db:"deleted_at"`
}

// Credential holds a candidate's background lists. Persisted as a single
// JSON column since it is only ever read and written whole.
type Credential struct {
	Achievements []string `json:"achievements,omitempty"`
	Affiliations []string `json:"affiliations,omitempty"`
	Events       []string `json:"events,omitempty"`
}

// Platform is one campaign platform entry of a candidate.
type Platform struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Candidate struct {
	CreatedUpdated
	ID          int    `json:"id" db:"id"`
	ElectionID  int    `json:"electionId" db:"election_id"`
	PositionID  int    `json:"positionId" db:"position_id"`
	PartylistID int    `json:"partylistId" db:"partylist_id"`
	FirstName   string `json:"firstName" db:"first_name"`
	MiddleName  string `json:"middleName" db:"middle_name"`
	LastName    string `json:"lastName" db:"last_name"`
	// Slug is unique within the election and may be changed; the name
	// fields identify the candidate and are immutable after creation.
	Slug       string        `json:"slug" db:"slug"`
	ImageURI   string        `json:"imageUri" db:"image_uri"`
	Credential CredentialCol `json:"credential" db:"credential"`
	Platforms  PlatformsCol  `json:"platforms" db:"platforms"`
	DeletedAt  sql.NullTime  `json:"-" db:"deleted_at"`
}

// FullName returns the candidate's display name.
func (c *Candidate) FullName() string {
	if c.MiddleName == "" {
		return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
	}
	return fmt.Sprintf("%s %s %s", c.FirstName, c.MiddleName, c.LastName)
}

type Voter struct {
	CreatedUpdated
	ID         int    `json:"id" db:"id"`
	ElectionID int    `json:"electionId" db:"election_id"`
	Email      string `json:"email" db:"email"`
	// Token is the bearer token the voter authenticates with.
	Token string `json:"-" db:"token"`
	// Fields holds election-defined custom field values.
	Fields    FieldsCol    `json:"fields" db:"fields"`
	DeletedAt sql.NullTime `json:"-" db:"deleted_at"`
}

// BallotSelection is a voter's choice for one position: either the
// abstain marker or between position.Min and position.Max candidates.
type BallotSelection struct {
	PositionID   int   `json:"positionId"`
	Abstain      bool  `json:"abstain"`
	CandidateIDs []int `json:"candidateIds,omitempty"`
}

// Ballot is a voter's full set of selections for an election, one entry
// per position the election defines.
type Ballot struct {
	Selections []BallotSelection `json:"selections"`
}

// BallotRecord anchors one accepted ballot. The storage layer enforces
// uniqueness of (election_id, voter_id), which is what makes cast
// at-most-once under concurrent submission.
type BallotRecord struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	ElectionID int          `json:"electionId" db:"election_id"`
	VoterID    int          `json:"voterId" db:"voter_id"`
	CastAt     time.Time    `json:"castAt" db:"cast_at"`
	DeletedAt  sql.NullTime `json:"-" db:"deleted_at"`
}

// Vote is one row of an accepted ballot: a selected candidate, or an
// abstention for a position when CandidateID is null.
type Vote struct {
	ID          int           `json:"id" db:"id"`
	BallotID    uuid.UUID     `json:"ballotId" db:"ballot_id"`
	ElectionID  int           `json:"electionId" db:"election_id"`
	VoterID     int           `json:"voterId" db:"voter_id"`
	PositionID  int           `json:"positionId" db:"position_id"`
	CandidateID sql.NullInt64 `json:"candidateId" db:"candidate_id"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
}

// TallyRow is one aggregated group of vote rows: the count of votes for
// one candidate of a position, or the abstain count when CandidateID is
// null.
type TallyRow struct {
	PositionID  int           `db:"position_id"`
	CandidateID sql.NullInt64 `db:"candidate_id"`
	Votes       int           `db:"votes"`
}

// CandidateTally is one candidate's count inside a position tally. When
// the realtime display hides candidate identity, Name carries the
// anonymous positional label and CandidateID is zeroed.
type CandidateTally struct {
	CandidateID int    `json:"candidateId,omitempty"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
}

// PositionTally is the aggregated result for one position, candidates
// sorted descending by vote count.
type PositionTally struct {
	PositionID  int              `json:"positionId"`
	Name        string           `json:"name"`
	Abstentions int              `json:"abstentions"`
	Candidates  []CandidateTally `json:"candidates"`
}

// GeneratedElectionResult is the immutable snapshot taken at election
// end. It is only ever inserted, never updated.
type GeneratedElectionResult struct {
	ID         int          `json:"id" db:"id"`
	ElectionID int          `json:"electionId" db:"election_id"`
	Positions  PositionsCol `json:"positions" db:"positions"`
	CreatedAt  time.Time    `json:"createdAt" db:"created_at"`
}

// JSON column wrappers so sqlx can write and scan jsonb columns.

type CredentialCol Credential

func (c CredentialCol) Value() (driver.Value, error) { return json.Marshal(c) }
func (c *CredentialCol) Scan(src interface{}) error  { return scanJSON(c, src) }

type PlatformsCol []Platform

func (p PlatformsCol) Value() (driver.Value, error) { return json.Marshal(p) }
func (p *PlatformsCol) Scan(src interface{}) error  { return scanJSON(p, src) }

type FieldsCol map[string]string

func (f FieldsCol) Value() (driver.Value, error) { return json.Marshal(f) }
func (f *FieldsCol) Scan(src interface{}) error  { return scanJSON(f, src) }

type PositionsCol []PositionTally

func (p PositionsCol) Value() (driver.Value, error) { return json.Marshal(p) }
func (p *PositionsCol) Scan(src interface{}) error  { return scanJSON(p, src) }

func scanJSON(dst interface{}, src interface{}) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(s, dst)
	case string:
		return json.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("cannot scan %T into json column", src)
	}
}
