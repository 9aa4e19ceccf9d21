// Package testdb is an in-memory implementation of database.Database
// used by tests. It enforces the same uniqueness rules as the postgres
// schema, in particular the one-ballot-per-voter constraint, so the
// concurrency behavior of the ballot service can be exercised without a
// live database.
package testdb

import (
	"fmt"
	"sync"
	"time"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/types"
)

type Database struct {
	mu sync.Mutex

	nextID     int
	elections  map[int]*types.Election
	positions  map[int]*types.Position
	partylists map[int]*types.Partylist
	candidates map[int]*types.Candidate
	voters     map[int]*types.Voter
	ballots    map[string]*types.BallotRecord // key: electionID/voterID
	votes      []types.Vote
	results    []types.GeneratedElectionResult

	// FailCastBallot makes the next CastBallot return an error without
	// writing anything, to exercise storage-failure paths.
	FailCastBallot bool
}

func New() (*Database, error) {
	return &Database{
		elections:  make(map[int]*types.Election),
		positions:  make(map[int]*types.Position),
		partylists: make(map[int]*types.Partylist),
		candidates: make(map[int]*types.Candidate),
		voters:     make(map[int]*types.Voter),
		ballots:    make(map[string]*types.BallotRecord),
	}, nil
}

func (d *Database) Ping() error  { return nil }
func (d *Database) Close() error { return nil }

func (d *Database) Migrate(dir migrate.MigrationDirection) (int, error) { return 0, nil }
func (d *Database) MigrateStatus() (int, int, string, error)            { return 0, 0, "", nil }
func (d *Database) MigrationUpSync() (int, error)                       { return 0, nil }

func (d *Database) newID() int {
	d.nextID++
	return d.nextID
}

func ballotKey(electionID, voterID int) string {
	return fmt.Sprintf("%d/%d", electionID, voterID)
}

// Election

func (d *Database) CreateElection(e *types.Election) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, other := range d.elections {
		if !other.DeletedAt.Valid && other.Slug == e.Slug {
			return 0, fmt.Errorf("election slug %q is already taken", e.Slug)
		}
	}
	cp := *e
	cp.ID = d.newID()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = time.Now()
	d.elections[cp.ID] = &cp
	return cp.ID, nil
}

func (d *Database) GetElection(id int) (*types.Election, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.elections[id]
	if !ok || e.DeletedAt.Valid {
		return nil, database.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (d *Database) GetElectionBySlug(slug string) (*types.Election, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.elections {
		if !e.DeletedAt.Valid && e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (d *Database) UpdateElection(e *types.Election) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.elections[e.ID]
	if !ok || stored.DeletedAt.Valid {
		return database.ErrNotFound
	}
	cp := *e
	cp.CreatedAt = stored.CreatedAt
	cp.UpdatedAt = time.Now()
	d.elections[e.ID] = &cp
	return nil
}

func (d *Database) DeleteElection(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.elections[id]
	if !ok || e.DeletedAt.Valid {
		return database.ErrNotFound
	}
	e.DeletedAt.Valid = true
	e.DeletedAt.Time = time.Now()
	return nil
}

func (d *Database) ListElections() ([]types.Election, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var list []types.Election
	for _, e := range d.elections {
		if !e.DeletedAt.Valid {
			list = append(list, *e)
		}
	}
	return list, nil
}

// Position

func (d *Database) CreatePosition(p *types.Position) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *p
	cp.ID = d.newID()
	d.positions[cp.ID] = &cp
	return cp.ID, nil
}

func (d *Database) GetPosition(id int) (*types.Position, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.positions[id]
	if !ok || p.DeletedAt.Valid {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *Database) UpdatePosition(p *types.Position) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stored, ok := d.positions[p.ID]; !ok || stored.DeletedAt.Valid {
		return database.ErrNotFound
	}
	cp := *p
	d.positions[p.ID] = &cp
	return nil
}

func (d *Database) DeletePosition(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.positions[id]
	if !ok || p.DeletedAt.Valid {
		return database.ErrNotFound
	}
	p.DeletedAt.Valid = true
	p.DeletedAt.Time = time.Now()
	return nil
}

func (d *Database) ListPositions(electionID int) ([]types.Position, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var list []types.Position
	for id := 1; id <= d.nextID; id++ {
		p, ok := d.positions[id]
		if ok && !p.DeletedAt.Valid && p.ElectionID == electionID {
			list = append(list, *p)
		}
	}
	return list, nil
}

// Partylist

func (d *Database) CreatePartylist(p *types.Partylist) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *p
	cp.ID = d.newID()
	d.partylists[cp.ID] = &cp
	return cp.ID, nil
}

func (d *Database) GetPartylist(id int) (*types.Partylist, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.partylists[id]
	if !ok || p.DeletedAt.Valid {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *Database) UpdatePartylist(p *types.Partylist) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stored, ok := d.partylists[p.ID]; !ok || stored.DeletedAt.Valid {
		return database.ErrNotFound
	}
	cp := *p
	d.partylists[p.ID] = &cp
	return nil
}

func (d *Database) DeletePartylist(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.partylists[id]
	if !ok || p.DeletedAt.Valid {
		return database.ErrNotFound
	}
	p.DeletedAt.Valid = true
	p.DeletedAt.Time = time.Now()
	return nil
}

func (d *Database) ListPartylists(electionID int) ([]types.Partylist, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var list []types.Partylist
	for id := 1; id <= d.nextID; id++ {
		p, ok := d.partylists[id]
		if ok && !p.DeletedAt.Valid && p.ElectionID == electionID {
			list = append(list, *p)
		}
	}
	return list, nil
}

// Candidate

func (d *Database) CreateCandidate(c *types.Candidate) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, other := range d.candidates {
		if !other.DeletedAt.Valid && other.ElectionID == c.ElectionID && other.Slug == c.Slug {
			return 0, fmt.Errorf("candidate slug %q is already taken in election %d", c.Slug, c.ElectionID)
		}
	}
	cp := *c
	cp.ID = d.newID()
	d.candidates[cp.ID] = &cp
	return cp.ID, nil
}

func (d *Database) GetCandidate(id int) (*types.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.candidates[id]
	if !ok || c.DeletedAt.Valid {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (d *Database) GetCandidateBySlug(electionID int, slug string) (*types.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.candidates {
		if !c.DeletedAt.Valid && c.ElectionID == electionID && c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (d *Database) UpdateCandidate(c *types.Candidate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.candidates[c.ID]
	if !ok || stored.DeletedAt.Valid {
		return database.ErrNotFound
	}
	cp := *c
	cp.FirstName = stored.FirstName
	cp.MiddleName = stored.MiddleName
	cp.LastName = stored.LastName
	d.candidates[c.ID] = &cp
	return nil
}

func (d *Database) DeleteCandidate(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.candidates[id]
	if !ok || c.DeletedAt.Valid {
		return database.ErrNotFound
	}
	c.DeletedAt.Valid = true
	c.DeletedAt.Time = time.Now()
	return nil
}

func (d *Database) ListCandidates(electionID int) ([]types.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var list []types.Candidate
	for id := 1; id <= d.nextID; id++ {
		c, ok := d.candidates[id]
		if ok && !c.DeletedAt.Valid && c.ElectionID == electionID {
			list = append(list, *c)
		}
	}
	return list, nil
}

// Voter

func (d *Database) CreateVoters(voters []types.Voter) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range voters {
		for _, other := range d.voters {
			if !other.DeletedAt.Valid && other.ElectionID == voters[i].ElectionID &&
				other.Email == voters[i].Email {
				return fmt.Errorf("voter email %q is already registered for election %d",
					voters[i].Email, voters[i].ElectionID)
			}
		}
		cp := voters[i]
		cp.ID = d.newID()
		d.voters[cp.ID] = &cp
		voters[i].ID = cp.ID
	}
	return nil
}

func (d *Database) GetVoter(id int) (*types.Voter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.voters[id]
	if !ok || v.DeletedAt.Valid {
		return nil, database.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (d *Database) GetVoterByEmail(electionID int, email string) (*types.Voter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range d.voters {
		if !v.DeletedAt.Valid && v.ElectionID == electionID && v.Email == email {
			cp := *v
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (d *Database) GetVoterByToken(token string) (*types.Voter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range d.voters {
		if !v.DeletedAt.Valid && v.Token == token {
			cp := *v
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (d *Database) DeleteVoter(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.voters[id]
	if !ok || v.DeletedAt.Valid {
		return database.ErrNotFound
	}
	v.DeletedAt.Valid = true
	v.DeletedAt.Time = time.Now()
	return nil
}

func (d *Database) ListVoters(electionID int) ([]types.Voter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var list []types.Voter
	for id := 1; id <= d.nextID; id++ {
		v, ok := d.voters[id]
		if ok && !v.DeletedAt.Valid && v.ElectionID == electionID {
			list = append(list, *v)
		}
	}
	return list, nil
}

func (d *Database) GetVoterTokensList() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var tokens []string
	for _, v := range d.voters {
		if !v.DeletedAt.Valid {
			tokens = append(tokens, v.Token)
		}
	}
	return tokens, nil
}

// Ballot

func (d *Database) CastBallot(ballot *types.BallotRecord, votes []types.Vote) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailCastBallot {
		d.FailCastBallot = false
		return fmt.Errorf("testdb: simulated storage failure")
	}
	key := ballotKey(ballot.ElectionID, ballot.VoterID)
	if _, exists := d.ballots[key]; exists {
		return database.ErrDuplicateBallot
	}
	cp := *ballot
	d.ballots[key] = &cp
	d.votes = append(d.votes, votes...)
	return nil
}

func (d *Database) HasVoted(electionID, voterID int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.ballots[ballotKey(electionID, voterID)]
	return ok, nil
}

func (d *Database) TallyVotes(electionID int) ([]types.TallyRow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	type group struct {
		positionID  int
		candidateID int64
		abstain     bool
	}
	counts := make(map[group]int)
	var order []group
	for _, v := range d.votes {
		if v.ElectionID != electionID {
			continue
		}
		g := group{positionID: v.PositionID}
		if v.CandidateID.Valid {
			g.candidateID = v.CandidateID.Int64
		} else {
			g.abstain = true
		}
		if _, seen := counts[g]; !seen {
			order = append(order, g)
		}
		counts[g]++
	}
	var rows []types.TallyRow
	for _, g := range order {
		row := types.TallyRow{PositionID: g.positionID, Votes: counts[g]}
		if !g.abstain {
			row.CandidateID.Valid = true
			row.CandidateID.Int64 = g.candidateID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// VoteRows returns a copy of all committed vote rows for an election,
// for test assertions.
func (d *Database) VoteRows(electionID int) []types.Vote {
	d.mu.Lock()
	defer d.mu.Unlock()
	var rows []types.Vote
	for _, v := range d.votes {
		if v.ElectionID == electionID {
			rows = append(rows, v)
		}
	}
	return rows
}

// Result

func (d *Database) CreateElectionResult(r *types.GeneratedElectionResult) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *r
	cp.ID = d.newID()
	cp.CreatedAt = time.Now()
	d.results = append(d.results, cp)
	return cp.ID, nil
}

func (d *Database) GetElectionResult(electionID int) (*types.GeneratedElectionResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.results) - 1; i >= 0; i-- {
		if d.results[i].ElectionID == electionID {
			cp := d.results[i]
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}
