package pgsql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/types"
)

// CastBallot durably writes one accepted ballot: the ballot anchor row
// plus every vote row, as a single transaction. Either all rows commit
// or none do, so a concurrent tally can never observe a partial ballot.
// A unique violation on (election_id, voter_id) is returned as
// database.ErrDuplicateBallot, which is the authoritative signal that
// the voter has already cast.
func (d *Database) CastBallot(ballot *types.BallotRecord, votes []types.Vote) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("error casting ballot: %w", err)
	}
	insertBallot := `INSERT INTO ballots ( id, election_id, voter_id, cast_at)
			VALUES ( :id, :election_id, :voter_id, :cast_at)`
	if _, err := tx.NamedExec(insertBallot, ballot); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("something is very wrong: could not rollback ballot insert: %v after: %w", rollbackErr, err)
		}
		if isUniqueViolation(err, "ballots_voter_unique") {
			return database.ErrDuplicateBallot
		}
		return fmt.Errorf("error casting ballot: %w", err)
	}
	now := time.Now()
	for i := range votes {
		votes[i].CreatedAt = now
	}
	insertVotes := `INSERT INTO votes ( ballot_id, election_id, voter_id, position_id, candidate_id, created_at)
			VALUES ( :ballot_id, :election_id, :voter_id, :position_id, :candidate_id, :created_at)`
	if err := bulkInsert(tx, insertVotes, votes, 6); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("something is very wrong: could not rollback vote insert: %v after: %w", rollbackErr, err)
		}
		return fmt.Errorf("error casting ballot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error casting ballot: %w", err)
	}
	return nil
}

func (d *Database) HasVoted(electionID, voterID int) (bool, error) {
	var id string
	err := d.db.Get(&id,
		`SELECT id FROM ballots WHERE election_id=$1 AND voter_id=$2 AND deleted_at IS NULL`,
		electionID, voterID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking ballot for voter %d: %w", voterID, err)
	}
	return true, nil
}

// TallyVotes aggregates the committed vote rows of an election into one
// row per (position, candidate) group; abstentions come back as groups
// with a NULL candidate. Secondary ordering inside equal counts is
// whatever the storage layer returns.
func (d *Database) TallyVotes(electionID int) ([]types.TallyRow, error) {
	var rows []types.TallyRow
	selectQuery := `SELECT position_id, candidate_id, COUNT(*) AS votes
			FROM votes WHERE election_id=$1
			GROUP BY position_id, candidate_id
			ORDER BY position_id, candidate_id`
	if err := d.db.Select(&rows, selectQuery, electionID); err != nil {
		return nil, fmt.Errorf("error tallying votes for election %d: %w", electionID, err)
	}
	return rows, nil
}

func (d *Database) CreateElectionResult(r *types.GeneratedElectionResult) (int, error) {
	r.CreatedAt = time.Now()
	insert := `INSERT INTO election_results ( election_id, positions, created_at)
			VALUES ( :election_id, :positions, :created_at)
			RETURNING id`
	result, err := d.db.NamedQuery(insert, r)
	if err != nil {
		return 0, fmt.Errorf("error creating election result: %w", err)
	}
	defer result.Close()
	if !result.Next() {
		return 0, fmt.Errorf("error creating election result: there is no next result row")
	}
	var id int
	if err = result.Scan(&id); err != nil {
		return 0, fmt.Errorf("error creating election result: %w", err)
	}
	return id, nil
}

// GetElectionResult returns the most recent generated snapshot for the
// election. Snapshots are append-only.
func (d *Database) GetElectionResult(electionID int) (*types.GeneratedElectionResult, error) {
	var result types.GeneratedElectionResult
	selectQuery := `SELECT id, election_id, positions, created_at
			FROM election_results WHERE election_id=$1
			ORDER BY created_at DESC LIMIT 1`
	if err := d.db.Get(&result, selectQuery, electionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving result for election %d: %w", electionID, err)
	}
	return &result, nil
}
