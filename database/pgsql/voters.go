package pgsql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/types"
)

// CreateVoters inserts a batch of voters in a single transaction, using
// a chunked bulk insert to stay under the postgres placeholder limit.
func (d *Database) CreateVoters(voters []types.Voter) error {
	if len(voters) == 0 {
		return nil
	}
	now := time.Now()
	for i := range voters {
		voters[i].CreatedAt = now
		voters[i].UpdatedAt = now
		if voters[i].Fields == nil {
			voters[i].Fields = types.FieldsCol{}
		}
	}
	insert := `INSERT INTO voters
			( election_id, email, token, fields, created_at, updated_at)
			VALUES ( :election_id, :email, :token, :fields, :created_at, :updated_at)`
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("error creating voters: %w", err)
	}
	if err := bulkInsert(tx, insert, voters, 6); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("something is very wrong: could not rollback voter insert: %v after: %w", rollbackErr, err)
		}
		if isUniqueViolation(err, "voters_email_unique") {
			return fmt.Errorf("one of the voter emails is already registered for this election: %w", err)
		}
		return fmt.Errorf("error creating voters: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error creating voters: %w", err)
	}
	return nil
}

func (d *Database) GetVoter(id int) (*types.Voter, error) {
	var voter types.Voter
	selectQuery := `SELECT id, election_id, email, token, fields, created_at, updated_at, deleted_at
			FROM voters WHERE id=$1 AND deleted_at IS NULL`
	if err := d.db.Get(&voter, selectQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving voter %d: %w", id, err)
	}
	return &voter, nil
}

func (d *Database) GetVoterByEmail(electionID int, email string) (*types.Voter, error) {
	var voter types.Voter
	selectQuery := `SELECT id, election_id, email, token, fields, created_at, updated_at, deleted_at
			FROM voters WHERE election_id=$1 AND email=$2 AND deleted_at IS NULL`
	if err := d.db.Get(&voter, selectQuery, electionID, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving voter %q: %w", email, err)
	}
	return &voter, nil
}

func (d *Database) GetVoterByToken(token string) (*types.Voter, error) {
	var voter types.Voter
	selectQuery := `SELECT id, election_id, email, token, fields, created_at, updated_at, deleted_at
			FROM voters WHERE token=$1 AND deleted_at IS NULL`
	if err := d.db.Get(&voter, selectQuery, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving voter by token: %w", err)
	}
	return &voter, nil
}

func (d *Database) DeleteVoter(id int) error {
	result, err := d.db.Exec(
		`UPDATE voters SET deleted_at=CURRENT_TIMESTAMP WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("error deleting voter %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not verify updated rows: %w", err)
	}
	if rows == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (d *Database) ListVoters(electionID int) ([]types.Voter, error) {
	var voters []types.Voter
	selectQuery := `SELECT id, election_id, email, token, fields, created_at, updated_at, deleted_at
			FROM voters WHERE election_id=$1 AND deleted_at IS NULL ORDER BY email`
	if err := d.db.Select(&voters, selectQuery, electionID); err != nil {
		return nil, fmt.Errorf("error listing voters for election %d: %w", electionID, err)
	}
	return voters, nil
}

// GetVoterTokensList returns every live voter bearer token, used to seed
// the API token registry at startup.
func (d *Database) GetVoterTokensList() ([]string, error) {
	var tokens []string
	if err := d.db.Select(&tokens,
		`SELECT token FROM voters WHERE deleted_at IS NULL`); err != nil {
		return nil, fmt.Errorf("error listing voter tokens: %w", err)
	}
	return tokens, nil
}
