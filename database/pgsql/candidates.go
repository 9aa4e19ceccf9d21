package pgsql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/types"
)

func (d *Database) CreateCandidate(c *types.Candidate) (int, error) {
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	insert := `INSERT INTO candidates
			( election_id, position_id, partylist_id, first_name, middle_name, last_name,
				slug, image_uri, credential, platforms, created_at, updated_at)
			VALUES ( :election_id, :position_id, :partylist_id, :first_name, :middle_name, :last_name,
				:slug, :image_uri, :credential, :platforms, :created_at, :updated_at)
			RETURNING id`
	result, err := d.db.NamedQuery(insert, c)
	if err != nil {
		if isUniqueViolation(err, "candidates_slug_unique") {
			return 0, fmt.Errorf("candidate slug %q is already taken in election %d", c.Slug, c.ElectionID)
		}
		return 0, fmt.Errorf("error creating candidate: %w", err)
	}
	defer result.Close()
	if !result.Next() {
		return 0, fmt.Errorf("error creating candidate: there is no next result row")
	}
	var id int
	if err = result.Scan(&id); err != nil {
		return 0, fmt.Errorf("error creating candidate: %w", err)
	}
	return id, nil
}

func (d *Database) GetCandidate(id int) (*types.Candidate, error) {
	var candidate types.Candidate
	selectQuery := `SELECT id, election_id, position_id, partylist_id, first_name, middle_name,
				last_name, slug, image_uri, credential, platforms, created_at, updated_at, deleted_at
			FROM candidates WHERE id=$1 AND deleted_at IS NULL`
	if err := d.db.Get(&candidate, selectQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving candidate %d: %w", id, err)
	}
	return &candidate, nil
}

func (d *Database) GetCandidateBySlug(electionID int, slug string) (*types.Candidate, error) {
	var candidate types.Candidate
	selectQuery := `SELECT id, election_id, position_id, partylist_id, first_name, middle_name,
				last_name, slug, image_uri, credential, platforms, created_at, updated_at, deleted_at
			FROM candidates WHERE election_id=$1 AND slug=$2 AND deleted_at IS NULL`
	if err := d.db.Get(&candidate, selectQuery, electionID, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving candidate %q: %w", slug, err)
	}
	return &candidate, nil
}

// UpdateCandidate updates the mutable fields of a candidate. The name
// fields are identity and are not part of the update set.
func (d *Database) UpdateCandidate(c *types.Candidate) error {
	c.UpdatedAt = time.Now()
	update := `UPDATE candidates SET
				position_id=:position_id, partylist_id=:partylist_id, slug=:slug,
				image_uri=:image_uri, credential=:credential, platforms=:platforms,
				updated_at=:updated_at
			WHERE id=:id AND deleted_at IS NULL`
	result, err := d.db.NamedExec(update, c)
	if err != nil {
		if isUniqueViolation(err, "candidates_slug_unique") {
			return fmt.Errorf("candidate slug %q is already taken in election %d", c.Slug, c.ElectionID)
		}
		return fmt.Errorf("error updating candidate %d: %w", c.ID, err)
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

func (d *Database) DeleteCandidate(id int) error {
	result, err := d.db.Exec(
		`UPDATE candidates SET deleted_at=CURRENT_TIMESTAMP WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("error deleting candidate %d: %w", id, err)
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

func (d *Database) ListCandidates(electionID int) ([]types.Candidate, error) {
	var candidates []types.Candidate
	selectQuery := `SELECT id, election_id, position_id, partylist_id, first_name, middle_name,
				last_name, slug, image_uri, credential, platforms, created_at, updated_at, deleted_at
			FROM candidates WHERE election_id=$1 AND deleted_at IS NULL ORDER BY position_id, id`
	if err := d.db.Select(&candidates, selectQuery, electionID); err != nil {
		return nil, fmt.Errorf("error listing candidates for election %d: %w", electionID, err)
	}
	return candidates, nil
}
