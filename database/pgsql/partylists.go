package pgsql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/types"
)

func (d *Database) CreatePartylist(p *types.Partylist) (int, error) {
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	insert := `INSERT INTO partylists
			( election_id, name, acronym, logo_uri, created_at, updated_at)
			VALUES ( :election_id, :name, :acronym, :logo_uri, :created_at, :updated_at)
			RETURNING id`
	result, err := d.db.NamedQuery(insert, p)
	if err != nil {
		return 0, fmt.Errorf("error creating partylist: %w", err)
	}
	defer result.Close()
	if !result.Next() {
		return 0, fmt.Errorf("error creating partylist: there is no next result row")
	}
	var id int
	if err = result.Scan(&id); err != nil {
		return 0, fmt.Errorf("error creating partylist: %w", err)
	}
	return id, nil
}

func (d *Database) GetPartylist(id int) (*types.Partylist, error) {
	var partylist types.Partylist
	selectQuery := `SELECT id, election_id, name, acronym, logo_uri,
				created_at, updated_at, deleted_at
			FROM partylists WHERE id=$1 AND deleted_at IS NULL`
	if err := d.db.Get(&partylist, selectQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving partylist %d: %w", id, err)
	}
	return &partylist, nil
}

func (d *Database) UpdatePartylist(p *types.Partylist) error {
	p.UpdatedAt = time.Now()
	update := `UPDATE partylists SET
				name=:name, acronym=:acronym, logo_uri=:logo_uri, updated_at=:updated_at
			WHERE id=:id AND deleted_at IS NULL`
	result, err := d.db.NamedExec(update, p)
	if err != nil {
		return fmt.Errorf("error updating partylist %d: %w", p.ID, err)
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

func (d *Database) DeletePartylist(id int) error {
	result, err := d.db.Exec(
		`UPDATE partylists SET deleted_at=CURRENT_TIMESTAMP WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("error deleting partylist %d: %w", id, err)
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

func (d *Database) ListPartylists(electionID int) ([]types.Partylist, error) {
	var partylists []types.Partylist
	selectQuery := `SELECT id, election_id, name, acronym, logo_uri,
				created_at, updated_at, deleted_at
			FROM partylists WHERE election_id=$1 AND deleted_at IS NULL ORDER BY name`
	if err := d.db.Select(&partylists, selectQuery, electionID); err != nil {
		return nil, fmt.Errorf("error listing partylists for election %d: %w", electionID, err)
	}
	return partylists, nil
}
