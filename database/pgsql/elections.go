package pgsql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/types"
)

func (d *Database) CreateElection(e *types.Election) (int, error) {
	e.CreatedAt = time.Now()
	e.UpdatedAt = time.Now()
	insert := `INSERT INTO elections
			( slug, name, description, start_date, end_date, voting_hour_start,
				voting_hour_end, publicity, realtime_candidates, logo_uri, created_at, updated_at)
			VALUES ( :slug, :name, :description, :start_date, :end_date, :voting_hour_start,
				:voting_hour_end, :publicity, :realtime_candidates, :logo_uri, :created_at, :updated_at)
			RETURNING id`
	result, err := d.db.NamedQuery(insert, e)
	if err != nil {
		if isUniqueViolation(err, "elections_slug_unique") {
			return 0, fmt.Errorf("election slug %q is already taken", e.Slug)
		}
		return 0, fmt.Errorf("error creating election: %w", err)
	}
	defer result.Close()
	if !result.Next() {
		return 0, fmt.Errorf("error creating election: there is no next result row")
	}
	var id int
	if err = result.Scan(&id); err != nil {
		return 0, fmt.Errorf("error creating election: %w", err)
	}
	return id, nil
}

func (d *Database) GetElection(id int) (*types.Election, error) {
	var election types.Election
	selectQuery := `SELECT id, slug, name, description, start_date, end_date,
				voting_hour_start, voting_hour_end, publicity, realtime_candidates,
				logo_uri, created_at, updated_at, deleted_at
			FROM elections WHERE id=$1 AND deleted_at IS NULL`
	if err := d.db.Get(&election, selectQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving election %d: %w", id, err)
	}
	return &election, nil
}

func (d *Database) GetElectionBySlug(slug string) (*types.Election, error) {
	var election types.Election
	selectQuery := `SELECT id, slug, name, description, start_date, end_date,
				voting_hour_start, voting_hour_end, publicity, realtime_candidates,
				logo_uri, created_at, updated_at, deleted_at
			FROM elections WHERE slug=$1 AND deleted_at IS NULL`
	if err := d.db.Get(&election, selectQuery, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving election %q: %w", slug, err)
	}
	return &election, nil
}

func (d *Database) UpdateElection(e *types.Election) error {
	e.UpdatedAt = time.Now()
	update := `UPDATE elections SET
				name=:name, description=:description, start_date=:start_date,
				end_date=:end_date, voting_hour_start=:voting_hour_start,
				voting_hour_end=:voting_hour_end, publicity=:publicity,
				realtime_candidates=:realtime_candidates, logo_uri=:logo_uri,
				updated_at=:updated_at
			WHERE id=:id AND deleted_at IS NULL`
	result, err := d.db.NamedExec(update, e)
	if err != nil {
		return fmt.Errorf("error updating election %d: %w", e.ID, err)
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

// DeleteElection tombstones the election. Rows are never hard-removed.
func (d *Database) DeleteElection(id int) error {
	result, err := d.db.Exec(
		`UPDATE elections SET deleted_at=CURRENT_TIMESTAMP WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("error deleting election %d: %w", id, err)
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

func (d *Database) ListElections() ([]types.Election, error) {
	var elections []types.Election
	selectQuery := `SELECT id, slug, name, description, start_date, end_date,
				voting_hour_start, voting_hour_end, publicity, realtime_candidates,
				logo_uri, created_at, updated_at, deleted_at
			FROM elections WHERE deleted_at IS NULL ORDER BY start_date DESC`
	if err := d.db.Select(&elections, selectQuery); err != nil {
		return nil, fmt.Errorf("error listing elections: %w", err)
	}
	return elections, nil
}
