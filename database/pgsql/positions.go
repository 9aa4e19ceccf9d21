package pgsql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/types"
)

func (d *Database) CreatePosition(p *types.Position) (int, error) {
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	insert := `INSERT INTO positions
			( election_id, name, ordering, min_selections, max_selections, created_at, updated_at)
			VALUES ( :election_id, :name, :ordering, :min_selections, :max_selections, :created_at, :updated_at)
			RETURNING id`
	result, err := d.db.NamedQuery(insert, p)
	if err != nil {
		return 0, fmt.Errorf("error creating position: %w", err)
	}
	defer result.Close()
	if !result.Next() {
		return 0, fmt.Errorf("error creating position: there is no next result row")
	}
	var id int
	if err = result.Scan(&id); err != nil {
		return 0, fmt.Errorf("error creating position: %w", err)
	}
	return id, nil
}

func (d *Database) GetPosition(id int) (*types.Position, error) {
	var position types.Position
	selectQuery := `SELECT id, election_id, name, ordering, min_selections, max_selections,
				created_at, updated_at, deleted_at
			FROM positions WHERE id=$1 AND deleted_at IS NULL`
	if err := d.db.Get(&position, selectQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving position %d: %w", id, err)
	}
	return &position, nil
}

func (d *Database) UpdatePosition(p *types.Position) error {
	p.UpdatedAt = time.Now()
	update := `UPDATE positions SET
				name=:name, ordering=:ordering, min_selections=:min_selections,
				max_selections=:max_selections, updated_at=:updated_at
			WHERE id=:id AND deleted_at IS NULL`
	result, err := d.db.NamedExec(update, p)
	if err != nil {
		return fmt.Errorf("error updating position %d: %w", p.ID, err)
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

func (d *Database) DeletePosition(id int) error {
	result, err := d.db.Exec(
		`UPDATE positions SET deleted_at=CURRENT_TIMESTAMP WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("error deleting position %d: %w", id, err)
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

func (d *Database) ListPositions(electionID int) ([]types.Position, error) {
	var positions []types.Position
	selectQuery := `SELECT id, election_id, name, ordering, min_selections, max_selections,
				created_at, updated_at, deleted_at
			FROM positions WHERE election_id=$1 AND deleted_at IS NULL ORDER BY ordering, id`
	if err := d.db.Select(&positions, selectQuery, electionID); err != nil {
		return nil, fmt.Errorf("error listing positions for election %d: %w", electionID, err)
	}
	return positions, nil
}
