package pgsql

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"go.vocdoni.io/dvote/log"

	"github.com/bricesuazo/eboto-sub001/database"
)

// Migrations available
var Migrations = migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id:   "1",
			Up:   []string{migration1up},
			Down: []string{migration1down},
		},
	},
}

const migration1up = `
-- NOTES
-- 1. All rows are soft-deleted through the deleted_at column, reads
--    always filter on deleted_at IS NULL.
-- 2. All columns are defined as NOT NULL to ease communication with Golang

--------------------------- TABLES DEFINITION
-------------------------------- -------------------------------- --------------------------------


--------------------------- Elections

CREATE TABLE elections (
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id serial NOT NULL,
    slug text NOT NULL,
    name text NOT NULL,
    description text NOT NULL DEFAULT '',
    start_date timestamp with time zone NOT NULL,
    end_date timestamp with time zone NOT NULL,
    voting_hour_start integer NOT NULL DEFAULT 0,
    voting_hour_end integer NOT NULL DEFAULT 24,
    publicity text NOT NULL DEFAULT 'PRIVATE',
    realtime_candidates boolean NOT NULL DEFAULT false,
    logo_uri text NOT NULL DEFAULT '',
    deleted_at timestamp with time zone
);

ALTER TABLE ONLY elections
    ADD CONSTRAINT elections_pkey PRIMARY KEY (id);

ALTER TABLE ONLY elections
    ADD CONSTRAINT elections_slug_unique UNIQUE (slug);

ALTER TABLE ONLY elections
    ADD CONSTRAINT elections_voting_hours_check CHECK (
        voting_hour_start >= 0 AND voting_hour_end <= 24
        AND voting_hour_start < voting_hour_end);


--------------------------- Positions

CREATE TABLE positions (
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id serial NOT NULL,
    election_id integer NOT NULL,
    name text NOT NULL,
    ordering integer NOT NULL DEFAULT 0,
    min_selections integer NOT NULL DEFAULT 0,
    max_selections integer NOT NULL DEFAULT 1,
    deleted_at timestamp with time zone
);

ALTER TABLE ONLY positions
    ADD CONSTRAINT positions_pkey PRIMARY KEY (id);

ALTER TABLE ONLY positions
    ADD CONSTRAINT positions_election_fkey FOREIGN KEY (election_id) REFERENCES elections (id);

ALTER TABLE ONLY positions
    ADD CONSTRAINT positions_selections_check CHECK (
        min_selections >= 0 AND min_selections <= max_selections);


--------------------------- Partylists

CREATE TABLE partylists (
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id serial NOT NULL,
    election_id integer NOT NULL,
    name text NOT NULL,
    acronym text NOT NULL DEFAULT '',
    logo_uri text NOT NULL DEFAULT '',
    deleted_at timestamp with time zone
);

ALTER TABLE ONLY partylists
    ADD CONSTRAINT partylists_pkey PRIMARY KEY (id);

ALTER TABLE ONLY partylists
    ADD CONSTRAINT partylists_election_fkey FOREIGN KEY (election_id) REFERENCES elections (id);


--------------------------- Candidates

CREATE TABLE candidates (
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id serial NOT NULL,
    election_id integer NOT NULL,
    position_id integer NOT NULL,
    partylist_id integer NOT NULL,
    first_name text NOT NULL,
    middle_name text NOT NULL DEFAULT '',
    last_name text NOT NULL,
    slug text NOT NULL,
    image_uri text NOT NULL DEFAULT '',
    credential jsonb NOT NULL DEFAULT '{}',
    platforms jsonb NOT NULL DEFAULT '[]',
    deleted_at timestamp with time zone
);

ALTER TABLE ONLY candidates
    ADD CONSTRAINT candidates_pkey PRIMARY KEY (id);

ALTER TABLE ONLY candidates
    ADD CONSTRAINT candidates_election_fkey FOREIGN KEY (election_id) REFERENCES elections (id);

ALTER TABLE ONLY candidates
    ADD CONSTRAINT candidates_position_fkey FOREIGN KEY (position_id) REFERENCES positions (id);

ALTER TABLE ONLY candidates
    ADD CONSTRAINT candidates_partylist_fkey FOREIGN KEY (partylist_id) REFERENCES partylists (id);

ALTER TABLE ONLY candidates
    ADD CONSTRAINT candidates_slug_unique UNIQUE (election_id, slug);


--------------------------- Voters

CREATE TABLE voters (
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id serial NOT NULL,
    election_id integer NOT NULL,
    email text NOT NULL,
    token text NOT NULL,
    fields jsonb NOT NULL DEFAULT '{}',
    deleted_at timestamp with time zone
);

ALTER TABLE ONLY voters
    ADD CONSTRAINT voters_pkey PRIMARY KEY (id);

ALTER TABLE ONLY voters
    ADD CONSTRAINT voters_election_fkey FOREIGN KEY (election_id) REFERENCES elections (id);

ALTER TABLE ONLY voters
    ADD CONSTRAINT voters_email_unique UNIQUE (election_id, email);

ALTER TABLE ONLY voters
    ADD CONSTRAINT voters_token_unique UNIQUE (token);

-- Keep the in-memory bearer token registry of every running API
-- instance in sync with the voter roll.
CREATE FUNCTION voters_token_notify() RETURNS trigger AS $$
BEGIN
    IF (TG_OP = 'INSERT') THEN
        PERFORM pg_notify('voter_tokens', 'INSERT KEY=' || NEW.token);
        RETURN NEW;
    ELSIF (TG_OP = 'UPDATE' AND NEW.deleted_at IS NOT NULL) THEN
        PERFORM pg_notify('voter_tokens', 'DELETE KEY=' || NEW.token);
        RETURN NEW;
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

CREATE TRIGGER voters_token_trigger
    AFTER INSERT OR UPDATE ON voters
    FOR EACH ROW EXECUTE PROCEDURE voters_token_notify();


--------------------------- Ballots
-- One row per accepted ballot. The unique constraint on
-- (election_id, voter_id) is what enforces at-most-once voting,
-- also under concurrent double-submit.

CREATE TABLE ballots (
    id uuid NOT NULL,
    election_id integer NOT NULL,
    voter_id integer NOT NULL,
    cast_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    deleted_at timestamp with time zone
);

ALTER TABLE ONLY ballots
    ADD CONSTRAINT ballots_pkey PRIMARY KEY (id);

ALTER TABLE ONLY ballots
    ADD CONSTRAINT ballots_election_fkey FOREIGN KEY (election_id) REFERENCES elections (id);

ALTER TABLE ONLY ballots
    ADD CONSTRAINT ballots_voter_fkey FOREIGN KEY (voter_id) REFERENCES voters (id);

ALTER TABLE ONLY ballots
    ADD CONSTRAINT ballots_voter_unique UNIQUE (election_id, voter_id);


--------------------------- Votes
-- One row per selected candidate, or one abstain row per abstaining
-- position (candidate_id NULL).

CREATE TABLE votes (
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id serial NOT NULL,
    ballot_id uuid NOT NULL,
    election_id integer NOT NULL,
    voter_id integer NOT NULL,
    position_id integer NOT NULL,
    candidate_id integer
);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_pkey PRIMARY KEY (id);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_ballot_fkey FOREIGN KEY (ballot_id) REFERENCES ballots (id);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_position_fkey FOREIGN KEY (position_id) REFERENCES positions (id);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_candidate_fkey FOREIGN KEY (candidate_id) REFERENCES candidates (id);

CREATE INDEX votes_election_position_idx ON votes (election_id, position_id);


--------------------------- Election results
-- Immutable snapshot generated once at election end.

CREATE TABLE election_results (
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id serial NOT NULL,
    election_id integer NOT NULL,
    positions jsonb NOT NULL
);

ALTER TABLE ONLY election_results
    ADD CONSTRAINT election_results_pkey PRIMARY KEY (id);

ALTER TABLE ONLY election_results
    ADD CONSTRAINT election_results_election_fkey FOREIGN KEY (election_id) REFERENCES elections (id);
`

const migration1down = `
DROP TABLE election_results;
DROP TABLE votes;
DROP TABLE ballots;
DROP TRIGGER voters_token_trigger ON voters;
DROP FUNCTION voters_token_notify;
DROP TABLE voters;
DROP TABLE candidates;
DROP TABLE partylists;
DROP TABLE positions;
DROP TABLE elections;
`

func Migrator(action string, db database.Database) error {
	switch action {
	case "upSync":
		log.Infof("checking if DB is up to date")
		mTotal, mApplied, _, err := db.MigrateStatus()
		if err != nil {
			return fmt.Errorf("could not retrieve migrations status: (%v)", err)
		}
		if mTotal > mApplied {
			log.Infof("applying missing %d migrations to DB", mTotal-mApplied)
			n, err := db.MigrationUpSync()
			if err != nil {
				return fmt.Errorf("could not apply necessary migrations (%v)", err)
			}
			if n != mTotal-mApplied {
				return fmt.Errorf("could not apply all necessary migrations (%v)", err)
			}
		} else if mTotal < mApplied {
			return fmt.Errorf("something goes terribly wrong with the DB migrations")
		}
	case "up", "down":
		log.Info("applying migration")
		direction := migrate.Up
		if action == "down" {
			direction = migrate.Down
		}
		n, err := db.Migrate(direction)
		if err != nil {
			return fmt.Errorf("could not perform the %s migration: %v", action, err)
		}
		if n != 1 {
			return fmt.Errorf("could not perform the %s migration, expected 1 applied migration, got %d", action, n)
		}
	case "status":
		mTotal, mApplied, record, err := db.MigrateStatus()
		if err != nil {
			return fmt.Errorf("could not retrieve migrations status: (%v)", err)
		}
		log.Infof("total migrations %d, applied migrations %d (%s)", mTotal, mApplied, record)
	default:
		return fmt.Errorf("unknown migrate command, available: up, down, status, upSync")
	}
	return nil
}
