// Package store implements a queryable SQLite-backed audit journal for
// job and event history (§11): every job's lifecycle transitions and
// every ProgressEvent emitted onto its bus can be appended here for
// later inspection. This is explicitly NOT the durable cross-restart
// job persistence the engine's Non-goals exclude — nothing here
// resumes a job after a crash, and the journal can be deleted at any
// time without affecting a running job, which lives entirely in
// memory for its own duration.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection with the journal's operations.
type Store struct {
	conn *sql.DB
}

// Open creates or opens a SQLite database at path, enabling WAL mode
// and foreign keys, and runs migrations.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: enabling WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: enabling foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrating: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id          TEXT PRIMARY KEY,
    objective   TEXT NOT NULL,
    source      TEXT NOT NULL,
    status      TEXT NOT NULL,
    outcome     TEXT,
    created_at  DATETIME NOT NULL,
    started_at  DATETIME,
    ended_at    DATETIME,
    error       TEXT
);

CREATE TABLE IF NOT EXISTS agents (
    job_id          TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    agent_key       TEXT NOT NULL,
    kind            TEXT NOT NULL,
    model           TEXT NOT NULL,
    state           TEXT NOT NULL,
    started_at      DATETIME,
    ended_at        DATETIME,
    terminal_reason TEXT,
    PRIMARY KEY (job_id, agent_key)
);

CREATE TABLE IF NOT EXISTS events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id      TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    sequence    INTEGER NOT NULL,
    agent_key   TEXT NOT NULL,
    kind        TEXT NOT NULL,
    payload     TEXT NOT NULL,
    created_at  DATETIME NOT NULL,
    UNIQUE(job_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_agents_job_id ON agents(job_id);
CREATE INDEX IF NOT EXISTS idx_events_job_id ON events(job_id);
CREATE INDEX IF NOT EXISTS idx_events_sequence ON events(job_id, sequence);
`

func (s *Store) migrate() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}
