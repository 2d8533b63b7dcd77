package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ninefold/fleet/internal/agent"
	"github.com/ninefold/fleet/internal/config"
)

// RecordJobCreated inserts a row for a newly created job.
func (s *Store) RecordJobCreated(jobID, objective, source string, createdAt time.Time) error {
	_, err := s.conn.Exec(
		`INSERT INTO jobs (id, objective, source, status, created_at) VALUES (?, ?, ?, 'creating', ?)`,
		jobID, objective, source, createdAt,
	)
	if err != nil {
		return fmt.Errorf("store: recording job %s created: %w", jobID, err)
	}
	return nil
}

// RecordJobPhase updates a job's status column to reflect a lifecycle
// transition (creating/running/integrating), stamping started_at the
// first time it leaves creating.
func (s *Store) RecordJobPhase(jobID, status string, at time.Time) error {
	_, err := s.conn.Exec(
		`UPDATE jobs SET status = ?, started_at = COALESCE(started_at, ?) WHERE id = ?`,
		status, at, jobID,
	)
	if err != nil {
		return fmt.Errorf("store: recording job %s phase %s: %w", jobID, status, err)
	}
	return nil
}

// RecordJobTerminal stamps a job's final outcome and end time.
func (s *Store) RecordJobTerminal(jobID, outcome string, at time.Time, jobErr error) error {
	var errText sql.NullString
	if jobErr != nil {
		errText = sql.NullString{String: jobErr.Error(), Valid: true}
	}
	_, err := s.conn.Exec(
		`UPDATE jobs SET status = 'terminal', outcome = ?, ended_at = ?, error = ? WHERE id = ?`,
		outcome, at, errText, jobID,
	)
	if err != nil {
		return fmt.Errorf("store: recording job %s terminal: %w", jobID, err)
	}
	return nil
}

// RecordAgent upserts the current snapshot of one AgentInstance. The
// Job Controller calls it once per agent after the scheduler run ends,
// not on every ProgressEvent.
func (s *Store) RecordAgent(jobID string, key config.AgentKey, inst *agent.Instance) error {
	_, err := s.conn.Exec(`
		INSERT INTO agents (job_id, agent_key, kind, model, state, started_at, ended_at, terminal_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id, agent_key) DO UPDATE SET
			state = excluded.state,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			terminal_reason = excluded.terminal_reason
	`, jobID, string(key), string(inst.Kind), inst.Model, string(inst.State), inst.StartedAt, inst.EndedAt, inst.TerminalReason)
	if err != nil {
		return fmt.Errorf("store: recording agent %s/%s: %w", jobID, key, err)
	}
	return nil
}

// JobRecord is a job row read back from the journal.
type JobRecord struct {
	ID        string
	Objective string
	Source    string
	Status    string
	Outcome   sql.NullString
	CreatedAt time.Time
	StartedAt sql.NullTime
	EndedAt   sql.NullTime
	Error     sql.NullString
}

// GetJob reads back one job's row.
func (s *Store) GetJob(jobID string) (*JobRecord, error) {
	row := s.conn.QueryRow(
		`SELECT id, objective, source, status, outcome, created_at, started_at, ended_at, error FROM jobs WHERE id = ?`,
		jobID,
	)
	var rec JobRecord
	if err := row.Scan(&rec.ID, &rec.Objective, &rec.Source, &rec.Status, &rec.Outcome, &rec.CreatedAt, &rec.StartedAt, &rec.EndedAt, &rec.Error); err != nil {
		return nil, fmt.Errorf("store: reading job %s: %w", jobID, err)
	}
	return &rec, nil
}
