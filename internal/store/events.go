package store

import (
	"fmt"
	"time"

	"github.com/ninefold/fleet/internal/events"
)

// EventRecord is one journaled ProgressEvent read back from storage.
type EventRecord struct {
	ID        int64
	JobID     string
	Sequence  int
	AgentKey  string
	Kind      string
	Payload   string
	CreatedAt time.Time
}

// AppendEvent records e with an auto-assigned per-job sequence number,
// computed inside the same transaction as the insert to avoid a race
// between two events for the same job.
func (s *Store) AppendEvent(e events.Event) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: beginning event transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var nextSeq int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(sequence), 0) + 1 FROM events WHERE job_id = ?`, e.JobID).Scan(&nextSeq); err != nil {
		return fmt.Errorf("store: computing next sequence for job %s: %w", e.JobID, err)
	}

	_, err = tx.Exec(
		`INSERT INTO events (job_id, sequence, agent_key, kind, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.JobID, nextSeq, e.AgentKey, string(e.Kind), e.Payload, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store: inserting event for job %s: %w", e.JobID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: committing event for job %s: %w", e.JobID, err)
	}
	return nil
}

// Handler returns an events.Handler that journals every event onto s,
// suitable for subscribing directly to a job's Bus alongside the
// in-process Event Hub. Journal write failures are swallowed (the
// journal is an audit convenience, not the system of record for a
// live job) other than being reported through onError, if non-nil.
func (s *Store) Handler(onError func(error)) events.Handler {
	return func(e events.Event) {
		if err := s.AppendEvent(e); err != nil && onError != nil {
			onError(err)
		}
	}
}

// ListEvents returns every event recorded for jobID in sequence order.
func (s *Store) ListEvents(jobID string) ([]EventRecord, error) {
	return s.listEvents(`SELECT id, job_id, sequence, agent_key, kind, payload, created_at FROM events WHERE job_id = ? ORDER BY sequence`, jobID)
}

// ListEventsSince returns every event recorded for jobID with a
// sequence number greater than since, for incremental replay.
func (s *Store) ListEventsSince(jobID string, since int) ([]EventRecord, error) {
	return s.listEvents(`SELECT id, job_id, sequence, agent_key, kind, payload, created_at FROM events WHERE job_id = ? AND sequence > ? ORDER BY sequence`, jobID, since)
}

func (s *Store) listEvents(query string, args ...any) ([]EventRecord, error) {
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.Sequence, &rec.AgentKey, &rec.Kind, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scanning event: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating events: %w", err)
	}
	return out, nil
}
