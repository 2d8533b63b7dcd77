package store

import (
	"testing"
	"time"

	"github.com/ninefold/fleet/internal/agent"
	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/events"
)

func TestOpen_WALAndForeignKeysEnabled(t *testing.T) {
	path := t.TempDir() + "/journal.db"
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	var journalMode string
	if err := s.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("querying journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected WAL mode, got %s", journalMode)
	}

	var fk int
	if err := s.conn.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("querying foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign keys enabled, got %d", fk)
	}
}

func TestOpen_MigratesExpectedTables(t *testing.T) {
	s, err := Open(t.TempDir() + "/journal.db")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"jobs", "agents", "events"} {
		var name string
		err := s.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		}
	}
}

func TestJobLifecycleRecordedAndReadBack(t *testing.T) {
	s, err := Open(t.TempDir() + "/journal.db")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	now := time.Now()
	if err := s.RecordJobCreated("job-1", "build the thing", "https://example.com/repo.git", now); err != nil {
		t.Fatalf("RecordJobCreated: %v", err)
	}
	if err := s.RecordJobPhase("job-1", "running", now); err != nil {
		t.Fatalf("RecordJobPhase: %v", err)
	}
	if err := s.RecordJobTerminal("job-1", "succeeded", now.Add(time.Minute), nil); err != nil {
		t.Fatalf("RecordJobTerminal: %v", err)
	}

	rec, err := s.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if rec.Status != "terminal" {
		t.Errorf("expected status terminal, got %s", rec.Status)
	}
	if !rec.Outcome.Valid || rec.Outcome.String != "succeeded" {
		t.Errorf("expected outcome succeeded, got %+v", rec.Outcome)
	}
}

func TestAppendEvent_AssignsMonotonicSequencePerJob(t *testing.T) {
	s, err := Open(t.TempDir() + "/journal.db")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.RecordJobCreated("job-1", "obj", "src", time.Now()); err != nil {
		t.Fatalf("RecordJobCreated: %v", err)
	}

	for i := 0; i < 3; i++ {
		e := events.New("job-1", "primary-1", events.KindStdout, "line")
		if err := s.AppendEvent(e); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}

	recs, err := s.ListEvents("job-1")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(recs))
	}
	for i, rec := range recs {
		if rec.Sequence != i+1 {
			t.Errorf("event %d: expected sequence %d, got %d", i, i+1, rec.Sequence)
		}
	}

	since, err := s.ListEventsSince("job-1", 1)
	if err != nil {
		t.Fatalf("ListEventsSince: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("expected 2 events since sequence 1, got %d", len(since))
	}
}

func TestRecordAgent_UpsertsOnConflict(t *testing.T) {
	s, err := Open(t.TempDir() + "/journal.db")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.RecordJobCreated("job-1", "obj", "src", time.Now()); err != nil {
		t.Fatalf("RecordJobCreated: %v", err)
	}

	inst := agent.NewInstance("job-1", config.Primary1, agent.KindClaude, "model-a")
	if err := s.RecordAgent("job-1", config.Primary1, inst); err != nil {
		t.Fatalf("RecordAgent (insert): %v", err)
	}

	inst.Transition(agent.StateStarting)
	inst.Transition(agent.StateRunning)
	inst.Transition(agent.StateSucceeded)
	if err := s.RecordAgent("job-1", config.Primary1, inst); err != nil {
		t.Fatalf("RecordAgent (update): %v", err)
	}

	var state string
	err = s.conn.QueryRow("SELECT state FROM agents WHERE job_id = ? AND agent_key = ?", "job-1", string(config.Primary1)).Scan(&state)
	if err != nil {
		t.Fatalf("querying agent state: %v", err)
	}
	if state != string(agent.StateSucceeded) {
		t.Errorf("expected state %s, got %s", agent.StateSucceeded, state)
	}
}
