package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/escalate"
	"github.com/ninefold/fleet/internal/events"
	"github.com/ninefold/fleet/internal/scheduler"
	"github.com/ninefold/fleet/internal/store"
	"github.com/ninefold/fleet/internal/workspace"
)

// managedJob is the Manager's bookkeeping record for one live or
// completed Job: its Bus/Hub pair, the Scheduler driving it, and the
// cancellation func the outermost goroutine watches.
type managedJob struct {
	id     string
	bus    *events.Bus
	hub    *events.Hub
	sched  *scheduler.Scheduler
	cancel context.CancelFunc
}

// Manager is the Job Controller (§4.6): the single entry point that
// turns a Request into a running Job, hands back its ID immediately,
// and lets callers subscribe to or cancel it by ID. Everything it
// orchestrates — Workspace Manager, Agent Adapters, Process Supervisor,
// Job Scheduler — is already built by the time a Manager is
// constructed; this package only ever wires them together.
type Manager struct {
	cfg        *config.Config
	workspaces *workspace.Manager
	sem        *scheduler.Semaphore
	journal    *store.Store  // optional; nil disables audit journaling
	escalator  escalate.Escalator // optional; nil disables escalation

	mu   sync.RWMutex
	jobs map[string]*managedJob
}

// NewManager wires a Manager. journal and escalator may be nil: the
// Job Controller functions without an audit trail or a notification
// side channel, per §11's "optional" framing for both.
func NewManager(cfg *config.Config, workspaces *workspace.Manager, sem *scheduler.Semaphore, journal *store.Store, escalator escalate.Escalator) *Manager {
	return &Manager{
		cfg:        cfg,
		workspaces: workspaces,
		sem:        sem,
		journal:    journal,
		escalator:  escalator,
		jobs:       make(map[string]*managedJob),
	}
}

// Start validates req, allocates a Job ID, and launches the Job's
// orchestration goroutine in the background, returning the ID as soon
// as the Job is registered. It never blocks for the Job's outcome.
func (m *Manager) Start(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(req, m.cfg); err != nil {
		return "", err
	}

	jobID := ulid.Make().String()

	bus := events.NewBus(m.cfg.MaxParallelAgents * 4)
	hub := events.NewHub(jobID, bus)
	retry := scheduler.DefaultRetryConfig
	retry.MaxAttempts = m.cfg.MaxLaunchRetries
	sched := scheduler.NewScheduler(m.sem, bus, retry)

	if m.journal != nil {
		bus.Subscribe(m.journal.Handler(func(err error) {
			bus.Emit(events.New(jobID, events.JobKey, events.KindWarning, fmt.Sprintf("journal write failed: %v", err)))
		}))
	}

	jobCtx, cancel := context.WithCancel(ctx)
	mj := &managedJob{id: jobID, bus: bus, hub: hub, sched: sched, cancel: cancel}

	m.mu.Lock()
	m.jobs[jobID] = mj
	m.mu.Unlock()

	if m.journal != nil {
		if err := m.journal.RecordJobCreated(jobID, req.Objective, req.Source, time.Now()); err != nil {
			bus.Emit(events.New(jobID, events.JobKey, events.KindWarning, fmt.Sprintf("journal create failed: %v", err)))
		}
	}

	go m.run(jobCtx, mj, req)

	return jobID, nil
}

// Subscribe attaches a new observer to jobID's event stream (§4.5's
// exactly-one-subscriber-per-job contract is enforced by the caller
// choosing not to call Subscribe twice for the same logical client; the
// Hub itself allows any number of concurrent subscriptions). The
// returned cleanup func must be called once the caller is done
// reading.
func (m *Manager) Subscribe(jobID string) (<-chan events.Event, func(), error) {
	mj, ok := m.lookup(jobID)
	if !ok {
		return nil, nil, fmt.Errorf("job: unknown job %q", jobID)
	}
	ch, cleanup := mj.hub.Subscribe()
	return ch, cleanup, nil
}

// Cancel requests cancellation of jobID. Repeated calls on a live job
// are harmless; it returns an error for an ID the Manager does not
// hold, which includes a job whose run has already ended.
func (m *Manager) Cancel(jobID string) error {
	mj, ok := m.lookup(jobID)
	if !ok {
		return fmt.Errorf("job: unknown job %q", jobID)
	}
	mj.sched.Cancel()
	mj.cancel()
	return nil
}

// List returns the IDs of the jobs this Manager is currently running,
// in no particular order. A job is dropped once its run ends.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) lookup(jobID string) (*managedJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mj, ok := m.jobs[jobID]
	return mj, ok
}

func (m *Manager) forget(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
}
