// Package scheduler implements the Job Scheduler (§4.4): the two-phase
// fan-out/fan-in orchestration of one Job's four AgentInstances, the
// process-wide concurrency cap, launch-time retry, cancellation
// fan-out, and the failure-composition rule that derives a Job's
// terminal classification from its agents'.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ninefold/fleet/internal/agent"
	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/events"
	"github.com/ninefold/fleet/internal/workspace"
)

// JobPlan is everything the Scheduler needs to run one Job's two
// phases. Instance creation and workspace allocation happen before
// Run is called — the Scheduler only ever drives already-materialized
// instances to completion, per the Job Controller's ownership of
// lifecycle orchestration (§4.6).
type JobPlan struct {
	JobID     string
	Objective string
	Config    *config.Config
	Instances map[config.AgentKey]*agent.Instance
}

// JobResult is the outcome of running a Job's two phases to
// completion: the composed classification plus every agent's final
// Instance for the Job Controller's summary block.
type JobResult struct {
	Outcome    JobOutcome
	Primaries  []*agent.Instance
	Integrator *agent.Instance
}

// Scheduler runs the two-phase fan-out/fan-in plan for one Job: Phase
// A launches the three primaries concurrently and waits for all to
// reach a terminal state without one's failure cancelling its
// siblings (§4.4's explicit non-goal of cross-agent cancellation on
// individual failure); Phase B then runs the integrator against their
// workspaces. A job-level Cancel fans out to every agent's own handle,
// live or not yet launched.
type Scheduler struct {
	dispatcher *Dispatcher
	bus        *events.Bus

	mu      sync.Mutex
	handles map[config.AgentKey]*CancelHandle

	warned    atomic.Bool
	cancelled atomic.Bool
}

// NewScheduler creates a Scheduler sharing sem (the process-wide
// concurrency cap) and bus (the job's Event Hub bus) with its
// Dispatcher, and begins tracking whether any warning event is ever
// emitted on bus for the all-succeeded-but-warned classification.
func NewScheduler(sem *Semaphore, bus *events.Bus, retry RetryConfig) *Scheduler {
	s := &Scheduler{
		dispatcher: NewDispatcher(sem, bus, retry),
		bus:        bus,
		handles:    make(map[config.AgentKey]*CancelHandle),
	}
	bus.Subscribe(func(e events.Event) {
		if e.Kind == events.KindWarning {
			s.warned.Store(true)
		}
	})
	return s
}

// Cancel fans cancellation out to every agent registered so far in
// this Job, whether currently running or still waiting to launch
// (§4.4, §5).
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled.Store(true)
	for _, h := range s.handles {
		h.Cancel()
	}
}

// handleFor returns the CancelHandle for key, creating it on first use.
// A handle created after Cancel has already fired (e.g. the
// integrator's, which phase B doesn't register until phase A's barrier
// passes) is born pre-cancelled, so a job-level cancel issued during
// phase A still keeps phase B from ever launching the integrator —
// without this, RunAgent would only notice the cancellation via a race
// between ctx.Done() and the semaphore acquiring a free slot.
func (s *Scheduler) handleFor(key config.AgentKey) *CancelHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[key]
	if !ok {
		h = NewCancelHandle()
		if s.cancelled.Load() {
			h.Cancel()
		}
		s.handles[key] = h
	}
	return h
}

// Run executes Phase A then Phase B against plan, returning the
// composed JobResult. It blocks until the integrator has reached a
// terminal state (or was never able to start).
func (s *Scheduler) Run(ctx context.Context, plan JobPlan) JobResult {
	s.bus.Emit(events.NewJobEvent(plan.JobID, events.KindPhase, "running"))

	primaryResults := s.runPhaseA(ctx, plan)

	s.bus.Emit(events.NewJobEvent(plan.JobID, events.KindPhase, "integrating"))

	integratorResult := s.runPhaseB(ctx, plan, primaryResults)

	outcome := ComposeOutcome(primaryResults, integratorResult, s.warned.Load())

	primaries := make([]*agent.Instance, len(primaryResults))
	for i, r := range primaryResults {
		primaries[i] = r.Instance
	}

	return JobResult{Outcome: outcome, Primaries: primaries, Integrator: integratorResult.Instance}
}

// runPhaseA launches the three primaries concurrently and waits for
// every one to reach a terminal state. A primary's own failure never
// reaches across to cancel a sibling still running: each gets its own
// CancelHandle, and only an explicit Scheduler.Cancel (a job-level
// cancellation, e.g. the client disconnecting or the engine shutting
// down) fans out to all three at once.
func (s *Scheduler) runPhaseA(ctx context.Context, plan JobPlan) []agentResult {
	jobCfg := agent.JobConfig{Objective: plan.Objective, Config: plan.Config}

	results := make([]agentResult, len(config.PrimaryKeys))

	// A bare errgroup.Group, not errgroup.WithContext: each goroutine
	// keeps running against plan's own ctx rather than a group-derived
	// one, so one primary's failure never cancels its siblings. RunAgent
	// never returns an error (every outcome, including a failure, is
	// folded into its agentResult), so g.Wait() here is purely the
	// fan-out barrier, not an error aggregator.
	var g errgroup.Group
	for i, key := range config.PrimaryKeys {
		i, key := i, key
		inst := plan.Instances[key]
		handle := s.handleFor(key)

		g.Go(func() error {
			results[i] = s.dispatcher.RunAgent(ctx, inst, jobCfg, plan.Config, handle)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runPhaseB exposes each primary's workspace read-only, links it into
// the integrator's workspace under its fixed relative name, and runs
// the integrator. A primary without a workspace path is left out of
// the link set, but the integrator adapter's Plan then rejects the
// incomplete set and the integrator fails before launch. The Job
// Controller does not reach this phase when any workspace allocation
// fails: it ends the whole job as failed instead.
func (s *Scheduler) runPhaseB(ctx context.Context, plan JobPlan, primaries []agentResult) agentResult {
	integrator := plan.Instances[config.Integrator]
	handle := s.handleFor(config.Integrator)

	integrator.ReadOnlyRefs = make(map[string]string, len(config.PrimaryKeys))
	for _, key := range config.PrimaryKeys {
		inst := plan.Instances[key]
		if inst == nil || inst.WorkspacePath == "" {
			continue
		}
		if err := workspace.ExposeReadOnly(inst.WorkspacePath); err != nil {
			s.bus.Emit(events.New(plan.JobID, string(config.Integrator), events.KindWarning,
				fmt.Sprintf("marking %s read-only: %v", key, err)))
		}
		integrator.ReadOnlyRefs[string(key)] = inst.WorkspacePath
	}

	if integrator.WorkspacePath != "" {
		if err := linkPrimaryRefs(integrator.WorkspacePath, integrator.ReadOnlyRefs); err != nil {
			s.bus.Emit(events.New(plan.JobID, string(config.Integrator), events.KindWarning,
				fmt.Sprintf("linking primary workspaces: %v", err)))
		}
	}

	jobCfg := agent.JobConfig{Objective: plan.Objective, Config: plan.Config}
	return s.dispatcher.RunAgent(ctx, integrator, jobCfg, plan.Config, handle)
}

// linkPrimaryRefs symlinks each entry of refs (relative name -> absolute
// workspace path) into integratorWorkspace, matching the fixed
// "./primary-1" etc. paths named in INTEGRATION.md's frontmatter.
func linkPrimaryRefs(integratorWorkspace string, refs map[string]string) error {
	for name, target := range refs {
		link := filepath.Join(integratorWorkspace, name)
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale %s: %w", name, err)
		}
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("linking %s: %w", name, err)
		}
	}
	return nil
}
