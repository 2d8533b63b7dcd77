package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ninefold/fleet/internal/agent"
	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/escalate"
	"github.com/ninefold/fleet/internal/events"
	"github.com/ninefold/fleet/internal/scheduler"
	"github.com/ninefold/fleet/internal/workspace"
)

// run drives mj from allocation through the two scheduler phases to
// the single terminal `complete` event, guaranteeing every workspace
// it allocated is released before that event is emitted on any exit
// path — including a panic recovered here, which is reported as a
// failed outcome rather than crashing the Manager's process.
func (m *Manager) run(ctx context.Context, mj *managedJob, req Request) {
	defer m.forget(mj.id)

	var paths []string
	summary := Summary{JobID: mj.id, Outcome: scheduler.JobFailed}

	// A single defer, in this order: recover, release every allocated
	// workspace, then finish (which emits the terminal complete event).
	// Splitting release and finish into separate defers would run them
	// LIFO — finish first, release second — and dispatch complete while
	// a workspace directory still exists on disk (§4.6 invariant a).
	defer func() {
		if r := recover(); r != nil {
			summary.Outcome = scheduler.JobFailed
			mj.bus.Emit(events.New(mj.id, events.JobKey, events.KindError, fmt.Sprintf("job panicked: %v", r)))
		}
		for _, p := range paths {
			if err := m.workspaces.Release(p); err != nil {
				mj.bus.Emit(events.New(mj.id, events.JobKey, events.KindWarning, fmt.Sprintf("releasing workspace %s: %v", p, err)))
			}
		}
		m.finish(mj, summary)
	}()

	instances, allocated, err := m.allocate(ctx, mj, req)
	paths = allocated
	if err != nil {
		summary.Outcome = scheduler.JobFailed
		mj.bus.Emit(events.New(mj.id, events.JobKey, events.KindError, fmt.Sprintf("allocating workspaces: %v", err)))
		return
	}

	if m.journal != nil {
		_ = m.journal.RecordJobPhase(mj.id, "running", time.Now())
	}

	plan := scheduler.JobPlan{
		JobID:     mj.id,
		Objective: req.Objective,
		Config:    m.cfg,
		Instances: instances,
	}
	result := mj.sched.Run(ctx, plan)

	summary = buildSummary(mj.id, result)

	if m.journal != nil {
		for key, inst := range instances {
			_ = m.journal.RecordAgent(mj.id, key, inst)
		}
	}

	m.escalateIfNeeded(ctx, mj.id, summary)
}

// allocate materializes the four per-agent workspaces for req and
// builds their agent.Instances. It returns every workspace path it
// successfully created, even when a later allocation in the loop
// fails, so the caller's teardown defer still releases what exists.
func (m *Manager) allocate(ctx context.Context, mj *managedJob, req Request) (map[config.AgentKey]*agent.Instance, []string, error) {
	source := workspace.ParseSource(req.Source)
	instances := make(map[config.AgentKey]*agent.Instance, 4)
	var paths []string

	keys := append(append([]config.AgentKey{}, config.PrimaryKeys...), config.Integrator)
	for _, key := range keys {
		model := resolveModel(req, m.cfg, key)
		inst := agent.NewInstance(mj.id, key, agent.KindForKey(key), model)

		path, err := m.workspaces.Allocate(ctx, mj.id, key, source)
		if err != nil {
			return instances, paths, fmt.Errorf("workspace for %s: %w", key, err)
		}
		paths = append(paths, path)
		inst.WorkspacePath = path
		instances[key] = inst
	}
	return instances, paths, nil
}

// finish closes out mj: it emits the single terminal `complete` event
// carrying summary, journals the job's terminal row if a journal is
// configured, and tears down the Bus/Hub so late calls are no-ops.
func (m *Manager) finish(mj *managedJob, summary Summary) {
	if m.journal != nil {
		if err := m.journal.RecordJobTerminal(mj.id, string(summary.Outcome), time.Now(), nil); err != nil {
			mj.bus.Emit(events.New(mj.id, events.JobKey, events.KindWarning, fmt.Sprintf("journal terminal write failed: %v", err)))
		}
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"job_id":%q,"outcome":%q}`, summary.JobID, summary.Outcome))
	}
	mj.bus.Emit(events.NewJobEvent(mj.id, events.KindComplete, string(payload)))

	mj.cancel()
	_ = mj.bus.Close()
}

// escalateIfNeeded raises a job-level Escalation when outcome is worse
// than a bare success, matching §11's "only the Job's composed
// classification escalates" framing; a nil escalator disables this.
func (m *Manager) escalateIfNeeded(ctx context.Context, jobID string, summary Summary) {
	if m.escalator == nil || summary.Outcome == scheduler.JobSucceeded {
		return
	}

	severity := escalate.SeverityWarning
	switch summary.Outcome {
	case scheduler.JobFailed, scheduler.JobTimeout:
		severity = escalate.SeverityCritical
	case scheduler.JobCancelled:
		severity = escalate.SeverityInfo
	}

	failedAgents := make(map[string]string, len(summary.Agents))
	for _, a := range summary.Agents {
		if a.State != "succeeded" {
			failedAgents[string(a.Key)] = a.State
		}
	}

	_ = m.escalator.Escalate(ctx, escalate.Escalation{
		Severity: severity,
		JobID:    jobID,
		Title:    fmt.Sprintf("job %s finished %s", jobID, summary.Outcome),
		Message:  fmt.Sprintf("job %s completed with outcome %s", jobID, summary.Outcome),
		Context:  failedAgents,
	})
}

// buildSummary assembles a Job's terminal Summary from its
// scheduler.JobResult.
func buildSummary(jobID string, result scheduler.JobResult) Summary {
	agents := make([]AgentSummary, 0, len(result.Primaries)+1)
	for _, inst := range result.Primaries {
		agents = append(agents, summarize(inst))
	}
	if result.Integrator != nil {
		agents = append(agents, summarize(result.Integrator))
	}
	return Summary{JobID: jobID, Outcome: result.Outcome, Agents: agents}
}

func summarize(inst *agent.Instance) AgentSummary {
	return AgentSummary{
		Key:            inst.Key,
		Kind:           string(inst.Kind),
		Model:          inst.Model,
		State:          string(inst.State),
		TerminalReason: inst.TerminalReason,
		StartedAt:      inst.StartedAt,
		EndedAt:        inst.EndedAt,
	}
}
