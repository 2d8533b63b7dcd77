// Package job implements the Job Controller (§4.6): the public entry
// point that accepts a job-start request, orchestrates the Workspace
// Manager, Agent Adapters, Process Supervisor, and Job Scheduler, and
// guarantees workspace teardown before the single terminal event is
// dispatched on every exit path, including a panic.
package job

import (
	"time"

	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/scheduler"
)

// Request is a job-start request (§6's subscription protocol,
// modeled in-process): the source tree, the objective, and a model
// identifier for each of the four agent slots.
type Request struct {
	// Source is either a remote repository URL or a local directory
	// path, as accepted by workspace.ParseSource.
	Source string
	// Objective is the free-text task description every agent
	// receives (the integrator's is augmented, see agent.integratorAdapter).
	Objective string
	// Models maps each agent slot to its model identifier. Any key
	// left unset falls back to the engine's configured default for
	// that slot.
	Models map[config.AgentKey]string
}

// AgentSummary is one agent's contribution to a Job's terminal
// summary block (§7's "per-agent summary block").
type AgentSummary struct {
	Key            config.AgentKey
	Kind           string
	Model          string
	State          string
	TerminalReason string
	StartedAt      *time.Time
	EndedAt        *time.Time
}

// Summary is the aggregate report carried by the terminal `complete`
// event's payload.
type Summary struct {
	JobID   string
	Outcome scheduler.JobOutcome
	Agents  []AgentSummary
}
