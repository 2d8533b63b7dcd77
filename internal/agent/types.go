// Package agent implements the Agent Adapter component (§4.3): it
// binds a logical agent configuration to a concrete command vector,
// environment, and output-interpretation rules, and is the only part
// of the engine aware of any specific agent CLI's invocation details.
package agent

import (
	"time"

	"github.com/ninefold/fleet/internal/config"
)

// Kind is the logical family an AgentInstance belongs to.
type Kind string

const (
	KindClaude     Kind = "claude"
	KindGemini     Kind = "gemini"
	KindCodex      Kind = "codex"
	KindIntegrator Kind = "integrator"
)

// KindForKey gives the fixed Kind assignment for each primary
// AgentKey (§4.3): primary-1 is always Claude-kind, primary-2
// Gemini-kind, primary-3 Codex-kind. config.Integrator always maps to
// KindIntegrator.
func KindForKey(key config.AgentKey) Kind {
	switch key {
	case config.Primary1:
		return KindClaude
	case config.Primary2:
		return KindGemini
	case config.Primary3:
		return KindCodex
	case config.Integrator:
		return KindIntegrator
	default:
		return ""
	}
}

// Instance is one AgentInstance: identity (JobID, Key), its kind, model
// selection, workspace, resolved command, and current lifecycle state.
// The Scheduler creates one Instance per AgentKey at phase start and it
// is destroyed with its Job.
type Instance struct {
	JobID string
	Key   config.AgentKey
	Kind  Kind
	Model string

	WorkspacePath string
	// ReadOnlyRefs maps a relative path exposed inside the workspace
	// (e.g. "primary-1") to the absolute path of another agent's
	// workspace, used only by the integrator (§4.3, §5).
	ReadOnlyRefs map[string]string

	Argv []string
	Env  []string
	// Stdin, if non-nil, is written to the child's stdin before the
	// command starts reading; most adapters leave this nil and pass
	// the objective as a positional argument instead.
	Stdin []byte

	State     State
	StartedAt *time.Time
	EndedAt   *time.Time
	// TerminalReason carries extra context for a non-succeeded
	// terminal state (e.g. the classifying error), beyond the State
	// itself.
	TerminalReason string
}

// NewInstance builds a pending Instance for key.
func NewInstance(jobID string, key config.AgentKey, kind Kind, model string) *Instance {
	return &Instance{
		JobID: jobID,
		Key:   key,
		Kind:  kind,
		Model: model,
		State: StatePending,
	}
}

// Transition moves the instance to state to, recording start/end
// timestamps at the natural points. It returns false (and leaves the
// instance unchanged) if the move is not a legal forward transition.
func (i *Instance) Transition(to State) bool {
	if !CanTransition(i.State, to) {
		return false
	}
	now := time.Now()
	if to == StateRunning && i.StartedAt == nil {
		i.StartedAt = &now
	}
	if to.IsTerminal() {
		i.EndedAt = &now
	}
	i.State = to
	return true
}

// Request is the job-creation-time configuration for a single agent
// slot: the model identifier and any per-agent overrides (§6's
// agent_models and config fields).
type Request struct {
	Model            string
	TimeoutOverride  time.Duration
	Flags            map[string]string
}
