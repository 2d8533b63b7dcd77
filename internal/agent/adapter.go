package agent

import (
	"fmt"

	"github.com/ninefold/fleet/internal/config"
)

// JobConfig is the subset of job-creation-time configuration an Adapter
// needs to plan a command: the objective text and engine-wide settings
// (commands, credentials) it must bind into the environment.
type JobConfig struct {
	Objective string
	Config    *config.Config
}

// Adapter translates a logical agent configuration into a concrete
// command vector and environment (none of the current adapters sets a
// stdin payload).
// It is the only component aware of any specific agent CLI's invocation
// details; everything else operates on the abstract Instance.
type Adapter interface {
	// Plan resolves inst.Argv, inst.Env, and (if applicable) inst.Stdin
	// in place. It never launches anything; the Process Supervisor
	// does that with whatever Plan produced.
	Plan(inst *Instance, job JobConfig) error

	// InferProgress applies the adapter's lightweight, best-effort
	// pattern-to-phase mapping (§4.3) to one line of output. It
	// returns ("", false) when the line carries no recognizable
	// progress signal.
	InferProgress(line string) (phase string, ok bool)
}

// ForKind returns the Adapter responsible for kind.
func ForKind(kind Kind) (Adapter, error) {
	switch kind {
	case KindClaude:
		return claudeAdapter{}, nil
	case KindGemini:
		return geminiAdapter{}, nil
	case KindCodex:
		return codexAdapter{}, nil
	case KindIntegrator:
		return integratorAdapter{base: claudeAdapter{}}, nil
	default:
		return nil, fmt.Errorf("agent: unknown kind %q", kind)
	}
}

// quoteSafe returns s unmodified: argv elements passed through
// exec.Cmd are never shell-interpreted, so no quoting is needed — the
// "quote-safe" requirement in §4.3 is satisfied by never routing the
// objective through a shell in the first place. The helper exists so
// that requirement is a named, auditable decision rather than an
// implicit assumption.
func quoteSafe(s string) string {
	return s
}
