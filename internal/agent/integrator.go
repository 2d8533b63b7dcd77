package agent

import (
	"fmt"
	"time"
)

// integratorAdapter reuses the command family of one of the primary
// kinds (configurable; Claude-kind by default) but plans against the
// integration workspace, with read-only references to the three
// primary workspaces and an augmented, integration-specific objective
// (§4.3).
type integratorAdapter struct {
	base Adapter
}

func (a integratorAdapter) Plan(inst *Instance, job JobConfig) error {
	if len(inst.ReadOnlyRefs) != 3 {
		return fmt.Errorf("agent: integrator requires exactly 3 read-only primary references, got %d", len(inst.ReadOnlyRefs))
	}

	if _, err := writeIntegrationPrompt(inst.WorkspacePath, job.Objective, time.Now()); err != nil {
		return err
	}

	augmented := job
	augmented.Objective = integrationObjective(job.Objective)

	if err := a.base.Plan(inst, augmented); err != nil {
		return fmt.Errorf("agent: integrator planning via base adapter: %w", err)
	}
	return nil
}

func integrationObjective(objective string) string {
	return objective + "\n\nThis is the integration pass: read ./primary-1, ./primary-2, and ./primary-3, " +
		"reconcile their independent results, and write final_report.md at the workspace root."
}

func (a integratorAdapter) InferProgress(line string) (string, bool) {
	return a.base.InferProgress(line)
}
