package scheduler

import "github.com/ninefold/fleet/internal/agent"

// JobOutcome is the Job-level terminal classification (§4.4), a wider
// scale than agent.State: it adds two ranks — warnings-only and
// partial-failure — that have no per-agent analog and only ever arise
// from composing several agents' results together.
type JobOutcome string

const (
	JobSucceeded      JobOutcome = "succeeded"
	JobWarningsOnly   JobOutcome = "warnings-only"
	JobPartialFailure JobOutcome = "partial-failure"
	JobFailed         JobOutcome = "failed"
	JobTimeout        JobOutcome = "timeout"
	JobCancelled      JobOutcome = "cancelled"
)

// jobOutcomeSeverity fixes the total order named in §4.4:
// succeeded < warnings-only < partial-failure < failed < timeout < cancelled.
var jobOutcomeSeverity = map[JobOutcome]int{
	JobSucceeded:      0,
	JobWarningsOnly:   1,
	JobPartialFailure: 2,
	JobFailed:         3,
	JobTimeout:        4,
	JobCancelled:      5,
}

// Severity returns o's rank in the total order, resolving §9's open
// question of whether Job-level severity propagates as a number in
// the affirmative, consistently with agent.State.Severity.
func (o JobOutcome) Severity() int {
	return jobOutcomeSeverity[o]
}

// agentOutcome maps one agent's terminal state onto the wider
// Job-level scale; an agent's own outcome is never warnings-only or
// partial-failure, only the composition across several agents is.
func agentOutcome(s agent.State) JobOutcome {
	switch s {
	case agent.StateSucceeded:
		return JobSucceeded
	case agent.StateTimeout:
		return JobTimeout
	case agent.StateCancelled:
		return JobCancelled
	default:
		return JobFailed
	}
}

// ComposeOutcome applies the §4.4 failure-composition rule: the worst
// of every agent's terminal classification, except that an integrator
// which itself succeeds after one or more primaries did not downgrades
// the Job to partial-failure rather than inheriting the primaries'
// worse classification. hadWarnings folds in any warning event
// observed on the job's Bus (a retried launch, a truncated output
// line) when every agent otherwise succeeded.
func ComposeOutcome(primaries []agentResult, integrator agentResult, hadWarnings bool) JobOutcome {
	allPrimariesSucceeded := true
	for _, r := range primaries {
		if r.Instance.State != agent.StateSucceeded {
			allPrimariesSucceeded = false
			break
		}
	}

	integratorSucceeded := integrator.Instance.State == agent.StateSucceeded

	if allPrimariesSucceeded && integratorSucceeded {
		if hadWarnings {
			return JobWarningsOnly
		}
		return JobSucceeded
	}

	if integratorSucceeded {
		// One or more primaries did not succeed, but the integrator
		// still produced a result from whatever it had: a partial
		// outcome, not an outright failure.
		return JobPartialFailure
	}

	worst := agentOutcome(integrator.Instance.State)
	for _, r := range primaries {
		if o := agentOutcome(r.Instance.State); o.Severity() > worst.Severity() {
			worst = o
		}
	}
	return worst
}
