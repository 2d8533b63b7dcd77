package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ninefold/fleet/internal/agent"
	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/events"
	"github.com/ninefold/fleet/internal/supervisor"
)

// supervisorRunner is the subset of *supervisor.Supervisor the
// dispatcher depends on, narrowed so tests can substitute a stub that
// never shells out to a real agent CLI.
type supervisorRunner interface {
	Run(ctx context.Context, emit supervisor.EmitFunc) (supervisor.Result, error)
	Cancel()
}

// newSupervisor is overridable in tests; it defaults to wrapping the
// real Process Supervisor.
var newSupervisor = func(cfg supervisor.Config) supervisorRunner {
	return supervisor.New(cfg)
}

// Dispatcher launches and supervises AgentInstances one at a time per
// call to RunAgent, behind the single process-wide Semaphore, applying
// the launch-time retry policy from §4.4. Phase A calls RunAgent
// concurrently for the three primaries; Phase B calls it once more for
// the integrator once the barrier has passed.
type Dispatcher struct {
	sem   *Semaphore
	bus   *events.Bus
	retry RetryConfig
}

// NewDispatcher creates a Dispatcher sharing sem (the process-wide
// concurrency cap) and bus (the job's Event Hub bus) across every
// agent it runs.
func NewDispatcher(sem *Semaphore, bus *events.Bus, retry RetryConfig) *Dispatcher {
	return &Dispatcher{sem: sem, bus: bus, retry: retry}
}

// agentResult is what RunAgent reports back to its caller once the
// instance has reached a terminal state.
type agentResult struct {
	Instance *agent.Instance
	Result   supervisor.Result
}

// RunAgent plans, launches (with retry-on-transient-launch-failure and
// semaphore-bounded admission), and supervises inst to completion,
// emitting every ProgressEvent onto the Dispatcher's bus along the way
// and honoring handle's cancellation at every wait point (§4.2, §4.4,
// §5). It never returns an error: every outcome, including a launch
// that never got off the ground, is reported as a terminal agent.State
// inside the returned agentResult.
func (d *Dispatcher) RunAgent(ctx context.Context, inst *agent.Instance, jobCfg agent.JobConfig, engineCfg *config.Config, handle *CancelHandle) agentResult {
	adapter, err := agent.ForKind(inst.Kind)
	if err != nil {
		return d.failBeforeLaunch(inst, fmt.Errorf("scheduler: resolving adapter: %w", err))
	}
	if err := adapter.Plan(inst, jobCfg); err != nil {
		return d.failBeforeLaunch(inst, fmt.Errorf("scheduler: planning %s: %w", inst.Key, err))
	}

	if !inst.Transition(agent.StateStarting) {
		return d.failBeforeLaunch(inst, fmt.Errorf("scheduler: %s cannot start from %s", inst.Key, inst.State))
	}

	if cancelled(handle) {
		return d.cancelBeforeLaunch(inst)
	}

	backoff := d.retry.InitialBackoff
	var result supervisor.Result
	var launchErr error

	for attempt := 1; attempt <= d.retry.MaxAttempts; attempt++ {
		if err := d.sem.Acquire(ctx); err != nil {
			return d.failBeforeLaunch(inst, fmt.Errorf("scheduler: acquiring concurrency slot: %w", err))
		}

		result, launchErr = d.runOnce(ctx, inst, engineCfg, handle)
		d.sem.Release()

		if launchErr == nil {
			break
		}
		if !isTransientLaunchError(launchErr) || attempt == d.retry.MaxAttempts {
			break
		}

		d.bus.Emit(events.New(inst.JobID, string(inst.Key), events.KindWarning,
			fmt.Sprintf("launch attempt %d/%d failed transiently, retrying: %v", attempt, d.retry.MaxAttempts, launchErr)))

		if !sleepOrCancelled(ctx, handle, backoff) {
			return d.cancelBeforeLaunch(inst)
		}
		backoff = d.retry.nextBackoff(backoff)
	}

	if launchErr != nil {
		inst.Transition(agent.StateFailed)
		inst.TerminalReason = launchErr.Error()
		d.emitTerminal(inst)
		return agentResult{Instance: inst, Result: result}
	}

	inst.TerminalReason = terminalReasonOf(result)
	d.emitTerminal(inst)
	return agentResult{Instance: inst, Result: result}
}

// runOnce performs a single launch-and-supervise attempt, transitioning
// the instance through running/terminating and feeding every emitted
// line onto the bus as a scoped ProgressEvent.
func (d *Dispatcher) runOnce(ctx context.Context, inst *agent.Instance, cfg *config.Config, handle *CancelHandle) (supervisor.Result, error) {
	sup := newSupervisor(supervisor.Config{
		Argv:        inst.Argv,
		Env:         inst.Env,
		Dir:         inst.WorkspacePath,
		Stdin:       inst.Stdin,
		Timeout:     cfg.AgentTimeout,
		GracePeriod: cfg.GracefulTerminationGrace,
	})

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-handle.Done():
			sup.Cancel()
		case <-watchDone:
		}
	}()

	inst.Transition(agent.StateRunning)

	emit := func(kind, payload string) {
		d.bus.Emit(events.New(inst.JobID, string(inst.Key), events.Kind(kind), payload))
	}

	result, err := sup.Run(ctx, emit)
	if err != nil {
		return result, err
	}

	inst.Transition(agent.StateTerminating)
	inst.Transition(result.State)
	return result, nil
}

func cancelled(handle *CancelHandle) bool {
	select {
	case <-handle.Done():
		return true
	default:
		return false
	}
}

func (d *Dispatcher) failBeforeLaunch(inst *agent.Instance, err error) agentResult {
	inst.Transition(agent.StateFailed)
	inst.TerminalReason = err.Error()
	d.emitTerminal(inst)
	return agentResult{Instance: inst, Result: supervisor.Result{State: agent.StateFailed, ExitCode: -1, Err: err}}
}

func (d *Dispatcher) cancelBeforeLaunch(inst *agent.Instance) agentResult {
	inst.Transition(agent.StateCancelled)
	inst.TerminalReason = "cancelled before launch"
	d.emitTerminal(inst)
	return agentResult{Instance: inst, Result: supervisor.Result{State: agent.StateCancelled, ExitCode: -1}}
}

func (d *Dispatcher) emitTerminal(inst *agent.Instance) {
	d.bus.Emit(events.New(inst.JobID, string(inst.Key), events.KindStatus, string(inst.State)))
}

func terminalReasonOf(result supervisor.Result) string {
	if result.Err == nil {
		return ""
	}
	return result.Err.Error()
}

// sleepOrCancelled waits out wait, returning false early (without
// having slept the full duration) if ctx is cancelled or handle fires
// first.
func sleepOrCancelled(ctx context.Context, handle *CancelHandle, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-handle.Done():
		return false
	}
}
