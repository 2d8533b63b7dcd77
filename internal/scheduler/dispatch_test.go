package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ninefold/fleet/internal/agent"
	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/events"
	"github.com/ninefold/fleet/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSupervisor substitutes the real Process Supervisor in dispatch
// tests, never shelling out to anything.
type fakeSupervisor struct {
	results []supervisor.Result
	errs    []error
	calls   int

	cancelled bool
}

func (f *fakeSupervisor) Run(ctx context.Context, emit supervisor.EmitFunc) (supervisor.Result, error) {
	i := f.calls
	f.calls++
	emit("status", "started")
	if i < len(f.errs) && f.errs[i] != nil {
		return supervisor.Result{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return f.results[len(f.results)-1], nil
}

func (f *fakeSupervisor) Cancel() { f.cancelled = true }

func withFakeSupervisor(t *testing.T, fake *fakeSupervisor) {
	t.Helper()
	prev := newSupervisor
	newSupervisor = func(supervisor.Config) supervisorRunner { return fake }
	t.Cleanup(func() { newSupervisor = prev })
}

func testJobConfig() agent.JobConfig {
	cfg := config.DefaultConfig()
	cfg.Credentials.AnthropicCred = "test-cred"
	return agent.JobConfig{Objective: "do the thing", Config: cfg}
}

func TestDispatcher_RunAgent_Succeeds(t *testing.T) {
	fake := &fakeSupervisor{results: []supervisor.Result{{State: agent.StateSucceeded, ExitCode: 0}}}
	withFakeSupervisor(t, fake)

	bus := events.NewBus(16)
	var seen []events.Event
	bus.Subscribe(func(e events.Event) { seen = append(seen, e) })

	d := NewDispatcher(NewSemaphore(1), bus, DefaultRetryConfig)
	inst := agent.NewInstance("job-1", config.Primary1, agent.KindClaude, "claude-model")
	inst.WorkspacePath = t.TempDir()

	result := d.RunAgent(context.Background(), inst, testJobConfig(), testJobConfig().Config, NewCancelHandle())

	assert.Equal(t, agent.StateSucceeded, result.Instance.State)
	assert.Equal(t, 1, fake.calls)
	assert.NotEmpty(t, seen)
}

func TestDispatcher_RunAgent_RetriesTransientLaunchFailureThenSucceeds(t *testing.T) {
	fake := &fakeSupervisor{
		errs:    []error{errors.New("resource temporarily unavailable"), nil},
		results: []supervisor.Result{{}, {State: agent.StateSucceeded}},
	}
	withFakeSupervisor(t, fake)

	bus := events.NewBus(16)
	var warnings int
	bus.Subscribe(func(e events.Event) {
		if e.Kind == events.KindWarning {
			warnings++
		}
	})

	retry := DefaultRetryConfig
	retry.InitialBackoff = time.Millisecond
	retry.MaxBackoff = time.Millisecond

	d := NewDispatcher(NewSemaphore(1), bus, retry)
	inst := agent.NewInstance("job-1", config.Primary1, agent.KindClaude, "claude-model")
	inst.WorkspacePath = t.TempDir()

	result := d.RunAgent(context.Background(), inst, testJobConfig(), testJobConfig().Config, NewCancelHandle())

	assert.Equal(t, agent.StateSucceeded, result.Instance.State)
	assert.Equal(t, 2, fake.calls)
	assert.Equal(t, 1, warnings, "exactly one retry warning should have been emitted")
}

func TestDispatcher_RunAgent_PermanentLaunchFailureNeverRetries(t *testing.T) {
	fake := &fakeSupervisor{errs: []error{errors.New("permission denied")}}
	withFakeSupervisor(t, fake)

	bus := events.NewBus(16)
	d := NewDispatcher(NewSemaphore(1), bus, DefaultRetryConfig)
	inst := agent.NewInstance("job-1", config.Primary1, agent.KindClaude, "claude-model")
	inst.WorkspacePath = t.TempDir()

	result := d.RunAgent(context.Background(), inst, testJobConfig(), testJobConfig().Config, NewCancelHandle())

	assert.Equal(t, agent.StateFailed, result.Instance.State)
	assert.Equal(t, 1, fake.calls)
}

func TestDispatcher_RunAgent_CancelledBeforeLaunch(t *testing.T) {
	fake := &fakeSupervisor{}
	withFakeSupervisor(t, fake)

	bus := events.NewBus(16)
	d := NewDispatcher(NewSemaphore(1), bus, DefaultRetryConfig)
	inst := agent.NewInstance("job-1", config.Primary1, agent.KindClaude, "claude-model")
	inst.WorkspacePath = t.TempDir()

	handle := NewCancelHandle()
	handle.Cancel()

	result := d.RunAgent(context.Background(), inst, testJobConfig(), testJobConfig().Config, handle)

	assert.Equal(t, agent.StateCancelled, result.Instance.State)
	assert.Equal(t, 0, fake.calls, "a pre-cancelled agent must never launch")
}

func TestDispatcher_RunAgent_UnknownCommandFailsBeforeLaunch(t *testing.T) {
	fake := &fakeSupervisor{}
	withFakeSupervisor(t, fake)

	bus := events.NewBus(16)
	d := NewDispatcher(NewSemaphore(1), bus, DefaultRetryConfig)
	inst := agent.NewInstance("job-1", config.Primary1, agent.KindClaude, "claude-model")
	inst.WorkspacePath = t.TempDir()

	jobCfg := testJobConfig()
	jobCfg.Config.Commands.Claude = ""

	result := d.RunAgent(context.Background(), inst, jobCfg, jobCfg.Config, NewCancelHandle())

	require.Equal(t, agent.StateFailed, result.Instance.State)
	assert.Equal(t, 0, fake.calls)
}
