package job

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/events"
	"github.com/ninefold/fleet/internal/scheduler"
	"github.com/ninefold/fleet/internal/workspace"
)

// fastConfig builds a Config whose three agent commands are all /bin/true
// (exits 0 immediately regardless of argv) so a Job reaches its terminal
// complete event without needing a real agent CLI installed.
func fastConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Commands = config.CommandConfig{Claude: "/bin/true", Gemini: "/bin/true", Codex: "/bin/true"}
	cfg.WorkspaceRoot = t.TempDir()
	cfg.AgentTimeout = 5 * time.Second
	cfg.GracefulTerminationGrace = time.Second
	cfg.MaxLaunchRetries = 1
	cfg.Credentials = config.CredentialConfig{AnthropicCred: "a", GeminiCred: "g", OpenAICred: "o"}
	cfg.DefaultModels = config.ModelDefaults{Claude: "claude-x", Gemini: "gemini-x", OpenAI: "codex-x"}
	return cfg
}

func sourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))
	return dir
}

func newTestManager(t *testing.T) (*Manager, *config.Config) {
	t.Helper()
	cfg := fastConfig(t)
	ws := workspace.New(cfg)
	sem := scheduler.NewSemaphore(cfg.MaxParallelAgents)
	return NewManager(cfg, ws, sem, nil, nil), cfg
}

func drainToComplete(t *testing.T, ch <-chan events.Event, timeout time.Duration) (events.Event, []events.Event) {
	t.Helper()
	var all []events.Event
	deadline := time.After(timeout)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed before a complete event arrived")
			}
			all = append(all, e)
			if e.Kind == events.KindComplete {
				return e, all
			}
		case <-deadline:
			t.Fatalf("timed out waiting for complete event, saw %d events", len(all))
		}
	}
}

func TestStart_RunsToCompletionAndTearsDownWorkspaces(t *testing.T) {
	mgr, cfg := newTestManager(t)
	req := Request{Source: sourceRepo(t), Objective: "build the thing"}

	jobID, err := mgr.Start(context.Background(), req)
	require.NoError(t, err)

	ch, cleanup, err := mgr.Subscribe(jobID)
	require.NoError(t, err)
	defer cleanup()

	complete, all := drainToComplete(t, ch, 10*time.Second)

	completeCount := 0
	for _, e := range all {
		if e.Kind == events.KindComplete {
			completeCount++
		}
	}
	assert.Equal(t, 1, completeCount, "exactly one complete event per job")

	var summary Summary
	require.NoError(t, json.Unmarshal([]byte(complete.Payload), &summary))
	assert.Equal(t, scheduler.JobSucceeded, summary.Outcome)
	assert.Len(t, summary.Agents, 4)

	for _, key := range append(append([]config.AgentKey{}, config.PrimaryKeys...), config.Integrator) {
		path := filepath.Join(cfg.WorkspaceRoot, jobID, string(key))
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "workspace %s should be torn down before complete", path)
	}
}

func TestStart_RejectsEmptyObjective(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, err := mgr.Start(context.Background(), Request{Source: sourceRepo(t), Objective: ""})
	require.Error(t, err)
	var cfgErr *ErrConfiguration
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCancel_IsIdempotentAndStillCompletesOnce(t *testing.T) {
	mgr, _ := newTestManager(t)
	req := Request{Source: sourceRepo(t), Objective: "build the thing"}

	jobID, err := mgr.Start(context.Background(), req)
	require.NoError(t, err)

	ch, cleanup, err := mgr.Subscribe(jobID)
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, mgr.Cancel(jobID))
	require.NoError(t, mgr.Cancel(jobID))

	_, all := drainToComplete(t, ch, 10*time.Second)
	completeCount := 0
	for _, e := range all {
		if e.Kind == events.KindComplete {
			completeCount++
		}
	}
	assert.Equal(t, 1, completeCount)
}

func TestSubscribe_UnknownJobErrors(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, _, err := mgr.Subscribe("does-not-exist")
	assert.Error(t, err)
}

func TestTwoConcurrentJobsGetDisjointWorkspaces(t *testing.T) {
	mgr, cfg := newTestManager(t)
	src := sourceRepo(t)

	id1, err := mgr.Start(context.Background(), Request{Source: src, Objective: "first"})
	require.NoError(t, err)
	id2, err := mgr.Start(context.Background(), Request{Source: src, Objective: "second"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	ch1, cleanup1, err := mgr.Subscribe(id1)
	require.NoError(t, err)
	defer cleanup1()
	ch2, cleanup2, err := mgr.Subscribe(id2)
	require.NoError(t, err)
	defer cleanup2()

	drainToComplete(t, ch1, 10*time.Second)
	drainToComplete(t, ch2, 10*time.Second)

	assert.NotEqual(t,
		filepath.Join(cfg.WorkspaceRoot, id1),
		filepath.Join(cfg.WorkspaceRoot, id2),
	)
}
