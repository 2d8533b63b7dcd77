// Package supervisor implements the Process Supervisor (§4.2): it runs
// one external command inside a workspace, streams its output,
// enforces a wall-clock timeout, and classifies how the process ended.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ninefold/fleet/internal/agent"
)

// defaultGracePeriod is how long the supervisor waits after a graceful
// termination signal before forcing termination (§4.2). It is
// overridable per Config; this is only the package default.
const defaultGracePeriod = 10 * time.Second

// defaultMaxLineBytes bounds how much of one line of output is kept
// before the supervisor truncates it and emits a warning (§4.2).
const defaultMaxLineBytes = 32 * 1024

// EmitFunc is how the supervisor reports a ProgressEvent; the caller
// (scheduler) supplies one bound to the job's Event Hub and the
// specific agent key, since this package has no notion of Job or
// AgentKey itself.
type EmitFunc func(kind, payload string)

// Config is everything needed to launch and supervise one agent
// process.
type Config struct {
	Argv  []string
	Env   []string
	Dir   string
	Stdin []byte

	Timeout      time.Duration
	GracePeriod  time.Duration
	MaxLineBytes int
}

// Result is the outcome of one supervised run: the terminal
// classification and, for non-success outcomes, the error that
// produced it.
type Result struct {
	State    agent.State
	ExitCode int
	Err      error
}

// Supervisor runs and tracks exactly one external command.
type Supervisor struct {
	cfg Config

	cancelOnce sync.Once
	cancelCh   chan struct{}

	cancelled atomic.Bool
	timedOut  atomic.Bool
}

// New creates a Supervisor for cfg, applying default grace period and
// line-length bound where unset.
func New(cfg Config) *Supervisor {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = defaultGracePeriod
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = defaultMaxLineBytes
	}
	return &Supervisor{cfg: cfg, cancelCh: make(chan struct{})}
}

// Cancel requests termination of the running (or not-yet-started)
// process, classified as `cancelled`. Idempotent: calling it more than
// once, or after the process has already reached a terminal state, is
// a no-op (§5).
func (s *Supervisor) Cancel() {
	s.cancelOnce.Do(func() {
		s.cancelled.Store(true)
		close(s.cancelCh)
	})
}

// Run launches the configured command and blocks until it reaches a
// terminal state, forwarding `status`, `stdout`, `stderr`, and
// `warning` events to emit as it goes. It never returns an error for
// an agent that ran and exited nonzero — that is the `failed`
// classification in Result, not a Go error — Run only returns a
// non-nil error for failures launching the process itself (§4.2's
// "error" + terminal-failed-without-launching path), which the
// scheduler may choose to retry if the error is transient.
func (s *Supervisor) Run(ctx context.Context, emit EmitFunc) (Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.cfg.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, s.cfg.Timeout)
		defer timeoutCancel()
	}

	cmd := exec.CommandContext(runCtx, s.cfg.Argv[0], s.cfg.Argv[1:]...)
	cmd.Dir = s.cfg.Dir
	cmd.Env = s.cfg.Env
	if len(s.cfg.Stdin) > 0 {
		cmd.Stdin = bytesReader(s.cfg.Stdin)
	}

	cmd.SysProcAttr = procAttrNewGroup()
	cmd.Cancel = func() error {
		// Only the run's own deadline counts as a timeout; any other end
		// of runCtx (Cancel, or the caller's ctx) is a cancellation.
		if !s.cancelled.Load() && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			s.timedOut.Store(true)
		} else {
			s.cancelled.Store(true)
		}
		return killGroup(cmd, syscall.SIGTERM)
	}
	cmd.WaitDelay = s.cfg.GracePeriod

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return s.launchFailure(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return s.launchFailure(err)
	}

	if err := cmd.Start(); err != nil {
		return s.launchFailure(err)
	}
	emit(string(kindStatus), "started")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); streamLines(stdout, s.cfg.MaxLineBytes, string(kindStdout), emit) }()
	go func() { defer wg.Done(); streamLines(stderr, s.cfg.MaxLineBytes, string(kindStderr), emit) }()

	// Watch for an external Cancel() call concurrently with the
	// process's own lifetime, so a cancel issued before the process
	// ever starts still takes effect (cmd.Cancel above only fires once
	// the context is already wired to cmd, which happens at Start).
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-s.cancelCh:
			cancel()
		case <-watchDone:
		}
	}()

	waitErr := cmd.Wait()
	close(watchDone)
	wg.Wait()

	return s.classify(waitErr), nil
}

func (s *Supervisor) launchFailure(err error) (Result, error) {
	wrapped := fmt.Errorf("supervisor: launching %v: %w", s.cfg.Argv, err)
	return Result{State: agent.StateFailed, ExitCode: -1, Err: wrapped}, wrapped
}

// classify applies the priority order from §4.2: cancelled, timeout,
// failed, succeeded.
func (s *Supervisor) classify(waitErr error) Result {
	switch {
	case s.cancelled.Load():
		return Result{State: agent.StateCancelled, ExitCode: -1, Err: waitErr}
	case s.timedOut.Load():
		return Result{State: agent.StateTimeout, ExitCode: -1, Err: waitErr}
	case waitErr == nil:
		return Result{State: agent.StateSucceeded, ExitCode: 0}
	default:
		var exitErr *exec.ExitError
		code := -1
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		return Result{State: agent.StateFailed, ExitCode: code, Err: waitErr}
	}
}

type progressKind string

const (
	kindStatus progressKind = "status"
	kindStdout progressKind = "stdout"
	kindStderr progressKind = "stderr"
)
