package scheduler

import (
	"errors"
	"os"
	"strings"
	"syscall"
	"time"
)

// RetryConfig bounds the scheduler-level launch-time retry policy
// (§4.4): only transient launch failures are retried, never nonzero
// exits of an already-started process, and only a small fixed number
// of attempts with exponential backoff.
type RetryConfig struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiply float64
}

// DefaultRetryConfig matches §4.4's "default 3" with the same backoff
// shape this codebase's own worker retry uses.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialBackoff:  1 * time.Second,
	MaxBackoff:      10 * time.Second,
	BackoffMultiply: 2.0,
}

func (c RetryConfig) nextBackoff(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * c.BackoffMultiply)
	if next > c.MaxBackoff {
		next = c.MaxBackoff
	}
	return next
}

// isTransientLaunchError classifies a launch-time error as transient
// (resource-temporarily-unavailable, an ephemeral filesystem issue) as
// opposed to permanent (command not found, permission denied). Only
// transient errors are retried; permanent ones mark the agent
// terminal-failed immediately (§7).
func isTransientLaunchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE) {
		return true
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "resource temporarily unavailable"),
		strings.Contains(msg, "too many open files"),
		strings.Contains(msg, "cannot allocate memory"):
		return true
	case strings.Contains(msg, "executable file not found"),
		strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "no such file or directory"):
		return false
	default:
		// Unknown launch failures default to permanent: retrying an
		// error we cannot classify risks masking a real configuration
		// problem behind repeated, identical attempts.
		return false
	}
}
