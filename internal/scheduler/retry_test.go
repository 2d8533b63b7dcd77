package scheduler

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTransientLaunchError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"eagain", syscall.EAGAIN, true},
		{"emfile", syscall.EMFILE, true},
		{"not exist", os.ErrNotExist, false},
		{"permission denied wrapped", errors.New("fork/exec /bin/x: permission denied"), false},
		{"resource message", errors.New("resource temporarily unavailable"), true},
		{"too many open files message", errors.New("too many open files"), true},
		{"executable not found message", errors.New("executable file not found in $PATH"), false},
		{"unknown defaults permanent", errors.New("something bizarre happened"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.transient, isTransientLaunchError(c.err))
		})
	}
}

func TestRetryConfig_NextBackoffCapsAtMax(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 4 * time.Second, BackoffMultiply: 2.0}

	next := cfg.nextBackoff(cfg.InitialBackoff)
	assert.Equal(t, 2*time.Second, next)

	next = cfg.nextBackoff(next)
	assert.Equal(t, 4*time.Second, next)

	next = cfg.nextBackoff(next)
	assert.Equal(t, 4*time.Second, next, "backoff must not exceed MaxBackoff")
}

func TestDefaultRetryConfig_MatchesThreeAttemptDefault(t *testing.T) {
	assert.Equal(t, 3, DefaultRetryConfig.MaxAttempts)
}
