// Package events defines the ProgressEvent wire shape and the in-process
// bus used to fan events out from supervisors and the scheduler to the
// Event Hub and, from there, to subscribers.
package events

import (
	"fmt"
	"time"
)

// Kind identifies what a ProgressEvent describes. The set is closed and
// mirrors the subscription protocol's wire contract.
type Kind string

const (
	KindStatus   Kind = "status"
	KindStdout   Kind = "stdout"
	KindStderr   Kind = "stderr"
	KindPhase    Kind = "phase"
	KindWarning  Kind = "warning"
	KindError    Kind = "error"
	KindComplete Kind = "complete"
)

// JobKey is the sentinel AgentKey used for scheduler- and controller-level
// events that are not attributable to a single agent.
const JobKey = "job"

// Event is a single ProgressEvent as described in the data model: a
// tagged record scoped to (JobID, AgentKey) carrying a UTF-8 payload.
type Event struct {
	JobID    string
	AgentKey string
	Kind     Kind
	Payload  string
	// Timestamp is wall-clock time retained for in-process ordering
	// checks; see MarshalJSON in json.go for the epoch-millisecond wire
	// form named in the subscription protocol.
	Timestamp time.Time
	// TimestampMS is the wall-clock timestamp in epoch milliseconds.
	TimestampMS int64
}

// New builds an Event, stamping both the monotonic-friendly time.Time
// used internally for ordering checks and the epoch-millisecond wire
// timestamp.
func New(jobID, agentKey string, kind Kind, payload string) Event {
	now := time.Now()
	return Event{
		JobID:       jobID,
		AgentKey:    agentKey,
		Kind:        kind,
		Payload:     payload,
		Timestamp:   now,
		TimestampMS: now.UnixMilli(),
	}
}

// NewJobEvent builds an Event scoped to the Job sentinel key rather than
// a specific agent.
func NewJobEvent(jobID string, kind Kind, payload string) Event {
	return New(jobID, JobKey, kind, payload)
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] job=%s agent=%s %s", e.Kind, e.JobID, e.AgentKey, e.Payload)
}

// IsTerminalAgentKind reports whether the status payload status marks
// the end of an agent's own stream (as opposed to the job's single
// complete event).
func IsTerminalAgentKind(status string) bool {
	switch status {
	case "succeeded", "failed", "timeout", "cancelled":
		return true
	default:
		return false
	}
}
