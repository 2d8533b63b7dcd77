package events

import (
	"log"
	"strings"
)

// LogConfig controls the verbosity of LogHandler.
type LogConfig struct {
	// Verbose also logs stdout/stderr lines; when false only
	// status/phase/warning/error/complete events are logged.
	Verbose bool
}

// LogHandler returns a Handler that writes a one-line structured summary
// of every event to the standard logger, the same ambient logging idiom
// used for unit/task events: "[kind] job=... agent=... payload".
func LogHandler(cfg LogConfig) Handler {
	return func(e Event) {
		if !cfg.Verbose && (e.Kind == KindStdout || e.Kind == KindStderr) {
			return
		}
		payload := e.Payload
		if i := strings.IndexByte(payload, '\n'); i >= 0 {
			payload = payload[:i] + "..."
		}
		log.Printf("[%s] job=%s agent=%s %s", e.Kind, e.JobID, e.AgentKey, payload)
	}
}
