package cli

import (
	"fmt"
	"io"

	"github.com/ninefold/fleet/internal/events"
)

// displayEvent renders one ProgressEvent as a single line on w, the
// plain-text fallback used whenever the TUI is disabled or stdout
// isn't a terminal.
func displayEvent(w io.Writer, e events.Event) {
	ts := e.Timestamp.Format("15:04:05")
	switch e.Kind {
	case events.KindStdout, events.KindStderr:
		fmt.Fprintf(w, "%s [%-11s] %s\n", ts, e.AgentKey, e.Payload)
	case events.KindStatus:
		fmt.Fprintf(w, "%s [%-11s] status: %s\n", ts, e.AgentKey, e.Payload)
	case events.KindPhase:
		fmt.Fprintf(w, "%s -- phase: %s --\n", ts, e.Payload)
	case events.KindWarning:
		fmt.Fprintf(w, "%s [%-11s] WARNING: %s\n", ts, e.AgentKey, e.Payload)
	case events.KindError:
		fmt.Fprintf(w, "%s [%-11s] ERROR: %s\n", ts, e.AgentKey, e.Payload)
	case events.KindComplete:
		fmt.Fprintf(w, "%s == complete: %s ==\n", ts, e.Payload)
	default:
		fmt.Fprintf(w, "%s [%-11s] %s: %s\n", ts, e.AgentKey, e.Kind, e.Payload)
	}
}
