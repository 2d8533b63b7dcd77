package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/ninefold/fleet/internal/events"
)

// NewWatchCmd creates the 'watch' command for attaching to an
// already-running job's event stream by ID.
func NewWatchCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Attach to a running job's event stream",
		Long: `Watch streams ProgressEvents for a job that was started earlier
(e.g. with --detach), rendering them until the job reaches its
terminal event or the command is interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return attach(cmd.Context(), a, args[0])
		},
	}

	return cmd
}

// watchPlain renders every event from ch on w as a single line, in
// arrival order, until the job's complete event has been shown, ch
// closes, or ctx is cancelled. This is the
// fallback used whenever the TUI is disabled or stdout isn't a
// terminal.
func watchPlain(ctx context.Context, w io.Writer, ch <-chan events.Event) error {
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			displayEvent(w, e)
			if e.Kind == events.KindComplete {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
