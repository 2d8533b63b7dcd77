package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCancelCmd creates the 'cancel' command, requesting cancellation
// of a running job by ID (§4.4, §5). It is idempotent: cancelling an
// already-terminal or unknown job just returns its error, it never
// blocks waiting for the job to actually stop.
func NewCancelCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cancellation of a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.Cancel(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancellation requested for job %s\n", args[0])
			return nil
		},
	}
}
