package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewJobsCmd creates the 'jobs' command, listing the jobs this
// Manager is still running in the current process; a job leaves the
// list once its run ends (there is no cross-restart persistence; see
// internal/store for the optional durable audit trail).
func NewJobsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List jobs started in this process",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := a.mgr.List()
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no jobs")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
