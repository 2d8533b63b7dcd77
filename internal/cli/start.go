package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/job"
)

// StartOptions holds flags for the start command.
type StartOptions struct {
	Objective       string
	ModelPrimary1   string
	ModelPrimary2   string
	ModelPrimary3   string
	ModelIntegrator string
	Detach          bool // start the job and print its ID without attaching
}

// NewStartCmd creates the 'start' command, which launches a Job
// against source (a repository URL or local path) and, unless
// --detach is given, attaches to its event stream immediately.
func NewStartCmd(a *App) *cobra.Command {
	var opts StartOptions

	cmd := &cobra.Command{
		Use:   "start <source>",
		Short: "Start a job against a repository and stream its progress",
		Long: `Start clones or copies source into an isolated workspace per agent,
launches the three primary agents in parallel, then runs the
integrator over their combined output.

By default the job's event stream is attached immediately; pass
--detach to only print the job ID and return.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Objective == "" {
				return fmt.Errorf("--objective is required")
			}

			req := job.Request{
				Source:    args[0],
				Objective: opts.Objective,
				Models:    modelOverrides(opts),
			}

			jobID, err := a.mgr.Start(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("starting job: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "started job %s\n", jobID)
			if opts.Detach {
				return nil
			}

			return attach(cmd.Context(), a, jobID)
		},
	}

	cmd.Flags().StringVarP(&opts.Objective, "objective", "o", "", "Free-text objective given to every agent (required)")
	cmd.Flags().StringVar(&opts.ModelPrimary1, "model-primary-1", "", "Model override for primary-1 (default: engine config)")
	cmd.Flags().StringVar(&opts.ModelPrimary2, "model-primary-2", "", "Model override for primary-2 (default: engine config)")
	cmd.Flags().StringVar(&opts.ModelPrimary3, "model-primary-3", "", "Model override for primary-3 (default: engine config)")
	cmd.Flags().StringVar(&opts.ModelIntegrator, "model-integrator", "", "Model override for the integrator (default: engine config)")
	cmd.Flags().BoolVar(&opts.Detach, "detach", false, "Print the job ID and return without attaching to its event stream")

	return cmd
}

func modelOverrides(opts StartOptions) map[config.AgentKey]string {
	models := make(map[config.AgentKey]string, 4)
	if opts.ModelPrimary1 != "" {
		models[config.Primary1] = opts.ModelPrimary1
	}
	if opts.ModelPrimary2 != "" {
		models[config.Primary2] = opts.ModelPrimary2
	}
	if opts.ModelPrimary3 != "" {
		models[config.Primary3] = opts.ModelPrimary3
	}
	if opts.ModelIntegrator != "" {
		models[config.Integrator] = opts.ModelIntegrator
	}
	return models
}

// attach subscribes to jobID's event stream and renders it until the
// job's terminal `complete` event has been rendered or ctx is
// cancelled. It uses the TUI when stdout is a terminal and the
// caller hasn't disabled it with --no-tui.
func attach(ctx context.Context, a *App, jobID string) error {
	ch, cleanup, err := a.mgr.Subscribe(jobID)
	if err != nil {
		return err
	}
	defer cleanup()

	if !a.noTUI && term.IsTerminal(int(os.Stdout.Fd())) {
		return runTUI(ctx, jobID, ch)
	}
	return watchPlain(ctx, os.Stdout, ch)
}
