package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ninefold/fleet/internal/job"
)

// versionInfo carries the build-time version stamp set via ldflags.
type versionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App is the fleet CLI: a thin Cobra tree over a single already-wired
// job.Manager. Every subcommand reaches the engine only through
// Manager's public methods (Start/Subscribe/Cancel/List) — the CLI
// owns no orchestration state of its own.
type App struct {
	rootCmd *cobra.Command
	mgr     *job.Manager

	verbose bool
	noTUI   bool

	versionInfo versionInfo
}

// New creates a CLI App wired to mgr.
func New(mgr *job.Manager) *App {
	app := &App{mgr: mgr}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI, dispatching to whichever subcommand matched.
func (a *App) Execute() error {
	return a.rootCmd.ExecuteContext(context.Background())
}

// SetVersion sets the version string trio reported by `fleet version`.
func (a *App) SetVersion(version, commit, date string) {
	a.versionInfo = versionInfo{Version: version, Commit: commit, Date: date}
}

func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "fleet",
		Short: "Runs a fleet of agent CLIs against an isolated copy of a repository",
		Long: `fleet clones a target repository into isolated per-agent workspaces,
launches three primary coding-agent CLIs in parallel against the same
objective, then runs an integrator agent over their combined output,
streaming progress from every agent as it happens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	a.rootCmd.PersistentFlags().BoolVar(&a.noTUI, "no-tui", false, "Disable interactive progress display (plain event log)")

	a.rootCmd.AddCommand(
		NewStartCmd(a),
		NewWatchCmd(a),
		NewCancelCmd(a),
		NewJobsCmd(a),
		NewVersionCmd(a),
	)
}
