// Command fleet is the entry point for the agent-orchestration engine:
// it wires the Workspace Manager, the process-wide concurrency
// Semaphore, the optional SQLite audit journal, and the optional
// escalation backend into a job.Manager, then hands control to the
// Cobra CLI built on top of it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ninefold/fleet/internal/cli"
	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/escalate"
	"github.com/ninefold/fleet/internal/job"
	"github.com/ninefold/fleet/internal/scheduler"
	"github.com/ninefold/fleet/internal/store"
	"github.com/ninefold/fleet/internal/workspace"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.Load(filepath.Join(wd, ".fleet.yaml"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	workspaces := workspace.New(cfg)
	sem := scheduler.NewSemaphore(cfg.MaxParallelAgents)

	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	esc := buildEscalator(cfg)

	mgr := job.NewManager(cfg, workspaces, sem, journal, esc)

	app := cli.New(mgr)
	app.SetVersion(version, commit, date)
	return app.Execute()
}

// openJournal opens the SQLite audit journal as audit.db in the parent
// directory of cfg.WorkspaceRoot. The journal is disabled when the
// escalation backend list contains "none"; a nil *store.Store
// (returned then) leaves job.Manager's auditing a no-op.
func openJournal(cfg *config.Config) (*store.Store, error) {
	for _, backend := range cfg.Escalation.Backends {
		if backend == "none" {
			return nil, nil
		}
	}
	dir := filepath.Dir(cfg.WorkspaceRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit journal directory: %w", err)
	}
	s, err := store.Open(filepath.Join(dir, "audit.db"))
	if err != nil {
		return nil, fmt.Errorf("opening audit journal: %w", err)
	}
	return s, nil
}

// buildEscalator assembles the escalator named by cfg.Escalation's
// backend list, composing multiple backends with escalate.NewMulti
// when more than one is configured. A "none" entry disables escalation
// (nil is returned); otherwise an unrecognized or empty backend list
// falls back to the terminal escalator.
func buildEscalator(cfg *config.Config) escalate.Escalator {
	var escalators []escalate.Escalator
	for _, backend := range cfg.Escalation.Backends {
		switch backend {
		case "terminal":
			escalators = append(escalators, escalate.NewTerminal())
		case "slack":
			if cfg.Escalation.SlackWebhook != "" {
				escalators = append(escalators, escalate.NewSlack(cfg.Escalation.SlackWebhook))
			}
		case "webhook":
			if cfg.Escalation.WebhookURL != "" {
				escalators = append(escalators, escalate.NewWebhook(cfg.Escalation.WebhookURL))
			}
		case "none":
			return nil
		}
	}

	switch len(escalators) {
	case 0:
		return escalate.NewTerminal()
	case 1:
		return escalators[0]
	default:
		return escalate.NewMulti(escalators...)
	}
}
