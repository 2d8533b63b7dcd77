package config

import (
	"errors"
	"fmt"
)

// ValidationError reports one invalid config field, in the style of
// the rest of this codebase's config validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// validateConfig checks structural config values. Per-job validation
// (credentials required for the agent kinds actually requested, the
// objective non-empty) happens later, at job-creation time, per §4.6(c)
// — this only validates the engine-wide settings.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.MaxParallelAgents < 1 {
		errs = append(errs, &ValidationError{"max_parallel_agents", cfg.MaxParallelAgents, "must be at least 1"})
	}
	if cfg.AgentTimeoutMinutes < 1 {
		errs = append(errs, &ValidationError{"agent_timeout_minutes", cfg.AgentTimeoutMinutes, "must be at least 1"})
	}
	if cfg.WorkspaceSizeLimitGB < 1 {
		errs = append(errs, &ValidationError{"workspace_size_limit_gb", cfg.WorkspaceSizeLimitGB, "must be at least 1"})
	}
	if cfg.WorkspaceRoot == "" {
		errs = append(errs, &ValidationError{"workspace_root", cfg.WorkspaceRoot, "must not be empty"})
	}
	if cfg.MaxLaunchRetries < 1 {
		errs = append(errs, &ValidationError{"max_launch_retries", cfg.MaxLaunchRetries, "must be at least 1"})
	}
	if cfg.Commands.Claude == "" || cfg.Commands.Gemini == "" || cfg.Commands.Codex == "" {
		errs = append(errs, &ValidationError{"commands", cfg.Commands, "every agent kind needs a command"})
	}

	return errors.Join(errs...)
}
