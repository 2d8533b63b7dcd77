// Package config resolves the fleet engine's settings from compiled-in
// defaults, an optional YAML overlay, and environment overrides applied
// last, in that order. It also carries the credential and
// model-override contract consumed from the environment at
// job-creation time.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentKey identifies one of the four slots in a Job.
type AgentKey string

const (
	Primary1   AgentKey = "primary-1"
	Primary2   AgentKey = "primary-2"
	Primary3   AgentKey = "primary-3"
	Integrator AgentKey = "integrator"
)

// PrimaryKeys lists the phase-A agent keys in launch order.
var PrimaryKeys = []AgentKey{Primary1, Primary2, Primary3}

// Config is the fully resolved engine configuration.
type Config struct {
	// MaxParallelAgents is the global concurrency cap semaphore size
	// (§4.4): the number of AgentInstances that may be running across
	// all live Jobs at once.
	MaxParallelAgents int `yaml:"max_parallel_agents"`

	// AgentTimeout bounds the wall-clock budget given to any one
	// AgentInstance (§4.2).
	AgentTimeout time.Duration `yaml:"-"`
	// AgentTimeoutMinutes is the YAML/env-facing form of AgentTimeout.
	AgentTimeoutMinutes int `yaml:"agent_timeout_minutes"`

	// WorkspaceSizeLimitGB is the per-workspace materialization quota
	// (§4.1); exceeding it is a non-retryable workspace error.
	WorkspaceSizeLimitGB int `yaml:"workspace_size_limit_gb"`

	// WorkspaceRoot is the directory under which every Job's
	// per-agent workspaces are created, `<root>/<JobId>/<AgentKey>`.
	WorkspaceRoot string `yaml:"workspace_root"`

	// MaxLaunchRetries bounds the scheduler's launch-time retry policy
	// (§4.4); default 3.
	MaxLaunchRetries int `yaml:"max_launch_retries"`

	// GracefulTerminationGrace is how long the supervisor waits after
	// a graceful termination signal before forcing termination (§4.2).
	GracefulTerminationGrace time.Duration `yaml:"-"`
	GracefulTerminationGraceSeconds int    `yaml:"graceful_termination_grace_seconds"`

	// Commands maps each agent kind to the CLI binary invoked for it.
	// Overridable independently of model selection.
	Commands CommandConfig `yaml:"commands"`

	// Credentials holds the per-provider credential strings consumed
	// from the environment at job-creation time (§6). A Job refuses
	// to start if a credential required by its configured agent kinds
	// is empty.
	Credentials CredentialConfig `yaml:"-"`

	// Escalation configures where job-level failure notifications go.
	Escalation EscalationConfig `yaml:"escalation"`

	// DefaultModels are the model identifiers used when a job's
	// agent_models mapping omits a key (§6).
	DefaultModels ModelDefaults `yaml:"-"`

	LogLevel string `yaml:"log_level"`
}

// ModelDefaults holds the per-agent-kind model identifiers sourced from
// the environment, keyed the way the credential contract names them.
type ModelDefaults struct {
	Claude      string
	Gemini      string
	OpenAI      string
	Integration string
}

// CommandConfig names the CLI binary for each agent kind.
type CommandConfig struct {
	Claude string `yaml:"claude"`
	Gemini string `yaml:"gemini"`
	Codex  string `yaml:"codex"`
}

// CredentialConfig holds the recognized credential environment values.
type CredentialConfig struct {
	AnthropicCred string
	GeminiCred    string
	OpenAICred    string
}

// EscalationConfig configures the optional job-failure notification
// side channel (§11).
type EscalationConfig struct {
	Backends    []string `yaml:"backends"`
	SlackWebhook string  `yaml:"slack_webhook"`
	WebhookURL   string  `yaml:"webhook_url"`
}

// Load resolves a Config: defaults, then an optional YAML file at path
// (skipped silently if it does not exist), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.AgentTimeout = time.Duration(cfg.AgentTimeoutMinutes) * time.Minute
	cfg.GracefulTerminationGrace = time.Duration(cfg.GracefulTerminationGraceSeconds) * time.Second

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
