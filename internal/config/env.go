package config

import (
	"os"
	"strconv"
)

// envOverrides is a table-driven list of environment variables applied
// over the YAML-resolved Config, the same pattern used elsewhere in
// this codebase for worktree/log-level overrides, extended here to
// cover every key named in the credential and model-override contract
// (§6).
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{"FLEET_CLAUDE_CMD", func(c *Config, v string) { c.Commands.Claude = v }},
	{"FLEET_GEMINI_CMD", func(c *Config, v string) { c.Commands.Gemini = v }},
	{"FLEET_CODEX_CMD", func(c *Config, v string) { c.Commands.Codex = v }},
	{"FLEET_WORKSPACE_ROOT", func(c *Config, v string) { c.WorkspaceRoot = v }},
	{"FLEET_LOG_LEVEL", func(c *Config, v string) { c.LogLevel = v }},

	{"ANTHROPIC_CRED", func(c *Config, v string) { c.Credentials.AnthropicCred = v }},
	{"GEMINI_CRED", func(c *Config, v string) { c.Credentials.GeminiCred = v }},
	{"OPENAI_CRED", func(c *Config, v string) { c.Credentials.OpenAICred = v }},

	{"CLAUDE_MODEL", func(c *Config, v string) { c.DefaultModels.Claude = v }},
	{"GEMINI_MODEL", func(c *Config, v string) { c.DefaultModels.Gemini = v }},
	{"OPENAI_MODEL", func(c *Config, v string) { c.DefaultModels.OpenAI = v }},
	{"INTEGRATION_MODEL", func(c *Config, v string) { c.DefaultModels.Integration = v }},

	{"MAX_PARALLEL_AGENTS", func(c *Config, v string) { setInt(&c.MaxParallelAgents, v) }},
	{"AGENT_TIMEOUT_MINUTES", func(c *Config, v string) { setInt(&c.AgentTimeoutMinutes, v) }},
	{"WORKSPACE_SIZE_LIMIT_GB", func(c *Config, v string) { setInt(&c.WorkspaceSizeLimitGB, v) }},
}

func setInt(dst *int, raw string) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	*dst = n
}

// applyEnvOverrides mutates cfg in place for every recognized
// environment variable that is set.
func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.envVar); ok {
			o.apply(cfg, v)
		}
	}
}
