package config

const (
	DefaultMaxParallelAgents       = 5
	DefaultAgentTimeoutMinutes     = 30
	DefaultWorkspaceSizeLimitGB    = 5
	DefaultWorkspaceRoot           = ".fleet/workspaces"
	DefaultMaxLaunchRetries        = 3
	DefaultGracefulTerminationSecs = 10
	DefaultClaudeCommand           = "claude"
	DefaultGeminiCommand           = "gemini"
	DefaultCodexCommand            = "codex"
	DefaultLogLevel                = "info"
)

// DefaultConfig returns a Config populated with compiled-in defaults,
// before any YAML overlay or environment override is applied.
func DefaultConfig() *Config {
	return &Config{
		MaxParallelAgents:              DefaultMaxParallelAgents,
		AgentTimeoutMinutes:            DefaultAgentTimeoutMinutes,
		WorkspaceSizeLimitGB:           DefaultWorkspaceSizeLimitGB,
		WorkspaceRoot:                  DefaultWorkspaceRoot,
		MaxLaunchRetries:               DefaultMaxLaunchRetries,
		GracefulTerminationGraceSeconds: DefaultGracefulTerminationSecs,
		Commands: CommandConfig{
			Claude: DefaultClaudeCommand,
			Gemini: DefaultGeminiCommand,
			Codex:  DefaultCodexCommand,
		},
		Escalation: EscalationConfig{
			Backends: []string{"terminal"},
		},
		LogLevel: DefaultLogLevel,
	}
}
