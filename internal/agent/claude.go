package agent

import (
	"fmt"
	"path/filepath"
	"strings"
)

// claudeAdapter targets a swarm-mode CLI. The model identifier is
// bound via environment rather than a flag, and a pre-materialized
// configuration file lives in a dotted sub-directory of the workspace,
// per §4.3.
type claudeAdapter struct{}

func (claudeAdapter) Plan(inst *Instance, job JobConfig) error {
	command := job.Config.Commands.Claude
	if command == "" {
		return fmt.Errorf("agent: claude command not configured")
	}

	if err := materializeClaudeConfig(inst.WorkspacePath); err != nil {
		return fmt.Errorf("agent: materializing claude config: %w", err)
	}

	inst.Argv = []string{
		command,
		"--dangerously-skip-permissions",
		"--output-format", "stream-json",
		"--verbose",
		"-p", quoteSafe(job.Objective),
	}
	inst.Env = append(inst.Env,
		"ANTHROPIC_CRED="+job.Config.Credentials.AnthropicCred,
		"CLAUDE_MODEL="+inst.Model,
	)
	return nil
}

// materializeClaudeConfig writes the dotted configuration directory the
// Claude CLI expects to find in its working directory. Content is
// intentionally minimal: the engine does not speak to the CLI's
// internals, it only guarantees the file the CLI looks for exists.
func materializeClaudeConfig(workspace string) error {
	dir := filepath.Join(workspace, ".claude-swarm")
	return writeConfigStub(dir, "config.json", `{"permissions":"skip"}`)
}

func (claudeAdapter) InferProgress(line string) (string, bool) {
	switch {
	case strings.Contains(line, "\"type\":\"message_start\""):
		return "thinking", true
	case strings.Contains(line, "\"type\":\"tool_use\""):
		return "working", true
	case strings.Contains(line, "\"type\":\"result\""):
		return "finishing", true
	default:
		return "", false
	}
}
