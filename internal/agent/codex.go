package agent

import (
	"fmt"
	"strings"
)

// codexAdapter targets a third CLI with a non-interactive / autonomous
// flag; the model is bound via a flag (§4.3).
type codexAdapter struct{}

func (codexAdapter) Plan(inst *Instance, job JobConfig) error {
	command := job.Config.Commands.Codex
	if command == "" {
		return fmt.Errorf("agent: codex command not configured")
	}

	argv := []string{command, "exec", "--yolo"}
	if inst.Model != "" {
		argv = append(argv, "--model", inst.Model)
	}
	argv = append(argv, quoteSafe(job.Objective))

	inst.Argv = argv
	inst.Env = append(inst.Env, "OPENAI_CRED="+job.Config.Credentials.OpenAICred)
	return nil
}

func (codexAdapter) InferProgress(line string) (string, bool) {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "running command"), strings.Contains(lower, "applying patch"):
		return "working", true
	case strings.Contains(lower, "task complete"):
		return "finishing", true
	default:
		return "", false
	}
}
