package agent

import (
	"fmt"
	"strings"
)

// geminiAdapter targets a second, independent CLI. The model is bound
// via a command-line flag rather than the environment, and the
// objective is passed as a positional argument (§4.3).
type geminiAdapter struct{}

func (geminiAdapter) Plan(inst *Instance, job JobConfig) error {
	command := job.Config.Commands.Gemini
	if command == "" {
		return fmt.Errorf("agent: gemini command not configured")
	}

	inst.Argv = []string{
		command,
		"--model", inst.Model,
		"--yolo",
		quoteSafe(job.Objective),
	}
	inst.Env = append(inst.Env, "GEMINI_CRED="+job.Config.Credentials.GeminiCred)
	return nil
}

func (geminiAdapter) InferProgress(line string) (string, bool) {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "planning"):
		return "planning", true
	case strings.Contains(lower, "editing"), strings.Contains(lower, "writing"):
		return "working", true
	case strings.Contains(lower, "done"), strings.Contains(lower, "complete"):
		return "finishing", true
	default:
		return "", false
	}
}
