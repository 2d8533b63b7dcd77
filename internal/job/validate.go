package job

import (
	"fmt"
	"strings"

	"github.com/ninefold/fleet/internal/agent"
	"github.com/ninefold/fleet/internal/config"
)

// ErrConfiguration wraps a job-creation-time configuration error
// (§7's "configuration error" taxonomy entry): missing credential,
// empty objective, or an empty model identifier for a required slot.
// It is fatal at job creation; the job is never started.
type ErrConfiguration struct {
	Reason string
}

func (e *ErrConfiguration) Error() string {
	return "job: configuration error: " + e.Reason
}

// validateRequest enforces §4.6 invariant (c): a Job refuses to start
// if any required model identifier or the objective is missing or
// empty, and refuses to start if a credential required by its
// configured agent kinds is empty.
func validateRequest(req Request, cfg *config.Config) error {
	if strings.TrimSpace(req.Objective) == "" {
		return &ErrConfiguration{Reason: "objective must not be empty"}
	}
	if strings.TrimSpace(req.Source) == "" {
		return &ErrConfiguration{Reason: "source must not be empty"}
	}

	for _, key := range append(append([]config.AgentKey{}, config.PrimaryKeys...), config.Integrator) {
		model := resolveModel(req, cfg, key)
		if strings.TrimSpace(model) == "" {
			return &ErrConfiguration{Reason: fmt.Sprintf("no model identifier configured for %s", key)}
		}
	}

	if cfg.Credentials.AnthropicCred == "" {
		return &ErrConfiguration{Reason: "ANTHROPIC_CRED is required (claude and integrator agents depend on it)"}
	}
	if cfg.Credentials.GeminiCred == "" {
		return &ErrConfiguration{Reason: "GEMINI_CRED is required"}
	}
	if cfg.Credentials.OpenAICred == "" {
		return &ErrConfiguration{Reason: "OPENAI_CRED is required"}
	}

	return nil
}

// resolveModel returns req's override for key if present, else the
// engine's configured default for the agent.Kind fixed to that slot.
func resolveModel(req Request, cfg *config.Config, key config.AgentKey) string {
	if m, ok := req.Models[key]; ok && m != "" {
		return m
	}
	switch agent.KindForKey(key) {
	case agent.KindClaude:
		return cfg.DefaultModels.Claude
	case agent.KindGemini:
		return cfg.DefaultModels.Gemini
	case agent.KindCodex:
		return cfg.DefaultModels.OpenAI
	case agent.KindIntegrator:
		if cfg.DefaultModels.Integration != "" {
			return cfg.DefaultModels.Integration
		}
		return cfg.DefaultModels.Claude
	default:
		return ""
	}
}
