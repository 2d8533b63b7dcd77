package escalate

import (
	"fmt"

	"github.com/ninefold/fleet/internal/config"
)

// FromConfig creates an Escalator from the engine's escalation
// configuration (§11), fanning out to every configured backend via
// Multi when more than one is named.
func FromConfig(cfg config.EscalationConfig) (Escalator, error) {
	var escalators []Escalator

	for _, backend := range cfg.Backends {
		switch backend {
		case "terminal":
			escalators = append(escalators, NewTerminal())
		case "slack":
			if cfg.SlackWebhook == "" {
				return nil, fmt.Errorf("slack backend requires webhook URL")
			}
			escalators = append(escalators, NewSlack(cfg.SlackWebhook))
		case "webhook":
			if cfg.WebhookURL == "" {
				return nil, fmt.Errorf("webhook backend requires URL")
			}
			escalators = append(escalators, NewWebhook(cfg.WebhookURL))
		default:
			return nil, fmt.Errorf("unknown escalation backend: %s", backend)
		}
	}

	if len(escalators) == 0 {
		return NewTerminal(), nil
	}

	if len(escalators) == 1 {
		return escalators[0], nil
	}

	return NewMulti(escalators...), nil
}
