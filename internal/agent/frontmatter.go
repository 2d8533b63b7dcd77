package agent

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// IntegrationFrontmatter is the small YAML header on INTEGRATION.md,
// the integration prompt file the integrator adapter writes into its
// workspace before launch (§4.3). The same delimiter-scan-then-YAML
// shape this codebase already uses for task frontmatter is reused here
// rather than duplicated, since both are "a small structured header
// followed by a markdown body."
type IntegrationFrontmatter struct {
	Objective         string   `yaml:"objective"`
	PrimaryWorkspaces []string `yaml:"primary_workspaces"`
	ExpectedArtifact  string   `yaml:"expected_artifact"`
	GeneratedAt       string   `yaml:"generated_at"`
}

const integrationFileName = "INTEGRATION.md"

// writeIntegrationPrompt materializes INTEGRATION.md at the root of the
// integrator's workspace: frontmatter naming the three fixed relative
// paths and the expected final artifact, followed by the augmented
// objective as free-text body.
func writeIntegrationPrompt(workspace, objective string, now time.Time) (string, error) {
	fm := IntegrationFrontmatter{
		Objective:         objective,
		PrimaryWorkspaces: []string{"./primary-1", "./primary-2", "./primary-3"},
		ExpectedArtifact:  "final_report.md",
		GeneratedAt:       now.UTC().Format(time.RFC3339),
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshaling integration frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString("# Integration Task\n\n")
	buf.WriteString(objective)
	buf.WriteString("\n\n")
	buf.WriteString("Read the independent results under ./primary-1, ./primary-2, and ./primary-3. ")
	buf.WriteString("Reconcile them into a single coherent outcome and write your findings to final_report.md ")
	buf.WriteString("at the root of this workspace.\n")

	path := filepath.Join(workspace, integrationFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", integrationFileName, err)
	}
	return path, nil
}

// parseFrontmatter splits content delimited by a leading and trailing
// "---" line, mirroring this codebase's existing frontmatter scanner.
func parseFrontmatter(content []byte) (frontmatter, body []byte, err error) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return nil, content, nil
	}
	remaining := content[4:]
	closingIdx := bytes.Index(remaining, []byte("\n---\n"))
	if closingIdx == -1 {
		return nil, nil, fmt.Errorf("agent: unclosed integration frontmatter")
	}
	frontmatter = remaining[:closingIdx]
	bodyStart := 4 + closingIdx + 5
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}
	return frontmatter, body, nil
}

// readIntegrationPrompt parses an already-written INTEGRATION.md back
// into its frontmatter. Nothing in the engine calls it at present; the
// launch argv carries the objective directly.
func readIntegrationPrompt(workspace string) (*IntegrationFrontmatter, error) {
	data, err := os.ReadFile(filepath.Join(workspace, integrationFileName))
	if err != nil {
		return nil, err
	}
	fm, _, err := parseFrontmatter(data)
	if err != nil {
		return nil, err
	}
	var out IntegrationFrontmatter
	if err := yaml.Unmarshal(fm, &out); err != nil {
		return nil, fmt.Errorf("agent: parsing integration frontmatter: %w", err)
	}
	return &out, nil
}

// writeConfigStub writes a small literal config file into dir,
// creating dir if needed. Used by adapters that need to guarantee a
// configuration file exists before their CLI starts (§4.3's "includes
// a pre-materialized configuration file").
func writeConfigStub(dir, name, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}
