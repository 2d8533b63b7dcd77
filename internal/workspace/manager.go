// Package workspace implements the Workspace Manager (§4.1): it
// allocates per-job, per-agent filesystem sandboxes, materializes a
// copy of the source tree into each, and tears them down on job end.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ninefold/fleet/internal/config"
)

// ErrQuotaExceeded is returned by Allocate when the materialized source
// would exceed (or already exceeds, for local copies) the configured
// size quota. Per §4.1 this is a non-retryable error.
var ErrQuotaExceeded = fmt.Errorf("workspace: size quota exceeded")

// ErrNotEmpty is returned by Allocate when the target directory already
// exists and is non-empty, the fail-closed behavior §4.1 requires.
var ErrNotEmpty = fmt.Errorf("workspace: target directory already exists and is non-empty")

// Manager allocates and releases workspaces under a single root
// directory, subdivided by JobID so that no two jobs ever share a
// workspace root (§4.6 invariant b).
type Manager struct {
	root      string
	quotaGB   int
	runner    Runner
}

// New creates a Manager rooted at cfg.WorkspaceRoot enforcing
// cfg.WorkspaceSizeLimitGB.
func New(cfg *config.Config) *Manager {
	return &Manager{
		root:    cfg.WorkspaceRoot,
		quotaGB: cfg.WorkspaceSizeLimitGB,
		runner:  DefaultRunner(),
	}
}

// WithRunner overrides the git Runner, for tests.
func (m *Manager) WithRunner(r Runner) *Manager {
	m.runner = r
	return m
}

// Root returns the workspace root directory.
func (m *Manager) Root() string {
	return m.root
}

// PathFor computes the deterministic per-agent path
// workspace_root/<JobId>/<AgentKey>, without allocating anything.
func (m *Manager) PathFor(jobID string, key config.AgentKey) string {
	return filepath.Join(m.root, jobID, string(key))
}

// Allocate materializes source into the workspace for (jobID, key).
// It fails closed if the target directory already exists non-empty,
// and enforces the size quota before returning the path.
func (m *Manager) Allocate(ctx context.Context, jobID string, key config.AgentKey, source Source) (string, error) {
	path := m.PathFor(jobID, key)

	empty, err := isEmptyOrAbsent(path)
	if err != nil {
		return "", fmt.Errorf("workspace: checking target %s: %w", path, err)
	}
	if !empty {
		return "", ErrNotEmpty
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("workspace: creating %s: %w", path, err)
	}

	if source.IsRemote() {
		if err := m.cloneShallow(ctx, path, source); err != nil {
			os.RemoveAll(path)
			return "", err
		}
	} else {
		if err := copyTree(source.Path, path); err != nil {
			os.RemoveAll(path)
			return "", fmt.Errorf("workspace: copying %s: %w", source.Path, err)
		}
	}

	size, err := dirSize(path)
	if err != nil {
		os.RemoveAll(path)
		return "", fmt.Errorf("workspace: measuring %s: %w", path, err)
	}
	limit := int64(m.quotaGB) * (1 << 30)
	if m.quotaGB > 0 && size > limit {
		os.RemoveAll(path)
		return "", ErrQuotaExceeded
	}

	return path, nil
}

// Release idempotently removes the workspace directory at path.
// Invoked unconditionally during Job teardown; calling it twice, or on
// a path that never existed, is a no-op.
func (m *Manager) Release(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("workspace: releasing %s: %w", path, err)
	}
	return nil
}

// ExposeReadOnly locks down the permissions on path (recursively) so
// that the integrator's bind reference to a primary workspace is
// read-only by convention rather than by a filesystem mount, resolving
// the open question in §9 in favor of the simpler mechanism the spec
// does not mandate either way.
func ExposeReadOnly(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// Directories keep their write bit: stripping it would block
		// unlinking the files inside the directory during teardown,
		// defeating Release. Read-only-by-convention only
		// needs the files themselves to resist modification.
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode().Perm() &^ 0o222
		return os.Chmod(p, mode)
	})
}

func (m *Manager) cloneShallow(ctx context.Context, dest string, source Source) error {
	args := []string{"clone", "--depth", "1"}
	if source.Ref != "" {
		args = append(args, "--branch", source.Ref, "--single-branch")
	}
	args = append(args, source.URL, dest)

	if _, err := m.runner.Exec(ctx, "", args...); err != nil {
		return fmt.Errorf("workspace: shallow clone of %s: %w", source.URL, err)
	}
	return nil
}

func isEmptyOrAbsent(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return len(entries) == 0, nil
}
