// Package sandbox manages ephemeral working directories for validation and
// test execution runs. Each sandbox is created for exactly one run, seeded
// with project configuration and generated file contents, and deleted when
// the run ends unless preservation is requested.
package sandbox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cruciblehq/crucible/pkg/models"
)

// seedAllowList is the fixed set of configuration files copied verbatim from
// the seed directory when present. Missing files are silently skipped.
var seedAllowList = []string{
	".eslintrc.json",
	".eslintrc.yml",
	".eslintrc.yaml",
	".prettierrc",
	".prettierrc.json",
	"tsconfig.json",
	"package.json",
	"jest.config.js",
	"jest.config.json",
}

// Sandbox is one ephemeral working directory owned by a single run.
type Sandbox struct {
	// ID is the collision-free identifier the directory is named with.
	ID string
	// Path is the absolute sandbox directory path.
	Path string
	// CreatedAt is when the sandbox was allocated.
	CreatedAt time.Time
}

// Manager creates and tears down sandboxes under a fixed root directory.
type Manager struct {
	root     string
	preserve bool
}

// NewManager creates a sandbox Manager rooted at root. An empty root falls
// back to a crucible directory under the system temp dir. preserve suppresses
// deletion in Destroy for post-mortem inspection.
func NewManager(root string, preserve bool) (*Manager, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "crucible-sandboxes")
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}

	return &Manager{
		root:     root,
		preserve: preserve,
	}, nil
}

// Root returns the directory sandboxes are created under.
func (m *Manager) Root() string {
	return m.root
}

// Preserve reports whether sandboxes are kept after their run.
func (m *Manager) Preserve() bool {
	return m.preserve
}

// Create allocates a sandbox, copies allow-listed configuration from seedDir,
// synthesizes missing manifest and lint configuration, and materializes every
// generated file at its relative path. Creation failures are fatal to the
// run; the partially built sandbox is removed before returning the error.
func (m *Manager) Create(seedDir string, files []models.GeneratedFile) (*Sandbox, error) {
	id := uuid.New().String()
	path := filepath.Join(m.root, "sandbox-"+id)

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create sandbox directory: %w", err)
	}

	sb := &Sandbox{
		ID:        id,
		Path:      path,
		CreatedAt: time.Now(),
	}

	if err := m.seed(sb, seedDir); err != nil {
		os.RemoveAll(path)
		return nil, err
	}

	if err := m.WriteFiles(sb, files); err != nil {
		os.RemoveAll(path)
		return nil, err
	}

	return sb, nil
}

// seed copies allow-listed config files and synthesizes the rest.
func (m *Manager) seed(sb *Sandbox, seedDir string) error {
	if seedDir != "" {
		for _, name := range seedAllowList {
			src := filepath.Join(seedDir, name)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			if err := copyFile(src, filepath.Join(sb.Path, name)); err != nil {
				return fmt.Errorf("copy seed config %s: %w", name, err)
			}
		}
	}

	if !exists(filepath.Join(sb.Path, "package.json")) {
		if err := writeDefaultManifest(sb.Path); err != nil {
			return fmt.Errorf("synthesize manifest: %w", err)
		}
	}

	if !m.hasLintConfig(sb) {
		if err := writeDefaultLintConfig(sb.Path); err != nil {
			return fmt.Errorf("synthesize lint config: %w", err)
		}
	}

	return nil
}

// hasLintConfig reports whether any recognized lint configuration was seeded.
func (m *Manager) hasLintConfig(sb *Sandbox) bool {
	for _, name := range []string{".eslintrc.json", ".eslintrc.yml", ".eslintrc.yaml"} {
		if exists(filepath.Join(sb.Path, name)) {
			return true
		}
	}
	return false
}

// WriteFiles materializes generated files inside the sandbox, creating parent
// directories as needed. Paths must be relative and must not escape the
// sandbox; traversal paths are rejected before anything is written.
func (m *Manager) WriteFiles(sb *Sandbox, files []models.GeneratedFile) error {
	for _, f := range files {
		rel, err := safeRelPath(f.Path)
		if err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}

		dst := filepath.Join(sb.Path, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("create parent directories for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dst, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}

// WriteTestUnits materializes test unit files inside the sandbox.
func (m *Manager) WriteTestUnits(sb *Sandbox, units []models.TestUnit) error {
	files := make([]models.GeneratedFile, 0, len(units))
	for _, u := range units {
		files = append(files, models.GeneratedFile{
			Path:    u.TestFilePath,
			Content: u.TestCode,
		})
	}
	return m.WriteFiles(sb, files)
}

// Destroy recursively deletes the sandbox tree. Deletion is idempotent: a
// missing path is not an error. When the manager preserves sandboxes the
// tree is left in place for inspection.
func (m *Manager) Destroy(sb *Sandbox) error {
	if sb == nil {
		return nil
	}

	if m.preserve {
		return nil
	}

	if err := os.RemoveAll(sb.Path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("remove sandbox: %w", err)
	}

	return nil
}

// safeRelPath validates and normalizes a sandbox-relative path. Absolute
// paths and paths that traverse above the sandbox root are rejected.
func safeRelPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) || strings.HasPrefix(filepath.ToSlash(p), "/") {
		return "", fmt.Errorf("absolute path not allowed")
	}

	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes sandbox")
	}

	return clean, nil
}

// exists checks if a file exists at the given path.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile copies a single file preserving content only.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
