// Package exec provides an interface for command execution.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external tools.
// This abstraction allows mocking command execution in tests and
// substituting alternate concrete tools without touching pipeline logic.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunSplit executes a command and returns stdout and stderr separately.
	// The error is non-nil for both non-zero exits and start failures;
	// callers distinguish the two with IsExit.
	RunSplit(ctx context.Context, workDir string, name string, args ...string) (stdout, stderr []byte, err error)

	// LookPath reports whether a command is available.
	LookPath(name string) bool
}
