package validator

import (
	"context"
	osexec "os/exec"
	"strings"
	"testing"
	"time"
)

// hangingRunner blocks until the context deadline kills it, then returns an
// exit error with nothing on stderr, the way a wedged tool surfaces.
type hangingRunner struct{}

func (r *hangingRunner) Run(ctx context.Context, workDir, name string, args ...string) ([]byte, error) {
	_, stderr, err := r.RunSplit(ctx, workDir, name, args...)
	return stderr, err
}

func (r *hangingRunner) RunSplit(ctx context.Context, workDir, name string, args ...string) ([]byte, []byte, error) {
	<-ctx.Done()
	return nil, nil, &osexec.ExitError{}
}

func (r *hangingRunner) LookPath(name string) bool {
	return true
}

func TestNodeSyntaxCheckerDeadlineIsProcessError(t *testing.T) {
	// A deadline kill exits non-zero with empty stderr; parsing that as a
	// syntax failure would report an issue with no message.
	checker := NewNodeSyntaxChecker(&hangingRunner{}, "node", 20*time.Millisecond)

	issue, err := checker.Check(context.Background(), t.TempDir(), "slow.test.js")
	if err == nil {
		t.Fatal("Check returned no error for a timed-out run")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Check error = %q, want a timeout message", err)
	}
	if issue != nil {
		t.Errorf("Check issue = %+v, want nil on timeout", issue)
	}
}
