package testexec

import (
	"context"
	"errors"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cruciblehq/crucible/internal/sandbox"
	"github.com/cruciblehq/crucible/pkg/models"
)

// scriptedRunner plays back canned behavior per test file: it can write a
// result file, emit stderr, and return an exit or start error.
type scriptedRunner struct {
	outcomes map[string]scriptedOutcome
	calls    []string
}

type scriptedOutcome struct {
	resultFile string
	stderr     string
	err        error
	// hang blocks until the context deadline kills the run, like a test
	// that never finishes.
	hang bool
}

// exitErr stands in for a non-zero tool exit, as opposed to a start
// failure. A bare ExitError is enough for errors.As to match.
var exitErr = &osexec.ExitError{}

func (r *scriptedRunner) Run(ctx context.Context, workDir, name string, args ...string) ([]byte, error) {
	out, errOut, err := r.RunSplit(ctx, workDir, name, args...)
	return append(out, errOut...), err
}

func (r *scriptedRunner) RunSplit(ctx context.Context, workDir, name string, args ...string) ([]byte, []byte, error) {
	testFile := args[len(args)-1]
	r.calls = append(r.calls, testFile)

	outcome := r.outcomes[testFile]
	if outcome.hang {
		<-ctx.Done()
		return nil, nil, exitErr
	}
	if outcome.resultFile != "" {
		if err := os.WriteFile(filepath.Join(workDir, resultFileName), []byte(outcome.resultFile), 0644); err != nil {
			return nil, nil, err
		}
	}
	return nil, []byte(outcome.stderr), outcome.err
}

func (r *scriptedRunner) LookPath(name string) bool {
	return true
}

type noopInstaller struct{ calls int }

func (n *noopInstaller) Install(ctx context.Context, dir string) error {
	n.calls++
	return nil
}

type recordingHistory struct {
	records []string
	err     error
}

func (h *recordingHistory) RecordRun(testPath string, status models.TestStatus, duration time.Duration) error {
	h.records = append(h.records, testPath+":"+string(status))
	return h.err
}

func newTestExecutor(t *testing.T, runner *scriptedRunner) *Executor {
	t.Helper()
	m, err := sandbox.NewManager(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	e := &Executor{
		sandboxes: m,
		runner:    runner,
		npx:       "npx",
		timeout:   time.Minute,
	}
	e.SetInstaller(&noopInstaller{})
	return e
}

func unit(path string) models.TestUnit {
	return models.TestUnit{
		TestFilePath: path,
		TestCode:     "test('works', () => {});\n",
		Framework:    models.FrameworkJest,
	}
}

func TestRunDerivesStatusFromResultFile(t *testing.T) {
	runner := &scriptedRunner{outcomes: map[string]scriptedOutcome{
		"pass.test.js": {resultFile: `{"numFailedTests":0,"numPassedTests":3,"numTotalTests":3}`},
		"fail.test.js": {resultFile: `{"numFailedTests":1,"numPassedTests":2,"numTotalTests":3}`, err: exitErr},
	}}
	e := newTestExecutor(t, runner)

	summary, err := e.Run(context.Background(), []models.TestUnit{
		unit("pass.test.js"),
		unit("fail.test.js"),
	}, nil, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.TotalTests != 2 || summary.PassedCount != 1 || summary.FailedCount != 1 {
		t.Errorf("summary = %d total, %d passed, %d failed; want 2/1/1",
			summary.TotalTests, summary.PassedCount, summary.FailedCount)
	}
	if summary.SuccessRate != 50 {
		t.Errorf("SuccessRate = %v, want 50", summary.SuccessRate)
	}
	if summary.Tests[0].Status != models.TestPassed {
		t.Errorf("pass.test.js status = %s, want passed", summary.Tests[0].Status)
	}
	if summary.Tests[1].Status != models.TestFailed {
		t.Errorf("fail.test.js status = %s, want failed", summary.Tests[1].Status)
	}
}

func TestRunSequentialInOrder(t *testing.T) {
	runner := &scriptedRunner{outcomes: map[string]scriptedOutcome{}}
	e := newTestExecutor(t, runner)

	units := []models.TestUnit{unit("a.test.js"), unit("b.test.js"), unit("c.test.js")}
	if _, err := e.Run(context.Background(), units, nil, ""); err != nil {
		t.Fatal(err)
	}

	want := []string{"a.test.js", "b.test.js", "c.test.js"}
	if len(runner.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", runner.calls, want)
	}
	for i := range want {
		if runner.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, runner.calls[i], want[i])
		}
	}
}

func TestRunPermissiveFallback(t *testing.T) {
	// No result file at all: silence means success, error output means
	// failure.
	runner := &scriptedRunner{outcomes: map[string]scriptedOutcome{
		"quiet.test.js": {},
		"noisy.test.js": {stderr: "Cannot find module './missing'", err: exitErr},
	}}
	e := newTestExecutor(t, runner)

	summary, err := e.Run(context.Background(), []models.TestUnit{
		unit("quiet.test.js"),
		unit("noisy.test.js"),
	}, nil, "")
	if err != nil {
		t.Fatal(err)
	}

	if summary.Tests[0].Status != models.TestPassed {
		t.Errorf("quiet.test.js status = %s, want passed", summary.Tests[0].Status)
	}
	if summary.Tests[1].Status != models.TestFailed {
		t.Errorf("noisy.test.js status = %s, want failed", summary.Tests[1].Status)
	}
	if summary.Tests[1].Details == "" {
		t.Error("failed fallback result carries no details")
	}
}

func TestRunDeadlineKillFailsUnit(t *testing.T) {
	// A unit killed at its deadline leaves no result file and no stderr,
	// which would otherwise read as a quiet pass. It must fail, and a
	// hung unit must not take the rest of the batch down with it.
	runner := &scriptedRunner{outcomes: map[string]scriptedOutcome{
		"hung.test.js": {hang: true},
		"fine.test.js": {resultFile: `{"numFailedTests":0,"numPassedTests":1,"numTotalTests":1}`},
	}}
	e := newTestExecutor(t, runner)
	e.timeout = 20 * time.Millisecond

	summary, err := e.Run(context.Background(), []models.TestUnit{
		unit("hung.test.js"),
		unit("fine.test.js"),
	}, nil, "")
	if err != nil {
		t.Fatal(err)
	}

	if summary.Tests[0].Status != models.TestFailed {
		t.Errorf("hung.test.js status = %s, want failed", summary.Tests[0].Status)
	}
	if !strings.Contains(summary.Tests[0].Details, "timed out") {
		t.Errorf("hung.test.js details = %q, want a timeout message", summary.Tests[0].Details)
	}
	if summary.Tests[1].Status != models.TestPassed {
		t.Errorf("fine.test.js status = %s, want passed", summary.Tests[1].Status)
	}
}

func TestRunStaleResultFileIgnored(t *testing.T) {
	// The first unit writes a failing report; the second writes nothing.
	// The second must not inherit the first unit's report.
	runner := &scriptedRunner{outcomes: map[string]scriptedOutcome{
		"first.test.js": {resultFile: `{"numFailedTests":2,"numPassedTests":0,"numTotalTests":2}`, err: exitErr},
		"clean.test.js": {},
	}}
	e := newTestExecutor(t, runner)

	summary, err := e.Run(context.Background(), []models.TestUnit{
		unit("first.test.js"),
		unit("clean.test.js"),
	}, nil, "")
	if err != nil {
		t.Fatal(err)
	}

	if summary.Tests[1].Status != models.TestPassed {
		t.Errorf("clean.test.js status = %s, want passed (stale report leaked)", summary.Tests[1].Status)
	}
}

func TestRunStartFailureFailsOnlyThatUnit(t *testing.T) {
	runner := &scriptedRunner{outcomes: map[string]scriptedOutcome{
		"broken.test.js": {err: errors.New(`exec: "npx": executable file not found in $PATH`)},
		"fine.test.js":   {resultFile: `{"numFailedTests":0,"numPassedTests":1,"numTotalTests":1}`},
	}}
	e := newTestExecutor(t, runner)

	summary, err := e.Run(context.Background(), []models.TestUnit{
		unit("broken.test.js"),
		unit("fine.test.js"),
	}, nil, "")
	if err != nil {
		t.Fatal(err)
	}

	if summary.Tests[0].Status != models.TestFailed {
		t.Errorf("broken.test.js status = %s, want failed", summary.Tests[0].Status)
	}
	if summary.Tests[1].Status != models.TestPassed {
		t.Errorf("fine.test.js status = %s, want passed", summary.Tests[1].Status)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	runner := &scriptedRunner{outcomes: map[string]scriptedOutcome{
		"a.test.js": {resultFile: `{"numFailedTests":0,"numPassedTests":1,"numTotalTests":1}`},
	}}
	e := newTestExecutor(t, runner)
	h := &recordingHistory{}
	e.SetHistory(h)

	if _, err := e.Run(context.Background(), []models.TestUnit{unit("a.test.js")}, nil, ""); err != nil {
		t.Fatal(err)
	}

	if len(h.records) != 1 || h.records[0] != "a.test.js:passed" {
		t.Errorf("history records = %v, want [a.test.js:passed]", h.records)
	}
}

func TestRunHistoryFailureDoesNotFailRun(t *testing.T) {
	runner := &scriptedRunner{outcomes: map[string]scriptedOutcome{}}
	e := newTestExecutor(t, runner)
	e.SetHistory(&recordingHistory{err: errors.New("disk full")})

	var logged bool
	e.Logf = func(format string, args ...any) { logged = true }

	summary, err := e.Run(context.Background(), []models.TestUnit{unit("a.test.js")}, nil, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.TotalTests != 1 {
		t.Errorf("TotalTests = %d, want 1", summary.TotalTests)
	}
	if !logged {
		t.Error("history failure was not logged")
	}
}

func TestRunEmptyBatch(t *testing.T) {
	e := newTestExecutor(t, &scriptedRunner{outcomes: map[string]scriptedOutcome{}})

	summary, err := e.Run(context.Background(), nil, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalTests != 0 || summary.SuccessRate != 0 {
		t.Errorf("empty batch summary = %+v, want zero totals", summary)
	}
}

func TestRunnerArgs(t *testing.T) {
	jest := runnerArgs(models.TestUnit{TestFilePath: "a.test.js", Framework: models.FrameworkJest})
	if jest[0] != "jest" || jest[len(jest)-1] != "a.test.js" {
		t.Errorf("jest args = %v", jest)
	}

	vitest := runnerArgs(models.TestUnit{TestFilePath: "a.test.ts", Framework: models.FrameworkVitest})
	if vitest[0] != "vitest" || vitest[1] != "run" {
		t.Errorf("vitest args = %v", vitest)
	}
}
