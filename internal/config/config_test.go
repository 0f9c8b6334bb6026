package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Tools.Node != "node" || cfg.Tools.Npx != "npx" || cfg.Tools.Npm != "npm" {
		t.Errorf("tool defaults = %+v", cfg.Tools)
	}
	if cfg.Sandbox.Preserve {
		t.Error("Sandbox.Preserve default = true, want false")
	}
	if cfg.Timeouts.Syntax != 30*time.Second {
		t.Errorf("Timeouts.Syntax = %s, want 30s", cfg.Timeouts.Syntax)
	}
	if cfg.Timeouts.Test != 5*time.Minute {
		t.Errorf("Timeouts.Test = %s, want 5m", cfg.Timeouts.Test)
	}
	if cfg.Coverage.LowThreshold != 70 || cfg.Coverage.TopFiles != 5 {
		t.Errorf("coverage defaults = %+v", cfg.Coverage)
	}
	if cfg.Prioritize.Runner != "jest" {
		t.Errorf("Prioritize.Runner = %q, want jest", cfg.Prioritize.Runner)
	}
	if cfg.Prioritize.FailureRateThreshold != 0.2 {
		t.Errorf("Prioritize.FailureRateThreshold = %v, want 0.2", cfg.Prioritize.FailureRateThreshold)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
sandbox:
  root: /tmp/crucible-sandboxes
  preserve: true
tools:
  node: node22
timeouts:
  test: 90s
coverage:
  low_threshold: 60
prioritize:
  runner: vitest
  fail_fast: true
  stage_caps:
    stage1: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Sandbox.Root != "/tmp/crucible-sandboxes" {
		t.Errorf("Sandbox.Root = %q", cfg.Sandbox.Root)
	}
	if !cfg.Sandbox.Preserve {
		t.Error("Sandbox.Preserve = false, want true")
	}
	if cfg.Tools.Node != "node22" {
		t.Errorf("Tools.Node = %q, want node22", cfg.Tools.Node)
	}
	if cfg.Timeouts.Test != 90*time.Second {
		t.Errorf("Timeouts.Test = %s, want 90s", cfg.Timeouts.Test)
	}
	if cfg.Coverage.LowThreshold != 60 {
		t.Errorf("Coverage.LowThreshold = %v, want 60", cfg.Coverage.LowThreshold)
	}
	if cfg.Prioritize.Runner != "vitest" || !cfg.Prioritize.FailFast {
		t.Errorf("prioritize = %+v", cfg.Prioritize)
	}
	if cfg.Prioritize.StageCaps.Stage1 != 10 {
		t.Errorf("StageCaps.Stage1 = %d, want 10", cfg.Prioritize.StageCaps.Stage1)
	}

	// Unset keys keep their defaults.
	if cfg.Tools.Npx != "npx" {
		t.Errorf("Tools.Npx = %q, want default npx", cfg.Tools.Npx)
	}
	if cfg.Timeouts.Lint != 2*time.Minute {
		t.Errorf("Timeouts.Lint = %s, want default 2m", cfg.Timeouts.Lint)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromPath() succeeded for missing file, want error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Sandbox.Preserve = true
	cfg.Tools.Node = "node20"
	cfg.Timeouts.Syntax = 45 * time.Second
	cfg.Coverage.GoodLines = 85
	cfg.Prioritize.Runner = "mocha"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if !loaded.Sandbox.Preserve {
		t.Error("Sandbox.Preserve lost in round trip")
	}
	if loaded.Tools.Node != "node20" {
		t.Errorf("Tools.Node = %q, want node20", loaded.Tools.Node)
	}
	if loaded.Timeouts.Syntax != 45*time.Second {
		t.Errorf("Timeouts.Syntax = %s, want 45s", loaded.Timeouts.Syntax)
	}
	if loaded.Coverage.GoodLines != 85 {
		t.Errorf("Coverage.GoodLines = %v, want 85", loaded.Coverage.GoodLines)
	}
	if loaded.Prioritize.Runner != "mocha" {
		t.Errorf("Prioritize.Runner = %q, want mocha", loaded.Prioritize.Runner)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CRUCIBLE_PRESERVE_SANDBOX", "true")
	t.Setenv("CRUCIBLE_SANDBOX_ROOT", "/tmp/env-root")

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Run from an empty directory so no project config is picked up.
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Sandbox.Preserve {
		t.Error("CRUCIBLE_PRESERVE_SANDBOX not applied")
	}
	if cfg.Sandbox.Root != "/tmp/env-root" {
		t.Errorf("Sandbox.Root = %q, want /tmp/env-root", cfg.Sandbox.Root)
	}
}

func TestGetUserConfigPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "crucible", "config.yaml")
	if got := GetUserConfigPath(); got != want {
		t.Errorf("GetUserConfigPath() = %q, want %q", got, want)
	}
}
