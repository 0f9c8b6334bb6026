package sandbox

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// defaultManifest is the minimal dependency manifest synthesized when the
// seed directory supplies none. It declares the validator and runner
// toolchain as dev dependencies so the sandbox is self-sufficient.
type defaultManifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Scripts         map[string]string `json:"scripts"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// writeDefaultManifest writes a minimal package.json into dir.
func writeDefaultManifest(dir string) error {
	manifest := defaultManifest{
		Name:    "crucible-sandbox",
		Version: "0.0.0",
		Private: true,
		Scripts: map[string]string{
			"test": "jest",
			"lint": "eslint .",
		},
		DevDependencies: map[string]string{
			"eslint":     "^8.57.0",
			"jest":       "^29.7.0",
			"typescript": "^5.4.0",
		},
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return os.WriteFile(filepath.Join(dir, "package.json"), data, 0644)
}

// defaultLintConfig is the permissive lint configuration synthesized when the
// seed directory supplies none. Rules are warn-level so validation never
// fails purely from absent configuration.
type defaultLintConfig struct {
	Root          bool              `yaml:"root"`
	Env           map[string]bool   `yaml:"env"`
	ParserOptions map[string]any    `yaml:"parserOptions"`
	Rules         map[string]string `yaml:"rules"`
}

// writeDefaultLintConfig writes a permissive .eslintrc.yml into dir.
func writeDefaultLintConfig(dir string) error {
	cfg := defaultLintConfig{
		Root: true,
		Env: map[string]bool{
			"es2021": true,
			"node":   true,
		},
		ParserOptions: map[string]any{
			"ecmaVersion": "latest",
			"sourceType":  "module",
		},
		Rules: map[string]string{
			"no-unused-vars": "warn",
			"no-console":     "warn",
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, ".eslintrc.yml"), data, 0644)
}
