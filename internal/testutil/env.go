// Package testutil provides reusable helpers for helio integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestEnv is an isolated CLI environment: a config file and a data
// directory under one temp root. Commands run through RunCLI see only
// this environment.
type TestEnv struct {
	Dir        string
	DataDir    string
	ConfigPath string
	t          *testing.T
	config     string
}

// NewTestEnv creates a test environment builder.
// Call Build() to create the directories and files.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{t: t}
}

// WithConfig sets the config.toml content for the environment.
func (e *TestEnv) WithConfig(toml string) *TestEnv {
	e.config = toml
	return e
}

// Build creates the environment directories and the config file.
// The config file is written even when empty; RunCLI always passes it.
func (e *TestEnv) Build() *TestEnv {
	e.t.Helper()

	e.Dir = e.t.TempDir()
	e.DataDir = filepath.Join(e.Dir, "data")
	e.ConfigPath = filepath.Join(e.Dir, "config.toml")

	if err := os.MkdirAll(e.DataDir, 0o755); err != nil {
		e.t.Fatalf("failed to create data directory: %v", err)
	}
	e.WriteFile("config.toml", e.config)

	return e
}

// WriteFile writes a file under the environment root, creating
// directories as needed.
func (e *TestEnv) WriteFile(relPath, content string) {
	e.t.Helper()
	fullPath := filepath.Join(e.Dir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		e.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file from the environment.
// Returns the content as a string.
func (e *TestEnv) ReadFile(relPath string) string {
	e.t.Helper()
	fullPath := filepath.Join(e.Dir, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		e.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the environment.
func (e *TestEnv) FileExists(relPath string) bool {
	e.t.Helper()
	fullPath := filepath.Join(e.Dir, relPath)
	_, err := os.Stat(fullPath)
	return err == nil
}

// DownloadDir returns the environment's default download directory.
func (e *TestEnv) DownloadDir() string {
	return filepath.Join(e.DataDir, "files")
}
