package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertFileExists fails the test when relPath is missing under the
// environment root.
func (e *TestEnv) AssertFileExists(relPath string) {
	e.t.Helper()
	if !e.FileExists(relPath) {
		e.t.Errorf("missing file %s", relPath)
	}
}

// AssertFileNotExists fails the test when relPath exists.
func (e *TestEnv) AssertFileNotExists(relPath string) {
	e.t.Helper()
	if e.FileExists(relPath) {
		e.t.Errorf("file %s should not exist", relPath)
	}
}

// AssertFileContains fails the test unless the file holds substr.
func (e *TestEnv) AssertFileContains(relPath, substr string) {
	e.t.Helper()
	content := e.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		e.t.Errorf("file %s does not contain %q:\n%s", relPath, substr, content)
	}
}

// AssertDirExists fails the test unless relPath is a directory.
func (e *TestEnv) AssertDirExists(relPath string) {
	e.t.Helper()
	info, err := os.Stat(filepath.Join(e.Dir, relPath))
	if err != nil {
		e.t.Errorf("missing directory %s: %v", relPath, err)
		return
	}
	if !info.IsDir() {
		e.t.Errorf("%s is a file, want a directory", relPath)
	}
}

// AssertHasWarning fails the test unless a warning with code is
// present.
func (r *CLIResult) AssertHasWarning(t *testing.T, code string) {
	t.Helper()
	for _, w := range r.Warnings {
		if w.Code == code {
			return
		}
	}
	t.Errorf("no %s warning in %+v", code, r.Warnings)
}

// AssertNoWarnings fails the test when the envelope carries warnings.
func (r *CLIResult) AssertNoWarnings(t *testing.T) {
	t.Helper()
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", r.Warnings)
	}
}

// AssertResultCount fails the test unless data[key] is a list with n
// entries.
func (r *CLIResult) AssertResultCount(t *testing.T, key string, n int) {
	t.Helper()
	if got := len(r.DataList(key)); got != n {
		t.Errorf("len(%s) = %d, want %d\n%s", key, got, n, r.RawJSON)
	}
}
