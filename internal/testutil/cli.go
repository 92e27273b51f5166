package testutil

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// The helio binary is built once per test run and shared.
var (
	buildMu   sync.Mutex
	builtPath string
)

// BuildError carries the compiler output of a failed build.
type BuildError struct {
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	return e.Err.Error() + "\n" + e.Output
}

// BuildCLI compiles the helio binary, reusing an earlier build when its
// file still exists, and returns its path.
func BuildCLI(t *testing.T) string {
	t.Helper()

	buildMu.Lock()
	defer buildMu.Unlock()

	if builtPath != "" {
		if _, err := os.Stat(builtPath); err == nil {
			return builtPath
		}
		// Some runners clean the temp dir mid-run; rebuild.
		builtPath = ""
	}

	root, err := moduleRoot()
	if err != nil {
		t.Fatalf("locate module root: %v", err)
	}

	dir, err := os.MkdirTemp("", "helio-cli-bin-*")
	if err != nil {
		t.Fatalf("create binary dir: %v", err)
	}

	name := "helio"
	if runtime.GOOS == "windows" {
		name = "helio.exe"
	}
	out := filepath.Join(dir, name)

	cmd := exec.Command("go", "build", "-o", out, "./cmd/helio")
	cmd.Dir = root
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build helio: %v", &BuildError{Output: string(output), Err: err})
	}

	builtPath = out
	return builtPath
}

// moduleRoot walks up from the working directory to the go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above working directory")
		}
		dir = parent
	}
}

// CLIResult is a decoded JSON envelope from one helio invocation.
type CLIResult struct {
	OK       bool
	Data     map[string]interface{}
	Error    *CLIError
	Warnings []CLIWarning
	Meta     *CLIMeta
	RawJSON  string
	ExitCode int
}

// CLIError mirrors the envelope's error payload.
type CLIError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// CLIWarning mirrors one envelope warning.
type CLIWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Branch  string `json:"branch,omitempty"`
	Client  string `json:"client,omitempty"`
}

// CLIMeta mirrors the envelope's meta block.
type CLIMeta struct {
	Count       int   `json:"count,omitempty"`
	QueryTimeMs int64 `json:"query_time_ms,omitempty"`
}

// RunCLI runs helio with the environment's --config, --data-dir and
// --json flags prepended, and decodes the envelope.
func (e *TestEnv) RunCLI(args ...string) *CLIResult {
	e.t.Helper()

	binary := BuildCLI(e.t)
	full := append([]string{"--config", e.ConfigPath, "--data-dir", e.DataDir, "--json"}, args...)

	out, err := exec.Command(binary, full...).CombinedOutput()

	code := 0
	if err != nil {
		code = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
	}
	return decodeResult(out, code)
}

func decodeResult(out []byte, exitCode int) *CLIResult {
	r := &CLIResult{RawJSON: string(out), ExitCode: exitCode}

	var envelope struct {
		OK       bool                   `json:"ok"`
		Data     map[string]interface{} `json:"data,omitempty"`
		Error    *CLIError              `json:"error,omitempty"`
		Warnings []CLIWarning           `json:"warnings,omitempty"`
		Meta     *CLIMeta               `json:"meta,omitempty"`
	}
	if err := json.Unmarshal(out, &envelope); err != nil {
		r.Error = &CLIError{
			Code:    "PARSE_ERROR",
			Message: "not a JSON envelope: " + err.Error(),
			Details: string(out),
		}
		return r
	}

	r.OK = envelope.OK
	r.Data = envelope.Data
	r.Error = envelope.Error
	r.Warnings = envelope.Warnings
	r.Meta = envelope.Meta
	return r
}

// MustSucceed fatals unless the envelope reports ok.
func (r *CLIResult) MustSucceed(t *testing.T) *CLIResult {
	t.Helper()
	if r.OK {
		return r
	}
	if r.Error != nil {
		t.Fatalf("command failed with %s: %s\n%s", r.Error.Code, r.Error.Message, r.RawJSON)
	}
	t.Fatalf("command failed without a structured error\n%s", r.RawJSON)
	return r
}

// MustFail fatals unless the envelope reports an error with code.
func (r *CLIResult) MustFail(t *testing.T, code string) *CLIResult {
	t.Helper()
	if r.OK {
		t.Fatalf("command succeeded, want failure %s\n%s", code, r.RawJSON)
	}
	if r.Error == nil {
		t.Fatalf("failure carries no error payload, want code %s\n%s", code, r.RawJSON)
	}
	if r.Error.Code != code {
		t.Fatalf("error code = %s (%s), want %s\n%s", r.Error.Code, r.Error.Message, code, r.RawJSON)
	}
	return r
}

// DataString returns a string field of data, or "".
func (r *CLIResult) DataString(key string) string {
	s, _ := r.Data[key].(string)
	return s
}

// DataInt returns a numeric field of data, or 0. JSON numbers decode
// as float64.
func (r *CLIResult) DataInt(key string) int {
	f, _ := r.Data[key].(float64)
	return int(f)
}

// DataList returns a list field of data, or nil.
func (r *CLIResult) DataList(key string) []interface{} {
	l, _ := r.Data[key].([]interface{})
	return l
}
