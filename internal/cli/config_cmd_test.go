package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupConfigGlobals(t *testing.T, cfgPath string) {
	t.Helper()

	prevConfig := configPath
	prevJSON := jsonOutput
	t.Cleanup(func() {
		configPath = prevConfig
		jsonOutput = prevJSON
	})

	configPath = cfgPath
	jsonOutput = true
}

func TestConfigInitCreatesConfigFile(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "nested", "config.toml")
	setupConfigGlobals(t, cfgPath)

	out := captureStdout(t, func() {
		if err := configInitCmd.RunE(configInitCmd, []string{}); err != nil {
			t.Fatalf("configInitCmd.RunE returned error: %v", err)
		}
	})

	content, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("failed to read created config: %v", err)
	}
	if !strings.Contains(string(content), "# helio configuration") {
		t.Fatalf("expected default config header in file, got:\n%s", string(content))
	}

	var resp struct {
		OK   bool `json:"ok"`
		Data struct {
			ConfigPath string `json:"config_path"`
			Created    bool   `json:"created"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse output: %v; out=%s", err, out)
	}
	if !resp.OK || !resp.Data.Created {
		t.Fatalf("expected created=true; out=%s", out)
	}
	if resp.Data.ConfigPath != cfgPath {
		t.Errorf("config_path = %q, want %q", resp.Data.ConfigPath, cfgPath)
	}
}

func TestConfigInitLeavesExistingConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("parallel = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	setupConfigGlobals(t, cfgPath)

	out := captureStdout(t, func() {
		if err := configInitCmd.RunE(configInitCmd, []string{}); err != nil {
			t.Fatalf("configInitCmd.RunE returned error: %v", err)
		}
	})

	var resp struct {
		Data struct {
			Created bool `json:"created"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse output: %v; out=%s", err, out)
	}
	if resp.Data.Created {
		t.Fatalf("expected created=false for an existing file; out=%s", out)
	}

	content, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(content) != "parallel = 2\n" {
		t.Fatalf("existing config was overwritten:\n%s", content)
	}
}

func TestConfigShowResolvesEffectiveValues(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	dataDir := filepath.Join(tmp, "archive")
	content := `data_dir = "` + dataDir + `"
timeout = "30s"
parallel = 2
disabled_clients = ["norh"]

[vso]
endpoint = "http://mirror.test/search"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	setupConfigGlobals(t, cfgPath)
	t.Setenv("HELIO_DATA_DIR", "")

	out := captureStdout(t, func() {
		if err := configCmd.RunE(configCmd, []string{}); err != nil {
			t.Fatalf("configCmd.RunE returned error: %v", err)
		}
	})

	var resp struct {
		OK   bool `json:"ok"`
		Data struct {
			ConfigPath      string   `json:"config_path"`
			Exists          bool     `json:"exists"`
			DataDir         string   `json:"data_dir"`
			DownloadDir     string   `json:"download_dir"`
			Timeout         string   `json:"timeout"`
			Parallel        int      `json:"parallel"`
			DisabledClients []string `json:"disabled_clients"`
			VSOEndpoint     string   `json:"vso_endpoint"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse output: %v; out=%s", err, out)
	}
	if !resp.OK || !resp.Data.Exists {
		t.Fatalf("expected ok=true exists=true; out=%s", out)
	}
	if resp.Data.DataDir != dataDir {
		t.Errorf("data_dir = %q, want %q", resp.Data.DataDir, dataDir)
	}
	if resp.Data.DownloadDir != filepath.Join(dataDir, "files") {
		t.Errorf("download_dir = %q, want %q", resp.Data.DownloadDir, filepath.Join(dataDir, "files"))
	}
	if resp.Data.Timeout != "30s" {
		t.Errorf("timeout = %q, want 30s", resp.Data.Timeout)
	}
	if resp.Data.Parallel != 2 {
		t.Errorf("parallel = %d, want 2", resp.Data.Parallel)
	}
	if len(resp.Data.DisabledClients) != 1 || resp.Data.DisabledClients[0] != "norh" {
		t.Errorf("disabled_clients = %v, want [norh]", resp.Data.DisabledClients)
	}
	if resp.Data.VSOEndpoint != "http://mirror.test/search" {
		t.Errorf("vso_endpoint = %q, want the mirror", resp.Data.VSOEndpoint)
	}
}

func TestConfigShowMissingFile(t *testing.T) {
	tmp := t.TempDir()
	setupConfigGlobals(t, filepath.Join(tmp, "config.toml"))

	out := captureStdout(t, func() {
		if err := configCmd.RunE(configCmd, []string{}); err != nil {
			t.Fatalf("configCmd.RunE returned error: %v", err)
		}
	})

	var resp struct {
		OK   bool `json:"ok"`
		Data struct {
			Exists   bool   `json:"exists"`
			Timeout  string `json:"timeout"`
			Parallel int    `json:"parallel"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse output: %v; out=%s", err, out)
	}
	if !resp.OK || resp.Data.Exists {
		t.Fatalf("expected exists=false; out=%s", out)
	}
	// Defaults still resolve without a file.
	if resp.Data.Timeout != "1m0s" {
		t.Errorf("timeout = %q, want the 60s default", resp.Data.Timeout)
	}
}
