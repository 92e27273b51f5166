// Package config handles global helio configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/helio-search/helio/internal/atomicfile"
)

// DataDirEnv overrides the data directory when set.
const DataDirEnv = "HELIO_DATA_DIR"

const defaultTimeout = 60 * time.Second

// Config represents the global helio configuration.
type Config struct {
	// DataDir holds the search history database and downloads.
	// Defaults to the XDG data directory.
	DataDir string `toml:"data_dir"`

	// DownloadDir is where fetched files land. Defaults to
	// <data_dir>/files.
	DownloadDir string `toml:"download_dir"`

	// Timeout is the HTTP timeout for archive requests, as a duration
	// string like "90s". Defaults to 60s.
	Timeout string `toml:"timeout"`

	// Parallel bounds concurrent branch searches and downloads.
	Parallel int `toml:"parallel"`

	// DisabledClients lists archive clients to leave out, by name.
	DisabledClients []string `toml:"disabled_clients"`

	// VSO configures the Virtual Solar Observatory client.
	VSO EndpointConfig `toml:"vso"`

	// JSOC configures the JSOC export client.
	JSOC EndpointConfig `toml:"jsoc"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// EndpointConfig overrides one archive endpoint.
type EndpointConfig struct {
	Endpoint string `toml:"endpoint"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown
	// rendering. Supported values are ANSI color codes ("0" to "255")
	// or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered
	// markdown code blocks. Example values: "monokai", "dracula",
	// "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if config.Timeout != "" {
		if _, err := time.ParseDuration(config.Timeout); err != nil {
			return nil, fmt.Errorf("config %s: invalid timeout %q", path, config.Timeout)
		}
	}
	if config.Parallel < 0 {
		return nil, fmt.Errorf("config %s: parallel must not be negative", path)
	}
	return &config, nil
}

// ResolveConfigPath resolves the effective config path from an optional
// override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/helio/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "helio", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "helio", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// XDGPath returns the XDG-style config path (~/.config/helio/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "helio", "config.toml"), nil
}

// CreateDefault creates a default config file at the default path if it
// doesn't exist.
func CreateDefault() (string, error) {
	return CreateDefaultAt(DefaultPath())
}

// CreateDefaultAt creates a default config file at the given path if it
// doesn't exist.
func CreateDefaultAt(configPath string) (string, error) {
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil // Already exists
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# helio configuration

# Where the search history and downloads live.
# data_dir = "~/solar-data"

# Where 'helio fetch' puts files. Defaults to <data_dir>/files.
# download_dir = "~/solar-data/files"

# HTTP timeout for archive requests.
# timeout = "60s"

# Concurrent branch searches and downloads.
# parallel = 4

# Archive clients to leave out.
# disabled_clients = ["norh", "gbm"]

# Archive endpoint overrides, mainly for mirrors.
# [vso]
# endpoint = "https://vso.nascom.nasa.gov/cgi-bin/search"
# [jsoc]
# endpoint = "http://jsoc.stanford.edu/cgi-bin/ajax/jsoc_fetch"

# Optional UI accent color for terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "214"
# code_theme = "monokai"
`

	if err := atomicfile.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}

// HTTPTimeout returns the configured archive request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.Timeout == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

// DataDirPath resolves the data directory: the environment override,
// then the config value, then the XDG data directory.
func (c *Config) DataDirPath() string {
	if env := os.Getenv(DataDirEnv); env != "" {
		return expandHome(env)
	}
	if c.DataDir != "" {
		return expandHome(c.DataDir)
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "helio")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "helio")
	}
	return filepath.Join(".", "helio-data")
}

// DownloadDirPath resolves where fetched files land.
func (c *Config) DownloadDirPath() string {
	if c.DownloadDir != "" {
		return expandHome(c.DownloadDir)
	}
	return filepath.Join(c.DataDirPath(), "files")
}

// ClientEnabled reports whether the named client should be registered.
func (c *Config) ClientEnabled(name string) bool {
	for _, d := range c.DisabledClients {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return false
		}
	}
	return true
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
