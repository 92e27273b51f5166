package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helio-search/helio/internal/config"
	"github.com/helio-search/helio/internal/ui"
)

// readGlobalConfig loads the effective config without requiring the file
// to exist. A missing file yields built-in defaults and exists=false.
func readGlobalConfig() (cfg *config.Config, path string, exists bool, err error) {
	path = config.ResolveConfigPath(configPath)

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return &config.Config{}, path, false, nil
	}

	cfg, err = config.LoadFrom(path)
	if err != nil {
		return nil, path, false, err
	}
	return cfg, path, true, nil
}

// effectiveSettings flattens the resolved configuration for the JSON
// envelope. Values reflect defaults and the HELIO_DATA_DIR override,
// not just what the file says.
func effectiveSettings(cfg *config.Config, path string, exists bool) map[string]interface{} {
	return map[string]interface{}{
		"config_path":      path,
		"exists":           exists,
		"data_dir":         cfg.DataDirPath(),
		"download_dir":     cfg.DownloadDirPath(),
		"timeout":          cfg.HTTPTimeout().String(),
		"parallel":         cfg.Parallel,
		"disabled_clients": append([]string{}, cfg.DisabledClients...),
		"vso_endpoint":     strings.TrimSpace(cfg.VSO.Endpoint),
		"jsoc_endpoint":    strings.TrimSpace(cfg.JSOC.Endpoint),
		"ui": map[string]interface{}{
			"accent":     strings.TrimSpace(cfg.UI.Accent),
			"code_theme": strings.TrimSpace(cfg.UI.CodeTheme),
		},
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, path, exists, err := readGlobalConfig()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	if isJSONOutput() {
		outputSuccess(effectiveSettings(cfg, path, exists), nil)
		return nil
	}

	if exists {
		fmt.Printf("config: %s\n", ui.FilePath(path))
	} else {
		fmt.Printf("No config file at %s\n", path)
		fmt.Println(ui.Hint("Run 'helio config init' to write a commented template."))
	}
	fmt.Println()

	table := ui.NewTable(2)
	table.AddRow("data_dir", cfg.DataDirPath())
	table.AddRow("download_dir", cfg.DownloadDirPath())
	table.AddRow("timeout", cfg.HTTPTimeout().String())
	table.AddRow("parallel", strconv.Itoa(cfg.Parallel))
	if len(cfg.DisabledClients) > 0 {
		table.AddRow("disabled_clients", strings.Join(cfg.DisabledClients, ", "))
	}
	if v := strings.TrimSpace(cfg.VSO.Endpoint); v != "" {
		table.AddRow("vso.endpoint", v)
	}
	if v := strings.TrimSpace(cfg.JSOC.Endpoint); v != "" {
		table.AddRow("jsoc.endpoint", v)
	}
	if v := strings.TrimSpace(cfg.UI.Accent); v != "" {
		table.AddRow("ui.accent", v)
	}
	if v := strings.TrimSpace(cfg.UI.CodeTheme); v != "" {
		table.AddRow("ui.code_theme", v)
	}
	fmt.Print(table.String())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	target := config.ResolveConfigPath(configPath)

	_, statErr := os.Stat(target)
	if statErr != nil && !os.IsNotExist(statErr) {
		return handleError(ErrFileReadError, statErr, "")
	}
	existed := statErr == nil

	created, err := config.CreateDefaultAt(target)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"config_path": created,
			"created":     !existed,
		}, nil)
		return nil
	}

	if existed {
		fmt.Printf("Config already exists: %s\n", ui.FilePath(created))
	} else {
		fmt.Println(ui.Successf("Created config: %s", ui.FilePath(created)))
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage global helio config.toml settings",
	Long: `Manage global helio config.toml settings.

'helio config' shows the effective values after defaults and the
HELIO_DATA_DIR override; 'helio config init' writes a commented
template.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the global config.toml if missing",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration values",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
