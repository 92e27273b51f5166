// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helio-search/helio/internal/config"
	"github.com/helio-search/helio/internal/ui"
)

var (
	// Global flags
	configPath  string
	dataDirFlag string

	// Resolved values
	resolvedDataDir string
	cfg             *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "helio",
	Short: "Helio - federated solar archive search",
	Long: `Helio searches solar physics archives through one query language and
downloads the files they return.

A query combines criteria such as time, instrument and wavelength with
'&' and '|'. Every archive client that accepts a query branch is
searched; results come back in query order, per client.

Run 'helio docs search-syntax' for the query grammar.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "config", "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && (cmd.Parent().Name() == "completion" || cmd.Parent().Name() == "config") {
			return nil
		}

		var err error
		cfg, err = loadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

		// Data directory precedence: --data-dir flag, then HELIO_DATA_DIR,
		// then config, then the XDG data directory. It is created on first
		// use, so no existence check here.
		if dataDirFlag != "" {
			resolvedDataDir = dataDirFlag
		} else {
			resolvedDataDir = cfg.DataDirPath()
		}

		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory for search history and downloads")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	return cfg
}

// getDataDir returns the resolved data directory.
func getDataDir() string {
	return resolvedDataDir
}

func loadGlobalConfig() (*config.Config, error) {
	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}
	return loadedCfg, nil
}
