package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"cardscraper/pkg/config"
	"cardscraper/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cardscraper",
	Short: "Scrape, enrich, and analyze College of Cardinals profiles",
	Long: `cardscraper is a pipeline for building a stance dataset of Catholic cardinals
from the College of Cardinals Report website.

Stages:
  scrape   - fetch the cardinals table and build the collection file
  enrich   - render each profile's "Where He Stands" section and extract attributes
  analyze  - rate theological stances with a reasoning model
  clean    - drop attributes with unknown labels
  index    - store records and stance vectors in SQLite for similarity queries

Each stage reads and writes the same collection JSON file, so they can be run
independently or as a full pipeline. The enrich and analyze stages checkpoint
their progress and support --resume.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .cardscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`cardscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// setup loads configuration and initializes the logger for a stage command
func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.GetLogger(), nil
}

// collectionPath resolves a stage's collection file, preferring the flag value
func collectionPath(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Join(cfg.Storage.DataDir, "cardinals.json")
}
