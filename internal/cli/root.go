// Package cli provides the command-line interface for sitewatch.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/sitewatch/internal/config"
	"github.com/ppiankov/sitewatch/internal/logging"
	"github.com/ppiankov/sitewatch/internal/source"
	"github.com/ppiankov/sitewatch/internal/store"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	configDir = config.DefaultConfigDir
	logLevel  string
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:          "sitewatch",
	Short:        "Watch competitor, partner and inspiration sites for new posts",
	Long:         "sitewatch checks a list of web pages and feeds for their latest post, detects when it changes, and keeps a short extractive summary of each update.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("sitewatch %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", config.DefaultConfigDir, "config directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads config.yaml from the config dir. Without one, defaults
// are used so that ad-hoc commands work before init.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if config.IsNotExist(err) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func newChecker(cfg *config.Config, alwaysSummarize bool) *source.Checker {
	return source.NewChecker(
		source.WithUserAgent(cfg.HTTP.UserAgent),
		source.WithTimeouts(cfg.HTTP.PageTimeout.Duration, cfg.HTTP.FeedTimeout.Duration),
		source.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		source.WithAlwaysSummarize(alwaysSummarize),
	)
}
