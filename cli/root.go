// Package cli holds the demo-labeler commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"demo-labeler/client"
	"demo-labeler/config"
	"demo-labeler/logging"
)

const appName = "demo-labeler"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Label every frame of recorded robot demonstrations as good or bad",
	Long: `demo-labeler serves recorded demonstrations and their per-frame labels,
and labels them interactively from the terminal.

  serve    run the labeling service
  label    open the interactive labeler
  demos    list demos with their label counts
  clear    reset every label of a demo`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(serveCmd, labelCmd, demosCmd, clearCmd)
}

// Execute runs the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the persistent flags on top of the loaded configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, fallback io.Writer) (hclog.Logger, io.Closer, error) {
	logger, closer, err := logging.New(appName, cfg.Logging, fallback)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, closer, nil
}

func newClient(cfg *config.Config, logger hclog.Logger) (*client.Client, error) {
	return client.New(cfg.Client.BackendURL,
		client.WithAPIKey(cfg.Client.APIKey),
		client.WithLogger(logger),
	)
}
