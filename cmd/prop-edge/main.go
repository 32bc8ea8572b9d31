// Package main provides the prop-edge command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/config"
	applogger "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	logger     *logrus.Logger
	settings   *service.Settings
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:           "prop-edge",
	Short:         "Player prop edge scanner and slip optimizer",
	Long:          `Scan sportsbook player props for edges against pick'em fixed prices and build ranked slips.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, settings, err = loadConfig(cmd.Context(), configFile)
		if err != nil {
			return err
		}
		logger = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		// one-shot commands print their results as JSON on stdout
		if cmd.Name() != "serve" {
			logger.SetOutput(os.Stderr)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("prop-edge %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return nil
	},
}

func main() {
	rootCmd.AddCommand(scanCmd, slipsCmd, trendingCmd, edgeCmd, evCmd, middleCmd, serveCmd, versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// loadConfig reads, overlays secrets onto and validates the configuration, then builds the
// pricing settings from it.
func loadConfig(ctx context.Context, path string) (*config.Config, *service.Settings, error) {
	c, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(c); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.ValidateEnvironment(c); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s, err := service.NewSettings(c)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid pricing settings: %w", err)
	}
	return c, s, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
