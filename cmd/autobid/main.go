// Autobid - Freelancer auto-bidding agent
//
// Polls the marketplace for projects matching configured skills, filters out
// spam and low-value work, and bids at the client's minimum budget. Awarded
// projects are tracked through delivery with generated task plans.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/web3guy0/autobid/internal/config"
)

const version = "1.0.0"

var (
	debugFlag  bool
	dryRunFlag bool
)

var rootCmd = &cobra.Command{
	Use:     "autobid",
	Short:   "Freelancer auto-bidding agent",
	Long:    "Autobid monitors Freelancer.com for matching projects, places bids automatically and manages awarded projects.",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(debugFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Run the full pipeline without posting bids")
}

func main() {
	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// loadConfig applies command line overrides on top of the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dryRunFlag {
		cfg.DryRun = true
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg, nil
}
