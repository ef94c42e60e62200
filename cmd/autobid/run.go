package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	runNoServer bool
	runPort     int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bidding loop",
	Long:  "Monitor active projects, bid on eligible ones and serve the API and websocket stats feed alongside.",
	RunE:  runBot,
}

func init() {
	runCmd.Flags().BoolVar(&runNoServer, "no-server", false, "Do not start the HTTP API")
	runCmd.Flags().IntVar(&runPort, "port", 0, "API port (default $PORT or 8080)")
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireBidding(); err != nil {
		return err
	}

	log.Info().
		Str("version", version).
		Int64("user_id", cfg.FreelancerUserID).
		Strs("skills", cfg.Bot.PrioritySkills).
		Bool("dry_run", cfg.DryRun).
		Msg("⚡ Autobid starting...")

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.converter.Start(ctx)
	defer a.converter.Stop()

	monitor := a.monitor()
	if tg := a.telegram(); tg != nil {
		monitor.SetNotifier(tg)
		tg.Start()
		defer tg.Stop()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return monitor.Run(ctx)
	})
	if !runNoServer {
		port := cfg.Port
		if runPort > 0 {
			port = runPort
		}
		srv := a.server(port)
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	log.Info().Msg("✅ All systems online")

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("❌ Autobid stopped with error")
		return err
	}

	stats := monitor.Stats()
	log.Info().
		Int("cycles", stats.Cycles).
		Int("bids_placed", stats.BidsPlaced).
		Int("bids_failed", stats.BidsFailed).
		Msg("👋 Goodbye!")
	return nil
}
