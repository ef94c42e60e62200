package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/web3guy0/autobid/internal/dashboard"
	"github.com/web3guy0/autobid/internal/ratelimit"
	"github.com/web3guy0/autobid/internal/state"
)

var (
	statusWatch    bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bot status from the state store",
	Long:  "Print the bot status, counters, API quota and recent bids. With --watch, show a live terminal dashboard.",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep refreshing in a live dashboard")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", dashboard.DefaultRefresh, "Refresh interval for --watch")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := state.Open(ctx, cfg.RedisURL)
	defer store.Close()
	limiter := ratelimit.New(cfg.DataPath("rate_limit_tracking.json"), ratelimit.DefaultLimits())

	if statusWatch {
		return dashboard.Run(ctx, store, limiter, statusInterval)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	data := dashboard.Fetch(fetchCtx, store, limiter)

	width := 0
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	fmt.Fprintln(cmd.OutOrStdout(), dashboard.Render(data, width))
	return data.Err
}
