package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/web3guy0/autobid/internal/freelancer"
)

var verifyTokenCmd = &cobra.Command{
	Use:   "verify-token",
	Short: "Check the Freelancer OAuth token",
	Long:  "Load the configured user's profile with FREELANCER_OAUTH_TOKEN and report whether the token is accepted.",
	RunE:  runVerifyToken,
}

func init() {
	rootCmd.AddCommand(verifyTokenCmd)
}

func runVerifyToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireBidding(); err != nil {
		return err
	}

	client := freelancer.NewClient(cfg.FreelancerAPIURL, cfg.FreelancerToken, cfg.FreelancerUserID, cfg.HTTPTimeout)
	return verifyToken(cmd.Context(), client, cmd)
}

type tokenVerifier interface {
	VerifyToken(ctx context.Context) (*freelancer.User, error)
}

func verifyToken(ctx context.Context, v tokenVerifier, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	user, err := v.VerifyToken(ctx)
	if err != nil {
		if errors.Is(err, freelancer.ErrInvalidToken) {
			fmt.Fprintln(out, "❌ Token rejected: generate a new OAuth token and update FREELANCER_OAUTH_TOKEN")
		}
		return fmt.Errorf("token verification failed: %w", err)
	}

	rep := user.Reputation.EntireHistory
	fmt.Fprintln(out, "✅ Token is valid")
	fmt.Fprintf(out, "   User:     %s (%s)\n", user.Username, user.DisplayName)
	fmt.Fprintf(out, "   ID:       %d\n", user.ID)
	fmt.Fprintf(out, "   Role:     %s\n", user.Role)
	fmt.Fprintf(out, "   Rating:   %.2f over %d reviews\n", rep.Overall, rep.Reviews)
	fmt.Fprintf(out, "   Verified: payment=%t email=%t\n", user.Status.PaymentVerified, user.Status.EmailVerified)
	return nil
}
