package filter

import (
	"fmt"

	"github.com/web3guy0/autobid/internal/config"
	"github.com/web3guy0/autobid/internal/freelancer"
)

// ClientResult is the client-quality verdict
type ClientResult struct {
	Approved bool     `json:"approved"`
	Reasons  []string `json:"reasons"`
}

// EvaluateClient checks the project owner against the configured criteria.
// Payment is satisfied by a verified payment method or a deposit. Rating,
// completion rate and project count are only enforced for owners with
// reviews, so new clients are not rejected for lack of history.
func EvaluateClient(p *freelancer.Project, c config.ClientFilteringConfig) ClientResult {
	var reasons []string
	owner := p.Owner
	history := owner.Reputation.EntireHistory

	if c.CheckPaymentVerified && !owner.Status.PaymentVerified && !owner.Status.DepositMade {
		reasons = append(reasons, "Client has no verified payment or deposit")
	}

	if history.Reviews > 0 {
		if history.Overall < c.MinClientRating {
			reasons = append(reasons, fmt.Sprintf("Client rating %.1f below %.1f", history.Overall, c.MinClientRating))
		}
		if history.CompletionRate > 0 && history.CompletionRate < c.MinCompletionRate {
			reasons = append(reasons, fmt.Sprintf("Completion rate %.0f%% below %.0f%%",
				history.CompletionRate*100, c.MinCompletionRate*100))
		}
		if history.Projects < c.MinProjectsPosted {
			reasons = append(reasons, fmt.Sprintf("Client posted %d projects, need %d", history.Projects, c.MinProjectsPosted))
		}
	}

	return ClientResult{Approved: len(reasons) == 0, Reasons: reasons}
}
