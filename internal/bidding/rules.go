package bidding

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/autobid/internal/config"
	"github.com/web3guy0/autobid/internal/filter"
	"github.com/web3guy0/autobid/internal/freelancer"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RULES - Independent eligibility checks
// ═══════════════════════════════════════════════════════════════════════════════

// Rule is one eligibility check. Check returns false with a reason to reject.
type Rule interface {
	Name() string
	Check(p *freelancer.Project) (bool, string)
}

// ReasonProcessed is the rejection reason for projects already handled
const ReasonProcessed = "already processed"

// ProcessedSet reports whether a project was already handled
type ProcessedSet interface {
	Contains(id int64) bool
}

// ProcessedCheck rejects projects already bid on or skipped
type ProcessedCheck struct {
	Seen ProcessedSet
}

func (ProcessedCheck) Name() string { return "processed" }

func (c ProcessedCheck) Check(p *freelancer.Project) (bool, string) {
	if c.Seen != nil && c.Seen.Contains(p.ID) {
		return false, ReasonProcessed
	}
	return true, ""
}

// CompetitionCheck rejects projects with more than MaxBids bids
type CompetitionCheck struct {
	MaxBids int
}

func (CompetitionCheck) Name() string { return "competition" }

func (c CompetitionCheck) Check(p *freelancer.Project) (bool, string) {
	if p.BidStats.BidCount > c.MaxBids {
		return false, fmt.Sprintf("too many bids (%d > %d)", p.BidStats.BidCount, c.MaxBids)
	}
	return true, ""
}

// BudgetCheck compares the minimum budget with a per-currency floor.
// Currencies without their own floor are converted to USD.
type BudgetCheck struct {
	USDMinimum decimal.Decimal
	Floors     map[string]decimal.Decimal // native floors, e.g. INR, PKR
	Converter  filter.USDConverter
}

func (BudgetCheck) Name() string { return "budget" }

func (c BudgetCheck) Check(p *freelancer.Project) (bool, string) {
	code := p.CurrencyCode()
	minimum := p.Budget.Minimum

	if floor, ok := c.Floors[code]; ok {
		if minimum.LessThan(floor) {
			return false, fmt.Sprintf("budget %s %s below %s %s", minimum.String(), code, floor.String(), code)
		}
		return true, ""
	}

	usd := minimum
	if code != "USD" {
		if c.Converter == nil {
			return false, "no exchange rate for " + code
		}
		var ok bool
		if usd, ok = c.Converter.ToUSD(minimum, code); !ok {
			return false, "no exchange rate for " + code
		}
	}
	if usd.LessThan(c.USDMinimum) {
		return false, fmt.Sprintf("budget $%s below $%s", usd.StringFixed(2), c.USDMinimum.StringFixed(2))
	}
	return true, ""
}

// ClientCheck applies client quality filtering
type ClientCheck struct {
	Config config.ClientFilteringConfig
}

func (ClientCheck) Name() string { return "client" }

func (c ClientCheck) Check(p *freelancer.Project) (bool, string) {
	res := filter.EvaluateClient(p, c.Config)
	if !res.Approved {
		return false, "client: " + strings.Join(res.Reasons, "; ")
	}
	return true, ""
}

// SkillCheck requires a minimum share of the project's skills
type SkillCheck struct {
	Skills   []string
	MinScore float64
}

func (SkillCheck) Name() string { return "skill" }

func (c SkillCheck) Check(p *freelancer.Project) (bool, string) {
	score := filter.SkillMatchScore(p, c.Skills)
	if score < c.MinScore {
		return false, fmt.Sprintf("skill match %.2f below %.2f", score, c.MinScore)
	}
	return true, ""
}

// SpamCheck rejects projects the spam filter flags
type SpamCheck struct {
	Filter *filter.SpamFilter
}

func (SpamCheck) Name() string { return "spam" }

func (c SpamCheck) Check(p *freelancer.Project) (bool, string) {
	res := c.Filter.Check(p)
	if res.IsSpam {
		return false, fmt.Sprintf("spam score %d: %s", res.Score, strings.Join(res.Reasons, ", "))
	}
	return true, ""
}
