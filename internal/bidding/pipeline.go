package bidding

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/autobid/internal/config"
	"github.com/web3guy0/autobid/internal/filter"
	"github.com/web3guy0/autobid/internal/freelancer"
)

// Pipeline runs rules in order and stops at the first rejection
type Pipeline struct {
	rules []Rule
}

// NewPipeline creates a pipeline over an ordered rule list
func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Rules returns the rule names in evaluation order
func (p *Pipeline) Rules() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name()
	}
	return names
}

// ShouldBid reports whether to bid and, when not, the first failing reason
func (p *Pipeline) ShouldBid(project *freelancer.Project) (bool, string) {
	for _, rule := range p.rules {
		if ok, reason := rule.Check(project); !ok {
			log.Debug().
				Int64("project_id", project.ID).
				Str("rule", rule.Name()).
				Str("reason", reason).
				Msg("🚫 Project rejected")
			return false, reason
		}
	}
	return true, ""
}

// Deps are the collaborators BuildRules wires into the chain
type Deps struct {
	Seen      ProcessedSet
	Converter filter.USDConverter
	Spam      *filter.SpamFilter
}

// BuildRules assembles the standard chain from bot config: processed,
// competition, budget, then the optional client, skill and spam checks.
func BuildRules(cfg *config.BotConfig, deps Deps) []Rule {
	rules := []Rule{
		ProcessedCheck{Seen: deps.Seen},
		CompetitionCheck{MaxBids: cfg.SmartBidding.MaxExistingBids},
		BudgetCheck{
			USDMinimum: decimal.NewFromFloat(cfg.SmartBidding.MinProfitableBudget),
			Floors: map[string]decimal.Decimal{
				"INR": decimal.NewFromFloat(cfg.Currency.MinBudgetINR),
				"PKR": decimal.NewFromFloat(cfg.Currency.MinBudgetPKR),
			},
			Converter: deps.Converter,
		},
	}

	if cfg.ClientFiltering.Enabled {
		rules = append(rules, ClientCheck{Config: cfg.ClientFiltering})
	}
	if cfg.Filtering.PortfolioMatching {
		rules = append(rules, SkillCheck{Skills: cfg.PrioritySkills, MinScore: cfg.Filtering.MinSkillMatchScore})
	}
	if cfg.Filtering.SpamFilterEnabled && deps.Spam != nil {
		rules = append(rules, SpamCheck{Filter: deps.Spam})
	}
	return rules
}
