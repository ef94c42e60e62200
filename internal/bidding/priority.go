package bidding

import (
	"fmt"
	"strings"
	"time"

	"github.com/web3guy0/autobid/internal/filter"
	"github.com/web3guy0/autobid/internal/freelancer"
)

const basePriority = 100

// Scorer ranks eligible projects. Higher is bid on first.
type Scorer struct {
	earlyBird time.Duration
	skills    []string
	converter filter.USDConverter
	now       func() time.Time
}

// NewScorer creates a priority scorer. converter may be nil, in which case
// budget tiers use the project's own currency.
func NewScorer(earlyBird time.Duration, skills []string, converter filter.USDConverter) *Scorer {
	return &Scorer{
		earlyBird: earlyBird,
		skills:    skills,
		converter: converter,
		now:       time.Now,
	}
}

// Priority returns an additive score starting at 100 and the reasons behind it
func (s *Scorer) Priority(p *freelancer.Project) (int, string) {
	score := basePriority
	var reasons []string
	add := func(delta int, reason string) {
		score += delta
		reasons = append(reasons, reason)
	}

	// Recency
	if submitted := p.SubmittedAt(); !submitted.IsZero() {
		age := s.now().Sub(submitted)
		switch {
		case age <= s.earlyBird:
			add(30, fmt.Sprintf("early bird (%dm old)", int(age.Minutes())))
		case age > 24*time.Hour:
			add(-30, "older than 24h")
		}
	}

	// Competition
	bids := p.BidStats.BidCount
	switch {
	case bids < 5:
		add(25, fmt.Sprintf("low competition (%d bids)", bids))
	case bids < 15:
		add(10, fmt.Sprintf("moderate competition (%d bids)", bids))
	case bids > 30:
		add(-20, fmt.Sprintf("high competition (%d bids)", bids))
	}

	// Budget tier in USD
	minimum := p.Budget.Minimum
	if s.converter != nil {
		minimum, _ = s.converter.ToUSD(minimum, p.CurrencyCode())
	}
	minUSD := minimum.InexactFloat64()
	switch {
	case minUSD >= 1000:
		add(30, "high budget")
	case minUSD >= 500:
		add(20, "good budget")
	case minUSD >= 250:
		add(10, "fair budget")
	}

	// Skill match
	if len(s.skills) > 0 {
		match := filter.SkillMatchScore(p, s.skills)
		switch {
		case match >= 0.6:
			add(25, fmt.Sprintf("strong skill match (%.0f%%)", match*100))
		case match >= 0.3:
			add(10, fmt.Sprintf("partial skill match (%.0f%%)", match*100))
		}
	}

	if p.Upgrades.Urgent {
		add(15, "urgent")
	}
	if p.IsElite() {
		add(20, "elite")
	}

	return score, strings.Join(reasons, ", ")
}
