package filter

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/autobid/internal/config"
	"github.com/web3guy0/autobid/internal/freelancer"
)

// USDConverter converts an amount in a currency to USD
type USDConverter interface {
	ToUSD(amount decimal.Decimal, code string) (decimal.Decimal, bool)
}

var (
	requirementWords  = []string{"requirements", "need", "looking for", "must have"}
	timelineWords     = []string{"deadline", "timeline", "duration", "timeframe"}
	professionalWords = []string{"please", "thank you", "experience", "portfolio"}

	complexKeywords = []string{
		"architecture", "scalable", "microservices", "distributed",
		"real-time", "high performance", "optimization", "integration",
		"custom solution", "from scratch", "redesign", "migration",
		"api development", "full stack", "end to end", "enterprise",
	}

	techKeywords = []string{
		"react", "vue", "angular", "node", "python", "django", "flask",
		"laravel", "php", "java", "spring", "kotlin", "swift", "flutter",
		"aws", "azure", "docker", "kubernetes", "mongodb", "postgresql",
		"redis", "elasticsearch", "graphql", "rest api", "microservices",
	}
)

// PremiumFactors is the per-dimension breakdown of a premium score
type PremiumFactors struct {
	Description int `json:"description_quality"`
	Budget      int `json:"budget_quality"`
	Employer    int `json:"employer_quality"`
	Complexity  int `json:"project_complexity"`
	Category    int `json:"category_match"`
	Elite       int `json:"elite_status"`
}

// Total sums all factors
func (f PremiumFactors) Total() int {
	return f.Description + f.Budget + f.Employer + f.Complexity + f.Category + f.Elite
}

// PremiumResult is the premium verdict for a project
type PremiumResult struct {
	IsPremium bool           `json:"is_premium"`
	Score     int            `json:"score"`
	Threshold int            `json:"threshold"`
	Factors   PremiumFactors `json:"factors"`
	Reasons   []string       `json:"reasons"`
	Template  string         `json:"template"`
}

// PremiumFilter rates project quality on a 0-100 scale
type PremiumFilter struct {
	cfg       config.PremiumConfig
	converter USDConverter
}

// NewPremiumFilter creates a filter. converter may be nil, in which case
// budgets are scored in the project's own currency.
func NewPremiumFilter(cfg config.PremiumConfig, converter USDConverter) *PremiumFilter {
	if cfg.MinScore <= 0 {
		cfg.MinScore = 60
	}
	if cfg.PreferredBudgetMax <= 0 {
		cfg.PreferredBudgetMin, cfg.PreferredBudgetMax = 500, 5000
	}
	if cfg.MinProjectBudget <= 0 {
		cfg.MinProjectBudget = 250
	}
	return &PremiumFilter{cfg: cfg, converter: converter}
}

// Evaluate scores a project and picks a premium proposal template
func (f *PremiumFilter) Evaluate(p *freelancer.Project) PremiumResult {
	title := fold(p.Title)
	description := fold(p.Description)
	text := title + " " + description

	factors := PremiumFactors{
		Description: f.scoreDescription(p.Description, description),
		Budget:      f.scoreBudget(p),
		Employer:    scoreEmployer(p),
		Complexity:  scoreComplexity(text),
		Category:    f.scoreCategory(text),
	}
	if p.IsElite() || p.Upgrades.Qualified {
		factors.Elite = 5
	}

	score := factors.Total()
	return PremiumResult{
		IsPremium: score >= f.cfg.MinScore,
		Score:     score,
		Threshold: f.cfg.MinScore,
		Factors:   factors,
		Reasons:   premiumReasons(factors),
		Template:  TemplateFor(text),
	}
}

func (f *PremiumFilter) scoreDescription(raw, description string) int {
	score := 0

	words := len(strings.Fields(raw))
	switch {
	case words >= 200:
		score += 5
	case words >= 100:
		score += 3
	case words >= 50:
		score += 1
	}

	if containsAny(description, requirementWords) {
		score += 5
	}
	if containsAny(description, timelineWords) {
		score += 5
	}

	switch n := countContained(description, professionalWords); {
	case n >= 3:
		score += 5
	case n >= 2:
		score += 3
	}

	if !containsAny(description, lowered(f.cfg.AvoidKeywords)) {
		score += 5
	}

	return min(score, 25)
}

func (f *PremiumFilter) scoreBudget(p *freelancer.Project) int {
	minimum := p.Budget.Minimum
	maximum := p.Budget.Maximum
	if f.converter != nil {
		minimum, _ = f.converter.ToUSD(minimum, p.CurrencyCode())
		maximum, _ = f.converter.ToUSD(maximum, p.CurrencyCode())
	}
	minUSD := minimum.InexactFloat64()

	score := 0
	switch {
	case minUSD >= f.cfg.PreferredBudgetMin && minUSD <= f.cfg.PreferredBudgetMax:
		score += 15
	case minUSD >= f.cfg.MinProjectBudget:
		score += 8
	case minUSD >= 100:
		score += 3
	}

	if p.IsHourly() && minUSD >= 50 {
		score += 5
	}

	if maximum.IsPositive() && minimum.IsPositive() &&
		maximum.Div(minimum).LessThanOrEqual(decimal.NewFromInt(3)) {
		score += 5
	}

	return min(score, 25)
}

func scoreEmployer(p *freelancer.Project) int {
	history := p.Owner.Reputation.EntireHistory
	score := 0

	switch {
	case history.Overall >= 4.8:
		score += 8
	case history.Overall >= 4.5:
		score += 6
	case history.Overall >= 4.0:
		score += 4
	}

	if p.Owner.Status.PaymentVerified {
		score += 6
	}

	switch {
	case history.Projects >= 20:
		score += 6
	case history.Projects >= 10:
		score += 4
	case history.Projects >= 5:
		score += 2
	}

	return min(score, 20)
}

func scoreComplexity(text string) int {
	score := 0

	switch n := countContained(text, complexKeywords); {
	case n >= 3:
		score += 8
	case n >= 2:
		score += 5
	case n >= 1:
		score += 3
	}

	switch n := countContained(text, techKeywords); {
	case n >= 4:
		score += 7
	case n >= 3:
		score += 5
	case n >= 2:
		score += 3
	}

	return min(score, 15)
}

func (f *PremiumFilter) scoreCategory(text string) int {
	best := 0
	for _, keywords := range f.cfg.Categories {
		matches := countContained(text, lowered(keywords))
		if matches > 0 {
			best = max(best, min(matches*2, 10))
		}
	}
	return best
}

func premiumReasons(f PremiumFactors) []string {
	var reasons []string
	if f.Description >= 15 {
		reasons = append(reasons, "Well-written description")
	}
	if f.Budget >= 15 {
		reasons = append(reasons, "Preferred budget range")
	}
	if f.Employer >= 12 {
		reasons = append(reasons, "Reputable employer")
	}
	if f.Complexity >= 8 {
		reasons = append(reasons, "Complex technical scope")
	}
	if f.Category > 0 {
		reasons = append(reasons, "Matches premium category")
	}
	if f.Elite > 0 {
		reasons = append(reasons, "Elite project")
	}
	return reasons
}

// Premium proposal template keys
const (
	TemplateConsultant        = "consultant"
	TemplateTechnicalExpert   = "technical_expert"
	TemplateSolutionArchitect = "solution_architect"
)

// TemplateFor picks a premium template key from folded project text
func TemplateFor(text string) string {
	switch {
	case containsAny(text, []string{"architect", "design", "scalable", "enterprise"}):
		return TemplateSolutionArchitect
	case containsAny(text, []string{"expert", "senior", "complex", "advanced"}):
		return TemplateTechnicalExpert
	default:
		return TemplateConsultant
	}
}

func lowered(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = fold(w)
	}
	return out
}
