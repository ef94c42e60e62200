package bidding

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/web3guy0/autobid/internal/filter"
	"github.com/web3guy0/autobid/internal/freelancer"
)

const maxProposalSkills = 3

// Proposal is a rendered bid description
type Proposal struct {
	Text         string
	Premium      bool
	PremiumScore int
}

// Enhancer adds technical detail to a proposal for larger projects
type Enhancer interface {
	EnhanceBid(p *freelancer.Project, proposal string) string
}

// Proposer renders bid descriptions from templates with {project_title},
// {skills} and {days} placeholders
type Proposer struct {
	templates        []string
	premiumTemplates []string
	premium          *filter.PremiumFilter
	enhancer         Enhancer

	mu  sync.Mutex
	rng *rand.Rand
}

// NewProposer creates a proposer. premium may be nil to disable premium
// templates.
func NewProposer(templates, premiumTemplates []string, premium *filter.PremiumFilter) *Proposer {
	return &Proposer{
		templates:        templates,
		premiumTemplates: premiumTemplates,
		premium:          premium,
		rng:              rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetEnhancer attaches an optional proposal enhancer
func (g *Proposer) SetEnhancer(e Enhancer) {
	g.enhancer = e
}

// Generate renders a proposal for a delivery period in days
func (g *Proposer) Generate(p *freelancer.Project, days int) Proposal {
	var out Proposal
	templates := g.templates

	if g.premium != nil && len(g.premiumTemplates) > 0 {
		res := g.premium.Evaluate(p)
		out.PremiumScore = res.Score
		if res.IsPremium {
			out.Premium = true
			templates = g.premiumTemplates
		}
	}

	template := "Hi! I can deliver \"{project_title}\" within {days} days using {skills}."
	if len(templates) > 0 {
		g.mu.Lock()
		template = templates[g.rng.IntN(len(templates))]
		g.mu.Unlock()
	}

	out.Text = Render(template, p, days)
	if g.enhancer != nil {
		out.Text = g.enhancer.EnhanceBid(p, out.Text)
	}
	return out
}

// Render fills template placeholders for a project
func Render(template string, p *freelancer.Project, days int) string {
	skills := p.SkillNames()
	if len(skills) > maxProposalSkills {
		skills = skills[:maxProposalSkills]
	}
	skillsText := strings.Join(skills, ", ")
	if skillsText == "" {
		skillsText = "this kind of work"
	}

	return strings.NewReplacer(
		"{project_title}", p.Title,
		"{skills}", skillsText,
		"{days}", strconv.Itoa(days),
	).Replace(template)
}
