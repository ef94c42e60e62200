package filter

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/web3guy0/autobid/internal/freelancer"
)

// SkillMatchScore returns the share of the project's skill tags we cover.
// Projects without tags fall back to the share of our skills mentioned in
// the title or description.
func SkillMatchScore(p *freelancer.Project, skills []string) float64 {
	if len(skills) == 0 {
		return 0
	}

	ours := mapset.NewThreadUnsafeSet[string]()
	for _, s := range skills {
		ours.Add(fold(strings.TrimSpace(s)))
	}

	tags := mapset.NewThreadUnsafeSet[string]()
	for _, name := range p.SkillNames() {
		tags.Add(fold(strings.TrimSpace(name)))
	}

	if tags.Cardinality() > 0 {
		return float64(tags.Intersect(ours).Cardinality()) / float64(tags.Cardinality())
	}

	text := fold(p.Title + " " + p.Description)
	mentioned := 0
	for skill := range ours.Iter() {
		if skill != "" && strings.Contains(text, skill) {
			mentioned++
		}
	}
	return float64(mentioned) / float64(ours.Cardinality())
}

// MatchedSkills returns the project tags that appear in skills, in project order
func MatchedSkills(p *freelancer.Project, skills []string) []string {
	ours := mapset.NewThreadUnsafeSet[string]()
	for _, s := range skills {
		ours.Add(fold(s))
	}

	var matched []string
	for _, name := range p.SkillNames() {
		if ours.Contains(fold(name)) {
			matched = append(matched, name)
		}
	}
	return matched
}
