package sdlc

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog/log"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ANALYZER - Keyword heuristics over the project description
// ═══════════════════════════════════════════════════════════════════════════════

// FeatureExtractor pulls key features out of free text, usually with an LLM
type FeatureExtractor interface {
	ExtractFeatures(ctx context.Context, description string) ([]string, error)
}

type keywordGroup struct {
	name     string
	keywords []string
}

// Ordered so ties resolve to the earlier type
var projectTypes = []keywordGroup{
	{"web_app", []string{"website", "web app", "web application", "frontend", "backend", "full stack"}},
	{"mobile_app", []string{"mobile", "ios", "android", "react native", "flutter"}},
	{"desktop_app", []string{"desktop", "windows", "mac", "linux", "electron"}},
	{"api", []string{"api", "rest", "graphql", "microservice", "backend service"}},
	{"data_science", []string{"machine learning", "ml", "ai", "data analysis", "prediction", "model"}},
	{"blockchain", []string{"blockchain", "smart contract", "web3", "defi", "nft"}},
	{"iot", []string{"iot", "embedded", "arduino", "raspberry pi", "sensor"}},
	{"game", []string{"game", "unity", "unreal", "gaming", "multiplayer"}},
	{"automation", []string{"automation", "bot", "scraping", "workflow", "integration"}},
	{"ecommerce", []string{"ecommerce", "online store", "shopping cart", "payment integration"}},
}

const generalType = "general"

var technologies = []keywordGroup{
	// languages
	{"python", []string{"python", "django", "flask", "fastapi"}},
	{"javascript", []string{"javascript", "js", "node", "react", "vue", "angular"}},
	{"java", []string{"java", "spring", "springboot"}},
	{"csharp", []string{"c#", "csharp", ".net", "asp.net"}},
	{"php", []string{"php", "laravel", "symfony", "wordpress"}},
	{"ruby", []string{"ruby", "rails", "ruby on rails"}},
	{"go", []string{"golang", "go", "gin"}},
	{"rust", []string{"rust", "actix", "rocket"}},
	{"swift", []string{"swift", "ios", "swiftui"}},
	{"kotlin", []string{"kotlin", "android"}},
	// databases
	{"mysql", []string{"mysql", "mariadb"}},
	{"postgresql", []string{"postgresql", "postgres", "psql"}},
	{"mongodb", []string{"mongodb", "mongo", "nosql"}},
	{"redis", []string{"redis", "cache"}},
	{"elasticsearch", []string{"elasticsearch", "elastic"}},
	{"firebase", []string{"firebase", "firestore"}},
	// cloud
	{"aws", []string{"aws", "amazon web services", "ec2", "s3", "lambda"}},
	{"azure", []string{"azure", "microsoft cloud"}},
	{"gcp", []string{"google cloud", "gcp", "google cloud platform"}},
	{"heroku", []string{"heroku"}},
	{"vercel", []string{"vercel", "next.js"}},
	{"netlify", []string{"netlify"}},
}

var featurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:feature|functionality|capability|ability to|should be able to|must have|need to)\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)(?:implement|create|build|develop|design)\s+([^.!?]+)`),
	regexp.MustCompile(`(?:-|\*|•)\s*([^.\n]+)`),
}

const (
	matchesPerPattern = 5
	maxFeatures       = 10
)

var (
	complexKeywords = []string{"complex", "advanced", "sophisticated", "enterprise", "scalable",
		"high-performance", "distributed", "microservices", "machine learning"}
	simpleKeywords = []string{"simple", "basic", "straightforward", "minimal", "prototype", "mvp"}
)

var baseHours = map[string]map[string]int{
	ComplexityLow:    {"web_app": 40, "mobile_app": 60, "api": 30, "default": 40},
	ComplexityMedium: {"web_app": 120, "mobile_app": 160, "api": 80, "default": 100},
	ComplexityHigh:   {"web_app": 300, "mobile_app": 400, "api": 200, "default": 250},
}

// budgetHourlyRate converts a budget into hours for the estimate blend
const budgetHourlyRate = 75

// Analyzer derives an Analysis from a description. Features come from the
// extractor when one is set and it succeeds, else from pattern matching.
type Analyzer struct {
	extractor FeatureExtractor
}

func NewAnalyzer(extractor FeatureExtractor) *Analyzer {
	return &Analyzer{extractor: extractor}
}

// Analyze classifies the description. budgetUSD blends a budget-derived
// hour count into the estimate when positive.
func (a *Analyzer) Analyze(ctx context.Context, description string, budgetUSD float64) Analysis {
	lower := strings.ToLower(description)

	features := a.features(ctx, description)
	complexity := estimateComplexity(description, len(features))
	projectType := detectProjectType(lower)

	an := Analysis{
		ProjectType:    projectType,
		Complexity:     complexity,
		EstimatedHours: estimateHours(complexity, projectType, budgetUSD),
		Technologies:   detectTechnologies(lower),
		KeyFeatures:    features,
		Risks:          identifyRisks(lower, complexity),
	}

	log.Info().
		Str("type", an.ProjectType).
		Str("complexity", an.Complexity).
		Int("hours", an.EstimatedHours).
		Int("features", len(an.KeyFeatures)).
		Msg("🔍 Project analyzed")
	return an
}

func (a *Analyzer) features(ctx context.Context, description string) []string {
	if a.extractor != nil {
		features, err := a.extractor.ExtractFeatures(ctx, description)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ LLM feature extraction failed, using patterns")
		} else if len(features) > 0 {
			if len(features) > maxFeatures {
				features = features[:maxFeatures]
			}
			return features
		}
	}
	return extractFeatures(description)
}

func extractFeatures(description string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	features := []string{}
	for _, re := range featurePatterns {
		for _, m := range re.FindAllStringSubmatch(description, matchesPerPattern) {
			f := strings.TrimSpace(m[1])
			if f == "" || !seen.Add(f) {
				continue
			}
			features = append(features, f)
		}
	}
	if len(features) > maxFeatures {
		features = features[:maxFeatures]
	}
	return features
}

func detectProjectType(lower string) string {
	best, bestScore := generalType, 0
	for _, g := range projectTypes {
		score := 0
		for _, kw := range g.keywords {
			if containsWord(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = g.name, score
		}
	}
	return best
}

func detectTechnologies(lower string) []string {
	techs := []string{}
	for _, g := range technologies {
		for _, kw := range g.keywords {
			if containsWord(lower, kw) {
				techs = append(techs, g.name)
				break
			}
		}
	}
	return techs
}

func estimateComplexity(description string, featureCount int) string {
	lower := strings.ToLower(description)
	words := len(strings.Fields(description))

	complexScore, simpleScore := 0, 0
	for _, kw := range complexKeywords {
		if strings.Contains(lower, kw) {
			complexScore++
		}
	}
	for _, kw := range simpleKeywords {
		if strings.Contains(lower, kw) {
			simpleScore++
		}
	}

	switch {
	case complexScore >= 3 || featureCount >= 10 || words > 500:
		return ComplexityHigh
	case simpleScore >= 2 || featureCount <= 3 || words < 100:
		return ComplexityLow
	default:
		return ComplexityMedium
	}
}

func estimateHours(complexity, projectType string, budgetUSD float64) int {
	table := baseHours[complexity]
	hours, ok := table[projectType]
	if !ok {
		hours = table["default"]
	}
	if budgetUSD > 0 {
		return int((float64(hours) + budgetUSD/budgetHourlyRate) / 2)
	}
	return hours
}

func identifyRisks(lower, complexity string) []string {
	var risks []string
	if strings.Contains(lower, "urgent") || strings.Contains(lower, "asap") {
		risks = append(risks, "Tight deadline - may affect quality")
	}
	if strings.Contains(lower, "integrate") || strings.Contains(lower, "third-party") {
		risks = append(risks, "Third-party integration dependencies")
	}
	if complexity == ComplexityHigh {
		risks = append(risks, "High complexity - requires experienced developers")
	}
	if strings.Contains(lower, "real-time") {
		risks = append(risks, "Real-time requirements - performance critical")
	}
	if strings.Contains(lower, "payment") || strings.Contains(lower, "financial") {
		risks = append(risks, "Financial transactions - security critical")
	}
	if len(risks) == 0 {
		risks = append(risks, "Standard project risks apply")
	}
	return risks
}

// containsWord reports whether kw occurs in text without letters or digits
// directly around it, so "ml" does not match "html".
func containsWord(text, kw string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)

		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (i == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		start = i + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
