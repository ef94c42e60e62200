package sdlc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/web3guy0/autobid/internal/freelancer"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SERVICE - Cached analysis plugged into the bidding pipeline
// ═══════════════════════════════════════════════════════════════════════════════

// CacheFile is the analysis cache name inside the data directory
const CacheFile = "sdlc_analysis_cache.json"

const (
	// MaxBidLength is the longest description the marketplace accepts
	MaxBidLength    = 4000
	analysisTimeout = 30 * time.Second
)

var maxBudgetShare = decimal.NewFromFloat(0.9)

var hourlyRates = map[string]int64{
	ComplexityLow:    25,
	ComplexityMedium: 50,
	ComplexityHigh:   75,
}

var devKeywords = []string{
	"develop", "build", "create", "application", "website", "app",
	"system", "platform", "software", "api", "backend", "frontend",
}

// Converter converts between a currency and USD
type Converter interface {
	ToUSD(amount decimal.Decimal, code string) (decimal.Decimal, bool)
	FromUSD(usd decimal.Decimal, code string) decimal.Decimal
}

// Result is one cached project analysis
type Result struct {
	ProjectID int64     `json:"project_id"`
	Timestamp time.Time `json:"timestamp"`
	Documents Documents `json:"documents"`
}

// Service analyzes projects once and remembers the result
type Service struct {
	analyzer  *Analyzer
	converter Converter
	minBudget decimal.Decimal
	cachePath string

	mu    sync.Mutex
	cache map[string]*Result

	now func() time.Time
}

// NewService creates a service. converter may be nil for USD-only use and
// an empty cachePath keeps results in memory.
func NewService(analyzer *Analyzer, converter Converter, minBudgetUSD decimal.Decimal, cachePath string) *Service {
	if analyzer == nil {
		analyzer = NewAnalyzer(nil)
	}
	s := &Service{
		analyzer:  analyzer,
		converter: converter,
		minBudget: minBudgetUSD,
		cachePath: cachePath,
		cache:     make(map[string]*Result),
		now:       time.Now,
	}
	s.load()
	return s
}

// Generate runs analysis, SRS, design and plan for a description
func (s *Service) Generate(ctx context.Context, title, description string, budgetUSD float64) *Documents {
	an := s.analyzer.Analyze(ctx, description, budgetUSD)
	srs := GenerateSRS(title, an)
	design := GenerateDesign(srs, an)
	plan := GeneratePlan(design, an, an.EstimatedHours, s.now())

	return &Documents{
		ID:       uuid.NewString(),
		Title:    srs.ProjectTitle,
		Analysis: an,
		SRS:      srs,
		Design:   design,
		Plan:     plan,
	}
}

// ShouldAnalyze reports whether a project is a development job with a
// minimum budget of at least the configured USD-equivalent that has not
// been analyzed yet.
func (s *Service) ShouldAnalyze(p *freelancer.Project) bool {
	if _, ok := s.Cached(p.ID); ok {
		return false
	}
	usd, ok := s.budgetUSD(p.Budget.Minimum, p.CurrencyCode())
	if !ok || usd.LessThan(s.minBudget) {
		return false
	}
	text := strings.ToLower(p.Title + " " + p.Description)
	for _, kw := range devKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Cached returns a stored analysis
func (s *Service) Cached(projectID int64) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.cache[strconv.FormatInt(projectID, 10)]
	return r, ok
}

// AnalyzeProject returns the cached analysis or generates and stores one
func (s *Service) AnalyzeProject(ctx context.Context, p *freelancer.Project) *Result {
	if r, ok := s.Cached(p.ID); ok {
		log.Debug().Int64("project_id", p.ID).Msg("Using cached SDLC analysis")
		return r
	}

	usd, _ := s.budgetUSD(p.Budget.Minimum, p.CurrencyCode())
	docs := s.Generate(ctx, p.Title, p.Description, usd.InexactFloat64())
	r := &Result{ProjectID: p.ID, Timestamp: s.now(), Documents: *docs}

	s.mu.Lock()
	s.cache[strconv.FormatInt(p.ID, 10)] = r
	s.saveLocked()
	s.mu.Unlock()

	log.Info().Int64("project_id", p.ID).Str("doc_id", docs.ID).Msg("✅ SDLC analysis complete")
	return r
}

// EnhanceBid appends the analysis summary to a proposal when the project
// qualifies, keeping the result within MaxBidLength characters.
func (s *Service) EnhanceBid(p *freelancer.Project, proposal string) string {
	r, ok := s.Cached(p.ID)
	if !ok {
		if !s.ShouldAnalyze(p) {
			return proposal
		}
		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()
		r = s.AnalyzeProject(ctx, p)
	}
	return truncate(proposal+enhancement(&r.Documents), MaxBidLength)
}

func enhancement(d *Documents) string {
	title := cases.Title(language.English)
	an := d.Analysis

	var b strings.Builder
	b.WriteString("\n\n**Project Analysis & Approach:**\n")
	fmt.Fprintf(&b, "• Project Type: %s\n", title.String(strings.ReplaceAll(an.ProjectType, "_", " ")))
	fmt.Fprintf(&b, "• Complexity: %s\n", title.String(an.Complexity))
	fmt.Fprintf(&b, "• Estimated Timeline: %d weeks\n", d.Plan.Timeline.TotalWeeks)
	fmt.Fprintf(&b, "• Development Phases: %d\n", len(d.Plan.Phases))
	if len(an.Technologies) > 0 {
		fmt.Fprintf(&b, "• Recommended Tech: %s\n", strings.Join(an.Technologies[:min(5, len(an.Technologies))], ", "))
	}
	fmt.Fprintf(&b, "\nI've prepared a detailed project plan with %d tasks and clear milestones. "+
		"Happy to share the full technical documentation.\n", len(d.Plan.Tasks))
	return b.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// Recommend prices the analyzed hours at a complexity rate, clamped to the
// project budget: never below the minimum, at most 90% of the maximum.
// The result is in the project's currency.
func (s *Service) Recommend(p *freelancer.Project, an Analysis) decimal.Decimal {
	rate := decimal.NewFromInt(hourlyRates[an.Complexity])
	if rate.IsZero() {
		rate = decimal.NewFromInt(hourlyRates[ComplexityMedium])
	}
	switch {
	case an.ProjectType == "blockchain" || an.ProjectType == "data_science":
		rate = rate.Mul(decimal.NewFromFloat(1.5))
	case slices.Contains(an.Technologies, "javascript"):
		rate = rate.Mul(decimal.NewFromFloat(1.2))
	}

	amount := rate.Mul(decimal.NewFromInt(int64(an.EstimatedHours)))
	code := p.CurrencyCode()
	if code != "USD" && s.converter != nil {
		amount = s.converter.FromUSD(amount, code)
	}

	minimum, maximum := p.Budget.Minimum, p.Budget.Maximum
	switch {
	case amount.LessThan(minimum):
		amount = minimum
	case maximum.IsPositive() && amount.GreaterThan(maximum):
		amount = maximum.Mul(maxBudgetShare)
	}
	return amount.Round(2)
}

func (s *Service) budgetUSD(amount decimal.Decimal, code string) (decimal.Decimal, bool) {
	if code == "USD" || code == "" {
		return amount, true
	}
	if s.converter == nil {
		return decimal.Zero, false
	}
	return s.converter.ToUSD(amount, code)
}

func (s *Service) load() {
	if s.cachePath == "" {
		return
	}
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("⚠️ Failed to read SDLC cache")
		}
		return
	}
	if err := json.Unmarshal(data, &s.cache); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to parse SDLC cache")
		s.cache = make(map[string]*Result)
		return
	}
	if s.cache == nil {
		s.cache = make(map[string]*Result)
	}
	log.Info().Int("analyses", len(s.cache)).Msg("📋 Loaded SDLC cache")
}

func (s *Service) saveLocked() {
	if s.cachePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cachePath), 0755); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to create cache directory")
		return
	}
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to marshal SDLC cache")
		return
	}
	if err := os.WriteFile(s.cachePath, data, 0644); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to write SDLC cache")
	}
}
