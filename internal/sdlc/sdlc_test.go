package sdlc

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3guy0/autobid/internal/freelancer"
)

const shopDescription = `I need a web application for managing a small e-commerce business.
The system should have:
- Product catalog with categories
- Shopping cart functionality
- User registration and login
- Order management
- Payment integration with Stripe
Technologies preferred: React for frontend, Node.js for backend, PostgreSQL for database.`

type fakeExtractor struct {
	features []string
	err      error
}

func (f fakeExtractor) ExtractFeatures(ctx context.Context, description string) ([]string, error) {
	return f.features, f.err
}

func TestDetectProjectType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"need a mobile app for ios and android", "mobile_app"},
		{"build a website with a frontend and backend", "web_app"},
		{"fix my html page", generalType},
		{"train a machine learning prediction model", "data_science"},
		{"write a scraping bot", "automation"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectProjectType(tt.text), tt.text)
	}
}

func TestDetectTechnologies(t *testing.T) {
	techs := detectTechnologies(strings.ToLower("React frontend with a Node backend, PostgreSQL database, hosted on AWS. Good going."))
	assert.Equal(t, []string{"javascript", "postgresql", "aws"}, techs)
}

func TestExtractFeatures(t *testing.T) {
	features := extractFeatures("The system should have:\n- Product catalog\n- Shopping cart\n- Order history\n- Shopping cart\n")
	assert.Equal(t, []string{"Product catalog", "Shopping cart", "Order history"}, features)

	features = extractFeatures("Users need to upload photos. We will implement a sharing flow!")
	assert.Equal(t, []string{"upload photos", "a sharing flow"}, features)
}

func TestEstimateComplexity(t *testing.T) {
	words := strings.Repeat("lorem ", 150)

	assert.Equal(t, ComplexityLow, estimateComplexity("short job", 5))
	assert.Equal(t, ComplexityMedium, estimateComplexity(words, 5))
	assert.Equal(t, ComplexityHigh, estimateComplexity(words+"complex advanced enterprise", 5))
	assert.Equal(t, ComplexityHigh, estimateComplexity(words, 10))
	assert.Equal(t, ComplexityLow, estimateComplexity(words+"simple basic", 5))
}

func TestEstimateHours(t *testing.T) {
	assert.Equal(t, 120, estimateHours(ComplexityMedium, "web_app", 0))
	assert.Equal(t, 250, estimateHours(ComplexityHigh, generalType, 0))
	// (30 + 750/75) / 2
	assert.Equal(t, 20, estimateHours(ComplexityLow, "api", 750))
}

func TestAnalyzer_Extractor(t *testing.T) {
	llm := NewAnalyzer(fakeExtractor{features: []string{"Login", "Checkout"}})
	an := llm.Analyze(context.Background(), shopDescription, 0)
	assert.Equal(t, []string{"Login", "Checkout"}, an.KeyFeatures)

	failing := NewAnalyzer(fakeExtractor{err: errors.New("quota")})
	an = failing.Analyze(context.Background(), shopDescription, 0)
	assert.Contains(t, an.KeyFeatures, "Product catalog with categories")
}

func TestAnalyze_Shop(t *testing.T) {
	an := NewAnalyzer(nil).Analyze(context.Background(), shopDescription, 0)
	assert.Equal(t, "web_app", an.ProjectType)
	assert.Contains(t, an.Technologies, "javascript")
	assert.Contains(t, an.Technologies, "postgresql")
	assert.Contains(t, an.Risks, "Financial transactions - security critical")
	assert.NotEmpty(t, an.KeyFeatures)
}

func TestGenerateSRS(t *testing.T) {
	an := Analysis{
		ProjectType:    "web_app",
		Complexity:     ComplexityMedium,
		EstimatedHours: 120,
		Technologies:   []string{"javascript"},
		KeyFeatures:    []string{"Catalog", "Cart", "Login", "Orders", "Payments", "Reports"},
	}
	srs := GenerateSRS("Shop", an)

	require.Len(t, srs.FunctionalRequirements, 6)
	assert.Equal(t, "FR001", srs.FunctionalRequirements[0].ID)
	assert.Equal(t, "High", srs.FunctionalRequirements[2].Priority)
	assert.Equal(t, "Medium", srs.FunctionalRequirements[3].Priority)
	assert.Equal(t, "FR006", srs.FunctionalRequirements[5].ID)

	require.Len(t, srs.NonFunctionalRequirements, 4)
	assert.Equal(t, "NFR004", srs.NonFunctionalRequirements[3].ID)

	require.Len(t, srs.UserStories, 5)
	assert.Equal(t, "US005", srs.UserStories[4].ID)
	assert.Equal(t, "As a user, I want to cart so that I can achieve my goals", srs.UserStories[1].Story)
	assert.Contains(t, srs.Overview, "a medium complexity web_app project")
}

func TestGenerateDesign(t *testing.T) {
	an := Analysis{ProjectType: "web_app", Technologies: []string{"javascript", "postgresql"}}
	srs := SRS{FunctionalRequirements: []Requirement{
		{ID: "FR001", Description: "Product catalog"},
		{ID: "FR002", Description: "Cart checkout"},
	}}
	d := GenerateDesign(srs, an)

	assert.Equal(t, "Three-tier architecture (Frontend, Backend, Database)", d.ArchitectureType)
	assert.Len(t, d.Components, 5)
	require.Len(t, d.DataModels, 4)
	assert.Equal(t, "Product", d.DataModels[2].Name)
	assert.Len(t, d.APIEndpoints, 3+2*5)
	assert.Equal(t, "/api/products/{id}", d.APIEndpoints[5].Path)
	assert.Equal(t, []string{"javascript"}, d.TechnologyStack.Frontend)
	assert.Equal(t, []string{"Node.js", "Express"}, d.TechnologyStack.Backend)
	assert.Equal(t, []string{"postgresql"}, d.TechnologyStack.Database)

	generic := GenerateDesign(SRS{}, Analysis{ProjectType: "game"})
	assert.Equal(t, defaultArchitecture, generic.ArchitectureType)
	assert.Empty(t, generic.TechnologyStack.Frontend)
}

func TestGeneratePlan(t *testing.T) {
	an := Analysis{ProjectType: "web_app", Complexity: ComplexityMedium}
	design := GenerateDesign(SRS{}, an)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	p := GeneratePlan(design, an, 120, start)

	require.Len(t, p.Phases, 4)
	assert.Equal(t, []int{12, 60, 30, 18}, []int{p.Phases[0].Hours, p.Phases[1].Hours, p.Phases[2].Hours, p.Phases[3].Hours})
	assert.Equal(t, []int{1, 7, 3, 2}, []int{p.Phases[0].Days, p.Phases[1].Days, p.Phases[2].Days, p.Phases[3].Days})

	require.Len(t, p.Tasks, 20)
	assert.Equal(t, "T001", p.Tasks[0].ID)
	assert.Equal(t, "T020", p.Tasks[19].ID)
	assert.Equal(t, 2, p.Tasks[0].EstimatedHours)
	assert.Equal(t, "Implement Authentication Service", p.Tasks[5].Name)
	assert.Equal(t, []string{"T001", "T002"}, p.Tasks[5].Dependencies)
	assert.Equal(t, []string{"T006", "T007", "T008"}, p.Tasks[10].Dependencies)
	assert.Equal(t, []string{"T010"}, p.Tasks[15].Dependencies)

	assert.Len(t, p.Milestones, 4)
	assert.Len(t, p.Dependencies, 5*2+5*3+5)
	assert.Equal(t, 15, p.Timeline.TotalDays)
	assert.Equal(t, 3, p.Timeline.TotalWeeks)
	assert.Equal(t, "2024-06-01", p.Timeline.StartDate)
	assert.Equal(t, 1, p.Resources.Developers)
	assert.Contains(t, p.Resources.Roles, "Frontend Developer")
}

func TestDevelopersNeeded(t *testing.T) {
	assert.Equal(t, 1, developersNeeded(80, ComplexityHigh))
	assert.Equal(t, 2, developersNeeded(160, ComplexityHigh))
	assert.Equal(t, 2, developersNeeded(400, ComplexityLow))
	assert.Equal(t, 4, developersNeeded(1000, ComplexityHigh))
}

func TestExport(t *testing.T) {
	svc := NewService(nil, nil, decimal.NewFromInt(500), "")
	docs := svc.Generate(context.Background(), "Shop", shopDescription, 0)
	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

	files, err := Export(docs, dir, FormatJSON, now)
	require.NoError(t, err)
	require.Len(t, files, 3)
	data, err := os.ReadFile(files["srs"])
	require.NoError(t, err)
	var srs SRS
	require.NoError(t, json.Unmarshal(data, &srs))
	assert.Equal(t, "Shop", srs.ProjectTitle)
	assert.Contains(t, filepath.Dir(files["srs"]), "sdlc_output_20240601_103000_"+docs.ID[:8])

	files, err = Export(docs, dir, FormatMarkdown, now)
	require.NoError(t, err)
	data, err = os.ReadFile(files["plan"])
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Implementation Plan")
	assert.Contains(t, string(data), "### Core Development")

	_, err = Export(docs, dir, "html", now)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func project(id int64, title, description string, minimum int64) *freelancer.Project {
	return &freelancer.Project{
		ID:          id,
		Title:       title,
		Description: description,
		Budget: freelancer.Budget{
			Minimum: decimal.NewFromInt(minimum),
			Maximum: decimal.NewFromInt(minimum * 4),
		},
		Currency: freelancer.Currency{Code: "USD"},
	}
}

func TestShouldAnalyze(t *testing.T) {
	svc := NewService(nil, nil, decimal.NewFromInt(500), "")

	assert.False(t, svc.ShouldAnalyze(project(1, "Build a website", "", 400)))
	assert.True(t, svc.ShouldAnalyze(project(2, "Build a website", "", 500)))
	assert.False(t, svc.ShouldAnalyze(project(3, "Logo for bakery", "Colorful logo", 900)))

	inr := project(4, "Build a website", "", 60000)
	inr.Currency.Code = "INR"
	assert.False(t, svc.ShouldAnalyze(inr), "no converter for INR")

	svc.AnalyzeProject(context.Background(), project(2, "Build a website", shopDescription, 500))
	assert.False(t, svc.ShouldAnalyze(project(2, "Build a website", "", 500)), "already analyzed")
}

func TestEnhanceBid(t *testing.T) {
	svc := NewService(nil, nil, decimal.NewFromInt(500), "")

	small := project(1, "Build a website", shopDescription, 100)
	assert.Equal(t, "Hello", svc.EnhanceBid(small, "Hello"))

	big := project(2, "E-commerce web app", shopDescription, 5000)
	out := svc.EnhanceBid(big, "Hello")
	assert.True(t, strings.HasPrefix(out, "Hello\n\n**Project Analysis & Approach:**"))
	assert.Contains(t, out, "• Project Type: Web App")
	assert.Contains(t, out, "20 tasks")

	// cached analysis is reused
	again := svc.EnhanceBid(big, "Hello")
	assert.Equal(t, out, again)

	long := svc.EnhanceBid(big, strings.Repeat("é", MaxBidLength))
	assert.Equal(t, MaxBidLength, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestServiceCachePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), CacheFile)
	svc := NewService(nil, nil, decimal.NewFromInt(500), path)
	first := svc.AnalyzeProject(context.Background(), project(9, "Build an API", shopDescription, 800))

	reloaded := NewService(nil, nil, decimal.NewFromInt(500), path)
	got, ok := reloaded.Cached(9)
	require.True(t, ok)
	assert.Equal(t, first.Documents.ID, got.Documents.ID)
	assert.Equal(t, first.Documents.Analysis, got.Documents.Analysis)
}

func TestRecommend(t *testing.T) {
	svc := NewService(nil, nil, decimal.NewFromInt(500), "")
	an := Analysis{Complexity: ComplexityMedium, EstimatedHours: 100, Technologies: []string{"python"}}

	p := project(1, "x", "", 1000) // max 4000
	assert.True(t, svc.Recommend(p, an).Equal(decimal.NewFromInt(3600)), "capped at 90 percent of max")

	p.Budget.Maximum = decimal.NewFromInt(10000)
	assert.True(t, svc.Recommend(p, an).Equal(decimal.NewFromInt(5000)))

	p.Budget.Minimum = decimal.NewFromInt(8000)
	assert.True(t, svc.Recommend(p, an).Equal(decimal.NewFromInt(8000)))

	js := Analysis{Complexity: ComplexityLow, EstimatedHours: 100, Technologies: []string{"javascript"}}
	p.Budget.Minimum = decimal.NewFromInt(100)
	assert.True(t, svc.Recommend(p, js).Equal(decimal.NewFromInt(3000)))
}

func TestParseFeatureLines(t *testing.T) {
	assert.Equal(t, []string{"Login", "Cart", "Checkout"}, parseFeatureLines("1. Login\n- Cart\n\n* Checkout\n"))
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("built with c# and .net", "c#"))
	assert.True(t, containsWord("uses node.js", "node"))
	assert.False(t, containsWord("html page", "ml"))
	assert.True(t, containsWord("an ml model", "ml"))
}
