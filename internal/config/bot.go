package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// BotConfig mirrors bot_config.json. The file is parsed with a YAML decoder,
// so both JSON and YAML layouts are accepted.
type BotConfig struct {
	Bidding         BiddingConfig         `yaml:"bidding"`
	SmartBidding    SmartBiddingConfig    `yaml:"smart_bidding"`
	ClientFiltering ClientFilteringConfig `yaml:"client_filtering"`
	EliteProjects   EliteProjectsConfig   `yaml:"elite_projects"`
	Filtering       FilteringConfig       `yaml:"filtering"`
	Monitoring      MonitoringConfig      `yaml:"monitoring"`
	Currency        CurrencyConfig        `yaml:"currency"`
	Premium         PremiumConfig         `yaml:"premium"`

	PrioritySkills   []string `yaml:"priority_skills"`
	BidTemplates     []string `yaml:"bid_templates" validate:"min=1,dive,required"`
	PremiumTemplates []string `yaml:"premium_templates"`
}

type BiddingConfig struct {
	DeliveryDays       int `yaml:"delivery_days" validate:"gte=0"`
	MinBidDelaySeconds int `yaml:"min_bid_delay_seconds" validate:"gte=0"`
}

type SmartBiddingConfig struct {
	Enabled             bool    `yaml:"enabled"`
	MaxExistingBids     int     `yaml:"max_existing_bids" validate:"gte=0"`
	EarlyBirdMinutes    int     `yaml:"early_bird_minutes" validate:"gte=0"`
	MinProfitableBudget float64 `yaml:"min_profitable_budget" validate:"gte=0"`
}

type ClientFilteringConfig struct {
	Enabled              bool    `yaml:"enabled"`
	MinClientRating      float64 `yaml:"min_client_rating" validate:"gte=0,lte=5"`
	MinCompletionRate    float64 `yaml:"min_completion_rate" validate:"gte=0,lte=1"`
	MinProjectsPosted    int     `yaml:"min_projects_posted" validate:"gte=0"`
	CheckPaymentVerified bool    `yaml:"check_payment_verified"`
}

type EliteProjectsConfig struct {
	AutoSignNDA         bool `yaml:"auto_sign_nda"`
	AutoSignIPAgreement bool `yaml:"auto_sign_ip_agreement"`
	TrackEliteStats     bool `yaml:"track_elite_stats"`
}

type FilteringConfig struct {
	MaxProjectsPerCycle int     `yaml:"max_projects_per_cycle" validate:"gt=0"`
	PortfolioMatching   bool    `yaml:"portfolio_matching"`
	MinSkillMatchScore  float64 `yaml:"min_skill_match_score" validate:"gte=0,lte=1"`
	SpamFilterEnabled   bool    `yaml:"spam_filter_enabled"`
	SpamThreshold       int     `yaml:"spam_threshold" validate:"gt=0"`
}

type MonitoringConfig struct {
	CheckIntervalSeconds   int `yaml:"check_interval_seconds" validate:"gt=0"`
	ErrorRetryDelaySeconds int `yaml:"error_retry_delay_seconds" validate:"gte=0"`
	MaxConsecutiveErrors   int `yaml:"max_consecutive_errors" validate:"gt=0"`
	DailyBidLimit          int `yaml:"daily_bid_limit" validate:"gte=0"`
}

// CurrencyConfig holds per-currency minimum budgets. USD uses
// smart_bidding.min_profitable_budget.
type CurrencyConfig struct {
	MinBudgetINR float64 `yaml:"min_budget_inr" validate:"gte=0"`
	MinBudgetPKR float64 `yaml:"min_budget_pkr" validate:"gte=0"`
}

// PremiumConfig tunes premium project detection
type PremiumConfig struct {
	Enabled            bool                `yaml:"enabled"`
	MinScore           int                 `yaml:"min_premium_score" validate:"gte=0,lte=100"`
	MinProjectBudget   float64             `yaml:"min_project_budget" validate:"gte=0"`
	PreferredBudgetMin float64             `yaml:"preferred_budget_min" validate:"gte=0"`
	PreferredBudgetMax float64             `yaml:"preferred_budget_max" validate:"gtefield=PreferredBudgetMin"`
	AvoidKeywords      []string            `yaml:"avoid_keywords"`
	Categories         map[string][]string `yaml:"premium_categories"`
}

// DefaultBotConfig returns the configuration used when no file is present
func DefaultBotConfig() *BotConfig {
	return &BotConfig{
		Bidding: BiddingConfig{
			DeliveryDays:       0, // 0 = estimate from budget
			MinBidDelaySeconds: 2,
		},
		SmartBidding: SmartBiddingConfig{
			Enabled:             true,
			MaxExistingBids:     50,
			EarlyBirdMinutes:    30,
			MinProfitableBudget: 250,
		},
		ClientFiltering: ClientFilteringConfig{
			Enabled:              false,
			MinClientRating:      4.0,
			MinCompletionRate:    0.8,
			MinProjectsPosted:    1,
			CheckPaymentVerified: true,
		},
		EliteProjects: EliteProjectsConfig{
			AutoSignNDA:         true,
			AutoSignIPAgreement: true,
			TrackEliteStats:     true,
		},
		Filtering: FilteringConfig{
			MaxProjectsPerCycle: 50,
			PortfolioMatching:   false,
			MinSkillMatchScore:  0.3,
			SpamFilterEnabled:   false,
			SpamThreshold:       50,
		},
		Monitoring: MonitoringConfig{
			CheckIntervalSeconds:   30,
			ErrorRetryDelaySeconds: 300,
			MaxConsecutiveErrors:   5,
			DailyBidLimit:          0, // unlimited
		},
		Currency: CurrencyConfig{
			MinBudgetINR: 16000,
			MinBudgetPKR: 16000,
		},
		Premium: PremiumConfig{
			Enabled:            true,
			MinScore:           60,
			MinProjectBudget:   250,
			PreferredBudgetMin: 500,
			PreferredBudgetMax: 5000,
			AvoidKeywords:      []string{"cheap", "lowest price", "free trial", "test task", "unpaid"},
			Categories: map[string][]string{
				"web_development": {"website", "web app", "react", "django", "laravel", "next.js"},
				"automation":      {"automation", "scraping", "bot", "script", "workflow"},
				"data":            {"data analysis", "etl", "dashboard", "machine learning", "pipeline"},
				"api":             {"api", "integration", "backend", "microservice", "rest"},
			},
		},
		PrioritySkills: []string{"Python", "Web Scraping", "PHP", "JavaScript", "Data Processing"},
		BidTemplates: []string{
			"Hi! I've carefully reviewed \"{project_title}\" and I'm confident I can deliver excellent results. With my experience in {skills}, I can start immediately and complete it within {days} days. Looking forward to working with you!",
			"Hello! Your project matches my expertise in {skills}. I have completed similar work and can deliver high quality results in {days} days. Let's discuss the details!",
		},
		PremiumTemplates: []string{
			"Dear client,\n\nI've carefully reviewed your requirements for {project_title}. With deep expertise in {skills}, I can deliver a robust, scalable solution.\n\nMy approach:\n• Initial consultation to understand your complete vision\n• Detailed architecture and timeline proposal\n• Delivery in {days} days with regular updates\n• Ongoing support after delivery\n\nI'm available for a call to discuss how I can add value to your project.",
		},
	}
}

var validate = validator.New()

// LoadBotConfig reads bot_config.json on top of the defaults.
// A missing file is not an error.
func LoadBotConfig(path string) (*BotConfig, error) {
	cfg := DefaultBotConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", path).Msg("Bot config not found, using defaults")
			return cfg, nil
		}
		return nil, fmt.Errorf("read bot config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse bot config %s: %w", path, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid bot config: %w", err)
	}

	return cfg, nil
}

func (m MonitoringConfig) CheckInterval() time.Duration {
	return time.Duration(m.CheckIntervalSeconds) * time.Second
}

func (m MonitoringConfig) ErrorRetryDelay() time.Duration {
	return time.Duration(m.ErrorRetryDelaySeconds) * time.Second
}

func (b BiddingConfig) BidDelay() time.Duration {
	return time.Duration(b.MinBidDelaySeconds) * time.Second
}

func (s SmartBiddingConfig) EarlyBird() time.Duration {
	return time.Duration(s.EarlyBirdMinutes) * time.Minute
}
