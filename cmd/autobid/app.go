package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/autobid/internal/bidding"
	"github.com/web3guy0/autobid/internal/bot"
	"github.com/web3guy0/autobid/internal/config"
	"github.com/web3guy0/autobid/internal/currency"
	"github.com/web3guy0/autobid/internal/database"
	"github.com/web3guy0/autobid/internal/dedup"
	"github.com/web3guy0/autobid/internal/filter"
	"github.com/web3guy0/autobid/internal/freelancer"
	"github.com/web3guy0/autobid/internal/projects"
	"github.com/web3guy0/autobid/internal/ratelimit"
	"github.com/web3guy0/autobid/internal/risk"
	"github.com/web3guy0/autobid/internal/sdlc"
	"github.com/web3guy0/autobid/internal/server"
	"github.com/web3guy0/autobid/internal/state"
)

// app owns every long-lived component of one process
type app struct {
	cfg *config.Config

	client    *freelancer.Client
	db        *database.Database
	store     *state.Store
	limiter   *ratelimit.Limiter
	converter *currency.Converter
	spam      *filter.SpamFilter
	breaker   *risk.Breaker
	projects  *projects.Manager
	sdlc      *sdlc.Service
	gemini    *sdlc.GeminiExtractor
}

// newApp opens storage and builds the shared services. The marketplace
// client is created even without a token so read-only commands work.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db

	a.store = state.Open(ctx, cfg.RedisURL)
	a.limiter = ratelimit.New(cfg.DataPath("rate_limit_tracking.json"), ratelimit.DefaultLimits())
	a.client = freelancer.NewClient(cfg.FreelancerAPIURL, cfg.FreelancerToken, cfg.FreelancerUserID, cfg.HTTPTimeout)

	var rates currency.RateSource
	if cfg.FreelancerToken != "" {
		rates = a.client
	}
	a.converter = currency.NewConverter(rates, cfg.DataPath("freelancer_currencies.json"))

	a.spam = filter.NewSpamFilter(cfg.Bot.Filtering.SpamThreshold)
	a.breaker = risk.NewBreaker(
		cfg.Bot.Monitoring.MaxConsecutiveErrors,
		cfg.Bot.Monitoring.ErrorRetryDelay(),
		cfg.Bot.Monitoring.DailyBidLimit,
	)

	var api projects.MarketplaceAPI
	if cfg.FreelancerToken != "" {
		api = a.client
	}
	a.projects = projects.NewManager(db, api)

	var extractor sdlc.FeatureExtractor
	if cfg.GoogleKey != "" {
		g, err := sdlc.NewGeminiExtractor(ctx, cfg.GoogleKey, "")
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Gemini unavailable, using pattern feature extraction")
		} else {
			a.gemini = g
			extractor = g
			log.Info().Msg("🧠 Gemini feature extraction enabled")
		}
	}
	a.sdlc = sdlc.NewService(sdlc.NewAnalyzer(extractor), a.converter, cfg.SDLCMinBudget, cfg.DataPath(sdlc.CacheFile))

	return a, nil
}

// monitor assembles the bidding loop from bot config
func (a *app) monitor() *bidding.Monitor {
	botCfg := a.cfg.Bot
	seen := dedup.NewSeenProjects(a.cfg.DataDir)

	pipeline := bidding.NewPipeline(bidding.BuildRules(botCfg, bidding.Deps{
		Seen:      seen,
		Converter: a.converter,
		Spam:      a.spam,
	})...)
	log.Info().Strs("rules", pipeline.Rules()).Msg("📋 Bid pipeline ready")

	scorer := bidding.NewScorer(botCfg.SmartBidding.EarlyBird(), botCfg.PrioritySkills, a.converter)

	var premium *filter.PremiumFilter
	if botCfg.Premium.Enabled {
		premium = filter.NewPremiumFilter(botCfg.Premium, a.converter)
	}
	proposer := bidding.NewProposer(botCfg.BidTemplates, botCfg.PremiumTemplates, premium)
	proposer.SetEnhancer(a.sdlc)

	placer := bidding.NewPlacer(a.client, a.limiter, a.db, proposer, bidding.PlacerConfig{
		BidderID:     a.cfg.FreelancerUserID,
		DeliveryDays: botCfg.Bidding.DeliveryDays,
		DryRun:       a.cfg.DryRun,
	})
	placer.SetConverter(a.converter)
	if botCfg.EliteProjects.AutoSignNDA || botCfg.EliteProjects.AutoSignIPAgreement {
		placer.SetEliteHandler(bidding.NewEliteHandler(a.client, botCfg.EliteProjects))
	}

	m := bidding.NewMonitor(a.client, pipeline, scorer, placer, seen, a.store, a.breaker, bidding.MonitorConfig{
		Skills:              botCfg.PrioritySkills,
		MaxProjectsPerCycle: botCfg.Filtering.MaxProjectsPerCycle,
		CheckInterval:       botCfg.Monitoring.CheckInterval(),
		BidDelay:            botCfg.Bidding.BidDelay(),
	})
	m.SetRecorder(a.db)
	return m
}

// server builds the HTTP API over the shared services
func (a *app) server(port int) *server.Server {
	return server.New(port, server.Deps{
		DB:        a.db,
		State:     a.store,
		Limiter:   a.limiter,
		Spam:      a.spam,
		Breaker:   a.breaker,
		Projects:  a.projects,
		SDLC:      a.sdlc,
		ExportDir: a.cfg.DataPath("sdlc_output"),
	})
}

// telegram connects the notifier when a bot token is configured
func (a *app) telegram() *bot.Bot {
	if a.cfg.TelegramToken == "" {
		return nil
	}
	b, err := bot.New(a.cfg.TelegramToken, a.cfg.TelegramChatID, a.store, a.db)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Telegram disabled")
		return nil
	}
	b.SetAmountFormatter(a.converter)
	return b
}

func (a *app) Close() {
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			log.Debug().Err(err).Msg("Gemini close failed")
		}
	}
	if err := a.store.Close(); err != nil {
		log.Debug().Err(err).Msg("State store close failed")
	}
	if err := a.db.Close(); err != nil {
		log.Debug().Err(err).Msg("Database close failed")
	}
}
