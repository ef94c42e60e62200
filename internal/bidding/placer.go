package bidding

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/autobid/internal/database"
	"github.com/web3guy0/autobid/internal/filter"
	"github.com/web3guy0/autobid/internal/freelancer"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PLACER - Rate-limited bid submission
// ═══════════════════════════════════════════════════════════════════════════════

// BidPoster submits bids to the marketplace
type BidPoster interface {
	PlaceBid(ctx context.Context, req freelancer.BidRequest) (*freelancer.BidResponse, error)
}

// RequestLimiter gates outgoing API calls
type RequestLimiter interface {
	CanMakeRequest() (bool, string)
	RecordRequest()
}

// BidStore persists bid attempts
type BidStore interface {
	SaveBid(bid *database.Bid) error
}

// Result is the outcome of one bid attempt
type Result struct {
	RequestID   string          `json:"request_id"`
	ProjectID   int64           `json:"project_id"`
	Success     bool            `json:"success"`
	BidID       int64           `json:"bid_id,omitempty"`
	Error       string          `json:"error,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Period      int             `json:"period"`
	Description string          `json:"description,omitempty"`
	Premium     bool            `json:"premium"`
	DryRun      bool            `json:"dry_run"`
	RateLimited bool            `json:"rate_limited,omitempty"`

	Err error `json:"-"`
}

// PlacerConfig holds the placer's fixed settings
type PlacerConfig struct {
	BidderID     int64
	DeliveryDays int // > 0 overrides the budget-based estimate
	DryRun       bool
}

// Placer builds and submits bids. It never retries.
type Placer struct {
	poster    BidPoster
	limiter   RequestLimiter
	store     BidStore
	proposer  *Proposer
	elite     *EliteHandler
	converter filter.USDConverter
	cfg       PlacerConfig
}

// NewPlacer wires a placer. store, elite and converter may be nil.
func NewPlacer(poster BidPoster, limiter RequestLimiter, store BidStore, proposer *Proposer, cfg PlacerConfig) *Placer {
	return &Placer{
		poster:   poster,
		limiter:  limiter,
		store:    store,
		proposer: proposer,
		cfg:      cfg,
	}
}

// SetEliteHandler enables agreement signing for elite projects
func (pl *Placer) SetEliteHandler(h *EliteHandler) {
	pl.elite = h
}

// SetConverter makes duration estimates use USD-equivalent budgets
func (pl *Placer) SetConverter(c filter.USDConverter) {
	pl.converter = c
}

// Period returns the delivery days for a project
func (pl *Placer) Period(p *freelancer.Project) int {
	if pl.cfg.DeliveryDays > 0 {
		return pl.cfg.DeliveryDays
	}
	return EstimateDuration(p, pl.converter)
}

// PlaceBid submits a bid at the project's minimum budget
func (pl *Placer) PlaceBid(ctx context.Context, p *freelancer.Project) Result {
	period := pl.Period(p)
	proposal := pl.proposer.Generate(p, period)

	res := Result{
		RequestID:   uuid.NewString(),
		ProjectID:   p.ID,
		Amount:      BidAmount(p),
		Currency:    p.CurrencyCode(),
		Period:      period,
		Description: proposal.Text,
		Premium:     proposal.Premium,
		DryRun:      pl.cfg.DryRun,
	}

	if pl.cfg.DryRun {
		res.Success = true
		log.Info().
			Int64("project_id", p.ID).
			Str("amount", res.Amount.String()+" "+res.Currency).
			Int("period", period).
			Msg("🧪 DRY RUN: would place bid")
		pl.save(p, res, nil)
		return res
	}

	if ok, reason := pl.limiter.CanMakeRequest(); !ok {
		res.Error = "Rate limited: " + reason
		res.RateLimited = true
		log.Warn().Int64("project_id", p.ID).Str("reason", reason).Msg("⏳ Bid skipped, rate limited")
		return res
	}

	if pl.elite != nil {
		if err := pl.elite.Prepare(ctx, p); err != nil {
			res.Error = "elite: " + err.Error()
			log.Warn().Err(err).Int64("project_id", p.ID).Msg("⚠️ Elite project agreements not signed")
			pl.save(p, res, nil)
			return res
		}
	}

	req := freelancer.BidRequest{
		ProjectID:           p.ID,
		BidderID:            pl.cfg.BidderID,
		Amount:              res.Amount.InexactFloat64(),
		Period:              period,
		MilestonePercentage: 100,
		Description:         proposal.Text,
	}

	pl.limiter.RecordRequest()
	resp, err := pl.poster.PlaceBid(ctx, req)
	if err != nil {
		res.Error = errorMessage(err)
		res.Err = err
		log.Error().Err(err).Int64("project_id", p.ID).Str("title", p.Title).Msg("✗ Bid failed")
	} else {
		res.Success = true
		res.BidID = resp.ID
		log.Info().
			Int64("project_id", p.ID).
			Int64("bid_id", resp.ID).
			Str("title", p.Title).
			Str("amount", res.Amount.String()+" "+res.Currency).
			Bool("premium", res.Premium).
			Msg("✓ Bid placed")
	}

	pl.save(p, res, resp)
	return res
}

func (pl *Placer) save(p *freelancer.Project, res Result, resp *freelancer.BidResponse) {
	if pl.store == nil {
		return
	}
	status := "failed"
	if res.Success {
		status = "success"
	}
	row := &database.Bid{
		RequestID:   res.RequestID,
		ProjectID:   p.ID,
		BidID:       res.BidID,
		Title:       p.Title,
		Amount:      res.Amount,
		Currency:    res.Currency,
		Period:      res.Period,
		Description: res.Description,
		Status:      status,
		Error:       res.Error,
		DryRun:      res.DryRun,
		CreatedAt:   time.Now(),
	}
	if resp != nil {
		row.Response = string(resp.Raw)
	}
	if err := pl.store.SaveBid(row); err != nil {
		log.Warn().Err(err).Int64("project_id", p.ID).Msg("Failed to save bid record")
	}
}

func errorMessage(err error) string {
	var apiErr *freelancer.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
