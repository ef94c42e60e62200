package bidding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/autobid/internal/database"
	"github.com/web3guy0/autobid/internal/freelancer"
	"github.com/web3guy0/autobid/internal/risk"
	"github.com/web3guy0/autobid/internal/state"
)

// ═══════════════════════════════════════════════════════════════════════════════
// MONITOR - Polling loop
// ═══════════════════════════════════════════════════════════════════════════════
//
// Flow:
//   Fetch → ShouldBid → Priority → PlaceBid → Record → Counters
//
// ═══════════════════════════════════════════════════════════════════════════════

const (
	StatusRunning      = "Running"
	StatusStopped      = "Stopped"
	StatusCoolingDown  = "Cooling down"
	StatusInvalidToken = "Error - Invalid Token"

	processedKept = 1000
)

// ProjectSource fetches active projects matching skills
type ProjectSource interface {
	FetchBySkills(ctx context.Context, skills []string, perSkill int) ([]freelancer.Project, error)
}

// SeenSet is the persistent processed-project set
type SeenSet interface {
	ProcessedSet
	Add(ids ...int64)
	Recent(n int) []int64
}

// ProjectRecorder keeps a snapshot of each evaluated project
type ProjectRecorder interface {
	SaveSeenProject(p *database.SeenProject) error
}

// Notifier receives bid and error events, e.g. Telegram
type Notifier interface {
	NotifyBid(p *freelancer.Project, res Result)
	NotifyError(msg string)
}

// MonitorConfig holds loop timing and limits
type MonitorConfig struct {
	Skills              []string
	FetchLimit          int
	MaxProjectsPerCycle int
	CheckInterval       time.Duration
	BidDelay            time.Duration
}

// MonitorStats counts loop activity since start
type MonitorStats struct {
	Cycles        int       `json:"cycles"`
	ProjectsSeen  int       `json:"projects_seen"`
	Eligible      int       `json:"eligible"`
	BidsPlaced    int       `json:"bids_placed"`
	BidsFailed    int       `json:"bids_failed"`
	SuccessRate   float64   `json:"success_rate"`
	LastCycle     time.Time `json:"last_cycle"`
	LastCycleTook string    `json:"last_cycle_took"`
	StartedAt     time.Time `json:"started_at"`
}

// CycleResult summarizes one polling cycle
type CycleResult struct {
	Fetched  int
	Eligible int
	Placed   int
	Failed   int
	Skipped  map[string]int
}

type candidate struct {
	project  *freelancer.Project
	priority int
	reasons  string
}

// Monitor polls for projects and bids on the eligible ones
type Monitor struct {
	source   ProjectSource
	pipeline *Pipeline
	scorer   *Scorer
	placer   *Placer
	seen     SeenSet
	store    *state.Store
	breaker  *risk.Breaker
	recorder ProjectRecorder
	notifier Notifier
	cfg      MonitorConfig

	// dry runs never touch the persistent processed set
	dryRunSeen mapset.Set[int64]

	mu    sync.RWMutex
	stats MonitorStats
}

// NewMonitor wires the polling loop
func NewMonitor(
	source ProjectSource,
	pipeline *Pipeline,
	scorer *Scorer,
	placer *Placer,
	seen SeenSet,
	store *state.Store,
	breaker *risk.Breaker,
	cfg MonitorConfig,
) *Monitor {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 30
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	return &Monitor{
		source:     source,
		pipeline:   pipeline,
		scorer:     scorer,
		placer:     placer,
		seen:       seen,
		store:      store,
		breaker:    breaker,
		cfg:        cfg,
		dryRunSeen: mapset.NewSet[int64](),
	}
}

// SetRecorder stores a SeenProject row per evaluated project
func (m *Monitor) SetRecorder(r ProjectRecorder) {
	m.recorder = r
}

// SetNotifier sets the event notifier
func (m *Monitor) SetNotifier(n Notifier) {
	m.notifier = n
}

// Run polls until ctx is cancelled. It returns ErrInvalidToken when the
// API rejects the token; any other error only counts as a failed cycle.
func (m *Monitor) Run(ctx context.Context) error {
	started := time.Now()
	m.mu.Lock()
	m.stats.StartedAt = started
	m.mu.Unlock()

	m.setStatus(ctx, StatusRunning)
	if n, err := m.store.BidsToday(ctx); err == nil {
		m.breaker.SeedBidsToday(int(n))
	}

	log.Info().
		Strs("skills", m.cfg.Skills).
		Dur("interval", m.cfg.CheckInterval).
		Msg("🚀 Bid monitor started")

	for {
		if m.breaker.Check() {
			m.setStatus(ctx, StatusCoolingDown)
			if !sleep(ctx, m.breaker.RemainingCooldown()) {
				return m.stop()
			}
			m.setStatus(ctx, StatusRunning)
			continue
		}

		_, err := m.RunCycle(ctx)
		switch {
		case errors.Is(err, freelancer.ErrInvalidToken):
			m.setStatus(ctx, StatusInvalidToken)
			m.recordError(ctx, err)
			log.Error().Err(err).Msg("❌ Invalid token, stopping monitor")
			return err
		case ctx.Err() != nil:
			return m.stop()
		case err != nil:
			m.recordError(ctx, err)
			if m.breaker.RecordFailure(err) && m.notifier != nil {
				m.notifier.NotifyError(fmt.Sprintf("Pausing after repeated errors: %v", err))
			}
		default:
			m.breaker.RecordSuccess()
		}

		if err := m.store.SetUptime(ctx, started); err != nil {
			log.Debug().Err(err).Msg("Uptime update failed")
		}
		if err := m.store.SetSuccessRate(ctx, m.Stats().SuccessRate); err != nil {
			log.Debug().Err(err).Msg("Success rate update failed")
		}

		if !sleep(ctx, m.cfg.CheckInterval) {
			return m.stop()
		}
	}
}

// RunCycle fetches projects once and bids on the eligible ones in priority order
func (m *Monitor) RunCycle(ctx context.Context) (CycleResult, error) {
	begin := time.Now()
	result := CycleResult{Skipped: make(map[string]int)}

	projects, err := m.source.FetchBySkills(ctx, m.cfg.Skills, m.cfg.FetchLimit)
	if err != nil {
		return result, fmt.Errorf("fetch projects: %w", err)
	}
	result.Fetched = len(projects)

	var candidates []candidate
	for i := range projects {
		p := &projects[i]
		if m.dryRunSeen.Contains(p.ID) {
			result.Skipped[ReasonProcessed]++
			continue
		}
		ok, reason := m.pipeline.ShouldBid(p)
		if !ok {
			result.Skipped[reason]++
			if reason != ReasonProcessed {
				m.record(p, 0, "skipped", reason)
			}
			continue
		}
		score, reasons := m.scorer.Priority(p)
		candidates = append(candidates, candidate{project: p, priority: score, reasons: reasons})
	}
	result.Eligible = len(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})
	if limit := m.cfg.MaxProjectsPerCycle; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for i, c := range candidates {
		if ok, reason := m.breaker.CanBid(); !ok {
			log.Info().Str("reason", reason).Msg("🛑 Daily bid limit reached")
			break
		}
		if i > 0 && !sleep(ctx, m.cfg.BidDelay) {
			break
		}

		log.Info().
			Int64("project_id", c.project.ID).
			Int("priority", c.priority).
			Str("reasons", c.reasons).
			Msg("🎯 Bidding")

		res := m.placer.PlaceBid(ctx, c.project)
		if res.RateLimited {
			break
		}
		if errors.Is(res.Err, freelancer.ErrInvalidToken) {
			return result, res.Err
		}
		m.afterBid(ctx, c, res)
		if res.Success {
			result.Placed++
		} else {
			result.Failed++
		}
	}

	m.mu.Lock()
	m.stats.Cycles++
	m.stats.ProjectsSeen += result.Fetched
	m.stats.Eligible += result.Eligible
	m.stats.LastCycle = time.Now()
	m.stats.LastCycleTook = time.Since(begin).Truncate(time.Millisecond).String()
	m.mu.Unlock()

	log.Info().
		Int("fetched", result.Fetched).
		Int("eligible", result.Eligible).
		Int("placed", result.Placed).
		Int("failed", result.Failed).
		Msg("🔄 Cycle complete")
	return result, nil
}

func (m *Monitor) afterBid(ctx context.Context, c candidate, res Result) {
	p := c.project

	switch {
	case res.DryRun:
		m.dryRunSeen.Add(p.ID)
	case !res.Success && freelancer.IsTransient(res.Err):
		// retried next cycle
		log.Debug().Int64("project_id", p.ID).Msg("Transient bid failure, project stays eligible")
	default:
		m.seen.Add(p.ID)
		if err := m.store.SaveProcessed(ctx, m.seen.Recent(processedKept)); err != nil {
			log.Warn().Err(err).Msg("Failed to flush processed projects")
		}
	}
	rec := state.BidRecord{
		ProjectID: p.ID,
		Title:     p.Title,
		Amount:    res.Amount.String(),
		Currency:  res.Currency,
		Success:   res.Success,
		DryRun:    res.DryRun,
		BidID:     res.BidID,
		Error:     res.Error,
	}
	if err := m.store.RecordBid(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("Failed to record bid state")
	}

	decision := "failed"
	switch {
	case res.DryRun:
		decision = "dry_run"
	case res.Success:
		decision = "bid"
		m.breaker.RecordBid()
	}
	m.record(p, c.priority, decision, res.Error)

	m.mu.Lock()
	if res.Success {
		m.stats.BidsPlaced++
	} else {
		m.stats.BidsFailed++
	}
	if total := m.stats.BidsPlaced + m.stats.BidsFailed; total > 0 {
		m.stats.SuccessRate = float64(m.stats.BidsPlaced) / float64(total) * 100
	}
	m.mu.Unlock()

	if m.notifier != nil {
		m.notifier.NotifyBid(p, res)
	}
}

func (m *Monitor) record(p *freelancer.Project, priority int, decision, reason string) {
	if m.recorder == nil {
		return
	}
	row := &database.SeenProject{
		ID:          p.ID,
		Title:       p.Title,
		OwnerID:     p.OwnerID,
		MinBudget:   p.Budget.Minimum,
		MaxBudget:   p.Budget.Maximum,
		Currency:    p.CurrencyCode(),
		BudgetType:  p.Budget.Type,
		BidCount:    p.BidStats.BidCount,
		Skills:      p.SkillNames(),
		Elite:       p.IsElite(),
		Priority:    priority,
		Decision:    decision,
		SkipReason:  reason,
		SubmittedAt: p.SubmittedAt(),
	}
	if err := m.recorder.SaveSeenProject(row); err != nil {
		log.Debug().Err(err).Int64("project_id", p.ID).Msg("Failed to save project snapshot")
	}
}

func (m *Monitor) recordError(ctx context.Context, err error) {
	if serr := m.store.SetError(ctx, err.Error()); serr != nil {
		log.Debug().Err(serr).Msg("Failed to record error")
	}
	log.Warn().Err(err).Msg("⚠️ Cycle failed")
}

func (m *Monitor) setStatus(ctx context.Context, status string) {
	if err := m.store.SetStatus(ctx, status); err != nil {
		log.Debug().Err(err).Str("status", status).Msg("Failed to set status")
	}
}

func (m *Monitor) stop() error {
	m.setStatus(context.Background(), StatusStopped)
	log.Info().Msg("Bid monitor stopped")
	return nil
}

// Stats returns loop counters
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// sleep waits for d and reports false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
