package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CIRCUIT BREAKER - Protection against consecutive failed cycles
// ═══════════════════════════════════════════════════════════════════════════════

type Breaker struct {
	mu sync.RWMutex

	// Configuration
	maxConsecutiveErrors int
	cooldownDuration     time.Duration
	dailyBidLimit        int // 0 = unlimited

	// State
	consecutiveErrors int
	bidsToday         int
	tripped           bool
	trippedAt         time.Time
	reason            string
	lastError         string

	// Tracking
	lastResetDate string
	now           func() time.Time
}

// Stats is a point-in-time view of the breaker
type Stats struct {
	ConsecutiveErrors int    `json:"consecutive_errors"`
	BidsToday         int    `json:"bids_today"`
	DailyBidLimit     int    `json:"daily_bid_limit"`
	Tripped           bool   `json:"tripped"`
	Reason            string `json:"reason,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// NewBreaker creates a breaker that trips after maxErrors consecutive
// failures and stays open for cooldown
func NewBreaker(maxErrors int, cooldown time.Duration, dailyBidLimit int) *Breaker {
	if maxErrors <= 0 {
		maxErrors = 5
	}
	return &Breaker{
		maxConsecutiveErrors: maxErrors,
		cooldownDuration:     cooldown,
		dailyBidLimit:        dailyBidLimit,
		now:                  time.Now,
	}
}

// Check returns true if the monitor should pause. A breaker past its
// cooldown closes again and clears the error counter.
func (b *Breaker) Check() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dailyReset()

	if b.tripped {
		if b.now().Sub(b.trippedAt) >= b.cooldownDuration {
			b.tripped = false
			b.consecutiveErrors = 0
			b.reason = ""
			log.Info().Msg("✅ Circuit breaker reset after cooldown")
			return false
		}
		return true
	}
	return false
}

// RemainingCooldown returns how long the breaker stays open
func (b *Breaker) RemainingCooldown() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.tripped {
		return 0
	}
	left := b.cooldownDuration - b.now().Sub(b.trippedAt)
	if left < 0 {
		return 0
	}
	return left
}

// RecordFailure counts a failed cycle and reports whether it tripped the breaker
func (b *Breaker) RecordFailure(err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveErrors++
	if err != nil {
		b.lastError = err.Error()
	}

	if !b.tripped && b.consecutiveErrors >= b.maxConsecutiveErrors {
		b.trip(fmt.Sprintf("%d consecutive errors", b.consecutiveErrors))
		return true
	}
	return false
}

// RecordSuccess clears the consecutive error counter
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveErrors = 0
}

// CanBid checks the daily bid limit
func (b *Breaker) CanBid() (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dailyReset()
	if b.dailyBidLimit > 0 && b.bidsToday >= b.dailyBidLimit {
		return false, fmt.Sprintf("daily bid limit reached (%d)", b.dailyBidLimit)
	}
	return true, ""
}

// RecordBid counts a placed bid against the daily limit
func (b *Breaker) RecordBid() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dailyReset()
	b.bidsToday++
}

// SeedBidsToday restores the daily count, e.g. from the state store at startup
func (b *Breaker) SeedBidsToday(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dailyReset()
	b.bidsToday = n
}

// trip activates the circuit breaker
func (b *Breaker) trip(reason string) {
	b.tripped = true
	b.trippedAt = b.now()
	b.reason = reason
	log.Warn().
		Str("reason", reason).
		Str("last_error", b.lastError).
		Dur("cooldown", b.cooldownDuration).
		Msg("🚨 CIRCUIT BREAKER TRIPPED")
}

func (b *Breaker) dailyReset() {
	today := b.now().Format("2006-01-02")
	if b.lastResetDate != today {
		if b.lastResetDate != "" {
			log.Info().Int("bids", b.bidsToday).Msg("📅 New day, daily bid count reset")
		}
		b.bidsToday = 0
		b.lastResetDate = today
	}
}

// IsTripped returns current trip state
func (b *Breaker) IsTripped() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tripped
}

// Stats returns circuit breaker statistics
func (b *Breaker) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{
		ConsecutiveErrors: b.consecutiveErrors,
		BidsToday:         b.bidsToday,
		DailyBidLimit:     b.dailyBidLimit,
		Tripped:           b.tripped,
		Reason:            b.reason,
		LastError:         b.lastError,
	}
}

// ForceReset manually resets the circuit breaker
func (b *Breaker) ForceReset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripped = false
	b.consecutiveErrors = 0
	b.reason = ""
	log.Info().Msg("Circuit breaker manually reset")
}
