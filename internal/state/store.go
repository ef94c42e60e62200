package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Keys shared with dashboards
const (
	KeyTotalBids         = "total_bids"
	KeyBidsToday         = "bids_today"
	KeyProcessedProjects = "processed_projects"
	KeyBotStatus         = "bot_status"
	KeyLastUpdate        = "last_update"
	KeyBotUptime         = "bot_uptime"
	KeySuccessRate       = "success_rate"
	KeyLastError         = "last_error"
	KeyLastDailyReset    = "last_daily_reset"
	KeyLastBidTime       = "last_bid_time"
	bidKeyPrefix         = "bid:"

	maxProcessed = 1000
	bidTTL       = 24 * time.Hour
	dateLayout   = "2006-01-02"
)

// BidRecord is the short-lived bid summary kept under bid:<unix ms>:<project id>
type BidRecord struct {
	ProjectID int64     `json:"project_id"`
	Title     string    `json:"title"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Success   bool      `json:"success"`
	DryRun    bool      `json:"dry_run,omitempty"`
	BidID     int64     `json:"bid_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is everything dashboards display
type Snapshot struct {
	TotalBids      int64     `json:"total_bids"`
	BidsToday      int64     `json:"bids_today"`
	Status         string    `json:"bot_status"`
	LastUpdate     time.Time `json:"last_update"`
	Uptime         string    `json:"bot_uptime"`
	SuccessRate    float64   `json:"success_rate"`
	LastError      string    `json:"last_error,omitempty"`
	LastBidTime    time.Time `json:"last_bid_time"`
	ProcessedCount int       `json:"processed_count"`
}

// Store reads and writes the bot's status keys
type Store struct {
	backend Backend
	now     func() time.Time
}

// NewStore wraps a backend
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// Open connects to Redis when url is set, otherwise uses process memory.
// A Redis connection failure falls back to memory with a warning.
func Open(ctx context.Context, url string) *Store {
	if url == "" {
		return NewStore(NewMemoryBackend())
	}
	backend, err := NewRedisBackend(ctx, url)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis unavailable, keeping state in memory")
		return NewStore(NewMemoryBackend())
	}
	log.Info().Msg("🗄️  Redis state store connected")
	return NewStore(backend)
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// SetStatus records bot_status and bumps last_update
func (s *Store) SetStatus(ctx context.Context, status string) error {
	if err := s.backend.Set(ctx, KeyBotStatus, status, 0); err != nil {
		return err
	}
	return s.touch(ctx)
}

// SetError records last_error
func (s *Store) SetError(ctx context.Context, msg string) error {
	if err := s.backend.Set(ctx, KeyLastError, msg, 0); err != nil {
		return err
	}
	return s.touch(ctx)
}

// SetUptime records how long the bot has been running
func (s *Store) SetUptime(ctx context.Context, started time.Time) error {
	uptime := s.now().Sub(started).Truncate(time.Second)
	return s.backend.Set(ctx, KeyBotUptime, uptime.String(), 0)
}

// SetSuccessRate records the bid success percentage
func (s *Store) SetSuccessRate(ctx context.Context, rate float64) error {
	return s.backend.Set(ctx, KeySuccessRate, strconv.FormatFloat(rate, 'f', 1, 64), 0)
}

// ResetDailyIfNeeded zeroes bids_today when the date changed since the last
// reset. It reports whether a reset happened.
func (s *Store) ResetDailyIfNeeded(ctx context.Context) (bool, error) {
	today := s.now().Format(dateLayout)
	last, _, err := s.backend.Get(ctx, KeyLastDailyReset)
	if err != nil {
		return false, err
	}
	if last == today {
		return false, nil
	}
	if err := s.backend.Set(ctx, KeyBidsToday, "0", 0); err != nil {
		return false, err
	}
	if err := s.backend.Set(ctx, KeyLastDailyReset, today, 0); err != nil {
		return false, err
	}
	log.Info().Str("date", today).Msg("📅 Daily bid counter reset")
	return true, nil
}

// BidsToday returns the bid count for the current day
func (s *Store) BidsToday(ctx context.Context) (int64, error) {
	if _, err := s.ResetDailyIfNeeded(ctx); err != nil {
		return 0, err
	}
	return s.getInt(ctx, KeyBidsToday)
}

// RecordBid stores the bid summary and bumps counters for successful live bids
func (s *Store) RecordBid(ctx context.Context, rec BidRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%s%d:%d", bidKeyPrefix, rec.Timestamp.UnixMilli(), rec.ProjectID)
	if err := s.backend.Set(ctx, key, string(data), bidTTL); err != nil {
		return err
	}
	if !rec.Success || rec.DryRun {
		return nil
	}

	if _, err := s.ResetDailyIfNeeded(ctx); err != nil {
		return err
	}
	if _, err := s.backend.Incr(ctx, KeyTotalBids); err != nil {
		return err
	}
	if _, err := s.backend.Incr(ctx, KeyBidsToday); err != nil {
		return err
	}
	return s.backend.Set(ctx, KeyLastBidTime, rec.Timestamp.Format(time.RFC3339), 0)
}

// RecentBids returns bid records still within their TTL, newest first
func (s *Store) RecentBids(ctx context.Context) ([]BidRecord, error) {
	keys, err := s.backend.Keys(ctx, bidKeyPrefix)
	if err != nil {
		return nil, err
	}

	records := make([]BidRecord, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		raw, ok, err := s.backend.Get(ctx, keys[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var rec BidRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Debug().Err(err).Str("key", keys[i]).Msg("Skipping malformed bid record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveProcessed stores the most recent processed project IDs (last 1000)
func (s *Store) SaveProcessed(ctx context.Context, ids []int64) error {
	if len(ids) > maxProcessed {
		ids = ids[len(ids)-maxProcessed:]
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, KeyProcessedProjects, string(data), 0)
}

// Processed loads the processed project IDs
func (s *Store) Processed(ctx context.Context) ([]int64, error) {
	raw, ok, err := s.backend.Get(ctx, KeyProcessedProjects)
	if err != nil || !ok {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyProcessedProjects, err)
	}
	return ids, nil
}

// Snapshot reads all status keys
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.TotalBids, err = s.getInt(ctx, KeyTotalBids); err != nil {
		return snap, err
	}
	if snap.BidsToday, err = s.BidsToday(ctx); err != nil {
		return snap, err
	}
	snap.Status = s.getString(ctx, KeyBotStatus)
	snap.Uptime = s.getString(ctx, KeyBotUptime)
	snap.LastError = s.getString(ctx, KeyLastError)
	snap.LastUpdate = s.getTime(ctx, KeyLastUpdate)
	snap.LastBidTime = s.getTime(ctx, KeyLastBidTime)
	if rate := s.getString(ctx, KeySuccessRate); rate != "" {
		snap.SuccessRate, _ = strconv.ParseFloat(rate, 64)
	}

	ids, err := s.Processed(ctx)
	if err != nil {
		return snap, err
	}
	snap.ProcessedCount = len(ids)
	return snap, nil
}

func (s *Store) touch(ctx context.Context) error {
	return s.backend.Set(ctx, KeyLastUpdate, s.now().Format(time.RFC3339), 0)
}

func (s *Store) getInt(ctx context.Context, key string) (int64, error) {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) getString(ctx context.Context, key string) string {
	raw, _, err := s.backend.Get(ctx, key)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("State read failed")
	}
	return raw
}

func (s *Store) getTime(ctx context.Context, key string) time.Time {
	raw := s.getString(ctx, key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
