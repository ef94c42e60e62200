// Package ratelimit throttles outbound API calls with sliding per-second,
// per-hour and per-day windows.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Limits caps the number of requests in each window
type Limits struct {
	PerSecond int `json:"per_second"`
	PerHour   int `json:"per_hour"`
	PerDay    int `json:"per_day"`
}

// DefaultLimits matches the marketplace's published quotas
func DefaultLimits() Limits {
	return Limits{PerSecond: 3, PerHour: 600, PerDay: 3600}
}

// Status is a snapshot of window usage
type Status struct {
	RequestsLastHour int    `json:"requests_last_hour"`
	RequestsLastDay  int    `json:"requests_last_day"`
	RemainingHour    int    `json:"remaining_hour"`
	RemainingDay     int    `json:"remaining_day"`
	Limits           Limits `json:"limits"`
}

type tracking struct {
	Requests []time.Time `json:"requests"`
}

// Limiter keeps an ordered list of request timestamps. Entries older than a
// day are pruned lazily on each call.
type Limiter struct {
	mu       sync.Mutex
	limits   Limits
	path     string
	requests []time.Time

	now func() time.Time
}

// New creates a limiter persisting to path. An empty path keeps state in
// memory only. Existing tracking data is loaded when present.
func New(path string, limits Limits) *Limiter {
	l := &Limiter{
		limits: limits,
		path:   path,
		now:    time.Now,
	}
	if err := l.load(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not load rate limit tracking")
	}
	return l
}

// CanMakeRequest reports whether a request may be sent now. When refused,
// reason names the exhausted window and the estimated wait.
func (l *Limiter) CanMakeRequest() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed, reason, _ := l.check(l.now())
	return allowed, reason
}

// RecordRequest appends the current time and persists the window
func (l *Limiter) RecordRequest() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	l.requests = append(l.requests, now)

	if err := l.save(); err != nil {
		log.Warn().Err(err).Msg("Could not save rate limit tracking")
	}
}

// Status returns counts for the hour and day windows
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	hour := l.countSince(now.Add(-time.Hour))
	day := len(l.requests)

	return Status{
		RequestsLastHour: hour,
		RequestsLastDay:  day,
		RemainingHour:    max(l.limits.PerHour-hour, 0),
		RemainingDay:     max(l.limits.PerDay-day, 0),
		Limits:           l.limits,
	}
}

// Wait blocks until a request is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		allowed, _, wait := l.check(l.now())
		l.mu.Unlock()
		if allowed {
			return nil
		}

		timer := time.NewTimer(max(wait, 50*time.Millisecond))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// check must be called with mu held
func (l *Limiter) check(now time.Time) (bool, string, time.Duration) {
	l.prune(now)

	windows := []struct {
		name   string
		limit  int
		length time.Duration
	}{
		{"second", l.limits.PerSecond, time.Second},
		{"hour", l.limits.PerHour, time.Hour},
		{"day", l.limits.PerDay, 24 * time.Hour},
	}

	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}
		since := now.Add(-w.length)
		count := l.countSince(since)
		if count < w.limit {
			continue
		}
		oldest := l.oldestSince(since)
		wait := max(oldest.Add(w.length).Sub(now), 0)
		return false, fmt.Sprintf("%d per %s, wait %ds", w.limit, w.name, int(wait.Seconds()+0.999)), wait
	}

	return true, "OK", 0
}

func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	i := 0
	for i < len(l.requests) && !l.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.requests = append(l.requests[:0], l.requests[i:]...)
	}
}

func (l *Limiter) countSince(since time.Time) int {
	n := 0
	for i := len(l.requests) - 1; i >= 0 && l.requests[i].After(since); i-- {
		n++
	}
	return n
}

func (l *Limiter) oldestSince(since time.Time) time.Time {
	for _, ts := range l.requests {
		if ts.After(since) {
			return ts
		}
	}
	return since
}

func (l *Limiter) load() error {
	if l.path == "" {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var t tracking
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parse %s: %w", l.path, err)
	}
	l.requests = t.Requests
	l.prune(l.now())
	return nil
}

func (l *Limiter) save() error {
	if l.path == "" {
		return nil
	}
	data, err := json.Marshal(tracking{Requests: l.requests})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(l.path, data, 0644)
}
