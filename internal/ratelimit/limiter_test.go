package ratelimit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limits Limits) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	l := New("", limits)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_PerSecondWindow(t *testing.T) {
	l, clock := newTestLimiter(t, DefaultLimits())

	for i := 0; i < 3; i++ {
		ok, _ := l.CanMakeRequest()
		require.True(t, ok, "request %d", i)
		l.RecordRequest()
		clock.Advance(100 * time.Millisecond)
	}

	ok, reason := l.CanMakeRequest()
	assert.False(t, ok)
	assert.Contains(t, reason, "3 per second")

	// first request ages out of the 1s window
	clock.Advance(750 * time.Millisecond)
	ok, reason = l.CanMakeRequest()
	assert.True(t, ok)
	assert.Equal(t, "OK", reason)
}

func TestLimiter_HourAndDayWindows(t *testing.T) {
	tests := []struct {
		name   string
		limits Limits
		spread time.Duration
		want   string
	}{
		{"hour", Limits{PerSecond: 100, PerHour: 5, PerDay: 100}, time.Minute, "5 per hour"},
		{"day", Limits{PerSecond: 100, PerHour: 100, PerDay: 4}, 2 * time.Hour, "4 per day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, clock := newTestLimiter(t, tt.limits)
			for {
				ok, _ := l.CanMakeRequest()
				if !ok {
					break
				}
				l.RecordRequest()
				clock.Advance(tt.spread)
			}
			_, reason := l.CanMakeRequest()
			assert.Contains(t, reason, tt.want)
		})
	}
}

func TestLimiter_WaitEstimate(t *testing.T) {
	l, clock := newTestLimiter(t, Limits{PerSecond: 10, PerHour: 2, PerDay: 100})

	l.RecordRequest()
	clock.Advance(10 * time.Minute)
	l.RecordRequest()
	clock.Advance(5 * time.Minute)

	ok, reason := l.CanMakeRequest()
	assert.False(t, ok)
	// oldest at -15m, window 60m
	assert.Contains(t, reason, "wait 2700s")
}

func TestLimiter_PrunesAfterDay(t *testing.T) {
	l, clock := newTestLimiter(t, Limits{PerSecond: 10, PerHour: 10, PerDay: 2})

	l.RecordRequest()
	l.RecordRequest()
	ok, _ := l.CanMakeRequest()
	require.False(t, ok)

	clock.Advance(24*time.Hour + time.Second)
	ok, _ = l.CanMakeRequest()
	assert.True(t, ok)
	assert.Equal(t, 0, l.Status().RequestsLastDay)
}

func TestLimiter_Status(t *testing.T) {
	l, clock := newTestLimiter(t, DefaultLimits())

	l.RecordRequest()
	clock.Advance(2 * time.Hour)
	l.RecordRequest()
	l.RecordRequest()

	s := l.Status()
	assert.Equal(t, 2, s.RequestsLastHour)
	assert.Equal(t, 3, s.RequestsLastDay)
	assert.Equal(t, 598, s.RemainingHour)
	assert.Equal(t, 3597, s.RemainingDay)
	assert.Equal(t, DefaultLimits(), s.Limits)
}

func TestLimiter_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rate_limit_tracking.json")

	l := New(path, DefaultLimits())
	l.RecordRequest()
	l.RecordRequest()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"requests":[`)

	reloaded := New(path, DefaultLimits())
	assert.Equal(t, 2, reloaded.Status().RequestsLastDay)
}

func TestLimiter_CorruptTrackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate_limit_tracking.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	l := New(path, DefaultLimits())
	ok, _ := l.CanMakeRequest()
	assert.True(t, ok)
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l, _ := newTestLimiter(t, Limits{PerSecond: 1, PerHour: 1, PerDay: 1})
	l.RecordRequest()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_WaitReturnsWhenAllowed(t *testing.T) {
	l, _ := newTestLimiter(t, DefaultLimits())
	assert.NoError(t, l.Wait(context.Background()))
}
