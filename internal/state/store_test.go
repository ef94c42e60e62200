package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	backend, err := NewRedisBackend(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewStore(backend), mr
}

func backends(t *testing.T) map[string]*Store {
	redisStore, _ := newRedisStore(t)
	return map[string]*Store{
		"redis":  redisStore,
		"memory": NewStore(NewMemoryBackend()),
	}
}

func TestStore_RecordBid(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
			s.now = func() time.Time { return ts }

			require.NoError(t, s.RecordBid(ctx, BidRecord{ProjectID: 1, Amount: "250", Success: true, BidID: 9}))
			ts = ts.Add(time.Minute)
			require.NoError(t, s.RecordBid(ctx, BidRecord{ProjectID: 2, Amount: "300", Success: false, Error: "nope"}))
			ts = ts.Add(time.Minute)
			require.NoError(t, s.RecordBid(ctx, BidRecord{ProjectID: 3, Amount: "400", Success: true}))

			snap, err := s.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), snap.TotalBids)
			assert.Equal(t, int64(2), snap.BidsToday)
			assert.Equal(t, time.Date(2024, 3, 1, 10, 2, 0, 0, time.UTC), snap.LastBidTime)

			recent, err := s.RecentBids(ctx)
			require.NoError(t, err)
			require.Len(t, recent, 3)
			assert.Equal(t, int64(3), recent[0].ProjectID)
			assert.Equal(t, "nope", recent[1].Error)
		})
	}
}

func TestStore_RecordBidSameMillisecond(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
			s.now = func() time.Time { return ts }

			require.NoError(t, s.RecordBid(ctx, BidRecord{ProjectID: 1, Success: true}))
			require.NoError(t, s.RecordBid(ctx, BidRecord{ProjectID: 2, Success: true}))

			recent, err := s.RecentBids(ctx)
			require.NoError(t, err)
			assert.Len(t, recent, 2)
		})
	}
}

func TestStore_DryRunNotCounted(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.RecordBid(ctx, BidRecord{ProjectID: 1, Success: true, DryRun: true}))

			snap, err := s.Snapshot(ctx)
			require.NoError(t, err)
			assert.Zero(t, snap.TotalBids)
			assert.Zero(t, snap.BidsToday)
			assert.True(t, snap.LastBidTime.IsZero())

			recent, err := s.RecentBids(ctx)
			require.NoError(t, err)
			require.Len(t, recent, 1)
			assert.True(t, recent[0].DryRun)
		})
	}
}

func TestStore_DailyReset(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			day := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
			s.now = func() time.Time { return day }

			require.NoError(t, s.RecordBid(ctx, BidRecord{ProjectID: 1, Success: true}))
			n, err := s.BidsToday(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			day = day.Add(2 * time.Hour)
			n, err = s.BidsToday(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)

			snap, err := s.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), snap.TotalBids)
		})
	}
}

func TestStore_ProcessedKeepsLast1000(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ids := make([]int64, 1200)
			for i := range ids {
				ids[i] = int64(i + 1)
			}

			require.NoError(t, s.SaveProcessed(ctx, ids))
			got, err := s.Processed(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1000)
			assert.Equal(t, int64(201), got[0])
			assert.Equal(t, int64(1200), got[999])
		})
	}
}

func TestStore_StatusKeys(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			s.now = func() time.Time { return now }

			require.NoError(t, s.SetStatus(ctx, "Running"))
			require.NoError(t, s.SetError(ctx, "Error - Invalid Token"))
			require.NoError(t, s.SetUptime(ctx, now.Add(-90*time.Minute)))
			require.NoError(t, s.SetSuccessRate(ctx, 87.5))

			snap, err := s.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Running", snap.Status)
			assert.Equal(t, "Error - Invalid Token", snap.LastError)
			assert.Equal(t, "1h30m0s", snap.Uptime)
			assert.Equal(t, 87.5, snap.SuccessRate)
			assert.Equal(t, now, snap.LastUpdate)
		})
	}
}

func TestStore_BidRecordTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordBid(ctx, BidRecord{ProjectID: 1, Success: true}))
	recent, err := s.RecentBids(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	mr.FastForward(25 * time.Hour)
	recent, err = s.RecentBids(ctx)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestMemoryBackend_Expiry(t *testing.T) {
	b := NewMemoryBackend().(*memoryBackend)
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "bid:1", "x", time.Hour))
	_, ok, _ := b.Get(ctx, "bid:1")
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok, _ = b.Get(ctx, "bid:1")
	assert.False(t, ok)
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	s := Open(context.Background(), "redis://127.0.0.1:1/0")
	_, ok := s.backend.(*memoryBackend)
	assert.True(t, ok)

	s = Open(context.Background(), "")
	_, ok = s.backend.(*memoryBackend)
	assert.True(t, ok)
}
