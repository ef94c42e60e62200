// Package state publishes bot counters and status to Redis so dashboards in
// other processes can read them.
package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend is the key-value surface the store needs
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// ═══════════════════════════════════════════════════════════════════
// REDIS
// ═══════════════════════════════════════════════════════════════════

type redisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to url (redis://host:port/db) and pings it
func NewRedisBackend(ctx context.Context, url string) (Backend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisBackend{client: client}, nil
}

func (b *redisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *redisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *redisBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.client.Incr(ctx, key).Result()
}

func (b *redisBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *redisBackend) Close() error {
	return b.client.Close()
}

// ═══════════════════════════════════════════════════════════════════
// IN-MEMORY (no REDIS_URL)
// ═══════════════════════════════════════════════════════════════════

type memoryEntry struct {
	value   string
	expires time.Time
}

type memoryBackend struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryBackend keeps state in process memory
func NewMemoryBackend() Backend {
	return &memoryBackend{data: make(map[string]memoryEntry), now: time.Now}
}

func (b *memoryBackend) live(key string) (memoryEntry, bool) {
	e, ok := b.data[key]
	if !ok {
		return e, false
	}
	if !e.expires.IsZero() && !b.now().Before(e.expires) {
		delete(b.data, key)
		return e, false
	}
	return e, true
}

func (b *memoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.live(key)
	return e.value, ok, nil
}

func (b *memoryBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = b.now().Add(ttl)
	}
	b.data[key] = e
	return nil
}

func (b *memoryBackend) Incr(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, _ := b.live(key)
	n := int64(0)
	if e.value != "" {
		var err error
		if n, err = strconv.ParseInt(e.value, 10, 64); err != nil {
			return 0, fmt.Errorf("incr %s: value is not an integer", key)
		}
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	b.data[key] = e
	return n, nil
}

func (b *memoryBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for k := range b.data {
		if _, ok := b.live(k); ok && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *memoryBackend) Close() error { return nil }
