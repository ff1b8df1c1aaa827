package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SummaryTTL bounds how stale a cached account summary may get when an
// invalidation is missed.
const SummaryTTL = 60 * time.Second

// SummaryCache stores account summaries per user. It is injected into
// the reconciliation engine rather than referenced as ambient state so
// tests can observe invalidations and deployments can choose the
// backing store.
type SummaryCache interface {
	Get(ctx context.Context, userID uint64) (*AccountSummary, bool)
	Set(ctx context.Context, userID uint64, s *AccountSummary)
	Invalidate(ctx context.Context, userID uint64)
}

// NewSummaryCache returns a Redis-backed cache when a client is
// available, so multiple processes share invalidations, and falls back
// to an in-process TTL map when Redis is absent.
func NewSummaryCache(rdb *redis.Client) SummaryCache {
	if rdb != nil {
		return &redisSummaryCache{rdb: rdb, ttl: SummaryTTL}
	}
	return &memorySummaryCache{ttl: SummaryTTL, entries: map[uint64]memoryEntry{}}
}

type redisSummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func summaryKey(userID uint64) string {
	return "summary:" + strconv.FormatUint(userID, 10)
}

func (c *redisSummaryCache) Get(ctx context.Context, userID uint64) (*AccountSummary, bool) {
	raw, err := c.rdb.Get(ctx, summaryKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var s AccountSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *redisSummaryCache) Set(ctx context.Context, userID uint64, s *AccountSummary) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, summaryKey(userID), raw, c.ttl).Err()
}

func (c *redisSummaryCache) Invalidate(ctx context.Context, userID uint64) {
	_ = c.rdb.Del(ctx, summaryKey(userID)).Err()
}

type memoryEntry struct {
	summary   *AccountSummary
	expiresAt time.Time
}

type memorySummaryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint64]memoryEntry
}

func (c *memorySummaryCache) Get(_ context.Context, userID uint64) (*AccountSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, userID)
		return nil, false
	}
	return e.summary, true
}

func (c *memorySummaryCache) Set(_ context.Context, userID uint64, s *AccountSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = memoryEntry{summary: s, expiresAt: time.Now().Add(c.ttl)}
}

func (c *memorySummaryCache) Invalidate(_ context.Context, userID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}
