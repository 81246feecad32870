// Package cache memoises composed answers in Redis. Keys are derived from the
// index version and the question's token sequence, so a new upload makes
// every earlier entry unreachable without an explicit flush.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docqa/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "answer:"

// Backend is the subset of the Redis client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	CountByPattern(ctx context.Context, pattern string) (int64, error)
}

// Entry is the cached form of an answer.
type Entry struct {
	Answer       string `json:"answer"`
	Kind         string `json:"kind"`
	Returned     int    `json:"returned"`
	Relevant     int    `json:"relevant"`
	IndexVersion string `json:"index_version"`
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Keys    int64  `json:"keys"`
	Breaker string `json:"breaker"`
}

type AnswerCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New wraps backend. Backend failures trip a circuit breaker; while it is
// open every lookup is a miss and nothing is written.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *AnswerCache {
	c := &AnswerCache{
		backend: backend,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "answer-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("answer-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		OnStateChange: func(name string, _, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

// Key derives the cache key for a question against one index version.
func Key(version string, tokens []string) string {
	raw := version + "\x00" + strings.Join(tokens, " ")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// Get returns the cached entry for key. Misses, backend errors and corrupt
// payloads all report false.
func (c *AnswerCache) Get(ctx context.Context, key string) (*Entry, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.backend.Get(ctx, key)
		if pkgredis.IsNil(err) {
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	if data == nil {
		c.miss()
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "key", key)
	return &entry, true
}

func (c *AnswerCache) Set(ctx context.Context, key string, entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached entry for key or computes, stores and
// returns it. Concurrent callers for the same key share one computation.
// The boolean reports a cache hit.
func (c *AnswerCache) GetOrCompute(ctx context.Context, key string, compute func() (*Entry, error)) (*Entry, bool, error) {
	if entry, ok := c.Get(ctx, key); ok {
		return entry, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		entry, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, entry)
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Entry), false, nil
}

// Invalidate deletes every cached answer.
func (c *AnswerCache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.backend.DeleteByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating answer cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats returns hit/miss counters and the current key count. Keys is -1 when
// the backend cannot be reached.
func (c *AnswerCache) Stats(ctx context.Context) Stats {
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Keys:    -1,
		Breaker: c.breaker.State().String(),
	}
	_ = c.breaker.Execute(func() error {
		n, err := c.backend.CountByPattern(ctx, keyPrefix+"*")
		if err == nil {
			s.Keys = n
		}
		return err
	})
	return s
}

func (c *AnswerCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
