package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/metrics"
)

type fakeBackend struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing bool
	gets    atomic.Int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string][]byte)}
}

var errDown = errors.New("connection refused")

func (f *fakeBackend) Get(_ context.Context, key string) ([]byte, error) {
	f.gets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errDown
	}
	v, ok := f.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (f *fakeBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errDown
	}
	f.data[key] = value
	return nil
}

func (f *fakeBackend) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeBackend) CountByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, errDown
	}
	var n int64
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			n++
		}
	}
	return n, nil
}

func TestKey(t *testing.T) {
	a := Key("v1", []string{"add", "matrices"})
	assert.Equal(t, a, Key("v1", []string{"add", "matrices"}))
	assert.NotEqual(t, a, Key("v2", []string{"add", "matrices"}), "version must be part of the key")
	assert.NotEqual(t, a, Key("v1", []string{"matrices", "add"}), "token order is part of the key")
	assert.NotEqual(t, Key("v1", []string{"ab", "c"}), Key("v1", []string{"a", "bc"}))
	assert.Contains(t, a, keyPrefix)
}

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	c := New(newFakeBackend(), time.Minute, m)
	key := Key("v1", []string{"matrices"})

	calls := 0
	compute := func() (*Entry, error) {
		calls++
		return &Entry{Answer: "text", Kind: "BROAD", Returned: 2}, nil
	}

	entry, hit, err := c.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "BROAD", entry.Kind)

	entry, hit, err = c.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, entry.Returned)
	assert.Equal(t, 1, calls)

	stats := c.Stats(ctx)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Keys)
	assert.Equal(t, "closed", stats.Breaker)
}

func TestGetOrComputeError(t *testing.T) {
	c := New(newFakeBackend(), time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "k", func() (*Entry, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	b := newFakeBackend()
	b.data["answer:bad"] = []byte("{not json")
	c := New(b, time.Minute, nil)
	_, ok := c.Get(context.Background(), "answer:bad")
	assert.False(t, ok)
}

func TestBackendFailureTripsBreaker(t *testing.T) {
	b := newFakeBackend()
	b.failing = true
	c := New(b, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		entry, hit, err := c.GetOrCompute(ctx, "answer:k", func() (*Entry, error) {
			return &Entry{Kind: "SPECIFIC"}, nil
		})
		require.NoError(t, err, "backend failures must not surface to callers")
		assert.False(t, hit)
		assert.Equal(t, "SPECIFIC", entry.Kind)
	}
	assert.Equal(t, "open", c.Stats(ctx).Breaker)
	assert.Less(t, b.gets.Load(), int64(10), "open breaker should stop backend calls")
}

func TestInvalidate(t *testing.T) {
	b := newFakeBackend()
	b.data["other:key"] = []byte("x")
	c := New(b, time.Minute, nil)
	ctx := context.Background()
	c.Set(ctx, Key("v1", []string{"a"}), &Entry{})
	c.Set(ctx, Key("v1", []string{"b"}), &Entry{})

	n, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, b.data, "other:key", "invalidate only touches answer keys")
}
