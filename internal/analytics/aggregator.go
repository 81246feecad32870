package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const (
	maxLatencySamples = 10000
	maxTrackedQueries = 10000
	topQueryCount     = 10
)

type AggregatedStats struct {
	TotalQuestions   int64            `json:"total_questions"`
	TotalIngestions  int64            `json:"total_ingestions"`
	InsufficientDocs int64            `json:"insufficient_documents"`
	AnswersByKind    map[string]int64 `json:"answers_by_kind"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
	P50LatencyMs     float64          `json:"p50_latency_ms"`
	P95LatencyMs     float64          `json:"p95_latency_ms"`
	P99LatencyMs     float64          `json:"p99_latency_ms"`
	TopQuestions     []QueryCount     `json:"top_questions"`
	NotFoundTerms    []QueryCount     `json:"not_found_terms"`
	LastDocument     *IndexEvent      `json:"last_document,omitempty"`
	QuestionsPerMin  float64          `json:"questions_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds events into running statistics. Latencies are kept in a
// ring of the most recent samples. Question and term counters hold at most
// maxTracked keys each; when full, one-off keys are evicted to make room.
type Aggregator struct {
	mu              sync.RWMutex
	totalQuestions  int64
	totalIngestions int64
	insufficient    int64
	cacheHits       int64
	cacheMisses     int64
	byKind          map[string]int64
	latencies       []float64
	latencyNext     int
	questionCounts  map[string]int64
	notFoundTerms   map[string]int64
	lastDocument    *IndexEvent
	startTime       time.Time
	maxTracked      int

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byKind:         make(map[string]int64),
		latencies:      make([]float64, 0, 1024),
		questionCounts: make(map[string]int64),
		notFoundTerms:  make(map[string]int64),
		startTime:      time.Now(),
		maxTracked:     maxTrackedQueries,
		logger:         slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleMessage matches kafka.MessageHandler.
// Undecodable messages are logged and skipped so they get committed.
func (a *Aggregator) HandleMessage(_ context.Context, _ []byte, value []byte) error {
	event, err := decodeEvent(value)
	if err != nil {
		a.logger.Error("failed to decode analytics event", "error", err)
		return nil
	}
	a.Record(event)
	return nil
}

// Record folds a decoded event into the statistics.
func (a *Aggregator) Record(event any) {
	switch e := event.(type) {
	case AskEvent:
		a.recordAsk(e)
	case *AskEvent:
		a.recordAsk(*e)
	case IndexEvent:
		a.recordIndex(e)
	case *IndexEvent:
		a.recordIndex(*e)
	default:
		a.logger.Warn("ignoring unknown analytics event", "type", fmt.Sprintf("%T", event))
	}
}

func (a *Aggregator) recordAsk(e AskEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalQuestions++
	a.byKind[e.Kind]++
	if e.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, e.LatencyMs)
	} else {
		a.latencies[a.latencyNext] = e.LatencyMs
		a.latencyNext = (a.latencyNext + 1) % maxLatencySamples
	}
	if e.Question != "" {
		a.count(a.questionCounts, e.Question)
	}
	if e.Kind == "NOT_FOUND" {
		for _, t := range e.Tokens {
			a.count(a.notFoundTerms, t)
		}
	}
}

// count increments key in counts. A new key arriving at a full map first
// evicts every key seen only once; if none can go, the new key is dropped.
func (a *Aggregator) count(counts map[string]int64, key string) {
	if _, ok := counts[key]; !ok && len(counts) >= a.maxTracked {
		for k, v := range counts {
			if v <= 1 {
				delete(counts, k)
			}
		}
		if len(counts) >= a.maxTracked {
			return
		}
	}
	counts[key]++
}

func (a *Aggregator) recordIndex(e IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalIngestions++
	if !e.Sufficient {
		a.insufficient++
		return
	}
	doc := e
	a.lastDocument = &doc
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQuestions:   a.totalQuestions,
		TotalIngestions:  a.totalIngestions,
		InsufficientDocs: a.insufficient,
		AnswersByKind:    make(map[string]int64, len(a.byKind)),
		CacheHits:        a.cacheHits,
		CacheMisses:      a.cacheMisses,
	}
	for k, v := range a.byKind {
		stats.AnswersByKind[k] = v
	}
	if len(a.latencies) > 0 {
		sorted := make([]float64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Float64s(sorted)
		var sum float64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQuestions = topN(a.questionCounts, topQueryCount)
	stats.NotFoundTerms = topN(a.notFoundTerms, topQueryCount)
	if a.lastDocument != nil {
		doc := *a.lastDocument
		stats.LastDocument = &doc
	}
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QuestionsPerMin = float64(stats.TotalQuestions) / elapsed
	}
	return stats
}

// Restore seeds counters from a persisted snapshot, typically at startup.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalQuestions = s.TotalQuestions
	a.totalIngestions = s.TotalIngestions
	a.insufficient = s.InsufficientDocs
	a.cacheHits = s.CacheHits
	a.cacheMisses = s.CacheMisses
	for k, v := range s.AnswersByKind {
		a.byKind[k] = v
	}
	for _, q := range s.TopQuestions {
		if len(a.questionCounts) < a.maxTracked {
			a.questionCounts[q.Query] = q.Count
		}
	}
	for _, q := range s.NotFoundTerms {
		if len(a.notFoundTerms) < a.maxTracked {
			a.notFoundTerms[q.Query] = q.Count
		}
	}
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n largest counts; ties are ordered by key so the output
// is stable.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
