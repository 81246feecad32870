// Package searcher answers questions against the live document index.
package searcher

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/composer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/tracing"
)

// AnswerCache memoises composed answers. *cache.AnswerCache satisfies it.
type AnswerCache interface {
	GetOrCompute(ctx context.Context, key string, compute func() (*cache.Entry, error)) (*cache.Entry, bool, error)
}

// Answer is the result of one question.
type Answer struct {
	Answer       string        `json:"answer"`
	Kind         executor.Kind `json:"kind"`
	Returned     int           `json:"returned"`
	Relevant     int           `json:"relevant"`
	IndexVersion string        `json:"index_version,omitempty"`
	CacheHit     bool          `json:"cache_hit"`
}

// Options carries the optional collaborators. Nil fields are skipped.
type Options struct {
	Cache     AnswerCache
	Metrics   *metrics.Metrics
	Collector *analytics.Collector
}

type Searcher struct {
	store     *index.Store
	tok       *tokenizer.Tokenizer
	cfg       executor.Config
	cache     AnswerCache
	metrics   *metrics.Metrics
	collector *analytics.Collector
	logger    *slog.Logger
}

func New(store *index.Store, tok *tokenizer.Tokenizer, cfg executor.Config, opts Options) *Searcher {
	return &Searcher{
		store:     store,
		tok:       tok,
		cfg:       cfg,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		collector: opts.Collector,
		logger:    slog.Default().With("component", "searcher"),
	}
}

// Ask answers question from a single snapshot of the live index. Every
// outcome, including "no document" and "not found", is a normal Answer; an
// error is returned only if the cache layer's computation fails.
func (s *Searcher) Ask(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "searcher.Ask")

	idx := s.store.Current()
	q := parser.Parse(question, s.tok)

	var (
		ans *Answer
		err error
	)
	if idx.Len() == 0 || s.cache == nil {
		ans = s.answer(idx, q)
	} else {
		ans, err = s.cachedAnswer(ctx, idx, q)
	}
	if err != nil {
		tracing.End(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("docqa.kind", string(ans.Kind)),
		attribute.Int("docqa.returned", ans.Returned),
		attribute.Bool("docqa.cache_hit", ans.CacheHit),
	)
	tracing.End(span, nil)

	elapsed := time.Since(start)
	s.observe(ans, elapsed)
	s.collector.Track(analytics.AskEvent{
		Type:         analytics.EventAsk,
		Question:     q.Normalized,
		Tokens:       q.Tokens,
		Kind:         string(ans.Kind),
		Relevant:     ans.Relevant,
		Returned:     ans.Returned,
		LatencyMs:    float64(elapsed.Microseconds()) / 1000,
		CacheHit:     ans.CacheHit,
		IndexVersion: ans.IndexVersion,
		Timestamp:    time.Now().UTC(),
		RequestID:    logger.RequestID(ctx),
	})
	logger.FromContext(ctx).Debug("question answered",
		"kind", ans.Kind,
		"tokens", len(q.Tokens),
		"returned", ans.Returned,
		"cache_hit", ans.CacheHit,
		"elapsed", elapsed,
	)
	return ans, nil
}

func (s *Searcher) answer(idx *index.Index, q parser.Query) *Answer {
	plan := executor.Answer(idx, q, s.cfg)
	ans := &Answer{
		Answer:   composer.Compose(plan),
		Kind:     plan.Kind,
		Returned: len(plan.Units),
		Relevant: plan.Relevant,
	}
	if idx != nil {
		ans.IndexVersion = idx.Version
	}
	return ans
}

func (s *Searcher) cachedAnswer(ctx context.Context, idx *index.Index, q parser.Query) (*Answer, error) {
	key := cache.Key(idx.Version, q.Tokens)
	entry, hit, err := s.cache.GetOrCompute(ctx, key, func() (*cache.Entry, error) {
		a := s.answer(idx, q)
		return &cache.Entry{
			Answer:       a.Answer,
			Kind:         string(a.Kind),
			Returned:     a.Returned,
			Relevant:     a.Relevant,
			IndexVersion: a.IndexVersion,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &Answer{
		Answer:       entry.Answer,
		Kind:         executor.Kind(entry.Kind),
		Returned:     entry.Returned,
		Relevant:     entry.Relevant,
		IndexVersion: entry.IndexVersion,
		CacheHit:     hit,
	}, nil
}

func (s *Searcher) observe(ans *Answer, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.AnswersTotal.WithLabelValues(string(ans.Kind)).Inc()
	s.metrics.AnswerLatency.Observe(elapsed.Seconds())
	s.metrics.AnswerUnits.Observe(float64(ans.Returned))
}

// Document describes the live index.
type Document struct {
	Indexed   bool      `json:"indexed"`
	Version   string    `json:"version,omitempty"`
	Source    string    `json:"source,omitempty"`
	Units     int       `json:"units"`
	Tokens    int       `json:"tokens"`
	SizeBytes int       `json:"size_bytes"`
	IndexedAt time.Time `json:"indexed_at,omitzero"`
}

// Document reports metadata for the live index.
func (s *Searcher) Document() Document {
	idx := s.store.Current()
	if idx == nil {
		return Document{}
	}
	return Document{
		Indexed:   idx.Len() > 0,
		Version:   idx.Version,
		Source:    idx.Source,
		Units:     idx.Len(),
		Tokens:    idx.TokenCount(),
		SizeBytes: idx.SizeBytes,
		IndexedAt: idx.IndexedAt,
	}
}
