// Package indexer turns extracted document text into the live index.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/tracing"
)

// Document is extracted text waiting to be indexed.
type Document struct {
	Source string
	Text   string
}

// IngestResult describes one ingestion. When Sufficient is false the live
// index was left as it was.
type IngestResult struct {
	Version     string    `json:"version,omitempty"`
	Source      string    `json:"source"`
	Units       int       `json:"units"`
	Tokens      int       `json:"tokens"`
	Sufficient  bool      `json:"sufficient"`
	ContentHash string    `json:"content_hash"`
	IndexedAt   time.Time `json:"indexed_at,omitzero"`
}

type Engine struct {
	store     *index.Store
	tok       *tokenizer.Tokenizer
	cfg       index.Config
	metrics   *metrics.Metrics
	collector *analytics.Collector
	logger    *slog.Logger
}

// NewEngine builds an Engine publishing into store. m and collector may be
// nil.
func NewEngine(store *index.Store, tok *tokenizer.Tokenizer, cfg index.Config, m *metrics.Metrics, collector *analytics.Collector) *Engine {
	return &Engine{
		store:     store,
		tok:       tok,
		cfg:       cfg,
		metrics:   m,
		collector: collector,
		logger:    slog.Default().With("component", "indexer"),
	}
}

// Ingest builds a new index from doc off to the side and publishes it in one
// step. Text that normalises to fewer than MinDocumentLength characters is
// reported with Sufficient=false and a nil error; the live index is kept.
func (e *Engine) Ingest(ctx context.Context, doc Document) (*IngestResult, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "indexer.Ingest",
		attribute.String("docqa.source", doc.Source),
		attribute.Int("docqa.size_bytes", len(doc.Text)),
	)
	log := logger.FromContext(ctx).With("component", "indexer")

	sum := sha256.Sum256([]byte(doc.Text))
	result := &IngestResult{
		Source:      doc.Source,
		ContentHash: hex.EncodeToString(sum[:]),
	}

	idx, err := index.Build(doc.Source, doc.Text, e.tok, e.cfg)
	if errors.Is(err, apperrors.ErrInsufficientText) {
		tracing.End(span, nil)
		log.Warn("document has too little text, index unchanged", "source", doc.Source, "reason", err)
		e.record(result, "insufficient", len(doc.Text), time.Since(start))
		return result, nil
	}
	if err != nil {
		tracing.End(span, err)
		e.record(result, "failed", len(doc.Text), time.Since(start))
		return nil, fmt.Errorf("building index for %s: %w", doc.Source, err)
	}

	prev := e.store.Replace(idx)
	result.Version = idx.Version
	result.Units = idx.Len()
	result.Tokens = idx.TokenCount()
	result.Sufficient = true
	result.IndexedAt = idx.IndexedAt

	span.SetAttributes(attribute.Int("docqa.units", result.Units))
	tracing.End(span, nil)

	elapsed := time.Since(start)
	e.record(result, "indexed", len(doc.Text), elapsed)
	if e.metrics != nil {
		e.metrics.IndexedUnits.Set(float64(idx.Len()))
	}
	attrs := []any{
		"source", doc.Source,
		"version", idx.Version,
		"units", idx.Len(),
		"elapsed", elapsed,
	}
	if prev != nil {
		attrs = append(attrs, "replaced_version", prev.Version)
	}
	log.Info("document indexed", attrs...)
	return result, nil
}

func (e *Engine) record(r *IngestResult, status string, size int, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.IngestionsTotal.WithLabelValues(status).Inc()
		e.metrics.IngestLatency.Observe(elapsed.Seconds())
	}
	if status == "failed" {
		return
	}
	e.collector.Track(analytics.IndexEvent{
		Type:       analytics.EventIndex,
		Source:     r.Source,
		Version:    r.Version,
		Units:      r.Units,
		Tokens:     r.Tokens,
		SizeBytes:  size,
		Sufficient: r.Sufficient,
		LatencyMs:  float64(elapsed.Microseconds()) / 1000,
		Timestamp:  time.Now().UTC(),
	})
}
