// Package executor decides how a question is answered from the live index:
// no document, overview, not found, broad or specific, and selects the units
// that make up the answer.
package executor

import (
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/config"
)

// Kind tags the strategy used to answer a question.
type Kind string

const (
	KindNotIndexed Kind = "NOT_INDEXED"
	KindOverview   Kind = "OVERVIEW"
	KindNotFound   Kind = "NOT_FOUND"
	KindBroad      Kind = "BROAD"
	KindSpecific   Kind = "SPECIFIC"
)

// Config holds the answering thresholds.
type Config struct {
	// BroadRatio is exclusive: a relevance ratio above it is a broad question.
	BroadRatio    float64
	OverviewLimit int
	BroadLimit    int
	SpecificLimit int
	// SparseQuestionTokens is inclusive: questions with at most this many
	// tokens that match nothing get an overview.
	SparseQuestionTokens int
}

func DefaultConfig() Config {
	return Config{
		BroadRatio:           0.15,
		OverviewLimit:        6,
		BroadLimit:           6,
		SpecificLimit:        5,
		SparseQuestionTokens: 2,
	}
}

// FromEngineConfig extracts the answering thresholds from the service config.
func FromEngineConfig(e config.EngineConfig) Config {
	return Config{
		BroadRatio:           e.BroadRatio,
		OverviewLimit:        e.OverviewLimit,
		BroadLimit:           e.BroadLimit,
		SpecificLimit:        e.SpecificLimit,
		SparseQuestionTokens: e.SparseQuestionTokens,
	}
}

// Plan is the outcome of answering one question against one index snapshot.
type Plan struct {
	Kind     Kind
	Units    []ranker.ScoredUnit
	Relevant int
	Total    int
	Ratio    float64
}

// Texts returns the selected unit texts in plan order.
func (p *Plan) Texts() []string {
	out := make([]string, len(p.Units))
	for i, u := range p.Units {
		out[i] = u.Unit.Text
	}
	return out
}

// Answer scores every unit of idx against q and picks the response strategy.
// It is deterministic for a fixed index and query.
func Answer(idx *index.Index, q parser.Query, cfg Config) *Plan {
	if idx.Len() == 0 {
		return &Plan{Kind: KindNotIndexed}
	}

	total := idx.Len()
	scored := ranker.Score(idx, q)
	relevant := ranker.Relevant(scored)

	if len(relevant) == 0 {
		if len(q.Tokens) <= cfg.SparseQuestionTokens {
			return &Plan{
				Kind:  KindOverview,
				Units: ranker.Top(scored, cfg.OverviewLimit),
				Total: total,
			}
		}
		return &Plan{Kind: KindNotFound, Units: []ranker.ScoredUnit{}, Total: total}
	}

	ratio := float64(len(relevant)) / float64(total)
	plan := &Plan{
		Relevant: len(relevant),
		Total:    total,
		Ratio:    ratio,
	}
	if ratio > cfg.BroadRatio {
		plan.Kind = KindBroad
		plan.Units = ranker.Top(relevant, cfg.BroadLimit)
		return plan
	}
	plan.Kind = KindSpecific
	plan.Units = ranker.TopByScore(relevant, cfg.SpecificLimit)
	return plan
}
