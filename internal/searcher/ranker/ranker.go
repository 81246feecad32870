package ranker

import (
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/parser"
)

// ScoredUnit pairs a unit with its overlap score against one query.
type ScoredUnit struct {
	Unit     *index.Unit
	Position int
	Score    int
}

// Score counts, for every unit of idx, how many distinct query tokens it
// contains. The result is in document order.
func Score(idx *index.Index, q parser.Query) []ScoredUnit {
	n := idx.Len()
	scored := make([]ScoredUnit, n)
	qset := q.TokenSet()

	var counts []int
	if idx != nil && idx.Postings != nil {
		counts = idx.Postings.Counts(qset, n)
	}
	for i := range scored {
		scored[i] = ScoredUnit{Unit: &idx.Units[i], Position: i}
		if counts != nil {
			scored[i].Score = counts[i]
		} else {
			scored[i].Score = idx.Units[i].Tokens.Overlap(qset)
		}
	}
	return scored
}

// Relevant keeps the units with a positive score, preserving order.
func Relevant(scored []ScoredUnit) []ScoredUnit {
	out := make([]ScoredUnit, 0, len(scored))
	for _, s := range scored {
		if s.Score > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Top truncates scored to at most limit entries.
func Top(scored []ScoredUnit, limit int) []ScoredUnit {
	if limit >= 0 && len(scored) > limit {
		return scored[:limit]
	}
	return scored
}
