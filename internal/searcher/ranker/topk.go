package ranker

import "container/heap"

// TopByScore returns the limit highest-scoring units, best first. Equal
// scores are ordered by document position.
func TopByScore(scored []ScoredUnit, limit int) []ScoredUnit {
	if limit <= 0 {
		return []ScoredUnit{}
	}
	h := &minHeap{}
	for _, s := range scored {
		if h.Len() < limit {
			heap.Push(h, s)
			continue
		}
		if worse((*h)[0], s) {
			(*h)[0] = s
			heap.Fix(h, 0)
		}
	}
	result := make([]ScoredUnit, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ScoredUnit)
	}
	return result
}

// worse reports whether a ranks below b.
func worse(a, b ScoredUnit) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Position > b.Position
}

// minHeap keeps the worst retained unit at the root.
type minHeap []ScoredUnit

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) {
	*h = append(*h, x.(ScoredUnit))
}

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
