package index

import "github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"

// Postings is the inverted view of an Index: each token maps to the
// positions of the units containing it, in ascending order.
type Postings map[string][]int

func buildPostings(units []Unit) Postings {
	p := make(Postings)
	for i, u := range units {
		for tok := range u.Tokens {
			p[tok] = append(p[tok], i)
		}
	}
	return p
}

// Positions returns the units containing tok. Callers must not modify it.
func (p Postings) Positions(tok string) []int {
	return p[tok]
}

// Counts returns, per unit, how many tokens of q the unit contains.
func (p Postings) Counts(q tokenizer.Set, units int) []int {
	counts := make([]int, units)
	for tok := range q {
		for _, pos := range p[tok] {
			counts[pos]++
		}
	}
	return counts
}
