package parser

import (
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
)

// Query is a question reduced to the content words it is scored by.
type Query struct {
	Raw        string
	Normalized string
	// Tokens keeps duplicates and source order; scoring only tests membership,
	// but the sparse-question check counts every surviving token.
	Tokens []string
	set    tokenizer.Set
}

// Parse normalises and tokenises a question with the same rules used to
// build the index.
func Parse(question string, tok *tokenizer.Tokenizer) Query {
	normalized := tokenizer.Normalize(question)
	tokens := tok.Tokenize(normalized)
	return Query{
		Raw:        question,
		Normalized: normalized,
		Tokens:     tokens,
		set:        tokenizer.NewSet(tokens),
	}
}

// TokenSet returns the distinct question tokens.
func (q Query) TokenSet() tokenizer.Set {
	if q.set == nil {
		return tokenizer.NewSet(q.Tokens)
	}
	return q.set
}
