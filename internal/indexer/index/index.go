// Package index builds and holds the sentence-level lexical index of the
// current document. An Index is immutable once built; Store publishes a new
// Index in a single atomic step.
package index

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
)

const (
	DefaultMinDocumentLength = 100
	DefaultMinUnitLength     = 40
)

// Config holds the length thresholds applied while building an Index.
type Config struct {
	// MinDocumentLength is the shortest normalised document accepted.
	MinDocumentLength int
	// MinUnitLength is exclusive: a span must be longer than this to be kept.
	MinUnitLength int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinDocumentLength: DefaultMinDocumentLength,
		MinUnitLength:     DefaultMinUnitLength,
	}
}

func FromEngineConfig(e config.EngineConfig) Config {
	return Config{
		MinDocumentLength: e.MinDocumentLength,
		MinUnitLength:     e.MinUnitLength,
	}
}

// Unit is one indexed sentence span and its token fingerprint.
type Unit struct {
	Text   string
	Tokens tokenizer.Set
}

// Index is an ordered, read-only collection of Units from one document.
// Units appear in source order; callers must not modify the slice.
type Index struct {
	Version   string
	Source    string
	IndexedAt time.Time
	SizeBytes int
	Units     []Unit
	// Postings is nil for indexes not produced by Build.
	Postings Postings
}

// Len returns the number of indexed units. A nil Index has none.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Units)
}

// TokenCount returns the total number of distinct tokens summed across units.
func (idx *Index) TokenCount() int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, u := range idx.Units {
		n += len(u.Tokens)
	}
	return n
}

// Vocabulary returns the number of distinct tokens in the document.
func (idx *Index) Vocabulary() int {
	if idx == nil {
		return 0
	}
	if idx.Postings != nil {
		return len(idx.Postings)
	}
	seen := make(map[string]struct{})
	for _, u := range idx.Units {
		for tok := range u.Tokens {
			seen[tok] = struct{}{}
		}
	}
	return len(seen)
}

// Build normalises raw, splits it on periods into candidate spans and
// tokenises every span longer than cfg.MinUnitLength. It returns an error
// wrapping apperrors.ErrInsufficientText when the normalised text is shorter
// than cfg.MinDocumentLength.
func Build(source string, raw string, tok *tokenizer.Tokenizer, cfg Config) (*Index, error) {
	normalized := tokenizer.Normalize(raw)
	if len(normalized) < cfg.MinDocumentLength {
		return nil, fmt.Errorf("%w: %d normalized characters, need %d",
			apperrors.ErrInsufficientText, len(normalized), cfg.MinDocumentLength)
	}

	spans := strings.Split(normalized, ".")
	units := make([]Unit, 0, len(spans))
	for _, span := range spans {
		span = strings.TrimSpace(span)
		if len(span) <= cfg.MinUnitLength {
			continue
		}
		units = append(units, Unit{
			Text:   span,
			Tokens: tokenizer.NewSet(tok.Tokenize(span)),
		})
	}

	return &Index{
		Version:   uuid.NewString(),
		Source:    source,
		IndexedAt: time.Now().UTC(),
		SizeBytes: len(raw),
		Units:     units,
		Postings:  buildPostings(units),
	}, nil
}
