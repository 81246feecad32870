// Package tokenizer provides text normalisation and tokenisation for the
// lexical index. Normalize canonicalises raw extracted text; a Tokenizer then
// splits normalised text into content words, removing stop-words and short
// tokens.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/config"
)

// DefaultMinLength is the shortest token kept by the default Tokenizer.
const DefaultMinLength = 3

// DefaultStopWords is the closed stop-word list used when no list is
// configured.
var DefaultStopWords = []string{
	"the", "is", "are", "was", "were", "and", "or", "of", "to", "in", "on", "for", "with",
	"a", "an", "this", "that", "by", "as", "it", "from", "at", "be", "has", "have",
	"using", "used", "use", "pdf", "document",
}

// Config controls which tokens survive tokenisation.
type Config struct {
	StopWords []string
	MinLength int
}

// FromEngineConfig extracts the tokenisation settings from the service config.
func FromEngineConfig(e config.EngineConfig) Config {
	return Config{StopWords: e.StopWords, MinLength: e.MinTokenLength}
}

// Tokenizer splits normalised text into content words.
type Tokenizer struct {
	stopWords map[string]struct{}
	minLength int
}

// New builds a Tokenizer from cfg. A nil StopWords list selects
// DefaultStopWords; a non-positive MinLength selects DefaultMinLength.
func New(cfg Config) *Tokenizer {
	words := cfg.StopWords
	if words == nil {
		words = DefaultStopWords
	}
	minLength := cfg.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{stopWords: stop, minLength: minLength}
}

// Default returns a Tokenizer with the default stop-words and minimum length.
func Default() *Tokenizer {
	return New(Config{})
}

// Normalize collapses whitespace runs to a single space, strips every
// character that is not an ASCII letter, digit, period or space, lower-cases
// the result and trims surrounding spaces.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return strings.Trim(b.String(), " ")
}

// Tokenize splits normalised text on single spaces and returns the surviving
// content words in order of appearance.
func (t *Tokenizer) Tokenize(normalized string) []string {
	words := strings.Split(normalized, " ")
	tokens := make([]string, 0, len(words)/2)
	for _, word := range words {
		if !t.Keep(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Keep reports whether word survives the length and stop-word filters.
func (t *Tokenizer) Keep(word string) bool {
	return len(word) >= t.minLength && !t.IsStopWord(word)
}

// IsStopWord reports whether word is in the configured stop-word set.
func (t *Tokenizer) IsStopWord(word string) bool {
	_, ok := t.stopWords[word]
	return ok
}

// MinLength returns the shortest token length kept.
func (t *Tokenizer) MinLength() int {
	return t.minLength
}
