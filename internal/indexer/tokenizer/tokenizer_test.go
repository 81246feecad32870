package tokenizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
		{"collapses whitespace", "Matrices\n\n are \t arrays.", "matrices are arrays."},
		{"strips punctuation", "Hello, World! (v2.0)", "hello world v2.0"},
		{"keeps spaces left by stripping", "a - b", "a  b"},
		{"non ascii removed", "café naïve", "caf nave"},
		{"non breaking space is whitespace", "one\u00a0two", "one two"},
		{"trims", "  Edge.  ", "edge."},
		{"digits", "Chapter 12: Rows & Columns", "chapter 12 rows  columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "The Quick, brown FOX  jumps \n over: the lazy dog."
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Errorf("Normalize not idempotent: %q vs %q", once, twice)
	}
}

func TestTokenize(t *testing.T) {
	tok := Default()
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"drops stop words and short tokens", "how do you add matrices", []string{"how", "you", "add", "matrices"}},
		{"domain neutral terms", "using the pdf document used to use", []string{}},
		{"double spaces", "rows  and  columns", []string{"rows", "columns"}},
		{"keeps order and duplicates", "matrix times matrix", []string{"matrix", "times", "matrix"}},
		{"length boundary", "ab abc", []string{"abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCustomConfig(t *testing.T) {
	tok := New(Config{StopWords: []string{"Matrix"}, MinLength: 5})
	got := tok.Tokenize("matrix arrays rows columns")
	want := []string{"arrays", "columns"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !tok.IsStopWord("matrix") {
		t.Error("configured stop word should be lower-cased")
	}
	if tok.MinLength() != 5 {
		t.Errorf("MinLength: got %d", tok.MinLength())
	}
}

func TestEmptyStopWordListIsHonoured(t *testing.T) {
	tok := New(Config{StopWords: []string{}})
	got := tok.Tokenize("the pdf")
	if !reflect.DeepEqual(got, []string{"the", "pdf"}) {
		t.Errorf("explicit empty list should disable stop words, got %v", got)
	}
}

func TestDefaultStopWords(t *testing.T) {
	tok := Default()
	for _, w := range []string{"using", "used", "use", "pdf", "document", "the", "have"} {
		if !tok.IsStopWord(w) {
			t.Errorf("%q should be a stop word", w)
		}
	}
	if tok.IsStopWord("matrix") {
		t.Error("matrix should not be a stop word")
	}
}

func TestSetOverlap(t *testing.T) {
	a := NewSet([]string{"matrix", "rows", "rows", "columns"})
	b := NewSet([]string{"rows", "columns", "size"})
	if len(a) != 3 {
		t.Fatalf("duplicates should collapse, got %d members", len(a))
	}
	if got := a.Overlap(b); got != 2 {
		t.Errorf("Overlap: got %d, want 2", got)
	}
	if got := b.Overlap(a); got != 2 {
		t.Errorf("Overlap must be symmetric, got %d", got)
	}
	if got := strings.Join(a.Sorted(), ","); got != "columns,matrix,rows" {
		t.Errorf("Sorted: got %s", got)
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := Normalize(strings.Repeat(`Information retrieval systems form the backbone of modern search
        infrastructure. These systems combine tokenization and stop word removal to normalize
        text into searchable terms. `, 20))
	tok := Default()
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = tok.Tokenize(text)
	}
}
