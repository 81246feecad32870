package index

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
)

const matricesDoc = "Matrices are arrays of numbers arranged in rows and columns. " +
	"A matrix can be added to another matrix of the same size. " +
	"Multiplication of matrices requires matching inner dimensions."

func TestBuildMatricesExample(t *testing.T) {
	idx, err := Build("matrices.txt", matricesDoc, tokenizer.Default(), DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 units, got %d", idx.Len())
	}
	want := []string{
		"matrices are arrays of numbers arranged in rows and columns",
		"a matrix can be added to another matrix of the same size",
		"multiplication of matrices requires matching inner dimensions",
	}
	for i, u := range idx.Units {
		if u.Text != want[i] {
			t.Errorf("unit %d: got %q, want %q", i, u.Text, want[i])
		}
	}
	if !idx.Units[0].Tokens.Has("matrices") || idx.Units[0].Tokens.Has("are") {
		t.Errorf("unexpected tokens for unit 0: %v", idx.Units[0].Tokens.Sorted())
	}
	if len(idx.Units[1].Tokens) != 6 {
		t.Errorf("duplicate tokens should collapse, got %v", idx.Units[1].Tokens.Sorted())
	}
	if idx.Version == "" || idx.Source != "matrices.txt" || idx.SizeBytes != len(matricesDoc) {
		t.Errorf("metadata not populated: %+v", idx)
	}
}

func TestBuildDocumentLengthBoundary(t *testing.T) {
	tok := tokenizer.Default()
	exact := strings.Repeat("a", 100)
	if _, err := Build("", exact, tok, DefaultConfig()); err != nil {
		t.Errorf("100 normalized characters should be indexable: %v", err)
	}

	short := strings.Repeat("a", 99)
	_, err := Build("", short, tok, DefaultConfig())
	if !errors.Is(err, apperrors.ErrInsufficientText) {
		t.Errorf("99 characters: expected ErrInsufficientText, got %v", err)
	}

	// Punctuation is stripped before measuring.
	noisy := strings.Repeat("a!", 99)
	if _, err := Build("", noisy, tok, DefaultConfig()); !errors.Is(err, apperrors.ErrInsufficientText) {
		t.Errorf("noisy text should be measured after normalization, got %v", err)
	}
}

func TestBuildUnitLengthBoundary(t *testing.T) {
	span41 := strings.Repeat("b", 41)
	span40 := strings.Repeat("c", 40)
	doc := span41 + ". " + span40 + ". " + strings.Repeat("d", 30) + "."
	idx, err := Build("", doc, tokenizer.Default(), DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected only the 41-character span, got %d units", idx.Len())
	}
	if idx.Units[0].Text != span41 {
		t.Errorf("kept wrong span: %q", idx.Units[0].Text)
	}
}

func TestBuildWithoutPeriods(t *testing.T) {
	doc := strings.Repeat("word ", 30)
	idx, err := Build("", doc, tokenizer.Default(), DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("text without periods should form one unit, got %d", idx.Len())
	}
}

func TestBuildOnlyShortSpansYieldsEmptyIndex(t *testing.T) {
	doc := strings.Repeat("Too short. ", 20)
	idx, err := Build("", doc, tokenizer.Default(), DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected empty index, got %d units", idx.Len())
	}
}

func TestNilIndexLen(t *testing.T) {
	var idx *Index
	if idx.Len() != 0 || idx.TokenCount() != 0 {
		t.Error("nil index should report zero units and tokens")
	}
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	if s.Current() != nil {
		t.Fatal("new store should be empty")
	}
	first := &Index{Version: "v1"}
	if prev := s.Replace(first); prev != nil {
		t.Errorf("first replace should return nil, got %v", prev)
	}
	second := &Index{Version: "v2"}
	if prev := s.Replace(second); prev != first {
		t.Errorf("replace should return previous index")
	}
	if s.Current() != second {
		t.Errorf("current should be the latest index")
	}
}

// Readers must only ever observe a complete index: every snapshot taken
// mid-replacement has the unit count its version promises.
func TestStoreConcurrentReplaceIsAtomic(t *testing.T) {
	s := NewStore()
	tok := tokenizer.Default()
	docs := []string{
		strings.Repeat("alpha beta gamma delta epsilon zeta eta theta. ", 4),
		strings.Repeat("one two three four five six seven eight nine ten. ", 9),
	}
	built := make(map[string]int)
	var builtMu sync.Mutex

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				idx := s.Current()
				if idx == nil {
					continue
				}
				builtMu.Lock()
				want, ok := built[idx.Version]
				builtMu.Unlock()
				if ok && idx.Len() != want {
					t.Errorf("observed partial index %s: %d units, want %d", idx.Version, idx.Len(), want)
					return
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		idx, err := Build("", docs[i%2], tok, DefaultConfig())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		builtMu.Lock()
		built[idx.Version] = idx.Len()
		builtMu.Unlock()
		s.Replace(idx)
	}
	close(stop)
	wg.Wait()
}

func BenchmarkBuild(b *testing.B) {
	doc := strings.Repeat(matricesDoc+" ", 200)
	tok := tokenizer.Default()
	cfg := DefaultConfig()
	b.ReportAllocs()
	b.SetBytes(int64(len(doc)))
	for i := 0; i < b.N; i++ {
		if _, err := Build("", doc, tok, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func TestBuildPostings(t *testing.T) {
	idx, err := Build("", matricesDoc, tokenizer.Default(), DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := idx.Postings.Positions("matrices"); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("matrices postings = %v, want [0 2]", got)
	}
	if got := idx.Postings.Positions("matrix"); len(got) != 1 || got[0] != 1 {
		t.Errorf("matrix postings = %v, want [1]", got)
	}
	if idx.Postings.Positions("zebra") != nil {
		t.Error("unknown token should have no postings")
	}

	withoutPostings := *idx
	withoutPostings.Postings = nil
	if idx.Vocabulary() != withoutPostings.Vocabulary() {
		t.Errorf("vocabulary mismatch: %d vs %d", idx.Vocabulary(), withoutPostings.Vocabulary())
	}
}
