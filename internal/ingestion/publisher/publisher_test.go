package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/extract"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
)

const matricesDoc = "Matrices are arrays of numbers arranged in rows and columns. " +
	"A matrix can be added to another matrix of the same size. " +
	"Multiplication of matrices requires matching inner dimensions."

type extractorFunc func(ctx context.Context, data []byte) (string, error)

func (f extractorFunc) Extract(ctx context.Context, data []byte) (string, error) { return f(ctx, data) }

func newPublisher(t *testing.T, ex extract.Extractor) (*Publisher, *index.Store) {
	t.Helper()
	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)
	store := index.NewStore()
	engine := indexer.NewEngine(store, tokenizer.Default(), index.DefaultConfig(), nil, nil)
	return New(disk, ex, engine, time.Second), store
}

func TestUploadIndexes(t *testing.T) {
	p, store := newPublisher(t, extract.Auto{})
	resp, err := p.Upload(context.Background(), "matrices.txt", []byte(matricesDoc))
	require.NoError(t, err)
	assert.Equal(t, ingestion.MessageIndexed, resp.Message)
	assert.True(t, resp.Sufficient)
	assert.Equal(t, 3, resp.Units)
	assert.Regexp(t, `^\d+-matrices\.txt$`, resp.File)
	require.NotNil(t, store.Current())
	assert.Equal(t, resp.File, store.Current().Source)
}

func TestUploadInsufficient(t *testing.T) {
	p, store := newPublisher(t, extract.Auto{})
	resp, err := p.Upload(context.Background(), "scan.txt", []byte("Figure 1"))
	require.NoError(t, err)
	assert.Equal(t, ingestion.MessageInsufficient, resp.Message)
	assert.False(t, resp.Sufficient)
	assert.NotEmpty(t, resp.File)
	assert.Nil(t, store.Current())
}

func TestUploadExtractionFailureKeepsIndex(t *testing.T) {
	p, store := newPublisher(t, extract.Auto{})
	_, err := p.Submit(context.Background(), &ingestion.DocumentRequest{Source: "a", Text: matricesDoc})
	require.NoError(t, err)
	before := store.Current()

	_, err = p.Upload(context.Background(), "image.png", []byte{0x89, 'P', 'N', 'G', 0})
	assert.ErrorIs(t, err, apperrors.ErrExtraction)
	assert.Same(t, before, store.Current())
}

func TestUploadExtractionTimeout(t *testing.T) {
	slow := extractorFunc(func(ctx context.Context, _ []byte) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)
	p := New(disk, slow, indexer.NewEngine(index.NewStore(), tokenizer.Default(), index.DefaultConfig(), nil, nil), 10*time.Millisecond)
	_, err = p.Upload(context.Background(), "slow.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, apperrors.ErrExtraction)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmitDefaultsSource(t *testing.T) {
	p, store := newPublisher(t, extract.Auto{})
	resp, err := p.Submit(context.Background(), &ingestion.DocumentRequest{Text: matricesDoc})
	require.NoError(t, err)
	assert.Empty(t, resp.File)
	assert.Equal(t, "text", store.Current().Source)
}

type failingIndexer struct{}

func (failingIndexer) Ingest(context.Context, indexer.Document) (*indexer.IngestResult, error) {
	return nil, errors.New("disk on fire")
}

func TestIndexerErrorPropagates(t *testing.T) {
	p := New(nil, extract.PlainText{}, failingIndexer{}, 0)
	_, err := p.Upload(context.Background(), "a.txt", []byte("text"))
	assert.EqualError(t, err, "disk on fire")
}
