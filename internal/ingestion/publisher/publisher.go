// Package publisher takes an uploaded file through storage, text extraction
// and indexing, publishing the result as the live document.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/extract"
	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/resilience"
)

// Indexer builds and publishes an index. *indexer.Engine satisfies it.
type Indexer interface {
	Ingest(ctx context.Context, doc indexer.Document) (*indexer.IngestResult, error)
}

// FileStore keeps a copy of each upload. *storage.Disk satisfies it.
type FileStore interface {
	Save(original string, data []byte) (string, error)
}

type Publisher struct {
	files          FileStore
	extractor      extract.Extractor
	indexer        Indexer
	extractTimeout time.Duration
	logger         *slog.Logger
}

// New wires a Publisher. files may be nil to skip keeping uploads.
func New(files FileStore, extractor extract.Extractor, idx Indexer, extractTimeout time.Duration) *Publisher {
	return &Publisher{
		files:          files,
		extractor:      extractor,
		indexer:        idx,
		extractTimeout: extractTimeout,
		logger:         slog.Default().With("component", "publisher"),
	}
}

// Upload stores the file, extracts its text and indexes it. Extraction
// failures wrap apperrors.ErrExtraction and leave the live index untouched.
func (p *Publisher) Upload(ctx context.Context, filename string, data []byte) (*ingestion.UploadResponse, error) {
	log := logger.FromContext(ctx).With("component", "publisher")
	stored := filepath.Base(filename)
	if p.files != nil {
		name, err := p.files.Save(filename, data)
		if err != nil {
			return nil, fmt.Errorf("saving upload: %w", err)
		}
		stored = name
	}

	text, err := resilience.WithTimeout(ctx, p.extractTimeout, "extract", func(ctx context.Context) (string, error) {
		return p.extractor.Extract(ctx, data)
	})
	if err != nil {
		log.Error("text extraction failed", "file", stored, "size", len(data), "error", err)
		if !errors.Is(err, apperrors.ErrExtraction) {
			err = fmt.Errorf("%w: %w", apperrors.ErrExtraction, err)
		}
		return nil, err
	}
	log.Debug("text extracted", "file", stored, "size", len(data), "chars", len(text))

	return p.index(ctx, stored, text, stored)
}

// Submit indexes already-extracted text.
func (p *Publisher) Submit(ctx context.Context, req *ingestion.DocumentRequest) (*ingestion.UploadResponse, error) {
	source := req.Source
	if source == "" {
		source = "text"
	}
	return p.index(ctx, source, req.Text, "")
}

func (p *Publisher) index(ctx context.Context, source, text, file string) (*ingestion.UploadResponse, error) {
	res, err := p.indexer.Ingest(ctx, indexer.Document{Source: source, Text: text})
	if err != nil {
		return nil, err
	}
	resp := &ingestion.UploadResponse{
		Message:     ingestion.MessageIndexed,
		File:        file,
		Sufficient:  res.Sufficient,
		Units:       res.Units,
		Version:     res.Version,
		ContentHash: res.ContentHash,
	}
	if !res.Sufficient {
		resp.Message = ingestion.MessageInsufficient
	}
	return resp, nil
}
