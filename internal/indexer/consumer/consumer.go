// Package consumer indexes documents published to a Kafka topic, for
// producers that extract text themselves and skip the upload endpoint.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/kafka"
)

// Indexer is satisfied by *indexer.Engine.
type Indexer interface {
	Ingest(ctx context.Context, doc indexer.Document) (*indexer.IngestResult, error)
}

// HandleMessage returns a kafka.MessageHandler that decodes a
// DocumentRequest and makes it the live document. Malformed or invalid
// messages are logged and committed so they do not block the partition.
func HandleMessage(idx Indexer, maxBytes int64) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		req, err := kafka.DecodeJSON[ingestion.DocumentRequest](value)
		if err != nil {
			logger.Error("failed to decode document message", "key", string(key), "error", err)
			return nil
		}
		if err := validator.ValidateDocumentRequest(&req, maxBytes); err != nil {
			var validationErr *validator.ValidationError
			if errors.As(err, &validationErr) {
				logger.Warn("rejecting invalid document message", "key", string(key), "fields", validationErr.Fields)
				return nil
			}
			return err
		}

		source := req.Source
		if source == "" {
			source = string(key)
		}
		res, err := idx.Ingest(ctx, indexer.Document{Source: source, Text: req.Text})
		if err != nil {
			return err
		}
		logger.Info("document message indexed",
			"source", res.Source,
			"sufficient", res.Sufficient,
			"units", res.Units,
			"version", res.Version,
		)
		return nil
	}
}
