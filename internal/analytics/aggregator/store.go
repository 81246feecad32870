// Package aggregator persists analytics snapshots in PostgreSQL so counters
// survive restarts.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/resilience"
)

const schema = `CREATE TABLE IF NOT EXISTS docqa_analytics_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const schemaIndex = `CREATE INDEX IF NOT EXISTS docqa_analytics_snapshots_captured_at
    ON docqa_analytics_snapshots (captured_at DESC)`

// DefaultRetention is how many snapshots are kept.
const DefaultRetention = 1440

type Store struct {
	db        *postgres.Client
	retention int
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

func NewStore(db *postgres.Client, retention int) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		db:        db,
		retention: retention,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
		logger: slog.Default().With("component", "analytics-store"),
	}
}

// EnsureSchema creates the snapshot table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.db.Migrate(ctx, schema, schemaIndex)
}

// SaveSnapshot inserts stats and prunes rows beyond the retention limit in
// one transaction, retrying transient failures.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	err = resilience.Retry(ctx, "save-analytics-snapshot", s.retry, func(ctx context.Context) error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO docqa_analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
				data, time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("inserting snapshot: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM docqa_analytics_snapshots WHERE id NOT IN (
				    SELECT id FROM docqa_analytics_snapshots ORDER BY captured_at DESC LIMIT $1)`,
				s.retention,
			); err != nil {
				return fmt.Errorf("pruning snapshots: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Debug("analytics snapshot saved",
		"total_questions", stats.TotalQuestions,
		"total_ingestions", stats.TotalIngestions,
	)
	return nil
}

// LatestSnapshot returns the most recent snapshot, or nil if none exists.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM docqa_analytics_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// Restore seeds agg from the latest snapshot, if any.
func (s *Store) Restore(ctx context.Context, agg *analytics.Aggregator) error {
	snap, err := s.LatestSnapshot(ctx)
	if err != nil {
		return err
	}
	if snap != nil {
		agg.Restore(*snap)
		s.logger.Info("analytics restored from snapshot", "total_questions", snap.TotalQuestions)
	}
	return nil
}

// Run snapshots agg every interval until ctx is done, then writes a final
// snapshot.
func (s *Store) Run(ctx context.Context, agg *analytics.Aggregator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Info("periodic snapshot started", "interval", interval)
	for {
		select {
		case <-ticker.C:
			if err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
				s.logger.Error("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.SaveSnapshot(shutdownCtx, agg.Stats()); err != nil {
				s.logger.Error("final snapshot failed", "error", err)
			}
			cancel()
			return
		}
	}
}
