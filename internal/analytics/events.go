// Package analytics records what the service is asked and what it indexes.
// Events flow from a buffered Collector to an Aggregator, either in process
// or through a Kafka topic, and aggregated stats can be snapshotted to
// PostgreSQL.
package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/kafka"
)

type EventType string

const (
	EventAsk   EventType = "ask"
	EventIndex EventType = "index"
)

// AskEvent describes one answered question.
type AskEvent struct {
	Type         EventType `json:"type"`
	Question     string    `json:"question"`
	Tokens       []string  `json:"tokens"`
	Kind         string    `json:"kind"`
	Relevant     int       `json:"relevant"`
	Returned     int       `json:"returned"`
	LatencyMs    float64   `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	IndexVersion string    `json:"index_version"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

// IndexEvent describes one ingestion attempt.
type IndexEvent struct {
	Type       EventType `json:"type"`
	Source     string    `json:"source"`
	Version    string    `json:"version,omitempty"`
	Units      int       `json:"units"`
	Tokens     int       `json:"tokens"`
	SizeBytes  int       `json:"size_bytes"`
	Sufficient bool      `json:"sufficient"`
	LatencyMs  float64   `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// decodeEvent inspects the type tag and unmarshals into the matching event.
func decodeEvent(data []byte) (any, error) {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding event type: %w", err)
	}
	switch head.Type {
	case EventAsk:
		return kafka.DecodeJSON[AskEvent](data)
	case EventIndex:
		return kafka.DecodeJSON[IndexEvent](data)
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}
}
