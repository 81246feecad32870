package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/kafka"
)

const (
	defaultBufferSize = 10000
	maxBatch          = 100
	eventKey          = "analytics"
)

// Publisher ships a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// LocalPublisher delivers events straight to an in-process Aggregator,
// round-tripping through JSON so both paths decode identically.
type LocalPublisher struct {
	Aggregator *Aggregator
}

func (p LocalPublisher) PublishBatch(ctx context.Context, events []kafka.Event) error {
	for _, e := range events {
		data, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshaling event: %w", err)
		}
		if err := p.Aggregator.HandleMessage(ctx, []byte(e.Key), data); err != nil {
			return err
		}
	}
	return nil
}

// Collector buffers events and publishes them from one background goroutine.
// Track never blocks; events are dropped when the buffer is full.
type Collector struct {
	publisher Publisher
	eventCh   chan any
	logger    *slog.Logger
	dropped   atomic.Int64
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan any, bufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

// Start launches the publish loop. It stops when Close is called or ctx is
// done, flushing whatever is buffered.
func (c *Collector) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go c.loop(ctx)
		c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
	})
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(ctx, c.batch(event))
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

// batch collects first plus whatever is already queued, up to maxBatch.
func (c *Collector) batch(first any) []kafka.Event {
	events := []kafka.Event{{Key: eventKey, Value: first}}
	for len(events) < maxBatch {
		select {
		case e, ok := <-c.eventCh:
			if !ok {
				return events
			}
			events = append(events, kafka.Event{Key: eventKey, Value: e})
		default:
			return events
		}
	}
	return events
}

func (c *Collector) publish(ctx context.Context, events []kafka.Event) {
	if err := c.publisher.PublishBatch(ctx, events); err != nil {
		c.logger.Error("failed to publish analytics events", "count", len(events), "error", err)
	}
}

func (c *Collector) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(ctx, c.batch(event))
		default:
			return
		}
	}
}

// Track enqueues an event. A nil Collector discards it.
func (c *Collector) Track(event any) {
	if c == nil {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		if n := c.dropped.Add(1); n%1000 == 1 {
			c.logger.Warn("analytics event dropped (buffer full)", "dropped_total", n)
		}
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events and waits for the buffer to be published.
// Track must not be called after Close.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		close(c.eventCh)
	})
	c.startOnce.Do(func() { close(c.done) })
	<-c.done
}
