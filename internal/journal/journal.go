// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrVersionConflict = errors.New("version conflict: aggregate changed concurrently")
	ErrInvalidVersion  = errors.New("invalid version number")
)

// Event is one recorded fact about an aggregate. Seq, Version and RecordedAt
// are assigned by the journal on append.
type Event struct {
	Seq           int64           `json:"seq"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Version       int             `json:"version"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// Journal is an in-process append-only record of domain events with
// optimistic concurrency control per aggregate. It backs the rental audit
// trail: rentals are journaled when opened and when closed, and the version
// check rejects two writers racing on the same aggregate.
type Journal struct {
	mu          sync.RWMutex
	tracer      trace.Tracer
	events      []Event
	versions    map[uuid.UUID]int
	byAggregate map[uuid.UUID][]int
}

// New creates an empty journal.
func New() *Journal {
	return &Journal{
		tracer:      otel.Tracer("videostore/journal"),
		versions:    make(map[uuid.UUID]int),
		byAggregate: make(map[uuid.UUID][]int),
	}
}

// Append atomically appends events to an aggregate's stream. The append is
// accepted only if expectedVersion matches the aggregate's current version;
// otherwise ErrVersionConflict is returned and nothing is recorded.
func (j *Journal) Append(ctx context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events ...Event) error {
	_, span := j.tracer.Start(ctx, "journal.append",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID.String()),
			attribute.String("aggregate.type", aggregateType),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	if expectedVersion < 0 {
		return ErrInvalidVersion
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	currentVersion := j.versions[aggregateID]
	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return ErrVersionConflict
	}

	now := time.Now().UTC()
	for i, event := range events {
		event.Seq = int64(len(j.events)) + 1
		event.AggregateID = aggregateID
		event.AggregateType = aggregateType
		event.Version = expectedVersion + i + 1
		event.RecordedAt = now

		j.events = append(j.events, event)
		j.byAggregate[aggregateID] = append(j.byAggregate[aggregateID], len(j.events)-1)

		span.AddEvent("event.appended", trace.WithAttributes(
			attribute.Int64("event.seq", event.Seq),
			attribute.Int("event.version", event.Version),
			attribute.String("event.type", event.EventType),
		))
	}
	j.versions[aggregateID] = expectedVersion + len(events)

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// Events returns the full stream of an aggregate in version order.
func (j *Journal) Events(ctx context.Context, aggregateID uuid.UUID) ([]Event, error) {
	_, span := j.tracer.Start(ctx, "journal.events",
		trace.WithAttributes(attribute.String("aggregate.id", aggregateID.String())),
	)
	defer span.End()

	j.mu.RLock()
	defer j.mu.RUnlock()

	indexes := j.byAggregate[aggregateID]
	out := make([]Event, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, j.events[idx])
	}

	span.SetAttributes(attribute.Int("events.loaded", len(out)))
	return out, nil
}

// CurrentVersion returns the latest version of an aggregate, zero if the
// aggregate has no events.
func (j *Journal) CurrentVersion(_ context.Context, aggregateID uuid.UUID) (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.versions[aggregateID], nil
}

// Stream provides a cursor-based view over all events in global order, for
// consumers that project or audit across aggregates.
func (j *Journal) Stream(ctx context.Context, fromSeq int64, limit int) ([]Event, error) {
	_, span := j.tracer.Start(ctx, "journal.stream",
		trace.WithAttributes(
			attribute.Int64("from.seq", fromSeq),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []Event
	for _, event := range j.events {
		if event.Seq <= fromSeq {
			continue
		}
		out = append(out, event)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	span.SetAttributes(attribute.Int("events.streamed", len(out)))
	return out, nil
}
