// Package outbox turns domain events into records that are stored with the command's
// writes and delivered after it succeeds.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"rentdesk/internal/domain/shared/events"
)

// Header names stamped on records.
const (
	HeaderContentType = "content-type"
	HeaderSource      = "source"
	HeaderRequestID   = "request_id"
)

// EventRecord is one serialized domain event. Aggregate doubles as the partition key, so
// every event of a property is delivered in order.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox accepts records inside a unit of work. Flush runs once the command succeeded;
// stores that persist records in the transaction treat it as a no-op.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals the event itself as the payload.
type JSONEventEncoder struct {
	NewID  func() string
	Source string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("outbox: encode %s: %w", ev.EventName(), err)
	}
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	rec := EventRecord{
		ID:         newID(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{HeaderContentType: "application/json"},
	}
	if e.Source != "" {
		rec.Headers[HeaderSource] = e.Source
	}
	return rec, nil
}

type headersKey struct{}

// WithHeaders attaches headers that RecordDomainEvents copies onto every record made
// under ctx. Later calls add to earlier ones.
func WithHeaders(ctx context.Context, headers map[string]string) context.Context {
	merged := maps.Clone(headersFrom(ctx))
	if merged == nil {
		merged = make(map[string]string, len(headers))
	}
	maps.Copy(merged, headers)
	return context.WithValue(ctx, headersKey{}, merged)
}

func headersFrom(ctx context.Context) map[string]string {
	h, _ := ctx.Value(headersKey{}).(map[string]string)
	return h
}

// RecordDomainEvents encodes evs and adds them to box in order.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	extra := headersFrom(ctx)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if len(extra) > 0 {
			if rec.Headers == nil {
				rec.Headers = make(map[string]string, len(extra))
			}
			for k, v := range extra {
				if _, set := rec.Headers[k]; !set {
					rec.Headers[k] = v
				}
			}
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
