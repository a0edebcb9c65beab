// Package events carries domain facts from aggregates to the outbox.
package events

import "time"

// DomainEvent is named "<aggregate>.<verb>" and keyed by the aggregate it partitions on.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects the events an aggregate raises until a handler drains them into
// the outbox. The zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event != nil {
		r.pending = append(r.pending, event)
	}
}

// Events returns a copy of what has been recorded and not yet drained.
func (r *EventRecorder) Events() []DomainEvent {
	return append([]DomainEvent(nil), r.pending...)
}

func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
