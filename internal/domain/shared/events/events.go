package events

import "time"

// DomainEvent is implemented by aggregate lifecycle events.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects pending domain events on an aggregate. Embed by value;
// the zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

// Record appends an event to the pending list.
func (r *EventRecorder) Record(event DomainEvent) {
	r.pending = append(r.pending, event)
}

// PendingEvents returns recorded events in order.
func (r *EventRecorder) PendingEvents() []DomainEvent {
	return r.pending
}

// ClearEvents drops all recorded events, typically after they are persisted
// to the outbox.
func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
