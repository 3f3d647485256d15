package outbox

import (
	"context"
	"encoding/json"
	"time"

	"staybook/internal/domain/shared/events"
)

// EventRecord is the persisted form of a domain event awaiting publication.
type EventRecord struct {
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
}

// Outbox buffers event records inside the current transaction; Flush hands
// them to the delivery pipeline after commit.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// EventEncoder serializes a domain event payload.
type EventEncoder interface {
	Encode(event events.DomainEvent) ([]byte, error)
}

// JSONEventEncoder marshals events as plain JSON.
type JSONEventEncoder struct{}

func (JSONEventEncoder) Encode(event events.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// RecordDomainEvents encodes and stores each pending event.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, pending []events.DomainEvent) error {
	if box == nil || len(pending) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, event := range pending {
		payload, err := encoder.Encode(event)
		if err != nil {
			return err
		}
		record := EventRecord{
			Name:       event.EventName(),
			Aggregate:  event.AggregateID(),
			Payload:    payload,
			OccurredAt: event.OccurredAt(),
		}
		if err := box.Add(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
