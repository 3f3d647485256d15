package memory

import (
	"context"
	"sync"

	appoutbox "staybook/internal/app/outbox"
)

// Outbox buffers event records until the surrounding command commits; Flush
// hands them to the configured sink (the publishing worker's store). With no
// sink, flushed records are dropped, which is fine for tests.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	sink    func(ctx context.Context, records []appoutbox.EventRecord) error
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// WithSink sets the flush destination and returns the outbox.
func (o *Outbox) WithSink(sink func(ctx context.Context, records []appoutbox.EventRecord) error) *Outbox {
	o.sink = sink
	return o
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.records
	o.records = nil
	o.mu.Unlock()
	if o.sink == nil || len(records) == 0 {
		return nil
	}
	return o.sink(ctx, records)
}

// Pending returns buffered records; handy for asserting events in tests.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
