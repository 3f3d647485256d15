package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appoutbox "staybook/internal/app/outbox"
)

// EventDocument is an event awaiting publication, with delivery bookkeeping.
type EventDocument struct {
	ID         string
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
	Attempts   int
	NotBefore  time.Time
	ClaimedBy  string
	Sent       bool
}

// Store persists outbox documents between commit and publication.
type Store interface {
	Enqueue(ctx context.Context, records []appoutbox.EventRecord) error
	// Claim returns one unsent, unclaimed document due for delivery, or nil.
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error
}

// MemoryStore is the in-process Store used in dev and tests.
type MemoryStore struct {
	mu   sync.Mutex
	docs []*EventDocument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Enqueue(ctx context.Context, records []appoutbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.docs = append(s.docs, &EventDocument{
			ID:         uuid.NewString(),
			Name:       rec.Name,
			Aggregate:  rec.Aggregate,
			Payload:    rec.Payload,
			Headers:    rec.Headers,
			OccurredAt: rec.OccurredAt,
		})
	}
	return nil
}

func (s *MemoryStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, doc := range s.docs {
		if doc.Sent || doc.ClaimedBy != "" || doc.NotBefore.After(now) {
			continue
		}
		doc.ClaimedBy = workerID
		copied := *doc
		return &copied, nil
	}
	return nil, nil
}

func (s *MemoryStore) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID == id {
			doc.Sent = true
			doc.ClaimedBy = ""
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID == id {
			doc.Attempts++
			doc.NotBefore = retryAt
			doc.ClaimedBy = ""
			return nil
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
