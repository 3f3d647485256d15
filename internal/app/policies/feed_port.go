package policies

import (
	"context"
	"time"
)

// FeedEvent is one VEVENT parsed from a remote calendar.
type FeedEvent struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

// CalendarFeedPort fetches and parses a remote iCal feed. Implementations
// bound the fetch with a timeout and classify failures as external-service
// errors so a sync can be retried without destructive side effects.
type CalendarFeedPort interface {
	Fetch(ctx context.Context, url string) ([]FeedEvent, error)
}
