package ical

import (
	"context"
	"io"
	"net/http"
	"time"

	"staybook/internal/app/policies"
	"staybook/internal/domain/shared/fault"
)

const maxFeedBytes = 4 << 20

// Fetcher downloads remote calendar feeds over HTTP with a bounded timeout.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

var _ policies.CalendarFeedPort = (*Fetcher)(nil)

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]policies.FeedEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "bad calendar url")
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.KindExternal, err, "calendar feed unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fault.New(fault.KindExternal, "calendar feed returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fault.Wrap(fault.KindExternal, err, "reading calendar feed failed")
	}
	return ParseFeed(raw)
}
