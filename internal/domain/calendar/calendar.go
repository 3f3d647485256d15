package calendar

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/shared/fault"
)

type CalendarID string

type Source string

const (
	SourceInternal Source = "internal"
	SourceICal     Source = "ical"
)

// Calendar links a listing to either its internal feed (exported over the
// capability token) or an external iCal URL imported on a schedule.
type Calendar struct {
	ID          CalendarID
	ListingID   listings.ListingID
	Source      Source
	ICalURL     string
	ExportToken string
	SyncEnabled bool
	LastSyncAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	ByID(ctx context.Context, id CalendarID) (*Calendar, error)
	ByListing(ctx context.Context, listingID listings.ListingID) ([]*Calendar, error)
	// InternalByListing resolves the listing's own exportable calendar.
	InternalByListing(ctx context.Context, listingID listings.ListingID) (*Calendar, error)
	// ListSyncEnabled returns every imported calendar due for scheduled sync.
	ListSyncEnabled(ctx context.Context) ([]*Calendar, error)
	Save(ctx context.Context, cal *Calendar) error
}

type CreateParams struct {
	ID          CalendarID
	ListingID   listings.ListingID
	Source      Source
	ICalURL     string
	ExportToken string
	SyncEnabled bool
	Now         time.Time
}

func New(params CreateParams) (*Calendar, error) {
	if params.ID == "" {
		return nil, fault.New(fault.KindValidation, "calendar: id is required")
	}
	if params.ListingID == "" {
		return nil, fault.New(fault.KindValidation, "calendar: listing id is required")
	}
	switch params.Source {
	case SourceInternal:
		if strings.TrimSpace(params.ExportToken) == "" {
			return nil, fault.New(fault.KindValidation, "calendar: internal calendars require an export token")
		}
	case SourceICal:
		if !strings.HasPrefix(params.ICalURL, "http://") && !strings.HasPrefix(params.ICalURL, "https://") {
			return nil, fault.New(fault.KindValidation, "calendar: imported calendars require an http(s) url")
		}
	default:
		return nil, fault.New(fault.KindValidation, "calendar: unknown source %q", params.Source)
	}
	now := params.Now.UTC()
	return &Calendar{
		ID:          params.ID,
		ListingID:   params.ListingID,
		Source:      params.Source,
		ICalURL:     params.ICalURL,
		ExportToken: params.ExportToken,
		SyncEnabled: params.SyncEnabled && params.Source == SourceICal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// VerifyToken compares a presented export token in constant time. Possession
// of the token is the only credential for the feed.
func (c *Calendar) VerifyToken(token string) bool {
	if c.ExportToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.ExportToken), []byte(token)) == 1
}

// MarkSynced records a completed import.
func (c *Calendar) MarkSynced(now time.Time) {
	c.LastSyncAt = now.UTC()
	c.UpdatedAt = c.LastSyncAt
}
