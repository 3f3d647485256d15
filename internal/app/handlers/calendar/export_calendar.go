package calendar

import (
	"context"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/fault"
)

const exportCalendarKey = "calendar.export"

// ExportCalendarQuery resolves the feed material for a listing. The token is
// the only credential; holders of the unguessable export token may read the
// feed without a user session.
type ExportCalendarQuery struct {
	ListingID string
	Token     string
}

func (q ExportCalendarQuery) Key() string { return exportCalendarKey }

type ExportCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ExportCalendarHandler) Handle(ctx context.Context, q ExportCalendarQuery) (dto.CalendarFeed, error) {
	var zero dto.CalendarFeed
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return zero, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return zero, err
	}
	cal, err := unit.Calendars().InternalByListing(execCtx, listing.ID)
	if err != nil {
		return zero, err
	}
	if !cal.VerifyToken(q.Token) {
		return zero, fault.New(fault.KindForbidden, "invalid calendar export token")
	}

	// Regenerated from current state on every request; exports are never cached.
	blocks, err := unit.Availability().Blocks(execCtx, listing.ID)
	if err != nil {
		return zero, err
	}

	feed := dto.CalendarFeed{
		ListingID:    string(listing.ID),
		ListingTitle: listing.Title,
		Blocks:       make([]dto.FeedBlock, 0, len(blocks)),
	}
	for _, b := range blocks {
		feed.Blocks = append(feed.Blocks, dto.FeedBlock{
			Start:  b.Range.CheckIn,
			End:    b.Range.CheckOut,
			Reason: string(b.Reason),
			UID:    string(b.ID),
		})
	}
	return feed, nil
}

var _ queries.Handler[ExportCalendarQuery, dto.CalendarFeed] = (*ExportCalendarHandler)(nil)
