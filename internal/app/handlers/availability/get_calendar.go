package availability

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

const getCalendarKey = "availability.calendar"

// GetCalendarQuery resolves the per-date availability view for a window.
type GetCalendarQuery struct {
	ListingID string
	Start     time.Time
	End       time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.AvailabilityCalendar, error) {
	var zero dto.AvailabilityCalendar
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return zero, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	dr, err := domainrange.New(q.Start, q.End)
	if err != nil {
		return zero, fault.Wrap(fault.KindValidation, err, "invalid availability window")
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return zero, err
	}
	blocks, err := unit.Availability().BlocksInRange(execCtx, listing.ID, dr)
	if err != nil {
		return zero, err
	}
	overrides, err := unit.Availability().OverridesInRange(execCtx, listing.ID, dr)
	if err != nil {
		return zero, err
	}

	days := domainavailability.BuildDayStatuses(listing, dr, blocks, overrides)
	return dto.MapDayStatuses(string(listing.ID), days), nil
}

var _ queries.Handler[GetCalendarQuery, dto.AvailabilityCalendar] = (*GetCalendarHandler)(nil)
