package memory

import (
	"context"

	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domaincalendar "staybook/internal/domain/calendar"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/fault"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo     domainlistings.ListingRepository
	AvailabilityRepo domainavailability.Repository
	BookingRepo      domainbooking.Repository
	CalendarRepo     domaincalendar.Repository
}

// Begin starts a lightweight transaction boundary. Isolation comes from the
// repositories' own locking; the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.AvailabilityRepo == nil || f.BookingRepo == nil || f.CalendarRepo == nil {
		return nil, fault.New(fault.KindValidation, "memory: unit of work factory misconfigured")
	}
	return &Unit{
		listings:     f.ListingsRepo,
		availability: f.AvailabilityRepo,
		booking:      f.BookingRepo,
		calendars:    f.CalendarRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings     domainlistings.ListingRepository
	availability domainavailability.Repository
	booking      domainbooking.Repository
	calendars    domaincalendar.Repository

	afterCommit []func(context.Context)
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Availability() domainavailability.Repository {
	return u.availability
}

func (u *Unit) Booking() domainbooking.Repository {
	return u.booking
}

func (u *Unit) Calendars() domaincalendar.Repository {
	return u.calendars
}

func (u *Unit) Commit(ctx context.Context) error {
	hooks := u.afterCommit
	u.afterCommit = nil
	for _, fn := range hooks {
		fn(ctx)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.afterCommit = nil
	return nil
}

func (u *Unit) AfterCommit(fn func(context.Context)) {
	u.afterCommit = append(u.afterCommit, fn)
}
