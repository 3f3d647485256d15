package uow

import (
	"context"

	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domaincalendar "staybook/internal/domain/calendar"
	domainlistings "staybook/internal/domain/listings"
)

// UnitOfWork coordinates repositories inside a transaction boundary. The
// availability check and the block write for one booking always run inside a
// single unit so the reserve step is atomic.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Availability() domainavailability.Repository
	Booking() domainbooking.Repository
	Calendars() domaincalendar.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// AfterCommit registers fn to run once the unit's writes are durable.
	// Hooks never run on rollback or on a failed commit.
	AfterCommit(fn func(ctx context.Context))
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
