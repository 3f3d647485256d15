package memory

import (
	"context"
	"sync"

	domainbooking "staybook/internal/domain/booking"
	domaincalendar "staybook/internal/domain/calendar"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/fault"
)

// ListingRepository is an in-memory implementation used for tests and dev.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, fault.New(fault.KindNotFound, "listing %s not found", id)
	}
	copied := *listing
	return &copied, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *listing
	r.items[listing.ID] = &copied
	return nil
}

// BookingRepository stores bookings with optimistic versioning to mirror the
// datastore implementation.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bk, ok := r.items[id]
	if !ok {
		return nil, fault.New(fault.KindNotFound, "booking %s not found", id)
	}
	copied := *bk
	copied.ClearEvents()
	return &copied, nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.items[booking.ID]
	if exists && current.Version != booking.Version {
		return fault.New(fault.KindConflict, "booking %s was modified concurrently", booking.ID)
	}
	booking.Version++
	copied := *booking
	copied.ClearEvents()
	r.items[booking.ID] = &copied
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, bk := range r.items {
		if bk.GuestID == guestID {
			copied := *bk
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, bk := range r.items {
		if bk.ListingID == listingID {
			copied := *bk
			out = append(out, &copied)
		}
	}
	return out, nil
}

// CalendarRepository keeps calendar records in memory.
type CalendarRepository struct {
	mu    sync.RWMutex
	items map[domaincalendar.CalendarID]*domaincalendar.Calendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{items: make(map[domaincalendar.CalendarID]*domaincalendar.Calendar)}
}

func (r *CalendarRepository) ByID(ctx context.Context, id domaincalendar.CalendarID) (*domaincalendar.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cal, ok := r.items[id]
	if !ok {
		return nil, fault.New(fault.KindNotFound, "calendar %s not found", id)
	}
	copied := *cal
	return &copied, nil
}

func (r *CalendarRepository) ByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domaincalendar.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domaincalendar.Calendar
	for _, cal := range r.items {
		if cal.ListingID == listingID {
			copied := *cal
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *CalendarRepository) InternalByListing(ctx context.Context, listingID domainlistings.ListingID) (*domaincalendar.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cal := range r.items {
		if cal.ListingID == listingID && cal.Source == domaincalendar.SourceInternal {
			copied := *cal
			return &copied, nil
		}
	}
	return nil, fault.New(fault.KindNotFound, "listing %s has no internal calendar", listingID)
}

func (r *CalendarRepository) ListSyncEnabled(ctx context.Context) ([]*domaincalendar.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domaincalendar.Calendar
	for _, cal := range r.items {
		if cal.SyncEnabled {
			copied := *cal
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domaincalendar.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *cal
	r.items[cal.ID] = &copied
	return nil
}

var (
	_ domainlistings.ListingRepository = (*ListingRepository)(nil)
	_ domainbooking.Repository         = (*BookingRepository)(nil)
	_ domaincalendar.Repository        = (*CalendarRepository)(nil)
)
