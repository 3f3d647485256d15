package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityapp "staybook/internal/app/handlers/availability"
	domainlistings "staybook/internal/domain/listings"
	"staybook/internal/domain/shared/fault"
	"staybook/internal/infra/storage/memory"
)

func newEnv(t *testing.T) memory.Factory {
	t.Helper()
	listings := memory.NewListingRepository()
	factory := memory.Factory{
		ListingsRepo:     listings,
		AvailabilityRepo: memory.NewAvailabilityRepository(),
		BookingRepo:      memory.NewBookingRepository(),
		CalendarRepo:     memory.NewCalendarRepository(),
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:             "lst-1",
		Host:           "host-1",
		Title:          "Cabin by the lake",
		BasePriceCents: 15000,
		Currency:       "USD",
		MinNights:      2,
		GuestsLimit:    4,
		Now:            time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, listings.Save(context.Background(), listing))
	return factory
}

func sep(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestAddBlock_HostOnly(t *testing.T) {
	factory := newEnv(t)
	ctx := context.Background()
	handler := &availabilityapp.AddBlockHandler{UoWFactory: factory}

	_, err := handler.Handle(ctx, availabilityapp.AddBlockCommand{
		BlockID: "blk-1", ListingID: "lst-1", HostID: "stranger",
		Start: sep(10), End: sep(12),
	})
	assert.True(t, fault.IsKind(err, fault.KindForbidden))

	res, err := handler.Handle(ctx, availabilityapp.AddBlockCommand{
		BlockID: "blk-1", ListingID: "lst-1", HostID: "host-1",
		Start: sep(10), End: sep(12),
	})
	require.NoError(t, err)
	assert.Equal(t, "blk-1", res.BlockID)

	_, err = handler.Handle(ctx, availabilityapp.AddBlockCommand{
		BlockID: "blk-2", ListingID: "lst-1", HostID: "host-1",
		Start: sep(12), End: sep(10),
	})
	assert.True(t, fault.IsKind(err, fault.KindValidation), "inverted range")
}

func TestRemoveBlock_HostLifecycle(t *testing.T) {
	factory := newEnv(t)
	ctx := context.Background()
	add := &availabilityapp.AddBlockHandler{UoWFactory: factory}
	remove := &availabilityapp.RemoveBlockHandler{UoWFactory: factory}

	_, err := add.Handle(ctx, availabilityapp.AddBlockCommand{
		BlockID: "blk-1", ListingID: "lst-1", HostID: "host-1",
		Start: sep(10), End: sep(12),
	})
	require.NoError(t, err)

	_, err = remove.Handle(ctx, availabilityapp.RemoveBlockCommand{
		ListingID: "lst-1", BlockID: "blk-1", HostID: "stranger",
	})
	assert.True(t, fault.IsKind(err, fault.KindForbidden))

	_, err = remove.Handle(ctx, availabilityapp.RemoveBlockCommand{
		ListingID: "lst-1", BlockID: "blk-1", HostID: "host-1",
	})
	require.NoError(t, err)

	_, err = remove.Handle(ctx, availabilityapp.RemoveBlockCommand{
		ListingID: "lst-1", BlockID: "blk-1", HostID: "host-1",
	})
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestGetCalendar_ReflectsBlocksAndOverrides(t *testing.T) {
	factory := newEnv(t)
	ctx := context.Background()

	_, err := (&availabilityapp.AddBlockHandler{UoWFactory: factory}).Handle(ctx, availabilityapp.AddBlockCommand{
		BlockID: "blk-1", ListingID: "lst-1", HostID: "host-1",
		Start: sep(11), End: sep(12),
	})
	require.NoError(t, err)

	_, err = (&availabilityapp.SetPriceOverrideHandler{UoWFactory: factory}).Handle(ctx, availabilityapp.SetPriceOverrideCommand{
		ListingID: "lst-1", HostID: "host-1",
		Date: sep(12), NightlyCents: 22000, Reason: "holiday weekend",
	})
	require.NoError(t, err)

	cal, err := (&availabilityapp.GetCalendarHandler{UoWFactory: factory}).Handle(ctx, availabilityapp.GetCalendarQuery{
		ListingID: "lst-1", Start: sep(10), End: sep(13),
	})
	require.NoError(t, err)
	require.Len(t, cal.Days, 3)

	assert.Equal(t, "2026-09-10", cal.Days[0].Date)
	assert.True(t, cal.Days[0].Available)
	assert.Equal(t, int64(15000), cal.Days[0].Price)
	assert.Equal(t, 2, cal.Days[0].MinNights)

	assert.False(t, cal.Days[1].Available)

	assert.True(t, cal.Days[2].Available)
	assert.Equal(t, int64(22000), cal.Days[2].Price)
}

func TestSetPriceOverride_Validation(t *testing.T) {
	factory := newEnv(t)
	ctx := context.Background()
	handler := &availabilityapp.SetPriceOverrideHandler{UoWFactory: factory}

	_, err := handler.Handle(ctx, availabilityapp.SetPriceOverrideCommand{
		ListingID: "lst-1", HostID: "host-1", Date: sep(12), NightlyCents: -1,
	})
	assert.True(t, fault.IsKind(err, fault.KindValidation))

	_, err = handler.Handle(ctx, availabilityapp.SetPriceOverrideCommand{
		ListingID: "lst-1", HostID: "stranger", Date: sep(12), NightlyCents: 1000,
	})
	assert.True(t, fault.IsKind(err, fault.KindForbidden))
}

func TestRemovePriceOverride(t *testing.T) {
	factory := newEnv(t)
	ctx := context.Background()

	set := &availabilityapp.SetPriceOverrideHandler{UoWFactory: factory}
	_, err := set.Handle(ctx, availabilityapp.SetPriceOverrideCommand{
		ListingID: "lst-1", HostID: "host-1", Date: sep(12), NightlyCents: 22000,
	})
	require.NoError(t, err)

	remove := &availabilityapp.RemovePriceOverrideHandler{UoWFactory: factory}
	_, err = remove.Handle(ctx, availabilityapp.RemovePriceOverrideCommand{
		ListingID: "lst-1", HostID: "host-1", Date: "2026-09-12",
	})
	require.NoError(t, err)

	cal, err := (&availabilityapp.GetCalendarHandler{UoWFactory: factory}).Handle(ctx, availabilityapp.GetCalendarQuery{
		ListingID: "lst-1", Start: sep(12), End: sep(13),
	})
	require.NoError(t, err)
	require.Len(t, cal.Days, 1)
	assert.Equal(t, int64(15000), cal.Days[0].Price)
}
