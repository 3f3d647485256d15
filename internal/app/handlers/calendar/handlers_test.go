package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calendarapp "staybook/internal/app/handlers/calendar"
	"staybook/internal/app/policies"
	domainavailability "staybook/internal/domain/availability"
	domaincalendar "staybook/internal/domain/calendar"
	domainlistings "staybook/internal/domain/listings"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
	"staybook/internal/infra/storage/memory"
)

type feedFunc func(ctx context.Context, url string) ([]policies.FeedEvent, error)

func (f feedFunc) Fetch(ctx context.Context, url string) ([]policies.FeedEvent, error) {
	return f(ctx, url)
}

type calendarEnv struct {
	factory      memory.Factory
	calendars    *memory.CalendarRepository
	availability *memory.AvailabilityRepository
	listings     *memory.ListingRepository
}

func newCalendarEnv(t *testing.T) *calendarEnv {
	t.Helper()
	env := &calendarEnv{
		calendars:    memory.NewCalendarRepository(),
		availability: memory.NewAvailabilityRepository(),
		listings:     memory.NewListingRepository(),
	}
	env.factory = memory.Factory{
		ListingsRepo:     env.listings,
		AvailabilityRepo: env.availability,
		BookingRepo:      memory.NewBookingRepository(),
		CalendarRepo:     env.calendars,
	}
	return env
}

func (e *calendarEnv) seedImported(t *testing.T, id, listingID string) {
	t.Helper()
	cal, err := domaincalendar.New(domaincalendar.CreateParams{
		ID:          domaincalendar.CalendarID(id),
		ListingID:   domainlistings.ListingID(listingID),
		Source:      domaincalendar.SourceICal,
		ICalURL:     "https://remote.example/" + id + ".ics",
		SyncEnabled: true,
		Now:         time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, e.calendars.Save(context.Background(), cal))
}

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestSyncCalendar_ImportsAndReplaces(t *testing.T) {
	env := newCalendarEnv(t)
	env.seedImported(t, "cal-1", "lst-1")
	ctx := context.Background()

	remote := []policies.FeedEvent{
		{UID: "ev-1", Start: day(10), End: day(13)},
		{UID: "ev-2", Start: day(20), End: day(22)},
	}
	handler := &calendarapp.SyncCalendarHandler{
		UoWFactory: env.factory,
		Feed: feedFunc(func(ctx context.Context, url string) ([]policies.FeedEvent, error) {
			return remote, nil
		}),
	}

	res, err := handler.Handle(ctx, calendarapp.SyncCalendarCommand{CalendarID: "cal-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Blocks)

	blocks, err := env.availability.Blocks(ctx, "lst-1")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, domainavailability.ReasonICalBlocked, blocks[0].Reason)
	assert.Equal(t, "cal-1", blocks[0].SourceID)

	cal, err := env.calendars.ByID(ctx, "cal-1")
	require.NoError(t, err)
	assert.False(t, cal.LastSyncAt.IsZero())

	// The remote dropped an event; the next sync mirrors that.
	remote = remote[:1]
	_, err = handler.Handle(ctx, calendarapp.SyncCalendarCommand{CalendarID: "cal-1"})
	require.NoError(t, err)
	blocks, err = env.availability.Blocks(ctx, "lst-1")
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestSyncCalendar_ZeroLengthEventCoversOneDay(t *testing.T) {
	env := newCalendarEnv(t)
	env.seedImported(t, "cal-1", "lst-1")
	ctx := context.Background()

	handler := &calendarapp.SyncCalendarHandler{
		UoWFactory: env.factory,
		Feed: feedFunc(func(ctx context.Context, url string) ([]policies.FeedEvent, error) {
			return []policies.FeedEvent{{UID: "ev-1", Start: day(10), End: day(10)}}, nil
		}),
	}
	res, err := handler.Handle(ctx, calendarapp.SyncCalendarCommand{CalendarID: "cal-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Blocks)

	blocks, err := env.availability.Blocks(ctx, "lst-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, day(11), blocks[0].Range.CheckOut)
}

func TestSyncCalendar_FetchFailureKeepsBlocks(t *testing.T) {
	env := newCalendarEnv(t)
	env.seedImported(t, "cal-1", "lst-1")
	ctx := context.Background()

	calls := 0
	handler := &calendarapp.SyncCalendarHandler{
		UoWFactory: env.factory,
		Feed: feedFunc(func(ctx context.Context, url string) ([]policies.FeedEvent, error) {
			calls++
			if calls > 1 {
				return nil, fault.New(fault.KindExternal, "remote returned 503")
			}
			return []policies.FeedEvent{{UID: "ev-1", Start: day(10), End: day(13)}}, nil
		}),
	}

	_, err := handler.Handle(ctx, calendarapp.SyncCalendarCommand{CalendarID: "cal-1"})
	require.NoError(t, err)

	_, err = handler.Handle(ctx, calendarapp.SyncCalendarCommand{CalendarID: "cal-1"})
	assert.True(t, fault.IsKind(err, fault.KindExternal))

	blocks, err := env.availability.Blocks(ctx, "lst-1")
	require.NoError(t, err)
	assert.Len(t, blocks, 1, "a failed fetch leaves the last good import in place")
}

func TestSyncCalendar_RejectsNonImported(t *testing.T) {
	env := newCalendarEnv(t)
	ctx := context.Background()
	cal, err := domaincalendar.New(domaincalendar.CreateParams{
		ID:          "cal-int",
		ListingID:   "lst-1",
		Source:      domaincalendar.SourceInternal,
		ExportToken: "tok-abc",
		Now:         time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, env.calendars.Save(ctx, cal))

	handler := &calendarapp.SyncCalendarHandler{UoWFactory: env.factory}
	_, err = handler.Handle(ctx, calendarapp.SyncCalendarCommand{CalendarID: "cal-int"})
	assert.True(t, fault.IsKind(err, fault.KindValidation))

	_, err = handler.Handle(ctx, calendarapp.SyncCalendarCommand{CalendarID: "missing"})
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestExportCalendar_TokenGate(t *testing.T) {
	env := newCalendarEnv(t)
	ctx := context.Background()

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Cabin by the lake",
		Currency:    "USD",
		GuestsLimit: 2,
		Now:         time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, env.listings.Save(ctx, listing))

	cal, err := domaincalendar.New(domaincalendar.CreateParams{
		ID:          "cal-int",
		ListingID:   "lst-1",
		Source:      domaincalendar.SourceInternal,
		ExportToken: "tok-abc",
		Now:         time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, env.calendars.Save(ctx, cal))

	dr, err := domainrange.New(day(10), day(13))
	require.NoError(t, err)
	block, err := domainavailability.NewBlock(
		"blk-1", "lst-1", dr,
		domainavailability.ReasonBooking,
		domainavailability.SourceInternal,
		"bk-1",
		time.Now(),
	)
	require.NoError(t, err)
	require.NoError(t, env.availability.AddBlock(ctx, block))

	handler := &calendarapp.ExportCalendarHandler{UoWFactory: env.factory}

	_, err = handler.Handle(ctx, calendarapp.ExportCalendarQuery{ListingID: "lst-1", Token: "wrong"})
	assert.True(t, fault.IsKind(err, fault.KindForbidden))

	feed, err := handler.Handle(ctx, calendarapp.ExportCalendarQuery{ListingID: "lst-1", Token: "tok-abc"})
	require.NoError(t, err)
	assert.Equal(t, "lst-1", feed.ListingID)
	require.Len(t, feed.Blocks, 1)
	assert.Equal(t, day(10), feed.Blocks[0].Start)
	assert.Equal(t, day(13), feed.Blocks[0].End)
	assert.Equal(t, "booking", feed.Blocks[0].Reason)
}
