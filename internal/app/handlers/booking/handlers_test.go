package booking_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
	"staybook/internal/infra/notify"
	"staybook/internal/infra/payments"
	"staybook/internal/infra/storage/memory"
)

type testEnv struct {
	factory      memory.Factory
	listings     *memory.ListingRepository
	bookings     *memory.BookingRepository
	availability *memory.AvailabilityRepository
	gateway      *payments.MemoryGateway
	outbox       *memory.Outbox
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		listings:     memory.NewListingRepository(),
		bookings:     memory.NewBookingRepository(),
		availability: memory.NewAvailabilityRepository(),
		gateway:      payments.NewMemoryGateway(),
		outbox:       memory.NewOutbox(),
	}
	env.factory = memory.Factory{
		ListingsRepo:     env.listings,
		AvailabilityRepo: env.availability,
		BookingRepo:      env.bookings,
		CalendarRepo:     memory.NewCalendarRepository(),
	}
	return env
}

func (e *testEnv) seedListing(t *testing.T, id string, instantBook bool) {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:                 domainlistings.ListingID(id),
		Host:               "host-1",
		Title:              "Cabin by the lake",
		BasePriceCents:     15000,
		CleaningFeeCents:   5000,
		Currency:           "USD",
		MinNights:          1,
		MaxNights:          14,
		GuestsLimit:        4,
		InstantBook:        instantBook,
		CancellationPolicy: string(domainbooking.PolicyModerate),
		Now:                time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, e.listings.Save(context.Background(), listing))
}

func (e *testEnv) requestHandler() *bookingapp.RequestBookingHandler {
	return &bookingapp.RequestBookingHandler{
		UoWFactory: e.factory,
		Pricing:    domainpricing.Calculator{Policy: domainpricing.DefaultFeePolicy()},
		Payments:   e.gateway,
		Notifier:   &notify.LogNotifier{},
		Outbox:     e.outbox,
	}
}

// stayDates returns a midnight-aligned 3 night stay 30 days out, far enough
// that every cancellation policy grants a full refund.
func stayDates() (time.Time, time.Time) {
	in := time.Now().UTC().AddDate(0, 0, 30).Truncate(24 * time.Hour)
	return in, in.AddDate(0, 0, 3)
}

func TestRequestBooking_QuotesAndReserves(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()

	res, err := env.requestHandler().Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatePending), res.Status)
	assert.Equal(t, int64(59000), res.TotalCents)
	assert.Equal(t, "USD", res.Currency)
	assert.NotEmpty(t, res.PaymentIntentID)
	assert.False(t, res.PaymentDegraded)

	dr, err := domainrange.New(checkIn, checkOut)
	require.NoError(t, err)
	available, err := env.availability.IsRangeAvailable(ctx, "lst-1", dr)
	require.NoError(t, err)
	assert.False(t, available, "the pending request holds the nights")

	var names []string
	for _, rec := range env.outbox.Pending() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "booking.requested")
}

func TestRequestBooking_OverlapConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()
	handler := env.requestHandler()

	_, err := handler.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	require.NoError(t, err)

	_, err = handler.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-2", ListingID: "lst-1", GuestID: "guest-2",
		CheckIn: checkIn.AddDate(0, 0, 1), CheckOut: checkOut.AddDate(0, 0, 2), Guests: 1,
	})
	assert.True(t, fault.IsKind(err, fault.KindConflict))

	// A back-to-back stay starting on the first checkout day is fine.
	_, err = handler.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-3", ListingID: "lst-1", GuestID: "guest-2",
		CheckIn: checkOut, CheckOut: checkOut.AddDate(0, 0, 2), Guests: 1,
	})
	require.NoError(t, err)
}

func TestRequestBooking_ConcurrentRequestsOneWinner(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()
	handler := env.requestHandler()

	const requests = 16
	start := make(chan struct{})
	errs := make(chan error, requests)
	for i := 0; i < requests; i++ {
		cmd := bookingapp.RequestBookingCommand{
			CommandID: fmt.Sprintf("bk-%d", i),
			ListingID: "lst-1",
			GuestID:   fmt.Sprintf("guest-%d", i),
			CheckIn:   checkIn,
			CheckOut:  checkOut,
			Guests:    2,
		}
		go func() {
			<-start
			_, err := handler.Handle(ctx, cmd)
			errs <- err
		}()
	}
	close(start)

	var wins, conflicts int
	for i := 0; i < requests; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		case fault.IsKind(err, fault.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, requests-1, conflicts)

	// A losing request leaves neither a booking nor a block behind.
	stored, err := env.bookings.ListByListing(ctx, "lst-1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	blocks, err := env.availability.Blocks(ctx, "lst-1")
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestRequestBooking_ValidationFailures(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()
	handler := env.requestHandler()

	_, err := handler.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 9,
	})
	assert.True(t, fault.IsKind(err, fault.KindValidation), "over the guest limit")

	_, err = handler.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-2", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: time.Now().UTC().AddDate(0, 0, -3), CheckOut: time.Now().UTC().AddDate(0, 0, -1), Guests: 2,
	})
	assert.True(t, fault.IsKind(err, fault.KindValidation), "past stay")

	_, err = handler.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-3", ListingID: "lst-404", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestRequestBooking_InstantBookConfirms(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", true)
	checkIn, checkOut := stayDates()

	res, err := env.requestHandler().Handle(context.Background(), bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateConfirmed), res.Status)
}

func TestRequestBooking_GatewayOutageDegrades(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	env.gateway.FailNext = true
	checkIn, checkOut := stayDates()

	res, err := env.requestHandler().Handle(context.Background(), bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	require.NoError(t, err, "an unreachable gateway must not abort the reservation")
	assert.True(t, res.PaymentDegraded)
	assert.Empty(t, res.PaymentIntentID)

	stored, err := env.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Empty(t, stored.PaymentIntent)
}

func TestAcceptThenCancel_RefundsAndFreesRange(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()

	_, err := env.requestHandler().Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	require.NoError(t, err)

	accept := &bookingapp.AcceptBookingHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err = accept.Handle(ctx, bookingapp.AcceptBookingCommand{BookingID: "bk-1", HostID: "guest-1"})
	assert.True(t, fault.IsKind(err, fault.KindForbidden), "only the host accepts")

	res, err := accept.Handle(ctx, bookingapp.AcceptBookingCommand{BookingID: "bk-1", HostID: "host-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateConfirmed), res.Status)

	cancel := &bookingapp.CancelBookingHandler{
		UoWFactory: env.factory,
		Payments:   env.gateway,
		Outbox:     env.outbox,
	}
	cres, err := cancel.Handle(ctx, bookingapp.CancelBookingCommand{
		BookingID: "bk-1", ActorID: "guest-1", Reason: "change of plans",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCanceled), cres.Status)
	assert.Equal(t, int64(59000), cres.RefundCents, "30 days out is a full refund")
	assert.Equal(t, int64(59000), env.gateway.Refunded())

	dr, err := domainrange.New(checkIn, checkOut)
	require.NoError(t, err)
	available, err := env.availability.IsRangeAvailable(ctx, "lst-1", dr)
	require.NoError(t, err)
	assert.True(t, available, "cancellation releases the nights")
}

func TestDecline_RefundsAndFreesRange(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()

	_, err := env.requestHandler().Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	require.NoError(t, err)

	decline := &bookingapp.DeclineBookingHandler{
		UoWFactory: env.factory,
		Payments:   env.gateway,
		Outbox:     env.outbox,
	}
	res, err := decline.Handle(ctx, bookingapp.DeclineBookingCommand{
		BookingID: "bk-1", HostID: "host-1", Reason: "dates no longer open",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateDeclined), res.Status)
	assert.Equal(t, int64(59000), env.gateway.Refunded(), "a declined request refunds in full")

	dr, err := domainrange.New(checkIn, checkOut)
	require.NoError(t, err)
	available, err := env.availability.IsRangeAvailable(ctx, "lst-1", dr)
	require.NoError(t, err)
	assert.True(t, available)

	// Terminal state: the host cannot accept after declining.
	accept := &bookingapp.AcceptBookingHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err = accept.Handle(ctx, bookingapp.AcceptBookingCommand{BookingID: "bk-1", HostID: "host-1"})
	assert.True(t, fault.IsKind(err, fault.KindConflict))
}

func TestCheckOut_ReleasesRange(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()

	_, err := env.requestHandler().Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	require.NoError(t, err)

	accept := &bookingapp.AcceptBookingHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err = accept.Handle(ctx, bookingapp.AcceptBookingCommand{BookingID: "bk-1", HostID: "host-1"})
	require.NoError(t, err)

	checkin := &bookingapp.CheckInHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err = checkin.Handle(ctx, bookingapp.CheckInCommand{BookingID: "bk-1", ActorID: "guest-1"})
	require.NoError(t, err)

	checkout := &bookingapp.CheckOutHandler{UoWFactory: env.factory, Payments: env.gateway, Outbox: env.outbox}
	res, err := checkout.Handle(ctx, bookingapp.CheckOutCommand{BookingID: "bk-1", ActorID: "guest-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCheckedOut), res.Status)

	// A completed stay no longer holds its block.
	dr, err := domainrange.New(checkIn, checkOut)
	require.NoError(t, err)
	available, err := env.availability.IsRangeAvailable(ctx, "lst-1", dr)
	require.NoError(t, err)
	assert.True(t, available)
}

type recordingNotifier struct {
	requests      []string
	confirmations []string
	notifications []policies.Notification
}

func (n *recordingNotifier) SendBookingRequest(_ context.Context, _, bookingID string) {
	n.requests = append(n.requests, bookingID)
}

func (n *recordingNotifier) SendBookingConfirmation(_ context.Context, _, bookingID string) {
	n.confirmations = append(n.confirmations, bookingID)
}

func (n *recordingNotifier) CreateNotification(_ context.Context, note policies.Notification) {
	n.notifications = append(n.notifications, note)
}

type failingCommitFactory struct {
	inner memory.Factory
}

func (f failingCommitFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &failingCommitUnit{UnitOfWork: unit}, nil
}

type failingCommitUnit struct {
	uow.UnitOfWork
}

func (u *failingCommitUnit) Commit(ctx context.Context) error {
	return errors.New("commit refused")
}

func TestRequestBooking_NotifiesOnlyAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()

	rec := &recordingNotifier{}
	handler := env.requestHandler()
	handler.Notifier = rec
	_, err := handler.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bk-1"}, rec.requests)

	// A failed commit must not leak a host notification.
	rec2 := &recordingNotifier{}
	failing := env.requestHandler()
	failing.UoWFactory = failingCommitFactory{inner: env.factory}
	failing.Notifier = rec2
	_, err = failing.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-2", ListingID: "lst-1", GuestID: "guest-2",
		CheckIn: checkOut, CheckOut: checkOut.AddDate(0, 0, 2), Guests: 2,
	})
	require.Error(t, err)
	assert.Empty(t, rec2.requests)
}

func TestConfirm_MarksPaid(t *testing.T) {
	env := newTestEnv(t)
	env.seedListing(t, "lst-1", false)
	ctx := context.Background()
	checkIn, checkOut := stayDates()

	res, err := env.requestHandler().Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", ListingID: "lst-1", GuestID: "guest-1",
		CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	})
	require.NoError(t, err)

	confirm := &bookingapp.ConfirmBookingHandler{
		UoWFactory: env.factory,
		Payments:   env.gateway,
		Outbox:     env.outbox,
	}
	cres, err := confirm.Handle(ctx, bookingapp.ConfirmBookingCommand{BookingID: "bk-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateConfirmed), cres.Status)
	assert.True(t, env.gateway.Confirmed(res.PaymentIntentID))

	// Webhook retries are harmless.
	_, err = confirm.Handle(ctx, bookingapp.ConfirmBookingCommand{BookingID: "bk-1"})
	require.NoError(t, err)
}
