package booking

import (
	"context"
	"time"

	"staybook/internal/domain/listings"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/fault"
	"staybook/internal/domain/shared/money"
)

type BookingID string

type BookingState string

const (
	StatePending    BookingState = "PENDING"
	StateConfirmed  BookingState = "CONFIRMED"
	StateDeclined   BookingState = "DECLINED"
	StateCanceled   BookingState = "CANCELED"
	StateCheckedIn  BookingState = "CHECKED_IN"
	StateCheckedOut BookingState = "CHECKED_OUT"
)

type PayoutStatus string

const (
	PayoutNone     PayoutStatus = ""
	PayoutPending  PayoutStatus = "PENDING"
	PayoutReleased PayoutStatus = "RELEASED"
)

// Booking is the reservation aggregate. It is never hard-deleted; declining
// and canceling are terminal states, each releasing the availability block
// held on its behalf.
type Booking struct {
	ID            BookingID
	ListingID     listings.ListingID
	GuestID       string
	HostID        string
	Range         daterange.DateRange
	Guests        int
	Price         pricing.PriceBreakdown
	State         BookingState
	Policy        Policy
	PaymentIntent string
	Payout        PayoutStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
}

type CreateParams struct {
	ID          BookingID
	ListingID   listings.ListingID
	GuestID     string
	HostID      string
	Range       daterange.DateRange
	Guests      int
	Price       pricing.PriceBreakdown
	Policy      Policy
	InstantBook bool
	CreatedAt   time.Time
}

// NewBooking constructs a booking in its initial state: CONFIRMED for
// instant-book listings, PENDING when the host must accept first.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.GuestID == "" {
		return nil, fault.New(fault.KindValidation, "booking: guest id required")
	}
	if params.Guests <= 0 {
		return nil, fault.New(fault.KindValidation, "booking: guests count must be positive")
	}
	if _, err := params.Policy.tiers(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	state := StatePending
	if params.InstantBook {
		state = StateConfirmed
	}
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		GuestID:   params.GuestID,
		HostID:    params.HostID,
		Range:     params.Range,
		Guests:    params.Guests,
		Price:     params.Price,
		Policy:    params.Policy,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, GuestsCount: b.Guests, QuotedTotal: b.Price.Total, At: now})
	if state == StateConfirmed {
		b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Total: b.Price.Total, At: now})
	}
	return b, nil
}

// AttachPaymentIntent records the gateway intent id once it exists. Creation
// may lag the booking when the gateway was unreachable at request time.
func (b *Booking) AttachPaymentIntent(intentID string, now time.Time) {
	b.PaymentIntent = intentID
	b.UpdatedAt = now.UTC()
}

// Accept moves a pending booking to confirmed. Host approval only.
func (b *Booking) Accept(now time.Time) error {
	if b.State != StatePending {
		return fault.New(fault.KindConflict, "booking is %s, only pending bookings can be accepted", b.State)
	}
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingAccepted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Decline rejects a pending booking.
func (b *Booking) Decline(reason string, now time.Time) error {
	if b.State != StatePending {
		return fault.New(fault.KindConflict, "booking is %s, only pending bookings can be declined", b.State)
	}
	b.State = StateDeclined
	b.UpdatedAt = now.UTC()
	b.Record(BookingDeclined{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// MarkPaid re-asserts the post-payment state. Pending and confirmed bookings
// are valid targets so a duplicate webhook is a no-op; terminal states refuse
// to be resurrected.
func (b *Booking) MarkPaid(now time.Time) error {
	switch b.State {
	case StatePending, StateConfirmed:
	default:
		return fault.New(fault.KindConflict, "booking is %s and cannot be confirmed", b.State)
	}
	b.UpdatedAt = now.UTC()
	b.Record(BookingPaid{BookingID: b.ID, PaymentIntent: b.PaymentIntent, At: b.UpdatedAt})
	return nil
}

// Cancel terminates a pending or confirmed booking, computing the refund from
// the cancellation policy and the lead time remaining.
func (b *Booking) Cancel(reason string, now time.Time) (money.Money, error) {
	switch b.State {
	case StatePending, StateConfirmed:
	default:
		return money.Money{}, fault.New(fault.KindConflict, "booking is %s and cannot be canceled", b.State)
	}
	lead := LeadDays(now, b.Range.CheckIn)
	refund, err := CalculateRefund(b.Price.Total, lead, b.Policy)
	if err != nil {
		return money.Money{}, err
	}
	b.State = StateCanceled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCanceled{BookingID: b.ID, Refund: refund, Reason: reason, At: b.UpdatedAt})
	return refund, nil
}

// CheckIn transitions a confirmed booking to an active stay.
func (b *Booking) CheckIn(now time.Time) error {
	if b.State != StateConfirmed {
		return fault.New(fault.KindConflict, "booking is %s, only confirmed bookings can check in", b.State)
	}
	b.State = StateCheckedIn
	b.UpdatedAt = now.UTC()
	b.Record(CheckInCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// CheckOut completes the stay and marks the payout as pending release.
func (b *Booking) CheckOut(now time.Time) error {
	if b.State != StateCheckedIn {
		return fault.New(fault.KindConflict, "booking is %s, only checked-in bookings can check out", b.State)
	}
	b.State = StateCheckedOut
	b.Payout = PayoutPending
	b.UpdatedAt = now.UTC()
	b.Record(CheckOutCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// MarkPayoutReleased records a successful host transfer.
func (b *Booking) MarkPayoutReleased(now time.Time) {
	b.Payout = PayoutReleased
	b.UpdatedAt = now.UTC()
}

// HoldsBlock reports whether the booking currently owns an availability block
// (invariant: the block exists iff the booking is in one of these states).
func (b *Booking) HoldsBlock() bool {
	switch b.State {
	case StatePending, StateConfirmed, StateCheckedIn:
		return true
	}
	return false
}

// ValidateDateRange rejects check-ins before today (UTC days).
func ValidateDateRange(dr daterange.DateRange, now time.Time) error {
	if dr.CheckIn.Before(daterange.Day(now)) {
		return fault.New(fault.KindValidation, "booking: check-in date is in the past")
	}
	return nil
}
