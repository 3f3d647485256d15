package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainlistings "staybook/internal/domain/listings"
	domainpricing "staybook/internal/domain/pricing"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

// Validate checks the request shape before any repository work starts.
func (c RequestBookingCommand) Validate() error {
	if c.ListingID == "" {
		return fault.New(fault.KindValidation, "listing id is required")
	}
	if c.GuestID == "" {
		return fault.New(fault.KindValidation, "guest id is required")
	}
	if c.Guests < 1 {
		return fault.New(fault.KindValidation, "at least one guest is required")
	}
	return nil
}

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	// TotalCents is the quoted total in minor currency units.
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
	// PaymentIntentID is empty when the gateway was unreachable; the booking
	// proceeds unpaid and is reconciled later.
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	ClientSecret    string `json:"client_secret,omitempty"`
	PaymentDegraded bool   `json:"payment_degraded,omitempty"`
}

// RequestBookingHandler runs the check-then-reserve sequence. The availability
// read, the booking insert, and the block insert share one unit of work; the
// block insert re-verifies no overlap, so two concurrent requests for the same
// nights cannot both commit.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    domainpricing.Calculator
	Payments   policies.PaymentsPort
	Notifier   policies.NotifierPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ctx, commit, cleanup, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, err, "invalid stay dates")
	}
	now := time.Now().UTC()
	if err := domainbooking.ValidateDateRange(dr, now); err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := listing.ValidateStay(dr.Nights(), cmd.Guests); err != nil {
		return nil, err
	}

	available, err := unit.Availability().IsRangeAvailable(ctx, listing.ID, dr)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fault.New(fault.KindConflict, "the requested dates are not available")
	}

	overrides, err := unit.Availability().OverridesInRange(ctx, listing.ID, dr)
	if err != nil {
		return nil, err
	}
	price, err := h.Pricing.Quote(listing, dr, overrides)
	if err != nil {
		return nil, err
	}

	bk, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(cmd.CommandID),
		ListingID:   listing.ID,
		GuestID:     cmd.GuestID,
		HostID:      string(listing.Host),
		Range:       dr,
		Guests:      cmd.Guests,
		Price:       price,
		Policy:      domainbooking.Policy(listing.CancellationPolicy),
		InstantBook: listing.InstantBook,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	result := &RequestBookingResult{
		BookingID:  string(bk.ID),
		Status:     string(bk.State),
		TotalCents: bk.Price.Total.Amount,
		Currency:   bk.Price.Total.Currency,
	}

	// Degraded mode: an unreachable gateway must not abort the reservation.
	if h.Payments != nil {
		intent, payErr := h.Payments.CreatePaymentIntent(ctx, bk.Price.Total, map[string]string{
			"booking_id": string(bk.ID),
			"listing_id": string(listing.ID),
		})
		if payErr != nil {
			result.PaymentDegraded = true
			if h.Logger != nil {
				h.Logger.Warn("payment intent creation failed, booking proceeds unpaid", "booking_id", bk.ID, "error", payErr)
			}
		} else {
			bk.AttachPaymentIntent(intent.ID, now)
			result.PaymentIntentID = intent.ID
			result.ClientSecret = intent.ClientSecret
		}
	}

	block, err := domainavailability.NewBlock(
		domainavailability.BlockID("blk-"+string(bk.ID)),
		listing.ID,
		dr,
		domainavailability.ReasonBooking,
		domainavailability.SourceInternal,
		string(bk.ID),
		now,
	)
	if err != nil {
		return nil, err
	}
	// The block insert re-verifies no overlap and is the reserve step; it runs
	// before the booking write so a losing request leaves nothing behind even
	// on stores where writes apply immediately.
	if err := unit.Availability().AddBlock(ctx, block); err != nil {
		return nil, err
	}
	if err := unit.Booking().Save(ctx, bk); err != nil {
		if rmErr := unit.Availability().RemoveBlocksBySource(ctx, listing.ID, domainavailability.SourceInternal, string(bk.ID)); rmErr != nil {
			return nil, errors.Join(err, rmErr)
		}
		return nil, err
	}

	pending := bk.PendingEvents()
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if h.Notifier != nil {
		hostID, bookingID := bk.HostID, string(bk.ID)
		unit.AfterCommit(func(c context.Context) {
			h.Notifier.SendBookingRequest(c, hostID, bookingID)
		})
	}

	if err := commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
var _ middleware.Validatable = (*RequestBookingCommand)(nil)
