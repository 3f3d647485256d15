package booking

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	"staybook/internal/domain/shared/fault"
)

const confirmBookingKey = "booking.confirm"

// ConfirmBookingCommand is dispatched after the payment provider reports a
// completed payment, typically from a webhook.
type ConfirmBookingCommand struct {
	BookingID string
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

type ConfirmBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type ConfirmBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Notifier   policies.NotifierPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (*ConfirmBookingResult, error) {
	unit, ctx, commit, cleanup, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bk, err := loadBooking(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if bk.PaymentIntent == "" {
		return nil, fault.New(fault.KindConflict, "booking has no payment intent to confirm")
	}

	now := time.Now().UTC()
	// Guarded transition first: confirming a canceled or declined booking must
	// fail before any gateway call and can never resurrect it.
	if err := bk.MarkPaid(now); err != nil {
		return nil, err
	}

	ok, err := h.Payments.ConfirmPayment(ctx, bk.PaymentIntent)
	if err != nil {
		return nil, fault.Wrap(fault.KindExternal, err, "payment confirmation failed")
	}
	if !ok {
		return nil, fault.New(fault.KindExternal, "payment provider rejected the confirmation")
	}

	// Time has passed since the reserve step: re-validate that no foreign
	// block took the nights (possible when this booking was canceled and the
	// range rebooked before an out-of-order webhook arrived).
	blocks, err := unit.Availability().BlocksInRange(ctx, bk.ListingID, bk.Range)
	if err != nil {
		return nil, err
	}
	for _, blk := range blocks {
		if blk.Source == domainavailability.SourceInternal && blk.SourceID == string(bk.ID) {
			continue
		}
		if _, refundErr := h.Payments.RefundPayment(ctx, bk.PaymentIntent, bk.Price.Total, "availability lost"); refundErr != nil && h.Logger != nil {
			h.Logger.Error("compensating refund failed", "booking_id", bk.ID, "error", refundErr)
		}
		return nil, fault.New(fault.KindConflict, "the booked dates are no longer available; payment is being refunded")
	}

	if err := unit.Booking().Save(ctx, bk); err != nil {
		return nil, err
	}

	pending := bk.PendingEvents()
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if h.Notifier != nil {
		guestID, hostID, bookingID := bk.GuestID, bk.HostID, string(bk.ID)
		unit.AfterCommit(func(c context.Context) {
			h.Notifier.SendBookingConfirmation(c, guestID, bookingID)
			h.Notifier.CreateNotification(c, policies.Notification{
				UserID: hostID,
				Type:   "booking_paid",
				Title:  "Payment received",
				Body:   "A booking payment was confirmed.",
				Data:   map[string]string{"booking_id": bookingID},
			})
		})
	}

	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &ConfirmBookingResult{BookingID: string(bk.ID), Status: string(bk.State)}, nil
}

func (h *ConfirmBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ConfirmBookingCommand, *ConfirmBookingResult] = (*ConfirmBookingHandler)(nil)
