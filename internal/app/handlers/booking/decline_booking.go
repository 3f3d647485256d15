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

const declineBookingKey = "booking.decline"

type DeclineBookingCommand struct {
	BookingID string
	HostID    string
	Reason    string
}

func (c DeclineBookingCommand) Key() string { return declineBookingKey }

type DeclineBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// DeclineBookingHandler rejects a pending request, refunding any captured
// payment in full and releasing the held nights.
type DeclineBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Notifier   policies.NotifierPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *DeclineBookingHandler) Handle(ctx context.Context, cmd DeclineBookingCommand) (*DeclineBookingResult, error) {
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
	if err := requireHost(bk, cmd.HostID); err != nil {
		return nil, err
	}
	if err := bk.Decline(cmd.Reason, time.Now().UTC()); err != nil {
		return nil, err
	}

	if bk.PaymentIntent != "" && h.Payments != nil {
		if _, err := h.Payments.RefundPayment(ctx, bk.PaymentIntent, bk.Price.Total, "host declined"); err != nil {
			return nil, fault.Wrap(fault.KindExternal, err, "refund failed, booking left pending")
		}
	}

	if err := unit.Availability().RemoveBlocksBySource(ctx, bk.ListingID, domainavailability.SourceInternal, string(bk.ID)); err != nil {
		return nil, err
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
		guestID, bookingID := bk.GuestID, string(bk.ID)
		unit.AfterCommit(func(c context.Context) {
			h.Notifier.CreateNotification(c, policies.Notification{
				UserID: guestID,
				Type:   "booking_declined",
				Title:  "Booking declined",
				Body:   "The host declined your booking request.",
				Data:   map[string]string{"booking_id": bookingID},
			})
		})
	}

	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &DeclineBookingResult{BookingID: string(bk.ID), Status: string(bk.State)}, nil
}

func (h *DeclineBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[DeclineBookingCommand, *DeclineBookingResult] = (*DeclineBookingHandler)(nil)
