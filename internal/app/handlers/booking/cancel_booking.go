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

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string
	ActorID   string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	RefundCents int64  `json:"refund_cents"`
	Currency    string `json:"currency"`
}

// CancelBookingHandler terminates a pending or confirmed booking on behalf of
// the guest or the host, applying the policy refund and freeing the nights.
type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Notifier   policies.NotifierPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
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
	if err := requireParty(bk, cmd.ActorID); err != nil {
		return nil, err
	}

	refund, err := bk.Cancel(cmd.Reason, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if bk.PaymentIntent != "" && refund.Amount > 0 && h.Payments != nil {
		if _, err := h.Payments.RefundPayment(ctx, bk.PaymentIntent, refund, cmd.Reason); err != nil {
			return nil, fault.Wrap(fault.KindExternal, err, "refund failed, cancellation aborted")
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
		counterparty := bk.HostID
		if cmd.ActorID == bk.HostID {
			counterparty = bk.GuestID
		}
		bookingID := string(bk.ID)
		unit.AfterCommit(func(c context.Context) {
			h.Notifier.CreateNotification(c, policies.Notification{
				UserID: counterparty,
				Type:   "booking_canceled",
				Title:  "Booking canceled",
				Body:   "The booking was canceled.",
				Data:   map[string]string{"booking_id": bookingID},
			})
		})
	}

	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &CancelBookingResult{
		BookingID:   string(bk.ID),
		Status:      string(bk.State),
		RefundCents: refund.Amount,
		Currency:    refund.Currency,
	}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
