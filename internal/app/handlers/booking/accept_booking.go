package booking

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
)

const acceptBookingKey = "booking.accept"

type AcceptBookingCommand struct {
	BookingID string
	HostID    string
}

func (c AcceptBookingCommand) Key() string { return acceptBookingKey }

type AcceptBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type AcceptBookingHandler struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.NotifierPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *AcceptBookingHandler) Handle(ctx context.Context, cmd AcceptBookingCommand) (*AcceptBookingResult, error) {
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
	if err := bk.Accept(time.Now().UTC()); err != nil {
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
			h.Notifier.SendBookingConfirmation(c, guestID, bookingID)
		})
	}

	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &AcceptBookingResult{BookingID: string(bk.ID), Status: string(bk.State)}, nil
}

func (h *AcceptBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[AcceptBookingCommand, *AcceptBookingResult] = (*AcceptBookingHandler)(nil)
