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
)

const (
	checkInKey  = "booking.check_in"
	checkOutKey = "booking.check_out"
)

type CheckInCommand struct {
	BookingID string
	ActorID   string
}

func (c CheckInCommand) Key() string { return checkInKey }

type CheckOutCommand struct {
	BookingID string
	ActorID   string
}

func (c CheckOutCommand) Key() string { return checkOutKey }

type StayTransitionResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type CheckInHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CheckInHandler) Handle(ctx context.Context, cmd CheckInCommand) (*StayTransitionResult, error) {
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
	if err := bk.CheckIn(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Booking().Save(ctx, bk); err != nil {
		return nil, err
	}
	pending := bk.PendingEvents()
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}
	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &StayTransitionResult{BookingID: string(bk.ID), Status: string(bk.State)}, nil
}

// CheckOutHandler completes the stay and releases the host payout. The
// transfer is best-effort: a gateway failure leaves payout pending for a later
// reconciliation run instead of blocking checkout.
type CheckOutHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CheckOutHandler) Handle(ctx context.Context, cmd CheckOutCommand) (*StayTransitionResult, error) {
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
	now := time.Now().UTC()
	if err := bk.CheckOut(now); err != nil {
		return nil, err
	}
	// A checked-out booking no longer holds its availability block.
	if err := unit.Availability().RemoveBlocksBySource(ctx, bk.ListingID, domainavailability.SourceInternal, string(bk.ID)); err != nil {
		return nil, err
	}

	if h.Payments != nil {
		// Host receives the stay revenue; the service fee and taxes stay with
		// the platform.
		payout, err := bk.Price.Subtotal.Add(bk.Price.CleaningFee)
		if err == nil {
			if _, transferErr := h.Payments.CreateTransfer(ctx, bk.HostID, payout, string(bk.ID)); transferErr != nil {
				if h.Logger != nil {
					h.Logger.Warn("host payout transfer failed, left pending", "booking_id", bk.ID, "error", transferErr)
				}
			} else {
				bk.MarkPayoutReleased(now)
			}
		}
	}

	if err := unit.Booking().Save(ctx, bk); err != nil {
		return nil, err
	}
	pending := bk.PendingEvents()
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}
	if err := commit(ctx); err != nil {
		return nil, err
	}
	return &StayTransitionResult{BookingID: string(bk.ID), Status: string(bk.State)}, nil
}

var _ commands.Handler[CheckInCommand, *StayTransitionResult] = (*CheckInHandler)(nil)
var _ commands.Handler[CheckOutCommand, *StayTransitionResult] = (*CheckOutHandler)(nil)
