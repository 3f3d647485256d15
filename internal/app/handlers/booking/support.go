package booking

import (
	"context"

	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/fault"
)

func beginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(context.Context) error, func(), error) {
	return handlersupport.BeginWriteUnit(ctx, factory)
}

func loadBooking(ctx context.Context, unit uow.UnitOfWork, id string) (*domainbooking.Booking, error) {
	b, err := unit.Booking().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return nil, err
		}
		return nil, fault.Wrap(fault.KindNotFound, err, "booking %s not found", id)
	}
	return b, nil
}

func requireHost(b *domainbooking.Booking, hostID string) error {
	if b.HostID != hostID {
		return fault.New(fault.KindForbidden, "only the host of this booking may perform this action")
	}
	return nil
}

func requireParty(b *domainbooking.Booking, actorID string) error {
	if b.GuestID != actorID && b.HostID != actorID {
		return fault.New(fault.KindForbidden, "only the guest or host of this booking may perform this action")
	}
	return nil
}
