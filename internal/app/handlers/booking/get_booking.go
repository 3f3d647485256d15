package booking

import (
	"context"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	"staybook/internal/domain/shared/fault"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string
	ActorID   string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bk, err := loadBooking(execCtx, unit, q.BookingID)
	if err != nil {
		return dto.BookingView{}, err
	}
	if bk.GuestID != q.ActorID && bk.HostID != q.ActorID {
		return dto.BookingView{}, fault.New(fault.KindForbidden, "only the guest or host may view this booking")
	}
	return dto.MapBooking(bk), nil
}

var _ queries.Handler[GetBookingQuery, dto.BookingView] = (*GetBookingHandler)(nil)
