package availability

import (
	"context"

	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/uow"
)

func beginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(context.Context) error, func(), error) {
	return handlersupport.BeginWriteUnit(ctx, factory)
}
