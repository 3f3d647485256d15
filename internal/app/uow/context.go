package uow

import (
	"context"
	"errors"
)

// ErrUnitOfWorkMissing signals that a handler expected a transaction boundary
// that no middleware or caller established.
var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type unitKey struct{}

// ContextWithUnitOfWork binds the active unit to the context so that nested
// handlers join the same transaction instead of opening their own.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// FromContext returns the unit bound by ContextWithUnitOfWork, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok
}
