package support

import (
	"context"

	"staybook/internal/app/uow"
)

// BeginReadOnlyUnit reuses a unit of work from context or opens a read-only
// one. The cleanup func rolls back the unit it opened; nil when reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := injectUnit(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// BeginWriteUnit reuses a unit of work from context or opens a managed
// writable one. The commit func is a no-op for reused units; cleanup rolls a
// managed unit back unless commit ran first.
func BeginWriteUnit(ctx context.Context, factory uow.UoWFactory) (unit uow.UnitOfWork, execCtx context.Context, commit func(context.Context) error, cleanup func(), err error) {
	if existing, ok := uow.FromContext(ctx); ok {
		noop := func(context.Context) error { return nil }
		return existing, ctx, noop, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err = factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, nil, err
	}
	execCtx = injectUnit(ctx, unit)
	committed := false
	commit = func(c context.Context) error {
		if err := unit.Commit(c); err != nil {
			return err
		}
		committed = true
		return nil
	}
	cleanup = func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}
	return unit, execCtx, commit, cleanup, nil
}

func injectUnit(ctx context.Context, unit uow.UnitOfWork) context.Context {
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return uow.ContextWithUnitOfWork(execCtx, unit)
}
