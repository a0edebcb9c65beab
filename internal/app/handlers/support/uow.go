package support

import (
	"context"

	"rentdesk/internal/app/uow"
)

// Unit is the unit of work a handler runs in. It is either borrowed from the context
// (the transaction middleware owns it) or started by the handler itself.
type Unit struct {
	uow.UnitOfWork
	Ctx   context.Context
	owned bool
	done  bool
}

// BeginUnit borrows the context's unit of work or starts a new one from factory.
func BeginUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (*Unit, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &Unit{UnitOfWork: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Unit{UnitOfWork: unit, Ctx: uow.Inject(ctx, unit), owned: true}, nil
}

func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (*Unit, error) {
	return BeginUnit(ctx, factory, uow.TxOptions{ReadOnly: true})
}

// Commit commits a unit the handler started; borrowed units are committed by their owner.
func (u *Unit) Commit() error {
	if !u.owned || u.done {
		return nil
	}
	if err := u.UnitOfWork.Commit(u.Ctx); err != nil {
		return err
	}
	u.done = true
	return nil
}

// Close rolls back an owned unit that was not committed. Safe to defer.
func (u *Unit) Close() {
	if u.owned && !u.done {
		_ = u.UnitOfWork.Rollback(u.Ctx)
		u.done = true
	}
}
