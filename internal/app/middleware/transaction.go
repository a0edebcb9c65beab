package middleware

import (
	"context"
	"errors"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/uow"
)

// TxOptionsFunc picks transaction options per command.
type TxOptionsFunc func(cmd commands.Command) uow.TxOptions

// Transaction opens a unit of work around every command and installs it in the context,
// where handlers borrow it through support.BeginUnit. The unit commits only if the
// command succeeds.
func Transaction(factory uow.UoWFactory, optsFor TxOptionsFunc) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var opts uow.TxOptions
			if optsFor != nil {
				opts = optsFor(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			txCtx := uow.Inject(ctx, unit)

			res, err := next.Dispatch(txCtx, cmd)
			if err != nil {
				if rbErr := unit.Rollback(txCtx); rbErr != nil {
					err = errors.Join(err, rbErr)
				}
				return nil, err
			}
			if err := unit.Commit(txCtx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
