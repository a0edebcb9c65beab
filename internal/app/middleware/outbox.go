package middleware

import (
	"context"
	"errors"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/outbox"
)

// discarder is implemented by outboxes that buffer records in process.
type discarder interface {
	Discard(ctx context.Context)
}

// OutboxFlush hands the records a successful command added to box on to delivery. A
// failed command's records are dropped when box can discard them.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if d, ok := box.(discarder); ok {
					d.Discard(ctx)
				}
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, errors.Join(ErrOutboxFlush, err)
			}
			return res, nil
		})
	}
}

var ErrOutboxFlush = errors.New("middleware: outbox flush failed")
