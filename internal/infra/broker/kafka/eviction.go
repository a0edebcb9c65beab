package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	"rentdesk/internal/app/cache"
	"rentdesk/internal/infra/outbox"
)

// Inbox records processed event IDs. Seen reports true for a redelivery.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// CalendarEviction drops cached month calendars for every reservation event on the topic.
type CalendarEviction struct {
	Cache  cache.CalendarCache
	Inbox  Inbox
	Logger *slog.Logger
}

func (h CalendarEviction) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	env, err := outbox.DecodeEnvelope(msg.Value)
	if err != nil {
		return errors.Join(ErrPermanent, err)
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, env.ID)
		if err != nil {
			return err
		}
		if seen {
			if h.Logger != nil {
				h.Logger.DebugContext(ctx, "duplicate event skipped", "event_id", env.ID)
			}
			return nil
		}
	}
	return cache.InvalidateForEvent(ctx, h.Cache, env.EventName(), env.Data)
}

var _ MessageHandler = CalendarEviction{}
