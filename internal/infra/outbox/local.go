package outbox

import (
	"context"

	"rentdesk/internal/app/cache"
)

// CacheEvictor is the Producer used when no broker is configured: it applies the
// calendar invalidation a broker consumer would have performed.
type CacheEvictor struct {
	Cache cache.CalendarCache
}

func (e CacheEvictor) Publish(ctx context.Context, _ string, _ string, payload []byte, _ map[string]string) error {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	return cache.InvalidateForEvent(ctx, e.Cache, env.EventName(), env.Data)
}

// Fanout publishes to every producer in order and stops at the first failure.
type Fanout []Producer

func (f Fanout) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	for _, p := range f {
		if err := p.Publish(ctx, topic, key, payload, headers); err != nil {
			return err
		}
	}
	return nil
}
