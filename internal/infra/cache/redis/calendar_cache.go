// Package rediscache shares memoized month calendars between instances through Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rentdesk/internal/app/cache"
	"rentdesk/internal/app/dto"
)

const defaultTTL = 10 * time.Minute

// CalendarCache stores each calendar under its key string and tracks the keys of a
// property in a set, so invalidation never scans the keyspace.
type CalendarCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func New(rdb redis.Cmdable, ttl time.Duration, prefix string) *CalendarCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CalendarCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *CalendarCache) Get(ctx context.Context, key cache.CalendarKey) (dto.MonthCalendar, bool, error) {
	entry := c.prefix + key.String()
	raw, err := c.rdb.Get(ctx, entry).Bytes()
	if errors.Is(err, redis.Nil) {
		// an expired entry may still be listed in the index
		if err := c.rdb.SRem(ctx, c.prefix+cache.IndexKey(key.PropertyID), entry).Err(); err != nil {
			return dto.MonthCalendar{}, false, err
		}
		return dto.MonthCalendar{}, false, nil
	}
	if err != nil {
		return dto.MonthCalendar{}, false, err
	}
	cal, err := decode(raw)
	if err != nil {
		return dto.MonthCalendar{}, false, err
	}
	return cal, true, nil
}

func (c *CalendarCache) Put(ctx context.Context, key cache.CalendarKey, cal dto.MonthCalendar) error {
	raw, err := json.Marshal(cal)
	if err != nil {
		return fmt.Errorf("rediscache: encode calendar: %w", err)
	}
	entry := c.prefix + key.String()
	index := c.prefix + cache.IndexKey(key.PropertyID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entry, raw, c.ttl)
		pipe.SAdd(ctx, index, entry)
		// the index outlives its entries by one TTL at most
		pipe.Expire(ctx, index, 2*c.ttl)
		return nil
	})
	return err
}

func (c *CalendarCache) InvalidateProperty(ctx context.Context, propertyID string) error {
	index := c.prefix + cache.IndexKey(propertyID)
	keys, err := c.rdb.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}
	return c.rdb.Del(ctx, append(keys, index)...).Err()
}

// Ping backs the readiness probe.
func (c *CalendarCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func decode(raw []byte) (dto.MonthCalendar, error) {
	var cal dto.MonthCalendar
	if err := json.Unmarshal(raw, &cal); err != nil {
		return dto.MonthCalendar{}, fmt.Errorf("rediscache: decode calendar: %w", err)
	}
	return cal, nil
}

var _ cache.CalendarCache = (*CalendarCache)(nil)
