package memory

import (
	"context"
	"sync"
	"time"

	"rentdesk/internal/app/cache"
	"rentdesk/internal/app/dto"
)

type cachedCalendar struct {
	cal     dto.MonthCalendar
	expires time.Time
}

// CalendarCache is a process-local cache.CalendarCache.
type CalendarCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedCalendar
	index   map[string]map[string]struct{}
}

func NewCalendarCache(ttl time.Duration) *CalendarCache {
	return &CalendarCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedCalendar),
		index:   make(map[string]map[string]struct{}),
	}
}

func (c *CalendarCache) Get(ctx context.Context, key cache.CalendarKey) (dto.MonthCalendar, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key.String()
	entry, ok := c.entries[k]
	if !ok {
		return dto.MonthCalendar{}, false, nil
	}
	if c.ttl > 0 && c.now().After(entry.expires) {
		c.drop(cache.IndexKey(key.PropertyID), k)
		return dto.MonthCalendar{}, false, nil
	}
	return entry.cal, true, nil
}

func (c *CalendarCache) Put(ctx context.Context, key cache.CalendarKey, cal dto.MonthCalendar) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key.String()
	c.entries[k] = cachedCalendar{cal: cal, expires: c.now().Add(c.ttl)}
	idx := cache.IndexKey(key.PropertyID)
	if c.index[idx] == nil {
		c.index[idx] = make(map[string]struct{})
	}
	c.index[idx][k] = struct{}{}
	return nil
}

func (c *CalendarCache) InvalidateProperty(ctx context.Context, propertyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := cache.IndexKey(propertyID)
	for k := range c.index[idx] {
		delete(c.entries, k)
	}
	delete(c.index, idx)
	return nil
}

// drop removes one entry and its index membership. Callers hold mu.
func (c *CalendarCache) drop(idx, k string) {
	delete(c.entries, k)
	if set, ok := c.index[idx]; ok {
		delete(set, k)
		if len(set) == 0 {
			delete(c.index, idx)
		}
	}
}

// Len reports the number of stored calendars, expired ones included.
func (c *CalendarCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// indexed counts the keys tracked for propertyID.
func (c *CalendarCache) indexed(propertyID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index[cache.IndexKey(propertyID)])
}

var _ cache.CalendarCache = (*CalendarCache)(nil)
