package memory

import (
	"context"
	"sync"
	"time"
)

// Inbox remembers event IDs for a retention window.
type Inbox struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

func NewInbox(retention time.Duration) *Inbox {
	return &Inbox{seen: map[string]time.Time{}, retention: retention, now: time.Now}
}

func (i *Inbox) Seen(_ context.Context, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.now()
	if i.retention > 0 {
		for id, at := range i.seen {
			if now.Sub(at) > i.retention {
				delete(i.seen, id)
			}
		}
	}
	if _, ok := i.seen[eventID]; ok {
		return true, nil
	}
	i.seen[eventID] = now
	return false, nil
}
