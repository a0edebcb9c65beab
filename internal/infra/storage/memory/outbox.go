package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	appoutbox "rentdesk/internal/app/outbox"
)

// Subscriber receives committed records on Flush.
type Subscriber func(ctx context.Context, rec appoutbox.EventRecord) error

// Outbox keeps records in memory until Flush delivers them to subscribers.
type Outbox struct {
	mu          sync.Mutex
	queue       []appoutbox.EventRecord
	subscribers []Subscriber
	logger      *slog.Logger
}

func NewOutbox(logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{logger: logger}
}

func (o *Outbox) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribers = append(o.subscribers, sub)
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = append(o.queue, record)
	return nil
}

// Flush delivers every queued record to every subscriber. Subscriber failures are
// logged and returned joined; records are not redelivered.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.queue
	o.queue = nil
	subs := append([]Subscriber(nil), o.subscribers...)
	o.mu.Unlock()

	var errs []error
	for _, rec := range records {
		for _, sub := range subs {
			if err := sub(ctx, rec); err != nil {
				o.logger.WarnContext(ctx, "outbox subscriber failed", "event_id", rec.ID, "event", rec.Name, "error", err)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Discard drops queued records. Write units are serialized, so the queue only ever
// holds the records of the command that failed.
func (o *Outbox) Discard(context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = nil
}

// Pending reports how many committed records wait for Flush.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
