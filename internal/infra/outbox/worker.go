package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appoutbox "rentdesk/internal/app/outbox"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// ClaimStore is the part of Store the worker drives.
type ClaimStore interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Worker struct {
	Store       ClaimStore
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	// BatchSize caps how many records one tick drains.
	BatchSize int
	Now       func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger().WarnContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes claimable records until none are left or the batch is full.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	processed := 0
	for processed < w.batchSize() {
		ok, err := w.processOnce(ctx)
		if err != nil || !ok {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.ID)
	if err != nil || doc == nil {
		return false, err
	}
	rec := appoutbox.EventRecord{
		ID:         doc.ID,
		Name:       doc.Name,
		Payload:    doc.Payload,
		OccurredAt: doc.OccurredAt,
		Aggregate:  doc.Aggregate,
		Headers:    doc.Headers,
	}
	if err := w.PublishRecord(ctx, rec); err != nil {
		next := w.nextRetry(doc.Attempts)
		w.logger().WarnContext(ctx, "outbox publish failed",
			"event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "retry_at", next, "error", err)
		return true, w.Store.MarkFailed(ctx, doc.ID, next, err.Error())
	}
	return true, w.Store.MarkSent(ctx, doc.ID)
}

// PublishRecord wraps rec in an envelope and hands it to the producer. In memory mode
// it runs as an outbox subscriber.
func (w *Worker) PublishRecord(ctx context.Context, rec appoutbox.EventRecord) error {
	payload, headers, err := w.formatPayload(rec)
	if err != nil {
		return err
	}
	return w.Producer.Publish(ctx, w.topicFor(rec.Name), rec.Aggregate, payload, headers)
}

func (w *Worker) formatPayload(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	if !json.Valid(rec.Payload) {
		return nil, nil, errors.New("outbox: payload is not JSON")
	}
	env := Envelope{
		SpecVersion:     cloudEventsVersion,
		ID:              rec.ID,
		Type:            rec.Name + eventTypeSuffix,
		Source:          w.source(),
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt,
		DataContentType: "application/json",
		TraceParent:     rec.Headers["traceparent"],
		Data:            rec.Payload,
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	headers["content-type"] = cloudEventsContentType
	headers["ce_id"] = env.ID
	return payload, headers, nil
}

// topicFor maps "reservation.created" to "<prefix>reservation.events.v1".
func (w *Worker) topicFor(name string) string {
	return TopicFor(w.TopicPrefix, name)
}

func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events" + eventTypeSuffix
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 100
	}
	return w.BatchSize
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return w.now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return w.now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://rentdesk"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
