package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/cache"
	"rentdesk/internal/infra/outbox"
)

type evictions struct {
	cache.Nop
	calls      int
	properties []string
}

func (e *evictions) InvalidateProperty(_ context.Context, propertyID string) error {
	e.calls++
	e.properties = append(e.properties, propertyID)
	return nil
}

type setInbox map[string]bool

func (s setInbox) Seen(_ context.Context, id string) (bool, error) {
	if s[id] {
		return true, nil
	}
	s[id] = true
	return false, nil
}

func envelope(t *testing.T, id, typ, data string) []byte {
	t.Helper()
	raw, err := json.Marshal(outbox.Envelope{
		SpecVersion: "1.0",
		ID:          id,
		Type:        typ,
		Source:      "app://rentdesk",
		Time:        time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
		Data:        json.RawMessage(data),
	})
	require.NoError(t, err)
	return raw
}

const cancelled = `{"property_id":"p-1","range":{"start":"2024-06-10T14:00:00Z","end":"2024-06-12T11:00:00Z"}}`

func TestCalendarEviction_InvalidatesOncePerEvent(t *testing.T) {
	cal := &evictions{}
	h := CalendarEviction{Cache: cal, Inbox: setInbox{}}
	msg := &sarama.ConsumerMessage{Topic: "reservation.events.v1", Value: envelope(t, "e-1", "reservation.cancelled.v1", cancelled)}

	require.NoError(t, h.Handle(context.Background(), msg))
	require.NoError(t, h.Handle(context.Background(), msg))

	assert.Equal(t, 1, cal.calls, "redelivery is deduplicated")
	assert.Equal(t, []string{"p-1"}, cal.properties)
}

func TestCalendarEviction_IgnoresForeignEvents(t *testing.T) {
	cal := &evictions{}
	h := CalendarEviction{Cache: cal}
	msg := &sarama.ConsumerMessage{Value: envelope(t, "e-2", "property.renamed.v1", `{}`)}

	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Zero(t, cal.calls)
}

func TestCalendarEviction_RejectsMalformedMessage(t *testing.T) {
	h := CalendarEviction{Cache: &evictions{}}
	err := h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("garbage")})
	assert.ErrorIs(t, err, outbox.ErrMalformedEnvelope)
	assert.ErrorIs(t, err, ErrPermanent)
}

type flaky struct {
	calls    int
	failures int
	err      error
}

func (f *flaky) Handle(context.Context, *sarama.ConsumerMessage) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func TestConsumerGroupHandler_RetriesTransientFailures(t *testing.T) {
	handler := &flaky{failures: 2, err: errors.New("redis timeout")}
	gh := consumerGroupHandler{handler: handler, attempts: 3, backoff: time.Millisecond}

	require.NoError(t, gh.handle(context.Background(), &sarama.ConsumerMessage{}))
	assert.Equal(t, 3, handler.calls)
}

func TestConsumerGroupHandler_GivesUp(t *testing.T) {
	transient := &flaky{failures: 10, err: errors.New("redis timeout")}
	gh := consumerGroupHandler{handler: transient, attempts: 2, backoff: time.Millisecond}
	assert.Error(t, gh.handle(context.Background(), &sarama.ConsumerMessage{}))
	assert.Equal(t, 2, transient.calls)

	permanent := &flaky{failures: 10, err: errors.Join(ErrPermanent, errors.New("bad body"))}
	gh.handler = permanent
	assert.ErrorIs(t, gh.handle(context.Background(), &sarama.ConsumerMessage{}), ErrPermanent)
	assert.Equal(t, 1, permanent.calls, "permanent failures are not retried")
}

func TestProducer_PublishSendsKeyedMessage(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"ok":true}` {
			return errors.New("unexpected payload")
		}
		return nil
	})
	p := newProducerWith(mock)

	err := p.Publish(context.Background(), "reservation.events.v1", "p-1", []byte(`{"ok":true}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducer_PublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := newProducerWith(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}
