package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/commands"
	appoutbox "rentdesk/internal/app/outbox"
	"rentdesk/internal/app/uow"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
)

type bookCmd struct {
	Property string `validate:"required"`
	key      string
	fail     bool
}

func (bookCmd) Key() string              { return "test.book" }
func (c bookCmd) IdempotencyKey() string { return c.key }
func (bookCmd) ResultPrototype() any     { return new(string) }

type fakeUnit struct {
	committed, rolledBack bool
}

func (u *fakeUnit) Properties() properties.Repository     { return nil }
func (u *fakeUnit) Reservations() reservations.Repository { return nil }
func (u *fakeUnit) Commit(context.Context) error          { u.committed = true; return nil }
func (u *fakeUnit) Rollback(context.Context) error        { u.rolledBack = true; return nil }

type fakeFactory struct{ units []*fakeUnit }

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

type fakeOutbox struct {
	queued, flushed int
	discarded       bool
}

func (o *fakeOutbox) Add(context.Context, appoutbox.EventRecord) error { o.queued++; return nil }
func (o *fakeOutbox) Flush(context.Context) error                      { o.flushed += o.queued; o.queued = 0; return nil }
func (o *fakeOutbox) Discard(context.Context)                          { o.queued = 0; o.discarded = true }

type memStore map[string]IdempotencyRecord

func (s memStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s[key]
	return rec, ok, nil
}

func (s memStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s[rec.Key] = rec
	return nil
}

type stack struct {
	bus     commands.Bus
	calls   int
	factory *fakeFactory
	box     *fakeOutbox
}

func newStack() *stack {
	s := &stack{factory: &fakeFactory{}, box: &fakeOutbox{}}
	base := commands.NewInMemoryBus()
	base.RegisterRaw("test.book", func(ctx context.Context, raw commands.Command) (any, error) {
		s.calls++
		if _, inTx := uow.FromContext(ctx); !inTx {
			return nil, errors.New("no unit in context")
		}
		_ = s.box.Add(ctx, appoutbox.EventRecord{Name: "reservation.created"})
		if raw.(bookCmd).fail {
			return nil, errors.New("rejected")
		}
		id := fmt.Sprintf("r-%d", s.calls)
		return &id, nil
	})
	s.bus = ChainCommands(base,
		Validation(NewStructValidator()),
		Idempotency(memStore{}, nil, func() time.Time { return time.Unix(0, 0) }),
		Transaction(s.factory, nil),
		OutboxFlush(s.box),
	)
	return s
}

func dispatch(s *stack, cmd bookCmd) (*string, error) {
	return commands.Dispatch[bookCmd, *string](context.Background(), s.bus, cmd)
}

func TestPipeline_CommitsAndFlushes(t *testing.T) {
	s := newStack()
	res, err := dispatch(s, bookCmd{Property: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, "r-1", *res)
	require.Len(t, s.factory.units, 1)
	assert.True(t, s.factory.units[0].committed)
	assert.False(t, s.factory.units[0].rolledBack)
	assert.Equal(t, 1, s.box.flushed)
}

func TestPipeline_FailureRollsBackAndDiscards(t *testing.T) {
	s := newStack()
	_, err := dispatch(s, bookCmd{Property: "p-1", fail: true})
	require.Error(t, err)
	require.Len(t, s.factory.units, 1)
	assert.True(t, s.factory.units[0].rolledBack)
	assert.False(t, s.factory.units[0].committed)
	assert.True(t, s.box.discarded)
	assert.Zero(t, s.box.flushed)
}

func TestPipeline_ValidationStopsBeforeTransaction(t *testing.T) {
	s := newStack()
	_, err := dispatch(s, bookCmd{})
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.Empty(t, s.factory.units)
}

func TestPipeline_IdempotentReplay(t *testing.T) {
	s := newStack()
	first, err := dispatch(s, bookCmd{Property: "p-1", key: "k-1"})
	require.NoError(t, err)
	second, err := dispatch(s, bookCmd{Property: "p-1", key: "k-1"})
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, s.calls, "replay does not reach the handler")
	assert.Len(t, s.factory.units, 1)

	third, err := dispatch(s, bookCmd{Property: "p-1", key: "k-2"})
	require.NoError(t, err)
	assert.Equal(t, "r-2", *third)
}

func TestPipeline_KeyReusedForDifferentRequest(t *testing.T) {
	s := newStack()
	_, err := dispatch(s, bookCmd{Property: "p-1", key: "k-1"})
	require.NoError(t, err)

	_, err = dispatch(s, bookCmd{Property: "p-2", key: "k-1"})
	assert.ErrorIs(t, err, ErrIdempotencyKeyReuse)
	assert.Equal(t, 1, s.calls)
}

func TestPipeline_FailedCommandIsNotRemembered(t *testing.T) {
	s := newStack()
	_, err := dispatch(s, bookCmd{Property: "p-1", key: "k-1", fail: true})
	require.Error(t, err)

	res, err := dispatch(s, bookCmd{Property: "p-1", key: "k-1"})
	require.NoError(t, err)
	assert.Equal(t, "r-2", *res)
}

func TestDispatch_ResultTypeMismatch(t *testing.T) {
	s := newStack()
	_, err := commands.Dispatch[bookCmd, string](context.Background(), s.bus, bookCmd{Property: "p-1"})
	assert.ErrorIs(t, err, commands.ErrResultType)
}
