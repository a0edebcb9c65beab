package rediscache

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/cache"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/domain/shared/daterange"
)

// fakeServer answers the handful of commands the cache issues from a hook, so the
// client never dials.
type fakeServer struct {
	strings map[string]string
	sets    map[string]map[string]struct{}
}

func newFakeClient(t *testing.T) (*redis.Client, *fakeServer) {
	t.Helper()
	srv := &fakeServer{strings: map[string]string{}, sets: map[string]map[string]struct{}{}}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(srv)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, srv
}

func (s *fakeServer) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("fake redis: dial %s refused", addr)
	}
}

func (s *fakeServer) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		s.apply(cmd)
		return cmd.Err()
	}
}

func (s *fakeServer) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			s.apply(cmd)
		}
		return nil
	}
}

func (s *fakeServer) apply(cmd redis.Cmder) {
	args := cmd.Args()
	switch cmd.Name() {
	case "get":
		v, ok := s.strings[str(args[1])]
		if !ok {
			cmd.SetErr(redis.Nil)
			return
		}
		cmd.(*redis.StringCmd).SetVal(v)
	case "set":
		s.strings[str(args[1])] = str(args[2])
		cmd.(*redis.StatusCmd).SetVal("OK")
	case "sadd":
		set, ok := s.sets[str(args[1])]
		if !ok {
			set = map[string]struct{}{}
			s.sets[str(args[1])] = set
		}
		for _, m := range args[2:] {
			set[str(m)] = struct{}{}
		}
		cmd.(*redis.IntCmd).SetVal(int64(len(args) - 2))
	case "srem":
		var n int64
		for _, m := range args[2:] {
			if _, ok := s.sets[str(args[1])][str(m)]; ok {
				n++
			}
			delete(s.sets[str(args[1])], str(m))
		}
		cmd.(*redis.IntCmd).SetVal(n)
	case "smembers":
		var members []string
		for m := range s.sets[str(args[1])] {
			members = append(members, m)
		}
		cmd.(*redis.StringSliceCmd).SetVal(members)
	case "del":
		var n int64
		for _, k := range args[1:] {
			if _, ok := s.strings[str(k)]; ok {
				n++
			}
			delete(s.strings, str(k))
			delete(s.sets, str(k))
		}
		cmd.(*redis.IntCmd).SetVal(n)
	case "expire":
		cmd.(*redis.BoolCmd).SetVal(true)
	case "ping":
		cmd.(*redis.StatusCmd).SetVal("PONG")
	}
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

func key(propertyID string, month time.Month) cache.CalendarKey {
	return cache.CalendarKey{
		PropertyID: propertyID,
		Month:      daterange.NewDay(2024, month, 1),
		Today:      daterange.NewDay(2024, time.March, 1),
	}
}

func TestCalendarCache_PutGetInvalidate(t *testing.T) {
	rdb, srv := newFakeClient(t)
	c := New(rdb, time.Minute, "rentdesk:")
	ctx := context.Background()

	_, ok, err := c.Get(ctx, key("p-1", time.April))
	require.NoError(t, err)
	assert.False(t, ok)

	april := dto.MonthCalendar{PropertyID: "p-1", Month: "2024-04"}
	require.NoError(t, c.Put(ctx, key("p-1", time.April), april))
	require.NoError(t, c.Put(ctx, key("p-1", time.May), dto.MonthCalendar{PropertyID: "p-1", Month: "2024-05"}))
	require.NoError(t, c.Put(ctx, key("p-2", time.April), dto.MonthCalendar{PropertyID: "p-2", Month: "2024-04"}))
	assert.Len(t, srv.sets["rentdesk:cal-idx:p-1"], 2)

	got, ok, err := c.Get(ctx, key("p-1", time.April))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-04", got.Month)

	require.NoError(t, c.InvalidateProperty(ctx, "p-1"))
	_, ok, _ = c.Get(ctx, key("p-1", time.April))
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, key("p-1", time.May))
	assert.False(t, ok, "every month of the property is evicted")
	_, ok, _ = c.Get(ctx, key("p-2", time.April))
	assert.True(t, ok, "other properties survive")
	assert.NotContains(t, srv.sets, "rentdesk:cal-idx:p-1")
}

func TestCalendarCache_MissPrunesIndex(t *testing.T) {
	rdb, srv := newFakeClient(t)
	c := New(rdb, time.Minute, "")
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, key("p-1", time.April), dto.MonthCalendar{Month: "2024-04"}))
	delete(srv.strings, key("p-1", time.April).String()) // expired server-side

	_, ok, err := c.Get(ctx, key("p-1", time.April))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, srv.sets["cal-idx:p-1"])
}

func TestCalendarCache_CorruptEntry(t *testing.T) {
	rdb, srv := newFakeClient(t)
	c := New(rdb, 0, "")
	srv.strings[key("p-1", time.April).String()] = "{not json"

	_, _, err := c.Get(context.Background(), key("p-1", time.April))
	assert.Error(t, err)
	assert.Equal(t, defaultTTL, c.ttl)
}

func TestCalendarCache_Ping(t *testing.T) {
	rdb, _ := newFakeClient(t)
	assert.NoError(t, New(rdb, time.Minute, "").Ping(context.Background()))
}
