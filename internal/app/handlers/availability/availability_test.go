package availability_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/cache"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/availability"
	"rentdesk/internal/app/handlers/support"
	domainavailability "rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/infra/storage/memory"
)

type env struct {
	deps  availability.Deps
	repo  *memory.ReservationRepository
	cache *memory.CalendarCache
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	props := memory.NewPropertyRepository()
	p, err := properties.NewProperty(properties.CreateParams{ID: "p-1", Title: "Loft", Currency: "EUR", DailyRateCents: 5000, DailyEnabled: true})
	require.NoError(t, err)
	require.NoError(t, props.Save(ctx, p))

	repo := memory.NewReservationRepository()
	c := memory.NewCalendarCache(time.Hour)
	return env{
		repo:  repo,
		cache: c,
		deps: availability.Deps{
			UoWFactory: memory.NewFactory(props, repo),
			Engine:     domainavailability.NewEngine(domainavailability.DefaultConfig()),
			Clock: support.Clock{
				Now:      func() time.Time { return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC) },
				LeadDays: 1,
				Location: time.UTC,
			},
			Cache: c,
		},
	}
}

func (e env) book(t *testing.T, id string, start, end time.Time) {
	t.Helper()
	require.NoError(t, e.repo.Save(context.Background(), &reservations.Reservation{
		ID:         reservations.ReservationID(id),
		PropertyID: "p-1",
		Type:       properties.RentalDaily,
		Range:      daterange.DateRange{Start: start, End: end},
	}))
}

// created books [start, end) and delivers the resulting event to the cache, the way the
// outbox publisher does after commit.
func (e env) created(t *testing.T, id string, start, end time.Time) {
	t.Helper()
	e.book(t, id, start, end)
	payload, err := json.Marshal(reservations.ReservationCreated{
		ReservationID: reservations.ReservationID(id),
		PropertyID:    "p-1",
		Type:          properties.RentalDaily,
		Range:         daterange.DateRange{Start: start, End: end},
	})
	require.NoError(t, err)
	require.NoError(t, cache.InvalidateForEvent(context.Background(), e.cache, reservations.EventCreated, payload))
}

// uncached returns a handler over the same store that never memoizes.
func (e env) uncached() *availability.MonthHandler {
	deps := e.deps
	deps.Cache = nil
	return &availability.MonthHandler{Deps: deps}
}

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
}

func dayByDate(cal dto.MonthCalendar, date string) dto.CalendarDay {
	for _, d := range cal.Days {
		if d.Date == date {
			return d
		}
	}
	return dto.CalendarDay{}
}

func TestMonthHandler_CachesFutureMonths(t *testing.T) {
	e := newEnv(t)
	e.book(t, "r-1", at(time.April, 10, 0), at(time.April, 12, 0))
	h := &availability.MonthHandler{Deps: e.deps}
	q := availability.MonthQuery{PropertyID: "p-1", Month: daterange.NewDay(2024, time.April, 1)}

	cal, err := h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "2024-04", cal.Month)
	assert.Len(t, cal.Days, 30)
	assert.Equal(t, string(domainavailability.StatusBooked), dayByDate(cal, "2024-04-10").Status)
	assert.Equal(t, 1, e.cache.Len())

	// A change written behind the cache's back stays invisible until invalidation.
	e.book(t, "r-2", at(time.April, 20, 0), at(time.April, 22, 0))
	cal, err = h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, string(domainavailability.StatusAvailable), dayByDate(cal, "2024-04-20").Status)

	require.NoError(t, e.cache.InvalidateProperty(context.Background(), "p-1"))
	cal, err = h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, string(domainavailability.StatusBooked), dayByDate(cal, "2024-04-20").Status)
}

func TestMonthHandler_EndSelectionSeesEarlierMonthBooking(t *testing.T) {
	e := newEnv(t)
	h := &availability.MonthHandler{Deps: e.deps}
	q := availability.MonthQuery{
		PropertyID: "p-1",
		Month:      daterange.NewDay(2024, time.May, 1),
		Type:       properties.RentalDaily,
		Start:      daterange.NewDay(2024, time.April, 20),
	}

	cal, err := h.Handle(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, string(domainavailability.StatusAvailable), dayByDate(cal, "2024-05-05").Status)

	e.created(t, "r-1", at(time.April, 25, 0), at(time.April, 27, 0))

	cal, err = h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, string(domainavailability.StatusInterrupted), dayByDate(cal, "2024-05-05").Status)

	fresh, err := e.uncached().Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, fresh, cal)
}

func TestMonthHandler_EarliestStartSeesNextMonthBooking(t *testing.T) {
	e := newEnv(t)
	e.deps.Engine = domainavailability.NewEngine(domainavailability.Config{
		MinStay:           48 * time.Hour,
		BoundaryTolerance: time.Minute,
		Location:          time.UTC,
	})
	h := &availability.MonthHandler{Deps: e.deps}
	q := availability.MonthQuery{PropertyID: "p-1", Month: daterange.NewDay(2024, time.April, 1)}

	cal, err := h.Handle(context.Background(), q)
	require.NoError(t, err)
	require.NotNil(t, dayByDate(cal, "2024-04-30").EarliestStart)

	e.created(t, "r-1", at(time.May, 1, 0), at(time.May, 3, 0))

	cal, err = h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, dayByDate(cal, "2024-04-30").EarliestStart, "a 48h stay from Apr 30 runs into May 1")

	fresh, err := e.uncached().Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, fresh, cal)
}

// Whatever was cached before, a calendar served after a reservation event equals one
// computed from the store.
func TestMonthHandler_CachedEqualsUncachedAfterEvents(t *testing.T) {
	months := []daterange.Day{
		daterange.NewDay(2024, time.April, 1),
		daterange.NewDay(2024, time.May, 1),
		daterange.NewDay(2024, time.June, 1),
	}
	selections := []availability.MonthQuery{
		{},
		{Type: properties.RentalDaily, Start: daterange.NewDay(2024, time.April, 10)},
		{Type: properties.RentalDaily, Start: daterange.NewDay(2024, time.May, 28)},
		{Type: properties.RentalMonthly, Start: daterange.NewDay(2024, time.April, 15)},
	}
	bookings := [][2]time.Time{
		{at(time.April, 29, 14), at(time.May, 2, 11)},
		{at(time.May, 31, 0), at(time.June, 1, 0)},
		{at(time.April, 12, 0), at(time.April, 13, 0)},
		{at(time.June, 1, 0), at(time.June, 4, 0)},
	}
	minStays := []time.Duration{24 * time.Hour, 72 * time.Hour}

	for _, minStay := range minStays {
		e := newEnv(t)
		e.deps.Engine = domainavailability.NewEngine(domainavailability.Config{MinStay: minStay, BoundaryTolerance: time.Minute, Location: time.UTC})
		h := &availability.MonthHandler{Deps: e.deps}
		fresh := e.uncached()

		for i, b := range bookings {
			for _, m := range months {
				for _, sel := range selections {
					sel.PropertyID = "p-1"
					sel.Month = m
					_, err := h.Handle(context.Background(), sel)
					require.NoError(t, err)
				}
			}

			e.created(t, "r-"+string(rune('a'+i)), b[0], b[1])

			for _, m := range months {
				for _, sel := range selections {
					sel.PropertyID = "p-1"
					sel.Month = m
					got, err := h.Handle(context.Background(), sel)
					require.NoError(t, err)
					want, err := fresh.Handle(context.Background(), sel)
					require.NoError(t, err)
					assert.Equal(t, want, got, "min stay %s, booking %d, month %s, selection %+v", minStay, i, m, sel)
				}
			}
		}
	}
}

func TestMonthHandler_CurrentMonthIsNotCached(t *testing.T) {
	e := newEnv(t)
	h := &availability.MonthHandler{Deps: e.deps}

	cal, err := h.Handle(context.Background(), availability.MonthQuery{PropertyID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03", cal.Month)
	assert.Zero(t, e.cache.Len())

	first := dayByDate(cal, "2024-03-01")
	assert.Equal(t, string(domainavailability.StatusBeforeMinDate), first.Status)
	assert.False(t, first.Selectable)
	assert.True(t, dayByDate(cal, "2024-03-02").Selectable)
}

func TestMonthHandler_UnknownProperty(t *testing.T) {
	e := newEnv(t)
	h := &availability.MonthHandler{Deps: e.deps}
	_, err := h.Handle(context.Background(), availability.MonthQuery{PropertyID: "nope", Month: daterange.NewDay(2024, time.May, 1)})
	assert.ErrorIs(t, err, properties.ErrPropertyNotFound)
}

func TestDayHandler_PartialDay(t *testing.T) {
	e := newEnv(t)
	e.book(t, "r-1", at(time.March, 9, 12), at(time.March, 10, 0))
	h := &availability.DayHandler{Deps: e.deps}

	detail, err := h.Handle(context.Background(), availability.DayQuery{PropertyID: "p-1", Day: daterange.NewDay(2024, time.March, 9)})
	require.NoError(t, err)
	require.Len(t, detail.Booked, 1)
	assert.Equal(t, at(time.March, 9, 12), detail.Booked[0].Start)
	require.Len(t, detail.Free, 1)
	assert.Equal(t, at(time.March, 9, 0), detail.Free[0].Start)
	assert.Equal(t, at(time.March, 9, 12), detail.Free[0].End)
	assert.Equal(t, string(domainavailability.StatusBooked), detail.Status, "any coverage marks the day booked")
}

func TestFeasibilityHandler(t *testing.T) {
	e := newEnv(t)
	e.book(t, "r-1", at(time.March, 10, 6), at(time.March, 12, 0))
	h := &availability.FeasibilityHandler{Deps: e.deps}

	res, err := h.Handle(context.Background(), availability.FeasibilityQuery{PropertyID: "p-1", At: at(time.March, 9, 0)})
	require.NoError(t, err)
	assert.True(t, res.Feasible)

	res, err = h.Handle(context.Background(), availability.FeasibilityQuery{PropertyID: "p-1", At: at(time.March, 9, 12)})
	require.NoError(t, err)
	assert.False(t, res.Feasible)
	require.NotNil(t, res.BlockedAt)
	assert.Equal(t, at(time.March, 10, 6), *res.BlockedAt)

	res, err = h.Handle(context.Background(), availability.FeasibilityQuery{PropertyID: "p-1", At: at(time.March, 9, 12), ExcludedReservationID: "r-1"})
	require.NoError(t, err)
	assert.True(t, res.Feasible)
}

func TestCheckHandler_EndSelection(t *testing.T) {
	e := newEnv(t)
	e.book(t, "r-1", at(time.March, 12, 0), at(time.March, 14, 0))
	h := &availability.CheckHandler{Deps: e.deps}
	q := availability.CheckQuery{
		PropertyID: "p-1",
		Type:       properties.RentalDaily,
		Start:      daterange.NewDay(2024, time.March, 10),
	}

	q.Day = daterange.NewDay(2024, time.March, 12)
	res, err := h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, res.Available, "checkout may meet the next check-in")

	q.Day = daterange.NewDay(2024, time.March, 15)
	res, err = h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, string(domainavailability.StatusInterrupted), res.Status)
	assert.False(t, res.Available)

	q.Day = daterange.NewDay(2024, time.March, 10)
	res, err = h.Handle(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, string(domainavailability.StatusInvalidEnd), res.Status)
}
