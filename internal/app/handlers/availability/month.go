package availability

import (
	"context"
	"log/slog"

	"rentdesk/internal/app/cache"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	domainavailability "rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const MonthKey = "availability.month"

// MonthQuery asks for the calendar of one month as seen by an in-progress selection.
type MonthQuery struct {
	PropertyID            string `validate:"required"`
	Month                 daterange.Day
	Type                  properties.RentalType
	Start                 daterange.Day
	End                   daterange.Day
	ExcludedReservationID string
}

func (q MonthQuery) Key() string { return MonthKey }

func (q MonthQuery) selection() domainavailability.Selection {
	return domainavailability.Selection{
		Type:                  q.Type,
		Start:                 q.Start,
		End:                   q.End,
		ExcludedReservationID: reservations.ReservationID(q.ExcludedReservationID),
	}
}

// Deps are shared by the availability query handlers.
type Deps struct {
	UoWFactory uow.UoWFactory
	Engine     *domainavailability.Engine
	Clock      support.Clock
	Cache      cache.CalendarCache
	Logger     *slog.Logger
}

func (d Deps) cache() cache.CalendarCache {
	if d.Cache != nil {
		return d.Cache
	}
	return cache.Nop{}
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d Deps) load(ctx context.Context, propertyID string) (*properties.Property, domainavailability.Snapshot, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, d.UoWFactory)
	if err != nil {
		return nil, nil, err
	}
	defer unit.Close()
	return support.LoadSnapshot(unit.Ctx, unit, properties.PropertyID(propertyID))
}

type MonthHandler struct {
	Deps
}

func (h *MonthHandler) Handle(ctx context.Context, q MonthQuery) (dto.MonthCalendar, error) {
	clock := h.Clock.Snapshot()
	month := q.Month
	if month.IsZero() {
		month = h.Engine.Today(clock)
	}
	month = month.FirstOfMonth()

	key := cache.CalendarKey{
		PropertyID: q.PropertyID,
		Month:      month,
		Selection:  q.selection(),
		Today:      h.Engine.Today(clock),
		MinDate:    clock.MinDate,
	}
	cacheable := cache.Cacheable(month, key.Today)
	if cacheable {
		cached, ok, err := h.cache().Get(ctx, key)
		if err != nil {
			h.logger().WarnContext(ctx, "calendar cache read failed", "property_id", q.PropertyID, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	_, snapshot, err := h.load(ctx, q.PropertyID)
	if err != nil {
		return dto.MonthCalendar{}, err
	}
	cal := dto.MapMonthCalendar(q.PropertyID, h.Engine.Month(month, snapshot, q.selection(), clock))

	if cacheable {
		if err := h.cache().Put(ctx, key, cal); err != nil {
			h.logger().WarnContext(ctx, "calendar cache write failed", "property_id", q.PropertyID, "error", err)
		}
	}
	return cal, nil
}

var _ queries.Handler[MonthQuery, dto.MonthCalendar] = (*MonthHandler)(nil)
