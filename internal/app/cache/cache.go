// Package cache memoizes month calendars per property and month, evicted per property.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

// CalendarKey identifies one memoized month calendar. Everything the calendar depends on
// besides the reservation list is part of the key. A month also depends on reservations
// outside it (an end selection started earlier, a stay running into the next month), so
// reservation changes invalidate every calendar of the property.
type CalendarKey struct {
	PropertyID string
	Month      daterange.Day
	Selection  availability.Selection
	Today      daterange.Day
	MinDate    daterange.Day
}

func (k CalendarKey) String() string {
	return strings.Join([]string{
		"cal",
		k.PropertyID,
		dto.MonthString(k.Month),
		string(k.Selection.Type),
		k.Selection.Start.String(),
		k.Selection.End.String(),
		string(k.Selection.ExcludedReservationID),
		k.Today.String(),
		k.MinDate.String(),
	}, ":")
}

// IndexKey names the set of calendar keys stored for a property.
func IndexKey(propertyID string) string {
	return "cal-idx:" + propertyID
}

// Cacheable reports whether a month can be memoized at all. The month containing today
// depends on the current time of day, so only other months are stored.
func Cacheable(month, today daterange.Day) bool {
	return !month.FirstOfMonth().Equal(today.FirstOfMonth())
}

type CalendarCache interface {
	Get(ctx context.Context, key CalendarKey) (dto.MonthCalendar, bool, error)
	Put(ctx context.Context, key CalendarKey, cal dto.MonthCalendar) error
	InvalidateProperty(ctx context.Context, propertyID string) error
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, CalendarKey) (dto.MonthCalendar, bool, error) {
	return dto.MonthCalendar{}, false, nil
}

func (Nop) Put(context.Context, CalendarKey, dto.MonthCalendar) error { return nil }

func (Nop) InvalidateProperty(context.Context, string) error { return nil }

type reservationChange struct {
	PropertyID string `json:"property_id"`
}

// InvalidateForEvent evicts the calendars of the property a reservation event belongs to.
// Events of other kinds are ignored.
func InvalidateForEvent(ctx context.Context, c CalendarCache, name string, payload []byte) error {
	switch name {
	case reservations.EventCreated, reservations.EventRescheduled, reservations.EventCancelled:
	default:
		return nil
	}
	var change reservationChange
	if err := json.Unmarshal(payload, &change); err != nil {
		return fmt.Errorf("cache: decode %s: %w", name, err)
	}
	if change.PropertyID == "" {
		return nil
	}
	return c.InvalidateProperty(ctx, change.PropertyID)
}
