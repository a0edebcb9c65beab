package support

import (
	"context"
	"time"

	"rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/shared/daterange"
)

// Clock produces the availability.Clock each request is evaluated with.
type Clock struct {
	Now func() time.Time
	// LeadDays is how many days after today the first bookable day is; 1 means tomorrow.
	LeadDays int
	Location *time.Location
}

func (c Clock) Snapshot() availability.Clock {
	nowFn := c.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	lead := c.LeadDays
	if lead < 0 {
		lead = 0
	}
	today := daterange.DayIn(now, loc)
	return availability.Clock{Now: now, MinDate: today.AddDays(lead)}
}

// LoadSnapshot fetches a property and copies of its reservations.
func LoadSnapshot(ctx context.Context, unit *Unit, id properties.PropertyID) (*properties.Property, availability.Snapshot, error) {
	property, err := unit.Properties().ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	list, err := unit.Reservations().ListByProperty(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	snapshot := make(availability.Snapshot, 0, len(list))
	for _, r := range list {
		snapshot = append(snapshot, r.Clone())
	}
	return property, snapshot, nil
}
