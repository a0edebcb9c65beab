// Package availability answers which days and times of a property are free to book.
//
// Every function works on a snapshot of the property's reservations handed in by the
// caller and on an explicit Clock; nothing here reads the wall clock or mutates input.
// All instants are treated as naive wall-clock times in Config.Location.
package availability

import (
	"time"

	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const (
	DefaultMinStay           = 24 * time.Hour
	DefaultBoundaryTolerance = time.Minute
)

type Config struct {
	// MinStay is the uninterrupted free time a stay starting at an instant must fit.
	MinStay time.Duration
	// BoundaryTolerance is how close to midnight a free slot may end and still continue
	// into the next day.
	BoundaryTolerance time.Duration
	Location          *time.Location
}

func DefaultConfig() Config {
	return Config{
		MinStay:           DefaultMinStay,
		BoundaryTolerance: DefaultBoundaryTolerance,
		Location:          time.UTC,
	}
}

// Clock pins "now" and the earliest bookable day for a single evaluation.
type Clock struct {
	Now     time.Time
	MinDate daterange.Day
}

// Engine is stateless; one instance can be shared between goroutines.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.MinStay < 0 {
		cfg.MinStay = 0
	}
	if cfg.BoundaryTolerance < 0 {
		cfg.BoundaryTolerance = 0
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Location() *time.Location {
	return e.cfg.Location
}

// Today is the calendar day of clock.Now in the engine location.
func (e *Engine) Today(clock Clock) daterange.Day {
	return daterange.DayIn(clock.Now, e.cfg.Location)
}

// DayOf maps an instant to its calendar day in the engine location.
func (e *Engine) DayOf(t time.Time) daterange.Day {
	return daterange.DayIn(t, e.cfg.Location)
}

// Snapshot is the reservation list of one property as fetched by the caller.
type Snapshot []*reservations.Reservation

func (s Snapshot) without(excluded reservations.ReservationID) Snapshot {
	if excluded == "" {
		return s
	}
	out := make(Snapshot, 0, len(s))
	for _, r := range s {
		if r == nil || r.ID == excluded {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s Snapshot) find(id reservations.ReservationID) *reservations.Reservation {
	if id == "" {
		return nil
	}
	for _, r := range s {
		if r != nil && r.ID == id {
			return r
		}
	}
	return nil
}
