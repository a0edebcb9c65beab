// Package booking validates a reservation candidate against a property and its
// reservations and prices it.
package booking

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"rentdesk/internal/domain/availability"
	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
)

const (
	DefaultMinMonths = 1
	DefaultMaxMonths = 12
)

var ErrPropertyRequired = errors.New("booking: property is required")

// Candidate is a reservation request that has not been persisted yet.
type Candidate struct {
	Type  properties.RentalType
	Start daterange.Day
	// End is the checkout day of a DAILY stay; ignored for MONTHLY.
	End    daterange.Day
	Months int
	// ExcludedReservationID is the reservation being edited, if any.
	ExcludedReservationID reservations.ReservationID
	Guest                 reservations.Guest
}

// Selection is the calendar selection equivalent of the candidate for the conflict check.
func (c Candidate) Selection() availability.Selection {
	return availability.Selection{Type: c.Type, ExcludedReservationID: c.ExcludedReservationID}
}

type Config struct {
	MinMonths int
	MaxMonths int
}

type Validator struct {
	engine    *availability.Engine
	minMonths int
	maxMonths int
	validate  *validator.Validate
}

func NewValidator(engine *availability.Engine, cfg Config) *Validator {
	if engine == nil {
		engine = availability.NewEngine(availability.DefaultConfig())
	}
	if cfg.MinMonths <= 0 {
		cfg.MinMonths = DefaultMinMonths
	}
	if cfg.MaxMonths < cfg.MinMonths {
		cfg.MaxMonths = DefaultMaxMonths
		if cfg.MaxMonths < cfg.MinMonths {
			cfg.MaxMonths = cfg.MinMonths
		}
	}
	return &Validator{
		engine:    engine,
		minMonths: cfg.MinMonths,
		maxMonths: cfg.MaxMonths,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (v *Validator) Engine() *availability.Engine {
	return v.engine
}

// ValidateAndPrice checks the candidate in full, guest details included, and prices it.
// A non-nil error is either ErrPropertyRequired or ValidationErrors listing every problem.
func (v *Validator) ValidateAndPrice(c Candidate, property *properties.Property, snapshot availability.Snapshot, clock availability.Clock) (Quote, error) {
	return v.evaluate(c, property, snapshot, clock, true)
}

// QuoteDates is ValidateAndPrice without the guest rules, for price previews.
func (v *Validator) QuoteDates(c Candidate, property *properties.Property, snapshot availability.Snapshot, clock availability.Clock) (Quote, error) {
	return v.evaluate(c, property, snapshot, clock, false)
}

func (v *Validator) evaluate(c Candidate, property *properties.Property, snapshot availability.Snapshot, clock availability.Clock, withGuest bool) (Quote, error) {
	if property == nil {
		return Quote{}, ErrPropertyRequired
	}

	var errs ValidationErrors
	end, datesOK := v.checkDates(c, property, &errs)
	if withGuest {
		validateGuest(v.validate, c.Guest, &errs)
	}
	if datesOK && !v.datesFree(c, c.Start, end, snapshot, clock) {
		errs.add(FieldDates, CodeDatesUnavailable, "dates %s to %s are no longer available", c.Start, end)
	}
	if len(errs) > 0 {
		return Quote{}, errs
	}
	return price(c, property, end, v.engine.Location()), nil
}

// checkDates runs the structural rules and returns the normalized end day. ok is false
// when the dates cannot be conflict-checked or priced.
func (v *Validator) checkDates(c Candidate, property *properties.Property, errs *ValidationErrors) (end daterange.Day, ok bool) {
	ok = true
	switch c.Type {
	case properties.RentalDaily, properties.RentalMonthly:
		if !property.Supports(c.Type) {
			errs.add(FieldType, CodeRentalTypeDisabled, "%s rentals are not offered for this property", c.Type)
			ok = false
		}
	case "":
		errs.add(FieldType, CodeMissingField, "rental type is required")
		return daterange.Day{}, false
	default:
		errs.add(FieldType, CodeInvalidFormat, "unknown rental type %q", c.Type)
		return daterange.Day{}, false
	}

	if c.Start.IsZero() {
		errs.add(FieldStart, CodeMissingField, "start date is required")
		ok = false
	}

	if c.Type == properties.RentalDaily {
		switch {
		case c.End.IsZero():
			errs.add(FieldEnd, CodeMissingField, "end date is required")
			ok = false
		case !c.Start.IsZero() && !c.End.After(c.Start):
			errs.add(FieldEnd, CodeInvalidDateOrder, "end date must be after start date")
			ok = false
		}
		return c.End, ok
	}

	switch {
	case c.Months == 0:
		errs.add(FieldMonths, CodeMissingField, "number of months is required")
		return daterange.Day{}, false
	case c.Months < v.minMonths || c.Months > v.maxMonths:
		errs.add(FieldMonths, CodeOutOfRangeDuration, "months must be between %d and %d", v.minMonths, v.maxMonths)
		return daterange.Day{}, false
	}
	if c.Start.IsZero() {
		return daterange.Day{}, false
	}
	return c.Start.AddMonths(c.Months), ok
}

// datesFree re-checks every day of [start, end) at submit time.
func (v *Validator) datesFree(c Candidate, start, end daterange.Day, snapshot availability.Snapshot, clock availability.Clock) bool {
	sel := c.Selection()
	for d := start; d.Before(end); d = d.AddDays(1) {
		if !v.engine.IsDateAvailable(d, snapshot, sel, clock) {
			return false
		}
	}
	return true
}
