package daterange

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
)

// DateRange represents a half-open interval [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: start, End: end}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.End.IsZero() || dr.Start.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Duration() time.Duration {
	return dr.End.Sub(dr.Start)
}

func (dr DateRange) IsEmpty() bool {
	return !dr.End.After(dr.Start)
}

// Overlaps reports whether the ranges share any instant. Touching endpoints do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !dr.Start.After(other.Start) && !dr.End.Before(other.End)
}

func (dr DateRange) ContainsInstant(t time.Time) bool {
	return !t.Before(dr.Start) && t.Before(dr.End)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.End.Equal(other.Start) || dr.Start.Equal(other.End)
}

func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	start := dr.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := dr.End
	if other.End.After(end) {
		end = other.End
	}
	return DateRange{Start: start, End: end}, true
}

// Clip intersects the range with bounds. ok is false when nothing is left.
func (dr DateRange) Clip(bounds DateRange) (DateRange, bool) {
	start := dr.Start
	if bounds.Start.After(start) {
		start = bounds.Start
	}
	end := dr.End
	if bounds.End.Before(end) {
		end = bounds.End
	}
	if !end.After(start) {
		return DateRange{}, false
	}
	return DateRange{Start: start, End: end}, true
}

// ClipToDay intersects the range with the 00:00-24:00 span of day in loc.
func ClipToDay(dr DateRange, day Day, loc *time.Location) (DateRange, bool) {
	return dr.Clip(day.Range(loc))
}

// SortAndMerge returns a new slice of ranges ordered by start with overlapping and
// touching ranges collapsed. The input is left untouched.
func SortAndMerge(ranges []DateRange) []DateRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]DateRange, 0, len(ranges))
	for _, r := range ranges {
		if r.IsEmpty() {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	merged := make([]DateRange, 0, len(sorted))
	for _, r := range sorted {
		if n := len(merged); n > 0 {
			if joined, ok := merged[n-1].Merge(r); ok {
				merged[n-1] = joined
				continue
			}
		}
		merged = append(merged, r)
	}
	return merged
}
