package generic

// =============================================================================
// INTERVAL - The time span a claim covers
// =============================================================================

// Interval is a day-granular span [Start, End]. Boundaries are INCLUSIVE:
// two intervals touching on the same day DO overlap. End may be nil for
// open-ended claims (an ongoing sale), which extend to infinity.
type Interval struct {
	Start Date
	End   *Date
}

// NewInterval builds a closed interval.
func NewInterval(start, end Date) Interval {
	return Interval{Start: start, End: &end}
}

// OpenInterval builds an open-ended interval starting at start.
func OpenInterval(start Date) Interval {
	return Interval{Start: start}
}

// Validate rejects intervals whose end precedes their start.
func (iv Interval) Validate() error {
	if iv.Start.IsZero() {
		return &ValidationFieldError{Field: "start", Message: "start date is required"}
	}
	if iv.End != nil && iv.End.Before(iv.Start) {
		return &ValidationFieldError{Field: "end", Message: "end date before start date"}
	}
	return nil
}

// Contains reports whether the date falls within [Start, End].
func (iv Interval) Contains(d Date) bool {
	if d.Before(iv.Start) {
		return false
	}
	return iv.End == nil || d.BeforeOrEqual(*iv.End)
}

// Overlaps reports whether two intervals share at least one day.
// [s1,e1] and [s2,e2] overlap iff s1 <= e2 AND s2 <= e1, with a nil end
// treated as unbounded.
func (iv Interval) Overlaps(other Interval) bool {
	if other.End != nil && other.End.Before(iv.Start) {
		return false
	}
	if iv.End != nil && iv.End.Before(other.Start) {
		return false
	}
	return true
}

// Ended reports whether the interval is closed and its end is strictly
// before the given date.
func (iv Interval) Ended(asOf Date) bool {
	return iv.End != nil && iv.End.Before(asOf)
}

func (iv Interval) String() string {
	if iv.End == nil {
		return "[" + iv.Start.String() + ", ...)"
	}
	return "[" + iv.Start.String() + ", " + iv.End.String() + "]"
}
