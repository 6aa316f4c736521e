package booking

import (
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
)

// Period is a half-open rental interval [Pickup, Return).
type Period struct {
	Pickup time.Time `json:"pickup_date"`
	Return time.Time `json:"return_date"`
}

// NewPeriod builds a Period, requiring Return to be after Pickup.
func NewPeriod(pickup, ret time.Time) (Period, error) {
	if !ret.After(pickup) {
		return Period{}, domain.NewValidationError("return date must be after pickup date")
	}
	return Period{Pickup: pickup, Return: ret}, nil
}

// Overlaps reports whether the two periods share any instant. Periods that only
// touch (one returns when the other picks up) do not overlap.
func (p Period) Overlaps(other Period) bool {
	return p.Pickup.Before(other.Return) && p.Return.After(other.Pickup)
}

// ValidateForNewBooking rejects periods that start before the calendar day of now.
// A pickup later today is accepted.
func (p Period) ValidateForNewBooking(now time.Time) error {
	if !p.Return.After(p.Pickup) {
		return domain.NewValidationError("return date must be after pickup date")
	}
	if StartOfDay(p.Pickup.In(now.Location())).Before(StartOfDay(now)) {
		return domain.NewValidationError("pickup date cannot be in the past")
	}
	return nil
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayBounds returns [start of t's day, start of the next day).
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}
