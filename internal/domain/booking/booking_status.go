package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending               BookingStatus = "pending"
	StatusPaid                  BookingStatus = "paid"
	StatusCancellationRequested BookingStatus = "cancellation_requested"
	StatusCancelled             BookingStatus = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:               {StatusPaid, StatusCancellationRequested, StatusCancelled},
	StatusPaid:                  {StatusCancellationRequested, StatusCancelled},
	StatusCancellationRequested: {StatusCancelled},
	StatusCancelled:             {},
}

// ReservingStatuses hold the car for their date range.
var ReservingStatuses = []BookingStatus{StatusPending, StatusPaid, StatusCancellationRequested}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsReserving returns true if a booking in this status blocks its car's dates.
func (s BookingStatus) IsReserving() bool {
	for _, r := range ReservingStatuses {
		if s == r {
			return true
		}
	}
	return false
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// StatusStrings converts statuses to their string form for queries.
func StatusStrings(statuses []BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
