package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindByCustomerID retrieves a customer's bookings, latest pickup first.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination, optionally by status (admin).
	ListAll(ctx context.Context, status *BookingStatus, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// FindOverlapping returns the first reserving booking of carID that overlaps
	// period, ignoring excludeID, or nil when the range is free.
	FindOverlapping(ctx context.Context, carID uuid.UUID, period Period, excludeID uuid.UUID) (*Booking, error)

	// HasReservingForCar reports whether carID has any reserving booking.
	HasReservingForCar(ctx context.Context, carID uuid.UUID) (bool, error)

	// HasReservingForCustomer reports whether customerID has any reserving booking.
	HasReservingForCustomer(ctx context.Context, customerID uuid.UUID) (bool, error)

	// FindPickupsDue returns unreminded reserving bookings picked up in [from, to).
	FindPickupsDue(ctx context.Context, from, to time.Time) ([]*Booking, error)

	// FindReturnsDue returns unreminded paid bookings returned in [from, to).
	FindReturnsDue(ctx context.Context, from, to time.Time) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
