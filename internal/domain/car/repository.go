package car

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows a car listing. Zero values mean "no constraint".
type Filter struct {
	Search            string
	Seats             int
	MaxDailyRateCents int64
	PickupDate        *time.Time
	ReturnDate        *time.Time
	IncludeDisabled   bool
}

// CarRepository defines the persistence contract for car aggregates.
type CarRepository interface {
	// FindByID retrieves a car by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Car, error)

	// FindByIDForUpdate retrieves a car and locks its row until the surrounding
	// transaction ends. Bookings for one car are serialised through this lock.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Car, error)

	// List retrieves cars matching the filter with pagination.
	List(ctx context.Context, filter Filter, page, limit int) ([]*Car, int64, error)

	// ExistsByRegistration reports whether another car already uses the plate.
	ExistsByRegistration(ctx context.Context, registration string, excludeID uuid.UUID) (bool, error)

	// Save persists a new car.
	Save(ctx context.Context, car *Car) error

	// Update persists changes to an existing car with optimistic locking.
	Update(ctx context.Context, car *Car) error

	// Delete removes a car.
	Delete(ctx context.Context, id uuid.UUID) error
}
