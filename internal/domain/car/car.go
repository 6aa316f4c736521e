package car

import (
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/google/uuid"
)

const (
	minSeats = 1
	maxSeats = 60
)

// Car is the aggregate root for a rentable vehicle.
//
// available is the administrative on/off switch. It never reflects date
// occupancy, which is derived from bookings at query time.
type Car struct {
	id             uuid.UUID
	spec           Specification
	dailyRateCents int64
	currency       string
	available      bool
	imageURL       string
	logoURL        string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewCar creates a new, enabled Car.
func NewCar(spec Specification, dailyRateCents int64, currency string) (*Car, error) {
	spec = spec.Normalized()
	if err := validate(spec, dailyRateCents); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Car{
		id:             uuid.New(),
		spec:           spec,
		dailyRateCents: dailyRateCents,
		currency:       currency,
		available:      true,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructCar rebuilds a Car from persistence data (no validation).
func ReconstructCar(
	id uuid.UUID,
	spec Specification,
	dailyRateCents int64,
	currency string,
	available bool,
	imageURL, logoURL string,
	version int64,
	createdAt, updatedAt time.Time,
) *Car {
	return &Car{
		id:             id,
		spec:           spec,
		dailyRateCents: dailyRateCents,
		currency:       currency,
		available:      available,
		imageURL:       imageURL,
		logoURL:        logoURL,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func validate(spec Specification, dailyRateCents int64) error {
	if spec.Name == "" {
		return domain.NewValidationError("car name is required")
	}
	if spec.Model == "" {
		return domain.NewValidationError("car model is required")
	}
	if !spec.FuelType.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid fuel type: %s", spec.FuelType))
	}
	if !spec.Transmission.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid transmission: %s", spec.Transmission))
	}
	if spec.Seats < minSeats || spec.Seats > maxSeats {
		return domain.NewValidationError(fmt.Sprintf("seats must be between %d and %d", minSeats, maxSeats))
	}
	if spec.RegistrationNumber == "" {
		return domain.NewValidationError("registration number is required")
	}
	if dailyRateCents <= 0 {
		return domain.NewValidationError("daily rate must be positive")
	}
	return nil
}

// ID returns the car's unique identifier.
func (c *Car) ID() uuid.UUID { return c.id }

// Spec returns the vehicle description.
func (c *Car) Spec() Specification { return c.spec }

// Name returns the display name.
func (c *Car) Name() string { return c.spec.Name }

// DailyRateCents returns the price of one rental day in cents.
func (c *Car) DailyRateCents() int64 { return c.dailyRateCents }

// Currency returns the currency code of the daily rate.
func (c *Car) Currency() string { return c.currency }

// IsAvailable reports whether an administrator has enabled the car for rental.
func (c *Car) IsAvailable() bool { return c.available }

// ImageURL returns the stored car image reference.
func (c *Car) ImageURL() string { return c.imageURL }

// LogoURL returns the stored brand logo reference.
func (c *Car) LogoURL() string { return c.logoURL }

// Version returns the entity version for optimistic locking.
func (c *Car) Version() int64 { return c.version }

// CreatedAt returns the creation timestamp.
func (c *Car) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (c *Car) UpdatedAt() time.Time { return c.updatedAt }

// Update replaces the description and daily rate. Existing bookings keep the
// total they were priced at.
func (c *Car) Update(spec Specification, dailyRateCents int64) error {
	spec = spec.Normalized()
	if err := validate(spec, dailyRateCents); err != nil {
		return err
	}
	c.spec = spec
	c.dailyRateCents = dailyRateCents
	c.updatedAt = time.Now().UTC()
	return nil
}

// SetAvailability enables or disables the car for new bookings.
func (c *Car) SetAvailability(available bool) {
	c.available = available
	c.updatedAt = time.Now().UTC()
}

// SetImageURL records the stored car image.
func (c *Car) SetImageURL(url string) {
	c.imageURL = url
	c.updatedAt = time.Now().UTC()
}

// SetLogoURL records the stored brand logo.
func (c *Car) SetLogoURL(url string) {
	c.logoURL = url
	c.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (c *Car) IncrementVersion() {
	c.version++
	c.updatedAt = time.Now().UTC()
}
