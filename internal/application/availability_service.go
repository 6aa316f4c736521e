package application

import (
	"context"
	"fmt"
	"time"

	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	carDomain "github.com/driveease/service-rental/internal/domain/car"
	"github.com/google/uuid"
)

// AvailabilityResult tells whether a car can be booked for a period. When it
// cannot, Reason explains why and Conflict holds the blocking booking's dates.
type AvailabilityResult struct {
	CarID     uuid.UUID             `json:"car_id"`
	Available bool                  `json:"available"`
	Reason    string                `json:"reason,omitempty"`
	Conflict  *bookingDomain.Period `json:"conflict,omitempty"`
}

// AvailabilityService decides whether a car is bookable for a date range.
type AvailabilityService struct {
	cars     carDomain.CarRepository
	bookings bookingDomain.BookingRepository
	location *time.Location
	now      clock
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	cars carDomain.CarRepository,
	bookings bookingDomain.BookingRepository,
	location *time.Location,
) *AvailabilityService {
	if location == nil {
		location = time.UTC
	}
	return &AvailabilityService{
		cars:     cars,
		bookings: bookings,
		location: location,
		now:      time.Now,
	}
}

// Check validates the requested range and reports whether the car is free for it.
func (s *AvailabilityService) Check(ctx context.Context, carID uuid.UUID, pickup, ret time.Time) (*AvailabilityResult, error) {
	period, err := bookingDomain.NewPeriod(pickup, ret)
	if err != nil {
		return nil, err
	}
	if err := period.ValidateForNewBooking(s.today()); err != nil {
		return nil, err
	}

	car, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, car, period, uuid.Nil)
}

// evaluate applies the admin switch and then the overlap rule against reserving
// bookings. Callers that go on to write must hold the car's row lock.
func (s *AvailabilityService) evaluate(ctx context.Context, car *carDomain.Car, period bookingDomain.Period, excludeID uuid.UUID) (*AvailabilityResult, error) {
	result := &AvailabilityResult{CarID: car.ID()}
	if !car.IsAvailable() {
		result.Reason = "car is currently not available for rental"
		return result, nil
	}

	conflict, err := s.bookings.FindOverlapping(ctx, car.ID(), period, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	if conflict != nil {
		p := conflict.Period()
		result.Conflict = &p
		result.Reason = fmt.Sprintf("car is already booked from %s to %s",
			p.Pickup.In(s.location).Format("2006-01-02"),
			p.Return.In(s.location).Format("2006-01-02"),
		)
		return result, nil
	}

	result.Available = true
	return result, nil
}

func (s *AvailabilityService) today() time.Time {
	return s.now().In(s.location)
}
