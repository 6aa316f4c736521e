package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	carDomain "github.com/driveease/service-rental/internal/domain/car"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ImageKind selects which picture of a car is replaced.
type ImageKind string

const (
	ImageKindPhoto ImageKind = "image"
	ImageKindLogo  ImageKind = "logo"
)

// CarRequest holds the data needed to create or update a car.
type CarRequest struct {
	Name               string     `json:"name" binding:"required,max=100"`
	Model              string     `json:"model" binding:"required,max=100"`
	FuelType           string     `json:"fuel_type" binding:"required"`
	Transmission       string     `json:"transmission" binding:"required"`
	Seats              int        `json:"seats" binding:"required,min=1"`
	Color              string     `json:"color" binding:"max=50"`
	RegistrationNumber string     `json:"registration_number" binding:"required,max=20"`
	Branch             string     `json:"branch" binding:"max=100"`
	Description        string     `json:"description" binding:"max=2000"`
	InsuranceProvider  string     `json:"insurance_provider" binding:"max=100"`
	InsurancePolicy    string     `json:"insurance_policy" binding:"max=100"`
	InsuranceExpiresAt *time.Time `json:"insurance_expires_at"`
	DailyRateCents     int64      `json:"daily_rate_cents" binding:"required,gt=0"`
}

func (r CarRequest) spec() carDomain.Specification {
	return carDomain.Specification{
		Name:               r.Name,
		Model:              r.Model,
		FuelType:           carDomain.FuelType(r.FuelType),
		Transmission:       carDomain.Transmission(r.Transmission),
		Seats:              r.Seats,
		Color:              r.Color,
		RegistrationNumber: r.RegistrationNumber,
		Branch:             r.Branch,
		Description:        r.Description,
		Insurance: carDomain.Insurance{
			Provider:     strings.TrimSpace(r.InsuranceProvider),
			PolicyNumber: strings.TrimSpace(r.InsurancePolicy),
			ExpiresAt:    r.InsuranceExpiresAt,
		},
	}
}

// CarQuery holds the browse filters.
type CarQuery struct {
	Search            string
	Seats             int
	MaxDailyRateCents int64
	PickupDate        *time.Time
	ReturnDate        *time.Time
}

// CarService manages the car catalogue.
type CarService struct {
	cars     carDomain.CarRepository
	bookings bookingDomain.BookingRepository
	images   ImageStore
	cache    CarCache
	currency string
	logger   *zap.Logger
}

// NewCarService creates a new CarService. A nil cache disables caching.
func NewCarService(
	cars carDomain.CarRepository,
	bookings bookingDomain.BookingRepository,
	images ImageStore,
	cache CarCache,
	currency string,
	logger *zap.Logger,
) *CarService {
	if cache == nil {
		cache = NopCarCache()
	}
	return &CarService{
		cars:     cars,
		bookings: bookings,
		images:   images,
		cache:    cache,
		currency: currency,
		logger:   logger,
	}
}

// CreateCar adds a car to the catalogue. Registration numbers are unique.
func (s *CarService) CreateCar(ctx context.Context, req CarRequest) (*CarDTO, error) {
	c, err := carDomain.NewCar(req.spec(), req.DailyRateCents, s.currency)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueRegistration(ctx, c.Spec().RegistrationNumber, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.cars.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("car created", zap.String("car_id", c.ID().String()), zap.String("name", c.Name()))
	result := toCarDTO(c)
	return &result, nil
}

// UpdateCar replaces a car's description and rate.
func (s *CarService) UpdateCar(ctx context.Context, id uuid.UUID, req CarRequest) (*CarDTO, error) {
	c, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.spec(), req.DailyRateCents); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueRegistration(ctx, c.Spec().RegistrationNumber, c.ID()); err != nil {
		return nil, err
	}
	return s.persist(ctx, c)
}

// SetAvailability switches a car on or off for new bookings. Existing bookings
// are not touched.
func (s *CarService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*CarDTO, error) {
	c, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.SetAvailability(available)
	return s.persist(ctx, c)
}

// DeleteCar removes a car that has no reserving bookings.
func (s *CarService) DeleteCar(ctx context.Context, id uuid.UUID) error {
	c, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return err
	}
	reserved, err := s.bookings.HasReservingForCar(ctx, id)
	if err != nil {
		return err
	}
	if reserved {
		return domain.NewConflictError("car has active bookings and cannot be deleted")
	}
	if err := s.cars.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateCar(ctx, id)

	for _, ref := range []string{c.ImageURL(), c.LogoURL()} {
		if ref == "" {
			continue
		}
		if err := s.images.Remove(ctx, ref); err != nil {
			s.logger.Warn("failed to remove car image", zap.String("ref", ref), zap.Error(err))
		}
	}
	s.logger.Info("car deleted", zap.String("car_id", id.String()))
	return nil
}

// UploadImage stores a photo or logo for the car and replaces the old one.
func (s *CarService) UploadImage(ctx context.Context, id uuid.UUID, kind ImageKind, upload ImageUpload) (*CarDTO, error) {
	if kind != ImageKindPhoto && kind != ImageKindLogo {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid image kind: %s", kind))
	}
	if !allowedImageTypes[upload.ContentType] {
		return nil, domain.NewValidationError("only JPEG, PNG, WebP and GIF images are allowed")
	}
	if upload.Size > maxImageSize {
		return nil, domain.NewValidationError("image must be 5 MB or smaller")
	}

	c, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ref, err := s.images.Put(ctx, "cars/"+string(kind), upload)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	old := c.ImageURL()
	if kind == ImageKindLogo {
		old = c.LogoURL()
		c.SetLogoURL(ref)
	} else {
		c.SetImageURL(ref)
	}

	result, err := s.persist(ctx, c)
	if err != nil {
		if rmErr := s.images.Remove(ctx, ref); rmErr != nil {
			s.logger.Warn("failed to remove orphaned image", zap.String("ref", ref), zap.Error(rmErr))
		}
		return nil, err
	}
	if old != "" {
		if err := s.images.Remove(ctx, old); err != nil {
			s.logger.Warn("failed to remove replaced image", zap.String("ref", old), zap.Error(err))
		}
	}
	return result, nil
}

// GetCar returns one car. Disabled cars are visible only when includeDisabled is set.
func (s *CarService) GetCar(ctx context.Context, id uuid.UUID, includeDisabled bool) (*CarDTO, error) {
	dto, ok := s.cache.GetCar(ctx, id)
	if !ok {
		c, err := s.cars.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result := toCarDTO(c)
		dto = &result
		s.cache.SetCar(ctx, dto)
	}
	if !dto.IsAvailable && !includeDisabled {
		return nil, domain.NewNotFoundError("Car", id.String())
	}
	return dto, nil
}

// ListCars browses the catalogue. When dates are given, cars with a reserving
// booking inside the window are left out.
func (s *CarService) ListCars(ctx context.Context, q CarQuery, includeDisabled bool, page, limit int) (*domain.PaginatedResult[CarDTO], error) {
	if q.PickupDate != nil && q.ReturnDate != nil && !q.ReturnDate.After(*q.PickupDate) {
		return nil, domain.NewValidationError("return date must be after pickup date")
	}

	cars, total, err := s.cars.List(ctx, carDomain.Filter{
		Search:            strings.TrimSpace(q.Search),
		Seats:             q.Seats,
		MaxDailyRateCents: q.MaxDailyRateCents,
		PickupDate:        q.PickupDate,
		ReturnDate:        q.ReturnDate,
		IncludeDisabled:   includeDisabled,
	}, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]CarDTO, len(cars))
	for i, c := range cars {
		dtos[i] = toCarDTO(c)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func (s *CarService) persist(ctx context.Context, c *carDomain.Car) (*CarDTO, error) {
	c.IncrementVersion()
	if err := s.cars.Update(ctx, c); err != nil {
		return nil, err
	}
	s.cache.InvalidateCar(ctx, c.ID())
	result := toCarDTO(c)
	return &result, nil
}

func (s *CarService) ensureUniqueRegistration(ctx context.Context, registration string, excludeID uuid.UUID) error {
	exists, err := s.cars.ExistsByRegistration(ctx, registration, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewConflictError(fmt.Sprintf("a car with registration %s already exists", registration))
	}
	return nil
}
