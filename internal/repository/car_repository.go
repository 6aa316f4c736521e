package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/driveease/service-rental/internal/common/database"
	"github.com/driveease/service-rental/internal/common/domain"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	carDomain "github.com/driveease/service-rental/internal/domain/car"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CarModel is the GORM model for the cars table.
type CarModel struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name                  string     `gorm:"not null;size:100;index"`
	Model                 string     `gorm:"not null;size:100"`
	FuelType              string     `gorm:"not null;size:20"`
	Transmission          string     `gorm:"not null;size:20"`
	Seats                 int        `gorm:"not null"`
	Color                 string     `gorm:"size:50"`
	RegistrationNumber    string     `gorm:"uniqueIndex;not null;size:20"`
	Branch                string     `gorm:"size:100"`
	Description           string     `gorm:"size:1000"`
	InsuranceProvider     string     `gorm:"size:100"`
	InsurancePolicyNumber string     `gorm:"size:100"`
	InsuranceExpiresAt    *time.Time `gorm:""`
	DailyRateCents        int64      `gorm:"not null"`
	Currency              string     `gorm:"not null;size:3;default:'LKR'"`
	IsAvailable           bool       `gorm:"not null;default:true;index"`
	ImageURL              string     `gorm:"size:500"`
	LogoURL               string     `gorm:"size:500"`
	Version               int64      `gorm:"not null;default:1"`
	CreatedAt             time.Time  `gorm:"not null"`
	UpdatedAt             time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CarModel) TableName() string {
	return "cars"
}

// GormCarRepository is the GORM-based implementation of CarRepository.
type GormCarRepository struct {
	db *gorm.DB
}

// NewGormCarRepository creates a new GormCarRepository.
func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

// FindByID retrieves a car by its unique identifier.
func (r *GormCarRepository) FindByID(ctx context.Context, id uuid.UUID) (*carDomain.Car, error) {
	return r.find(database.Conn(ctx, r.db), id)
}

// FindByIDForUpdate retrieves a car with SELECT ... FOR UPDATE.
func (r *GormCarRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*carDomain.Car, error) {
	return r.find(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormCarRepository) find(db *gorm.DB, id uuid.UUID) (*carDomain.Car, error) {
	var model CarModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Car", id.String())
		}
		return nil, fmt.Errorf("failed to find car by ID: %w", err)
	}
	return toDomainCar(&model), nil
}

// List retrieves cars matching filter with pagination.
func (r *GormCarRepository) List(ctx context.Context, filter carDomain.Filter, page, limit int) ([]*carDomain.Car, int64, error) {
	query := r.applyFilter(database.Conn(ctx, r.db).Model(&CarModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cars: %w", err)
	}

	var models []CarModel
	offset := (page - 1) * limit
	if err := query.
		Order("name ASC, model ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list cars: %w", err)
	}

	cars := make([]*carDomain.Car, len(models))
	for i := range models {
		cars[i] = toDomainCar(&models[i])
	}
	return cars, total, nil
}

func (r *GormCarRepository) applyFilter(q *gorm.DB, f carDomain.Filter) *gorm.DB {
	if !f.IncludeDisabled {
		q = q.Where("is_available = ?", true)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("(name ILIKE ? OR model ILIKE ?)", like, like)
	}
	if f.Seats > 0 {
		q = q.Where("seats = ?", f.Seats)
	}
	if f.MaxDailyRateCents > 0 {
		q = q.Where("daily_rate_cents <= ?", f.MaxDailyRateCents)
	}

	// A missing bound leaves that side of the window open.
	if f.PickupDate != nil || f.ReturnDate != nil {
		sub := r.db.Model(&BookingModel{}).
			Select("1").
			Where("bookings.car_id = cars.id").
			Where("bookings.status IN ?", bookingDomain.StatusStrings(bookingDomain.ReservingStatuses))
		if f.ReturnDate != nil {
			sub = sub.Where("bookings.pickup_date < ?", *f.ReturnDate)
		}
		if f.PickupDate != nil {
			sub = sub.Where("bookings.return_date > ?", *f.PickupDate)
		}
		q = q.Where("NOT EXISTS (?)", sub)
	}
	return q
}

// ExistsByRegistration reports whether another car uses registration.
func (r *GormCarRepository) ExistsByRegistration(ctx context.Context, registration string, excludeID uuid.UUID) (bool, error) {
	var count int64
	if err := database.Conn(ctx, r.db).Model(&CarModel{}).
		Where("registration_number = ? AND id <> ?", registration, excludeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return count > 0, nil
}

// Save persists a new car.
func (r *GormCarRepository) Save(ctx context.Context, c *carDomain.Car) error {
	model := toCarModel(c)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		return translateWriteError(err, "save car")
	}
	return nil
}

// Update persists changes to an existing car with optimistic locking.
func (r *GormCarRepository) Update(ctx context.Context, c *carDomain.Car) error {
	model := toCarModel(c)

	expectedVersion := c.Version() - 1
	result := database.Conn(ctx, r.db).
		Model(&CarModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":                    model.Name,
			"model":                   model.Model,
			"fuel_type":               model.FuelType,
			"transmission":            model.Transmission,
			"seats":                   model.Seats,
			"color":                   model.Color,
			"registration_number":     model.RegistrationNumber,
			"branch":                  model.Branch,
			"description":             model.Description,
			"insurance_provider":      model.InsuranceProvider,
			"insurance_policy_number": model.InsurancePolicyNumber,
			"insurance_expires_at":    model.InsuranceExpiresAt,
			"daily_rate_cents":        model.DailyRateCents,
			"currency":                model.Currency,
			"is_available":            model.IsAvailable,
			"image_url":               model.ImageURL,
			"logo_url":                model.LogoURL,
			"version":                 model.Version,
			"updated_at":              model.UpdatedAt,
		})

	if result.Error != nil {
		return translateWriteError(result.Error, "update car")
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("car was modified by another transaction")
	}
	return nil
}

// Delete removes a car.
func (r *GormCarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&CarModel{})
	if result.Error != nil {
		return translateWriteError(result.Error, "delete car")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Car", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toCarModel(c *carDomain.Car) *CarModel {
	spec := c.Spec()
	return &CarModel{
		ID:                    c.ID(),
		Name:                  spec.Name,
		Model:                 spec.Model,
		FuelType:              string(spec.FuelType),
		Transmission:          string(spec.Transmission),
		Seats:                 spec.Seats,
		Color:                 spec.Color,
		RegistrationNumber:    spec.RegistrationNumber,
		Branch:                spec.Branch,
		Description:           spec.Description,
		InsuranceProvider:     spec.Insurance.Provider,
		InsurancePolicyNumber: spec.Insurance.PolicyNumber,
		InsuranceExpiresAt:    spec.Insurance.ExpiresAt,
		DailyRateCents:        c.DailyRateCents(),
		Currency:              c.Currency(),
		IsAvailable:           c.IsAvailable(),
		ImageURL:              c.ImageURL(),
		LogoURL:               c.LogoURL(),
		Version:               c.Version(),
		CreatedAt:             c.CreatedAt(),
		UpdatedAt:             c.UpdatedAt(),
	}
}

func toDomainCar(m *CarModel) *carDomain.Car {
	return carDomain.ReconstructCar(
		m.ID,
		carDomain.Specification{
			Name:               m.Name,
			Model:              m.Model,
			FuelType:           carDomain.FuelType(m.FuelType),
			Transmission:       carDomain.Transmission(m.Transmission),
			Seats:              m.Seats,
			Color:              m.Color,
			RegistrationNumber: m.RegistrationNumber,
			Branch:             m.Branch,
			Description:        m.Description,
			Insurance: carDomain.Insurance{
				Provider:     m.InsuranceProvider,
				PolicyNumber: m.InsurancePolicyNumber,
				ExpiresAt:    m.InsuranceExpiresAt,
			},
		},
		m.DailyRateCents,
		m.Currency,
		m.IsAvailable,
		m.ImageURL,
		m.LogoURL,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
