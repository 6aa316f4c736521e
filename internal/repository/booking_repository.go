package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/common/database"
	"github.com/driveease/service-rental/internal/common/domain"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber           string     `gorm:"uniqueIndex;not null;size:20"`
	CustomerID              uuid.UUID  `gorm:"type:uuid;index;not null"`
	CarID                   uuid.UUID  `gorm:"type:uuid;index:idx_bookings_car_period;not null"`
	Status                  string     `gorm:"not null;size:30;index"`
	PickupDate              time.Time  `gorm:"not null;index:idx_bookings_car_period"`
	ReturnDate              time.Time  `gorm:"not null;index:idx_bookings_car_period"`
	DailyRateCents          int64      `gorm:"not null"`
	TotalCostCents          int64      `gorm:"not null"`
	Currency                string     `gorm:"not null;size:3;default:'LKR'"`
	PayAtDesk               bool       `gorm:"not null;default:false"`
	PaidAt                  *time.Time `gorm:""`
	CancellationRequestedAt *time.Time `gorm:""`
	CancelledAt             *time.Time `gorm:""`
	CancelNote              string     `gorm:"size:500"`
	PickupReminderSent      bool       `gorm:"not null;default:false"`
	ReturnReminderSent      bool       `gorm:"not null;default:false"`
	Version                 int64      `gorm:"not null;default:1"`
	CreatedAt               time.Time  `gorm:"not null"`
	UpdatedAt               time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

var reservingStatuses = bookingDomain.StatusStrings(bookingDomain.ReservingStatuses)

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := database.Conn(ctx, r.db).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves a customer's bookings, latest pickup first.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := database.Conn(ctx, r.db)

	var total int64
	if err := db.Model(&BookingModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := db.
		Where("customer_id = ?", customerID).
		Order("pickup_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find customer bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListAll retrieves all bookings with pagination, optionally filtered by status.
func (r *GormBookingRepository) ListAll(ctx context.Context, status *bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := database.Conn(ctx, r.db).Model(&BookingModel{})
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := database.Conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// FindOverlapping returns the earliest reserving booking of carID overlapping period.
func (r *GormBookingRepository) FindOverlapping(ctx context.Context, carID uuid.UUID, period bookingDomain.Period, excludeID uuid.UUID) (*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := database.Conn(ctx, r.db).
		Where("car_id = ? AND id <> ?", carID, excludeID).
		Where("status IN ?", reservingStatuses).
		Where("pickup_date < ? AND return_date > ?", period.Return, period.Pickup).
		Order("pickup_date ASC").
		Limit(1).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return toDomainBooking(&models[0])
}

// HasReservingForCar reports whether carID has any reserving booking.
func (r *GormBookingRepository) HasReservingForCar(ctx context.Context, carID uuid.UUID) (bool, error) {
	return r.hasReserving(ctx, "car_id = ?", carID)
}

// HasReservingForCustomer reports whether customerID has any reserving booking.
func (r *GormBookingRepository) HasReservingForCustomer(ctx context.Context, customerID uuid.UUID) (bool, error) {
	return r.hasReserving(ctx, "customer_id = ?", customerID)
}

func (r *GormBookingRepository) hasReserving(ctx context.Context, cond string, id uuid.UUID) (bool, error) {
	var count int64
	if err := database.Conn(ctx, r.db).Model(&BookingModel{}).
		Where(cond, id).
		Where("status IN ?", reservingStatuses).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count reserving bookings: %w", err)
	}
	return count > 0, nil
}

// FindPickupsDue returns unreminded pending or paid bookings picked up in [from, to).
func (r *GormBookingRepository) FindPickupsDue(ctx context.Context, from, to time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := database.Conn(ctx, r.db).
		Where("status IN ?", []string{string(bookingDomain.StatusPending), string(bookingDomain.StatusPaid)}).
		Where("pickup_reminder_sent = ?", false).
		Where("pickup_date >= ? AND pickup_date < ?", from, to).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pickups due: %w", err)
	}
	return toDomainBookings(models)
}

// FindReturnsDue returns unreminded paid bookings returned in [from, to).
func (r *GormBookingRepository) FindReturnsDue(ctx context.Context, from, to time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := database.Conn(ctx, r.db).
		Where("status = ?", string(bookingDomain.StatusPaid)).
		Where("return_reminder_sent = ?", false).
		Where("return_date >= ? AND return_date < ?", from, to).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find returns due: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		return translateWriteError(err, "save booking")
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the stored version is the one read before IncrementVersion.
	expectedVersion := bk.Version() - 1
	result := database.Conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                    model.Status,
			"pay_at_desk":               model.PayAtDesk,
			"paid_at":                   model.PaidAt,
			"cancellation_requested_at": model.CancellationRequestedAt,
			"cancelled_at":              model.CancelledAt,
			"cancel_note":               model.CancelNote,
			"pickup_reminder_sent":      model.PickupReminderSent,
			"return_reminder_sent":      model.ReturnReminderSent,
			"version":                   model.Version,
			"updated_at":                model.UpdatedAt,
		})

	if result.Error != nil {
		return translateWriteError(result.Error, "update booking")
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	s := bk.Snapshot()
	return &BookingModel{
		ID:                      s.ID,
		BookingNumber:           s.BookingNumber,
		CustomerID:              s.CustomerID,
		CarID:                   s.CarID,
		Status:                  string(s.Status),
		PickupDate:              s.Period.Pickup,
		ReturnDate:              s.Period.Return,
		DailyRateCents:          s.DailyRateCents,
		TotalCostCents:          s.TotalCostCents,
		Currency:                s.Currency,
		PayAtDesk:               s.PayAtDesk,
		PaidAt:                  s.PaidAt,
		CancellationRequestedAt: s.CancellationRequestedAt,
		CancelledAt:             s.CancelledAt,
		CancelNote:              s.CancelNote,
		PickupReminderSent:      s.PickupReminderSent,
		ReturnReminderSent:      s.ReturnReminderSent,
		Version:                 s.Version,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:                      m.ID,
		BookingNumber:           m.BookingNumber,
		CustomerID:              m.CustomerID,
		CarID:                   m.CarID,
		Status:                  status,
		Period:                  bookingDomain.Period{Pickup: m.PickupDate, Return: m.ReturnDate},
		DailyRateCents:          m.DailyRateCents,
		TotalCostCents:          m.TotalCostCents,
		Currency:                m.Currency,
		PayAtDesk:               m.PayAtDesk,
		PaidAt:                  m.PaidAt,
		CancellationRequestedAt: m.CancellationRequestedAt,
		CancelledAt:             m.CancelledAt,
		CancelNote:              m.CancelNote,
		PickupReminderSent:      m.PickupReminderSent,
		ReturnReminderSent:      m.ReturnReminderSent,
		Version:                 m.Version,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
