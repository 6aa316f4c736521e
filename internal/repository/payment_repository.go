package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/common/database"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountCents   int64     `gorm:"not null"`
	Currency      string    `gorm:"not null;size:3;default:'LKR'"`
	Method        string    `gorm:"not null;size:30"`
	Status        string    `gorm:"not null;size:20"`
	TransactionID string    `gorm:"uniqueIndex;not null;size:40"`
	PaidAt        time.Time `gorm:"not null;index"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PaymentModel) TableName() string { return "payments" }

// GormPaymentRepository implements PaymentRepository using GORM. Rows are
// only ever inserted.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save inserts a payment.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	if err := database.Conn(ctx, r.db).Create(&model).Error; err != nil {
		return translateWriteError(err, "save payment")
	}
	return nil
}

// FindByBookingID returns a booking's payments in settlement order.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	var models []PaymentModel
	if err := database.Conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("paid_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find booking payments: %w", err)
	}
	return toDomainPayments(models), nil
}

// NetPaidForBooking sums charges and refunds of a booking.
func (r *GormPaymentRepository) NetPaidForBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var net int64
	if err := database.Conn(ctx, r.db).Model(&PaymentModel{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("booking_id = ? AND status = ?", bookingID, string(paymentDomain.StatusCompleted)).
		Scan(&net).Error; err != nil {
		return 0, fmt.Errorf("failed to sum booking payments: %w", err)
	}
	return net, nil
}

// ListAll returns every payment, newest first.
func (r *GormPaymentRepository) ListAll(ctx context.Context, page, limit int) ([]*paymentDomain.Payment, int64, error) {
	db := database.Conn(ctx, r.db)

	var total int64
	if err := db.Model(&PaymentModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var models []PaymentModel
	if err := db.Order("paid_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return toDomainPayments(models), total, nil
}

func toPaymentModel(p *paymentDomain.Payment) PaymentModel {
	return PaymentModel{
		ID:            p.ID(),
		BookingID:     p.BookingID(),
		AmountCents:   p.AmountCents(),
		Currency:      p.Currency(),
		Method:        string(p.Method()),
		Status:        string(p.Status()),
		TransactionID: p.TransactionID(),
		PaidAt:        p.PaidAt(),
		CreatedAt:     p.CreatedAt(),
	}
}

func toDomainPayments(models []PaymentModel) []*paymentDomain.Payment {
	payments := make([]*paymentDomain.Payment, len(models))
	for i, m := range models {
		payments[i] = paymentDomain.Reconstruct(
			m.ID,
			m.BookingID,
			m.AmountCents,
			m.Currency,
			paymentDomain.Method(m.Method),
			paymentDomain.Status(m.Status),
			m.TransactionID,
			m.PaidAt,
			m.CreatedAt,
		)
	}
	return payments
}
