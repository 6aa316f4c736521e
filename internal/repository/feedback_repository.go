package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/common/database"
	feedbackDomain "github.com/driveease/service-rental/internal/domain/feedback"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedbackModel is the GORM model for the feedbacks table.
type FeedbackModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	CarID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"type:varchar(500)"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (FeedbackModel) TableName() string { return "feedbacks" }

// GormFeedbackRepository implements FeedbackRepository using GORM.
type GormFeedbackRepository struct {
	db *gorm.DB
}

// NewGormFeedbackRepository creates a new GormFeedbackRepository.
func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

// Save persists new feedback.
func (r *GormFeedbackRepository) Save(ctx context.Context, f *feedbackDomain.Feedback) error {
	model := toFeedbackModel(f)
	if err := database.Conn(ctx, r.db).Create(&model).Error; err != nil {
		return translateWriteError(err, "save feedback")
	}
	return nil
}

// ExistsForBooking reports whether the booking already has feedback.
func (r *GormFeedbackRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var n int64
	if err := database.Conn(ctx, r.db).Model(&FeedbackModel{}).Where("booking_id = ?", bookingID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check feedback: %w", err)
	}
	return n > 0, nil
}

// FindByCarID returns all feedback for a car, newest first.
func (r *GormFeedbackRepository) FindByCarID(ctx context.Context, carID uuid.UUID) ([]*feedbackDomain.Feedback, error) {
	var models []FeedbackModel
	if err := database.Conn(ctx, r.db).Where("car_id = ?", carID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find car feedback: %w", err)
	}
	return toDomainFeedbacks(models), nil
}

// ListAll returns all feedback with pagination.
func (r *GormFeedbackRepository) ListAll(ctx context.Context, page, limit int) ([]*feedbackDomain.Feedback, int64, error) {
	db := database.Conn(ctx, r.db)

	var total int64
	if err := db.Model(&FeedbackModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	var models []FeedbackModel
	if err := db.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	return toDomainFeedbacks(models), total, nil
}

func toFeedbackModel(f *feedbackDomain.Feedback) FeedbackModel {
	return FeedbackModel{
		ID:         f.ID(),
		BookingID:  f.BookingID(),
		CustomerID: f.CustomerID(),
		CarID:      f.CarID(),
		Rating:     f.Rating(),
		Comment:    f.Comment(),
		CreatedAt:  f.CreatedAt(),
	}
}

func toDomainFeedbacks(models []FeedbackModel) []*feedbackDomain.Feedback {
	out := make([]*feedbackDomain.Feedback, len(models))
	for i, m := range models {
		out[i] = feedbackDomain.Reconstruct(m.ID, m.BookingID, m.CustomerID, m.CarID, m.Rating, m.Comment, m.CreatedAt)
	}
	return out
}
