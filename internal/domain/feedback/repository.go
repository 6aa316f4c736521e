package feedback

import (
	"context"

	"github.com/google/uuid"
)

// FeedbackRepository defines persistence operations for feedback.
type FeedbackRepository interface {
	Save(ctx context.Context, feedback *Feedback) error
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	FindByCarID(ctx context.Context, carID uuid.UUID) ([]*Feedback, error)
	ListAll(ctx context.Context, page, limit int) ([]*Feedback, int64, error)
}
