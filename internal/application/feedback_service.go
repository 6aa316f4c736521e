package application

import (
	"context"
	"time"

	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/domain"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	feedbackDomain "github.com/driveease/service-rental/internal/domain/feedback"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitFeedbackRequest holds a customer's review.
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=500"`
}

// FeedbackService handles reviews of completed rentals.
type FeedbackService struct {
	feedback feedbackDomain.FeedbackRepository
	bookings bookingDomain.BookingRepository
	logger   *zap.Logger
	now      clock
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(
	feedback feedbackDomain.FeedbackRepository,
	bookings bookingDomain.BookingRepository,
	logger *zap.Logger,
) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		bookings: bookings,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit stores feedback for the caller's paid booking once its return date
// has been reached. Each booking takes one review.
func (s *FeedbackService) Submit(ctx context.Context, p auth.Principal, bookingID uuid.UUID, req SubmitFeedbackRequest) (*FeedbackDTO, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, bk); err != nil {
		return nil, err
	}
	if bk.Status() != bookingDomain.StatusPaid {
		return nil, domain.NewInvalidStateMessage("feedback can only be left for paid bookings")
	}
	if s.now().Before(bk.Period().Return) {
		return nil, domain.NewInvalidStateMessage("feedback can be left once the car has been returned")
	}

	exists, err := s.feedback.ExistsForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewConflictError("feedback has already been submitted for this booking")
	}

	f, err := feedbackDomain.NewFeedback(bk.ID(), p.UserID, bk.CarID(), req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.feedback.Save(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("feedback submitted",
		zap.String("booking_id", bk.ID().String()),
		zap.Int("rating", f.Rating()),
	)
	return &toFeedbackDTOs([]*feedbackDomain.Feedback{f})[0], nil
}

// ListForCar returns a car's reviews, newest first.
func (s *FeedbackService) ListForCar(ctx context.Context, carID uuid.UUID) ([]FeedbackDTO, error) {
	items, err := s.feedback.FindByCarID(ctx, carID)
	if err != nil {
		return nil, err
	}
	return toFeedbackDTOs(items), nil
}

// ListAll returns every review, newest first.
func (s *FeedbackService) ListAll(ctx context.Context, page, limit int) ([]FeedbackDTO, int64, error) {
	items, total, err := s.feedback.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toFeedbackDTOs(items), total, nil
}
