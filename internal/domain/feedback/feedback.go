package feedback

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/google/uuid"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 500
)

// Feedback is a customer's review of a car after a completed rental.
type Feedback struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	customerID uuid.UUID
	carID      uuid.UUID
	rating     int
	comment    string
	createdAt  time.Time
}

// NewFeedback creates a new feedback entry.
func NewFeedback(bookingID, customerID, carID uuid.UUID, rating int, comment string) (*Feedback, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, domain.NewValidationError(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return nil, domain.NewValidationError(fmt.Sprintf("comment cannot exceed %d characters", MaxCommentLength))
	}

	return &Feedback{
		id:         uuid.New(),
		bookingID:  bookingID,
		customerID: customerID,
		carID:      carID,
		rating:     rating,
		comment:    comment,
		createdAt:  time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Feedback from persistence.
func Reconstruct(id, bookingID, customerID, carID uuid.UUID, rating int, comment string, createdAt time.Time) *Feedback {
	return &Feedback{
		id:         id,
		bookingID:  bookingID,
		customerID: customerID,
		carID:      carID,
		rating:     rating,
		comment:    comment,
		createdAt:  createdAt,
	}
}

// Getters.
func (f *Feedback) ID() uuid.UUID         { return f.id }
func (f *Feedback) BookingID() uuid.UUID  { return f.bookingID }
func (f *Feedback) CustomerID() uuid.UUID { return f.customerID }
func (f *Feedback) CarID() uuid.UUID      { return f.carID }
func (f *Feedback) Rating() int           { return f.rating }
func (f *Feedback) Comment() string       { return f.comment }
func (f *Feedback) CreatedAt() time.Time  { return f.createdAt }
