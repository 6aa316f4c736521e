package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/google/uuid"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	customerID    uuid.UUID
	carID         uuid.UUID
	status        BookingStatus
	period        Period

	dailyRateCents int64
	totalCostCents int64
	currency       string

	payAtDesk               bool
	paidAt                  *time.Time
	cancellationRequestedAt *time.Time
	cancelledAt             *time.Time
	cancelNote              string

	pickupReminderSent bool
	returnReminderSent bool

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a pending Booking priced by pricing. now decides which
// pickup dates count as past.
func NewBooking(
	customerID uuid.UUID,
	carID uuid.UUID,
	period Period,
	dailyRateCents int64,
	currency string,
	pricing PricingStrategy,
	now time.Time,
) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if carID == uuid.Nil {
		return nil, domain.NewValidationError("car ID is required")
	}
	if err := period.ValidateForNewBooking(now); err != nil {
		return nil, err
	}

	total, err := pricing.Calculate(period, dailyRateCents)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	ts := now.UTC()
	return &Booking{
		id:             uuid.New(),
		bookingNumber:  bookingNumber,
		customerID:     customerID,
		carID:          carID,
		status:         StatusPending,
		period:         period,
		dailyRateCents: dailyRateCents,
		totalCostCents: total,
		currency:       currency,
		version:        1,
		createdAt:      ts,
		updatedAt:      ts,
	}, nil
}

// Snapshot carries every persisted field of a Booking.
type Snapshot struct {
	ID                      uuid.UUID
	BookingNumber           string
	CustomerID              uuid.UUID
	CarID                   uuid.UUID
	Status                  BookingStatus
	Period                  Period
	DailyRateCents          int64
	TotalCostCents          int64
	Currency                string
	PayAtDesk               bool
	PaidAt                  *time.Time
	CancellationRequestedAt *time.Time
	CancelledAt             *time.Time
	CancelNote              string
	PickupReminderSent      bool
	ReturnReminderSent      bool
	Version                 int64
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s Snapshot) *Booking {
	return &Booking{
		id:                      s.ID,
		bookingNumber:           s.BookingNumber,
		customerID:              s.CustomerID,
		carID:                   s.CarID,
		status:                  s.Status,
		period:                  s.Period,
		dailyRateCents:          s.DailyRateCents,
		totalCostCents:          s.TotalCostCents,
		currency:                s.Currency,
		payAtDesk:               s.PayAtDesk,
		paidAt:                  s.PaidAt,
		cancellationRequestedAt: s.CancellationRequestedAt,
		cancelledAt:             s.CancelledAt,
		cancelNote:              s.CancelNote,
		pickupReminderSent:      s.PickupReminderSent,
		returnReminderSent:      s.ReturnReminderSent,
		version:                 s.Version,
		createdAt:               s.CreatedAt,
		updatedAt:               s.UpdatedAt,
	}
}

// Snapshot returns the persisted fields of the booking.
func (b *Booking) Snapshot() Snapshot {
	return Snapshot{
		ID:                      b.id,
		BookingNumber:           b.bookingNumber,
		CustomerID:              b.customerID,
		CarID:                   b.carID,
		Status:                  b.status,
		Period:                  b.period,
		DailyRateCents:          b.dailyRateCents,
		TotalCostCents:          b.totalCostCents,
		Currency:                b.currency,
		PayAtDesk:               b.payAtDesk,
		PaidAt:                  b.paidAt,
		CancellationRequestedAt: b.cancellationRequestedAt,
		CancelledAt:             b.cancelledAt,
		CancelNote:              b.cancelNote,
		PickupReminderSent:      b.pickupReminderSent,
		ReturnReminderSent:      b.returnReminderSent,
		Version:                 b.version,
		CreatedAt:               b.createdAt,
		UpdatedAt:               b.updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// CustomerID returns the renting customer's ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// CarID returns the rented car's ID.
func (b *Booking) CarID() uuid.UUID { return b.carID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Period returns the rental interval.
func (b *Booking) Period() Period { return b.period }

// DailyRateCents returns the car's daily rate at booking time.
func (b *Booking) DailyRateCents() int64 { return b.dailyRateCents }

// TotalCostCents returns the total price in cents.
func (b *Booking) TotalCostCents() int64 { return b.totalCostCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PayAtDesk reports whether the customer chose to pay in person.
func (b *Booking) PayAtDesk() bool { return b.payAtDesk }

// PaidAt returns when the booking was paid.
func (b *Booking) PaidAt() *time.Time { return b.paidAt }

// CancellationRequestedAt returns when the customer asked to cancel.
func (b *Booking) CancellationRequestedAt() *time.Time { return b.cancellationRequestedAt }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// PickupReminderSent reports whether the pickup reminder went out.
func (b *Booking) PickupReminderSent() bool { return b.pickupReminderSent }

// ReturnReminderSent reports whether the return reminder went out.
func (b *Booking) ReturnReminderSent() bool { return b.returnReminderSent }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsOwnedBy reports whether customerID made this booking.
func (b *Booking) IsOwnedBy(customerID uuid.UUID) bool { return b.customerID == customerID }

// --- Behavior ---

// MarkPaid transitions the booking from pending to paid.
func (b *Booking) MarkPaid(now time.Time) error {
	if !b.status.CanTransitionTo(StatusPaid) {
		return domain.NewInvalidStateError(string(b.status), string(StatusPaid))
	}
	ts := now.UTC()
	b.status = StatusPaid
	b.paidAt = &ts
	b.updatedAt = ts
	return nil
}

// ChoosePayAtDesk records that the customer will pay in person. The booking
// stays pending.
func (b *Booking) ChoosePayAtDesk() error {
	if b.status != StatusPending {
		return domain.NewInvalidStateMessage("only pending bookings can be paid at the desk")
	}
	b.payAtDesk = true
	b.updatedAt = time.Now().UTC()
	return nil
}

// RequestCancellation parks the booking until an administrator decides. The car
// stays reserved.
func (b *Booking) RequestCancellation(reason string, now time.Time) error {
	if !b.status.CanTransitionTo(StatusCancellationRequested) {
		return domain.NewInvalidStateMessage("this booking cannot be cancelled")
	}
	ts := now.UTC()
	b.status = StatusCancellationRequested
	b.cancellationRequestedAt = &ts
	if reason != "" {
		b.cancelNote = reason
	}
	b.updatedAt = ts
	return nil
}

// Cancel transitions the booking to cancelled, freeing the car.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateMessage("this booking cannot be cancelled")
	}
	ts := now.UTC()
	b.status = StatusCancelled
	b.cancelledAt = &ts
	if reason != "" {
		b.cancelNote = reason
	}
	b.updatedAt = ts
	return nil
}

// MarkPickupReminderSent records a delivered pickup reminder.
func (b *Booking) MarkPickupReminderSent() {
	b.pickupReminderSent = true
	b.updatedAt = time.Now().UTC()
}

// MarkReturnReminderSent records a delivered return reminder.
func (b *Booking) MarkReturnReminderSent() {
	b.returnReminderSent = true
	b.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
