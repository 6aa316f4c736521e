package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "rental.booking.events"
	TopicPaymentEvents = "rental.payment.events"
)

// Booking event types.
const (
	BookingCreated               = "rental.booking.created"
	BookingPaid                  = "rental.booking.paid"
	BookingPayAtDeskChosen       = "rental.booking.pay_at_desk_chosen"
	BookingCancellationRequested = "rental.booking.cancellation_requested"
	BookingCancelled             = "rental.booking.cancelled"
)

// Payment event types.
const (
	PaymentRecorded = "rental.payment.recorded"
	PaymentRefunded = "rental.payment.refunded"
)

// BookingEvent is the payload of every booking event.
type BookingEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	BookingNumber  string    `json:"booking_number"`
	CustomerID     uuid.UUID `json:"customer_id"`
	CarID          uuid.UUID `json:"car_id"`
	CarName        string    `json:"car_name,omitempty"`
	Status         string    `json:"status"`
	PickupDate     time.Time `json:"pickup_date"`
	ReturnDate     time.Time `json:"return_date"`
	TotalCostCents int64     `json:"total_cost_cents"`
	Currency       string    `json:"currency"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PaymentEvent is the payload of every payment event.
type PaymentEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}
