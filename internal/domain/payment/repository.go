package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines persistence for the append-only payment ledger.
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error)
	NetPaidForBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
	ListAll(ctx context.Context, page, limit int) ([]*Payment, int64, error)
}
