package application

import (
	"context"
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
)

// paymentRecorder appends ledger entries and keeps the booking status in step
// with them. Every method must run inside a transaction.
type paymentRecorder struct {
	bookings bookingDomain.BookingRepository
	payments paymentDomain.PaymentRepository
	policy   Policy
}

func newPaymentRecorder(bookings bookingDomain.BookingRepository, payments paymentDomain.PaymentRepository, policy Policy) *paymentRecorder {
	return &paymentRecorder{bookings: bookings, payments: payments, policy: policy}
}

// recordPayment stores a completed charge and marks a pending booking paid.
func (r *paymentRecorder) recordPayment(ctx context.Context, bk *bookingDomain.Booking, amountCents int64, method paymentDomain.Method, now time.Time) (*paymentDomain.Payment, error) {
	if bk.Status() != bookingDomain.StatusPending {
		return nil, domain.NewInvalidStateMessage(fmt.Sprintf("booking %s is not awaiting payment", bk.BookingNumber()))
	}

	txnID, err := paymentDomain.GenerateTransactionID(r.policy.PaymentTxnPrefix, now)
	if err != nil {
		return nil, err
	}
	p, err := paymentDomain.NewCharge(bk.ID(), amountCents, bk.Currency(), method, txnID, now)
	if err != nil {
		return nil, err
	}
	if err := r.payments.Save(ctx, p); err != nil {
		return nil, err
	}

	if err := r.markPaid(ctx, bk, now); err != nil {
		return nil, err
	}
	return p, nil
}

// markPaid moves a pending booking to paid. A booking that is already paid is
// left untouched.
func (r *paymentRecorder) markPaid(ctx context.Context, bk *bookingDomain.Booking, now time.Time) error {
	if bk.Status() == bookingDomain.StatusPaid {
		return nil
	}
	if err := bk.MarkPaid(now); err != nil {
		return err
	}
	bk.IncrementVersion()
	return r.bookings.Update(ctx, bk)
}

// recordRefund cancels the booking and, when money was taken, appends a
// negative entry that brings the booking's net paid back to zero. It returns
// nil for the payment when nothing had been paid.
func (r *paymentRecorder) recordRefund(ctx context.Context, bk *bookingDomain.Booking, method paymentDomain.Method, reason string, now time.Time) (*paymentDomain.Payment, error) {
	if err := bk.Cancel(reason, now); err != nil {
		return nil, err
	}
	bk.IncrementVersion()
	if err := r.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	netPaid, err := r.payments.NetPaidForBooking(ctx, bk.ID())
	if err != nil {
		return nil, err
	}
	if netPaid <= 0 {
		return nil, nil
	}

	txnID, err := paymentDomain.GenerateTransactionID(r.policy.RefundTxnPrefix, now)
	if err != nil {
		return nil, err
	}
	refund, err := paymentDomain.NewRefund(bk.ID(), netPaid, bk.Currency(), method, txnID, now)
	if err != nil {
		return nil, err
	}
	if err := r.payments.Save(ctx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}
