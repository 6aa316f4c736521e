package application

import (
	"context"
	"time"

	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/database"
	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/driveease/service-rental/internal/common/kafka"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	"github.com/driveease/service-rental/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalResult is the outcome of an administrator decision on a booking.
type ApprovalResult struct {
	Booking BookingDTO  `json:"booking"`
	Payment *PaymentDTO `json:"payment,omitempty"`
}

// AdminApprovalService turns cancellation requests into refunds and desk
// payments into recorded charges.
type AdminApprovalService struct {
	bookings bookingDomain.BookingRepository
	recorder *paymentRecorder
	tx       database.Transactor
	events   eventPublisher
	logger   *zap.Logger
	now      clock
}

// NewAdminApprovalService creates a new AdminApprovalService.
func NewAdminApprovalService(
	bookings bookingDomain.BookingRepository,
	payments paymentDomain.PaymentRepository,
	tx database.Transactor,
	publisher kafka.Publisher,
	policy Policy,
	logger *zap.Logger,
) *AdminApprovalService {
	return &AdminApprovalService{
		bookings: bookings,
		recorder: newPaymentRecorder(bookings, payments, policy),
		tx:       tx,
		events:   eventPublisher{publisher: publisher, logger: logger},
		logger:   logger,
		now:      time.Now,
	}
}

// ListCancellationRequests returns bookings awaiting a refund decision.
func (s *AdminApprovalService) ListCancellationRequests(ctx context.Context, p auth.Principal, page, limit int) ([]BookingDTO, int64, error) {
	if err := requireAdmin(p); err != nil {
		return nil, 0, err
	}
	status := bookingDomain.StatusCancellationRequested
	bookings, total, err := s.bookings.ListAll(ctx, &status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toBookingDTOs(bookings), total, nil
}

// ApproveRefund cancels a booking in cancellation_requested and refunds what
// was paid. The status is re-read inside the transaction, so a second approval
// finds nothing to approve.
func (s *AdminApprovalService) ApproveRefund(ctx context.Context, p auth.Principal, bookingID uuid.UUID) (*ApprovalResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var (
		bk     *bookingDomain.Booking
		refund *paymentDomain.Payment
	)
	now := s.now()
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status() != bookingDomain.StatusCancellationRequested {
			return domain.NewNotFoundError("Cancellation request", bookingID.String())
		}
		refund, err = s.recorder.recordRefund(ctx, b, paymentDomain.MethodAdminApprovedRefund, "", now)
		if err != nil {
			return err
		}
		bk = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund approved",
		zap.String("booking_id", bk.ID().String()),
		zap.String("admin_id", p.UserID.String()),
		zap.Bool("refunded", refund != nil),
	)
	s.events.booking(ctx, events.BookingCancelled, bk, "", bk.CancelNote(), now)

	result := &ApprovalResult{Booking: toBookingDTO(bk)}
	if refund != nil {
		s.events.payment(ctx, events.PaymentRefunded, refund, bk)
		dto := toPaymentDTO(refund)
		result.Payment = &dto
	}
	return result, nil
}

// ConfirmInPersonPayment records the desk payment of a pending booking and marks
// it paid. The car stays reserved throughout.
func (s *AdminApprovalService) ConfirmInPersonPayment(ctx context.Context, p auth.Principal, bookingID uuid.UUID) (*ApprovalResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var (
		bk  *bookingDomain.Booking
		pay *paymentDomain.Payment
	)
	now := s.now()
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		pay, err = s.recorder.recordPayment(ctx, b, b.TotalCostCents(), paymentDomain.MethodCash, now)
		if err != nil {
			return err
		}
		bk = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("desk payment confirmed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("transaction_id", pay.TransactionID()),
	)
	s.events.booking(ctx, events.BookingPaid, bk, "", "", now)
	s.events.payment(ctx, events.PaymentRecorded, pay, bk)

	dto := toPaymentDTO(pay)
	return &ApprovalResult{Booking: toBookingDTO(bk), Payment: &dto}, nil
}
