package application

import (
	"context"
	"fmt"
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

// CardPaymentRequest is the card data submitted at checkout.
type CardPaymentRequest struct {
	HolderName string `json:"holder_name" binding:"required"`
	Number     string `json:"card_number" binding:"required,card_number"`
	Expiry     string `json:"expiry" binding:"required,card_expiry"`
	CVC        string `json:"cvc" binding:"required,cvc"`
}

// PaymentService handles customer-facing payment use cases.
type PaymentService struct {
	bookings bookingDomain.BookingRepository
	payments paymentDomain.PaymentRepository
	recorder *paymentRecorder
	gateway  paymentDomain.CardGateway
	tx       database.Transactor
	events   eventPublisher
	logger   *zap.Logger
	now      clock
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	bookings bookingDomain.BookingRepository,
	payments paymentDomain.PaymentRepository,
	gateway paymentDomain.CardGateway,
	tx database.Transactor,
	publisher kafka.Publisher,
	policy Policy,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		bookings: bookings,
		payments: payments,
		recorder: newPaymentRecorder(bookings, payments, policy),
		gateway:  gateway,
		tx:       tx,
		events:   eventPublisher{publisher: publisher, logger: logger},
		logger:   logger,
		now:      time.Now,
	}
}

// PayByCard charges the booking total to a card and marks the booking paid. A
// declined card records nothing.
func (s *PaymentService) PayByCard(ctx context.Context, p auth.Principal, bookingID uuid.UUID, req CardPaymentRequest) (*PaymentDTO, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	card := paymentDomain.Card{
		HolderName: req.HolderName,
		Number:     req.Number,
		Expiry:     req.Expiry,
		CVC:        req.CVC,
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, bk); err != nil {
		return nil, err
	}
	if bk.Status() != bookingDomain.StatusPending {
		return nil, domain.NewInvalidStateMessage(fmt.Sprintf("booking %s is not awaiting payment", bk.BookingNumber()))
	}

	if err := s.gateway.Charge(ctx, card, bk.TotalCostCents(), bk.Currency()); err != nil {
		s.logger.Warn("card charge declined",
			zap.String("booking_id", bk.ID().String()),
			zap.String("card_last4", card.Last4()),
			zap.Error(err),
		)
		return nil, err
	}

	var pay *paymentDomain.Payment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		pay, err = s.recorder.recordPayment(ctx, current, current.TotalCostCents(), paymentDomain.MethodCard, s.now())
		bk = current
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("card payment recorded",
		zap.String("booking_id", bk.ID().String()),
		zap.String("transaction_id", pay.TransactionID()),
	)
	s.events.booking(ctx, events.BookingPaid, bk, "", "", s.now())
	s.events.payment(ctx, events.PaymentRecorded, pay, bk)

	result := toPaymentDTO(pay)
	return &result, nil
}

// ChoosePayAtDesk records that the customer will pay in person. The booking
// stays pending and keeps the car until an administrator confirms the payment.
func (s *PaymentService) ChoosePayAtDesk(ctx context.Context, p auth.Principal, bookingID uuid.UUID) (*BookingDTO, error) {
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
	if err := bk.ChoosePayAtDesk(); err != nil {
		return nil, err
	}
	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.events.booking(ctx, events.BookingPayAtDeskChosen, bk, "", "", s.now())
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookingPayments returns the ledger of one booking.
func (s *PaymentService) ListBookingPayments(ctx context.Context, p auth.Principal, bookingID uuid.UUID) ([]PaymentDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(p, bk); err != nil {
		return nil, err
	}
	payments, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return toPaymentDTOs(payments), nil
}

// ListAllPayments returns every ledger entry, newest first.
func (s *PaymentService) ListAllPayments(ctx context.Context, p auth.Principal, page, limit int) ([]PaymentDTO, int64, error) {
	if err := requireAdmin(p); err != nil {
		return nil, 0, err
	}
	payments, total, err := s.payments.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return toPaymentDTOs(payments), total, nil
}
