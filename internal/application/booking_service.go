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
	carDomain "github.com/driveease/service-rental/internal/domain/car"
	customerDomain "github.com/driveease/service-rental/internal/domain/customer"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	"github.com/driveease/service-rental/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CarID      uuid.UUID `json:"car_id" binding:"required"`
	PickupDate time.Time `json:"pickup_date" binding:"required"`
	ReturnDate time.Time `json:"return_date" binding:"required"`
}

// AdminBookingRequest creates a booking that is paid on the spot.
type AdminBookingRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
	CarID      uuid.UUID `json:"car_id" binding:"required"`
	PickupDate time.Time `json:"pickup_date" binding:"required"`
	ReturnDate time.Time `json:"return_date" binding:"required"`
	Method     string    `json:"method" binding:"required,oneof=card cash"`
}

// CancelRequest carries an optional reason.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// AdminBookingResult is a booking created by an administrator with its payment.
type AdminBookingResult struct {
	Booking BookingDTO `json:"booking"`
	Payment PaymentDTO `json:"payment"`
}

// CancellationResult is the outcome of a cancel action. Refund is set when money
// was returned.
type CancellationResult struct {
	Booking BookingDTO  `json:"booking"`
	Refund  *PaymentDTO `json:"refund,omitempty"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	cars         carDomain.CarRepository
	bookings     bookingDomain.BookingRepository
	customers    customerDomain.CustomerRepository
	availability *AvailabilityService
	recorder     *paymentRecorder
	pricing      bookingDomain.PricingStrategy
	tx           database.Transactor
	events       eventPublisher
	policy       Policy
	logger       *zap.Logger
	now          clock
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	cars carDomain.CarRepository,
	bookings bookingDomain.BookingRepository,
	customers customerDomain.CustomerRepository,
	payments paymentDomain.PaymentRepository,
	availability *AvailabilityService,
	pricing bookingDomain.PricingStrategy,
	tx database.Transactor,
	publisher kafka.Publisher,
	policy Policy,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		cars:         cars,
		bookings:     bookings,
		customers:    customers,
		availability: availability,
		recorder:     newPaymentRecorder(bookings, payments, policy),
		pricing:      pricing,
		tx:           tx,
		events:       eventPublisher{publisher: publisher, logger: logger},
		policy:       policy,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateBooking reserves a car for the calling customer. The availability check
// and the insert share one transaction under the car's row lock.
func (s *BookingService) CreateBooking(ctx context.Context, p auth.Principal, req CreateBookingRequest) (*BookingDTO, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	bk, car, err := s.reserve(ctx, p.UserID, req.CarID, req.PickupDate, req.ReturnDate, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("car_id", car.ID().String()),
		zap.Int64("total_cost_cents", bk.TotalCostCents()),
	)
	s.events.booking(ctx, events.BookingCreated, bk, car.Name(), "", s.now())

	result := toBookingDTO(bk)
	return &result, nil
}

// CreateAdminBooking books a car on behalf of a customer and records its full
// payment in the same transaction. The booking is created paid.
func (s *BookingService) CreateAdminBooking(ctx context.Context, p auth.Principal, req AdminBookingRequest) (*AdminBookingResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	method := paymentDomain.Method(req.Method)
	if method != paymentDomain.MethodCard && method != paymentDomain.MethodCash {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid payment method: %s", req.Method))
	}
	if _, err := s.customers.FindByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	var pay *paymentDomain.Payment
	bk, car, err := s.reserve(ctx, req.CustomerID, req.CarID, req.PickupDate, req.ReturnDate,
		func(ctx context.Context, bk *bookingDomain.Booking) error {
			var err error
			pay, err = s.recorder.recordPayment(ctx, bk, bk.TotalCostCents(), method, s.now())
			return err
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("admin_id", p.UserID.String()),
		zap.String("transaction_id", pay.TransactionID()),
	)
	s.events.booking(ctx, events.BookingPaid, bk, car.Name(), "", s.now())
	s.events.payment(ctx, events.PaymentRecorded, pay, bk)

	return &AdminBookingResult{Booking: toBookingDTO(bk), Payment: toPaymentDTO(pay)}, nil
}

// reserve validates the dates, re-checks availability under the car lock and
// saves a pending booking. then runs in the same transaction when set.
func (s *BookingService) reserve(
	ctx context.Context,
	customerID, carID uuid.UUID,
	pickup, ret time.Time,
	then func(ctx context.Context, bk *bookingDomain.Booking) error,
) (*bookingDomain.Booking, *carDomain.Car, error) {
	period, err := bookingDomain.NewPeriod(pickup, ret)
	if err != nil {
		return nil, nil, err
	}
	now := s.now().In(s.policy.location())
	if err := period.ValidateForNewBooking(now); err != nil {
		return nil, nil, err
	}

	var (
		bk  *bookingDomain.Booking
		car *carDomain.Car
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.cars.FindByIDForUpdate(ctx, carID)
		if err != nil {
			return err
		}

		res, err := s.availability.evaluate(ctx, c, period, uuid.Nil)
		if err != nil {
			return err
		}
		if !res.Available {
			return domain.NewConflictError(res.Reason)
		}

		b, err := bookingDomain.NewBooking(customerID, c.ID(), period, c.DailyRateCents(), c.Currency(), s.pricing, now)
		if err != nil {
			return err
		}
		if err := s.bookings.Save(ctx, b); err != nil {
			return err
		}
		if then != nil {
			if err := then(ctx, b); err != nil {
				return err
			}
		}
		bk, car = b, c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return bk, car, nil
}

// RequestCancellation is the customer's cancel action. Under the admin approval
// policy the booking waits in cancellation_requested and keeps the car; under
// the direct policy it is cancelled and refunded at once.
func (s *BookingService) RequestCancellation(ctx context.Context, p auth.Principal, bookingID uuid.UUID, reason string) (*CancellationResult, error) {
	if err := requireCustomer(p); err != nil {
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
		if err := requireOwner(p, b); err != nil {
			return err
		}

		if s.policy.Cancellation == bookingDomain.PolicyDirect {
			refund, err = s.recorder.recordRefund(ctx, b, paymentDomain.MethodDirectRefund, reason, now)
			if err != nil {
				return err
			}
		} else {
			if err := b.RequestCancellation(reason, now); err != nil {
				return err
			}
			b.IncrementVersion()
			if err := s.bookings.Update(ctx, b); err != nil {
				return err
			}
		}
		bk = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CancellationResult{Booking: toBookingDTO(bk)}
	if bk.Status() == bookingDomain.StatusCancelled {
		s.events.booking(ctx, events.BookingCancelled, bk, "", reason, now)
	} else {
		s.events.booking(ctx, events.BookingCancellationRequested, bk, "", reason, now)
	}
	if refund != nil {
		s.events.payment(ctx, events.PaymentRefunded, refund, bk)
		dto := toPaymentDTO(refund)
		result.Refund = &dto
	}

	s.logger.Info("booking cancellation requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("policy", string(s.policy.Cancellation)),
		zap.String("status", string(bk.Status())),
	)
	return result, nil
}

// AdminCancel cancels a pending booking outright. Paid bookings go through the
// refund approval flow instead.
func (s *BookingService) AdminCancel(ctx context.Context, p auth.Principal, bookingID uuid.UUID, reason string) (*CancellationResult, error) {
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
		if b.Status() != bookingDomain.StatusPending {
			return domain.NewInvalidStateMessage("this booking cannot be cancelled")
		}
		refund, err = s.recorder.recordRefund(ctx, b, paymentDomain.MethodAdminApprovedRefund, reason, now)
		if err != nil {
			return err
		}
		bk = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.booking(ctx, events.BookingCancelled, bk, "", reason, now)
	result := &CancellationResult{Booking: toBookingDTO(bk)}
	if refund != nil {
		s.events.payment(ctx, events.PaymentRefunded, refund, bk)
		dto := toPaymentDTO(refund)
		result.Refund = &dto
	}
	return result, nil
}

// GetBooking retrieves a single booking visible to the caller.
func (s *BookingService) GetBooking(ctx context.Context, p auth.Principal, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(p, bk); err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListMyBookings returns the caller's booking history, latest pickup first.
func (s *BookingService) ListMyBookings(ctx context.Context, p auth.Principal, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	bookings, total, err := s.bookings.FindByCustomerID(ctx, p.UserID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings, optionally filtered by status.
func (s *BookingService) ListAllBookings(ctx context.Context, p auth.Principal, status string, page, limit int) ([]BookingDTO, int64, error) {
	if err := requireAdmin(p); err != nil {
		return nil, 0, err
	}

	var filter *bookingDomain.BookingStatus
	if status != "" {
		st, err := bookingDomain.ParseBookingStatus(status)
		if err != nil {
			return nil, 0, domain.NewValidationError(err.Error())
		}
		filter = &st
	}

	bookings, total, err := s.bookings.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics.
func (s *BookingService) GetBookingStats(ctx context.Context, p auth.Principal) (*BookingStatsDTO, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}
