package application

import (
	"context"
	"fmt"
	"time"

	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	carDomain "github.com/driveease/service-rental/internal/domain/car"
	customerDomain "github.com/driveease/service-rental/internal/domain/customer"
	"go.uber.org/zap"
)

// ReminderSummary counts the outcome of one sweep.
type ReminderSummary struct {
	PickupReminders int `json:"pickup_reminders"`
	ReturnReminders int `json:"return_reminders"`
	Failed          int `json:"failed"`
}

// ReminderService sends pickup and return reminders for the current day.
type ReminderService struct {
	bookings  bookingDomain.BookingRepository
	customers customerDomain.CustomerRepository
	cars      carDomain.CarRepository
	mailer    Mailer
	sms       SMSSender
	location  *time.Location
	logger    *zap.Logger
	now       clock
}

// NewReminderService creates a new ReminderService. sms may be nil.
func NewReminderService(
	bookings bookingDomain.BookingRepository,
	customers customerDomain.CustomerRepository,
	cars carDomain.CarRepository,
	mailer Mailer,
	sms SMSSender,
	location *time.Location,
	logger *zap.Logger,
) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	return &ReminderService{
		bookings:  bookings,
		customers: customers,
		cars:      cars,
		mailer:    mailer,
		sms:       sms,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// SendDueReminders notifies customers whose pickup or return falls today. A
// booking is flagged only after a reminder reached the customer, so a failed
// send is retried by the next sweep.
func (s *ReminderService) SendDueReminders(ctx context.Context) (*ReminderSummary, error) {
	from, to := bookingDomain.DayBounds(s.now().In(s.location))
	summary := &ReminderSummary{}

	pickups, err := s.bookings.FindPickupsDue(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to find due pickups: %w", err)
	}
	for _, bk := range pickups {
		sent := s.remind(ctx, bk, "Pickup reminder",
			"your rental of %s (booking %s) starts today at %s. Please bring your driving licence.",
			bk.Period().Pickup)
		if !sent {
			summary.Failed++
			continue
		}
		bk.MarkPickupReminderSent()
		if err := s.save(ctx, bk); err != nil {
			summary.Failed++
			continue
		}
		summary.PickupReminders++
	}

	returns, err := s.bookings.FindReturnsDue(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to find due returns: %w", err)
	}
	for _, bk := range returns {
		sent := s.remind(ctx, bk, "Return reminder",
			"your rental of %s (booking %s) ends today at %s. Please return the car on time.",
			bk.Period().Return)
		if !sent {
			summary.Failed++
			continue
		}
		bk.MarkReturnReminderSent()
		if err := s.save(ctx, bk); err != nil {
			summary.Failed++
			continue
		}
		summary.ReturnReminders++
	}

	s.logger.Info("reminder sweep finished",
		zap.Int("pickup_reminders", summary.PickupReminders),
		zap.Int("return_reminders", summary.ReturnReminders),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// remind reports whether at least one channel delivered the message.
func (s *ReminderService) remind(ctx context.Context, bk *bookingDomain.Booking, subject, format string, at time.Time) bool {
	c, err := s.customers.FindByID(ctx, bk.CustomerID())
	if err != nil {
		s.logger.Warn("reminder skipped, customer lookup failed",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return false
	}
	carName := "your car"
	if car, err := s.cars.FindByID(ctx, bk.CarID()); err == nil {
		carName = car.Name()
	}

	text := fmt.Sprintf("Hello %s, "+format, c.Name(), carName, bk.BookingNumber(), at.In(s.location).Format("15:04"))
	delivered := false

	if s.mailer != nil {
		if err := s.mailer.SendEmail(ctx, c.Email(), c.Name(), subject, text); err != nil {
			s.logger.Warn("reminder e-mail failed", zap.String("booking_id", bk.ID().String()), zap.Error(err))
		} else {
			delivered = true
		}
	}
	if s.sms != nil && c.Phone() != "" {
		if err := s.sms.SendSMS(ctx, c.Phone(), text); err != nil {
			s.logger.Warn("reminder sms failed", zap.String("booking_id", bk.ID().String()), zap.Error(err))
		} else {
			delivered = true
		}
	}
	return delivered
}

func (s *ReminderService) save(ctx context.Context, bk *bookingDomain.Booking) error {
	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		s.logger.Warn("failed to flag reminder as sent",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
