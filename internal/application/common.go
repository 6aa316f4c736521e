package application

import (
	"context"
	"time"

	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/driveease/service-rental/internal/common/kafka"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	"github.com/driveease/service-rental/internal/events"
	"go.uber.org/zap"
)

const eventSource = "service-rental"

// Policy holds the business settings shared by the booking and payment services.
type Policy struct {
	Currency         string
	Cancellation     bookingDomain.CancellationPolicy
	PaymentTxnPrefix string
	RefundTxnPrefix  string
	Location         *time.Location
}

// DefaultPolicy returns the settings used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Currency:         domain.CurrencyLKR,
		Cancellation:     bookingDomain.PolicyAdminApproval,
		PaymentTxnPrefix: "TXN",
		RefundTxnPrefix:  "RFD",
		Location:         time.UTC,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// eventPublisher wraps a kafka.Publisher. Failures are logged and never returned.
type eventPublisher struct {
	publisher kafka.Publisher
	logger    *zap.Logger
}

func (p eventPublisher) publish(ctx context.Context, topic, eventType, subject string, data interface{}) {
	if p.publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		p.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = subject

	if err := p.publisher.PublishEvent(ctx, topic, cloudEvent); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (p eventPublisher) booking(ctx context.Context, eventType string, bk *bookingDomain.Booking, carName, reason string, now time.Time) {
	evt := events.BookingEvent{
		BookingID:      bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		CustomerID:     bk.CustomerID(),
		CarID:          bk.CarID(),
		CarName:        carName,
		Status:         string(bk.Status()),
		PickupDate:     bk.Period().Pickup,
		ReturnDate:     bk.Period().Return,
		TotalCostCents: bk.TotalCostCents(),
		Currency:       bk.Currency(),
		Reason:         reason,
		OccurredAt:     now.UTC(),
	}
	p.publish(ctx, events.TopicBookingEvents, eventType, bk.ID().String(), evt)
}

func (p eventPublisher) payment(ctx context.Context, eventType string, pay *paymentDomain.Payment, bk *bookingDomain.Booking) {
	evt := events.PaymentEvent{
		PaymentID:     pay.ID(),
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		AmountCents:   pay.AmountCents(),
		Currency:      pay.Currency(),
		Method:        string(pay.Method()),
		TransactionID: pay.TransactionID(),
		OccurredAt:    pay.PaidAt(),
	}
	p.publish(ctx, events.TopicPaymentEvents, eventType, bk.ID().String(), evt)
}

func requireAdmin(p auth.Principal) error {
	if !p.IsAdmin() {
		return domain.NewForbiddenError("admin role required")
	}
	return nil
}

func requireCustomer(p auth.Principal) error {
	if !p.IsCustomer() {
		return domain.NewForbiddenError("customer role required")
	}
	return nil
}

// requireOwnerOrAdmin lets admins see everything and customers only their own bookings.
func requireOwnerOrAdmin(p auth.Principal, bk *bookingDomain.Booking) error {
	if p.IsAdmin() {
		return nil
	}
	if p.IsCustomer() && bk.IsOwnedBy(p.UserID) {
		return nil
	}
	return domain.NewForbiddenError("booking does not belong to this user")
}

func requireOwner(p auth.Principal, bk *bookingDomain.Booking) error {
	if !p.IsCustomer() || !bk.IsOwnedBy(p.UserID) {
		return domain.NewForbiddenError("booking does not belong to this user")
	}
	return nil
}
