package events

import (
	"context"
	"fmt"

	"github.com/driveease/service-rental/internal/common/kafka"
	customerDomain "github.com/driveease/service-rental/internal/domain/customer"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mailer delivers a single e-mail.
type Mailer interface {
	SendEmail(ctx context.Context, toAddress, toName, subject, body string) error
}

// NotificationConsumer listens to booking and payment events and e-mails the
// customer concerned. Delivery is best effort: every message is committed.
type NotificationConsumer struct {
	bookingConsumer *kafka.Consumer
	paymentConsumer *kafka.Consumer
	customers       customerDomain.CustomerRepository
	mailer          Mailer
	logger          *zap.Logger
}

// NewNotificationConsumer creates a NotificationConsumer.
func NewNotificationConsumer(
	brokers []string,
	groupID string,
	customers customerDomain.CustomerRepository,
	mailer Mailer,
	logger *zap.Logger,
) *NotificationConsumer {
	return &NotificationConsumer{
		bookingConsumer: kafka.NewConsumer(brokers, groupID, TopicBookingEvents, logger),
		paymentConsumer: kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger),
		customers:       customers,
		mailer:          mailer,
		logger:          logger,
	}
}

// Start consumes both topics. It blocks until ctx is cancelled or a reader fails.
func (c *NotificationConsumer) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.bookingConsumer.Consume(ctx, c.HandleMessage) })
	g.Go(func() error { return c.paymentConsumer.Consume(ctx, c.HandleMessage) })
	return g.Wait()
}

// Close closes the underlying Kafka readers.
func (c *NotificationConsumer) Close() error {
	bookingErr := c.bookingConsumer.Close()
	if err := c.paymentConsumer.Close(); err != nil {
		return err
	}
	return bookingErr
}

// HandleMessage turns one event into an e-mail. It never returns an error so
// that a failing mail provider cannot stall the partition.
func (c *NotificationConsumer) HandleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event",
			zap.String("topic", msg.Topic),
			zap.Error(err),
		)
		return nil // Don't retry malformed messages
	}

	var n *notice
	switch cloudEvent.Type {
	case BookingCreated, BookingPaid, BookingPayAtDeskChosen, BookingCancellationRequested, BookingCancelled:
		var evt BookingEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse booking event data", zap.Error(err))
			return nil
		}
		n = bookingNotice(cloudEvent.Type, evt)
	case PaymentRecorded, PaymentRefunded:
		var evt PaymentEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse payment event data", zap.Error(err))
			return nil
		}
		n = paymentNotice(cloudEvent.Type, evt)
	default:
		c.logger.Debug("ignoring unhandled event type", zap.String("type", cloudEvent.Type))
		return nil
	}

	c.deliver(ctx, cloudEvent.Type, n)
	return nil
}

func (c *NotificationConsumer) deliver(ctx context.Context, eventType string, n *notice) {
	customer, err := c.customers.FindByID(ctx, n.customerID)
	if err != nil {
		c.logger.Warn("notification skipped, customer lookup failed",
			zap.String("event_type", eventType),
			zap.String("customer_id", n.customerID.String()),
			zap.Error(err),
		)
		return
	}

	body := fmt.Sprintf("Hello %s,\n\n%s\n\nThank you for renting with us.", customer.Name(), n.body)
	if err := c.mailer.SendEmail(ctx, customer.Email(), customer.Name(), n.subject, body); err != nil {
		c.logger.Warn("notification e-mail failed",
			zap.String("event_type", eventType),
			zap.String("customer_id", n.customerID.String()),
			zap.Error(err),
		)
		return
	}

	c.logger.Info("notification sent",
		zap.String("event_type", eventType),
		zap.String("customer_id", n.customerID.String()),
	)
}
