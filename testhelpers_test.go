//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/driveease/service-rental/internal/application"
	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/database"
	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/driveease/service-rental/internal/common/health"
	"github.com/driveease/service-rental/internal/common/kafka"
	"github.com/driveease/service-rental/internal/common/middleware"
	"github.com/driveease/service-rental/internal/common/validation"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	"github.com/driveease/service-rental/internal/handler"
	"github.com/driveease/service-rental/internal/repository"
	"github.com/driveease/service-rental/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-pass"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB      *gorm.DB
	Cleanup func()
}

// rentalStack holds the wired-up services and HTTP router.
type rentalStack struct {
	DB          *gorm.DB
	Bookings    *application.BookingService
	Payments    *application.PaymentService
	Approvals   *application.AdminApprovalService
	Cars        *application.CarService
	Accounts    *application.AccountService
	Reports     *application.ReportService
	Reminders   *application.ReminderService
	BookingRepo *repository.GormBookingRepository
	PaymentRepo *repository.GormPaymentRepository
	Router      *gin.Engine
	Admin       auth.Principal
	Mailer      *captureMailer
	Location    *time.Location
}

// captureMailer records e-mails instead of sending them.
type captureMailer struct {
	mu   sync.Mutex
	sent []capturedMail
}

type capturedMail struct {
	To, Subject, Body string
}

func (m *captureMailer) SendEmail(_ context.Context, to, _, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, capturedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.Subject
	}
	return out
}

// setupPostgres starts a PostgreSQL container and applies the migrations.
func setupPostgres(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_rental",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Int(),
		User:     "test",
		Password: "test",
		DBName:   "test_rental",
		SSLMode:  "disable",
	}

	// Poll until gorm can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, zap.NewNop())
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), "migrations", zap.NewNop()))

	return &testInfra{
		DB: db,
		Cleanup: func() {
			if err := pgContainer.Terminate(ctx); err != nil {
				t.Logf("failed to terminate PostgreSQL container: %v", err)
			}
		},
	}
}

// setupKafka starts a Kafka container with the rental topics created.
func setupKafka(t *testing.T) ([]string, func()) {
	t.Helper()
	ctx := context.Background()

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers, "rental.booking.events", "rental.payment.events")

	return brokers, func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	}
}

// setupRentalStack wires every service the way cmd/server does.
func setupRentalStack(t *testing.T, db *gorm.DB, publisher kafka.Publisher) *rentalStack {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	require.NoError(t, validation.RegisterBindingTags())

	location, err := time.LoadLocation("Asia/Colombo")
	require.NoError(t, err)
	policy := application.DefaultPolicy()
	policy.Location = location

	if publisher == nil {
		publisher = kafka.NewNopPublisher(logger)
	}
	mailer := &captureMailer{}
	jwtManager := auth.NewJWTManager("integration-secret", 15*time.Minute, 24*time.Hour)
	images, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	carRepo := repository.NewGormCarRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	customerRepo := repository.NewGormCustomerRepository(db)
	adminRepo := repository.NewGormAdminRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	feedbackRepo := repository.NewGormFeedbackRepository(db)
	reportRepo := repository.NewGormReportRepository(db)
	transactor := database.NewGormTransactor(db)

	availability := application.NewAvailabilityService(carRepo, bookingRepo, location)
	stack := &rentalStack{
		DB:          db,
		BookingRepo: bookingRepo,
		PaymentRepo: paymentRepo,
		Mailer:      mailer,
		Location:    location,
	}
	stack.Bookings = application.NewBookingService(carRepo, bookingRepo, customerRepo, paymentRepo,
		availability, bookingDomain.NewDailyRatePricing(), transactor, publisher, policy, logger)
	stack.Payments = application.NewPaymentService(bookingRepo, paymentRepo,
		paymentDomain.NewSimulatedGateway("0000"), transactor, publisher, policy, logger)
	stack.Approvals = application.NewAdminApprovalService(bookingRepo, paymentRepo, transactor, publisher, policy, logger)
	stack.Cars = application.NewCarService(carRepo, bookingRepo, images, nil, policy.Currency, logger)
	stack.Accounts = application.NewAccountService(customerRepo, adminRepo, bookingRepo, jwtManager, mailer, "http://localhost:3000", logger)
	stack.Reports = application.NewReportService(reportRepo, policy)
	stack.Reminders = application.NewReminderService(bookingRepo, customerRepo, carRepo, mailer, nil, location, logger)
	feedback := application.NewFeedbackService(feedbackRepo, bookingRepo, logger)

	require.NoError(t, stack.Accounts.SeedAdmin(ctx, adminUsername, adminPassword))
	login, err := stack.Accounts.Login(ctx, application.LoginRequest{Username: adminUsername, Password: adminPassword})
	require.NoError(t, err)
	stack.Admin = auth.Principal{UserID: login.UserID, Username: login.Username, Role: login.Role}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.RequestIDMiddleware())
	health.NewHandler(db, "service-rental").RegisterRoutes(router)
	handler.NewAuthHandler(stack.Accounts).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewCarHandler(stack.Cars, availability, feedback, location).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewBookingHandler(stack.Bookings, stack.Payments, feedback, location).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminHandler(handler.AdminServices{
		Bookings:  stack.Bookings,
		Approvals: stack.Approvals,
		Payments:  stack.Payments,
		Accounts:  stack.Accounts,
		Reports:   stack.Reports,
		Feedback:  feedback,
		Reminders: stack.Reminders,
	}, location).RegisterRoutes(&router.RouterGroup, jwtManager)
	stack.Router = router

	return stack
}

// createCar adds an enabled car with a unique registration number.
func createCar(t *testing.T, s *rentalStack, rateCents int64) *application.CarDTO {
	t.Helper()
	car, err := s.Cars.CreateCar(context.Background(), application.CarRequest{
		Name:               "Toyota Axio",
		Model:              "2018",
		FuelType:           "hybrid",
		Transmission:       "automatic",
		Seats:              5,
		RegistrationNumber: "CA-" + uuid.NewString()[:8],
		DailyRateCents:     rateCents,
	})
	require.NoError(t, err)
	return car
}

// registerCustomer creates a customer account and returns its principal.
func registerCustomer(t *testing.T, s *rentalStack, username string) auth.Principal {
	t.Helper()
	c, err := s.Accounts.Register(context.Background(), application.RegisterRequest{
		Username: username,
		Password: "s3cret!",
		ProfileRequest: application.ProfileRequest{
			Name:          "Customer " + username,
			Email:         username + "@example.com",
			Phone:         "+94771234567",
			NIC:           "199012345678",
			LicenceNumber: "B1234567",
		},
	})
	require.NoError(t, err)
	return auth.Principal{UserID: c.ID, Username: c.Username, Role: auth.RoleCustomer}
}

// localDay returns midnight of today plus offset days in loc.
func localDay(loc *time.Location, offset int) time.Time {
	y, m, d := time.Now().In(loc).Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
}

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.True(t, domain.HasCode(err, code), "expected %s, got %v", code, err)
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
