package application

import (
	"context"
	"testing"
	"time"

	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/domain"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	carDomain "github.com/driveease/service-rental/internal/domain/car"
	customerDomain "github.com/driveease/service-rental/internal/domain/customer"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

type testEnv struct {
	store     *memStore
	cars      memCarRepo
	bookings  memBookingRepo
	payments  memPaymentRepo
	customers memCustomerRepo
	admins    memAdminRepo
	feedback  memFeedbackRepo

	publisher *recordingPublisher
	mailer    *fakeMailer
	images    *memImageStore

	availability *AvailabilityService
	bookingSvc   *BookingService
	paymentSvc   *PaymentService
	approvalSvc  *AdminApprovalService
	feedbackSvc  *FeedbackService
	accountSvc   *AccountService
	carSvc       *CarService

	admin auth.Principal
}

func newTestEnv(t *testing.T, policy Policy) *testEnv {
	t.Helper()
	store := newMemStore()
	env := &testEnv{
		store:     store,
		cars:      memCarRepo{store},
		bookings:  memBookingRepo{store},
		payments:  memPaymentRepo{store},
		customers: memCustomerRepo{store},
		admins:    memAdminRepo{store},
		feedback:  memFeedbackRepo{store},
		publisher: &recordingPublisher{},
		mailer:    &fakeMailer{},
		images:    &memImageStore{},
		admin:     auth.Principal{UserID: uuid.New(), Username: "admin", Role: auth.RoleAdmin},
	}
	tx := &memTransactor{store: store}
	logger := zap.NewNop()
	clockFn := func() time.Time { return testNow }

	env.availability = NewAvailabilityService(env.cars, env.bookings, policy.location())
	env.availability.now = clockFn

	env.bookingSvc = NewBookingService(env.cars, env.bookings, env.customers, env.payments,
		env.availability, bookingDomain.NewDailyRatePricing(), tx, env.publisher, policy, logger)
	env.bookingSvc.now = clockFn

	env.paymentSvc = NewPaymentService(env.bookings, env.payments,
		paymentDomain.NewSimulatedGateway("0000"), tx, env.publisher, policy, logger)
	env.paymentSvc.now = clockFn

	env.approvalSvc = NewAdminApprovalService(env.bookings, env.payments, tx, env.publisher, policy, logger)
	env.approvalSvc.now = clockFn

	env.feedbackSvc = NewFeedbackService(env.feedback, env.bookings, logger)
	env.feedbackSvc.now = clockFn

	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	env.accountSvc = NewAccountService(env.customers, env.admins, env.bookings, jwtManager, env.mailer, "http://localhost:3000/", logger)
	env.accountSvc.now = clockFn

	env.carSvc = NewCarService(env.cars, env.bookings, env.images, nil, domain.CurrencyLKR, logger)
	return env
}

func testPolicy() Policy {
	p := DefaultPolicy()
	p.Location = time.UTC
	return p
}

func carSpec(registration string) carDomain.Specification {
	return carDomain.Specification{
		Name:               "Toyota Axio",
		Model:              "2018",
		FuelType:           carDomain.FuelHybrid,
		Transmission:       carDomain.TransmissionAutomatic,
		Seats:              5,
		RegistrationNumber: registration,
	}
}

func (e *testEnv) addCar(t *testing.T, rateCents int64) *carDomain.Car {
	t.Helper()
	c, err := carDomain.NewCar(carSpec("CAB-"+uuid.NewString()[:4]), rateCents, domain.CurrencyLKR)
	require.NoError(t, err)
	require.NoError(t, e.cars.Save(context.Background(), c))
	return c
}

func (e *testEnv) addCustomer(t *testing.T, username string) auth.Principal {
	t.Helper()
	c, err := customerDomain.NewCustomer(username, "hashed", customerDomain.Profile{
		Name:          "Nimal Perera",
		Email:         username + "@example.com",
		Phone:         "+94771234567",
		NIC:           "901234567V",
		LicenceNumber: "B1234567",
	})
	require.NoError(t, err)
	require.NoError(t, e.customers.Save(context.Background(), c))
	return auth.Principal{UserID: c.ID(), Username: username, Role: auth.RoleCustomer}
}

func (e *testEnv) book(t *testing.T, p auth.Principal, carID uuid.UUID, pickup, ret time.Time) *BookingDTO {
	t.Helper()
	bk, err := e.bookingSvc.CreateBooking(context.Background(), p, CreateBookingRequest{
		CarID:      carID,
		PickupDate: pickup,
		ReturnDate: ret,
	})
	require.NoError(t, err)
	return bk
}

func (e *testEnv) stored(t *testing.T, id uuid.UUID) *bookingDomain.Booking {
	t.Helper()
	bk, err := e.bookings.FindByID(context.Background(), id)
	require.NoError(t, err)
	return bk
}

func validCard() CardPaymentRequest {
	return CardPaymentRequest{
		HolderName: "N PERERA",
		Number:     "4111 1111 1111 1111",
		Expiry:     "07/27",
		CVC:        "123",
	}
}
