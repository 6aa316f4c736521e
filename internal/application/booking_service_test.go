package application

import (
	"context"
	"sync"
	"testing"

	"github.com/driveease/service-rental/internal/common/domain"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	"github.com/driveease/service-rental/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_PricesAndBlocksOverlaps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")
	kamal := env.addCustomer(t, "kamal")

	first := env.book(t, nimal, car.ID(), day(10), day(12))
	assert.Equal(t, string(bookingDomain.StatusPending), first.Status)
	assert.Equal(t, int64(2), first.RentalDays)
	assert.Equal(t, int64(20000), first.TotalCostCents)
	assert.Equal(t, domain.CurrencyLKR, first.Currency)
	assert.Regexp(t, `^BK-[A-Z2-9]{6}$`, first.BookingNumber)

	_, err := env.bookingSvc.CreateBooking(ctx, kamal, CreateBookingRequest{CarID: car.ID(), PickupDate: day(11), ReturnDate: day(13)})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "car is already booked from 2025-06-10 to 2025-06-12")

	touching := env.book(t, kamal, car.ID(), day(12), day(14))
	assert.Equal(t, int64(20000), touching.TotalCostCents)

	assert.Equal(t, []string{events.BookingCreated, events.BookingCreated}, env.publisher.published())
}

func TestCreateBooking_Rejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")

	t.Run("disabled car", func(t *testing.T) {
		disabled := env.addCar(t, 5000)
		_, err := env.carSvc.SetAvailability(ctx, disabled.ID(), false)
		require.NoError(t, err)

		_, err = env.bookingSvc.CreateBooking(ctx, nimal, CreateBookingRequest{CarID: disabled.ID(), PickupDate: day(10), ReturnDate: day(12)})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("pickup in the past", func(t *testing.T) {
		_, err := env.bookingSvc.CreateBooking(ctx, nimal, CreateBookingRequest{CarID: car.ID(), PickupDate: day(1).AddDate(0, 0, -1), ReturnDate: day(3)})
		assert.True(t, domain.HasCode(err, domain.CodeValidation))
	})

	t.Run("return before pickup", func(t *testing.T) {
		_, err := env.bookingSvc.CreateBooking(ctx, nimal, CreateBookingRequest{CarID: car.ID(), PickupDate: day(12), ReturnDate: day(10)})
		assert.True(t, domain.HasCode(err, domain.CodeValidation))
	})

	t.Run("admin cannot book for themselves", func(t *testing.T) {
		_, err := env.bookingSvc.CreateBooking(ctx, env.admin, CreateBookingRequest{CarID: car.ID(), PickupDate: day(10), ReturnDate: day(12)})
		assert.True(t, domain.HasCode(err, domain.CodeForbidden))
	})

	t.Run("today is allowed", func(t *testing.T) {
		bk := env.book(t, nimal, car.ID(), day(1), day(2))
		assert.Equal(t, int64(10000), bk.TotalCostCents)
	})
}

func TestCreateBooking_ConcurrentRequestsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 10000)

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		p := env.addCustomer(t, "racer"+string(rune('a'+i)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.bookingSvc.CreateBooking(context.Background(), p, CreateBookingRequest{
				CarID: car.ID(), PickupDate: day(10), ReturnDate: day(12),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case domain.IsConflict(err):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)
}

func TestCancellation_AdminApprovalFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")
	bk := env.book(t, nimal, car.ID(), day(10), day(12))

	pay, err := env.paymentSvc.PayByCard(ctx, nimal, bk.ID, validCard())
	require.NoError(t, err)
	assert.Equal(t, int64(20000), pay.AmountCents)
	assert.Regexp(t, `^TXN-\d{14}[A-HJ-NP-Z2-9]{6}$`, pay.TransactionID)

	res, err := env.bookingSvc.RequestCancellation(ctx, nimal, bk.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusCancellationRequested), res.Booking.Status)
	assert.Nil(t, res.Refund)

	// The car stays reserved while the request waits.
	other := env.addCustomer(t, "kamal")
	_, err = env.bookingSvc.CreateBooking(ctx, other, CreateBookingRequest{CarID: car.ID(), PickupDate: day(10), ReturnDate: day(11)})
	assert.True(t, domain.IsConflict(err))

	pending, total, err := env.approvalSvc.ListCancellationRequests(ctx, env.admin, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, bk.ID, pending[0].ID)

	approved, err := env.approvalSvc.ApproveRefund(ctx, env.admin, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusCancelled), approved.Booking.Status)
	require.NotNil(t, approved.Payment)
	assert.Equal(t, int64(-20000), approved.Payment.AmountCents)
	assert.Regexp(t, `^RFD-`, approved.Payment.TransactionID)

	net, err := env.payments.NetPaidForBooking(ctx, bk.ID)
	require.NoError(t, err)
	assert.Zero(t, net)

	_, err = env.approvalSvc.ApproveRefund(ctx, env.admin, bk.ID)
	assert.True(t, domain.IsNotFound(err))

	env.book(t, other, car.ID(), day(10), day(11))
}

func TestCancellation_DirectPolicy(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy()
	policy.Cancellation = bookingDomain.PolicyDirect
	env := newTestEnv(t, policy)
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")

	t.Run("paid booking is refunded", func(t *testing.T) {
		bk := env.book(t, nimal, car.ID(), day(10), day(12))
		_, err := env.paymentSvc.PayByCard(ctx, nimal, bk.ID, validCard())
		require.NoError(t, err)

		res, err := env.bookingSvc.RequestCancellation(ctx, nimal, bk.ID, "")
		require.NoError(t, err)
		assert.Equal(t, string(bookingDomain.StatusCancelled), res.Booking.Status)
		require.NotNil(t, res.Refund)
		assert.Equal(t, int64(-20000), res.Refund.AmountCents)
	})

	t.Run("unpaid booking has no refund row", func(t *testing.T) {
		bk := env.book(t, nimal, car.ID(), day(20), day(22))
		res, err := env.bookingSvc.RequestCancellation(ctx, nimal, bk.ID, "")
		require.NoError(t, err)
		assert.Equal(t, string(bookingDomain.StatusCancelled), res.Booking.Status)
		assert.Nil(t, res.Refund)

		rows, err := env.payments.FindByBookingID(ctx, bk.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("cancelled booking cannot be cancelled again", func(t *testing.T) {
		bk := env.book(t, nimal, car.ID(), day(24), day(25))
		_, err := env.bookingSvc.RequestCancellation(ctx, nimal, bk.ID, "")
		require.NoError(t, err)
		_, err = env.bookingSvc.RequestCancellation(ctx, nimal, bk.ID, "")
		assert.True(t, domain.HasCode(err, domain.CodeInvalidState))
	})
}

func TestAdminCancel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")

	pending := env.book(t, nimal, car.ID(), day(10), day(12))
	res, err := env.bookingSvc.AdminCancel(ctx, env.admin, pending.ID, "no show")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusCancelled), res.Booking.Status)
	assert.Equal(t, "no show", res.Booking.CancelNote)
	assert.Nil(t, res.Refund)

	paid := env.book(t, nimal, car.ID(), day(10), day(12))
	_, err = env.paymentSvc.PayByCard(ctx, nimal, paid.ID, validCard())
	require.NoError(t, err)
	_, err = env.bookingSvc.AdminCancel(ctx, env.admin, paid.ID, "")
	assert.True(t, domain.HasCode(err, domain.CodeInvalidState))

	_, err = env.bookingSvc.AdminCancel(ctx, nimal, paid.ID, "")
	assert.True(t, domain.HasCode(err, domain.CodeForbidden))
}

func TestCreateAdminBooking_RecordsPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 7500)
	nimal := env.addCustomer(t, "nimal")

	res, err := env.bookingSvc.CreateAdminBooking(ctx, env.admin, AdminBookingRequest{
		CustomerID: nimal.UserID,
		CarID:      car.ID(),
		PickupDate: day(10),
		ReturnDate: day(13),
		Method:     "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusPaid), res.Booking.Status)
	assert.Equal(t, int64(22500), res.Payment.AmountCents)
	assert.Equal(t, "cash", res.Payment.Method)
	assert.Equal(t, nimal.UserID, res.Booking.CustomerID)

	_, err = env.bookingSvc.CreateAdminBooking(ctx, env.admin, AdminBookingRequest{
		CustomerID: nimal.UserID, CarID: car.ID(), PickupDate: day(20), ReturnDate: day(21), Method: "cheque",
	})
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}

func TestCreateAdminBooking_ConflictLeavesNoPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")
	env.book(t, nimal, car.ID(), day(10), day(12))

	_, err := env.bookingSvc.CreateAdminBooking(ctx, env.admin, AdminBookingRequest{
		CustomerID: nimal.UserID, CarID: car.ID(), PickupDate: day(11), ReturnDate: day(12), Method: "card",
	})
	assert.True(t, domain.IsConflict(err))

	all, total, err := env.payments.ListAll(ctx, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, all)
}

func TestBookingVisibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")
	kamal := env.addCustomer(t, "kamal")
	bk := env.book(t, nimal, car.ID(), day(10), day(12))

	_, err := env.bookingSvc.GetBooking(ctx, kamal, bk.ID)
	assert.True(t, domain.HasCode(err, domain.CodeForbidden))
	_, err = env.bookingSvc.RequestCancellation(ctx, kamal, bk.ID, "")
	assert.True(t, domain.HasCode(err, domain.CodeForbidden))

	got, err := env.bookingSvc.GetBooking(ctx, env.admin, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, bk.BookingNumber, got.BookingNumber)

	mine, err := env.bookingSvc.ListMyBookings(ctx, nimal, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)

	theirs, err := env.bookingSvc.ListMyBookings(ctx, kamal, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, theirs.Total)
}

func TestListAllBookingsAndStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")
	paid := env.book(t, nimal, car.ID(), day(10), day(12))
	env.book(t, nimal, car.ID(), day(14), day(15))
	_, err := env.paymentSvc.PayByCard(ctx, nimal, paid.ID, validCard())
	require.NoError(t, err)

	list, total, err := env.bookingSvc.ListAllBookings(ctx, env.admin, "paid", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, paid.ID, list[0].ID)

	_, _, err = env.bookingSvc.ListAllBookings(ctx, env.admin, "returned", 1, 20)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))

	stats, err := env.bookingSvc.GetBookingStats(ctx, env.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["pending"])
	assert.Equal(t, int64(1), stats.ByStatus["paid"])
}

func TestPublisherFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, testPolicy())
	env.publisher.fail = true
	car := env.addCar(t, 10000)
	nimal := env.addCustomer(t, "nimal")

	bk := env.book(t, nimal, car.ID(), day(10), day(12))
	_, err := env.paymentSvc.PayByCard(ctx, nimal, bk.ID, validCard())
	require.NoError(t, err)

	assert.Equal(t, bookingDomain.StatusPaid, env.stored(t, bk.ID).Status())
	assert.Empty(t, env.publisher.published())
}
