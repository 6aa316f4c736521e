package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/driveease/service-rental/internal/common/kafka"
	adminDomain "github.com/driveease/service-rental/internal/domain/admin"
	bookingDomain "github.com/driveease/service-rental/internal/domain/booking"
	carDomain "github.com/driveease/service-rental/internal/domain/car"
	customerDomain "github.com/driveease/service-rental/internal/domain/customer"
	feedbackDomain "github.com/driveease/service-rental/internal/domain/feedback"
	paymentDomain "github.com/driveease/service-rental/internal/domain/payment"
	"github.com/google/uuid"
)

// memStore is an in-memory database shared by the fake repositories. Rows are
// stored as copies so services only see their changes after an Update.
type memStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	cars      map[uuid.UUID]carDomain.Car
	bookings  map[uuid.UUID]bookingDomain.Booking
	customers map[uuid.UUID]customerDomain.Customer
	admins    map[uuid.UUID]adminDomain.Admin
	payments  []paymentDomain.Payment
	feedback  []feedbackDomain.Feedback
}

func newMemStore() *memStore {
	return &memStore{
		cars:      map[uuid.UUID]carDomain.Car{},
		bookings:  map[uuid.UUID]bookingDomain.Booking{},
		customers: map[uuid.UUID]customerDomain.Customer{},
		admins:    map[uuid.UUID]adminDomain.Admin{},
	}
}

type memSnapshot struct {
	cars      map[uuid.UUID]carDomain.Car
	bookings  map[uuid.UUID]bookingDomain.Booking
	customers map[uuid.UUID]customerDomain.Customer
	payments  []paymentDomain.Payment
	feedback  []feedbackDomain.Feedback
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		cars:      copyMap(s.cars),
		bookings:  copyMap(s.bookings),
		customers: copyMap(s.customers),
		payments:  append([]paymentDomain.Payment(nil), s.payments...),
		feedback:  append([]feedbackDomain.Feedback(nil), s.feedback...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cars = snap.cars
	s.bookings = snap.bookings
	s.customers = snap.customers
	s.payments = snap.payments
	s.feedback = snap.feedback
}

type inTxKey struct{}

// memTransactor serialises transactions and rolls the store back on error.
type memTransactor struct {
	store *memStore
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func page[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- cars ---

type memCarRepo struct{ s *memStore }

func (r memCarRepo) FindByID(_ context.Context, id uuid.UUID) (*carDomain.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cars[id]
	if !ok {
		return nil, domain.NewNotFoundError("Car", id.String())
	}
	return &c, nil
}

func (r memCarRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*carDomain.Car, error) {
	return r.FindByID(ctx, id)
}

func (r memCarRepo) List(_ context.Context, f carDomain.Filter, pg, limit int) ([]*carDomain.Car, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*carDomain.Car
	for _, c := range r.s.cars {
		c := c
		if !f.IncludeDisabled && !c.IsAvailable() {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name()), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return page(out, pg, limit), int64(len(out)), nil
}

func (r memCarRepo) ExistsByRegistration(_ context.Context, registration string, excludeID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.cars {
		if id != excludeID && c.Spec().RegistrationNumber == registration {
			return true, nil
		}
	}
	return false, nil
}

func (r memCarRepo) Save(_ context.Context, c *carDomain.Car) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cars[c.ID()] = *c
	return nil
}

func (r memCarRepo) Update(_ context.Context, c *carDomain.Car) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.cars[c.ID()]
	if !ok || stored.Version() != c.Version()-1 {
		return domain.NewConflictError("car was modified concurrently")
	}
	r.s.cars[c.ID()] = *c
	return nil
}

func (r memCarRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.cars, id)
	return nil
}

// --- bookings ---

type memBookingRepo struct{ s *memStore }

func (r memBookingRepo) all(match func(b *bookingDomain.Booking) bool) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, b := range r.s.bookings {
		b := b
		if match(&b) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period().Pickup.After(out[j].Period().Pickup) })
	return out
}

func (r memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return &b, nil
}

func (r memBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.all(func(b *bookingDomain.Booking) bool { return b.BookingNumber() == number })
	if len(found) == 0 {
		return nil, domain.NewNotFoundError("Booking", number)
	}
	return found[0], nil
}

func (r memBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, pg, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.all(func(b *bookingDomain.Booking) bool { return b.CustomerID() == customerID })
	return page(found, pg, limit), int64(len(found)), nil
}

func (r memBookingRepo) ListAll(_ context.Context, status *bookingDomain.BookingStatus, pg, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.all(func(b *bookingDomain.Booking) bool { return status == nil || b.Status() == *status })
	return page(found, pg, limit), int64(len(found)), nil
}

func (r memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[string]int64{}
	for _, b := range r.s.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r memBookingRepo) FindOverlapping(_ context.Context, carID uuid.UUID, period bookingDomain.Period, excludeID uuid.UUID) (*bookingDomain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.all(func(b *bookingDomain.Booking) bool {
		return b.CarID() == carID && b.ID() != excludeID && b.Status().IsReserving() && b.Period().Overlaps(period)
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r memBookingRepo) HasReservingForCar(_ context.Context, carID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.all(func(b *bookingDomain.Booking) bool { return b.CarID() == carID && b.Status().IsReserving() })) > 0, nil
}

func (r memBookingRepo) HasReservingForCustomer(_ context.Context, customerID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.all(func(b *bookingDomain.Booking) bool { return b.CustomerID() == customerID && b.Status().IsReserving() })) > 0, nil
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (r memBookingRepo) FindPickupsDue(_ context.Context, from, to time.Time) ([]*bookingDomain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.all(func(b *bookingDomain.Booking) bool {
		return b.Status().IsReserving() && !b.PickupReminderSent() && within(b.Period().Pickup, from, to)
	}), nil
}

func (r memBookingRepo) FindReturnsDue(_ context.Context, from, to time.Time) ([]*bookingDomain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.all(func(b *bookingDomain.Booking) bool {
		return b.Status() == bookingDomain.StatusPaid && !b.ReturnReminderSent() && within(b.Period().Return, from, to)
	}), nil
}

func (r memBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.Status().IsReserving() {
		for _, other := range r.s.bookings {
			if other.CarID() == b.CarID() && other.Status().IsReserving() && other.Period().Overlaps(b.Period()) {
				return domain.NewConflictError("car is already booked for the selected dates")
			}
		}
	}
	r.s.bookings[b.ID()] = *b
	return nil
}

func (r memBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.bookings[b.ID()]
	if !ok || stored.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified concurrently")
	}
	r.s.bookings[b.ID()] = *b
	return nil
}

// --- payments ---

type memPaymentRepo struct{ s *memStore }

func (r memPaymentRepo) Save(_ context.Context, p *paymentDomain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments = append(r.s.payments, *p)
	return nil
}

func (r memPaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*paymentDomain.Payment
	for _, p := range r.s.payments {
		p := p
		if p.BookingID() == bookingID {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r memPaymentRepo) NetPaidForBooking(_ context.Context, bookingID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var net int64
	for _, p := range r.s.payments {
		if p.BookingID() == bookingID {
			net += p.AmountCents()
		}
	}
	return net, nil
}

func (r memPaymentRepo) ListAll(_ context.Context, pg, limit int) ([]*paymentDomain.Payment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*paymentDomain.Payment, 0, len(r.s.payments))
	for i := len(r.s.payments) - 1; i >= 0; i-- {
		p := r.s.payments[i]
		out = append(out, &p)
	}
	return page(out, pg, limit), int64(len(out)), nil
}

// --- customers ---

type memCustomerRepo struct{ s *memStore }

func (r memCustomerRepo) find(match func(c *customerDomain.Customer) bool, key string) (*customerDomain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		c := c
		if match(&c) {
			return &c, nil
		}
	}
	return nil, domain.NewNotFoundError("Customer", key)
}

func (r memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*customerDomain.Customer, error) {
	return r.find(func(c *customerDomain.Customer) bool { return c.ID() == id }, id.String())
}

func (r memCustomerRepo) FindByUsername(_ context.Context, username string) (*customerDomain.Customer, error) {
	return r.find(func(c *customerDomain.Customer) bool { return c.Username() == username }, username)
}

func (r memCustomerRepo) FindByEmail(_ context.Context, email string) (*customerDomain.Customer, error) {
	return r.find(func(c *customerDomain.Customer) bool { return c.Email() == email }, email)
}

func (r memCustomerRepo) FindByVerificationToken(_ context.Context, token string) (*customerDomain.Customer, error) {
	return r.find(func(c *customerDomain.Customer) bool {
		return token != "" && c.Snapshot().VerificationToken == token
	}, "token")
}

func (r memCustomerRepo) FindByPasswordResetToken(_ context.Context, token string) (*customerDomain.Customer, error) {
	return r.find(func(c *customerDomain.Customer) bool {
		return token != "" && c.Snapshot().PasswordResetToken == token
	}, "token")
}

func (r memCustomerRepo) List(_ context.Context, search string, pg, limit int) ([]*customerDomain.Customer, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*customerDomain.Customer
	for _, c := range r.s.customers {
		c := c
		if search == "" || strings.Contains(c.Name(), search) || strings.Contains(c.Username(), search) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username() < out[j].Username() })
	return page(out, pg, limit), int64(len(out)), nil
}

func (r memCustomerRepo) Save(_ context.Context, c *customerDomain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.customers[c.ID()] = *c
	return nil
}

func (r memCustomerRepo) Update(_ context.Context, c *customerDomain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.customers[c.ID()]
	if !ok || stored.Version() != c.Version()-1 {
		return domain.NewConflictError("customer was modified concurrently")
	}
	r.s.customers[c.ID()] = *c
	return nil
}

func (r memCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.customers, id)
	return nil
}

// --- admins ---

type memAdminRepo struct{ s *memStore }

func (r memAdminRepo) FindByID(_ context.Context, id uuid.UUID) (*adminDomain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return nil, domain.NewNotFoundError("Admin", id.String())
	}
	return &a, nil
}

func (r memAdminRepo) FindByUsername(_ context.Context, username string) (*adminDomain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.admins {
		a := a
		if a.Username() == username {
			return &a, nil
		}
	}
	return nil, domain.NewNotFoundError("Admin", username)
}

func (r memAdminRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.admins)), nil
}

func (r memAdminRepo) Save(_ context.Context, a *adminDomain.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.admins[a.ID()] = *a
	return nil
}

// --- feedback ---

type memFeedbackRepo struct{ s *memStore }

func (r memFeedbackRepo) Save(_ context.Context, f *feedbackDomain.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.feedback = append(r.s.feedback, *f)
	return nil
}

func (r memFeedbackRepo) ExistsForBooking(_ context.Context, bookingID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.feedback {
		if f.BookingID() == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (r memFeedbackRepo) FindByCarID(_ context.Context, carID uuid.UUID) ([]*feedbackDomain.Feedback, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*feedbackDomain.Feedback
	for _, f := range r.s.feedback {
		f := f
		if f.CarID() == carID {
			out = append(out, &f)
		}
	}
	return out, nil
}

func (r memFeedbackRepo) ListAll(_ context.Context, pg, limit int) ([]*feedbackDomain.Feedback, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*feedbackDomain.Feedback, 0, len(r.s.feedback))
	for _, f := range r.s.feedback {
		f := f
		out = append(out, &f)
	}
	return page(out, pg, limit), int64(len(out)), nil
}

// --- outbound ---

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	fail bool
	sent []sentMail
}

func (m *fakeMailer) SendEmail(_ context.Context, to, _, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSMS) SendSMS(_ context.Context, to, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

// recordingPublisher captures published event types. With fail set every
// publish returns an error.
type recordingPublisher struct {
	mu    sync.Mutex
	fail  bool
	types []string
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.types = append(p.types, event.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

type memImageStore struct {
	mu      sync.Mutex
	stored  map[string]bool
	removed []string
}

func (s *memImageStore) Put(_ context.Context, folder string, upload ImageUpload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		s.stored = map[string]bool{}
	}
	ref := "/uploads/" + folder + "/" + uuid.NewString() + "-" + upload.Filename
	s.stored[ref] = true
	return ref, nil
}

func (s *memImageStore) Remove(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stored, ref)
	s.removed = append(s.removed, ref)
	return nil
}
